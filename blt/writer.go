package blt

import (
	"strconv"
	"strings"

	"github.com/grailbio/base/tsv"

	"github.com/grailbio/blt/align"
	"github.com/grailbio/blt/extract"
	"github.com/grailbio/blt/sample"
)

// formatBool renders a boolean as "true"/"false" (§6).
func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// formatFloat renders a float with enough precision to round-trip.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// formatOptionalFloat renders f, or "" when present is false -- the
// convention used for absent-optional columns throughout §6.
func formatOptionalFloat(f float64, present bool) string {
	if !present {
		return ""
	}
	return formatFloat(f)
}

// formatMismatchTuples renders mismatch tuples as "pos:guideBase>targetBase"
// entries separated by commas, or "" when empty.
func formatMismatchTuples(tuples []align.MismatchTuple) string {
	parts := make([]string, len(tuples))
	for i, t := range tuples {
		parts[i] = strconv.Itoa(t.Position) + ":" + string(t.GuideBase) + ">" + string(t.TargetBase)
	}
	return strings.Join(parts, ",")
}

// writeExtraColumns appends s's extra-attribute values, in sorted key
// order, as additional columns on the current row (§6/§9).
func writeExtraColumns(w *tsv.Writer, s *sample.Sample) {
	for _, k := range s.ExtraKeys() {
		w.WriteString(s.Extra[k])
	}
}

// writeExtraHeader appends s's extra-attribute column names, in sorted key
// order, to the current header row.
func writeExtraHeader(w *tsv.Writer, s *sample.Sample) {
	for _, k := range s.ExtraKeys() {
		w.WriteString(k)
	}
}

// WriteDemultiplexingSummary writes the one-row experiment-wide
// demultiplexing summary (§6).
func WriteDemultiplexingSummary(w *tsv.Writer, stats extract.Stats) error {
	w.WriteString("failed_to_id_landmarks")
	w.WriteString("failed_to_id_sample")
	w.WriteString("extracted")
	w.WriteString("failed_quality")
	w.WriteString("failed_extract_target")
	if err := w.EndLine(); err != nil {
		return err
	}

	var extracted, failedQuality, failedExtract int
	for _, ss := range stats.PerSample {
		extracted += ss.Extracted
		failedQuality += ss.FailedQuality
		failedExtract += ss.FailedExtract
	}

	w.WriteInt64(int64(stats.FailedLandmarks))
	w.WriteInt64(int64(stats.FailedAssign))
	w.WriteInt64(int64(extracted))
	w.WriteInt64(int64(failedQuality))
	w.WriteInt64(int64(failedExtract))
	if err := w.EndLine(); err != nil {
		return err
	}
	return w.Flush()
}

// WriteDemultiplexingDetails writes the one-row-per-sample demultiplexing
// detail table (§6).
func WriteDemultiplexingDetails(w *tsv.Writer, m *sample.Manifest, stats extract.Stats) error {
	w.WriteString("sample")
	w.WriteString("extracted")
	w.WriteString("failed_quality")
	w.WriteString("failed_extract_target")
	if len(m.Samples) > 0 {
		writeExtraHeader(w, m.Samples[0])
	}
	if err := w.EndLine(); err != nil {
		return err
	}

	for _, s := range m.Samples {
		ss := stats.PerSample[s.Name]
		w.WriteString(s.Name)
		if ss == nil {
			w.WriteInt64(0)
			w.WriteInt64(0)
			w.WriteInt64(0)
		} else {
			w.WriteInt64(int64(ss.Extracted))
			w.WriteInt64(int64(ss.FailedQuality))
			w.WriteInt64(int64(ss.FailedExtract))
		}
		writeExtraColumns(w, s)
		if err := w.EndLine(); err != nil {
			return err
		}
	}
	return w.Flush()
}

// WriteTargetValidation writes the target_validation table: one row per
// observed (UMI, guide, PAM) triple (§6).
func WriteTargetValidation(w *tsv.Writer, rows []TargetValidationMetric) error {
	w.WriteString("umi")
	w.WriteString("guide")
	w.WriteString("pam")
	w.WriteString("cut_reads_in_cut_samples")
	w.WriteString("uncut_reads_in_cut_samples")
	w.WriteString("cut_reads_in_naive_samples")
	w.WriteString("uncut_reads_in_naive_samples")
	w.WriteString("target")
	w.WriteString("valid")
	w.WriteString("fraction_identical")
	if err := w.EndLine(); err != nil {
		return err
	}
	for _, r := range rows {
		w.WriteString(r.UMI)
		w.WriteString(r.Guide)
		w.WriteString(r.PAM)
		w.WriteInt64(int64(r.CutReadsInCutSamples))
		w.WriteInt64(int64(r.UncutReadsInCutSamples))
		w.WriteInt64(int64(r.CutReadsInNaiveSamples))
		w.WriteInt64(int64(r.UncutReadsInNaiveSamples))
		w.WriteString(r.Target)
		w.WriteString(formatBool(r.Valid))
		w.WriteString(formatOptionalFloat(r.FractionIdentical, r.HasFractionIdentical))
		if err := w.EndLine(); err != nil {
			return err
		}
	}
	return w.Flush()
}

// WriteSummary writes the experiment-wide summary.txt: one row per sample
// with its specificity score (§6).
func WriteSummary(w *tsv.Writer, results []SampleResult) error {
	w.WriteString("sample")
	w.WriteString("guide")
	w.WriteString("enzyme")
	w.WriteString("pam")
	w.WriteString("score")
	if len(results) > 0 {
		writeExtraHeader(w, results[0].Sample)
	}
	if err := w.EndLine(); err != nil {
		return err
	}
	for _, r := range results {
		w.WriteString(r.Sample.Name)
		w.WriteString(r.BltMetric.Guide)
		w.WriteString(string(r.BltMetric.Enzyme))
		w.WriteString(r.BltMetric.PAM)
		w.WriteString(formatFloat(r.BltMetric.Score))
		writeExtraColumns(w, r.Sample)
		if err := w.EndLine(); err != nil {
			return err
		}
	}
	return w.Flush()
}

// WriteSampleUMIs writes one sample's per-UMI metric table
// (<sample>.umis.txt.gz, §6).
func WriteSampleUMIs(w *tsv.Writer, rows []UMIMetric) error {
	w.WriteString("umi")
	w.WriteString("guide")
	w.WriteString("pam")
	w.WriteString("target")
	w.WriteString("obs_cut")
	w.WriteString("obs_uncut")
	w.WriteString("cut_rate")
	w.WriteString("normalized_cut_rate")
	w.WriteString("norm_cut_rate_ci95_low")
	w.WriteString("norm_cut_rate_ci95_high")
	w.WriteString("cigar")
	w.WriteString("indel_bases")
	w.WriteString("mismatches")
	w.WriteString("mean_mismatch_position")
	w.WriteString("mismatch_tuples")
	w.WriteString("location")
	w.WriteString("padded_guide")
	w.WriteString("alignment")
	w.WriteString("padded_target")
	if err := w.EndLine(); err != nil {
		return err
	}
	for _, r := range rows {
		w.WriteString(r.UMI)
		w.WriteString(r.Guide)
		w.WriteString(r.PAM)
		w.WriteString(r.Target)
		w.WriteInt64(int64(r.ObsCut))
		w.WriteInt64(int64(r.ObsUncut))
		w.WriteString(formatFloat(r.CutRate))
		w.WriteString(formatFloat(r.NormalizedCutRate))
		w.WriteString(formatFloat(r.NormCutRateCI95Low))
		w.WriteString(formatFloat(r.NormCutRateCI95High))
		w.WriteString(r.CIGAR)
		w.WriteInt64(int64(r.IndelBases))
		w.WriteInt64(int64(r.Mismatches))
		w.WriteString(formatOptionalFloat(r.MeanMismatchPosition, r.HasMeanMismatchPosition))
		w.WriteString(formatMismatchTuples(r.MismatchTuples))
		w.WriteString(r.Location)
		w.WriteString(r.PaddedGuide)
		w.WriteString(r.Alignment)
		w.WriteString(r.PaddedTarget)
		if err := w.EndLine(); err != nil {
			return err
		}
	}
	return w.Flush()
}

// WriteSampleTargets writes one sample's per-target metric table
// (<sample>.targets.txt.gz, §6).
func WriteSampleTargets(w *tsv.Writer, rows []TargetMetric) error {
	w.WriteString("umi")
	w.WriteString("guide")
	w.WriteString("pam")
	w.WriteString("target")
	w.WriteString("obs_cut")
	w.WriteString("obs_uncut")
	w.WriteString("cut_rate")
	w.WriteString("normalized_cut_rate")
	w.WriteString("norm_cut_rate_ci95_low")
	w.WriteString("norm_cut_rate_ci95_high")
	w.WriteString("cigar")
	w.WriteString("indel_bases")
	w.WriteString("mismatches")
	w.WriteString("mean_mismatch_position")
	w.WriteString("location")
	if err := w.EndLine(); err != nil {
		return err
	}
	for _, r := range rows {
		w.WriteString(r.UMI)
		w.WriteString(r.Guide)
		w.WriteString(r.PAM)
		w.WriteString(r.Target)
		w.WriteInt64(int64(r.ObsCut))
		w.WriteInt64(int64(r.ObsUncut))
		w.WriteString(formatFloat(r.CutRate))
		w.WriteString(formatFloat(r.NormalizedCutRate))
		w.WriteString(formatFloat(r.NormCutRateCI95Low))
		w.WriteString(formatFloat(r.NormCutRateCI95High))
		w.WriteString(r.CIGAR)
		w.WriteInt64(int64(r.IndelBases))
		w.WriteInt64(int64(r.Mismatches))
		w.WriteString(formatOptionalFloat(r.MeanMismatchPosition, r.HasMeanMismatchPosition))
		w.WriteString(r.Location)
		if err := w.EndLine(); err != nil {
			return err
		}
	}
	return w.Flush()
}

// WriteSampleSummary writes one sample's per-mismatch rollup
// (<sample>.summary.txt, §6).
func WriteSampleSummary(w *tsv.Writer, rows []SampleMetric) error {
	w.WriteString("mismatches")
	w.WriteString("target_count")
	w.WriteString("obs_cut")
	w.WriteString("obs_uncut")
	w.WriteString("cut_rate")
	w.WriteString("normalized_cut_rate")
	if err := w.EndLine(); err != nil {
		return err
	}
	for _, r := range rows {
		w.WriteInt64(int64(r.Mismatches))
		w.WriteInt64(int64(r.TargetCount))
		w.WriteInt64(int64(r.ObsCut))
		w.WriteInt64(int64(r.ObsUncut))
		w.WriteString(formatFloat(r.CutRate))
		w.WriteString(formatFloat(r.NormalizedCutRate))
		if err := w.EndLine(); err != nil {
			return err
		}
	}
	return w.Flush()
}
