package blt

import (
	"sort"

	"github.com/grailbio/blt/align"
	"github.com/grailbio/blt/sample"
)

// UMIMetric is one per-UMI row for a single sample: the cut/uncut counts
// observed for one validated TargetInfo restricted to that sample, plus
// the alignment annotation and plot-display strings (§4.5.3).
type UMIMetric struct {
	Sample                  string
	UMI                     string
	Guide                   string
	PAM                     string
	Target                  string
	ObsCut                  int
	ObsUncut                int
	CutRate                 float64
	NormalizedCutRate       float64
	NormCutRateCI95Low      float64
	NormCutRateCI95High     float64
	CIGAR                   string
	IndelBases              int
	Mismatches              int
	MeanMismatchPosition    float64
	HasMeanMismatchPosition bool
	MismatchTuples          []align.MismatchTuple
	Location                string
	PaddedGuide             string
	Alignment               string
	PaddedTarget            string
}

// TargetMetric is the per-target rollup of UMIMetric rows sharing a target
// sequence within one sample (§4.5.3).
type TargetMetric struct {
	Sample                  string
	Target                  string
	Guide                   string
	PAM                     string
	UMI                     string // the single source UMI, or "multiple"
	ObsCut                  int
	ObsUncut                int
	CutRate                 float64
	NormalizedCutRate       float64
	NormCutRateCI95Low      float64
	NormCutRateCI95High     float64
	CIGAR                   string
	IndelBases              int
	Mismatches              int
	MeanMismatchPosition    float64
	HasMeanMismatchPosition bool
	Location                string
}

// SampleMetric is one per-mismatch-count rollup row for a sample (§4.5.3).
type SampleMetric struct {
	Sample            string
	Mismatches        int
	TargetCount       int
	ObsCut            int
	ObsUncut          int
	CutRate           float64
	NormalizedCutRate float64
}

// cutRate returns obsCut/(obsCut+obsUncut), or 0 if there are no
// observations.
func cutRate(obsCut, obsUncut int) float64 {
	total := obsCut + obsUncut
	if total == 0 {
		return 0
	}
	return float64(obsCut) / float64(total)
}

// normalize divides x by baseRate, falling back to dividing by 1 (i.e.
// returning x unchanged) when baseRate is 0 -- the empty-zero-mismatch-pool
// behavior documented as an open question in §9, preserved as-is.
func normalize(x, baseRate float64) float64 {
	if baseRate == 0 {
		return x
	}
	return x / baseRate
}

// umiMetricsForSample builds the per-UMI rows for sample s from the
// validated target infos whose observations include s.
func umiMetricsForSample(s *sample.Sample, infos []TargetInfo) []UMIMetric {
	var rows []UMIMetric
	for _, t := range infos {
		obsCut, obsUncut := 0, 0
		for _, obs := range t.Observations {
			if obs.Sample.Name != s.Name {
				continue
			}
			n := len(obs.TargetSequences)
			if obs.Cut {
				obsCut += n
			} else {
				obsUncut += n
			}
		}
		if obsCut+obsUncut == 0 {
			continue
		}
		location, _ := s.OffTargets[t.Target]
		paddedGuide, alignmentLine, paddedTarget := t.Alignment.Padded()
		rows = append(rows, UMIMetric{
			Sample:                  s.Name,
			UMI:                     t.UMI,
			Guide:                   t.Guide,
			PAM:                     t.PAM,
			Target:                  t.Target,
			ObsCut:                  obsCut,
			ObsUncut:                obsUncut,
			CutRate:                 cutRate(obsCut, obsUncut),
			CIGAR:                   t.Annotation.CIGAR,
			IndelBases:              t.Annotation.IndelBases,
			Mismatches:              t.Annotation.Mismatches,
			MeanMismatchPosition:    t.Annotation.MeanMismatchPosition,
			HasMeanMismatchPosition: t.Annotation.HasMeanMismatchPosition,
			MismatchTuples:          t.MismatchTuples(),
			Location:                location,
			PaddedGuide:             paddedGuide,
			Alignment:               alignmentLine,
			PaddedTarget:            paddedTarget,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].UMI != rows[j].UMI {
			return rows[i].UMI < rows[j].UMI
		}
		return rows[i].Target < rows[j].Target
	})
	return rows
}

// baseRateFrom computes the §4.5.3 baseRate from a cut/total pair, or
// returns 0 when the pool is empty, signalling the caller to fall back to
// unnormalized rates (§9).
func baseRateFrom(cutSum, totalSum int) float64 {
	if totalSum == 0 {
		return 0
	}
	return float64(cutSum) / float64(totalSum)
}

// normalizeUMIRows fills in NormalizedCutRate and the Wilson CI bounds for
// each row, using the base rate derived from the zero-mismatch/zero-indel
// subset (§4.5.3).
func normalizeUMIRows(rows []UMIMetric) {
	cutSum, totalSum := 0, 0
	for _, r := range rows {
		if r.IndelBases == 0 && r.Mismatches == 0 {
			cutSum += r.ObsCut
			totalSum += r.ObsCut + r.ObsUncut
		}
	}
	baseRate := baseRateFrom(cutSum, totalSum)
	for i := range rows {
		rows[i].NormalizedCutRate = normalize(rows[i].CutRate, baseRate)
		low, high := wilsonInterval(rows[i].ObsCut, rows[i].ObsCut+rows[i].ObsUncut)
		rows[i].NormCutRateCI95Low = normalize(low, baseRate)
		rows[i].NormCutRateCI95High = normalize(high, baseRate)
	}
}

// targetMetricsForSample rolls up per-UMI rows by target sequence.
func targetMetricsForSample(s *sample.Sample, umiRows []UMIMetric) []TargetMetric {
	type agg struct {
		umis     map[string]bool
		obsCut   int
		obsUncut int
		row      UMIMetric // any member row, for its alignment-derived fields
	}
	order := []string{}
	byTarget := map[string]*agg{}
	for _, r := range umiRows {
		a, ok := byTarget[r.Target]
		if !ok {
			a = &agg{umis: map[string]bool{}}
			byTarget[r.Target] = a
			order = append(order, r.Target)
		}
		a.umis[r.UMI] = true
		a.obsCut += r.ObsCut
		a.obsUncut += r.ObsUncut
		a.row = r
	}
	sort.Strings(order)

	var rows []TargetMetric
	for _, target := range order {
		a := byTarget[target]
		umi := a.row.UMI
		if len(a.umis) > 1 {
			umi = "multiple"
		}
		rows = append(rows, TargetMetric{
			Sample:                  s.Name,
			Target:                  target,
			Guide:                   a.row.Guide,
			PAM:                     a.row.PAM,
			UMI:                     umi,
			ObsCut:                  a.obsCut,
			ObsUncut:                a.obsUncut,
			CutRate:                 cutRate(a.obsCut, a.obsUncut),
			CIGAR:                   a.row.CIGAR,
			IndelBases:              a.row.IndelBases,
			Mismatches:              a.row.Mismatches,
			MeanMismatchPosition:    a.row.MeanMismatchPosition,
			HasMeanMismatchPosition: a.row.HasMeanMismatchPosition,
			Location:                a.row.Location,
		})
	}

	cutSum, totalSum := 0, 0
	for _, r := range rows {
		if r.IndelBases == 0 && r.Mismatches == 0 {
			cutSum += r.ObsCut
			totalSum += r.ObsCut + r.ObsUncut
		}
	}
	baseRate := baseRateFrom(cutSum, totalSum)
	for i := range rows {
		rows[i].NormalizedCutRate = normalize(rows[i].CutRate, baseRate)
		low, high := wilsonInterval(rows[i].ObsCut, rows[i].ObsCut+rows[i].ObsUncut)
		rows[i].NormCutRateCI95Low = normalize(low, baseRate)
		rows[i].NormCutRateCI95High = normalize(high, baseRate)
	}
	return rows
}

// sampleMetricsForSample rolls per-target rows (restricted to those with
// IndelBases == 0) up into one row per distinct mismatch count, emitting
// every value in [0..maxObserved] even when no target has it (§4.5.3).
func sampleMetricsForSample(s *sample.Sample, targetRows []TargetMetric) []SampleMetric {
	type bucket struct {
		targets  int
		obsCut   int
		obsUncut int
	}
	buckets := map[int]*bucket{}
	maxMismatches := 0
	for _, r := range targetRows {
		if r.IndelBases != 0 {
			continue
		}
		b, ok := buckets[r.Mismatches]
		if !ok {
			b = &bucket{}
			buckets[r.Mismatches] = b
		}
		b.targets++
		b.obsCut += r.ObsCut
		b.obsUncut += r.ObsUncut
		if r.Mismatches > maxMismatches {
			maxMismatches = r.Mismatches
		}
	}

	zeroRate := 1.0
	if b, ok := buckets[0]; ok && (b.obsCut+b.obsUncut) > 0 {
		zeroRate = cutRate(b.obsCut, b.obsUncut)
	}

	rows := make([]SampleMetric, 0, maxMismatches+1)
	for mm := 0; mm <= maxMismatches; mm++ {
		b, ok := buckets[mm]
		row := SampleMetric{Sample: s.Name, Mismatches: mm}
		if ok {
			row.TargetCount = b.targets
			row.ObsCut = b.obsCut
			row.ObsUncut = b.obsUncut
			row.CutRate = cutRate(b.obsCut, b.obsUncut)
		}
		row.NormalizedCutRate = row.CutRate / zeroRate
		rows = append(rows, row)
	}
	return rows
}
