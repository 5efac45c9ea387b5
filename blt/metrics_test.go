package blt

import (
	"testing"

	"github.com/grailbio/testutil/expect"

	"github.com/grailbio/blt/align"
)

func TestUMIMetricsPureMatch(t *testing.T) {
	s := testSample("s1", true)
	guide := "GGCCTCCCCAAAGCCTGGCCA"
	ann := align.Annotate(guide, guide, false)
	info := TargetInfo{
		Guide:      guide,
		PAM:        "GGGAGT",
		Target:     guide,
		UMI:        "AAAAAAAAAAA",
		Annotation: ann,
		Alignment:  align.Align(guide, guide),
		Observations: []BltObservation{
			{Sample: s, Cut: true, TargetSequences: []string{guide, guide, guide, guide}},
			{Sample: s, Cut: false, TargetSequences: []string{guide}},
		},
	}

	rows := umiMetricsForSample(s, []TargetInfo{info})
	expect.EQ(t, len(rows), 1)
	expect.EQ(t, rows[0].ObsCut, 4)
	expect.EQ(t, rows[0].ObsUncut, 1)
	expect.EQ(t, rows[0].CutRate, 0.8)
	expect.EQ(t, rows[0].Mismatches, 0)
	expect.EQ(t, rows[0].IndelBases, 0)
	expect.EQ(t, len(rows[0].MismatchTuples), 0)

	normalizeUMIRows(rows)
	expect.EQ(t, rows[0].NormalizedCutRate, 1.0)
}

func TestSampleMetricsZeroMismatchBucketIsNormalizedToOne(t *testing.T) {
	s := testSample("s1", true)
	targetRows := []TargetMetric{
		{Sample: s.Name, Mismatches: 0, ObsCut: 8, ObsUncut: 2},
		{Sample: s.Name, Mismatches: 1, ObsCut: 3, ObsUncut: 7},
	}
	rows := sampleMetricsForSample(s, targetRows)
	expect.EQ(t, len(rows), 2)
	expect.EQ(t, rows[0].Mismatches, 0)
	expect.EQ(t, rows[0].NormalizedCutRate, 1.0)
}

func TestSampleMetricsEmptyZeroMismatchBucketFallsBackToUnityBaseRate(t *testing.T) {
	s := testSample("s1", true)
	targetRows := []TargetMetric{
		{Sample: s.Name, Mismatches: 1, ObsCut: 3, ObsUncut: 7},
	}
	rows := sampleMetricsForSample(s, targetRows)
	// no mismatches=0 bucket exists, so zeroRate falls back to 1 and the
	// mismatches=1 row's normalized rate equals its raw cut rate (§9).
	expect.EQ(t, rows[1].Mismatches, 1)
	expect.EQ(t, rows[1].NormalizedCutRate, rows[1].CutRate)
}
