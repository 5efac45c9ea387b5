package blt

import "github.com/grailbio/blt/sample"

// DefaultSpecificityUpperBound is the default n in the specificity-score
// integral (§4.5.4).
const DefaultSpecificityUpperBound = 4

// BltMetric is the experiment-wide, one-row-per-sample specificity score
// (§4.5.4/§6).
type BltMetric struct {
	Sample string
	Guide  string
	Enzyme sample.Enzyme
	PAM    string
	Score  float64
}

// SpecificityScore computes the area under the trapezoidal curve of
// normalized cut rate over mismatches in [1..n], divided by (n-1). rows is
// indexed by SampleMetric.Mismatches; a mismatch count absent from rows
// contributes a normalized cut rate of 0.
func SpecificityScore(rows []SampleMetric, n int) float64 {
	if n < 2 {
		return 0
	}
	values := make([]float64, n+1)
	for _, r := range rows {
		if r.Mismatches >= 1 && r.Mismatches <= n {
			values[r.Mismatches] = r.NormalizedCutRate
		}
	}
	area := 0.0
	for mm := 1; mm < n; mm++ {
		area += 0.5 * (values[mm] + values[mm+1])
	}
	return area / float64(n-1)
}

// bltMetricForSample computes the specificity-score summary row for s.
func bltMetricForSample(s *sample.Sample, sampleRows []SampleMetric, n int) BltMetric {
	return BltMetric{
		Sample: s.Name,
		Guide:  s.Guide,
		Enzyme: s.Enzyme,
		PAM:    s.PAM,
		Score:  SpecificityScore(sampleRows, n),
	}
}
