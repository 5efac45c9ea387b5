package blt

import (
	"sort"

	"github.com/grailbio/blt/align"
)

// TargetInfo is a validated (UMI, guide, PAM) pairing: the consensus target
// sequence, every observation sharing that key across every sample, and the
// guide-to-target alignment annotation (§3/§4.5.2).
type TargetInfo struct {
	Guide        string
	PAM          string
	Target       string
	UMI          string
	Observations []BltObservation
	Annotation   align.TargetAnnotation
	Alignment    align.Alignment
}

// MismatchTuples returns the (position, guideBase, targetBase) tuples for
// t's guide-to-target alignment (§4.5.3), or nil if any indel is present.
func (t TargetInfo) MismatchTuples() []align.MismatchTuple {
	return t.Alignment.MismatchTuples(t.Annotation.PamIs5PrimeOfTarget)
}

// TargetValidationMetric is the one-row-per-(UMI,guide,PAM) validation
// summary, always emitted regardless of validity (§4.5.2).
type TargetValidationMetric struct {
	UMI                      string
	Guide                    string
	PAM                      string
	CutReadsInCutSamples     int
	UncutReadsInCutSamples   int
	CutReadsInNaiveSamples   int
	UncutReadsInNaiveSamples int
	Target                   string
	Valid                    bool
	FractionIdentical        float64
	HasFractionIdentical     bool
}

// targetKey groups observations for validation.
type targetKey struct {
	umi   string
	guide string
	pam   string
}

// ValidateTargets groups observations by (UMI, guide, PAM), selects a
// consensus target from the eligible uncut reads in each group, and emits
// a TargetValidationMetric for every group plus a TargetInfo for every
// group that validates. naive samples (Sample.Cut == false) are always
// eligible for consensus selection; cut samples are eligible only when
// useCutSamplesInValidation is set.
func ValidateTargets(observations []BltObservation, minUncutReads int, minIdenticalFraction float64, useCutSamplesInValidation bool) ([]TargetInfo, []TargetValidationMetric) {
	var order []targetKey
	groups := map[targetKey][]BltObservation{}
	for _, obs := range observations {
		key := targetKey{umi: obs.UMI, guide: obs.Guide, pam: obs.PAM}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], obs)
	}
	sort.Slice(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if a.guide != b.guide {
			return a.guide < b.guide
		}
		if a.pam != b.pam {
			return a.pam < b.pam
		}
		return a.umi < b.umi
	})

	var infos []TargetInfo
	var metrics []TargetValidationMetric
	for _, key := range order {
		obsList := groups[key]
		metric, target, valid := validateGroup(obsList, minUncutReads, minIdenticalFraction, useCutSamplesInValidation)
		metric.UMI, metric.Guide, metric.PAM = key.umi, key.guide, key.pam
		metrics = append(metrics, metric)
		if valid {
			enzyme := obsList[0].Sample.Enzyme
			pam5Prime := enzyme.PamIs5PrimeOfTarget()
			alignment := align.Align(key.guide, target)
			infos = append(infos, TargetInfo{
				Guide:        key.guide,
				PAM:          key.pam,
				Target:       target,
				UMI:          key.umi,
				Observations: obsList,
				Annotation:   align.Annotate(key.guide, target, pam5Prime),
				Alignment:    alignment,
			})
		}
	}
	return infos, metrics
}

func validateGroup(obsList []BltObservation, minUncutReads int, minIdenticalFraction float64, useCutSamplesInValidation bool) (metric TargetValidationMetric, consensus string, valid bool) {
	counts := map[string]int{}
	eligibleTotal := 0
	for _, obs := range obsList {
		n := len(obs.TargetSequences)
		if obs.Sample.Cut {
			if obs.Cut {
				metric.CutReadsInCutSamples += n
			} else {
				metric.UncutReadsInCutSamples += n
			}
		} else {
			if obs.Cut {
				metric.CutReadsInNaiveSamples += n
			} else {
				metric.UncutReadsInNaiveSamples += n
			}
		}
		if obs.Cut {
			continue
		}
		if obs.Sample.Cut && !useCutSamplesInValidation {
			continue
		}
		for _, t := range obs.TargetSequences {
			counts[t]++
			eligibleTotal++
		}
	}

	if eligibleTotal == 0 {
		return metric, "", false
	}

	var keys []string
	for t := range counts {
		keys = append(keys, t)
	}
	sort.Strings(keys)
	topCount, topTarget := 0, ""
	for _, t := range keys {
		if counts[t] > topCount {
			topCount, topTarget = counts[t], t
		}
	}

	fractionIdentical := float64(topCount) / float64(eligibleTotal)
	metric.Target = topTarget
	metric.FractionIdentical = fractionIdentical
	metric.HasFractionIdentical = true
	metric.Valid = eligibleTotal >= minUncutReads && fractionIdentical >= minIdenticalFraction
	return metric, topTarget, metric.Valid
}
