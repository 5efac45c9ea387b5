package blt

import (
	"testing"

	"github.com/grailbio/testutil/expect"
)

func TestSpecificityScore(t *testing.T) {
	rows := []SampleMetric{
		{Mismatches: 0, NormalizedCutRate: 1.0},
		{Mismatches: 1, NormalizedCutRate: 0.9375},
		{Mismatches: 2, NormalizedCutRate: 0.875},
		{Mismatches: 3, NormalizedCutRate: 0.6875},
		{Mismatches: 4, NormalizedCutRate: 0.5},
	}
	score := SpecificityScore(rows, 4)
	expect.True(t, score > 0.760 && score < 0.761)
}

func TestSpecificityScoreMissingMismatchCountIsZero(t *testing.T) {
	rows := []SampleMetric{
		{Mismatches: 1, NormalizedCutRate: 1.0},
	}
	// mismatches 2..4 are absent and contribute 0, dragging the score down
	// sharply relative to a fully-populated curve.
	score := SpecificityScore(rows, 4)
	expect.True(t, score < 0.5)
}
