package align

import (
	"testing"

	"github.com/grailbio/testutil/expect"
)

const testGuide = "GGCCTCCCCAAAGCCTGGCCA"

func TestAlignPureMatch(t *testing.T) {
	a := Align(testGuide, testGuide)
	expect.EQ(t, a.CIGAR(), "21=")
	expect.EQ(t, a.Mismatches(), 0)
	expect.EQ(t, a.IndelBases(), 0)
	expect.EQ(t, len(a.MismatchPositions(false)), 0)
	_, ok := a.MeanMismatchPosition(false)
	expect.False(t, ok)
}

func TestAlignThreeMismatchesPam3Prime(t *testing.T) {
	target := "GGACTCCCCATAGCCTGGCCG"
	a := Align(testGuide, target)
	expect.EQ(t, a.CIGAR(), "2=1X7=1X9=1X")
	expect.EQ(t, a.Mismatches(), 3)
	expect.EQ(t, a.IndelBases(), 0)

	positions := a.MismatchPositions(false)
	expect.EQ(t, len(positions), 3)
	expect.EQ(t, positions[0], 1)
	expect.EQ(t, positions[1], 11)
	expect.EQ(t, positions[2], 19)

	mean, ok := a.MeanMismatchPosition(false)
	expect.True(t, ok)
	expect.True(t, mean > 10.333 && mean < 10.334)
}

func TestAlignIndelPlusMismatch(t *testing.T) {
	target := "GGCACTCCCCAAAGCCTGCCCA"
	a := Align(testGuide, target)
	expect.EQ(t, a.CIGAR(), "3=1D14=1X3=")
	expect.EQ(t, a.Mismatches(), 1)
	expect.EQ(t, a.IndelBases(), 1)
	expect.EQ(t, len(a.MismatchPositions(false)), 0)
}

func TestAnnotateCas9Orientation(t *testing.T) {
	target := "GGACTCCCCATAGCCTGGCCG"
	ann := Annotate(testGuide, target, false)
	expect.EQ(t, ann.CIGAR, "2=1X7=1X9=1X")
	expect.EQ(t, ann.Mismatches, 3)
	expect.EQ(t, len(ann.MismatchPositions), 3)
	expect.EQ(t, ann.MismatchPositions[0], 1)
	expect.True(t, ann.HasMeanMismatchPosition)
}

func TestAnnotateNoIndelPositionsWhenIndelPresent(t *testing.T) {
	target := "GGCACTCCCCAAAGCCTGCCCA"
	ann := Annotate(testGuide, target, false)
	expect.EQ(t, len(ann.MismatchPositions), 0)
	expect.False(t, ann.HasMeanMismatchPosition)
}

func TestPaddedRoundTrip(t *testing.T) {
	target := "GGCACTCCCCAAAGCCTGCCCA"
	a := Align(testGuide, target)
	q, mid, r := a.Padded()
	expect.EQ(t, len(q), len(mid))
	expect.EQ(t, len(q), len(r))
}
