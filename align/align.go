// Package align implements Needleman-Wunsch/Gotoh affine-gap global
// alignment between a guide sequence and an observed target sequence, and
// the mismatch/indel annotation derived from the resulting alignment. See
// §4.4 for the exact scoring constants and derivation rules.
package align

import (
	"strconv"
	"strings"
)

// Scoring constants, fixed per §4.4. The ratio between match/mismatch and
// gap-open/gap-extend was chosen upstream so the fraction of equal-length
// alignments containing indels tracks the empirically expected double-indel
// rate; these are not meant to be tuned.
const (
	matchScore    = 4
	mismatchScore = -2
	gapOpen       = -5
	gapExtend     = -2
)

const negInf = -(1 << 30)

// OpKind is one run-length-encoded alignment operation.
type OpKind byte

const (
	// Match is an equal base pair (query[i] == reference[j]).
	Match OpKind = '='
	// Mismatch is a substituted base pair.
	Mismatch OpKind = 'X'
	// Insertion consumes a query base with no corresponding reference base
	// ("insertion-in-query").
	Insertion OpKind = 'I'
	// Deletion consumes a reference base with no corresponding query base
	// ("deletion-in-query").
	Deletion OpKind = 'D'
)

// Op is one run of consecutive operations of the same kind.
type Op struct {
	Kind   OpKind
	Length int
}

// Alignment is the result of a global alignment between a query (guide)
// and a reference (observed target).
type Alignment struct {
	Query     string
	Reference string
	Ops       []Op
	Score     int
}

// CIGAR renders the operation sequence as a CIGAR-like string, e.g.
// "2=1X7=1X9=1X".
func (a Alignment) CIGAR() string {
	var sb strings.Builder
	for _, op := range a.Ops {
		sb.WriteString(strconv.Itoa(op.Length))
		sb.WriteByte(byte(op.Kind))
	}
	return sb.String()
}

// Mismatches returns the total number of mismatched bases.
func (a Alignment) Mismatches() int {
	n := 0
	for _, op := range a.Ops {
		if op.Kind == Mismatch {
			n += op.Length
		}
	}
	return n
}

// IndelBases returns the sum of insertion and deletion run lengths; a
// 1-base insertion and a 1-base deletion sum to 2, never cancel.
func (a Alignment) IndelBases() int {
	n := 0
	for _, op := range a.Ops {
		if op.Kind == Insertion || op.Kind == Deletion {
			n += op.Length
		}
	}
	return n
}

// MismatchPositions returns the 1-based positions (along the query) of
// every mismatched base, left-to-right, or nil if any indel is present
// (§4.4). When pamIs5PrimeOfTarget is false (the Cas9 case: PAM is 3' of
// the target), positions are reversed so position 1 is the base adjacent
// to the PAM.
func (a Alignment) MismatchPositions(pamIs5PrimeOfTarget bool) []int {
	if a.IndelBases() > 0 {
		return nil
	}
	var positions []int
	pos := 0
	for _, op := range a.Ops {
		for i := 0; i < op.Length; i++ {
			pos++
			if op.Kind == Mismatch {
				positions = append(positions, pos)
			}
		}
	}
	if !pamIs5PrimeOfTarget {
		n := len(a.Query)
		for i, p := range positions {
			positions[i] = n - p + 1
		}
		// Reversing the distance-from-start positions into
		// distance-from-PAM order also reverses their left-to-right
		// order; restore ascending order.
		for l, r := 0, len(positions)-1; l < r; l, r = l+1, r-1 {
			positions[l], positions[r] = positions[r], positions[l]
		}
	}
	return positions
}

// MismatchTuple is one mismatched base pair, labeled with its distance-
// from-PAM position (see MismatchPositions).
type MismatchTuple struct {
	Position   int
	GuideBase  byte
	TargetBase byte
}

// MismatchTuples returns one MismatchTuple per mismatched base, in the
// same order and position convention as MismatchPositions, or nil if any
// indel is present.
func (a Alignment) MismatchTuples(pamIs5PrimeOfTarget bool) []MismatchTuple {
	if a.IndelBases() > 0 {
		return nil
	}
	var tuples []MismatchTuple
	pos := 0
	for _, op := range a.Ops {
		for i := 0; i < op.Length; i++ {
			pos++
			if op.Kind == Mismatch {
				tuples = append(tuples, MismatchTuple{Position: pos, GuideBase: a.Query[pos-1], TargetBase: a.Reference[pos-1]})
			}
		}
	}
	if !pamIs5PrimeOfTarget {
		n := len(a.Query)
		for i := range tuples {
			tuples[i].Position = n - tuples[i].Position + 1
		}
		for l, r := 0, len(tuples)-1; l < r; l, r = l+1, r-1 {
			tuples[l], tuples[r] = tuples[r], tuples[l]
		}
	}
	return tuples
}

// MeanMismatchPosition returns the arithmetic mean of MismatchPositions,
// and false when there are no mismatches or any indel is present.
func (a Alignment) MeanMismatchPosition(pamIs5PrimeOfTarget bool) (float64, bool) {
	positions := a.MismatchPositions(pamIs5PrimeOfTarget)
	if len(positions) == 0 {
		return 0, false
	}
	sum := 0
	for _, p := range positions {
		sum += p
	}
	return float64(sum) / float64(len(positions)), true
}

// Padded returns the query and reference tracks padded with '-' at indel
// positions, plus a middle marker track ('|' at matches, ' ' elsewhere),
// suitable for a three-line alignment display.
func (a Alignment) Padded() (query, mid, reference string) {
	var q, m, r strings.Builder
	qi, ri := 0, 0
	for _, op := range a.Ops {
		for i := 0; i < op.Length; i++ {
			switch op.Kind {
			case Match:
				q.WriteByte(a.Query[qi])
				r.WriteByte(a.Reference[ri])
				m.WriteByte('|')
				qi++
				ri++
			case Mismatch:
				q.WriteByte(a.Query[qi])
				r.WriteByte(a.Reference[ri])
				m.WriteByte(' ')
				qi++
				ri++
			case Insertion:
				q.WriteByte(a.Query[qi])
				r.WriteByte('-')
				m.WriteByte(' ')
				qi++
			case Deletion:
				q.WriteByte('-')
				r.WriteByte(a.Reference[ri])
				m.WriteByte(' ')
				ri++
			}
		}
	}
	return q.String(), m.String(), r.String()
}

// state identifies which of the three Gotoh matrices a traceback cell
// belongs to.
type state int

const (
	stateM state = iota
	stateIx
	stateIy
)

// Align performs global alignment of query against reference using the
// Gotoh three-matrix affine-gap recurrence: M (match/mismatch), Ix (gap in
// the reference, i.e. a run of Insertion), Iy (gap in the query, i.e. a
// run of Deletion). Ties are broken in favor of extending a match/mismatch
// diagonal over opening or extending a gap, and in favor of opening a new
// gap over extending an old one, mirroring the traceback preference order
// of a straightforward NW implementation.
func Align(query, reference string) Alignment {
	n, m := len(query), len(reference)
	rows, cols := n+1, m+1

	M := make([][]int, rows)
	Ix := make([][]int, rows)
	Iy := make([][]int, rows)
	for i := range M {
		M[i] = make([]int, cols)
		Ix[i] = make([]int, cols)
		Iy[i] = make([]int, cols)
	}

	M[0][0] = 0
	Ix[0][0] = negInf
	Iy[0][0] = negInf
	for i := 1; i < rows; i++ {
		M[i][0] = negInf
		Ix[i][0] = gapOpen + gapExtend*i
		Iy[i][0] = negInf
	}
	for j := 1; j < cols; j++ {
		M[0][j] = negInf
		Ix[0][j] = negInf
		Iy[0][j] = gapOpen + gapExtend*j
	}

	for i := 1; i < rows; i++ {
		for j := 1; j < cols; j++ {
			sub := mismatchScore
			if query[i-1] == reference[j-1] {
				sub = matchScore
			}
			M[i][j] = max3(M[i-1][j-1], Ix[i-1][j-1], Iy[i-1][j-1]) + sub
			Ix[i][j] = max2(M[i-1][j]+gapOpen+gapExtend, Ix[i-1][j]+gapExtend)
			Iy[i][j] = max2(M[i][j-1]+gapOpen+gapExtend, Iy[i][j-1]+gapExtend)
		}
	}

	best := max3(M[n][m], Ix[n][m], Iy[n][m])
	cur := stateM
	switch best {
	case M[n][m]:
		cur = stateM
	case Ix[n][m]:
		cur = stateIx
	default:
		cur = stateIy
	}

	var ops []Op // built back-to-front, reversed at the end
	i, j := n, m
	for i > 0 || j > 0 {
		switch cur {
		case stateM:
			kind := Mismatch
			if query[i-1] == reference[j-1] {
				kind = Match
			}
			ops = appendOp(ops, kind)
			prev := max3(M[i-1][j-1], Ix[i-1][j-1], Iy[i-1][j-1])
			switch prev {
			case M[i-1][j-1]:
				cur = stateM
			case Ix[i-1][j-1]:
				cur = stateIx
			default:
				cur = stateIy
			}
			i--
			j--
		case stateIx:
			ops = appendOp(ops, Insertion)
			opened := M[i-1][j] + gapOpen + gapExtend
			if Ix[i][j] == opened {
				cur = stateM
			} else {
				cur = stateIx
			}
			i--
		default: // stateIy
			ops = appendOp(ops, Deletion)
			opened := M[i][j-1] + gapOpen + gapExtend
			if Iy[i][j] == opened {
				cur = stateM
			} else {
				cur = stateIy
			}
			j--
		}
	}
	for l, r := 0, len(ops)-1; l < r; l, r = l+1, r-1 {
		ops[l], ops[r] = ops[r], ops[l]
	}

	return Alignment{Query: query, Reference: reference, Ops: ops, Score: best}
}

// appendOp extends the last run if its kind matches, else starts a new one.
func appendOp(ops []Op, kind OpKind) []Op {
	if len(ops) > 0 && ops[len(ops)-1].Kind == kind {
		ops[len(ops)-1].Length++
		return ops
	}
	return append(ops, Op{Kind: kind, Length: 1})
}

func max2(a, b int) int {
	if a >= b {
		return a
	}
	return b
}

func max3(a, b, c int) int {
	return max2(a, max2(b, c))
}
