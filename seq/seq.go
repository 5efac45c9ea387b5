// Package seq implements low-level DNA sequence primitives shared by the
// demultiplexer, read extractor, and alignment packages: bounded mismatch
// counting and base-alphabet validation. Functions here operate directly on
// byte slices to avoid per-call allocation in the read-extraction hot path.
package seq

import "fmt"

// acgt is the standard 4-letter DNA alphabet.
var acgt = map[byte]bool{'A': true, 'C': true, 'G': true, 'T': true}

// iupac is the extended IUPAC ambiguity alphabet, accepted only when a
// caller explicitly allows ambiguity codes.
var iupac = map[byte]bool{
	'A': true, 'C': true, 'G': true, 'T': true,
	'R': true, 'Y': true, 'S': true, 'W': true, 'K': true, 'M': true,
	'B': true, 'D': true, 'H': true, 'V': true, 'N': true,
}

// Mismatches counts the number of positions where lhs[lhsStart:lhsStart+length]
// differs from rhs[rhsStart:rhsStart+length], stopping early once the count
// reaches max. It panics if either range would run past the end of its
// input, since callers are expected to have already bounds-checked against
// known read/barcode layouts.
func Mismatches(lhs string, lhsStart int, rhs string, rhsStart int, length int, max int) int {
	if lhsStart+length > len(lhs) {
		panic(fmt.Sprintf("seq.Mismatches: lhs range [%d:%d] exceeds length %d", lhsStart, lhsStart+length, len(lhs)))
	}
	if rhsStart+length > len(rhs) {
		panic(fmt.Sprintf("seq.Mismatches: rhs range [%d:%d] exceeds length %d", rhsStart, rhsStart+length, len(rhs)))
	}
	n := 0
	for i := 0; i < length; i++ {
		if lhs[lhsStart+i] != rhs[rhsStart+i] {
			n++
			if n >= max {
				return n
			}
		}
	}
	return n
}

// IsValidBase reports whether b is a member of {A,C,G,T}, or of the
// extended IUPAC ambiguity alphabet when allowAmbiguity is true.
func IsValidBase(b byte, allowAmbiguity bool) bool {
	if allowAmbiguity {
		return iupac[b]
	}
	return acgt[b]
}

// AreValidBases reports whether every byte in s is a valid base, per
// IsValidBase.
func AreValidBases(s []byte, allowAmbiguity bool) bool {
	for _, b := range s {
		if !IsValidBase(b, allowAmbiguity) {
			return false
		}
	}
	return true
}
