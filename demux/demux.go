// Package demux implements the hamming-code style sample demultiplexer:
// it assigns a candidate barcode window to the one sample whose barcode is
// both within an absolute mismatch tolerance and clear of its nearest
// competitor by a minimum margin.
package demux

import (
	"github.com/grailbio/blt/sample"
	"github.com/grailbio/blt/seq"
)

// Unassigned is returned by Assign when no sample barcode is a confident
// match.
const Unassigned = -1

// Demultiplexer matches a read's sample-barcode window against every
// barcode in a manifest.
type Demultiplexer struct {
	barcodes      []string
	maxMismatches int
	minDistance   int
}

// New builds a Demultiplexer over m's sample barcodes (all must share one
// length; this is the manifest's responsibility to enforce via
// sample.Manifest.Validate). maxMismatches and minDistance implement the
// §4.2 assignment rule.
func New(m *sample.Manifest, maxMismatches, minDistance int) *Demultiplexer {
	return &Demultiplexer{
		barcodes:      m.Barcodes(),
		maxMismatches: maxMismatches,
		minDistance:   minDistance,
	}
}

// barcodeLength returns the shared barcode length, or 0 if there are no
// barcodes.
func (d *Demultiplexer) barcodeLength() int {
	if len(d.barcodes) == 0 {
		return 0
	}
	return len(d.barcodes[0])
}

// Assign computes the mismatch count between read[offset:offset+L] (L is
// the manifest's barcode length) and every sample barcode, and returns the
// index of the uniquely-matching sample iff the smallest mismatch count is
// <= maxMismatches AND exactly one barcode has a mismatch count strictly
// less than min+minDistance. Otherwise it returns Unassigned.
//
// This combines an absolute tolerance with a relative-margin requirement:
// barcodes that are nearly tied with a runner-up are rejected even when
// both are individually within maxMismatches.
func (d *Demultiplexer) Assign(read string, offset int) int {
	l := d.barcodeLength()
	if l == 0 || offset+l > len(read) {
		return Unassigned
	}
	counts := make([]int, len(d.barcodes))
	min := l + 1
	for i, bc := range d.barcodes {
		c := seq.Mismatches(read, offset, bc, 0, l, l+1)
		counts[i] = c
		if c < min {
			min = c
		}
	}
	if min > d.maxMismatches {
		return Unassigned
	}
	best := Unassigned
	nClose := 0
	for i, c := range counts {
		if c < min+d.minDistance {
			nClose++
			best = i
		}
	}
	if nClose != 1 {
		return Unassigned
	}
	return best
}
