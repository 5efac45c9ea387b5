// Package extract implements the Cas9 BLT read extractor: it locates the
// fixed-layout landmarks in a raw sequencing read, demultiplexes it to a
// sample, locates the target/PAM/UMI region, classifies the read as cut or
// uncut, and applies a mean-quality filter. See spec §4.3/§6 for the exact
// read layout.
package extract

import (
	"strings"

	"github.com/grailbio/blt/demux"
	"github.com/grailbio/blt/sample"
	"github.com/grailbio/blt/seq"
)

// Reason enumerates why a read failed extraction. All failures are per-read
// classifications; none are process-fatal (see §7).
type Reason int

const (
	// OK means the read was successfully extracted.
	OK Reason = iota
	// FailedLandmarks means none, or not all, of the three fixed left
	// anchors could be located.
	FailedLandmarks
	// FailedSampleID means the demultiplexer could not confidently assign
	// a sample.
	FailedSampleID
	// FailedExtractTarget means the PAM/UMI tail could not be parsed.
	FailedExtractTarget
	// FailedQuality means the mean PHRED quality over the barcode/target/UMI
	// regions fell below the configured minimum.
	FailedQuality
)

func (r Reason) String() string {
	switch r {
	case OK:
		return "ok"
	case FailedLandmarks:
		return "failed_to_id_landmarks"
	case FailedSampleID:
		return "failed_to_id_sample"
	case FailedExtractTarget:
		return "failed_to_extract_target"
	case FailedQuality:
		return "failed_quality"
	default:
		return "unknown"
	}
}

// Read is a successfully extracted BLT read: the sample it was assigned
// to, the stagger/random-barcode/UMI/target it carries, and its cut status.
// A Read is ephemeral: it is materialized into a buffer for analysis and
// discarded once observations are built (see §3/§5).
type Read struct {
	Sample        *sample.Sample
	Stagger       int
	RandomBarcode string
	UMI           string
	Target        string
	Cut           bool
}

// anchor describes one of the three fixed left-side landmarks.
type anchor struct {
	literal        string
	expectedOffset int // 0-based position assuming minimal stagger (1)
}

const maxStagger = 8

var anchors = [3]anchor{
	{literal: "CGATCT", expectedOffset: 1},
	{literal: "TACGAC", expectedOffset: 13},
	{literal: "TTACCGAAGATAGCAGCCTAGTGGAACC", expectedOffset: 34},
}

const (
	randomBarcodeLen = 6
	sampleBarcodeLen = 15
	atctg            = "ATCTG"
	tgacLiteral      = "TGAC"
	minUMILen        = 11
	maxUMILen        = 13
	minimumUmiLength = 12 - 1 // per §4.3 step 3: used to anchor the TGAC search
)

// Extractor applies the Cas9 read layout to raw FASTQ records. It is not
// safe for concurrent use; the orchestrator runs a single Extractor over
// every input stream in turn (see §5).
type Extractor struct {
	manifest         *sample.Manifest
	demux            *demux.Demultiplexer
	minMeanQuality   float64
	fixedGuideLength int // 0 means unset
	stats            Stats
}

// New creates a Cas9 Extractor. fixedGuideLength of 0 means "not configured"
// (padding is always 0, per §4.3).
func New(m *sample.Manifest, d *demux.Demultiplexer, minMeanQuality float64, fixedGuideLength int) *Extractor {
	return &Extractor{
		manifest:         m,
		demux:            d,
		minMeanQuality:   minMeanQuality,
		fixedGuideLength: fixedGuideLength,
	}
}

// Stats returns the extractor's accumulated counters.
func (e *Extractor) Stats() Stats { return e.stats }

// Extract applies the Cas9 layout to one raw read (bases uppercase
// preserved from input; qual is the raw PHRED+33 quality string, same
// length as bases -- a length mismatch is a programmer error and panics,
// per §7). It returns the extracted Read and OK on success, or a zero Read
// and the failure Reason otherwise.
func (e *Extractor) Extract(bases, qual string) (Read, Reason) {
	if len(bases) != len(qual) {
		panic("extract: bases and qual have different lengths")
	}

	stagger, ok := locateStagger(bases)
	if !ok {
		e.stats.FailedLandmarks++
		return Read{}, FailedLandmarks
	}

	sbcOffset := stagger + len(anchors[0].literal) + randomBarcodeLen + len(anchors[1].literal)
	sIdx := e.demux.Assign(bases, sbcOffset)
	if sIdx < 0 {
		e.stats.FailedAssign++
		return Read{}, FailedSampleID
	}
	s := e.manifest.Samples[sIdx]
	ss := e.stats.forSample(s.Name)

	rbcStart := stagger + len(anchors[0].literal)
	rbc := bases[rbcStart : rbcStart+randomBarcodeLen]

	prefixLen := len(anchors[0].literal) + randomBarcodeLen + len(anchors[1].literal) + sampleBarcodeLen + len(anchors[2].literal)
	S := stagger + prefixLen

	targetOffset, targetLen, umi, cut, ok := e.extractTarget(bases, S, s)
	if !ok {
		ss.FailedExtract++
		return Read{}, FailedExtractTarget
	}

	target := bases[targetOffset : targetOffset+targetLen]

	if mq := meanQuality(qual, rbcStart, randomBarcodeLen, targetOffset, targetLen, umi.offset, umi.length); mq < e.minMeanQuality {
		ss.FailedQuality++
		return Read{}, FailedQuality
	}

	ss.Extracted++
	return Read{
		Sample:        s,
		Stagger:       stagger,
		RandomBarcode: rbc,
		UMI:           bases[umi.offset : umi.offset+umi.length],
		Target:        target,
		Cut:           cut,
	}, OK
}

// locateStagger finds the first left anchor that can be located exactly,
// derives the stagger length from it, and verifies that all three anchors
// are present (within 2 mismatches) at their stagger-shifted offsets.
func locateStagger(bases string) (stagger int, ok bool) {
	for _, a := range anchors {
		windowLen := (maxStagger - 1) + len(a.literal)
		start := a.expectedOffset
		end := start + windowLen
		if end > len(bases) {
			end = len(bases)
		}
		if start >= end {
			continue
		}
		rel := strings.Index(bases[start:end], a.literal)
		if rel < 0 {
			continue
		}
		stagger = rel + 1
		if !verifyAnchors(bases, stagger) {
			return 0, false
		}
		return stagger, true
	}
	return 0, false
}

// verifyAnchors checks that every anchor is present, within 2 mismatches,
// at the offset implied by the given stagger.
func verifyAnchors(bases string, stagger int) bool {
	for _, a := range anchors {
		offset := a.expectedOffset + stagger - 1
		l := len(a.literal)
		if offset < 0 || offset+l > len(bases) {
			return false
		}
		if seq.Mismatches(bases, offset, a.literal, 0, l, 3) > 2 {
			return false
		}
	}
	return true
}

type umiSpan struct{ offset, length int }

// extractTarget implements §4.3 step 3: locating the target, PAM, and UMI
// in the Cas9 tail, and classifying the read as cut or uncut.
func (e *Extractor) extractTarget(bases string, S int, s *sample.Sample) (targetOffset, targetLen int, umi umiSpan, cut bool, ok bool) {
	pamPlus := s.PAM + "GC"
	if S > len(bases) {
		return 0, 0, umiSpan{}, false, false
	}
	relPam := strings.Index(bases[S:], pamPlus)
	if relPam < 0 {
		return 0, 0, umiSpan{}, false, false
	}
	pamOffset := S + relPam
	pamPlusEnd := pamOffset + len(pamPlus)

	atctgMismatches := 0
	if S+5 <= len(bases) {
		atctgMismatches = seq.Mismatches(bases, S, atctg, 0, 5, 2)
	} else {
		atctgMismatches = 2
	}

	tgacSearchStart := pamPlusEnd + minimumUmiLength
	if tgacSearchStart > len(bases) {
		return 0, 0, umiSpan{}, false, false
	}
	relTgac := strings.Index(bases[tgacSearchStart:], tgacLiteral)
	if relTgac < 0 {
		return 0, 0, umiSpan{}, false, false
	}
	tgacOffset := tgacSearchStart + relTgac
	umiLength := tgacOffset - pamPlusEnd
	if umiLength < minUMILen || umiLength > maxUMILen {
		return 0, 0, umiSpan{}, false, false
	}
	umi = umiSpan{offset: pamPlusEnd, length: umiLength}

	expectedTargetLength := len(s.Guide)
	padding := 0
	if e.fixedGuideLength > 0 {
		expectedTargetLength = e.fixedGuideLength
		padding = e.fixedGuideLength - len(s.Guide)
	}

	if atctgMismatches <= 1 && pamOffset >= S+5+(expectedTargetLength-2) {
		to := S + 5 + padding
		tl := pamOffset - to
		if to < 0 || tl < 0 || to+tl > len(bases) {
			return 0, 0, umiSpan{}, false, false
		}
		return to, tl, umi, false, true
	}
	if pamOffset-S <= 8 {
		tl := pamOffset - S
		if tl < 0 {
			return 0, 0, umiSpan{}, false, false
		}
		return S, tl, umi, true, true
	}
	return 0, 0, umiSpan{}, false, false
}

// meanQuality returns the mean PHRED+33 quality across several regions
// combined, matching §4.3 step 4 (random barcode, target, and UMI regions
// pooled into one mean). pairs is a flattened list of (offset, length)
// tuples.
func meanQuality(qual string, pairs ...int) float64 {
	sum, n := 0, 0
	for i := 0; i+1 < len(pairs); i += 2 {
		offset, length := pairs[i], pairs[i+1]
		for j := 0; j < length; j++ {
			sum += int(qual[offset+j]) - 33
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return float64(sum) / float64(n)
}
