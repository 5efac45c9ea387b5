package extract

import (
	"strings"
	"testing"

	"github.com/grailbio/testutil/expect"

	"github.com/grailbio/blt/demux"
	"github.com/grailbio/blt/sample"
)

const (
	testSbc      = "AAAAAAAAAAAAAAA" // 15nt sample barcode
	testGuide    = "GGCCTCCCCAAAGCCTGGCCA"
	testPAM      = "GGGAGT"
	testUMI      = "ACGTACGTACGT" // 12nt
	testSuffix   = "AGATCGGAAGAGCACACGTCTGAACTCCAGTCAC"
	anchor1Lit   = "CGATCT"
	anchor2Lit   = "TACGAC"
	anchor3Lit   = "TTACCGAAGATAGCAGCCTAGTGGAACC"
	randomBcLit  = "GCATGC" // 6nt random barcode, arbitrary content
)

func buildManifest(t *testing.T) *sample.Manifest {
	m, err := sample.ParseManifest(strings.NewReader(
		"sample\tsample_barcode\tguide\tenzyme\tpam\tcut\toff_target_file\n" +
			"s1\t" + testSbc + "\t" + testGuide + "\tCas9\t" + testPAM + "\tyes\t\n"))
	expect.NoError(t, err)
	return m
}

func buildPrefix(stagger int) string {
	return strings.Repeat("A", stagger) + anchor1Lit + randomBcLit + anchor2Lit + testSbc + anchor3Lit
}

func buildUncutRead(stagger int, target string) string {
	return buildPrefix(stagger) + "ATCTG" + target + testPAM + "GC" + testUMI + "TGAC" + testSuffix
}

func buildCutRead(stagger int, stub string) string {
	return buildPrefix(stagger) + stub + testPAM + "GC" + testUMI + "TGAC" + testSuffix
}

func newExtractor(t *testing.T) *Extractor {
	m := buildManifest(t)
	d := demux.New(m, 2, 2)
	return New(m, d, 20, 0)
}

func TestExtractUncutPureMatch(t *testing.T) {
	e := newExtractor(t)
	bases := buildUncutRead(1, testGuide)
	qual := strings.Repeat("I", len(bases))
	r, reason := e.Extract(bases, qual)
	expect.EQ(t, reason, OK)
	expect.EQ(t, r.Target, testGuide)
	expect.False(t, r.Cut)
	expect.EQ(t, r.UMI, testUMI)
	expect.EQ(t, r.Sample.Name, "s1")
}

func TestExtractCut(t *testing.T) {
	e := newExtractor(t)
	bases := buildCutRead(1, "ATCTGA") // 6bp stub, <=8
	qual := strings.Repeat("I", len(bases))
	r, reason := e.Extract(bases, qual)
	expect.EQ(t, reason, OK)
	expect.True(t, r.Cut)
}

func TestExtractStaggerBoundary(t *testing.T) {
	e := newExtractor(t)
	for stagger := 1; stagger <= 8; stagger++ {
		bases := buildUncutRead(stagger, testGuide)
		qual := strings.Repeat("I", len(bases))
		r, reason := e.Extract(bases, qual)
		expect.EQ(t, reason, OK)
		expect.EQ(t, r.Stagger, stagger)
	}
}

func TestExtractFailedQuality(t *testing.T) {
	e := newExtractor(t)
	bases := buildUncutRead(1, testGuide)
	qual := strings.Repeat("#", len(bases)) // phred 2
	_, reason := e.Extract(bases, qual)
	expect.EQ(t, reason, FailedQuality)
}

func TestExtractFailedLandmarksAllAnchorsMutated(t *testing.T) {
	e := newExtractor(t)
	bases := buildUncutRead(1, testGuide)
	b := []byte(bases)
	// Scramble all three anchors beyond the 2-mismatch tolerance.
	copy(b[1:7], "GGGGGG")
	copy(b[13:19], "GGGGGG")
	copy(b[34:62], strings.Repeat("G", 28))
	_, reason := e.Extract(string(b), strings.Repeat("I", len(bases)))
	expect.EQ(t, reason, FailedLandmarks)
}

func TestExtractSucceedsWithOneIntactAnchor(t *testing.T) {
	e := newExtractor(t)
	bases := buildUncutRead(1, testGuide)
	b := []byte(bases)
	// anchor1 stays intact; anchor2 and anchor3 each take 2 substitutions,
	// within the verification step's 2-mismatch tolerance.
	copy(b[13:15], "GG")
	copy(b[34:36], "GG")
	_, reason := e.Extract(string(b), strings.Repeat("I", len(bases)))
	expect.EQ(t, reason, OK)
}

func TestExtractUMILengthBoundary(t *testing.T) {
	e := newExtractor(t)
	for _, n := range []int{11, 12, 13} {
		bases := strings.Replace(buildUncutRead(1, testGuide), testUMI, strings.Repeat("C", n), 1)
		qual := strings.Repeat("I", len(bases))
		_, reason := e.Extract(bases, qual)
		expect.EQ(t, reason, OK)
	}
	for _, n := range []int{10, 14} {
		bases := strings.Replace(buildUncutRead(1, testGuide), testUMI, strings.Repeat("C", n), 1)
		qual := strings.Repeat("I", len(bases))
		_, reason := e.Extract(bases, qual)
		expect.EQ(t, reason, FailedExtractTarget)
	}
}
