package demux

import (
	"strings"
	"testing"

	"github.com/grailbio/testutil/expect"

	"github.com/grailbio/blt/sample"
)

func testManifest(t *testing.T, barcodes ...string) *sample.Manifest {
	var sb strings.Builder
	sb.WriteString("sample\tsample_barcode\tguide\tenzyme\tpam\tcut\toff_target_file\n")
	for i, bc := range barcodes {
		sb.WriteString("s")
		sb.WriteString(string(rune('1' + i)))
		sb.WriteByte('\t')
		sb.WriteString(bc)
		sb.WriteString("\tGGCCTCCCCAAAGCCTGGCCA\tCas9\tGGGAGT\tyes\t\n")
	}
	m, err := sample.ParseManifest(strings.NewReader(sb.String()))
	expect.NoError(t, err)
	return m
}

func TestAssignMargin(t *testing.T) {
	m := testManifest(t, "ACACAC", "AAAAAA", "CCCCCC")
	d := New(m, 2, 2)

	expect.EQ(t, d.Assign("ACACAG", 0), 0) // 1 mismatch to s1, unambiguous
	expect.EQ(t, d.Assign("ACACAA", 0), Unassigned) // 1 mismatch to s1, 2 to s2: margin too small
}

func TestAssignExceedsMaxMismatches(t *testing.T) {
	m := testManifest(t, "ACACAC", "AAAAAA")
	d := New(m, 1, 2)
	expect.EQ(t, d.Assign("CCCCCC", 0), Unassigned)
}

func TestAssignUsesOffset(t *testing.T) {
	m := testManifest(t, "ACACAC")
	d := New(m, 0, 2)
	expect.EQ(t, d.Assign("NNNNNACACAC", 5), 0)
}
