package sample

import (
	"strings"
	"testing"

	"github.com/grailbio/testutil/expect"
)

func TestParseOffTargets(t *testing.T) {
	const data = "GGCCTCCCCAAAGCCTGGCCAGGGAGT,chr1,100,GGACTCCCCATAGCCTGGCCAGGGAGT,+,3,GGACTCCCCATAGCCTGGCCA,chr1:100-121\n"
	targets, err := ParseOffTargets(strings.NewReader(data))
	expect.NoError(t, err)
	expect.EQ(t, len(targets), 1)
	expect.EQ(t, targets["GGACTCCCCATAGCCTGGCCA"], "chr1:100-121")
}

func TestParseOffTargetsEmpty(t *testing.T) {
	targets, err := ParseOffTargets(strings.NewReader(""))
	expect.NoError(t, err)
	expect.EQ(t, len(targets), 0)
}

func TestParseOffTargetsRejectsMissingColon(t *testing.T) {
	const data = "g,chr1,100,o,+,3,GGACTCCCCATAGCCTGGCCA,chr1_100\n"
	_, err := ParseOffTargets(strings.NewReader(data))
	if err == nil {
		t.Fatal("expected error for loc missing ':'")
	}
}

func TestParseOffTargetsRejectsNonDNA(t *testing.T) {
	const data = "g,chr1,100,o,+,3,GGACTXCCCC,chr1:100\n"
	_, err := ParseOffTargets(strings.NewReader(data))
	if err == nil {
		t.Fatal("expected error for non-DNA off_target")
	}
}
