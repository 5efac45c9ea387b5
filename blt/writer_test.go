package blt

import (
	"bytes"
	"strings"
	"testing"

	"github.com/grailbio/base/tsv"
	"github.com/grailbio/testutil/expect"

	"github.com/grailbio/blt/align"
)

func TestFormatMismatchTuplesEmpty(t *testing.T) {
	expect.EQ(t, formatMismatchTuples(nil), "")
}

func TestFormatMismatchTuples(t *testing.T) {
	tuples := []align.MismatchTuple{
		{Position: 1, GuideBase: 'G', TargetBase: 'A'},
		{Position: 11, GuideBase: 'C', TargetBase: 'T'},
	}
	expect.EQ(t, formatMismatchTuples(tuples), "1:G>A,11:C>T")
}

func TestWriteSampleSummaryProducesExpectedHeader(t *testing.T) {
	var buf bytes.Buffer
	w := tsv.NewWriter(&buf)
	rows := []SampleMetric{
		{Mismatches: 0, TargetCount: 2, ObsCut: 8, ObsUncut: 2, CutRate: 0.8, NormalizedCutRate: 1.0},
	}
	expect.NoError(t, WriteSampleSummary(w, rows))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	expect.EQ(t, len(lines), 2)
	expect.EQ(t, lines[0], "mismatches\ttarget_count\tobs_cut\tobs_uncut\tcut_rate\tnormalized_cut_rate")
	expect.True(t, strings.HasPrefix(lines[1], "0\t2\t8\t2\t"))
}

func TestWriteTargetValidationOmitsFractionIdenticalWhenAbsent(t *testing.T) {
	var buf bytes.Buffer
	w := tsv.NewWriter(&buf)
	rows := []TargetValidationMetric{
		{UMI: "AAAAAAAAAAA", Guide: "GG", PAM: "CC", Valid: false, HasFractionIdentical: false},
	}
	expect.NoError(t, WriteTargetValidation(w, rows))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	expect.EQ(t, len(lines), 2)
	expect.True(t, strings.HasSuffix(lines[1], "\tfalse\t"))
}
