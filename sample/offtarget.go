package sample

import (
	"context"
	"encoding/csv"
	"io"
	"strings"

	"github.com/grailbio/base/file"
	"github.com/pkg/errors"

	"github.com/grailbio/blt/seq"
)

// offTargetColumns is the fixed, headerless column layout of an off-target
// file: guide_with_pam, chrom, pos, off_target_with_pam, strand,
// mismatches, off_target, loc. Only off_target and loc are consumed; the
// rest are validated for shape only.
const (
	colGuideWithPAM = iota
	colChrom
	colPos
	colOffTargetWithPAM
	colStrand
	colMismatches
	colOffTarget
	colLoc
	numOffTargetColumns
)

// ParseOffTargets parses a headerless comma-separated off-target file into
// a mapping from (uppercased) off-target sequence to genomic location
// string. An empty file yields an empty, non-nil map.
func ParseOffTargets(r io.Reader) (map[string]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numOffTargetColumns

	out := map[string]string{}
	lineNum := 0
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "sample: reading off-target file row %d", lineNum+1)
		}
		lineNum++
		loc := strings.TrimSpace(row[colLoc])
		offTarget := strings.ToUpper(strings.TrimSpace(row[colOffTarget]))
		if !strings.Contains(loc, ":") {
			return nil, errors.Errorf("sample: off-target file row %d: loc %q missing ':'", lineNum, loc)
		}
		if !seq.AreValidBases([]byte(offTarget), false) {
			return nil, errors.Errorf("sample: off-target file row %d: off_target %q is not pure DNA", lineNum, offTarget)
		}
		out[offTarget] = loc
	}
	return out, nil
}

// LoadOffTargets populates s.OffTargets from s.OffTargetFile, if set. It is
// a no-op (leaving OffTargets nil) when the sample has no off-target file.
func (s *Sample) LoadOffTargets(ctx context.Context) error {
	if s.OffTargetFile == "" {
		return nil
	}
	f, err := file.Open(ctx, s.OffTargetFile)
	if err != nil {
		return errors.Wrapf(err, "sample: opening off-target file for %q", s.Name)
	}
	targets, err := ParseOffTargets(f.Reader(ctx))
	if err != nil {
		closeErr := f.Close(ctx)
		if closeErr != nil {
			return errors.Wrapf(err, "sample: %q (also failed to close: %v)", s.Name, closeErr)
		}
		return err
	}
	if err := f.Close(ctx); err != nil {
		return errors.Wrapf(err, "sample: closing off-target file for %q", s.Name)
	}
	s.OffTargets = targets
	return nil
}

// LoadAllOffTargets loads off-target files for every sample in the
// manifest that has one configured.
func (m *Manifest) LoadAllOffTargets(ctx context.Context) error {
	for _, s := range m.Samples {
		if err := s.LoadOffTargets(ctx); err != nil {
			return err
		}
	}
	return nil
}
