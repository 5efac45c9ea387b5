// Package sample parses the BLT experiment's sample manifest (a
// tab-delimited description of the samples pooled into one sequencing run)
// and the per-sample off-target file, and models the closed set of
// supported enzymes.
package sample

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/grailbio/blt/seq"
)

// requiredColumns are the manifest columns every row must supply. Any other
// header column becomes a per-sample extra attribute.
var requiredColumns = []string{"sample", "sample_barcode", "guide", "enzyme", "pam", "cut", "off_target_file"}

// Sample is one row of a parsed manifest: a pooled sample's identity,
// barcode, guide/PAM, enzyme, cut/naive flag, and (once loaded) its
// off-target mapping. Samples are immutable once parsed.
type Sample struct {
	Name          string
	Barcode       string // sample_barcode, uppercase DNA
	Guide         string // uppercase DNA
	PAM           string // uppercase DNA
	Enzyme        Enzyme
	Cut           bool
	OffTargetFile string            // optional path, empty if none given
	OffTargets    map[string]string // target (uppercase) -> genomic location, populated by LoadOffTargets
	Extra         map[string]string // unknown manifest column name -> raw value
	extraOrder    []string          // column order as seen in the manifest header, for round-trip formatting
}

// ExtraKeys returns the sample's extra-attribute column names in sorted
// order, matching the order used when appending extra columns to output
// rows (see §6).
func (s *Sample) ExtraKeys() []string {
	keys := make([]string, 0, len(s.Extra))
	for k := range s.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Manifest is an ordered, immutable collection of samples parsed from a
// single manifest file.
type Manifest struct {
	Samples []*Sample
}

// BarcodeLength returns the shared sample-barcode length for this manifest,
// or 0 if the manifest has no samples.
func (m *Manifest) BarcodeLength() int {
	if len(m.Samples) == 0 {
		return 0
	}
	return len(m.Samples[0].Barcode)
}

// Barcodes returns the sample barcodes in manifest order, for use by the
// demultiplexer.
func (m *Manifest) Barcodes() []string {
	out := make([]string, len(m.Samples))
	for i, s := range m.Samples {
		out[i] = s.Barcode
	}
	return out
}

var trueValues = map[string]bool{"true": true, "yes": true, "t": true, "y": true}

func parseCutFlag(s string) bool {
	return trueValues[strings.ToLower(strings.TrimSpace(s))]
}

// ParseManifest parses a tab-delimited sample manifest (with a header row)
// from r. Required columns are sample, sample_barcode, guide, enzyme, pam,
// cut, off_target_file; any other header column is retained per-sample as
// an extra attribute. Sequence columns are upper-cased. ParseManifest
// returns an error naming the offending row/column on any malformed input;
// it does not validate cross-row invariants (barcode length, name
// uniqueness) -- call Validate for that.
func ParseManifest(r io.Reader) (*Manifest, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		return nil, errors.Wrap(err, "sample: reading manifest header")
	}
	colIndex := map[string]int{}
	for i, h := range header {
		colIndex[strings.TrimSpace(h)] = i
	}
	for _, c := range requiredColumns {
		if _, ok := colIndex[c]; !ok {
			return nil, errors.Errorf("sample: manifest missing required column %q", c)
		}
	}
	var extraCols []string
	required := map[string]bool{}
	for _, c := range requiredColumns {
		required[c] = true
	}
	for _, h := range header {
		h = strings.TrimSpace(h)
		if !required[h] {
			extraCols = append(extraCols, h)
		}
	}

	m := &Manifest{}
	rowNum := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "sample: reading manifest row %d", rowNum)
		}
		rowNum++
		field := func(name string) string {
			idx := colIndex[name]
			if idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}
		s := &Sample{
			Name:          field("sample"),
			Barcode:       strings.ToUpper(field("sample_barcode")),
			Guide:         strings.ToUpper(field("guide")),
			PAM:           strings.ToUpper(field("pam")),
			Enzyme:        Enzyme(field("enzyme")),
			Cut:           parseCutFlag(field("cut")),
			OffTargetFile: field("off_target_file"),
			Extra:         map[string]string{},
			extraOrder:    extraCols,
		}
		if !s.Enzyme.Valid() {
			return nil, errors.Errorf("sample: manifest row %d: unknown enzyme %q", rowNum, s.Enzyme)
		}
		for _, c := range extraCols {
			s.Extra[c] = field(c)
		}
		m.Samples = append(m.Samples, s)
	}
	return m, nil
}

// Validate checks cross-row invariants: sample names are unique, all sample
// barcodes share one length, and all sequence fields are valid DNA. It
// returns an error naming the offending sample on the first violation.
func (m *Manifest) Validate() error {
	if len(m.Samples) == 0 {
		return errors.New("sample: manifest has no samples")
	}
	seen := map[string]bool{}
	barcodeLen := len(m.Samples[0].Barcode)
	for _, s := range m.Samples {
		if seen[s.Name] {
			return errors.Errorf("sample: duplicate sample name %q", s.Name)
		}
		seen[s.Name] = true
		if len(s.Barcode) != barcodeLen {
			return errors.Errorf("sample: sample %q barcode length %d, expected %d", s.Name, len(s.Barcode), barcodeLen)
		}
		if !seq.AreValidBases([]byte(s.Barcode), false) {
			return errors.Errorf("sample: sample %q has invalid sample_barcode %q", s.Name, s.Barcode)
		}
		if !seq.AreValidBases([]byte(s.Guide), false) {
			return errors.Errorf("sample: sample %q has invalid guide %q", s.Name, s.Guide)
		}
		if s.PAM != "" && !seq.AreValidBases([]byte(s.PAM), false) {
			return errors.Errorf("sample: sample %q has invalid pam %q", s.Name, s.PAM)
		}
	}
	return nil
}

// Format writes the manifest back out as tab-delimited text, preserving
// sample, sample_barcode, guide, pam, enzyme, cut semantics (sequences
// upper-cased) plus any extra attributes in manifest header order. It is used
// by round-trip tests and is not required for normal operation.
func (m *Manifest) Format(w io.Writer) error {
	var extraCols []string
	if len(m.Samples) > 0 {
		extraCols = m.Samples[0].extraOrder
	}
	header := append([]string{"sample", "sample_barcode", "guide", "enzyme", "pam", "cut", "off_target_file"}, extraCols...)
	if _, err := fmt.Fprintln(w, strings.Join(header, "\t")); err != nil {
		return err
	}
	for _, s := range m.Samples {
		cut := "false"
		if s.Cut {
			cut = "true"
		}
		row := []string{s.Name, s.Barcode, s.Guide, string(s.Enzyme), s.PAM, cut, s.OffTargetFile}
		for _, c := range extraCols {
			row = append(row, s.Extra[c])
		}
		if _, err := fmt.Fprintln(w, strings.Join(row, "\t")); err != nil {
			return err
		}
	}
	return nil
}
