package sample

import "fmt"

// Enzyme names an RNA-guided nuclease variant. The set of variants is closed
// and extended by adding new named constants and teaching extract.New
// (in package extract) about them; there is no dynamic dispatch beyond the
// variant switch.
type Enzyme string

// Cas9 is presently the only supported enzyme. Its PAM sits 3' of the
// target.
const Cas9 Enzyme = "Cas9"

// PamIs5PrimeOfTarget reports whether this enzyme's PAM motif sits 5' of the
// target sequence (true) or 3' of it (false, as with Cas9).
func (e Enzyme) PamIs5PrimeOfTarget() bool {
	switch e {
	case Cas9:
		return false
	default:
		panic(fmt.Sprintf("sample: unknown enzyme %q", e))
	}
}

// Valid reports whether e names a supported enzyme variant.
func (e Enzyme) Valid() bool {
	switch e {
	case Cas9:
		return true
	default:
		return false
	}
}
