package align

// TargetAnnotation is the derived guide-to-target alignment summary stored
// on a validated TargetInfo (§4.4/§4.5.2): the CIGAR-like operation
// sequence, the enzyme's PAM orientation, and the mismatch/indel counts
// and positions derived from it.
type TargetAnnotation struct {
	CIGAR                   string
	PamIs5PrimeOfTarget     bool
	Mismatches              int
	IndelBases              int
	MismatchPositions       []int
	MeanMismatchPosition    float64
	HasMeanMismatchPosition bool
}

// Annotate aligns guide against target and derives a TargetAnnotation.
// pamIs5PrimeOfTarget selects the mismatch-position orientation (§4.4);
// Cas9 passes false, since its PAM sits 3' of the target.
func Annotate(guide, target string, pamIs5PrimeOfTarget bool) TargetAnnotation {
	a := Align(guide, target)
	mean, ok := a.MeanMismatchPosition(pamIs5PrimeOfTarget)
	return TargetAnnotation{
		CIGAR:                   a.CIGAR(),
		PamIs5PrimeOfTarget:     pamIs5PrimeOfTarget,
		Mismatches:              a.Mismatches(),
		IndelBases:              a.IndelBases(),
		MismatchPositions:       a.MismatchPositions(pamIs5PrimeOfTarget),
		MeanMismatchPosition:    mean,
		HasMeanMismatchPosition: ok,
	}
}
