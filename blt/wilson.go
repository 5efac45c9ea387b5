package blt

import "math"

// wilsonZ95 is the z-score for a 95% Wilson score interval.
const wilsonZ95 = 1.959963984540054

// wilsonInterval computes the 95% Wilson score confidence interval for a
// binomial proportion successes/total. It returns (0, 0) when total is 0.
func wilsonInterval(successes, total int) (low, high float64) {
	if total == 0 {
		return 0, 0
	}
	n := float64(total)
	p := float64(successes) / n
	z := wilsonZ95
	z2 := z * z
	denom := 1 + z2/n
	center := (p + z2/(2*n)) / denom
	margin := (z * math.Sqrt(p*(1-p)/n+z2/(4*n*n))) / denom
	return center - margin, center + margin
}
