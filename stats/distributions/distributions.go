// Package distributions holds the probability functions behind the
// diagnostic p-values: Lanczos gamma, incomplete gamma and beta, and the
// normal, Student t and chi-square CDFs built on them.
//
// The normal CDF is a polynomial approximation. It is fine for diagnostic
// p-values and nothing stricter.
package distributions

// Distributions is what the estimators and diagnostics consume, so each CDF
// can be swapped or tested on its own.
type Distributions interface {
	NormalCDF(z float64) float64
	StudentTCDF(t, df float64) (float64, error)
	ChiSquareCDF(x, k float64) (float64, error)
}

// Standard implements Distributions with the package-level functions.
type Standard struct{}

var Default Distributions = Standard{}

func (Standard) NormalCDF(z float64) float64                { return NormalCDF(z) }
func (Standard) StudentTCDF(t, df float64) (float64, error) { return StudentTCDF(t, df) }
func (Standard) ChiSquareCDF(x, k float64) (float64, error) { return ChiSquareCDF(x, k) }
