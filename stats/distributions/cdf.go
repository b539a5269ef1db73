package distributions

import (
	"math"

	"spatialregr/infra/errorx"
	"spatialregr/infra/errorx/errCode"
)

// Above this many degrees of freedom the t distribution is replaced by the
// standard normal.
const normalApproxDF = 30

// NormalCDF approximates Φ(z) through the five-coefficient erf polynomial
// (Abramowitz & Stegun 7.1.26, |error| < 1.5e-7).
func NormalCDF(z float64) float64 {
	const (
		a1 = 0.254829592
		a2 = -0.284496736
		a3 = 1.421413741
		a4 = -1.453152027
		a5 = 1.061405429
		p  = 0.3275911
	)
	if math.IsNaN(z) {
		return math.NaN()
	}
	sign := 1.0
	if z < 0 {
		sign = -1
	}
	x := math.Abs(z) / math.Sqrt2
	t := 1 / (1 + p*x)
	y := 1 - (((((a5*t+a4)*t)+a3)*t+a2)*t+a1)*t*math.Exp(-x*x)
	return 0.5 * (1 + sign*y)
}

// StudentTCDF returns P(T <= t) for T ~ t(df).
//
//	x = df / (df + t²),  P(|T| > |t|) = I_x(df/2, 1/2)
func StudentTCDF(t, df float64) (float64, error) {
	if !(df > 0) {
		return math.NaN(), errorx.Newf(errCode.INVALID_VALUE, "degrees of freedom must be > 0, got %v", df)
	}
	if math.IsNaN(t) {
		return math.NaN(), nil
	}
	if df > normalApproxDF {
		return NormalCDF(t), nil
	}
	x := df / (df + t*t)
	tail := IncompleteBeta(x, df/2, 0.5)
	if t > 0 {
		return 1 - tail/2, nil
	}
	return tail / 2, nil
}

// ChiSquareCDF returns P(X <= x) for X ~ χ²(k).
//
// The lower gamma series is truncated at 100 terms, which is not enough once
// x/2 is far beyond k/2; there the Wilson-Hilferty cube-root normal
// approximation takes over.
func ChiSquareCDF(x, k float64) (float64, error) {
	if !(k > 0) {
		return math.NaN(), errorx.Newf(errCode.INVALID_VALUE, "chi-square degrees of freedom must be > 0, got %v", k)
	}
	if math.IsNaN(x) {
		return math.NaN(), nil
	}
	if x <= 0 {
		return 0, nil
	}
	a := k / 2
	if x/2 >= a+50 {
		v := 2 / (9 * k)
		z := (math.Cbrt(x/k) - (1 - v)) / math.Sqrt(v)
		return NormalCDF(z), nil
	}
	return clamp01(LowerGamma(a, x/2) / Gamma(a)), nil
}

// TwoSidedPValue is 2·(1 − F(|t|)) under t(df).
func TwoSidedPValue(d Distributions, t, df float64) (float64, error) {
	if math.IsNaN(t) {
		return math.NaN(), nil
	}
	cdf, err := d.StudentTCDF(math.Abs(t), df)
	if err != nil {
		return math.NaN(), err
	}
	return clamp01(2 * (1 - cdf)), nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
