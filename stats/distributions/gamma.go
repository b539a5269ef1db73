package distributions

import "math"

const lanczosG = 7.0

// 9-term Lanczos series for g = 7.
var lanczosCoef = [9]float64{
	0.99999999999980993,
	676.5203681218851,
	-1259.1392167224028,
	771.32342877765313,
	-176.61502916214059,
	12.507343278686905,
	-0.13857109526572012,
	9.9843695780195716e-6,
	1.5056327351493116e-7,
}

// Gamma returns Γ(z) from the Lanczos approximation. Arguments below 0.5 go
// through the reflection formula Γ(z)Γ(1-z) = π / sin(πz).
func Gamma(z float64) float64 {
	if z < 0.5 {
		return math.Pi / (math.Sin(math.Pi*z) * Gamma(1-z))
	}
	z -= 1
	x := lanczosCoef[0]
	for i := 1; i < len(lanczosCoef); i++ {
		x += lanczosCoef[i] / (z + float64(i))
	}
	t := z + lanczosG + 0.5
	return math.Sqrt(2*math.Pi) * math.Pow(t, z+0.5) * math.Exp(-t) * x
}

const (
	seriesMaxTerms = 100
	seriesEpsilon  = 1e-10
)

// LowerGamma returns the (non-regularized) lower incomplete gamma γ(a, x)
//
//	γ(a,x) = x^a e^-x Σ x^n / (a(a+1)...(a+n))
//
// The series is cut after 100 terms or once a term drops below 1e-10.
func LowerGamma(a, x float64) float64 {
	if x <= 0 {
		return 0
	}
	term := 1 / a
	sum := term
	for n := 1; n < seriesMaxTerms; n++ {
		term *= x / (a + float64(n))
		sum += term
		if math.Abs(term) < seriesEpsilon {
			break
		}
	}
	return math.Pow(x, a) * math.Exp(-x) * sum
}
