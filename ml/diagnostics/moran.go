// Package diagnostics holds the post-fit checks of a regression: spatial
// autocorrelation of residuals, normality, heteroscedasticity and
// multicollinearity, plus the descriptive quality and importance summaries.
package diagnostics

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/spatial"

	"spatialregr/infra/errorx"
	"spatialregr/infra/errorx/errCode"
	"spatialregr/stats/distributions"
)

// MoranResult is global Moran's I under the normality assumption.
type MoranResult struct {
	I        float64
	Expected float64 // -1/(n-1)
	Variance float64
	ZScore   float64
	PValue   float64 // two-sided, normal
}

// MoransI computes (n/W)·Σᵢⱼ wᵢⱼ·devᵢ·devⱼ / Σᵢ devᵢ² for values over the
// n×n weight matrix w. The variance needs n ≥ 4.
func MoransI(values []float64, w [][]float64) (MoranResult, error) {
	return moransI(distributions.Default, values, w)
}

func moransI(d distributions.Distributions, values []float64, w [][]float64) (MoranResult, error) {
	n := len(values)
	if n < 4 {
		return MoranResult{}, errorx.Newf(errCode.INVALID_VALUE, "moran's I needs at least 4 values, got %d", n)
	}
	if len(w) != n {
		return MoranResult{}, errorx.Newf(errCode.DIMENSION_MISMATCH, "weight matrix has %d rows, want %d", len(w), n)
	}
	flat := make([]float64, 0, n*n)
	for i, row := range w {
		if len(row) != n {
			return MoranResult{}, errorx.Newf(errCode.DIMENSION_MISMATCH, "weight row %d has %d columns, want %d", i, len(row), n)
		}
		flat = append(flat, row...)
	}
	if floats.Sum(flat) == 0 {
		return MoranResult{}, errorx.New(errCode.INVALID_VALUE, "spatial weights sum to zero")
	}
	if stat.Variance(values, nil) == 0 {
		return MoranResult{}, errorx.New(errCode.INVALID_VALUE, "values have zero variance")
	}

	i, v, z := spatial.GlobalMoransI(values, nil, mat.NewDense(n, n, flat))
	res := MoranResult{
		I:        i,
		Expected: -1 / float64(n-1),
		Variance: v,
		ZScore:   z,
		PValue:   math.NaN(),
	}
	if !math.IsNaN(z) && !math.IsInf(z, 0) {
		res.PValue = 2 * (1 - d.NormalCDF(math.Abs(z)))
	}
	return res, nil
}
