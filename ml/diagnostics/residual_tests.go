package diagnostics

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"spatialregr/infra/errorx"
	"spatialregr/infra/errorx/errCode"
	"spatialregr/ml/ols"
	"spatialregr/stats/distributions"
	"spatialregr/stats/hist"
)

// NormalityResult is the Jarque-Bera test of the residuals.
type NormalityResult struct {
	Statistic      float64
	PValue         float64 // χ²(2)
	Skewness       float64
	ExcessKurtosis float64
	Histogram      []hist.HistogramBin
}

// HeteroscedasticityResult is the Breusch-Pagan LM test.
type HeteroscedasticityResult struct {
	Statistic float64 // n·R² of e² on X
	DF        float64
	PValue    float64
}

// CollinearityResult 共线性诊断
type CollinearityResult struct {
	VIF map[string]float64
	// ConditionNumber is the 2-norm condition number of XᵗX, intercept included.
	ConditionNumber float64
}

// MaxVIF returns the largest VIF, 0 when there is none.
func (c CollinearityResult) MaxVIF() float64 {
	var m float64
	for _, v := range c.VIF {
		m = math.Max(m, v)
	}
	return m
}

// JarqueBera tests resid for normality: JB = n/6·(S² + K²/4).
// bins ≤ 0 picks the Sturges bin count for the histogram.
func JarqueBera(resid []float64, bins int) (NormalityResult, error) {
	return jarqueBera(distributions.Default, resid, bins)
}

func jarqueBera(d distributions.Distributions, resid []float64, bins int) (NormalityResult, error) {
	n := len(resid)
	if n < 4 {
		return NormalityResult{}, errorx.Newf(errCode.INVALID_VALUE, "normality test needs at least 4 residuals, got %d", n)
	}
	if stat.Variance(resid, nil) == 0 {
		return NormalityResult{}, errorx.New(errCode.INVALID_VALUE, "residuals have zero variance")
	}
	s := stat.Skew(resid, nil)
	k := stat.ExKurtosis(resid, nil)
	jb := float64(n) / 6 * (s*s + k*k/4)

	cdf, err := d.ChiSquareCDF(jb, 2)
	if err != nil {
		return NormalityResult{}, err
	}
	if bins <= 0 {
		bins = hist.SturgesBins(n)
	}
	return NormalityResult{
		Statistic:      jb,
		PValue:         1 - cdf,
		Skewness:       s,
		ExcessKurtosis: k,
		Histogram:      hist.Hist(resid, bins),
	}, nil
}

// BreuschPagan regresses the squared residuals on X (without intercept
// column; one is added) and reports LM = n·R² against χ²(p).
func BreuschPagan(X [][]float64, resid []float64) (HeteroscedasticityResult, error) {
	return breuschPagan(distributions.Default, X, resid)
}

func breuschPagan(d distributions.Distributions, X [][]float64, resid []float64) (HeteroscedasticityResult, error) {
	e2 := make([]float64, len(resid))
	floats.MulTo(e2, resid, resid)

	aux, err := ols.MultiRegression(X, e2, true, ols.WithDistributions(d))
	if err != nil {
		return HeteroscedasticityResult{}, errorx.Wrap(err, "breusch-pagan auxiliary regression")
	}
	res := HeteroscedasticityResult{DF: float64(aux.K - 1)}
	// 残差平方为常数: 无异方差
	if aux.TSS > 0 {
		res.Statistic = float64(aux.N) * aux.RSquared
	}
	cdf, err := d.ChiSquareCDF(res.Statistic, res.DF)
	if err != nil {
		return HeteroscedasticityResult{}, err
	}
	res.PValue = 1 - cdf
	return res, nil
}

// Collinearity computes the VIF of every column of X against the others
// and the condition number of the design. names labels the columns of X.
func Collinearity(X [][]float64, names []string) (CollinearityResult, error) {
	n := len(X)
	if n == 0 {
		return CollinearityResult{}, errorx.New(errCode.EMPTY_VALUE, "design matrix is empty")
	}
	p := len(names)
	for i, row := range X {
		if len(row) != p {
			return CollinearityResult{}, errorx.Newf(errCode.DIMENSION_MISMATCH, "row %d has %d columns, want %d", i, len(row), p)
		}
	}

	res := CollinearityResult{VIF: make(map[string]float64, p)}
	if p == 1 {
		res.VIF[names[0]] = 1
	} else {
		for j, name := range names {
			vif, err := varianceInflation(X, j)
			if err != nil {
				return CollinearityResult{}, errorx.Wrap(err, "vif of "+name)
			}
			res.VIF[name] = vif
		}
	}

	design := mat.NewDense(n, p+1, nil)
	for i, row := range X {
		design.Set(i, 0, 1)
		for j, v := range row {
			design.Set(i, j+1, v)
		}
	}
	var xtx mat.Dense
	xtx.Mul(design.T(), design)
	res.ConditionNumber = mat.Cond(&xtx, 2)
	return res, nil
}

// varianceInflation is 1/(1-R²) of column j regressed on the other columns.
func varianceInflation(X [][]float64, j int) (float64, error) {
	others := make([][]float64, len(X))
	y := make([]float64, len(X))
	for i, row := range X {
		y[i] = row[j]
		r := make([]float64, 0, len(row)-1)
		r = append(r, row[:j]...)
		others[i] = append(r, row[j+1:]...)
	}
	aux, err := ols.MultiRegression(others, y, true)
	if errors.Is(err, errorx.ErrSingularMatrix) {
		return math.Inf(1), nil
	}
	if err != nil {
		return 0, err
	}
	if aux.RSquared >= 1 {
		return math.Inf(1), nil
	}
	return 1 / (1 - aux.RSquared), nil
}
