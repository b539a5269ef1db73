// Package gwr fits a geographically weighted regression: one weighted least
// squares fit per observation, weighted by that observation's row of the
// spatial weight matrix.
//
// The reported global coefficients are the mean of the local ones and the
// effective parameter count is approximated as p·√n, not the trace of the
// hat matrix.
package gwr

import (
	"errors"
	"fmt"
	"math"

	"spatialregr/infra/errorx"
	"spatialregr/infra/errorx/errCode"
	"spatialregr/infra/observe/log/staticLog"
	"spatialregr/ml/diagnostics"
	"spatialregr/ml/ols"
	"spatialregr/spatial/weights"
	"spatialregr/stats/distributions"
)

// DefaultMaxObservations bounds n: memory is n² and time n·(n·p² + p³).
const DefaultMaxObservations = 5000

type Settings struct {
	Weights weights.Options
	// MaxObservations ≤ 0 means DefaultMaxObservations.
	MaxObservations int
	RobustSE        bool
	Distributions   distributions.Distributions
}

// LocalFit is the weighted fit centred on one observation.
type LocalFit struct {
	Coeffs    []float64
	SE        []float64
	TStats    []float64
	PValues   []float64
	RSquared  float64
	Bandwidth float64
	Fitted    float64 // xᵢ·βᵢ
}

type Result struct {
	Local []LocalFit

	// 全局系数: mean of the local coefficients, intercept first.
	Coeffs  []float64
	SE      []float64 // mean of the local standard errors
	TStats  []float64
	PValues []float64

	Fitted []float64
	Resids []float64

	N               int
	K               int
	EffectiveParams float64 // K·√n
	DF              float64

	RSS         float64
	TSS         float64
	RSquared    float64
	AdjRSquared float64 // NaN when DF ≤ 0
	AIC         float64
	RMSE        float64
	MAE         float64
	MAPE        float64

	// Spatial is Moran's I of the residuals on the fitting weights; nil
	// when it cannot be computed (n < 4, constant residuals).
	Spatial *diagnostics.MoranResult
}

func (s Settings) maxObservations() int {
	if s.MaxObservations > 0 {
		return s.MaxObservations
	}
	return DefaultMaxObservations
}

// Regression fits X (n×p, no intercept column) against Y at points.
func Regression(X [][]float64, Y []float64, points []weights.Point, s Settings) (Result, error) {
	n := len(Y)
	if n == 0 || len(X) == 0 {
		return Result{}, errorx.New(errCode.EMPTY_VALUE, "输入数据为空")
	}
	if len(X) != n || len(points) != n {
		return Result{}, errorx.Newf(errCode.DIMENSION_MISMATCH,
			"数据长度不匹配: %d rows, %d targets, %d points", len(X), n, len(points))
	}
	if limit := s.maxObservations(); n > limit {
		return Result{}, errorx.Newf(errCode.INVALID_VALUE,
			"gwr is limited to %d observations, got %d", limit, n)
	}
	d := s.Distributions
	if d == nil {
		d = distributions.Default
	}

	wm, err := weights.Build(points, s.Weights)
	if err != nil {
		return Result{}, err
	}

	opts := []ols.Option{ols.WithRobustSE(s.RobustSE), ols.WithDistributions(d)}
	res := Result{
		Local:  make([]LocalFit, n),
		Fitted: make([]float64, n),
		Resids: make([]float64, n),
		N:      n,
	}
	for i := 0; i < n; i++ {
		m, err := ols.WeightedRegression(X, Y, wm.W[i], true, opts...)
		if err != nil {
			if errors.Is(err, errorx.ErrSingularMatrix) {
				return Result{}, errorx.Wrap(err, fmt.Sprintf(
					"local fit at observation %d: too few neighbours with non-zero weight or collinear predictors", i))
			}
			return Result{}, errorx.Wrap(err, fmt.Sprintf("local fit at observation %d", i))
		}
		// intercept + xᵢ·β
		fitted := m.Coeffs[0]
		for j, v := range X[i] {
			fitted += m.Coeffs[j+1] * v
		}
		res.Local[i] = LocalFit{
			Coeffs:    m.Coeffs,
			SE:        m.SE,
			TStats:    m.TStats,
			PValues:   m.PValues,
			RSquared:  m.RSquared,
			Bandwidth: wm.Bandwidths[i],
			Fitted:    fitted,
		}
		res.Fitted[i] = fitted
		res.Resids[i] = Y[i] - fitted
	}
	res.K = len(res.Local[0].Coeffs)

	if err := res.summarise(Y, d); err != nil {
		return Result{}, err
	}

	mr, err := diagnostics.MoransI(res.Resids, wm.W)
	if err != nil {
		staticLog.Log.Debugf("gwr: moran's I of residuals skipped: %v", err)
	} else {
		res.Spatial = &mr
	}

	staticLog.Log.Debugf("gwr: n=%d k=%d kernel=%s metric=%s adaptive=%t R²=%.4f AIC=%.4f",
		n, res.K, s.Weights.Kernel, s.Weights.Metric, s.Weights.Adaptive, res.RSquared, res.AIC)
	return res, nil
}

func (r *Result) summarise(Y []float64, d distributions.Distributions) error {
	n, k := float64(r.N), r.K

	r.Coeffs = make([]float64, k)
	r.SE = make([]float64, k)
	for _, lf := range r.Local {
		for j := 0; j < k; j++ {
			r.Coeffs[j] += lf.Coeffs[j] / n
			r.SE[j] += lf.SE[j] / n
		}
	}

	mt := ols.ComputeMetrics(Y, r.Resids, nil)
	r.RSS, r.TSS, r.RSquared = mt.RSS, mt.TSS, mt.RSquared
	r.RMSE, r.MAE, r.MAPE = mt.RMSE, mt.MAE, mt.MAPE

	r.EffectiveParams = float64(k) * math.Sqrt(n)
	r.DF = n - r.EffectiveParams
	r.AdjRSquared = math.NaN()
	if r.DF > 0 {
		r.AdjRSquared = 1 - (1-r.RSquared)*(n-1)/r.DF
	}
	r.AIC = ols.AIC(r.RSS, r.N, r.EffectiveParams)

	// p值自由度: fall back to n - k when p·√n leaves none
	df := r.DF
	if df <= 0 {
		df = n - float64(k)
	}
	r.TStats = make([]float64, k)
	r.PValues = make([]float64, k)
	for j := 0; j < k; j++ {
		r.TStats[j] = r.Coeffs[j] / r.SE[j]
		p, err := distributions.TwoSidedPValue(d, r.TStats[j], df)
		if err != nil {
			return err
		}
		r.PValues[j] = p
	}
	return nil
}
