package ols

import (
	"fmt"
	"math"

	"github.com/gonum/stat"
	"gonum.org/v1/gonum/floats"

	"spatialregr/infra/errorx"
	"spatialregr/infra/errorx/errCode"
	"spatialregr/infra/observe/log/staticLog"
	"spatialregr/numpy/npLinalg"
	"spatialregr/stats/distributions"
)

type MultiLinearModel struct {
	Coeffs  []float64 // 回归系数, intercept first when fitted with a constant
	SE      []float64 // 标准误
	TStats  []float64 // t统计量
	PValues []float64 // p值（双尾）
	Fitted  []float64 // 预测值, on the unscaled design
	Resids  []float64 // 残差 y - ŷ
	// Weights are the observation weights normalised to sum n; nil for OLS.
	Weights []float64

	N  int
	K  int     // number of coefficients, intercept included
	DF float64 // n - k

	RSS    float64 // weighted for WLS
	TSS    float64 // weighted for WLS
	Sigma2 float64 // RSS / (n - k)

	RSquared    float64
	AdjRSquared float64
	AIC         float64
	RMSE        float64
	MAE         float64
	MAPE        float64

	// XtXInv is (XᵗWX)⁻¹, reused by callers that need leverage or VIFs.
	XtXInv [][]float64
}

type options struct {
	robust bool
	dist   distributions.Distributions
}

type Option func(*options)

// WithRobustSE switches standard errors to the HC0 sandwich estimator.
func WithRobustSE(on bool) Option {
	return func(o *options) { o.robust = on }
}

// WithDistributions overrides the t distribution used for p-values.
func WithDistributions(d distributions.Distributions) Option {
	return func(o *options) {
		if d != nil {
			o.dist = d
		}
	}
}

// MultiRegression 普通最小二乘. X is n×p without intercept when withConst.
func MultiRegression(X [][]float64, Y []float64, withConst bool, opts ...Option) (MultiLinearModel, error) {
	return fit(X, Y, nil, withConst, opts)
}

// WeightedRegression 加权最小二乘. W is normalised to sum n, every row of
// X and y is scaled by √w and solved exactly like OLS; the summary
// statistics use weighted sums.
func WeightedRegression(X [][]float64, Y, W []float64, withConst bool, opts ...Option) (MultiLinearModel, error) {
	if W == nil {
		return MultiLinearModel{}, errorx.New(errCode.EMPTY_VALUE, "weight vector is nil")
	}
	return fit(X, Y, W, withConst, opts)
}

func fit(X [][]float64, Y, W []float64, withConst bool, opts []Option) (MultiLinearModel, error) {
	o := options{dist: distributions.Default}
	for _, opt := range opts {
		opt(&o)
	}

	n := len(Y)
	if n == 0 || len(X) == 0 {
		return MultiLinearModel{}, errorx.New(errCode.EMPTY_VALUE, "输入数据为空")
	}
	if n != len(X) {
		return MultiLinearModel{}, errorx.Newf(errCode.DIMENSION_MISMATCH, "数据长度不匹配: %d rows, %d targets", len(X), n)
	}
	if withConst {
		X = AddConstantColumn(X)
	}
	k := len(X[0])
	if k == 0 {
		return MultiLinearModel{}, errorx.New(errCode.EMPTY_VALUE, "no predictor columns")
	}
	for i, row := range X {
		if len(row) != k {
			return MultiLinearModel{}, errorx.Newf(errCode.DIMENSION_MISMATCH, "row %d has %d columns, want %d", i, len(row), k)
		}
	}
	if n <= k {
		return MultiLinearModel{}, errorx.Newf(errCode.INVALID_VALUE,
			"too few observations: n=%d must exceed the %d estimated parameters", n, k)
	}

	var w []float64
	if W != nil {
		var err error
		if w, err = NormalizeWeights(W, n); err != nil {
			return MultiLinearModel{}, err
		}
	}

	// √w 缩放
	Xs, Ys := X, Y
	if w != nil {
		Xs, Ys = scaleRows(X, Y, w)
	}

	beta, xtxInv, err := Solve(Xs, Ys)
	if err != nil {
		return MultiLinearModel{}, err
	}

	// 预测值 & 残差
	fitted, err := npLinalg.Matvec(X, beta)
	if err != nil {
		return MultiLinearModel{}, err
	}
	resid := make([]float64, n)
	for i := range resid {
		resid[i] = Y[i] - fitted[i]
	}

	m := MultiLinearModel{
		Coeffs:  beta,
		Fitted:  fitted,
		Resids:  resid,
		Weights: w,
		N:       n,
		K:       k,
		DF:      float64(n - k),
		XtXInv:  xtxInv,
	}
	m.summarise(Y)

	if err := m.coefficientStats(Xs, o); err != nil {
		return MultiLinearModel{}, err
	}
	staticLog.Log.Debugf("ols: n=%d k=%d weighted=%t R²=%.4f RMSE=%.4f", n, k, w != nil, m.RSquared, m.RMSE)
	return m, nil
}

// Solve returns β = (XᵗX)⁻¹XᵗY and (XᵗX)⁻¹. X already carries any intercept
// column and weight scaling.
func Solve(X [][]float64, Y []float64) (beta []float64, xtxInv [][]float64, err error) {
	XT := npLinalg.Transpose(X)

	// (X'X)
	XTX, err := npLinalg.Matmul(XT, X)
	if err != nil {
		return nil, nil, err
	}
	// (X'X)^(-1), 对角缩放后求逆
	xtxInv, err = npLinalg.InvEquilibrated(XTX)
	if err != nil {
		return nil, nil, err
	}
	// (X'Y)
	XTY, err := npLinalg.Matvec(XT, Y)
	if err != nil {
		return nil, nil, err
	}
	// β = (X'X)^(-1) * (X'Y)
	beta, err = npLinalg.Matvec(xtxInv, XTY)
	if err != nil {
		return nil, nil, err
	}
	return beta, xtxInv, nil
}

// Metrics are the goodness-of-fit numbers shared by every estimator.
type Metrics struct {
	RSS      float64
	TSS      float64
	RSquared float64
	RMSE     float64
	MAE      float64
	MAPE     float64 // NaN when every actual is zero
}

// ComputeMetrics 拟合优度. w may be nil; otherwise every sum is weighted by
// it and w is expected to sum to len(Y).
func ComputeMetrics(Y, resid, w []float64) Metrics {
	wt := func(i int) float64 {
		if w == nil {
			return 1
		}
		return w[i]
	}

	yMean := stat.Mean(Y, w)
	var rss, tss, absSum, wSum, apeSum, apeW float64
	for i, y := range Y {
		wi := wt(i)
		r := resid[i]
		d := y - yMean
		tss += wi * d * d
		rss += wi * r * r
		absSum += wi * math.Abs(r)
		wSum += wi
		// zero actuals give non-finite terms, skipped
		if ape := math.Abs(r/y) * 100; !math.IsNaN(ape) && !math.IsInf(ape, 0) {
			apeSum += wi * ape
			apeW += wi
		}
	}

	m := Metrics{
		RSS:  rss,
		TSS:  tss,
		RMSE: math.Sqrt(rss / float64(len(Y))),
		MAE:  absSum / wSum,
		MAPE: math.NaN(),
	}
	switch {
	case tss > 0:
		m.RSquared = 1 - rss/tss
	case rss == 0:
		m.RSquared = 1
	}
	if apeW > 0 {
		m.MAPE = apeSum / apeW
	}
	return m
}

// AIC is n·ln(RSS/n) + 2k; k may be fractional (GWR effective parameters).
func AIC(rss float64, n int, k float64) float64 {
	return float64(n)*math.Log(rss/float64(n)) + 2*k
}

// summarise fills RSS/TSS and the fit metrics, weighted when m.Weights is set.
func (m *MultiLinearModel) summarise(Y []float64) {
	mt := ComputeMetrics(Y, m.Resids, m.Weights)
	m.RSS = mt.RSS
	m.TSS = mt.TSS
	m.Sigma2 = mt.RSS / m.DF

	// R² & 调整后R²
	m.RSquared = mt.RSquared
	m.AdjRSquared = 1 - (1-m.RSquared)*float64(m.N-1)/m.DF
	m.AIC = AIC(mt.RSS, m.N, float64(m.K))
	m.RMSE = mt.RMSE
	m.MAE = mt.MAE
	m.MAPE = mt.MAPE
}

// coefficientStats fills SE, t and p from the scaled design Xs.
//
//	SE = sqrt(diag((XᵗX)⁻¹)·σ²)                 classic
//	SE = sqrt(diag((XᵗX)⁻¹ Xᵗdiag(e²)X (XᵗX)⁻¹)) robust (HC0)
func (m *MultiLinearModel) coefficientStats(Xs [][]float64, o options) error {
	k := m.K
	variances := make([]float64, k)
	if o.robust {
		e := make([]float64, m.N)
		for i, r := range m.Resids {
			if m.Weights != nil {
				r *= math.Sqrt(m.Weights[i])
			}
			e[i] = r
		}
		cov, err := sandwich(m.XtXInv, Xs, e)
		if err != nil {
			return err
		}
		for j := 0; j < k; j++ {
			variances[j] = cov[j][j]
		}
	} else {
		for j := 0; j < k; j++ {
			variances[j] = m.XtXInv[j][j] * m.Sigma2
		}
	}

	m.SE = make([]float64, k)
	m.TStats = make([]float64, k)
	m.PValues = make([]float64, k)
	for j := 0; j < k; j++ {
		m.SE[j] = math.Sqrt(math.Max(variances[j], 0))
		m.TStats[j] = m.Coeffs[j] / m.SE[j]
		p, err := distributions.TwoSidedPValue(o.dist, m.TStats[j], m.DF)
		if err != nil {
			return fmt.Errorf("p-value of coefficient %d: %w", j, err)
		}
		m.PValues[j] = p
	}
	return nil
}

// sandwich computes A·B·A with B = Σ eᵢ² xᵢxᵢᵀ.
func sandwich(inv [][]float64, X [][]float64, e []float64) ([][]float64, error) {
	k := len(inv)
	meat := make([][]float64, k)
	for a := range meat {
		meat[a] = make([]float64, k)
	}
	for i, row := range X {
		e2 := e[i] * e[i]
		for a := 0; a < k; a++ {
			ra := e2 * row[a]
			for b := 0; b < k; b++ {
				meat[a][b] += ra * row[b]
			}
		}
	}
	left, err := npLinalg.Matmul(inv, meat)
	if err != nil {
		return nil, err
	}
	return npLinalg.Matmul(left, inv)
}

// NormalizeWeights validates W and rescales it to sum n.
func NormalizeWeights(W []float64, n int) ([]float64, error) {
	if len(W) != n {
		return nil, errorx.Newf(errCode.DIMENSION_MISMATCH, "weights length %d, want %d", len(W), n)
	}
	for i, v := range W {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return nil, errorx.Newf(errCode.INVALID_VALUE, "weight %d must be finite and >= 0, got %v", i, v)
		}
	}
	sum := floats.Sum(W)
	if !(sum > 0) {
		return nil, errorx.New(errCode.INVALID_VALUE, "weights sum to zero")
	}
	out := make([]float64, n)
	floats.ScaleTo(out, float64(n)/sum, W)
	return out, nil
}

func scaleRows(X [][]float64, Y, w []float64) ([][]float64, []float64) {
	Xs := make([][]float64, len(X))
	Ys := make([]float64, len(Y))
	for i, row := range X {
		s := math.Sqrt(w[i])
		r := make([]float64, len(row))
		floats.ScaleTo(r, s, row)
		Xs[i] = r
		Ys[i] = Y[i] * s
	}
	return Xs, Ys
}

// AddConstantColumn 添加常数项: returns a copy of X with a leading column of 1s.
func AddConstantColumn(X [][]float64) [][]float64 {
	n := len(X)
	if n == 0 {
		return X
	}
	newX := make([][]float64, n)
	for i := 0; i < n; i++ {
		newRow := make([]float64, len(X[i])+1)
		newRow[0] = 1.0 // 第一列为常数项
		copy(newRow[1:], X[i])
		newX[i] = newRow
	}
	return newX
}
