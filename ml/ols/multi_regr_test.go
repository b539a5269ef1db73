package ols

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"spatialregr/infra/errorx"
)

func noiseless() ([][]float64, []float64) {
	X := make([][]float64, 20)
	Y := make([]float64, 20)
	for i := range X {
		X[i] = []float64{float64(i)}
		Y[i] = 2 + 3*float64(i)
	}
	return X, Y
}

// noisy returns a two-predictor design with deterministic noise and n=18,
// small enough that p-values use the exact t distribution.
func noisy() ([][]float64, []float64) {
	X := make([][]float64, 18)
	Y := make([]float64, 18)
	for i := range X {
		x1 := float64(i)
		x2 := math.Cos(float64(i)*0.9) * 4
		X[i] = []float64{x1, x2}
		Y[i] = 1.5 + 0.8*x1 - 2*x2 + math.Sin(float64(i)*1.7)*0.9
	}
	return X, Y
}

// reference fits weighted least squares with gonum, the same way
// MultiRegressionMat used to.
func reference(t *testing.T, X [][]float64, Y, w []float64) (beta, se []float64, xtxInv *mat.Dense, resid []float64) {
	t.Helper()
	n, k := len(X), len(X[0])+1
	if w == nil {
		w = make([]float64, n)
		for i := range w {
			w[i] = 1
		}
	}
	matX := mat.NewDense(n, k, nil)
	matY := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		s := math.Sqrt(w[i])
		matX.Set(i, 0, s)
		for j, v := range X[i] {
			matX.Set(i, j+1, v*s)
		}
		matY.SetVec(i, Y[i]*s)
	}
	var xtx, inv mat.Dense
	xtx.Mul(matX.T(), matX)
	require.NoError(t, inv.Inverse(&xtx))
	var xty, b mat.VecDense
	xty.MulVec(matX.T(), matY)
	b.MulVec(&inv, &xty)

	var fitted, res mat.VecDense
	fitted.MulVec(matX, &b)
	res.SubVec(matY, &fitted)
	sigma2 := mat.Dot(&res, &res) / float64(n-k)

	beta = make([]float64, k)
	se = make([]float64, k)
	for j := 0; j < k; j++ {
		beta[j] = b.AtVec(j)
		se[j] = math.Sqrt(sigma2 * inv.At(j, j))
	}
	return beta, se, &inv, res.RawVector().Data
}

func TestMultiRegressionRecoversNoiselessLine(t *testing.T) {
	X, Y := noiseless()
	m, err := MultiRegression(X, Y, true)
	require.NoError(t, err)

	assert.InDelta(t, 2.0, m.Coeffs[0], 1e-9)
	assert.InDelta(t, 3.0, m.Coeffs[1], 1e-9)
	assert.InDelta(t, 1.0, m.RSquared, 1e-12)
	assert.InDelta(t, 0.0, m.RMSE, 1e-9)
	assert.Equal(t, 20, m.N)
	assert.Equal(t, 2, m.K)
	assert.Nil(t, m.Weights)
}

func TestMultiRegressionMatchesGonumReference(t *testing.T) {
	X, Y := noisy()
	m, err := MultiRegression(X, Y, true)
	require.NoError(t, err)

	beta, se, _, _ := reference(t, X, Y, nil)
	assert.InDeltaSlice(t, beta, m.Coeffs, 1e-9)
	assert.InDeltaSlice(t, se, m.SE, 1e-9)

	tdist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: m.DF}
	for j := range m.Coeffs {
		assert.InDelta(t, m.Coeffs[j]/m.SE[j], m.TStats[j], 1e-12)
		assert.InDelta(t, 2*tdist.Survival(math.Abs(m.TStats[j])), m.PValues[j], 1e-6)
	}

	n := float64(m.N)
	assert.InDelta(t, 1-(1-m.RSquared)*(n-1)/(n-3), m.AdjRSquared, 1e-12)
	assert.InDelta(t, n*math.Log(m.RSS/n)+6, m.AIC, 1e-9)
	assert.InDelta(t, math.Sqrt(m.RSS/n), m.RMSE, 1e-12)

	var mae float64
	for i, r := range m.Resids {
		assert.InDelta(t, Y[i]-m.Fitted[i], r, 1e-12)
		mae += math.Abs(r)
	}
	assert.InDelta(t, mae/n, m.MAE, 1e-12)
	assert.Less(t, m.RSquared, 1.0)
	assert.Greater(t, m.RSquared, 0.9)
}

func TestWeightedRegressionUnitWeightsReproduceOLS(t *testing.T) {
	X, Y := noisy()
	o, err := MultiRegression(X, Y, true)
	require.NoError(t, err)

	for _, c := range []float64{1, 7.5} {
		w := make([]float64, len(Y))
		for i := range w {
			w[i] = c
		}
		m, err := WeightedRegression(X, Y, w, true)
		require.NoError(t, err)
		assert.InDeltaSlice(t, o.Coeffs, m.Coeffs, 1e-9)
		assert.InDeltaSlice(t, o.SE, m.SE, 1e-9)
		assert.InDelta(t, o.RSquared, m.RSquared, 1e-9)
		assert.InDelta(t, o.MAPE, m.MAPE, 1e-9)
		assert.InDelta(t, float64(len(Y)), sum(m.Weights), 1e-9)
	}
}

func TestWeightedRegressionMatchesGonumReference(t *testing.T) {
	X, Y := noisy()
	w := make([]float64, len(Y))
	for i := range w {
		w[i] = 0.2 + float64(i%5)
	}
	m, err := WeightedRegression(X, Y, w, true)
	require.NoError(t, err)

	norm, err := NormalizeWeights(w, len(w))
	require.NoError(t, err)
	beta, se, _, _ := reference(t, X, Y, norm)
	assert.InDeltaSlice(t, beta, m.Coeffs, 1e-9)
	assert.InDeltaSlice(t, se, m.SE, 1e-9)

	// weighted sums
	var rss float64
	for i, r := range m.Resids {
		rss += norm[i] * r * r
	}
	assert.InDelta(t, rss, m.RSS, 1e-9)
}

func TestWeightedRegressionZeroWeightsDropRows(t *testing.T) {
	X, Y := noisy()
	w := make([]float64, len(Y))
	for i := range w {
		w[i] = 1
	}
	// corrupt two rows and remove them through their weight
	Y[3] += 1000
	Y[9] -= 500
	w[3], w[9] = 0, 0
	m, err := WeightedRegression(X, Y, w, true)
	require.NoError(t, err)

	var Xk [][]float64
	var Yk []float64
	for i := range Y {
		if w[i] > 0 {
			Xk = append(Xk, X[i])
			Yk = append(Yk, Y[i])
		}
	}
	o, err := MultiRegression(Xk, Yk, true)
	require.NoError(t, err)
	assert.InDeltaSlice(t, o.Coeffs, m.Coeffs, 1e-9)
}

func TestRobustStandardErrors(t *testing.T) {
	X, Y := noisy()
	m, err := MultiRegression(X, Y, true, WithRobustSE(true))
	require.NoError(t, err)

	_, _, inv, resid := reference(t, X, Y, nil)
	n, k := len(X), len(X[0])+1
	matX := mat.NewDense(n, k, nil)
	for i := 0; i < n; i++ {
		matX.Set(i, 0, 1)
		for j, v := range X[i] {
			matX.Set(i, j+1, v)
		}
	}
	omega := mat.NewDiagDense(n, nil)
	for i, r := range resid {
		omega.SetDiag(i, r*r)
	}
	var meat, tmp, cov mat.Dense
	tmp.Mul(matX.T(), omega)
	meat.Mul(&tmp, matX)
	tmp.Reset()
	tmp.Mul(inv, &meat)
	cov.Mul(&tmp, inv)

	for j := 0; j < k; j++ {
		assert.InDelta(t, math.Sqrt(cov.At(j, j)), m.SE[j], 1e-9)
	}

	plain, err := MultiRegression(X, Y, true)
	require.NoError(t, err)
	assert.Equal(t, plain.Coeffs, m.Coeffs)
}

func TestMAPESkipsZeroActuals(t *testing.T) {
	X := [][]float64{{0}, {1}, {2}, {3}, {4}}
	Y := []float64{0, 1.1, 1.9, 3.2, 3.9}
	m, err := MultiRegression(X, Y, true)
	require.NoError(t, err)

	var ape float64
	for i := 1; i < len(Y); i++ {
		ape += math.Abs(m.Resids[i]/Y[i]) * 100
	}
	assert.InDelta(t, ape/4, m.MAPE, 1e-12)
	assert.False(t, math.IsNaN(m.MAPE))
}

func TestMultiRegressionErrors(t *testing.T) {
	X, Y := noiseless()

	_, err := MultiRegression(nil, nil, true)
	assert.True(t, errors.Is(err, errorx.ErrInvalidArgument))

	_, err = MultiRegression(X, Y[:5], true)
	assert.True(t, errors.Is(err, errorx.ErrInvalidArgument))

	// n == k
	_, err = MultiRegression([][]float64{{1}, {2}}, []float64{1, 2}, true)
	assert.True(t, errors.Is(err, errorx.ErrInvalidArgument))

	_, err = MultiRegression([][]float64{{1, 2}, {2}, {3, 4}, {5, 6}}, []float64{1, 2, 3, 4}, true)
	assert.True(t, errors.Is(err, errorx.ErrInvalidArgument))

	dup := make([][]float64, len(X))
	for i, r := range X {
		dup[i] = []float64{r[0], 2 * r[0]}
	}
	_, err = MultiRegression(dup, Y, true)
	assert.True(t, errors.Is(err, errorx.ErrSingularMatrix))

	_, err = WeightedRegression(X, Y, nil, true)
	assert.True(t, errors.Is(err, errorx.ErrInvalidArgument))
}

func TestMultiRegressionSingularFromDependentPredictors(t *testing.T) {
	cases := map[string]func(sqft, age float64) float64{
		"sum":    func(sqft, age float64) float64 { return sqft + age },
		"affine": func(sqft, _ float64) float64 { return 0.37*sqft + 11.3 },
		"scaled": func(sqft, _ float64) float64 { return sqft / 7 },
	}
	for name, extra := range cases {
		t.Run(name, func(t *testing.T) {
			var X [][]float64
			var Y []float64
			for i := 0; i < 6; i++ {
				for j := 0; j < 6; j++ {
					sqft := 800 + float64((i*7+j*3)%11)*120
					age := 5 + float64((i*5+j*2)%9)*4
					X = append(X, []float64{sqft, age, extra(sqft, age)})
					Y = append(Y, 50000+90*sqft-700*age+3000*math.Sin(float64(i*6+j)))
				}
			}
			_, err := MultiRegression(X, Y, true)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errorx.ErrSingularMatrix))

			w := make([]float64, len(Y))
			for i := range w {
				w[i] = 1 + float64(i%4)
			}
			_, err = WeightedRegression(X, Y, w, true)
			assert.True(t, errors.Is(err, errorx.ErrSingularMatrix))
		})
	}
}

func TestNormalizeWeights(t *testing.T) {
	w, err := NormalizeWeights([]float64{1, 3}, 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 1.5}, w)

	for _, bad := range [][]float64{{1}, {0, 0}, {1, -1}, {1, math.NaN()}, {math.Inf(1), 1}} {
		_, err := NormalizeWeights(bad, 2)
		assert.True(t, errors.Is(err, errorx.ErrInvalidArgument), "%v", bad)
	}
}

func TestAddConstantColumn(t *testing.T) {
	X := [][]float64{{2, 3}, {4, 5}}
	got := AddConstantColumn(X)
	assert.Equal(t, [][]float64{{1, 2, 3}, {1, 4, 5}}, got)
	assert.Equal(t, [][]float64{{2, 3}, {4, 5}}, X)
}

func sum(v []float64) float64 {
	var s float64
	for _, x := range v {
		s += x
	}
	return s
}
