// Package npLinalg is the small dense linear-algebra kernel the estimators run
// on: transpose, matmul and a Gauss-Jordan inverse, numpy style, over plain
// [][]float64 row-major matrices. Inputs are never modified.
package npLinalg

import (
	"fmt"
	"math"

	"spatialregr/infra/errorx"
	"spatialregr/infra/errorx/errCode"
)

// PivotEpsilon is the smallest |pivot| Inv accepts after partial pivoting.
const PivotEpsilon = 1e-10

// Transpose returns aᵀ. a must be rectangular; the column count is taken
// from the first row.
func Transpose(a [][]float64) [][]float64 {
	if len(a) == 0 {
		return [][]float64{}
	}
	rows, cols := len(a), len(a[0])
	out := make([][]float64, cols)
	for j := 0; j < cols; j++ {
		out[j] = make([]float64, rows)
		for i := 0; i < rows; i++ {
			out[j][i] = a[i][j]
		}
	}
	return out
}

// Matmul returns a·b with the direct triple loop.
func Matmul(a, b [][]float64) ([][]float64, error) {
	n, m, err := shape(a)
	if err != nil {
		return nil, err
	}
	m2, p, err := shape(b)
	if err != nil {
		return nil, err
	}
	if m != m2 {
		return nil, errorx.Newf(errCode.DIMENSION_MISMATCH, "matmul %dx%d · %dx%d", n, m, m2, p)
	}
	out := make([][]float64, n)
	for i := 0; i < n; i++ {
		row := make([]float64, p)
		ai := a[i]
		for k := 0; k < m; k++ {
			aik := ai[k]
			if aik == 0 {
				continue
			}
			bk := b[k]
			for j := 0; j < p; j++ {
				row[j] += aik * bk[j]
			}
		}
		out[i] = row
	}
	return out, nil
}

// Matvec returns a·v.
func Matvec(a [][]float64, v []float64) ([]float64, error) {
	n, m, err := shape(a)
	if err != nil {
		return nil, err
	}
	if len(v) != m {
		return nil, errorx.Newf(errCode.DIMENSION_MISMATCH, "matvec %dx%d · %d", n, m, len(v))
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		var s float64
		for j, x := range a[i] {
			s += x * v[j]
		}
		out[i] = s
	}
	return out, nil
}

// Eye returns the n×n identity.
func Eye(n int) [][]float64 {
	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, n)
		out[i][i] = 1
	}
	return out
}

// Inv inverts a square matrix by Gauss-Jordan elimination on [A|I] with
// partial pivoting. A chosen pivot below PivotEpsilon in absolute value
// fails with ErrSingularMatrix; nothing is zeroed or pseudo-inverted.
//
// Complexity: O(n³) time, O(n²) memory.
func Inv(a [][]float64) ([][]float64, error) {
	n, m, err := shape(a)
	if err != nil {
		return nil, err
	}
	if n != m {
		return nil, errorx.Newf(errCode.DIMENSION_MISMATCH, "inverse of non-square %dx%d", n, m)
	}

	// 1. augmented [A|I]
	aug := make([][]float64, n)
	for i := 0; i < n; i++ {
		row := make([]float64, 2*n)
		copy(row, a[i])
		row[n+i] = 1
		aug[i] = row
	}

	for col := 0; col < n; col++ {
		// 2. partial pivot: largest |value| in this column at or below the diagonal
		pivotRow := col
		maxAbs := math.Abs(aug[col][col])
		for r := col + 1; r < n; r++ {
			if v := math.Abs(aug[r][col]); v > maxAbs {
				maxAbs = v
				pivotRow = r
			}
		}
		if !(maxAbs >= PivotEpsilon) {
			return nil, errorx.New(errCode.SINGULAR_MATRIX, "near-zero pivot",
				fmt.Sprintf("column %d, check for collinear predictors or too few observations", col))
		}
		if pivotRow != col {
			aug[col], aug[pivotRow] = aug[pivotRow], aug[col]
		}

		// 3. normalise pivot row; dividing keeps x/x == 1 exact, so an exactly
		// dependent column eliminates to exact zeros
		pivot := aug[col]
		p := pivot[col]
		for j := col; j < 2*n; j++ {
			pivot[j] /= p
		}

		// 4. eliminate the column everywhere else
		for r := 0; r < n; r++ {
			if r == col {
				continue
			}
			f := aug[r][col]
			if f == 0 {
				continue
			}
			row := aug[r]
			for j := col; j < 2*n; j++ {
				row[j] -= f * pivot[j]
			}
		}
	}

	out := make([][]float64, n)
	for i := 0; i < n; i++ {
		out[i] = append([]float64(nil), aug[i][n:]...)
	}
	return out, nil
}

// InvEquilibrated inverts a symmetric positive semi-definite matrix such as
// XᵗX. It scales a to unit diagonal, S = D^-½·a·D^-½ with D = diag(a), inverts
// S with Inv and returns D^-½·S⁻¹·D^-½. On the unit-diagonal S a linearly
// dependent column leaves round-off near machine epsilon, so the absolute
// PivotEpsilon test catches it whatever the column magnitudes. A diagonal
// entry that is not strictly positive is singular.
func InvEquilibrated(a [][]float64) ([][]float64, error) {
	n, m, err := shape(a)
	if err != nil {
		return nil, err
	}
	if n != m {
		return nil, errorx.Newf(errCode.DIMENSION_MISMATCH, "inverse of non-square %dx%d", n, m)
	}

	d := make([]float64, n)
	for i := 0; i < n; i++ {
		if !(a[i][i] > 0) || math.IsInf(a[i][i], 0) {
			return nil, errorx.New(errCode.SINGULAR_MATRIX, "non-positive diagonal",
				fmt.Sprintf("column %d, check for all-zero predictors or zero weights", i))
		}
		d[i] = 1 / math.Sqrt(a[i][i])
	}

	s := make([][]float64, n)
	for i := 0; i < n; i++ {
		s[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			s[i][j] = a[i][j] * d[i] * d[j]
		}
	}
	inv, err := Inv(s)
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			inv[i][j] *= d[i] * d[j]
		}
	}
	return inv, nil
}

// shape validates a non-empty rectangular matrix.
func shape(a [][]float64) (rows, cols int, err error) {
	if len(a) == 0 || len(a[0]) == 0 {
		return 0, 0, errorx.New(errCode.EMPTY_VALUE, "empty matrix")
	}
	rows, cols = len(a), len(a[0])
	for i := 1; i < rows; i++ {
		if len(a[i]) != cols {
			return 0, 0, errorx.Newf(errCode.DIMENSION_MISMATCH, "ragged matrix: row %d has %d columns, want %d", i, len(a[i]), cols)
		}
	}
	return rows, cols, nil
}
