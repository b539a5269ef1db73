// Package weights builds the n×n spatial weight matrix used by GWR and by
// Moran's I: a distance metric, a kernel and a fixed or adaptive bandwidth.
//
// Row i holds the weights observation i gives to every other observation.
// With an adaptive bandwidth each row has its own bandwidth, so the matrix is
// not symmetric in general.
package weights

import (
	"math"
	"slices"

	"spatialregr/infra/errorx"
	"spatialregr/infra/errorx/errCode"
)

// MinAdaptiveNeighbors is the floor on the neighbour count of an adaptive
// bandwidth.
const MinAdaptiveNeighbors = 10

type Options struct {
	Kernel Kernel
	Metric Metric
	// Bandwidth is an absolute distance when fixed and a fraction of n in
	// (0, 1] when Adaptive.
	Bandwidth float64
	Adaptive  bool
}

// Matrix is the built weight matrix and the bandwidth applied to each row.
type Matrix struct {
	W          [][]float64
	Bandwidths []float64
}

func (o Options) validate() error {
	if o.Kernel < KERNEL_GAUSSIAN || o.Kernel >= KERNEL_ERROR {
		return errorx.Newf(errCode.INVALID_VALUE, "unknown kernel %d", int(o.Kernel))
	}
	if o.Metric < DISTANCE_EUCLIDEAN || o.Metric >= DISTANCE_ERROR {
		return errorx.Newf(errCode.INVALID_VALUE, "unknown distance metric %d", int(o.Metric))
	}
	if !(o.Bandwidth > 0) || math.IsInf(o.Bandwidth, 0) {
		return errorx.Newf(errCode.INVALID_VALUE, "bandwidth must be a positive finite number, got %v", o.Bandwidth)
	}
	if o.Adaptive && o.Bandwidth > 1 {
		return errorx.Newf(errCode.INVALID_VALUE, "adaptive bandwidth is a fraction of n in (0, 1], got %v", o.Bandwidth)
	}
	return nil
}

// AdaptiveNeighbors is the neighbour rank used as the adaptive bandwidth of
// every row: max(10, floor(n·fraction)).
func AdaptiveNeighbors(n int, fraction float64) int {
	k := int(math.Floor(float64(n) * fraction))
	if k < MinAdaptiveNeighbors {
		k = MinAdaptiveNeighbors
	}
	return k
}

// Build computes the weight matrix for pts. Memory is the n×n result plus
// one row of scratch.
func Build(pts []Point, opt Options) (Matrix, error) {
	n := len(pts)
	if n == 0 {
		return Matrix{}, errorx.New(errCode.EMPTY_VALUE, "no points to weight")
	}
	if err := opt.validate(); err != nil {
		return Matrix{}, err
	}
	for i, p := range pts {
		if !p.finite() {
			return Matrix{}, errorx.Newf(errCode.INVALID_VALUE, "point %d has a non-finite coordinate", i)
		}
	}

	k := AdaptiveNeighbors(n, opt.Bandwidth)
	if k > n-1 {
		k = n - 1
	}

	out := Matrix{
		W:          make([][]float64, n),
		Bandwidths: make([]float64, n),
	}
	dist := make([]float64, n)
	var sorted []float64
	if opt.Adaptive {
		sorted = make([]float64, n)
	}

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			dist[j] = Distance(opt.Metric, pts[i], pts[j])
		}

		bw := opt.Bandwidth
		if opt.Adaptive {
			// sorted[0] is the point itself, so sorted[k] is the k-th neighbour
			copy(sorted, dist)
			slices.Sort(sorted)
			bw = sorted[k]
		}
		out.Bandwidths[i] = bw

		row := make([]float64, n)
		for j := 0; j < n; j++ {
			row[j] = KernelWeight(opt.Kernel, dist[j], bw)
		}
		out.W[i] = row
	}
	return out, nil
}

// Sum returns Σᵢⱼ wᵢⱼ.
func (m Matrix) Sum() float64 {
	var s float64
	for _, row := range m.W {
		for _, w := range row {
			s += w
		}
	}
	return s
}
