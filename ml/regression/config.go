package regression

import (
	"maps"
	"math"

	"spatialregr/infra/errorx"
	"spatialregr/infra/errorx/errCode"
	"spatialregr/ml/dataset"
	"spatialregr/ml/gwr"
	"spatialregr/spatial/weights"
)

// DefaultLocationField is where records keep their coordinate pair unless
// the config says otherwise.
const DefaultLocationField = "location"

// Config is read-only to the engine; every fit stores a copy in its Model.
type Config struct {
	Kernel   weights.Kernel
	Metric   weights.Metric
	Adaptive bool
	// Bandwidth is a fraction of n in (0, 1] when Adaptive, otherwise a
	// distance in the metric's unit (km for haversine).
	Bandwidth float64

	// Transforms by field name, target included.
	Transforms map[string]dataset.Transform
	// WeightVariable names the record field holding WLS weights.
	WeightVariable string
	// PolynomialDegree ≥ 2 adds powers of every predictor.
	PolynomialDegree int
	Interactions     bool
	RobustSE         bool

	// Lenient fills missing or non-numeric values with 0 instead of failing.
	Lenient  bool
	Location dataset.LocationSpec

	MaxGWRObservations int
	SkipDiagnostics    bool
	// HistogramBins of the residual histogram, 0 for Sturges.
	HistogramBins int
}

func DefaultConfig() *Config {
	return &Config{
		Kernel:             weights.KERNEL_GAUSSIAN,
		Metric:             weights.DISTANCE_HAVERSINE,
		Adaptive:           true,
		Bandwidth:          0.3,
		PolynomialDegree:   1,
		Location:           dataset.LocationSpec{Field: DefaultLocationField},
		MaxGWRObservations: gwr.DefaultMaxObservations,
	}
}

func (c *Config) orDefault() *Config {
	if c == nil {
		return DefaultConfig()
	}
	return c
}

// Validate checks everything that does not depend on the records.
func (c *Config) Validate() error {
	if c.Kernel < weights.KERNEL_GAUSSIAN || c.Kernel >= weights.KERNEL_ERROR {
		return errorx.Newf(errCode.INVALID_VALUE, "unknown kernel %d", int(c.Kernel))
	}
	if c.Metric < weights.DISTANCE_EUCLIDEAN || c.Metric >= weights.DISTANCE_ERROR {
		return errorx.Newf(errCode.INVALID_VALUE, "unknown distance metric %d", int(c.Metric))
	}
	if !(c.Bandwidth > 0) || math.IsInf(c.Bandwidth, 0) {
		return errorx.Newf(errCode.INVALID_VALUE, "bandwidth must be positive, got %v", c.Bandwidth)
	}
	if c.Adaptive && c.Bandwidth > 1 {
		return errorx.Newf(errCode.INVALID_VALUE, "adaptive bandwidth is a fraction of n in (0, 1], got %v", c.Bandwidth)
	}
	if c.PolynomialDegree < 0 {
		return errorx.Newf(errCode.INVALID_VALUE, "polynomial degree must be >= 0, got %d", c.PolynomialDegree)
	}
	if c.HistogramBins < 0 {
		return errorx.Newf(errCode.INVALID_VALUE, "histogram bins must be >= 0, got %d", c.HistogramBins)
	}
	for name, t := range c.Transforms {
		if t < dataset.TRANSFORM_NONE || t >= dataset.TRANSFORM_ERROR {
			return errorx.Newf(errCode.INVALID_VALUE, "unknown transform for field %q", name)
		}
	}
	return nil
}

// snapshot copies c so later changes by the caller do not reach a Model.
func (c *Config) snapshot() Config {
	s := *c
	s.Transforms = maps.Clone(c.Transforms)
	return s
}

func (c *Config) weightOptions() weights.Options {
	return weights.Options{
		Kernel:    c.Kernel,
		Metric:    c.Metric,
		Bandwidth: c.Bandwidth,
		Adaptive:  c.Adaptive,
	}
}

func (c *Config) extractSpec(target string, predictors []string, withLocation bool) dataset.ExtractSpec {
	spec := dataset.ExtractSpec{
		Target:       target,
		Predictors:   predictors,
		Transforms:   c.Transforms,
		Degree:       c.PolynomialDegree,
		Interactions: c.Interactions,
		Lenient:      c.Lenient,
	}
	if withLocation {
		spec.Location = c.Location
		if !spec.Location.Enabled() {
			spec.Location = dataset.LocationSpec{Field: DefaultLocationField}
		}
	}
	return spec
}
