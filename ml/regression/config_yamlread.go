package regression

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"spatialregr/infra/errorx"
	"spatialregr/infra/errorx/errCode"
	"spatialregr/ml/dataset"
	"spatialregr/spatial/weights"
)

// yamlConfig is the file form; unset keys keep DefaultConfig values.
//
//	kernel: bisquare
//	distance: haversine
//	bandwidth: 0.25
//	adaptive: true
//	transforms: {price: log, sqft: sqrt}
//	weightVariable: confidence
//	location: {lat: latitude, lng: longitude}
type yamlConfig struct {
	Kernel           string            `yaml:"kernel"`
	Distance         string            `yaml:"distance"`
	Bandwidth        *float64          `yaml:"bandwidth"`
	Adaptive         *bool             `yaml:"adaptive"`
	Transforms       map[string]string `yaml:"transforms"`
	WeightVariable   string            `yaml:"weightVariable"`
	PolynomialDegree *int              `yaml:"polynomialDegree"`
	Interactions     bool              `yaml:"interactions"`
	RobustSE         bool              `yaml:"robustStandardErrors"`
	Lenient          bool              `yaml:"lenient"`
	Location         struct {
		Field string `yaml:"field"`
		Lat   string `yaml:"lat"`
		Lng   string `yaml:"lng"`
	} `yaml:"location"`
	MaxGWRObservations int  `yaml:"maxGWRObservations"`
	SkipDiagnostics    bool `yaml:"skipDiagnostics"`
	HistogramBins      int  `yaml:"histogramBins"`
}

// LoadConfig reads a YAML config file.
func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read yaml: %w", err)
	}
	return ParseConfig(b)
}

// ParseConfig decodes YAML on top of DefaultConfig, normalises names and
// validates the result.
func ParseConfig(data []byte) (*Config, error) {
	var raw yamlConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}

	c := DefaultConfig()
	if s := strings.TrimSpace(raw.Kernel); s != "" {
		if c.Kernel = weights.GetKernel(s); c.Kernel == weights.KERNEL_ERROR {
			return nil, errorx.Newf(errCode.INVALID_VALUE, "unknown kernel %q", s)
		}
	}
	if s := strings.TrimSpace(raw.Distance); s != "" {
		if c.Metric = weights.GetMetric(s); c.Metric == weights.DISTANCE_ERROR {
			return nil, errorx.Newf(errCode.INVALID_VALUE, "unknown distance metric %q", s)
		}
	}
	if raw.Bandwidth != nil {
		c.Bandwidth = *raw.Bandwidth
	}
	if raw.Adaptive != nil {
		c.Adaptive = *raw.Adaptive
	}
	if raw.PolynomialDegree != nil {
		c.PolynomialDegree = *raw.PolynomialDegree
	}

	// 规范化 key：去空格; transform 名称不区分大小写
	if len(raw.Transforms) > 0 {
		c.Transforms = make(map[string]dataset.Transform, len(raw.Transforms))
		for k, v := range raw.Transforms {
			field := strings.TrimSpace(k)
			t := dataset.GetTransform(v)
			if t == dataset.TRANSFORM_ERROR {
				return nil, errorx.Newf(errCode.INVALID_VALUE, "invalid transform for %s: %q", field, v)
			}
			c.Transforms[field] = t
		}
	}

	c.WeightVariable = strings.TrimSpace(raw.WeightVariable)
	c.Interactions = raw.Interactions
	c.RobustSE = raw.RobustSE
	c.Lenient = raw.Lenient
	if loc := raw.Location; loc.Field != "" || loc.Lat != "" || loc.Lng != "" {
		c.Location = dataset.LocationSpec{
			Field:    strings.TrimSpace(loc.Field),
			LatField: strings.TrimSpace(loc.Lat),
			LngField: strings.TrimSpace(loc.Lng),
		}
		if !c.Location.Enabled() {
			return nil, errorx.New(errCode.INVALID_VALUE, "location needs a field or both lat and lng")
		}
	}
	if raw.MaxGWRObservations != 0 {
		c.MaxGWRObservations = raw.MaxGWRObservations
	}
	c.SkipDiagnostics = raw.SkipDiagnostics
	c.HistogramBins = raw.HistogramBins

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}
