// Package regression is the entry point of the engine: it extracts the
// design matrix from records, runs one of the estimators and assembles an
// immutable Model with its diagnostics.
//
//	model, err := regression.FitGWR(records, "price", []string{"sqft", "age"}, nil)
//	if errors.Is(err, regression.ErrSingularMatrix) {
//		// collinear predictors or too few observations
//	}
package regression

import (
	"spatialregr/infra/errorx"
	"spatialregr/ml/dataset"
	"spatialregr/ml/diagnostics"
	"spatialregr/spatial/weights"
)

var (
	ErrSingularMatrix  = errorx.ErrSingularMatrix
	ErrInvalidArgument = errorx.ErrInvalidArgument
)

// Method 估计方法
type Method int

const (
	METHOD_OLS Method = iota // "ols"
	METHOD_WLS               // "weighted"
	METHOD_GWR               // "gwr"
	METHOD_ERROR
)

func (m Method) String() string {
	switch m {
	case METHOD_OLS:
		return "ols"
	case METHOD_WLS:
		return "weighted"
	case METHOD_GWR:
		return "gwr"
	default:
		return "ERROR"
	}
}

func (m Method) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

type Diagnostics struct {
	Normality          *diagnostics.NormalityResult
	Heteroscedasticity *diagnostics.HeteroscedasticityResult
	Multicollinearity  *diagnostics.CollinearityResult
	// SpatialAutocorrelation is Moran's I of the residuals, GWR only.
	SpatialAutocorrelation *diagnostics.MoranResult
}

// LocalCoefficients is one GWR local fit, keyed like Model.Coefficients.
type LocalCoefficients struct {
	Location       weights.Point
	Coefficients   map[string]float64
	StandardErrors map[string]float64
	TValues        map[string]float64
	PValues        map[string]float64
	RSquared       float64
	Bandwidth      float64
}

// Model is built once per fit and never modified by the engine.
type Model struct {
	Method     Method
	Target     string
	Predictors []string
	// UsedVariables is intercept first, then the design columns; it is the
	// order behind every coefficient map.
	UsedVariables []string

	Coefficients   map[string]float64
	StandardErrors map[string]float64
	TValues        map[string]float64
	PValues        map[string]float64

	RSquared         float64
	AdjustedRSquared float64
	AIC              float64
	RMSE             float64
	MAE              float64
	MAPE             float64

	PredictedValues []float64
	ActualValues    []float64
	Residuals       []float64

	Observations int
	// Parameters is the coefficient count, p·√n for GWR.
	Parameters float64
	// DefaultedRecords lists records with a value filled in by lenient mode.
	DefaultedRecords []int

	Diagnostics *Diagnostics
	Local       []LocalCoefficients

	Config Config
}

// vector reads values back in names order.
func vector(names []string, values map[string]float64) []float64 {
	out := make([]float64, len(names))
	for j, name := range names {
		out[j] = values[name]
	}
	return out
}

func keyed(names []string, values []float64) map[string]float64 {
	out := make(map[string]float64, len(names))
	for j, name := range names {
		out[name] = values[j]
	}
	return out
}

func usedVariables(columns []string) []string {
	return append([]string{dataset.InterceptName}, columns...)
}
