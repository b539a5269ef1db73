package regression

import (
	"spatialregr/ml/dataset"
	"spatialregr/ml/diagnostics"
)

// AssessQuality classifies a fitted model. The result is descriptive only;
// a nil model gets the zero Assessment.
func AssessQuality(model *Model) diagnostics.Assessment {
	if model == nil {
		return diagnostics.Assessment{}
	}
	in := diagnostics.QualityInput{
		RSquared:    model.RSquared,
		AdjRSquared: model.AdjustedRSquared,
		MAPE:        model.MAPE,
		PValues:     make(map[string]float64, len(model.PValues)),
	}
	for name, p := range model.PValues {
		if name != dataset.InterceptName {
			in.PValues[name] = p
		}
	}
	if d := model.Diagnostics; d != nil {
		in.Spatial = d.SpatialAutocorrelation
		in.Normality = d.Normality
		in.Heteroscedasticity = d.Heteroscedasticity
		in.Collinearity = d.Multicollinearity
	}
	return diagnostics.Classify(in)
}

// VariableImportance is |t| of every non-intercept variable normalised to
// sum 1. A nil model has none.
func VariableImportance(model *Model) map[string]float64 {
	if model == nil {
		return map[string]float64{}
	}
	var names []string
	if len(model.UsedVariables) > 1 {
		names = model.UsedVariables[1:]
	}
	return diagnostics.Importance(names, model.TValues)
}
