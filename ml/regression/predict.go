package regression

import (
	"slices"

	"spatialregr/infra/errorx"
	"spatialregr/infra/errorx/errCode"
	"spatialregr/ml/dataset"
	"spatialregr/spatial/weights"
)

// Predict scores records with model, replaying the transforms and column
// expansion stored in the model. Predictions are in the transformed target
// space. A GWR model scores each record with the local coefficients of the
// nearest fitted location.
//
// cfg only contributes Lenient and Location; nil keeps the model's own.
func Predict(model *Model, records []dataset.Record, cfg *Config) ([]float64, error) {
	if model == nil || len(model.UsedVariables) == 0 {
		return nil, errorx.New(errCode.INVALID_VALUE, "model is not fitted")
	}
	fitCfg := model.Config
	if cfg != nil {
		fitCfg.Lenient = cfg.Lenient
		if cfg.Location.Enabled() {
			fitCfg.Location = cfg.Location
		}
	}
	gwrModel := model.Method == METHOD_GWR
	if gwrModel && len(model.Local) == 0 {
		return nil, errorx.New(errCode.INVALID_VALUE, "gwr model has no local fits")
	}

	ex, err := dataset.Extract(records, fitCfg.extractSpec("", model.Predictors, gwrModel))
	if err != nil {
		return nil, err
	}
	names := model.UsedVariables
	if !slices.Equal(ex.Columns, names[1:]) {
		return nil, errorx.Newf(errCode.DIMENSION_MISMATCH, "model variables %v do not match design columns %v", names[1:], ex.Columns)
	}

	global := vector(names, model.Coefficients)
	var fittedAt []weights.Point
	if gwrModel {
		fittedAt = make([]weights.Point, len(model.Local))
		for i, lf := range model.Local {
			fittedAt[i] = lf.Location
		}
	}

	out := make([]float64, len(ex.X))
	for i, row := range ex.X {
		beta := global
		if gwrModel {
			nearest := weights.Nearest(fitCfg.Metric, fittedAt, ex.Points[i])
			beta = vector(names, model.Local[nearest].Coefficients)
		}
		y := beta[0]
		for j, v := range row {
			y += beta[j+1] * v
		}
		out[i] = y
	}
	return out, nil
}
