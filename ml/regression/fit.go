package regression

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"spatialregr/infra/errorx"
	"spatialregr/infra/errorx/errCode"
	"spatialregr/infra/observe/log/staticLog"
	"spatialregr/ml/dataset"
	"spatialregr/ml/diagnostics"
	"spatialregr/ml/gwr"
	"spatialregr/ml/ols"
)

// FitOLS fits ordinary least squares with an intercept. A nil cfg means
// DefaultConfig().
func FitOLS(records []dataset.Record, target string, predictors []string, cfg *Config) (Model, error) {
	cfg = cfg.orDefault()
	ex, err := prepare(records, target, predictors, cfg, false)
	if err != nil {
		return Model{}, err
	}
	lm, err := ols.MultiRegression(ex.X, ex.Y, true, ols.WithRobustSE(cfg.RobustSE))
	if err != nil {
		return Model{}, err
	}
	return fromLinear(METHOD_OLS, target, predictors, cfg, ex, lm), nil
}

// FitWeighted fits weighted least squares with weights read from
// cfg.WeightVariable, equal weights when none is configured.
//
// The weight field is checked on the first record. When it is absent or not
// numeric there, strict mode fails and lenient mode falls back to equal
// weights. Later records missing the field fail in strict mode and get
// weight 1 in lenient mode.
func FitWeighted(records []dataset.Record, target string, predictors []string, cfg *Config) (Model, error) {
	cfg = cfg.orDefault()
	if len(records) == 0 {
		return Model{}, errorx.New(errCode.EMPTY_VALUE, "no records")
	}
	w, err := weightsFromRecords(records, cfg)
	if err != nil {
		return Model{}, err
	}
	return FitWeightedVector(records, target, predictors, w, cfg)
}

// FitWeightedVector fits weighted least squares with caller-supplied
// weights, one per record, finite and non-negative with a positive sum.
func FitWeightedVector(records []dataset.Record, target string, predictors []string, w []float64, cfg *Config) (Model, error) {
	cfg = cfg.orDefault()
	ex, err := prepare(records, target, predictors, cfg, false)
	if err != nil {
		return Model{}, err
	}
	lm, err := ols.WeightedRegression(ex.X, ex.Y, w, true, ols.WithRobustSE(cfg.RobustSE))
	if err != nil {
		return Model{}, err
	}
	return fromLinear(METHOD_WLS, target, predictors, cfg, ex, lm), nil
}

// FitGWR fits a geographically weighted regression on the coordinates named
// by cfg.Location.
func FitGWR(records []dataset.Record, target string, predictors []string, cfg *Config) (Model, error) {
	cfg = cfg.orDefault()
	ex, err := prepare(records, target, predictors, cfg, true)
	if err != nil {
		return Model{}, err
	}
	res, err := gwr.Regression(ex.X, ex.Y, ex.Points, gwr.Settings{
		Weights:         cfg.weightOptions(),
		MaxObservations: cfg.MaxGWRObservations,
		RobustSE:        cfg.RobustSE,
	})
	if err != nil {
		return Model{}, err
	}

	names := usedVariables(ex.Columns)
	m := Model{
		Method:           METHOD_GWR,
		Target:           target,
		Predictors:       slices.Clone(predictors),
		UsedVariables:    names,
		Coefficients:     keyed(names, res.Coeffs),
		StandardErrors:   keyed(names, res.SE),
		TValues:          keyed(names, res.TStats),
		PValues:          keyed(names, res.PValues),
		RSquared:         res.RSquared,
		AdjustedRSquared: res.AdjRSquared,
		AIC:              res.AIC,
		RMSE:             res.RMSE,
		MAE:              res.MAE,
		MAPE:             res.MAPE,
		PredictedValues:  res.Fitted,
		ActualValues:     ex.Y,
		Residuals:        res.Resids,
		Observations:     res.N,
		Parameters:       res.EffectiveParams,
		DefaultedRecords: defaulted(ex),
		Local:            make([]LocalCoefficients, res.N),
		Config:           cfg.snapshot(),
	}
	for i, lf := range res.Local {
		m.Local[i] = LocalCoefficients{
			Location:       ex.Points[i],
			Coefficients:   keyed(names, lf.Coeffs),
			StandardErrors: keyed(names, lf.SE),
			TValues:        keyed(names, lf.TStats),
			PValues:        keyed(names, lf.PValues),
			RSquared:       lf.RSquared,
			Bandwidth:      lf.Bandwidth,
		}
	}
	if !cfg.SkipDiagnostics {
		m.Diagnostics = residualDiagnostics(cfg, ex, res.Resids)
		m.Diagnostics.SpatialAutocorrelation = res.Spatial
	}
	return m, nil
}

func prepare(records []dataset.Record, target string, predictors []string, cfg *Config, withLocation bool) (dataset.Extraction, error) {
	if err := cfg.Validate(); err != nil {
		return dataset.Extraction{}, err
	}
	if strings.TrimSpace(target) == "" {
		return dataset.Extraction{}, errorx.New(errCode.EMPTY_VALUE, "target field is empty")
	}
	return dataset.Extract(records, cfg.extractSpec(target, predictors, withLocation))
}

func fromLinear(method Method, target string, predictors []string, cfg *Config, ex dataset.Extraction, lm ols.MultiLinearModel) Model {
	names := usedVariables(ex.Columns)
	m := Model{
		Method:           method,
		Target:           target,
		Predictors:       slices.Clone(predictors),
		UsedVariables:    names,
		Coefficients:     keyed(names, lm.Coeffs),
		StandardErrors:   keyed(names, lm.SE),
		TValues:          keyed(names, lm.TStats),
		PValues:          keyed(names, lm.PValues),
		RSquared:         lm.RSquared,
		AdjustedRSquared: lm.AdjRSquared,
		AIC:              lm.AIC,
		RMSE:             lm.RMSE,
		MAE:              lm.MAE,
		MAPE:             lm.MAPE,
		PredictedValues:  lm.Fitted,
		ActualValues:     ex.Y,
		Residuals:        lm.Resids,
		Observations:     lm.N,
		Parameters:       float64(lm.K),
		DefaultedRecords: defaulted(ex),
		Config:           cfg.snapshot(),
	}
	if !cfg.SkipDiagnostics {
		resid := lm.Resids
		if lm.Weights != nil {
			// 加权残差 √w·e
			resid = make([]float64, len(lm.Resids))
			for i, r := range lm.Resids {
				resid[i] = r * math.Sqrt(lm.Weights[i])
			}
		}
		m.Diagnostics = residualDiagnostics(cfg, ex, resid)
	}
	return m
}

// residualDiagnostics runs the residual checks; one that cannot be computed
// on this data is left nil.
func residualDiagnostics(cfg *Config, ex dataset.Extraction, resid []float64) *Diagnostics {
	d := &Diagnostics{}
	if nr, err := diagnostics.JarqueBera(resid, cfg.HistogramBins); err != nil {
		staticLog.Log.Debugf("regression: normality test skipped: %v", err)
	} else {
		d.Normality = &nr
	}
	if h, err := diagnostics.BreuschPagan(ex.X, resid); err != nil {
		staticLog.Log.Debugf("regression: heteroscedasticity test skipped: %v", err)
	} else {
		d.Heteroscedasticity = &h
	}
	if c, err := diagnostics.Collinearity(ex.X, ex.Columns); err != nil {
		staticLog.Log.Debugf("regression: multicollinearity check skipped: %v", err)
	} else {
		d.Multicollinearity = &c
	}
	return d
}

func weightsFromRecords(records []dataset.Record, cfg *Config) ([]float64, error) {
	n := len(records)
	w := make([]float64, n)
	for i := range w {
		w[i] = 1
	}
	name := cfg.WeightVariable
	if name == "" {
		return w, nil
	}

	first, ok := records[0].Field(name)
	if ok {
		_, ok = dataset.ToFloat(first)
	}
	if !ok {
		if !cfg.Lenient {
			return nil, errorx.New(errCode.INVALID_VALUE, "missing or non-numeric weight",
				fmt.Sprintf("record 0, field %q", name))
		}
		staticLog.Log.Warnf("regression: weight field %q missing or non-numeric on the first record, using equal weights", name)
		return w, nil
	}

	var filled int
	for i, rec := range records {
		var v float64
		raw, ok := rec.Field(name)
		if ok {
			v, ok = dataset.ToFloat(raw)
		}
		if !ok {
			if !cfg.Lenient {
				return nil, errorx.New(errCode.INVALID_VALUE, "missing or non-numeric weight",
					fmt.Sprintf("record %d, field %q", i, name))
			}
			filled++
			continue
		}
		w[i] = v
	}
	if filled > 0 {
		staticLog.Log.Warnf("regression: %d of %d records had no usable weight in %q, weighted 1", filled, n, name)
	}
	return w, nil
}

func defaulted(ex dataset.Extraction) []int {
	if ex.Defaulted == nil {
		return nil
	}
	var out []int
	for i, ok := ex.Defaulted.NextSet(0); ok; i, ok = ex.Defaulted.NextSet(i + 1) {
		out = append(out, int(i))
	}
	return out
}
