package main

import (
	"encoding/json"
	"io"
	"math"
	"strconv"

	"github.com/tidwall/pretty"

	"spatialregr/ml/diagnostics"
	"spatialregr/ml/regression"
)

// jsonFloat writes NaN and ±Inf as null, which encoding/json rejects.
type jsonFloat float64

func (f jsonFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, v, 'g', -1, 64), nil
}

func floatsOf(v []float64) []jsonFloat {
	out := make([]jsonFloat, len(v))
	for i, x := range v {
		out[i] = jsonFloat(x)
	}
	return out
}

type variableReport struct {
	Name          string    `json:"name"`
	Coefficient   jsonFloat `json:"coefficient"`
	StandardError jsonFloat `json:"standardError"`
	TValue        jsonFloat `json:"tValue"`
	PValue        jsonFloat `json:"pValue"`
	Importance    jsonFloat `json:"importance,omitempty"`
}

type fitReport struct {
	RSquared         jsonFloat `json:"rSquared"`
	AdjustedRSquared jsonFloat `json:"adjustedRSquared"`
	AIC              jsonFloat `json:"aic"`
	RMSE             jsonFloat `json:"rmse"`
	MAE              jsonFloat `json:"mae"`
	MAPE             jsonFloat `json:"mape"`
}

type histogramBin struct {
	From  jsonFloat `json:"from"`
	To    jsonFloat `json:"to"`
	Count int       `json:"count"`
}

type normalityReport struct {
	JarqueBera     jsonFloat      `json:"jarqueBera"`
	PValue         jsonFloat      `json:"pValue"`
	Skewness       jsonFloat      `json:"skewness"`
	ExcessKurtosis jsonFloat      `json:"excessKurtosis"`
	Histogram      []histogramBin `json:"histogram"`
}

type heteroscedasticityReport struct {
	BreuschPagan jsonFloat `json:"breuschPagan"`
	DF           jsonFloat `json:"df"`
	PValue       jsonFloat `json:"pValue"`
}

type collinearityReport struct {
	VIF             map[string]jsonFloat `json:"vif"`
	ConditionNumber jsonFloat            `json:"conditionNumber"`
}

type moranReport struct {
	I        jsonFloat `json:"i"`
	Expected jsonFloat `json:"expected"`
	Variance jsonFloat `json:"variance"`
	ZScore   jsonFloat `json:"zScore"`
	PValue   jsonFloat `json:"pValue"`
}

type diagnosticsReport struct {
	Normality              *normalityReport          `json:"normality,omitempty"`
	Heteroscedasticity     *heteroscedasticityReport `json:"heteroscedasticity,omitempty"`
	Multicollinearity      *collinearityReport       `json:"multicollinearity,omitempty"`
	SpatialAutocorrelation *moranReport              `json:"spatialAutocorrelation,omitempty"`
}

type localReport struct {
	Lat          jsonFloat            `json:"lat"`
	Lng          jsonFloat            `json:"lng"`
	Bandwidth    jsonFloat            `json:"bandwidth"`
	RSquared     jsonFloat            `json:"rSquared"`
	Coefficients map[string]jsonFloat `json:"coefficients"`
}

type report struct {
	Method           regression.Method      `json:"method"`
	Target           string                 `json:"target"`
	Observations     int                    `json:"observations"`
	Parameters       jsonFloat              `json:"parameters"`
	Variables        []variableReport       `json:"variables"`
	Fit              fitReport              `json:"fit"`
	Quality          diagnostics.Assessment `json:"quality"`
	Ranking          []rankReport           `json:"importanceRanking"`
	Diagnostics      *diagnosticsReport     `json:"diagnostics,omitempty"`
	DefaultedRecords []int                  `json:"defaultedRecords,omitempty"`
	Local            []localReport          `json:"local,omitempty"`
	Predictions      []jsonFloat            `json:"predictions,omitempty"`
}

type rankReport struct {
	Name       string    `json:"name"`
	Importance jsonFloat `json:"importance"`
}

func newReport(m *regression.Model, withLocal bool) report {
	imp := regression.VariableImportance(m)
	r := report{
		Method:       m.Method,
		Target:       m.Target,
		Observations: m.Observations,
		Parameters:   jsonFloat(m.Parameters),
		Fit: fitReport{
			RSquared:         jsonFloat(m.RSquared),
			AdjustedRSquared: jsonFloat(m.AdjustedRSquared),
			AIC:              jsonFloat(m.AIC),
			RMSE:             jsonFloat(m.RMSE),
			MAE:              jsonFloat(m.MAE),
			MAPE:             jsonFloat(m.MAPE),
		},
		Quality:          regression.AssessQuality(m),
		DefaultedRecords: m.DefaultedRecords,
	}
	for _, name := range m.UsedVariables {
		r.Variables = append(r.Variables, variableReport{
			Name:          name,
			Coefficient:   jsonFloat(m.Coefficients[name]),
			StandardError: jsonFloat(m.StandardErrors[name]),
			TValue:        jsonFloat(m.TValues[name]),
			PValue:        jsonFloat(m.PValues[name]),
			Importance:    jsonFloat(imp[name]),
		})
	}
	for _, rv := range diagnostics.Rank(imp) {
		r.Ranking = append(r.Ranking, rankReport{Name: rv.Name, Importance: jsonFloat(rv.Importance)})
	}
	if m.Diagnostics != nil {
		r.Diagnostics = newDiagnosticsReport(m.Diagnostics)
	}
	if withLocal {
		for _, lc := range m.Local {
			lr := localReport{
				Lat:          jsonFloat(lc.Location.Lat),
				Lng:          jsonFloat(lc.Location.Lng),
				Bandwidth:    jsonFloat(lc.Bandwidth),
				RSquared:     jsonFloat(lc.RSquared),
				Coefficients: make(map[string]jsonFloat, len(lc.Coefficients)),
			}
			for k, v := range lc.Coefficients {
				lr.Coefficients[k] = jsonFloat(v)
			}
			r.Local = append(r.Local, lr)
		}
	}
	return r
}

func newDiagnosticsReport(d *regression.Diagnostics) *diagnosticsReport {
	out := &diagnosticsReport{}
	if n := d.Normality; n != nil {
		nr := &normalityReport{
			JarqueBera:     jsonFloat(n.Statistic),
			PValue:         jsonFloat(n.PValue),
			Skewness:       jsonFloat(n.Skewness),
			ExcessKurtosis: jsonFloat(n.ExcessKurtosis),
		}
		for _, b := range n.Histogram {
			nr.Histogram = append(nr.Histogram, histogramBin{From: jsonFloat(b.From), To: jsonFloat(b.To), Count: b.Count})
		}
		out.Normality = nr
	}
	if h := d.Heteroscedasticity; h != nil {
		out.Heteroscedasticity = &heteroscedasticityReport{
			BreuschPagan: jsonFloat(h.Statistic),
			DF:           jsonFloat(h.DF),
			PValue:       jsonFloat(h.PValue),
		}
	}
	if c := d.Multicollinearity; c != nil {
		cr := &collinearityReport{
			VIF:             make(map[string]jsonFloat, len(c.VIF)),
			ConditionNumber: jsonFloat(c.ConditionNumber),
		}
		for k, v := range c.VIF {
			cr.VIF[k] = jsonFloat(v)
		}
		out.Multicollinearity = cr
	}
	if s := d.SpatialAutocorrelation; s != nil {
		out.SpatialAutocorrelation = &moranReport{
			I:        jsonFloat(s.I),
			Expected: jsonFloat(s.Expected),
			Variance: jsonFloat(s.Variance),
			ZScore:   jsonFloat(s.ZScore),
			PValue:   jsonFloat(s.PValue),
		}
	}
	return out
}

func writeReport(w io.Writer, r report, compact bool) error {
	b, err := json.Marshal(r)
	if err != nil {
		return err
	}
	if compact {
		b = append(pretty.Ugly(b), '\n')
	} else {
		b = pretty.PrettyOptions(b, &pretty.Options{Width: 100, Indent: "  ", SortKeys: false})
	}
	_, err = w.Write(b)
	return err
}
