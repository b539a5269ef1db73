package diagnostics

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

type Quality int

const (
	QUALITY_EXCELLENT Quality = iota
	QUALITY_GOOD
	QUALITY_FAIR
	QUALITY_POOR
	QUALITY_VERY_POOR
)

func (q Quality) String() string {
	switch q {
	case QUALITY_EXCELLENT:
		return "excellent"
	case QUALITY_GOOD:
		return "good"
	case QUALITY_FAIR:
		return "fair"
	case QUALITY_POOR:
		return "poor"
	default:
		return "very poor"
	}
}

func (q Quality) MarshalText() ([]byte, error) { return []byte(q.String()), nil }

// 显著性水平
const significance = 0.05

// QualityInput is what Classify reads from a fitted model. The diagnostic
// pointers are optional.
type QualityInput struct {
	RSquared    float64
	AdjRSquared float64
	MAPE        float64 // NaN when no actual was non-zero
	// PValues of the non-intercept variables.
	PValues map[string]float64

	Spatial            *MoranResult
	Normality          *NormalityResult
	Heteroscedasticity *HeteroscedasticityResult
	Collinearity       *CollinearityResult
}

type Assessment struct {
	Quality    Quality  `json:"quality"`
	Strengths  []string `json:"strengths"`
	Weaknesses []string `json:"weaknesses"`
}

// Classify buckets R² and MAPE and lists readable strengths and weaknesses.
// A NaN MAPE leaves the bucket to R² alone.
func Classify(in QualityInput) Assessment {
	a := Assessment{
		Quality:    bucket(in.RSquared, in.MAPE),
		Strengths:  []string{},
		Weaknesses: []string{},
	}
	strength := func(format string, args ...any) { a.Strengths = append(a.Strengths, fmt.Sprintf(format, args...)) }
	weakness := func(format string, args ...any) { a.Weaknesses = append(a.Weaknesses, fmt.Sprintf(format, args...)) }

	switch {
	case in.RSquared > 0.7:
		strength("high explanatory power (R² = %.3f)", in.RSquared)
	case in.RSquared < 0.4:
		weakness("low explanatory power (R² = %.3f)", in.RSquared)
	}
	if in.RSquared-in.AdjRSquared > 0.1 {
		weakness("adjusted R² (%.3f) well below R², the model may carry too many variables", in.AdjRSquared)
	}

	switch {
	case math.IsNaN(in.MAPE):
		weakness("MAPE undefined: every actual value is zero")
	case in.MAPE < 15:
		strength("accurate predictions (MAPE = %.1f%%)", in.MAPE)
	case in.MAPE > 25:
		weakness("large prediction errors (MAPE = %.1f%%)", in.MAPE)
	}

	var insignificant []string
	for name, p := range in.PValues {
		if !(p < significance) {
			insignificant = append(insignificant, name)
		}
	}
	if len(in.PValues) > 0 {
		if len(insignificant) == 0 {
			strength("all variables significant at the 5%% level")
		} else {
			slices.Sort(insignificant)
			weakness("not significant at the 5%% level: %s", strings.Join(insignificant, ", "))
		}
	}

	if s := in.Spatial; s != nil {
		if s.PValue < significance && s.I > s.Expected {
			weakness("residuals are spatially clustered (Moran's I = %.3f, p = %.3f)", s.I, s.PValue)
		} else {
			strength("no significant spatial autocorrelation in residuals (Moran's I = %.3f)", s.I)
		}
	}
	if nr := in.Normality; nr != nil {
		if nr.PValue < significance {
			weakness("residuals are not normally distributed (Jarque-Bera p = %.3f)", nr.PValue)
		} else {
			strength("residuals are consistent with normality")
		}
	}
	if h := in.Heteroscedasticity; h != nil {
		if h.PValue < significance {
			weakness("residual variance is not constant (Breusch-Pagan p = %.3f)", h.PValue)
		} else {
			strength("residual variance looks constant")
		}
	}
	if c := in.Collinearity; c != nil {
		if v := c.MaxVIF(); v > 10 {
			weakness("strong multicollinearity (max VIF = %.1f)", v)
		} else if len(c.VIF) > 1 {
			strength("low multicollinearity (max VIF = %.1f)", v)
		}
	}
	return a
}

func bucket(r2, mape float64) Quality {
	ok := func(limit float64) bool { return math.IsNaN(mape) || mape < limit }
	switch {
	case r2 > 0.8 && ok(10):
		return QUALITY_EXCELLENT
	case r2 > 0.6 && ok(20):
		return QUALITY_GOOD
	case r2 > 0.4 && ok(30):
		return QUALITY_FAIR
	case r2 > 0.2:
		return QUALITY_POOR
	default:
		return QUALITY_VERY_POOR
	}
}
