package diagnostics

import (
	"cmp"
	"math"
	"slices"
)

// Importance normalises |t| of every name in names to sum 1. Names without a
// finite t value count as 0; when all are 0 each name gets 1/len(names).
func Importance(names []string, tValues map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(names))
	if len(names) == 0 {
		return out
	}
	var sum float64
	for _, name := range names {
		t := math.Abs(tValues[name])
		if math.IsNaN(t) || math.IsInf(t, 0) {
			t = 0
		}
		out[name] = t
		sum += t
	}
	for name, v := range out {
		if sum > 0 {
			out[name] = v / sum
		} else {
			out[name] = 1 / float64(len(names))
		}
	}
	return out
}

type RankedVariable struct {
	Name       string  `json:"name"`
	Importance float64 `json:"importance"`
}

// Rank orders an importance map by decreasing importance, ties by name.
func Rank(importance map[string]float64) []RankedVariable {
	out := make([]RankedVariable, 0, len(importance))
	for name, v := range importance {
		out = append(out, RankedVariable{Name: name, Importance: v})
	}
	slices.SortFunc(out, func(a, b RankedVariable) int {
		if c := cmp.Compare(b.Importance, a.Importance); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return out
}
