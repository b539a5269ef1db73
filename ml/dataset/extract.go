package dataset

import (
	"fmt"
	"strconv"

	"github.com/bits-and-blooms/bitset"

	"spatialregr/infra/errorx"
	"spatialregr/infra/errorx/errCode"
	"spatialregr/infra/observe/log/staticLog"
	"spatialregr/spatial/weights"
)

// InterceptName is reserved for the column the estimators prepend.
const InterceptName = "intercept"

type ExtractSpec struct {
	// Target may be empty when only predictors are needed (scoring).
	Target     string
	Predictors []string
	Transforms map[string]Transform
	// Degree ≥ 2 appends name^2 .. name^Degree for every predictor.
	Degree int
	// Interactions appends the pairwise products a*b.
	Interactions bool
	Location     LocationSpec
	// Lenient turns missing or non-numeric values into 0 instead of failing.
	Lenient bool
}

// Extraction is row-aligned with the input records; no row is dropped.
type Extraction struct {
	X       [][]float64
	Y       []float64
	Columns []string
	Points  []weights.Point
	// Defaulted marks rows where at least one value fell back to 0.
	Defaulted *bitset.BitSet
}

// Columns lists the design columns produced by spec, in order: raw
// predictors, powers, interactions.
func (s ExtractSpec) Columns() []string {
	cols := append([]string(nil), s.Predictors...)
	if s.Degree >= 2 {
		for _, name := range s.Predictors {
			for pw := 2; pw <= s.Degree; pw++ {
				cols = append(cols, name+"^"+strconv.Itoa(pw))
			}
		}
	}
	if s.Interactions {
		for i := 0; i < len(s.Predictors); i++ {
			for j := i + 1; j < len(s.Predictors); j++ {
				cols = append(cols, s.Predictors[i]+"*"+s.Predictors[j])
			}
		}
	}
	return cols
}

func (s ExtractSpec) validate(records []Record) error {
	if len(records) == 0 {
		return errorx.New(errCode.EMPTY_VALUE, "no records")
	}
	if len(s.Predictors) == 0 {
		return errorx.New(errCode.EMPTY_VALUE, "predictor list is empty")
	}
	if s.Degree < 0 {
		return errorx.Newf(errCode.INVALID_VALUE, "polynomial degree must be >= 0, got %d", s.Degree)
	}
	for _, name := range s.Predictors {
		if name == InterceptName {
			return errorx.Newf(errCode.INVALID_VALUE, "%q is reserved", InterceptName)
		}
		if name == s.Target {
			return errorx.Newf(errCode.INVALID_VALUE, "field %q is both target and predictor", name)
		}
	}
	for name, t := range s.Transforms {
		if t < TRANSFORM_NONE || t >= TRANSFORM_ERROR {
			return errorx.Newf(errCode.INVALID_VALUE, "unknown transform for field %q", name)
		}
	}
	return nil
}

// Extract builds (X, y) and, when Location is set, the coordinates.
func Extract(records []Record, spec ExtractSpec) (Extraction, error) {
	if err := spec.validate(records); err != nil {
		return Extraction{}, err
	}

	names := append([]string(nil), spec.Predictors...)
	if spec.Target != "" {
		names = append(names, spec.Target)
	}
	reg, err := NewFieldRegistry(records, names)
	if err != nil {
		return Extraction{}, err
	}
	var loc PointAccessor
	if spec.Location.Enabled() {
		if loc, err = spec.Location.PointField(records); err != nil {
			return Extraction{}, err
		}
	}

	p := len(spec.Predictors)
	accs := make([]NumberAccessor, p)
	for j, name := range spec.Predictors {
		accs[j], _ = reg.Number(name)
	}

	n := len(records)
	out := Extraction{
		X:         make([][]float64, n),
		Columns:   spec.Columns(),
		Defaulted: bitset.New(uint(n)),
	}
	var target NumberAccessor
	if spec.Target != "" {
		target, _ = reg.Number(spec.Target)
		out.Y = make([]float64, n)
	}
	if loc != nil {
		out.Points = make([]weights.Point, n)
	}

	missing := func(i int, field string) error {
		if !spec.Lenient {
			return errorx.New(errCode.INVALID_VALUE, "missing or non-numeric value",
				fmt.Sprintf("record %d, field %q", i, field))
		}
		out.Defaulted.Set(uint(i))
		return nil
	}

	for i, rec := range records {
		raw := make([]float64, p)
		for j, acc := range accs {
			v, ok := acc(rec)
			if !ok {
				if err := missing(i, spec.Predictors[j]); err != nil {
					return Extraction{}, err
				}
				v = 0
			}
			raw[j] = spec.Transforms[spec.Predictors[j]].Apply(v)
		}
		out.X[i] = expandRow(raw, spec.Degree, spec.Interactions)

		if target != nil {
			v, ok := target(rec)
			if !ok {
				if err := missing(i, spec.Target); err != nil {
					return Extraction{}, err
				}
				v = 0
			}
			out.Y[i] = spec.Transforms[spec.Target].Apply(v)
		}

		if loc != nil {
			pt, ok := loc(rec)
			if !ok {
				if err := missing(i, "location"); err != nil {
					return Extraction{}, err
				}
				pt = weights.Point{}
			}
			out.Points[i] = pt
		}
	}

	if c := out.Defaulted.Count(); c > 0 {
		staticLog.Log.Warnf("dataset: %d of %d records had missing or non-numeric values, defaulted to 0", c, n)
	}
	return out, nil
}

func expandRow(raw []float64, degree int, interactions bool) []float64 {
	row := append([]float64(nil), raw...)
	if degree >= 2 {
		for _, v := range raw {
			pw := v
			for d := 2; d <= degree; d++ {
				pw *= v
				row = append(row, pw)
			}
		}
	}
	if interactions {
		for i := 0; i < len(raw); i++ {
			for j := i + 1; j < len(raw); j++ {
				row = append(row, raw[i]*raw[j])
			}
		}
	}
	return row
}
