package dataset

import (
	"spatialregr/infra/errorx"
	"spatialregr/infra/errorx/errCode"
	"spatialregr/spatial/weights"
)

// NumberAccessor reads one numeric field; ok is false when the field is
// missing or not numeric.
type NumberAccessor func(r Record) (v float64, ok bool)

// PointAccessor reads a coordinate pair.
type PointAccessor func(r Record) (p weights.Point, ok bool)

// FieldRegistry maps every field name of one extraction to its accessor. It
// is built once per call so a misspelt name fails before any row is read.
type FieldRegistry struct {
	numbers map[string]NumberAccessor
}

// NewFieldRegistry validates names against records: a name must be
// non-empty, unique, and present in at least one record.
func NewFieldRegistry(records []Record, names []string) (*FieldRegistry, error) {
	reg := &FieldRegistry{numbers: make(map[string]NumberAccessor, len(names))}
	for _, name := range names {
		if name == "" {
			return nil, errorx.New(errCode.INVALID_VALUE, "empty field name")
		}
		if _, dup := reg.numbers[name]; dup {
			return nil, errorx.Newf(errCode.INVALID_VALUE, "field %q listed twice", name)
		}
		if err := requirePresent(records, name); err != nil {
			return nil, err
		}
		reg.numbers[name] = numberField(name)
	}
	return reg, nil
}

// Number returns the accessor registered for name.
func (r *FieldRegistry) Number(name string) (NumberAccessor, error) {
	acc, ok := r.numbers[name]
	if !ok {
		return nil, errorx.Newf(errCode.INVALID_VALUE, "field %q is not registered", name)
	}
	return acc, nil
}

func numberField(name string) NumberAccessor {
	return func(r Record) (float64, bool) {
		v, ok := r.Field(name)
		if !ok {
			return 0, false
		}
		return ToFloat(v)
	}
}

// LocationSpec names where a record keeps its coordinates: either one field
// holding a pair, or separate latitude/longitude fields.
type LocationSpec struct {
	Field    string
	LatField string
	LngField string
}

func (l LocationSpec) Enabled() bool {
	return l.Field != "" || (l.LatField != "" && l.LngField != "")
}

// PointField builds the coordinate accessor after checking the fields exist.
func (l LocationSpec) PointField(records []Record) (PointAccessor, error) {
	if l.LatField != "" && l.LngField != "" {
		if err := requirePresent(records, l.LatField); err != nil {
			return nil, err
		}
		if err := requirePresent(records, l.LngField); err != nil {
			return nil, err
		}
		lat, lng := numberField(l.LatField), numberField(l.LngField)
		return func(r Record) (weights.Point, bool) {
			la, ok1 := lat(r)
			ln, ok2 := lng(r)
			return weights.Point{Lat: la, Lng: ln}, ok1 && ok2
		}, nil
	}
	if l.Field == "" {
		return nil, errorx.New(errCode.INVALID_VALUE, "no location field configured")
	}
	if err := requirePresent(records, l.Field); err != nil {
		return nil, err
	}
	name := l.Field
	return func(r Record) (weights.Point, bool) {
		v, ok := r.Field(name)
		if !ok {
			return weights.Point{}, false
		}
		return ToPoint(v)
	}, nil
}

func requirePresent(records []Record, name string) error {
	for _, rec := range records {
		if _, ok := rec.Field(name); ok {
			return nil
		}
	}
	return errorx.Newf(errCode.INVALID_VALUE, "field %q not found in any record", name)
}
