// Package dataset turns records into the numeric design matrix, response
// vector and coordinates the estimators consume.
//
// Records belong to an external store; the engine only reads fields by name
// through the Record interface.
package dataset

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"spatialregr/spatial/weights"
)

// Record exposes named fields. Values may be any Go number, a numeric
// string, a decimal.Decimal, a gjson.Result or a coordinate pair.
type Record interface {
	Field(name string) (any, bool)
}

// MapRecord is the plain in-memory Record.
type MapRecord map[string]any

func (r MapRecord) Field(name string) (any, bool) {
	v, ok := r[name]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// ToFloat reads v as a finite number. Strings go through decimal parsing so
// "1.5e3" and " 42 " both work.
func ToFloat(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int8:
		f = float64(x)
	case int16:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case uint:
		f = float64(x)
	case uint8:
		f = float64(x)
	case uint16:
		f = float64(x)
	case uint32:
		f = float64(x)
	case uint64:
		f = float64(x)
	case decimal.Decimal:
		f = x.InexactFloat64()
	case *decimal.Decimal:
		if x == nil {
			return 0, false
		}
		f = x.InexactFloat64()
	case string:
		return parseNumeric(x)
	case gjson.Result:
		switch x.Type {
		case gjson.Number:
			f = x.Float()
		case gjson.String:
			return parseNumeric(x.Str)
		default:
			return 0, false
		}
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func parseNumeric(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, false
	}
	return d.InexactFloat64(), true
}

// ToPoint reads v as a coordinate pair. Sequences are [lat, lng]; objects
// use lat/lng, latitude/longitude or lat/lon keys; strings are "lat,lng".
func ToPoint(v any) (weights.Point, bool) {
	switch x := v.(type) {
	case weights.Point:
		return x, true
	case *weights.Point:
		if x == nil {
			return weights.Point{}, false
		}
		return *x, true
	case [2]float64:
		return pointOf(x[0], x[1])
	case []float64:
		if len(x) < 2 {
			return weights.Point{}, false
		}
		return pointOf(x[0], x[1])
	case []any:
		if len(x) < 2 {
			return weights.Point{}, false
		}
		return pointFromValues(x[0], x[1])
	case map[string]any:
		lat, okLat := firstKey(x, "lat", "latitude")
		lng, okLng := firstKey(x, "lng", "lon", "longitude")
		if !okLat || !okLng {
			return weights.Point{}, false
		}
		return pointFromValues(lat, lng)
	case MapRecord:
		return ToPoint(map[string]any(x))
	case string:
		parts := strings.Split(x, ",")
		if len(parts) != 2 {
			return weights.Point{}, false
		}
		return pointFromValues(parts[0], parts[1])
	case gjson.Result:
		switch {
		case x.IsArray():
			arr := x.Array()
			if len(arr) < 2 {
				return weights.Point{}, false
			}
			return pointFromValues(arr[0], arr[1])
		case x.IsObject():
			lat := firstExisting(x, "lat", "latitude")
			lng := firstExisting(x, "lng", "lon", "longitude")
			if !lat.Exists() || !lng.Exists() {
				return weights.Point{}, false
			}
			return pointFromValues(lat, lng)
		case x.Type == gjson.String:
			return ToPoint(x.Str)
		}
	}
	return weights.Point{}, false
}

func pointOf(lat, lng float64) (weights.Point, bool) {
	p := weights.Point{Lat: lat, Lng: lng}
	if math.IsNaN(lat) || math.IsNaN(lng) || math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return p, false
	}
	return p, true
}

func pointFromValues(lat, lng any) (weights.Point, bool) {
	la, ok := ToFloat(lat)
	if !ok {
		return weights.Point{}, false
	}
	ln, ok := ToFloat(lng)
	if !ok {
		return weights.Point{}, false
	}
	return weights.Point{Lat: la, Lng: ln}, true
}

func firstKey(m map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func firstExisting(r gjson.Result, keys ...string) gjson.Result {
	for _, k := range keys {
		if v := r.Get(k); v.Exists() {
			return v
		}
	}
	return gjson.Result{}
}
