package dataset

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"spatialregr/infra/errorx"
	"spatialregr/spatial/weights"
)

func TestToFloat(t *testing.T) {
	cases := []struct {
		in   any
		want float64
		ok   bool
	}{
		{3, 3, true},
		{int64(-7), -7, true},
		{uint8(200), 200, true},
		{float32(1.5), 1.5, true},
		{"12.5", 12.5, true},
		{" 3e2 ", 300, true},
		{decimal.RequireFromString("199999.99"), 199999.99, true},
		{gjson.Parse(`42`), 42, true},
		{gjson.Parse(`"7.25"`), 7.25, true},
		{"abc", 0, false},
		{"", 0, false},
		{true, 0, false},
		{math.NaN(), 0, false},
		{math.Inf(1), 0, false},
		{nil, 0, false},
		{gjson.Parse(`[1,2]`), 0, false},
	}
	for _, c := range cases {
		got, ok := ToFloat(c.in)
		assert.Equal(t, c.ok, ok, "%#v", c.in)
		if c.ok {
			assert.InDelta(t, c.want, got, 1e-9, "%#v", c.in)
		}
	}
}

func TestToPoint(t *testing.T) {
	want := weights.Point{Lat: 40.7, Lng: -74.0}
	inputs := []any{
		want,
		&want,
		[2]float64{40.7, -74.0},
		[]float64{40.7, -74.0},
		[]any{"40.7", -74.0},
		map[string]any{"lat": 40.7, "lng": -74.0},
		map[string]any{"latitude": 40.7, "longitude": "-74.0"},
		MapRecord{"lat": 40.7, "lon": -74.0},
		"40.7,-74.0",
		gjson.Parse(`[40.7, -74.0]`),
		gjson.Parse(`{"lat": 40.7, "lng": -74.0}`),
	}
	for _, in := range inputs {
		got, ok := ToPoint(in)
		require.True(t, ok, "%#v", in)
		assert.InDelta(t, want.Lat, got.Lat, 1e-12)
		assert.InDelta(t, want.Lng, got.Lng, 1e-12)
	}

	for _, in := range []any{[]float64{1}, "1;2", map[string]any{"lat": 1}, 5, gjson.Parse(`{"x":1}`)} {
		_, ok := ToPoint(in)
		assert.False(t, ok, "%#v", in)
	}
}

func TestTransforms(t *testing.T) {
	assert.InDelta(t, math.Log(10), TRANSFORM_LOG.Apply(10), 1e-15)
	assert.InDelta(t, math.Log(1e-4), TRANSFORM_LOG.Apply(0), 1e-15)
	assert.InDelta(t, math.Log(1e-4), TRANSFORM_LOG.Apply(-5), 1e-15)
	assert.Equal(t, 3.0, TRANSFORM_SQRT.Apply(9))
	assert.Equal(t, 0.0, TRANSFORM_SQRT.Apply(-9))
	assert.Equal(t, 16.0, TRANSFORM_SQUARE.Apply(-4))
	assert.Equal(t, 0.25, TRANSFORM_INVERSE.Apply(4))
	assert.InDelta(t, 1e4, TRANSFORM_INVERSE.Apply(0), 1e-6)
	assert.InDelta(t, -1e4, TRANSFORM_INVERSE.Apply(-1e-6), 1e-6)
	assert.Equal(t, 5.5, TRANSFORM_NONE.Apply(5.5))

	assert.Equal(t, TRANSFORM_NONE, GetTransform(""))
	assert.Equal(t, TRANSFORM_INVERSE, GetTransform("Inverse"))
	assert.Equal(t, TRANSFORM_ERROR, GetTransform("cube"))
}

func houses() []Record {
	return []Record{
		MapRecord{"price": 100.0, "sqft": 1000, "age": "10", "loc": []float64{1, 2}},
		MapRecord{"price": "150", "sqft": 1500.0, "age": 5, "loc": []float64{1.5, 2.5}},
		MapRecord{"price": 120, "sqft": 1100, "age": 20.0, "loc": []float64{2, 3}},
	}
}

func TestExtract(t *testing.T) {
	ex, err := Extract(houses(), ExtractSpec{
		Target:     "price",
		Predictors: []string{"sqft", "age"},
		Transforms: map[string]Transform{"price": TRANSFORM_LOG},
		Location:   LocationSpec{Field: "loc"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"sqft", "age"}, ex.Columns)
	assert.Equal(t, [][]float64{{1000, 10}, {1500, 5}, {1100, 20}}, ex.X)
	assert.InDeltaSlice(t, []float64{math.Log(100), math.Log(150), math.Log(120)}, ex.Y, 1e-12)
	assert.Equal(t, weights.Point{Lat: 1.5, Lng: 2.5}, ex.Points[1])
	assert.Equal(t, uint(0), ex.Defaulted.Count())
}

func TestExtractExpansion(t *testing.T) {
	spec := ExtractSpec{
		Target:       "price",
		Predictors:   []string{"sqft", "age"},
		Degree:       3,
		Interactions: true,
	}
	assert.Equal(t, []string{"sqft", "age", "sqft^2", "sqft^3", "age^2", "age^3", "sqft*age"}, spec.Columns())

	ex, err := Extract(houses()[:1], spec)
	require.NoError(t, err)
	assert.Equal(t, []float64{1000, 10, 1e6, 1e9, 100, 1000, 10000}, ex.X[0])
}

func TestExtractStrictFailsOnMissingValue(t *testing.T) {
	recs := houses()
	recs[2] = MapRecord{"price": 120, "sqft": "n/a", "age": 3}
	_, err := Extract(recs, ExtractSpec{Target: "price", Predictors: []string{"sqft", "age"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errorx.ErrInvalidArgument))
	assert.Contains(t, err.Error(), `record 2, field "sqft"`)
}

func TestExtractLenientDefaultsToZero(t *testing.T) {
	recs := houses()
	recs[1] = MapRecord{"price": 150, "age": "old"}
	ex, err := Extract(recs, ExtractSpec{Target: "price", Predictors: []string{"sqft", "age"}, Lenient: true})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, ex.X[1])
	assert.True(t, ex.Defaulted.Test(1))
	assert.False(t, ex.Defaulted.Test(0))
	assert.Equal(t, uint(1), ex.Defaulted.Count())
}

func TestExtractMisconfiguredFieldFailsFast(t *testing.T) {
	for _, lenient := range []bool{false, true} {
		_, err := Extract(houses(), ExtractSpec{Target: "price", Predictors: []string{"sqft", "bedrooms"}, Lenient: lenient})
		require.Error(t, err)
		assert.True(t, errors.Is(err, errorx.ErrInvalidArgument))
		assert.Contains(t, err.Error(), "bedrooms")
	}
}

func TestExtractValidation(t *testing.T) {
	cases := []struct {
		recs []Record
		spec ExtractSpec
	}{
		{nil, ExtractSpec{Target: "price", Predictors: []string{"sqft"}}},
		{houses(), ExtractSpec{Target: "price"}},
		{houses(), ExtractSpec{Target: "price", Predictors: []string{"sqft", "sqft"}}},
		{houses(), ExtractSpec{Target: "price", Predictors: []string{"price"}}},
		{houses(), ExtractSpec{Target: "price", Predictors: []string{"intercept"}}},
		{houses(), ExtractSpec{Target: "price", Predictors: []string{"sqft"}, Degree: -1}},
		{houses(), ExtractSpec{Target: "price", Predictors: []string{"sqft"}, Transforms: map[string]Transform{"sqft": TRANSFORM_ERROR}}},
	}
	for i, c := range cases {
		_, err := Extract(c.recs, c.spec)
		assert.True(t, errors.Is(err, errorx.ErrInvalidArgument), "case %d: %v", i, err)
	}
}

func TestExtractWithoutTarget(t *testing.T) {
	ex, err := Extract(houses(), ExtractSpec{Predictors: []string{"sqft"}})
	require.NoError(t, err)
	assert.Nil(t, ex.Y)
	assert.Len(t, ex.X, 3)
}

func TestExtractSeparateLatLng(t *testing.T) {
	recs := []Record{
		MapRecord{"v": 1, "x": 2, "la": 10, "lo": 20},
		MapRecord{"v": 2, "x": 3, "la": 11, "lo": 21},
	}
	ex, err := Extract(recs, ExtractSpec{Target: "v", Predictors: []string{"x"}, Location: LocationSpec{LatField: "la", LngField: "lo"}})
	require.NoError(t, err)
	assert.Equal(t, []weights.Point{{Lat: 10, Lng: 20}, {Lat: 11, Lng: 21}}, ex.Points)
}

const recordsJSON = `{"records": [
  {"price": 100, "sqft": "1000", "addr": {"pos": {"lat": 1, "lng": 2}}},
  {"price": 150.5, "sqft": 1500, "addr": {"pos": [1.5, 2.5]}}
]}`

func TestLoadJSONRecords(t *testing.T) {
	recs, err := LoadJSONRecords([]byte(recordsJSON))
	require.NoError(t, err)
	require.Len(t, recs, 2)

	ex, err := Extract(recs, ExtractSpec{Target: "price", Predictors: []string{"sqft"}, Location: LocationSpec{Field: "addr.pos"}})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1000}, {1500}}, ex.X)
	assert.Equal(t, []float64{100, 150.5}, ex.Y)
	assert.Equal(t, []weights.Point{{Lat: 1, Lng: 2}, {Lat: 1.5, Lng: 2.5}}, ex.Points)

	recs, err = LoadJSONRecords([]byte(`[{"a": 1}, {"a": null}]`))
	require.NoError(t, err)
	_, ok := recs[1].Field("a")
	assert.False(t, ok, "null counts as missing")

	for _, bad := range []string{`{"records": 3}`, `[1, 2]`, `{not json`, `"x"`} {
		_, err := LoadJSONRecords([]byte(bad))
		assert.True(t, errors.Is(err, errorx.ErrInvalidArgument), bad)
	}
}

func TestReadJSONRecordsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recs.json")
	require.NoError(t, os.WriteFile(path, []byte(recordsJSON), 0o600))
	recs, err := ReadJSONRecordsFile(path)
	require.NoError(t, err)
	assert.Len(t, recs, 2)

	_, err = ReadJSONRecordsFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
