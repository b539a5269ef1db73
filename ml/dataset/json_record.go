package dataset

import (
	"fmt"
	"os"

	"github.com/tidwall/gjson"

	"spatialregr/infra/errorx"
	"spatialregr/infra/errorx/errCode"
)

// JSONRecord is a Record over one JSON object. Field names are gjson paths,
// so nested values such as "address.location" resolve directly.
type JSONRecord struct {
	gjson.Result
}

func (r JSONRecord) Field(name string) (any, bool) {
	v := r.Get(name)
	if !v.Exists() || v.Type == gjson.Null {
		return nil, false
	}
	return v, true
}

// LoadJSONRecords parses a JSON array of objects, or an object holding that
// array under "records".
func LoadJSONRecords(data []byte) ([]Record, error) {
	if !gjson.ValidBytes(data) {
		return nil, errorx.New(errCode.INVALID_VALUE, "records are not valid JSON")
	}
	root := gjson.ParseBytes(data)
	if root.IsObject() {
		root = root.Get("records")
	}
	if !root.IsArray() {
		return nil, errorx.New(errCode.INVALID_VALUE, "records must be a JSON array or an object with a \"records\" array")
	}

	items := root.Array()
	out := make([]Record, 0, len(items))
	for i, item := range items {
		if !item.IsObject() {
			return nil, errorx.Newf(errCode.INVALID_VALUE, "record %d is not a JSON object", i)
		}
		out = append(out, JSONRecord{Result: item})
	}
	return out, nil
}

// ReadJSONRecordsFile is LoadJSONRecords over a file.
func ReadJSONRecordsFile(path string) ([]Record, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}
	recs, err := LoadJSONRecords(b)
	if err != nil {
		return nil, fmt.Errorf("parse records %s: %w", path, err)
	}
	return recs, nil
}
