// Package valueobject holds small value types shared by repositories.
package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// ErrScanJSONMap is returned when a column cannot be read as a JSON object.
var ErrScanJSONMap = errors.New("valueobject: unsupported jsonb scan source")

// JSONMap is a JSON object column. A nil map is stored as "{}".
// @swaggertype object
type JSONMap map[string]any

// Value implements driver.Valuer.
func (j JSONMap) Value() (driver.Value, error) {
	if j == nil {
		return "{}", nil
	}
	b, err := json.Marshal(map[string]any(j))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (j *JSONMap) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*j = JSONMap{}
		return nil
	case map[string]any:
		*j = JSONMap(v)
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return ErrScanJSONMap
	}

	out := JSONMap{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return err
	}
	*j = out
	return nil
}

