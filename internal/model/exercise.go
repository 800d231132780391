package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Exercise is one entry of the exercise catalog.
type Exercise struct {
	ID           int64      `json:"id"           db:"id"`
	Name         string     `json:"name"         db:"name"`
	Target       string     `json:"target"       db:"target"`
	Secondary    StringList `json:"secondary"    db:"secondary"`
	GIF          string     `json:"gif"          db:"gif"`
	Instructions StringList `json:"instructions" db:"instructions"`
}

// StringList is an ordered list of strings stored as a JSON array in a TEXT
// column. Using JSON text keeps the schema identical on SQLite and Postgres.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, fmt.Errorf("model: encoding string list: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = StringList{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("model: cannot scan %T into StringList", src)
	}

	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("model: decoding string list: %w", err)
	}
	if out == nil {
		out = []string{}
	}
	*l = out
	return nil
}
