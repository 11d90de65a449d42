package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"study-mitra/internal/domain"
)

// StringSlice is stored as a JSONB array.
type StringSlice []string

// Value implements the driver.Valuer interface
func (s StringSlice) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(s))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface
func (s *StringSlice) Scan(value interface{}) error {
	b, err := jsonBytes(value)
	if err != nil {
		return fmt.Errorf("StringSlice Scan: %w", err)
	}
	if len(b) == 0 || string(b) == "null" {
		*s = StringSlice{}
		return nil
	}
	return json.Unmarshal(b, (*[]string)(s))
}

// QuestionList is the ordered questions column, stored as JSONB.
type QuestionList []domain.Question

// Value implements the driver.Valuer interface
func (q QuestionList) Value() (driver.Value, error) {
	if q == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]domain.Question(q))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface
func (q *QuestionList) Scan(value interface{}) error {
	b, err := jsonBytes(value)
	if err != nil {
		return fmt.Errorf("QuestionList Scan: %w", err)
	}
	if len(b) == 0 || string(b) == "null" {
		*q = QuestionList{}
		return nil
	}
	return json.Unmarshal(b, (*[]domain.Question)(q))
}

func jsonBytes(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported type %T", value)
	}
}
