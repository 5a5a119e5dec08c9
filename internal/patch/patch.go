// Package patch provides field types for partial updates decoded from JSON.
package patch

import (
	"encoding/json"
	"fmt"
	"time"
)

// Field records whether a JSON key was present. A present key with a null
// value has Set true and Value nil.
type Field[T any] struct {
	Set   bool
	Value *T
}

// Some returns a present field holding v.
func Some[T any](v T) Field[T] {
	return Field[T]{Set: true, Value: &v}
}

// Null returns a present field holding null.
func Null[T any]() Field[T] {
	return Field[T]{Set: true}
}

func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Set = true
	if string(data) == "null" {
		f.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	f.Value = &v
	return nil
}

// IsNull reports whether the key was present with a null value.
func (f Field[T]) IsNull() bool {
	return f.Set && f.Value == nil
}

const dateLayout = "2006-01-02"

// Date accepts either YYYY-MM-DD or RFC 3339 timestamps.
type Date struct {
	time.Time
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		d.Time = t
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("invalid date %q: expected YYYY-MM-DD or RFC 3339", s)
	}
	d.Time = t
	return nil
}

// TimePtr converts an optional date into an optional time.
func (d *Date) TimePtr() *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}

// DateField converts a date field into a time field.
func DateField(f Field[Date]) Field[time.Time] {
	if f.Value == nil {
		return Field[time.Time]{Set: f.Set}
	}
	return Some(f.Value.Time)
}
