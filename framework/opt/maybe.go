// Package opt provides an optional value type.
package opt

import (
	"encoding/json"
	"fmt"
)

// Maybe holds either a value of type V or nothing. The zero value is None.
//
// Generated payloads use it for fields that a scenario may leave out entirely, which is
// different from sending the zero value.
type Maybe[V any] struct {
	defined bool
	value   V
}

func Some[V any](value V) Maybe[V] {
	return Maybe[V]{defined: true, value: value}
}

func None[V any]() Maybe[V] { return Maybe[V]{} }

// FromPtr is Some(*ptr), or None if ptr is nil.
func FromPtr[V any](ptr *V) Maybe[V] {
	if ptr == nil {
		return None[V]()
	}
	return Some(*ptr)
}

// FromOK is Some(value) if ok is true, or None otherwise; it fits the two-value form of a
// map lookup or type assertion.
func FromOK[V any](value V, ok bool) Maybe[V] {
	if !ok {
		return None[V]()
	}
	return Some(value)
}

func (m Maybe[V]) IsDefined() bool { return m.defined }

// Value returns the value, or the zero value of V if there is none.
func (m Maybe[V]) Value() V { return m.value }

func (m Maybe[V]) AsPtr() *V {
	if !m.defined {
		return nil
	}
	v := m.value
	return &v
}

func (m Maybe[V]) OrElse(valueIfUndefined V) V {
	if m.defined {
		return m.value
	}
	return valueIfUndefined
}

// String uses the value's own String method if it has one, or "%v" formatting. An undefined
// Maybe is shown as "[none]".
func (m Maybe[V]) String() string {
	if !m.defined {
		return "[none]"
	}
	if s, ok := any(m.value).(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%v", m.value)
}

// MarshalJSON writes null for None. Combine with "omitempty" on a pointer field, or with
// IsDefined checks, if the property should be left out instead.
func (m Maybe[V]) MarshalJSON() ([]byte, error) {
	if !m.defined {
		return []byte("null"), nil
	}
	return json.Marshal(m.value)
}

func (m *Maybe[V]) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*m = None[V]()
		return nil
	}
	var value V
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	*m = Some(value)
	return nil
}
