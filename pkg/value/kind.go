// Package value classifies arbitrary case values and renders them as text.
//
// Case values are plain Go values. They are sorted into one of four kinds:
//   - KindNull: nil, nil pointers and nil interfaces
//   - KindScalar: strings, numbers, booleans, byte slices, and anything
//     implementing fmt.Stringer or error
//   - KindSequence: slices and arrays
//   - KindRecord: maps and structs
package value

import (
	"fmt"
	"reflect"
)

// Kind is the structural category of a case value.
type Kind int

const (
	KindNull Kind = iota
	KindScalar
	KindSequence
	KindRecord
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindScalar:
		return "scalar"
	case KindSequence:
		return "sequence"
	case KindRecord:
		return "record"
	default:
		return "unknown"
	}
}

// KindOf reports the kind of v.
func KindOf(v any) Kind {
	rv, ok := indirect(v)
	if !ok {
		return KindNull
	}
	if isTextual(v) || isTextual(rv.Interface()) {
		return KindScalar
	}

	switch rv.Kind() {
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return KindScalar
		}
		return KindSequence
	case reflect.Array:
		return KindSequence
	case reflect.Map, reflect.Struct:
		return KindRecord
	default:
		return KindScalar
	}
}

// Elements returns the elements of a sequence in order.
// It returns nil for any other kind.
func Elements(v any) []any {
	if KindOf(v) != KindSequence {
		return nil
	}
	rv, _ := indirect(v)
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

func isTextual(v any) bool {
	switch v.(type) {
	case fmt.Stringer, error:
		return true
	default:
		return false
	}
}

// indirect dereferences pointers and interfaces. It returns false when v is
// nil at any level.
func indirect(v any) (reflect.Value, bool) {
	if v == nil {
		return reflect.Value{}, false
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return reflect.Value{}, false
		}
		rv = rv.Elem()
	}
	return rv, true
}
