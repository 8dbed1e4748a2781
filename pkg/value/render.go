package value

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// NullText is the rendering of a null value.
const NullText = "null"

// String converts v to plain text.
//
// Sequences render as their elements joined by "," and records render as
// JSON text.
func String(v any) string {
	rv, ok := indirect(v)
	if !ok {
		return NullText
	}
	switch t := v.(type) {
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	case error:
		return t.Error()
	}

	x := rv.Interface()
	switch t := x.(type) {
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	case error:
		return t.Error()
	case []byte:
		return string(t)
	}

	switch rv.Kind() {
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32:
		return formatFloat(rv.Float(), 32)
	case reflect.Float64:
		return formatFloat(rv.Float(), 64)
	case reflect.String:
		return rv.String()
	case reflect.Slice, reflect.Array:
		return Join(x, ",")
	case reflect.Map, reflect.Struct:
		return JSON(x)
	}
	return fmt.Sprint(x)
}

// Join renders the elements of a sequence with String and joins them with
// sep. Null elements render as empty text.
func Join(v any, sep string) string {
	elems := Elements(v)
	parts := make([]string, len(elems))
	for i, e := range elems {
		if KindOf(e) == KindNull {
			continue
		}
		parts[i] = String(e)
	}
	return strings.Join(parts, sep)
}

// JSON serializes v. Values that cannot be encoded fall back to fmt
// formatting.
func JSON(v any) string {
	data, err := encodeJSON(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

// encodeJSON encodes v compactly. NaN and infinities, which encoding/json
// rejects, are written as null.
func encodeJSON(v any) ([]byte, error) {
	data, err := marshal(v)
	var unsupported *json.UnsupportedValueError
	if errors.As(err, &unsupported) {
		return marshal(finite(reflect.ValueOf(v)))
	}
	return data, err
}

func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// finite rebuilds rv as plain maps and slices with non-finite floats
// replaced by nil. Structs become maps keyed by their JSON field names.
func finite(rv reflect.Value) any {
	if !rv.IsValid() {
		return nil
	}
	if rv.CanInterface() {
		if _, ok := rv.Interface().(json.Marshaler); ok {
			return rv.Interface()
		}
	}

	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return finite(rv.Elem())
	case reflect.Float32, reflect.Float64:
		if f := rv.Float(); math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
	case reflect.Slice:
		if rv.IsNil() {
			return nil
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			break
		}
		fallthrough
	case reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = finite(rv.Index(i))
		}
		return out
	case reflect.Map:
		if rv.IsNil() {
			return nil
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[fmt.Sprint(iter.Key().Interface())] = finite(iter.Value())
		}
		return out
	case reflect.Struct:
		return finiteStruct(rv)
	}
	if rv.CanInterface() {
		return rv.Interface()
	}
	return nil
}

func finiteStruct(rv reflect.Value) map[string]any {
	out := make(map[string]any, rv.NumField())
	typ := rv.Type()
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		if !f.IsExported() {
			continue
		}
		name, opts, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" && opts == "" {
			continue
		}
		if name == "" {
			name = f.Name
		}
		fv := rv.Field(i)
		if strings.Contains(opts, "omitempty") && fv.IsZero() {
			continue
		}
		out[name] = finite(fv)
	}
	return out
}

// FormatNumber coerces v to a number and renders it. Integer values keep
// their exact digits; anything that does not coerce renders as "NaN".
func FormatNumber(v any) string {
	if rv, ok := indirect(v); ok {
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return strconv.FormatInt(rv.Int(), 10)
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
			return strconv.FormatUint(rv.Uint(), 10)
		case reflect.Float32:
			return formatFloat(rv.Float(), 32)
		}
	}
	return formatFloat(Number(v), 64)
}

// Number coerces v to a float64. Null is 0, booleans are 0 or 1, strings are
// parsed as decimal (or 0x/0o/0b prefixed) literals, and sequences are
// coerced through their text form. Records and unparsable text are NaN.
func Number(v any) float64 {
	rv, ok := indirect(v)
	if !ok {
		return 0
	}

	switch rv.Kind() {
	case reflect.Bool:
		if rv.Bool() {
			return 1
		}
		return 0
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.Map, reflect.Struct:
		if !isTextual(v) && !isTextual(rv.Interface()) {
			return math.NaN()
		}
	}
	return parseNumber(String(v))
}

func parseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	switch s {
	case "":
		return 0
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}

	if len(s) > 2 && s[0] == '0' {
		base := 0
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			n, err := strconv.ParseUint(s[2:], base, 64)
			if err != nil || strings.Contains(s, "_") {
				return math.NaN()
			}
			return float64(n)
		}
	}

	for _, r := range s {
		if (r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') && r != 'e' && r != 'E' {
			return math.NaN()
		}
		if r == '_' {
			return math.NaN()
		}
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return f
		}
		return math.NaN()
	}
	return f
}

// formatFloat renders f the way a JavaScript engine would: integral values
// without a fraction, exponent form outside [1e-6, 1e21).
func formatFloat(f float64, bits int) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}

	abs := math.Abs(f)
	if abs >= 1e21 || abs < 1e-6 {
		s := strconv.FormatFloat(f, 'e', -1, bits)
		mantissa, exp, _ := strings.Cut(s, "e")
		sign := exp[:1]
		digits := strings.TrimLeft(exp[1:], "0")
		return mantissa + "e" + sign + digits
	}
	return strconv.FormatFloat(f, 'f', -1, bits)
}
