package value

import (
	"reflect"
	"strings"

	"github.com/tidwall/gjson"
)

// Resolver looks up dotted property paths on a record.
//
// The record is encoded to JSON once, so field names follow the encoding/json
// rules (struct tags, exported fields, custom marshalers). A segment matches
// a key exactly. For Go structs it also matches case-insensitively, so $name
// finds an untagged Name field; map records never fold case.
type Resolver struct {
	root gjson.Result
	ok   bool
	fold bool
}

// NewResolver prepares v for lookups. Lookups on a resolver built from a
// non-record, or from a record that cannot be encoded, always miss.
func NewResolver(v any) *Resolver {
	if KindOf(v) != KindRecord {
		return &Resolver{}
	}
	data, err := encodeJSON(v)
	if err != nil {
		return &Resolver{}
	}
	return &Resolver{root: gjson.ParseBytes(data), ok: true, fold: isStruct(v)}
}

// Lookup resolves path (segments separated by ".") and renders the result.
// It reports false when any segment is missing or when an intermediate value
// is not a record.
func (r *Resolver) Lookup(path string) (string, bool) {
	if !r.ok || path == "" {
		return "", false
	}

	cur := r.root
	for _, seg := range strings.Split(path, ".") {
		if !cur.IsObject() {
			return "", false
		}
		next, ok := child(cur, seg, r.fold)
		if !ok {
			return "", false
		}
		cur = next
	}
	return renderResult(cur), true
}

// Lookup is a one-shot form of NewResolver(v).Lookup(path).
func Lookup(v any, path string) (string, bool) {
	return NewResolver(v).Lookup(path)
}

func isStruct(v any) bool {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv = rv.Elem()
	}
	return rv.Kind() == reflect.Struct
}

func child(obj gjson.Result, key string, fold bool) (gjson.Result, bool) {
	var exact, folded gjson.Result
	obj.ForEach(func(k, v gjson.Result) bool {
		if k.String() == key {
			exact = v
			return false
		}
		if fold && !folded.Exists() && strings.EqualFold(k.String(), key) {
			folded = v
		}
		return true
	})
	if exact.Exists() {
		return exact, true
	}
	return folded, folded.Exists()
}

func renderResult(res gjson.Result) string {
	switch res.Type {
	case gjson.String:
		return res.Str
	case gjson.Null:
		return NullText
	default:
		return res.Raw
	}
}
