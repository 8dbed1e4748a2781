// Package each registers one subtest per case of a table.
//
// Names come from a template (see package naming) and the set of cases can be
// narrowed with a filter (see package selector):
//
//	each.Run(t, []int{1, 2, 3}, func(t *testing.T, n int, _ int) {
//		if n <= 0 {
//			t.Fatal("not positive")
//		}
//	}, each.Name("should be positive: %d"))
//
//	err := each.Cases([][]int{{1, 2, 3}, {2, 3, 5}}).
//		Run(t, "adds %d + %d = %d", func(t *testing.T, c []int, _ int) {
//			// ...
//		})
package each

import (
	"reflect"
	"runtime"
	"testing"

	"github.com/goliatone/go-errors"
	"github.com/mitchellh/copystructure"

	"github.com/specvital/each/pkg/domain"
	"github.com/specvital/each/pkg/naming"
	"github.com/specvital/each/pkg/selector"
)

// Registrar schedules a named subtest. *testing.T implements it.
type Registrar interface {
	Run(name string, f func(t *testing.T)) bool
}

// Body is the test run for a single case.
type Body[T any] func(t *testing.T, value T, index int)

var (
	// ErrMissingBody is returned when a table is registered without a body.
	ErrMissingBody = errors.New("test body is required", errors.CategoryBadInput).
			WithTextCode("MISSING_BODY")
	// ErrNilRegistrar is returned when no registrar is supplied.
	ErrNilRegistrar = errors.New("registrar is required", errors.CategoryBadInput).
			WithTextCode("NIL_REGISTRAR")
	// ErrFocused is returned after registering focused cases when the
	// fail_on_focus setting is on.
	ErrFocused = errors.New("focused cases must not be committed", errors.CategoryValidation).
			WithTextCode("FOCUSED_CASES")
	// ErrUncopyable is returned by Isolate when a case holds unexported
	// struct fields, which a deep copy would reset to their zero value.
	ErrUncopyable = errors.New("case cannot be deep-copied", errors.CategoryBadInput).
			WithTextCode("UNCOPYABLE_CASE")
)

// Run registers one subtest per case, named from the Name option.
func Run[T any](r Registrar, cases []T, body Body[T], opts ...Option) error {
	return register(r, cases, selector.All[T](), body, opts, callerLocation(2))
}

func register[T any](r Registrar, cases []T, filter selector.Filter[T], body Body[T], opts []Option, loc domain.Location) error {
	if r == nil {
		return ErrNilRegistrar
	}
	if body == nil {
		return errors.Wrap(ErrMissingBody, errors.CategoryBadInput, "cannot register cases without a body").
			WithMetadata(map[string]any{"location": loc.String()})
	}

	o, err := newOptions(opts)
	if err != nil {
		return err
	}
	if o.Isolate {
		if i, field, ok := uncopyable(cases); ok {
			return errors.Wrap(ErrUncopyable, errors.CategoryBadInput, "isolate needs exported fields only").
				WithMetadata(map[string]any{"case": i, "field": field, "location": loc.String()})
		}
	}
	if o.Settings.HasCase() {
		filter = filter.And(selector.Index[T](o.Settings.Case))
	}

	status := o.status()
	registered := 0
	err = selector.Visit(cases, filter, func(sel selector.Selected[T]) error {
		name := naming.Format(o.Name, sel.Value, sel.Index)
		o.Logger.Debug("registering case",
			"name", name,
			"index", sel.Index,
			"status", status,
			"location", loc.String(),
		)
		r.Run(name, unit(o, body, sel.Value, sel.Index))
		registered++
		return nil
	})
	if err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "case selection failed").
			WithTextCode("SELECTION_FAILED").
			WithMetadata(map[string]any{
				"registered": registered,
				"filter":     filter.String(),
				"location":   loc.String(),
			})
	}

	if status == domain.CaseStatusFocused && registered > 0 {
		o.Logger.Warn("focused cases registered", "count", registered, "location", loc.String())
		if o.Settings.FailOnFocus {
			return errors.Wrap(ErrFocused, errors.CategoryValidation, "fail_on_focus is set").
				WithMetadata(map[string]any{"count": registered, "location": loc.String()})
		}
	}
	return nil
}

func unit[T any](o *Options, body Body[T], v T, index int) func(t *testing.T) {
	return func(t *testing.T) {
		if o.Parallel {
			t.Parallel()
		}
		if o.Skip {
			t.Skip(o.SkipReason)
		}
		if o.Isolate {
			v = isolate(t, v)
		}
		body(t, v, index)
	}
}

func isolate[T any](t *testing.T, v T) T {
	t.Helper()

	cp, err := copystructure.Copy(v)
	if err != nil {
		t.Fatalf("each: copy case: %v", err)
	}
	c, ok := cp.(T)
	if !ok {
		return v
	}
	return c
}

// uncopyable reports the first case whose type reaches an unexported field.
func uncopyable[T any](cases []T) (int, string, bool) {
	seen := make(map[reflect.Type]bool)
	for i, v := range cases {
		typ := reflect.TypeOf(any(v))
		if typ == nil {
			continue
		}
		if field, ok := hiddenField(typ, seen); ok {
			return i, field, true
		}
	}
	return 0, "", false
}

// hiddenField reports the first unexported struct field reachable from typ.
// Types copystructure copies as a whole, like time.Time, are skipped.
func hiddenField(typ reflect.Type, seen map[reflect.Type]bool) (string, bool) {
	if seen[typ] {
		return "", false
	}
	seen[typ] = true
	if _, ok := copystructure.Copiers[typ]; ok {
		return "", false
	}

	switch typ.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Array:
		return hiddenField(typ.Elem(), seen)
	case reflect.Map:
		if f, ok := hiddenField(typ.Key(), seen); ok {
			return f, true
		}
		return hiddenField(typ.Elem(), seen)
	case reflect.Struct:
		for i := 0; i < typ.NumField(); i++ {
			f := typ.Field(i)
			if !f.IsExported() {
				return typ.String() + "." + f.Name, true
			}
			if name, ok := hiddenField(f.Type, seen); ok {
				return name, true
			}
		}
	}
	return "", false
}

func callerLocation(skip int) domain.Location {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return domain.Location{}
	}
	return domain.Location{File: file, Line: line}
}
