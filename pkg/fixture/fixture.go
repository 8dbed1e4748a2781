// Package fixture loads case tables from YAML, JSON and TOML files.
//
// A fixture file holds a name template, an optional filter and the cases:
//
//	name: "adds %d + %d = %d"
//	filter:
//	  index: 1
//	cases:
//	  - [1, 2, 3]
//	  - [2, 3, 5]
//
// The optional keys only (bool) and skip (reason text) mark every case of the
// table focused or skipped.
package fixture

import (
	"github.com/go-viper/mapstructure/v2"
	"github.com/goliatone/go-errors"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/specvital/each/pkg/config"
	"github.com/specvital/each/pkg/domain"
	"github.com/specvital/each/pkg/each"
	"github.com/specvital/each/pkg/selector"
)

const (
	keyCases       = "cases"
	keyFilterIndex = "filter.index"
	keyName        = "name"
	keyOnly        = "only"
	keySkip        = "skip"
)

var (
	// ErrUnsupportedFormat is returned for files that are not YAML, JSON or
	// TOML.
	ErrUnsupportedFormat = config.ErrUnsupportedFormat
	// ErrNoCases is returned for fixtures whose cases key is missing, empty,
	// or not a list.
	ErrNoCases = errors.New("fixture has no cases", errors.CategoryValidation).
			WithTextCode("NO_CASES")
)

// Table is a case table read from a fixture file.
type Table struct {
	Cases []any
	Index *int
	Name  string
	Only  bool
	Path  string
	Skip  string
}

// Load reads the fixture at path. The format is picked by file extension.
func Load(path string) (*Table, error) {
	parser, err := config.ParserFor(path)
	if err != nil {
		return nil, err
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "failed to read fixture").
			WithTextCode("FIXTURE_READ_FAILED").
			WithMetadata(map[string]any{"path": path})
	}

	cases, ok := k.Get(keyCases).([]any)
	if !ok || len(cases) == 0 {
		return nil, errors.Wrap(ErrNoCases, errors.CategoryValidation, "fixture must list cases").
			WithMetadata(map[string]any{"path": path, "key": keyCases})
	}

	tbl := &Table{
		Cases: cases,
		Name:  k.String(keyName),
		Only:  k.Bool(keyOnly),
		Path:  path,
		Skip:  k.String(keySkip),
	}
	if k.Exists(keyFilterIndex) {
		i := k.Int(keyFilterIndex)
		tbl.Index = &i
	}
	return tbl, nil
}

// Filter returns the filter declared by the fixture, or All.
func (t *Table) Filter() selector.Filter[any] {
	if t.Index == nil {
		return selector.All[any]()
	}
	return selector.Index[any](*t.Index)
}

// Plan names the fixture's cases. A non-empty template replaces the one in
// the file, and extra filters narrow the file's own filter.
func (t *Table) Plan(template string, extra ...selector.Filter[any]) (*domain.Plan, error) {
	if template == "" {
		template = t.Name
	}
	var opts []each.Option
	if t.Skip != "" {
		opts = append(opts, each.Skip(t.Skip))
	}
	if t.Only {
		opts = append(opts, each.Only())
	}

	filters := append([]selector.Filter[any]{t.Filter()}, extra...)
	plan, err := each.Cases(t.Cases, filters...).Plan(template, opts...)
	if err != nil {
		return nil, err
	}
	plan.Source = t.Path
	return plan, nil
}

// Decode converts the raw cases into typed values. Struct fields are matched
// by their json tag, the same names used by $property placeholders.
func Decode[T any](t *Table) ([]T, error) {
	out := make([]T, 0, len(t.Cases))
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.TextUnmarshallerHookFunc(),
		),
		Result:           &out,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "failed to build decoder")
	}
	if err := decoder.Decode(t.Cases); err != nil {
		return nil, errors.Wrap(err, errors.CategoryBadInput, "failed to decode fixture cases").
			WithTextCode("DECODE_FAILED").
			WithMetadata(map[string]any{"path": t.Path})
	}
	return out, nil
}
