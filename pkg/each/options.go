package each

import (
	"github.com/specvital/each/pkg/config"
	"github.com/specvital/each/pkg/domain"
	"github.com/specvital/each/pkg/logging"
	"github.com/specvital/each/pkg/naming"
)

// DefaultSkipReason is reported by cases skipped without a reason.
const DefaultSkipReason = "skipped by each.Skip"

// Options control how a case table is registered.
type Options struct {
	// Name is the name template. Empty means naming.DefaultTemplate.
	Name string
	// Skip registers every case but skips it when it runs.
	Skip bool
	// SkipReason is passed to t.Skip.
	SkipReason string
	// Only marks every case as focused.
	Only bool
	// Parallel calls t.Parallel at the start of every case.
	Parallel bool
	// Isolate hands each body a deep copy of its case.
	Isolate bool

	Logger   logging.Logger
	Settings *config.Settings
}

// Option is a functional option for Run and Table.
type Option func(*Options)

// Name sets the name template.
func Name(template string) Option {
	return func(o *Options) {
		o.Name = template
	}
}

// Skip registers the cases as skipped.
func Skip(reason string) Option {
	return func(o *Options) {
		o.Skip = true
		o.SkipReason = reason
	}
}

// Only marks the cases as focused.
func Only() Option {
	return func(o *Options) {
		o.Only = true
	}
}

// Parallel runs the cases in parallel with each other.
func Parallel() Option {
	return func(o *Options) {
		o.Parallel = true
	}
}

// Isolate deep-copies each case before its body runs, so a body that
// mutates its value cannot affect the table. Registration fails with
// ErrUncopyable when a case reaches an unexported struct field.
func Isolate() Option {
	return func(o *Options) {
		o.Isolate = true
	}
}

// WithLogger sets the registration logger.
func WithLogger(l logging.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// WithSettings replaces the environment-derived settings.
func WithSettings(s *config.Settings) Option {
	return func(o *Options) {
		o.Settings = s
	}
}

func newOptions(opts []Option) (*Options, error) {
	o := &Options{}
	for _, opt := range opts {
		opt(o)
	}
	return o, applyDefaults(o)
}

func applyDefaults(o *Options) error {
	if o.Name == "" {
		o.Name = naming.DefaultTemplate
	}
	if o.Skip && o.SkipReason == "" {
		o.SkipReason = DefaultSkipReason
	}
	if o.Settings == nil {
		s, err := config.Current()
		if err != nil {
			return err
		}
		o.Settings = s
	}
	if o.Settings.Parallel {
		o.Parallel = true
	}
	if o.Logger == nil {
		o.Logger = logging.New("each", o.Settings.LogLevel)
	}
	return nil
}

func (o *Options) status() domain.CaseStatus {
	switch {
	case o.Skip:
		return domain.CaseStatusSkipped
	case o.Only:
		return domain.CaseStatusFocused
	default:
		return domain.CaseStatusActive
	}
}
