package each

import (
	"github.com/specvital/each/pkg/domain"
	"github.com/specvital/each/pkg/naming"
	"github.com/specvital/each/pkg/selector"
)

// Table is a case list bound to a filter, ready to be registered.
type Table[T any] struct {
	cases  []T
	filter selector.Filter[T]
}

// Cases binds cases and optional filters. Several filters must all match.
func Cases[T any](cases []T, filters ...selector.Filter[T]) Table[T] {
	return Table[T]{
		cases:  cases,
		filter: selector.All[T]().And(filters...),
	}
}

// Run registers the table with the given name template. A name in opts is
// overridden by name.
func (tb Table[T]) Run(r Registrar, name string, body Body[T], opts ...Option) error {
	opts = append(opts[:len(opts):len(opts)], Name(name))
	return register(r, tb.cases, tb.filter, body, opts, callerLocation(2))
}

// RunFunc registers the table with the default name template, or with a
// Name option.
func (tb Table[T]) RunFunc(r Registrar, body Body[T], opts ...Option) error {
	return register(r, tb.cases, tb.filter, body, opts, callerLocation(2))
}

// Plan names the selected cases without registering them.
func (tb Table[T]) Plan(template string, opts ...Option) (*domain.Plan, error) {
	o := &Options{}
	for _, opt := range opts {
		opt(o)
	}
	if template == "" {
		template = naming.DefaultTemplate
	}

	status := o.status()
	plan := &domain.Plan{
		Filter:        tb.filter.String(),
		Registrations: []domain.Registration{},
		Template:      template,
		Total:         len(tb.cases),
	}
	err := selector.Visit(tb.cases, tb.filter, func(sel selector.Selected[T]) error {
		plan.Registrations = append(plan.Registrations, domain.Registration{
			Index:  sel.Index,
			Name:   naming.Format(template, sel.Value, sel.Index),
			Status: status,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return plan, nil
}

// Plan is Cases(cases, filters...).Plan(template).
func Plan[T any](cases []T, template string, filters ...selector.Filter[T]) (*domain.Plan, error) {
	return Cases(cases, filters...).Plan(template)
}
