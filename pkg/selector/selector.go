// Package selector narrows a case list to the cases that should be
// registered.
//
// The zero Filter selects everything. Index selects a single position and
// Where/WhereErr select by predicate. Selection never reorders cases and
// always reports indexes relative to the original list.
package selector

import (
	"fmt"
	"strings"
)

// Predicate decides whether the case at index is selected.
type Predicate[T any] func(value T, index int) bool

// PredicateErr is a Predicate that can fail. A failure aborts the selection
// pass.
type PredicateErr[T any] func(value T, index int) (bool, error)

type filterKind int

const (
	kindAll filterKind = iota
	kindIndex
	kindPredicate
	kindAnd
)

// Filter selects cases by position or predicate.
type Filter[T any] struct {
	kind  filterKind
	index int
	pred  PredicateErr[T]
	parts []Filter[T]
}

// Selected is a case that survived filtering, with its original index.
type Selected[T any] struct {
	Value T
	Index int
}

// All selects every case.
func All[T any]() Filter[T] {
	return Filter[T]{}
}

// Index selects the case at i. Out-of-range and negative indexes select
// nothing.
func Index[T any](i int) Filter[T] {
	return Filter[T]{kind: kindIndex, index: i}
}

// Where selects the cases for which p returns true. A nil predicate selects
// every case.
func Where[T any](p Predicate[T]) Filter[T] {
	if p == nil {
		return All[T]()
	}
	return Filter[T]{kind: kindPredicate, pred: func(v T, i int) (bool, error) {
		return p(v, i), nil
	}}
}

// WhereErr is Where for predicates that can fail.
func WhereErr[T any](p PredicateErr[T]) Filter[T] {
	if p == nil {
		return All[T]()
	}
	return Filter[T]{kind: kindPredicate, pred: p}
}

// And selects the cases matched by f and every filter in others.
func (f Filter[T]) And(others ...Filter[T]) Filter[T] {
	parts := make([]Filter[T], 0, len(others)+1)
	for _, g := range append([]Filter[T]{f}, others...) {
		switch g.kind {
		case kindAll:
		case kindAnd:
			parts = append(parts, g.parts...)
		default:
			parts = append(parts, g)
		}
	}

	switch len(parts) {
	case 0:
		return All[T]()
	case 1:
		return parts[0]
	default:
		return Filter[T]{kind: kindAnd, parts: parts}
	}
}

// IsAll reports whether f selects every case without inspecting them.
func (f Filter[T]) IsAll() bool {
	return f.kind == kindAll
}

func (f Filter[T]) String() string {
	switch f.kind {
	case kindAll:
		return "all"
	case kindIndex:
		return fmt.Sprintf("index(%d)", f.index)
	case kindPredicate:
		return "predicate"
	case kindAnd:
		names := make([]string, len(f.parts))
		for i, p := range f.parts {
			names[i] = p.String()
		}
		return strings.Join(names, " and ")
	default:
		return "unknown"
	}
}

func (f Filter[T]) match(v T, i int) (bool, error) {
	switch f.kind {
	case kindIndex:
		return i == f.index, nil
	case kindPredicate:
		return f.pred(v, i)
	case kindAnd:
		for _, p := range f.parts {
			ok, err := p.match(v, i)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	default:
		return true, nil
	}
}

// Visit calls fn for every selected case, in order. It stops at the first
// error returned by a predicate or by fn; cases visited before the error stay
// visited.
func Visit[T any](cases []T, f Filter[T], fn func(Selected[T]) error) error {
	if f.kind == kindIndex {
		if f.index < 0 || f.index >= len(cases) {
			return nil
		}
		return fn(Selected[T]{Value: cases[f.index], Index: f.index})
	}

	for i, v := range cases {
		ok, err := f.match(v, i)
		if err != nil {
			return fmt.Errorf("selector: case %d: %w", i, err)
		}
		if !ok {
			continue
		}
		if err := fn(Selected[T]{Value: v, Index: i}); err != nil {
			return err
		}
	}
	return nil
}

// Select returns the selected cases in order.
func Select[T any](cases []T, f Filter[T]) ([]Selected[T], error) {
	out := make([]Selected[T], 0, len(cases))
	err := Visit(cases, f, func(s Selected[T]) error {
		out = append(out, s)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
