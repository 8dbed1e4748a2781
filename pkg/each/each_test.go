package each

import (
	"bytes"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specvital/each/pkg/config"
	"github.com/specvital/each/pkg/domain"
	"github.com/specvital/each/pkg/logging"
	"github.com/specvital/each/pkg/selector"
)

// recorder records names and runs every case as a real subtest.
type recorder struct {
	t     *testing.T
	names []string
}

func (r *recorder) Run(name string, f func(t *testing.T)) bool {
	r.names = append(r.names, name)
	return r.t.Run(name, f)
}

// capture records names and bodies without running anything.
type capture struct {
	names []string
	funcs []func(t *testing.T)
}

func (c *capture) Run(name string, f func(t *testing.T)) bool {
	c.names = append(c.names, name)
	c.funcs = append(c.funcs, f)
	return true
}

type seen[T any] struct {
	values  []T
	indexes []int
}

func (s *seen[T]) body() Body[T] {
	return func(_ *testing.T, v T, i int) {
		s.values = append(s.values, v)
		s.indexes = append(s.indexes, i)
	}
}

func quiet(extra ...Option) []Option {
	opts := []Option{
		WithSettings(&config.Settings{Case: config.NoCase, LogLevel: "panic"}),
		WithLogger(logging.Nop()),
	}
	return append(opts, extra...)
}

func TestRun_RegistersEveryCase(t *testing.T) {
	r := &recorder{t: t}
	var s seen[int]

	err := Run(r, []int{1, 2, 3, 4}, s.body(), quiet(Name("should be positive number: %d"))...)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"should be positive number: 1",
		"should be positive number: 2",
		"should be positive number: 3",
		"should be positive number: 4",
	}, r.names)
	assert.Equal(t, []int{1, 2, 3, 4}, s.values)
	assert.Equal(t, []int{0, 1, 2, 3}, s.indexes)
}

func TestRun_DefaultName(t *testing.T) {
	c := &capture{}

	err := Run(c, []string{"a", "b"}, func(*testing.T, string, int) {}, quiet()...)
	require.NoError(t, err)

	assert.Equal(t, []string{"test case (case 0: a)", "test case (case 1: b)"}, c.names)
}

func TestRun_NameWithoutPlaceholders(t *testing.T) {
	c := &capture{}

	err := Run(c, []int{7}, func(*testing.T, int, int) {}, quiet(Name("should be positive"))...)
	require.NoError(t, err)

	assert.Equal(t, []string{"should be positive (case 0: 7)"}, c.names)
}

func TestTable_Run(t *testing.T) {
	tests := []struct {
		name      string
		cases     []int
		filters   []selector.Filter[int]
		template  string
		wantNames []string
		wantIdx   []int
	}{
		{
			name:      "all cases",
			cases:     []int{1, 2, 3, 4},
			template:  "all cases: %d",
			wantNames: []string{"all cases: 1", "all cases: 2", "all cases: 3", "all cases: 4"},
			wantIdx:   []int{0, 1, 2, 3},
		},
		{
			name:      "index filter",
			cases:     []int{10, 20, 30, 40},
			filters:   []selector.Filter[int]{selector.Index[int](2)},
			template:  "only index 2: %d",
			wantNames: []string{"only index 2: 30"},
			wantIdx:   []int{2},
		},
		{
			name:  "value predicate",
			cases: []int{1, 2, 3, 4},
			filters: []selector.Filter[int]{selector.Where(func(v, _ int) bool {
				return v > 2
			})},
			template:  "only values > 2: %d",
			wantNames: []string{"only values > 2: 3", "only values > 2: 4"},
			wantIdx:   []int{2, 3},
		},
		{
			name:  "predicate using index",
			cases: []int{10, 20, 30, 40},
			filters: []selector.Filter[int]{selector.Where(func(v, i int) bool {
				return i == 1 || v > 35
			})},
			template:  "index 1 OR value > 35: %d",
			wantNames: []string{"index 1 OR value > 35: 20", "index 1 OR value > 35: 40"},
			wantIdx:   []int{1, 3},
		},
		{
			name:      "duplicates keep their own index",
			cases:     []int{1, 2, 2, 3},
			filters:   []selector.Filter[int]{selector.Index[int](1)},
			template:  "duplicates - only index 1: %d",
			wantNames: []string{"duplicates - only index 1: 2"},
			wantIdx:   []int{1},
		},
		{
			name:     "out of range index selects nothing",
			cases:    []int{1, 2, 3},
			filters:  []selector.Filter[int]{selector.Index[int](10)},
			template: "never %d",
		},
		{
			name:     "negative index selects nothing",
			cases:    []int{1, 2, 3},
			filters:  []selector.Filter[int]{selector.Index[int](-1)},
			template: "never %d",
		},
		{
			name:  "filters combine",
			cases: []int{5, 6, 7, 8},
			filters: []selector.Filter[int]{
				selector.Where(func(v, _ int) bool { return v%2 == 0 }),
				selector.Index[int](3),
			},
			template:  "even at 3: %d",
			wantNames: []string{"even at 3: 8"},
			wantIdx:   []int{3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &recorder{t: t}
			var s seen[int]

			err := Cases(tt.cases, tt.filters...).Run(r, tt.template, s.body(), quiet()...)
			require.NoError(t, err)

			assert.Equal(t, tt.wantNames, r.names)
			assert.Equal(t, tt.wantIdx, s.indexes)
		})
	}
}

func TestTable_Run_Sequences(t *testing.T) {
	r := &recorder{t: t}

	err := Cases([][]int{{1, 2, 3}, {2, 3, 5}, {3, 4, 7}}).
		Run(r, "addition: %d + %d = %d", func(t *testing.T, c []int, _ int) {
			assert.Equal(t, c[2], c[0]+c[1])
		}, quiet()...)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"addition: 1 + 2 = 3",
		"addition: 2 + 3 = 5",
		"addition: 3 + 4 = 7",
	}, r.names)
}

func TestTable_Run_Records(t *testing.T) {
	type profile struct {
		Name string `json:"name"`
	}
	type user struct {
		Profile profile `json:"profile"`
	}
	type row struct {
		User user `json:"user"`
		ID   int  `json:"id"`
	}

	c := &capture{}
	cases := []row{
		{User: user{Profile: profile{Name: "Alice"}}, ID: 1},
		{User: user{Profile: profile{Name: "Bob"}}, ID: 2},
	}

	err := Cases(cases).Run(c, "User $user.profile.name has id $id", func(*testing.T, row, int) {}, quiet()...)
	require.NoError(t, err)

	assert.Equal(t, []string{"User Alice has id 1", "User Bob has id 2"}, c.names)
}

func TestTable_RunFunc(t *testing.T) {
	c := &capture{}

	err := Cases([]int{3}).RunFunc(c, func(*testing.T, int, int) {}, quiet()...)
	require.NoError(t, err)
	assert.Equal(t, []string{"test case (case 0: 3)"}, c.names)

	c = &capture{}
	err = Cases([]int{3}).RunFunc(c, func(*testing.T, int, int) {}, quiet(Name("value %d"))...)
	require.NoError(t, err)
	assert.Equal(t, []string{"value 3"}, c.names)
}

func TestTable_Run_NameArgumentWins(t *testing.T) {
	c := &capture{}

	err := Cases([]int{1}).Run(c, "explicit %d", func(*testing.T, int, int) {}, quiet(Name("ignored %d"))...)
	require.NoError(t, err)

	assert.Equal(t, []string{"explicit 1"}, c.names)
}

func TestRegister_MissingBody(t *testing.T) {
	c := &capture{}

	err := Cases([]int{1, 2}).Run(c, "name only %d", nil, quiet()...)
	assert.ErrorIs(t, err, ErrMissingBody)

	err = Cases([]int{1, 2}).RunFunc(c, nil, quiet()...)
	assert.ErrorIs(t, err, ErrMissingBody)

	err = Run[int](c, []int{1}, nil, quiet()...)
	assert.ErrorIs(t, err, ErrMissingBody)

	assert.Empty(t, c.names)
}

func TestRegister_NilRegistrar(t *testing.T) {
	err := Run(nil, []int{1}, func(*testing.T, int, int) {}, quiet()...)

	assert.ErrorIs(t, err, ErrNilRegistrar)
}

func TestRegister_PredicateFailureKeepsEarlierRegistrations(t *testing.T) {
	boom := errors.New("boom")
	c := &capture{}
	filter := selector.WhereErr(func(v, i int) (bool, error) {
		if i == 2 {
			return false, boom
		}
		return true, nil
	})

	err := Cases([]int{1, 2, 3, 4}, filter).Run(c, "case %d", func(*testing.T, int, int) {}, quiet()...)

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"case 1", "case 2"}, c.names)
}

func TestRegister_PanickingPredicatePropagates(t *testing.T) {
	c := &capture{}
	filter := selector.Where(func(_ int, i int) bool {
		if i == 1 {
			panic("predicate exploded")
		}
		return true
	})

	assert.PanicsWithValue(t, "predicate exploded", func() {
		_ = Cases([]int{1, 2, 3}, filter).Run(c, "case %d", func(*testing.T, int, int) {}, quiet()...)
	})
	assert.Equal(t, []string{"case 1"}, c.names)
}

func TestRegister_Skip(t *testing.T) {
	r := &recorder{t: t}
	var calls int

	err := Run(r, []int{1, 2}, func(*testing.T, int, int) { calls++ }, quiet(Name("skipped %d"), Skip("not today"))...)
	require.NoError(t, err)

	assert.Equal(t, []string{"skipped 1", "skipped 2"}, r.names)
	assert.Zero(t, calls)
}

func TestRegister_OnlyWithFailOnFocus(t *testing.T) {
	c := &capture{}
	settings := &config.Settings{Case: config.NoCase, LogLevel: "panic", FailOnFocus: true}

	err := Run(c, []int{1, 2}, func(*testing.T, int, int) {},
		Name("focused %d"), Only(), WithSettings(settings), WithLogger(logging.Nop()))

	assert.ErrorIs(t, err, ErrFocused)
	assert.Equal(t, []string{"focused 1", "focused 2"}, c.names)
}

func TestRegister_OnlyWarns(t *testing.T) {
	var buf bytes.Buffer
	c := &capture{}
	settings := &config.Settings{Case: config.NoCase, LogLevel: "warn"}

	err := Run(c, []int{1}, func(*testing.T, int, int) {},
		Only(), WithSettings(settings), WithLogger(logging.NewWithWriter("each", "warn", &buf)))

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "focused cases registered")
}

func TestRegister_CaseOverride(t *testing.T) {
	c := &capture{}
	settings := &config.Settings{Case: 1, LogLevel: "panic"}

	err := Run(c, []string{"a", "b", "c"}, func(*testing.T, string, int) {},
		Name("letter %s"), WithSettings(settings), WithLogger(logging.Nop()))
	require.NoError(t, err)

	assert.Equal(t, []string{"letter b"}, c.names)
}

func TestRegister_CaseOverrideIntersectsFilter(t *testing.T) {
	c := &capture{}
	settings := &config.Settings{Case: 0, LogLevel: "panic"}

	err := Cases([]int{1, 2, 3}, selector.Index[int](2)).Run(c, "n %d", func(*testing.T, int, int) {},
		WithSettings(settings), WithLogger(logging.Nop()))
	require.NoError(t, err)

	assert.Empty(t, c.names)
}

func TestRegister_Isolate(t *testing.T) {
	cases := []map[string]int{{"count": 1}, {"count": 2}}
	r := &recorder{t: t}

	err := Run(r, cases, func(_ *testing.T, m map[string]int, _ int) {
		m["count"] = 100
	}, quiet(Name("count $count"), Isolate())...)
	require.NoError(t, err)

	assert.Equal(t, []string{"count 1", "count 2"}, r.names)
	assert.Equal(t, 1, cases[0]["count"])
	assert.Equal(t, 2, cases[1]["count"])
}

type sealedCase struct {
	Name   string
	weight int
}

func TestRegister_IsolateRejectsUnexportedFields(t *testing.T) {
	tests := []struct {
		name  string
		cases []any
	}{
		{name: "struct", cases: []any{sealedCase{Name: "a", weight: 7}}},
		{name: "pointer", cases: []any{&sealedCase{Name: "a", weight: 7}}},
		{name: "nested", cases: []any{map[string]any{"ok": 1}, []sealedCase{{Name: "b"}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &capture{}

			err := Run(c, tt.cases, func(*testing.T, any, int) {}, quiet(Isolate())...)

			assert.ErrorIs(t, err, ErrUncopyable)
			assert.Empty(t, c.names)
		})
	}
}

func TestRegister_IsolateKeepsTime(t *testing.T) {
	type stamped struct {
		At time.Time
	}
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	r := &recorder{t: t}
	var got time.Time

	err := Run(r, []stamped{{At: at}}, func(_ *testing.T, s stamped, _ int) {
		got = s.At
	}, quiet(Name("stamped"), Isolate())...)
	require.NoError(t, err)

	assert.True(t, at.Equal(got))
}

func TestRegister_UnexportedFieldsWithoutIsolate(t *testing.T) {
	r := &recorder{t: t}
	var got sealedCase

	err := Run(r, []sealedCase{{Name: "a", weight: 7}}, func(_ *testing.T, s sealedCase, _ int) {
		got = s
	}, quiet(Name("sealed $Name"))...)
	require.NoError(t, err)

	assert.Equal(t, []string{"sealed a"}, r.names)
	assert.Equal(t, 7, got.weight)
}

func TestRegister_WithoutIsolateSharesCase(t *testing.T) {
	cases := []map[string]int{{"count": 1}}
	r := &recorder{t: t}

	err := Run(r, cases, func(_ *testing.T, m map[string]int, _ int) {
		m["count"] = 100
	}, quiet()...)
	require.NoError(t, err)

	assert.Equal(t, 100, cases[0]["count"])
}

func TestRegister_Parallel(t *testing.T) {
	var calls atomic.Int32

	t.Run("group", func(t *testing.T) {
		err := Run(t, []int{1, 2, 3}, func(*testing.T, int, int) {
			calls.Add(1)
		}, quiet(Name("parallel %d"), Parallel())...)
		require.NoError(t, err)
	})

	assert.Equal(t, int32(3), calls.Load())
}

func TestRegister_LogsEveryName(t *testing.T) {
	var buf bytes.Buffer
	c := &capture{}
	settings := &config.Settings{Case: config.NoCase, LogLevel: "debug"}

	err := Run(c, []int{4, 5}, func(*testing.T, int, int) {},
		Name("n=%d"), WithSettings(settings), WithLogger(logging.NewWithWriter("each", "debug", &buf)))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "name=\"n=4\"")
	assert.Contains(t, out, "name=\"n=5\"")
	assert.Contains(t, out, "each_test.go")
}

func TestPlan(t *testing.T) {
	t.Parallel()

	plan, err := Plan([]int{10, 20, 30, 40}, "only index 2: %d", selector.Index[int](2))
	require.NoError(t, err)

	assert.Equal(t, 4, plan.Total)
	assert.Equal(t, "index(2)", plan.Filter)
	assert.Equal(t, "only index 2: %d", plan.Template)
	assert.Equal(t, []domain.Registration{
		{Index: 2, Name: "only index 2: 30", Status: domain.CaseStatusActive},
	}, plan.Registrations)
}

func TestTable_Plan_Options(t *testing.T) {
	t.Parallel()

	plan, err := Cases([]string{"x"}).Plan("", Skip(""))
	require.NoError(t, err)

	assert.Equal(t, "test case", plan.Template)
	assert.Equal(t, []string{"test case (case 0: x)"}, plan.Names())
	assert.Equal(t, domain.CaseStatusSkipped, plan.Registrations[0].Status)
}

func TestPlan_PredicateError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	_, err := Plan([]int{1}, "%d", selector.WhereErr(func(int, int) (bool, error) {
		return false, boom
	}))

	assert.ErrorIs(t, err, boom)
}
