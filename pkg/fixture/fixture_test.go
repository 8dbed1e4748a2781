package fixture

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specvital/each/pkg/domain"
	"github.com/specvital/each/pkg/selector"
)

type user struct {
	Age     int           `json:"age"`
	Name    string        `json:"name"`
	Timeout time.Duration `json:"timeout"`
}

func TestLoad(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		path      string
		wantName  string
		wantCount int
		wantIndex *int
	}{
		{
			name:      "should load yaml sequences",
			path:      "testdata/addition.yaml",
			wantName:  "adds %d + %d = %d",
			wantCount: 3,
		},
		{
			name:      "should load json records with filter",
			path:      "testdata/users.json",
			wantName:  "user $name is $age",
			wantCount: 2,
			wantIndex: intPtr(1),
		},
		{
			name:      "should load toml scalars",
			path:      "testdata/strings.toml",
			wantName:  "length of %s",
			wantCount: 3,
		},
		{
			name:      "should load skip reason",
			path:      "testdata/flaky.yaml",
			wantName:  "flaky $id",
			wantCount: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// When
			tbl, err := Load(tt.path)

			// Then
			require.NoError(t, err)
			assert.Equal(t, tt.path, tbl.Path)
			assert.Equal(t, tt.wantName, tbl.Name)
			assert.Len(t, tbl.Cases, tt.wantCount)
			assert.Equal(t, tt.wantIndex, tbl.Index)
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		path    string
		wantErr error
	}{
		{name: "should reject unknown extension", path: "testdata/notes.txt", wantErr: ErrUnsupportedFormat},
		{name: "should reject empty cases", path: "testdata/nocases.yaml", wantErr: ErrNoCases},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Load(tt.path)

			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("should fail for a missing file", func(t *testing.T) {
		t.Parallel()

		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))

		assert.Error(t, err)
	})
}

func TestTable_Plan(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		path     string
		template string
		extra    []selector.Filter[any]
		want     []string
	}{
		{
			name: "should use the file template",
			path: "testdata/addition.yaml",
			want: []string{"adds 1 + 2 = 3", "adds 2 + 3 = 5", "adds -1 + 1 = 0"},
		},
		{
			name: "should apply the file filter",
			path: "testdata/users.json",
			want: []string{"user bob is 41"},
		},
		{
			name:     "should prefer an explicit template",
			path:     "testdata/strings.toml",
			template: "%j",
			want:     []string{`"a"`, `"bb"`, `"ccc"`},
		},
		{
			name:  "should narrow with extra filters",
			path:  "testdata/strings.toml",
			extra: []selector.Filter[any]{selector.Index[any](2)},
			want:  []string{"length of ccc"},
		},
		{
			name:  "should intersect file and extra filters",
			path:  "testdata/users.json",
			extra: []selector.Filter[any]{selector.Index[any](0)},
			want:  []string{},
		},
		{
			name: "should resolve properties on yaml records",
			path: "testdata/nested/multiply.yml",
			want: []string{"product of 2 and 3", "product of 0 and 9"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// Given
			tbl, err := Load(tt.path)
			require.NoError(t, err)

			// When
			plan, err := tbl.Plan(tt.template, tt.extra...)

			// Then
			require.NoError(t, err)
			assert.Equal(t, tt.want, plan.Names())
			assert.Equal(t, tt.path, plan.Source)
			assert.Equal(t, len(tbl.Cases), plan.Total)
		})
	}
}

func TestTable_PlanStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		path        string
		want        domain.CaseStatus
		wantFocused bool
	}{
		{name: "should plan active cases by default", path: "testdata/addition.yaml", want: domain.CaseStatusActive},
		{name: "should plan skipped cases", path: "testdata/flaky.yaml", want: domain.CaseStatusSkipped},
		{name: "should plan focused cases", path: "testdata/focused.yaml", want: domain.CaseStatusFocused, wantFocused: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tbl, err := Load(tt.path)
			require.NoError(t, err)

			plan, err := tbl.Plan("")

			require.NoError(t, err)
			require.NotEmpty(t, plan.Registrations)
			for _, reg := range plan.Registrations {
				assert.Equal(t, tt.want, reg.Status)
			}
			assert.Equal(t, tt.wantFocused, plan.Focused())
		})
	}
}

func TestTable_Filter(t *testing.T) {
	t.Parallel()

	assert.True(t, (&Table{}).Filter().IsAll())
	assert.Equal(t, "index(4)", (&Table{Index: intPtr(4)}).Filter().String())
}

func TestDecode(t *testing.T) {
	t.Parallel()

	t.Run("should decode records by json tag", func(t *testing.T) {
		t.Parallel()

		tbl, err := Load("testdata/users.json")
		require.NoError(t, err)

		users, err := Decode[user](tbl)

		require.NoError(t, err)
		assert.Equal(t, []user{
			{Age: 30, Name: "ann", Timeout: time.Second},
			{Age: 41, Name: "bob", Timeout: 250 * time.Millisecond},
		}, users)
	})

	t.Run("should decode sequences", func(t *testing.T) {
		t.Parallel()

		tbl, err := Load("testdata/addition.yaml")
		require.NoError(t, err)

		rows, err := Decode[[]int](tbl)

		require.NoError(t, err)
		assert.Equal(t, [][]int{{1, 2, 3}, {2, 3, 5}, {-1, 1, 0}}, rows)
	})

	t.Run("should decode scalars", func(t *testing.T) {
		t.Parallel()

		tbl, err := Load("testdata/strings.toml")
		require.NoError(t, err)

		words, err := Decode[string](tbl)

		require.NoError(t, err)
		assert.Equal(t, []string{"a", "bb", "ccc"}, words)
	})

	t.Run("should fail on shape mismatch", func(t *testing.T) {
		t.Parallel()

		tbl := &Table{Cases: []any{map[string]any{"a": 1}}, Path: "inline"}

		_, err := Decode[int](tbl)

		assert.Error(t, err)
	})
}

func TestGlob(t *testing.T) {
	t.Parallel()

	t.Run("should load matches sorted by path", func(t *testing.T) {
		t.Parallel()

		// When
		res, err := Glob(context.Background(), []string{"testdata/*"}, WithWorkers(2))

		// Then
		require.NoError(t, err)
		assert.Equal(t, []string{
			"testdata/addition.yaml",
			"testdata/flaky.yaml",
			"testdata/focused.yaml",
			"testdata/strings.toml",
			"testdata/users.json",
		}, tablePaths(res))

		require.Len(t, res.Errors, 2)
		assert.Equal(t, "testdata/nocases.yaml", res.Errors[0].Path)
		assert.ErrorIs(t, res.Errors[0], ErrNoCases)
		assert.Equal(t, "testdata/notes.txt", res.Errors[1].Path)
		assert.ErrorIs(t, res.Errors[1], ErrUnsupportedFormat)
	})

	t.Run("should cross directories with double star", func(t *testing.T) {
		t.Parallel()

		res, err := Glob(context.Background(), []string{"testdata/**/*.yml"})

		require.NoError(t, err)
		assert.Equal(t, []string{"testdata/nested/multiply.yml"}, tablePaths(res))
		assert.Empty(t, res.Errors)
	})

	t.Run("should load a file matched twice once", func(t *testing.T) {
		t.Parallel()

		res, err := Glob(context.Background(), []string{"testdata/*.json", "testdata/users.*"})

		require.NoError(t, err)
		assert.Equal(t, []string{"testdata/users.json"}, tablePaths(res))
	})

	t.Run("should return empty result without matches", func(t *testing.T) {
		t.Parallel()

		res, err := Glob(context.Background(), []string{"testdata/*.none"})

		require.NoError(t, err)
		assert.Empty(t, res.Tables)
		assert.Empty(t, res.Errors)
	})

	t.Run("should reject malformed patterns", func(t *testing.T) {
		t.Parallel()

		_, err := Glob(context.Background(), []string{"testdata/[a-"})

		assert.Error(t, err)
	})

	t.Run("should stop when the context is cancelled", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := Glob(ctx, []string{"testdata/*.yaml"})

		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestLoadError(t *testing.T) {
	t.Parallel()

	err := LoadError{Err: ErrNoCases, Path: "a.yaml"}

	assert.Contains(t, err.Error(), "a.yaml: ")
	assert.ErrorIs(t, err, ErrNoCases)
}

func tablePaths(res *GlobResult) []string {
	paths := make([]string, len(res.Tables))
	for i, tbl := range res.Tables {
		paths[i] = tbl.Path
	}
	return paths
}

func intPtr(i int) *int {
	return &i
}
