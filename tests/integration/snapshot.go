//go:build integration

package integration

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"sort"
	"strings"

	"github.com/specvital/each/pkg/domain"
)

var unsafePathChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// Snapshot represents a golden snapshot of the names planned for a fixture.
type Snapshot struct {
	Suite        string         `json:"suite"`
	Fixture      string         `json:"fixture"`
	Template     string         `json:"template"`
	Filter       string         `json:"filter"`
	Total        int            `json:"total"`
	CaseCount    int            `json:"caseCount"`
	StatusCounts map[string]int `json:"statusCounts"`
	Names        []string       `json:"names"`
}

// SnapshotFromPlan creates a Snapshot from a plan.
func SnapshotFromPlan(suite Suite, plan *domain.Plan) *Snapshot {
	statusCounts := make(map[string]int)
	for _, reg := range plan.Registrations {
		statusCounts[string(reg.Status)]++
	}

	return &Snapshot{
		Suite:        suite.Name,
		Fixture:      suite.Fixture,
		Template:     plan.Template,
		Filter:       plan.Filter,
		Total:        plan.Total,
		CaseCount:    plan.Count(),
		StatusCounts: statusCounts,
		Names:        plan.Names(),
	}
}

// SaveSnapshot saves a snapshot to the golden directory.
func SaveSnapshot(snapshot *Snapshot) error {
	goldenDir, err := getGoldenDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(goldenDir, 0755); err != nil {
		return fmt.Errorf("create golden dir: %w", err)
	}

	path := filepath.Join(goldenDir, snapshotFilename(snapshot.Suite))
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}

	return nil
}

// LoadSnapshot loads a snapshot from the golden directory.
func LoadSnapshot(suiteName string) (*Snapshot, error) {
	goldenDir, err := getGoldenDir()
	if err != nil {
		return nil, err
	}

	path := filepath.Join(goldenDir, snapshotFilename(suiteName))
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("snapshot not found: %s (run with -update to create)", path)
		}
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}

	return &snapshot, nil
}

// SnapshotDiff represents differences between expected and actual snapshots.
type SnapshotDiff struct {
	TotalDiff        int
	CaseCountDiff    int
	FilterChange     *Change
	TemplateChange   *Change
	StatusCountDiffs map[string]StatusDiff
	MissingNames     []string
	ExtraNames       []string
	OrderChanged     bool
}

// Change is a string field whose value differs.
type Change struct {
	Expected string
	Actual   string
}

// StatusDiff represents the difference in case count for a status.
type StatusDiff struct {
	Expected int
	Actual   int
}

// IsEmpty returns true if there are no differences.
func (d *SnapshotDiff) IsEmpty() bool {
	return d.TotalDiff == 0 &&
		d.CaseCountDiff == 0 &&
		d.FilterChange == nil &&
		d.TemplateChange == nil &&
		len(d.StatusCountDiffs) == 0 &&
		len(d.MissingNames) == 0 &&
		len(d.ExtraNames) == 0 &&
		!d.OrderChanged
}

// String returns a human-readable diff summary.
func (d *SnapshotDiff) String() string {
	if d.IsEmpty() {
		return "no differences"
	}

	var sb strings.Builder

	if d.TotalDiff != 0 {
		sb.WriteString(fmt.Sprintf("  total: %+d\n", d.TotalDiff))
	}
	if d.CaseCountDiff != 0 {
		sb.WriteString(fmt.Sprintf("  case count: %+d\n", d.CaseCountDiff))
	}
	if d.FilterChange != nil {
		sb.WriteString(fmt.Sprintf("  filter: expected %q, got %q\n", d.FilterChange.Expected, d.FilterChange.Actual))
	}
	if d.TemplateChange != nil {
		sb.WriteString(fmt.Sprintf("  template: expected %q, got %q\n", d.TemplateChange.Expected, d.TemplateChange.Actual))
	}

	statuses := make([]string, 0, len(d.StatusCountDiffs))
	for status := range d.StatusCountDiffs {
		statuses = append(statuses, status)
	}
	sort.Strings(statuses)
	for _, status := range statuses {
		diff := d.StatusCountDiffs[status]
		sb.WriteString(fmt.Sprintf("  status %s: expected %d, got %d\n", status, diff.Expected, diff.Actual))
	}

	writeNames(&sb, "missing names", "-", d.MissingNames)
	writeNames(&sb, "extra names", "+", d.ExtraNames)

	if d.OrderChanged {
		sb.WriteString("  names are in a different order\n")
	}

	return sb.String()
}

func writeNames(sb *strings.Builder, title, marker string, names []string) {
	if len(names) == 0 {
		return
	}
	sb.WriteString(fmt.Sprintf("  %s (%d):\n", title, len(names)))
	for i, name := range names {
		if i < 10 {
			sb.WriteString(fmt.Sprintf("    %s %s\n", marker, name))
		}
	}
	if len(names) > 10 {
		sb.WriteString(fmt.Sprintf("    ... and %d more\n", len(names)-10))
	}
}

// CompareSnapshots compares an expected snapshot with an actual one.
func CompareSnapshots(expected *Snapshot, actual *Snapshot) *SnapshotDiff {
	diff := &SnapshotDiff{
		TotalDiff:        actual.Total - expected.Total,
		CaseCountDiff:    actual.CaseCount - expected.CaseCount,
		StatusCountDiffs: make(map[string]StatusDiff),
	}

	if expected.Filter != actual.Filter {
		diff.FilterChange = &Change{Expected: expected.Filter, Actual: actual.Filter}
	}
	if expected.Template != actual.Template {
		diff.TemplateChange = &Change{Expected: expected.Template, Actual: actual.Template}
	}

	allStatuses := make(map[string]bool)
	for status := range expected.StatusCounts {
		allStatuses[status] = true
	}
	for status := range actual.StatusCounts {
		allStatuses[status] = true
	}

	for status := range allStatuses {
		expectedCount := expected.StatusCounts[status]
		actualCount := actual.StatusCounts[status]
		if expectedCount != actualCount {
			diff.StatusCountDiffs[status] = StatusDiff{
				Expected: expectedCount,
				Actual:   actualCount,
			}
		}
	}

	expectedNames := make(map[string]bool)
	for _, name := range expected.Names {
		expectedNames[name] = true
	}

	actualNames := make(map[string]bool)
	for _, name := range actual.Names {
		actualNames[name] = true
	}

	for name := range expectedNames {
		if !actualNames[name] {
			diff.MissingNames = append(diff.MissingNames, name)
		}
	}

	for name := range actualNames {
		if !expectedNames[name] {
			diff.ExtraNames = append(diff.ExtraNames, name)
		}
	}

	sort.Strings(diff.MissingNames)
	sort.Strings(diff.ExtraNames)

	if len(diff.MissingNames) == 0 && len(diff.ExtraNames) == 0 {
		diff.OrderChanged = !slices.Equal(expected.Names, actual.Names)
	}

	return diff
}

func getGoldenDir() (string, error) {
	testDataDir, err := getTestDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(testDataDir, "golden"), nil
}

func snapshotFilename(suiteName string) string {
	return unsafePathChars.ReplaceAllString(suiteName, "_") + ".json"
}
