// Package domain defines the records produced when case tables are planned
// and registered.
package domain

// CaseStatus represents how a registered case behaves when run.
type CaseStatus string

const (
	// CaseStatusActive indicates a case that runs normally.
	CaseStatusActive CaseStatus = "active"
	// CaseStatusSkipped indicates a case that is registered but skips itself.
	CaseStatusSkipped CaseStatus = "skipped"
	// CaseStatusFocused indicates a debugging-only case (Only option).
	// CI should warn when focused cases are committed.
	CaseStatusFocused CaseStatus = "focused"
)
