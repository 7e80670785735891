// Package output renders an AuditResult as text, JSON, or SARIF 2.1.0, and
// computes the GatePolicy exit code.
package output

import "github.com/gitgovernance/audit/internal/model"

// GroupBy selects how the text emitter groups findings.
type GroupBy string

const (
	GroupByFile     GroupBy = "file"
	GroupBySeverity GroupBy = "severity"
	GroupByCategory GroupBy = "category"
)

// Options configures the text emitter's rendering.
type Options struct {
	Quiet       bool
	Summary     bool
	GroupBy     GroupBy
	MaxFindings int // 0 = no cap
}

// ScanInfo carries the run metadata rendered in the text "SCAN INFO"
// section and the JSON envelope's scan block.
type ScanInfo struct {
	Target        string
	Version       string
	DurationMS    int64
	RulesExecuted int
}

// DefaultOptions returns the emitter defaults: group by file, no cap.
func DefaultOptions() *Options {
	return &Options{GroupBy: GroupByFile}
}

var severityOrder = []model.Severity{
	model.SeverityCritical, model.SeverityHigh, model.SeverityMedium, model.SeverityLow, model.SeverityInfo,
}
