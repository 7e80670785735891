package output

import (
	"bytes"
	"testing"

	"github.com/gitgovernance/audit/internal/model"
	"github.com/stretchr/testify/assert"
)

func sampleResult() model.AuditResult {
	findings := []model.Finding{
		{RuleID: "PII-001", Category: model.CategoryPIIEmail, Severity: model.SeverityHigh, File: "a.ts", Line: 1, Message: "email found", Detector: model.DetectorRegex},
		{RuleID: "SEC-002", Category: model.CategoryHardcodedSecret, Severity: model.SeverityCritical, File: "b.ts", Line: 4, Message: "aws key found", Detector: model.DetectorRegex},
	}
	return model.AuditResult{
		Findings:     findings,
		Summary:      model.BuildSummary(findings),
		ScannedFiles: 2,
		ScannedLines: 10,
		DurationMS:   42,
		Detectors:    model.ContributingDetectors(findings),
	}
}

func TestTextFormatterFullReport(t *testing.T) {
	var buf bytes.Buffer
	f := NewTextFormatter(&buf, DefaultOptions())
	err := f.Format(sampleResult(), ScanInfo{Target: ".", Version: "1.0.0"})
	assert.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "FINDINGS")
	assert.Contains(t, out, "SUMMARY")
	assert.Contains(t, out, "SCAN INFO")
	assert.Contains(t, out, "PII-001")
	assert.Contains(t, out, "SEC-002")
}

func TestTextFormatterQuietOnlyShowsCritical(t *testing.T) {
	var buf bytes.Buffer
	f := NewTextFormatter(&buf, &Options{Quiet: true, GroupBy: GroupByFile})
	err := f.Format(sampleResult(), ScanInfo{Target: "."})
	assert.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "SEC-002")
	assert.NotContains(t, out, "PII-001")
}

func TestTextFormatterSummaryModeSkipsFindings(t *testing.T) {
	var buf bytes.Buffer
	f := NewTextFormatter(&buf, &Options{Summary: true, GroupBy: GroupByFile})
	err := f.Format(sampleResult(), ScanInfo{Target: "."})
	assert.NoError(t, err)

	out := buf.String()
	assert.NotContains(t, out, "FINDINGS")
	assert.Contains(t, out, "SUMMARY")
}

func TestTextFormatterMaxFindingsTruncates(t *testing.T) {
	var buf bytes.Buffer
	f := NewTextFormatter(&buf, &Options{GroupBy: GroupByFile, MaxFindings: 1})
	err := f.Format(sampleResult(), ScanInfo{Target: "."})
	assert.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "more (use --max-findings 0 to show all)")
}

func TestTextFormatterGroupBySeverityOrdersCriticalFirst(t *testing.T) {
	var buf bytes.Buffer
	f := NewTextFormatter(&buf, &Options{GroupBy: GroupBySeverity})
	err := f.Format(sampleResult(), ScanInfo{Target: "."})
	assert.NoError(t, err)

	out := buf.String()
	criticalIdx := bytes.Index(buf.Bytes(), []byte("CRITICAL"))
	highIdx := bytes.Index(buf.Bytes(), []byte("HIGH"))
	assert.True(t, criticalIdx >= 0 && highIdx >= 0 && criticalIdx < highIdx, "expected critical before high in %s", out)
}

func TestTextFormatterNoFindings(t *testing.T) {
	var buf bytes.Buffer
	f := NewTextFormatter(&buf, DefaultOptions())
	err := f.Format(model.AuditResult{}, ScanInfo{Target: "."})
	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "No findings.")
}
