package output

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/gitgovernance/audit/internal/model"
)

// TextFormatter renders an AuditResult as a sectioned human report.
type TextFormatter struct {
	writer  io.Writer
	options *Options
}

// NewTextFormatter creates a text formatter writing to w.
func NewTextFormatter(w io.Writer, opts *Options) *TextFormatter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &TextFormatter{writer: w, options: opts}
}

// Format writes FINDINGS (unless quiet/summary), SUMMARY, and SCAN INFO
// sections for result.
func (f *TextFormatter) Format(result model.AuditResult, info ScanInfo) error {
	if f.options.Quiet {
		f.writeQuiet(result.Findings)
		return nil
	}

	if !f.options.Summary {
		fmt.Fprintln(f.writer, "FINDINGS")
		fmt.Fprintln(f.writer)
		f.writeFindings(result.Findings)
		fmt.Fprintln(f.writer)
	}

	fmt.Fprintln(f.writer, strings.Repeat("-", GetTerminalWidth(f.writer)))
	fmt.Fprintln(f.writer, "SUMMARY")
	f.writeSummary(result.Summary)
	fmt.Fprintln(f.writer)

	fmt.Fprintln(f.writer, "SCAN INFO")
	f.writeScanInfo(result, info)

	return nil
}

func (f *TextFormatter) writeQuiet(findings []model.Finding) {
	for _, finding := range findings {
		if finding.Severity == model.SeverityCritical {
			fmt.Fprintf(f.writer, "%s:%d: %s (%s)\n", finding.File, finding.Line, finding.Message, finding.RuleID)
		}
	}
}

func (f *TextFormatter) writeFindings(findings []model.Finding) {
	if len(findings) == 0 {
		fmt.Fprintln(f.writer, "No findings.")
		return
	}

	groups, order := f.groupFindings(findings)

	rendered := 0
	maxFindings := f.options.MaxFindings
	truncated := false

outer:
	for _, key := range order {
		fmt.Fprintf(f.writer, "%s\n", strings.ToUpper(key))
		for _, finding := range groups[key] {
			if maxFindings > 0 && rendered >= maxFindings {
				truncated = true
				break outer
			}
			f.writeFinding(finding)
			rendered++
		}
		fmt.Fprintln(f.writer)
	}

	if truncated {
		remaining := len(findings) - rendered
		fmt.Fprintf(f.writer, "... %d more (use --max-findings 0 to show all)\n", remaining)
	}
}

func (f *TextFormatter) writeFinding(finding model.Finding) {
	fmt.Fprintf(f.writer, "  [%s] %s %s:%d\n", finding.Severity, finding.RuleID, finding.File, finding.Line)
	fmt.Fprintf(f.writer, "    %s\n", finding.Message)
	if finding.Snippet != "" {
		fmt.Fprintf(f.writer, "    %s\n", finding.Snippet)
	}
}

// groupFindings buckets findings per f.options.GroupBy and returns the
// group contents alongside a stable key order.
func (f *TextFormatter) groupFindings(findings []model.Finding) (map[string][]model.Finding, []string) {
	groups := map[string][]model.Finding{}
	var order []string
	seen := map[string]bool{}

	keyFor := func(finding model.Finding) string {
		switch f.options.GroupBy {
		case GroupBySeverity:
			return string(finding.Severity)
		case GroupByCategory:
			return string(finding.Category)
		default:
			return finding.File
		}
	}

	for _, finding := range findings {
		key := keyFor(finding)
		groups[key] = append(groups[key], finding)
		if !seen[key] {
			seen[key] = true
			order = append(order, key)
		}
	}

	if f.options.GroupBy == GroupBySeverity {
		var severityOrdered []string
		for _, s := range severityOrder {
			if _, ok := groups[string(s)]; ok {
				severityOrdered = append(severityOrdered, string(s))
			}
		}
		return groups, severityOrdered
	}

	sort.Strings(order)
	return groups, order
}

func (f *TextFormatter) writeSummary(s model.Summary) {
	fmt.Fprintf(f.writer, "  Total: %d\n", s.Total)
	fmt.Fprintf(f.writer, "  Critical: %d  High: %d  Medium: %d  Low: %d  Info: %d\n",
		s.BySeverity.Critical, s.BySeverity.High, s.BySeverity.Medium, s.BySeverity.Low, s.BySeverity.Info)
}

func (f *TextFormatter) writeScanInfo(result model.AuditResult, info ScanInfo) {
	fmt.Fprintf(f.writer, "  Target: %s\n", info.Target)
	fmt.Fprintf(f.writer, "  Files scanned: %s  Lines scanned: %s\n",
		humanize.Comma(int64(result.ScannedFiles)), humanize.Comma(int64(result.ScannedLines)))
	fmt.Fprintf(f.writer, "  Duration: %dms\n", result.DurationMS)
	var detectors []string
	for _, d := range result.Detectors {
		detectors = append(detectors, string(d))
	}
	fmt.Fprintf(f.writer, "  Detectors: %s\n", strings.Join(detectors, ", "))
	fmt.Fprintf(f.writer, "  Waivers: %d acknowledged, %d new\n", result.Waivers.Acknowledged, result.Waivers.New)
}
