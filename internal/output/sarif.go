package output

import (
	"encoding/json"
	"io"

	sarif "github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/gitgovernance/audit/internal/model"
)

const repositoryURL = "https://github.com/gitgovernance/audit"

// fingerprintKey is the stable SARIF result.fingerprints key carrying the
// normative fingerprint wire format.
const fingerprintKey = "gitgov/v1"

// SARIFFormatter renders an AuditResult as a single-run SARIF 2.1.0 document.
type SARIFFormatter struct {
	writer io.Writer
}

// NewSARIFFormatter creates a SARIF formatter writing to w.
func NewSARIFFormatter(w io.Writer) *SARIFFormatter {
	return &SARIFFormatter{writer: w}
}

// Format writes result as a SARIF 2.1.0 document.
func (f *SARIFFormatter) Format(result model.AuditResult) error {
	report, err := sarif.New(sarif.Version210)
	if err != nil {
		return err
	}

	run := sarif.NewRunWithInformationURI(driverName, repositoryURL)

	buildRules(result.Findings, run)
	for _, finding := range result.Findings {
		buildResult(finding, run)
	}

	report.AddRun(run)

	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

func buildRules(findings []model.Finding, run *sarif.Run) {
	seen := map[string]bool{}
	for _, finding := range findings {
		if seen[finding.RuleID] {
			continue
		}
		seen[finding.RuleID] = true

		rule := run.AddRule(finding.RuleID).
			WithDescription(finding.Message).
			WithName(finding.RuleID).
			WithHelpURI(repositoryURL)
		rule.WithDefaultConfiguration(
			sarif.NewReportingConfiguration().WithLevel(severityToLevel(finding.Severity)),
		)
		rule.WithProperties(map[string]interface{}{
			"tags":              []string{string(finding.Category)},
			"security-severity": severityToScore(finding.Severity),
		})
	}
}

func buildResult(finding model.Finding, run *sarif.Run) {
	result := run.CreateResultForRule(finding.RuleID).
		WithMessage(sarif.NewTextMessage(finding.Message)).
		WithLevel(severityToLevel(finding.Severity))

	region := sarif.NewRegion().WithStartLine(finding.Line)
	if finding.Column > 0 {
		region.WithStartColumn(finding.Column)
	}
	location := sarif.NewLocation().WithPhysicalLocation(
		sarif.NewPhysicalLocation().
			WithArtifactLocation(sarif.NewArtifactLocation().WithUri(finding.File)).
			WithRegion(region),
	)
	result.AddLocation(location)

	result.Fingerprints = map[string]string{fingerprintKey: finding.Fingerprint}
}

func severityToLevel(sev model.Severity) string {
	switch sev {
	case model.SeverityCritical, model.SeverityHigh:
		return "error"
	case model.SeverityMedium:
		return "warning"
	default:
		return "note"
	}
}

func severityToScore(sev model.Severity) string {
	switch sev {
	case model.SeverityCritical:
		return "9.0"
	case model.SeverityHigh:
		return "7.0"
	case model.SeverityMedium:
		return "5.0"
	default:
		return "3.0"
	}
}
