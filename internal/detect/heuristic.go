package detect

import (
	"regexp"
	"strings"

	"github.com/gitgovernance/audit/internal/model"
)

type heuristicRule struct {
	model.Rule
	Pattern    *regexp.Regexp
	Confidence float64
}

// canonicalHeuristicRules is the tier-1, opt-in, low-confidence rule table.
var canonicalHeuristicRules = []heuristicRule{
	{
		Rule: model.Rule{
			ID: "HEUR-001", Category: model.CategoryPIIGeneric, Severity: model.SeverityMedium,
			Message: "Sensitive-sounding variable name",
		},
		Pattern:    regexp.MustCompile(`(?i)\b(var|let|const)\s+(ssn|social_?security|credit_?card|dob|date_?of_?birth)\w*\b`),
		Confidence: 0.7,
	},
	{
		Rule: model.Rule{
			ID: "HEUR-002", Category: model.CategoryLoggingPII, Severity: model.SeverityMedium,
			Message: "Logging call references a user or customer object directly",
		},
		Pattern:    regexp.MustCompile(`(?i)\b(log|logger|console)\.\w+\([^)]*\b(user|customer|account)\b[^)]*\)`),
		Confidence: 0.6,
	},
	{
		Rule: model.Rule{
			ID: "HEUR-003", Category: model.CategoryThirdPartyTransfer, Severity: model.SeverityLow,
			Message: "Serialization of a sensitive-sounding object",
		},
		Pattern:    regexp.MustCompile(`(?i)JSON\.stringify\([^)]*\b(user|customer|account|profile)\b[^)]*\)`),
		Confidence: 0.5,
	},
}

// Heuristic is the tier-1, opt-in detector.
type Heuristic struct{}

func (Heuristic) Detect(content, path string) ([]model.Finding, error) {
	var findings []model.Finding
	for _, rule := range canonicalHeuristicRules {
		locs := rule.Pattern.FindAllStringIndex(content, -1)
		for _, loc := range locs {
			line := 1 + strings.Count(content[:loc[0]], "\n")
			snippet := model.TruncateSnippet(strings.TrimSpace(lineContaining(content, loc[0])))
			findings = append(findings, model.Finding{
				RuleID:      rule.ID,
				Category:    rule.Category,
				Severity:    rule.Severity,
				File:        path,
				Line:        line,
				Snippet:     snippet,
				Message:     rule.Message,
				Detector:    model.DetectorHeuristic,
				Fingerprint: model.Fingerprint(rule.ID, path, line),
				Confidence:  rule.Confidence,
			})
		}
	}
	return findings, nil
}
