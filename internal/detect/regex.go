package detect

import (
	"regexp"
	"strings"

	"github.com/gitgovernance/audit/internal/model"
)

// regexRule is a declarative regex-tier rule: one global pattern, scanned
// across the whole file content.
type regexRule struct {
	model.Rule
	Pattern *regexp.Regexp
}

// canonicalRegexRules is the process-lifetime-immutable tier-0 rule table.
var canonicalRegexRules = []regexRule{
	{
		Rule: model.Rule{
			ID: "PII-001", Category: model.CategoryPIIEmail, Severity: model.SeverityHigh,
			Message: "Email address literal found in source",
		},
		Pattern: regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`),
	},
	{
		Rule: model.Rule{
			ID: "PII-002", Category: model.CategoryPIIPhone, Severity: model.SeverityMedium,
			Message: "International phone number literal found in source",
		},
		Pattern: regexp.MustCompile(`\+[1-9]\d{1,3}[\s.\-]?\(?\d{1,4}\)?[\s.\-]?\d{3,4}[\s.\-]?\d{3,4}`),
	},
	{
		Rule: model.Rule{
			ID: "PII-003", Category: model.CategoryPIIFinancial, Severity: model.SeverityCritical,
			Message: "Credit card PAN literal found in source",
		},
		Pattern: regexp.MustCompile(`\b(?:4[0-9]{12}(?:[0-9]{3})?|5[1-5][0-9]{14}|3[47][0-9]{13}|6(?:011|5[0-9]{2})[0-9]{12})\b`),
	},
	{
		Rule: model.Rule{
			ID: "PII-004", Category: model.CategoryPIIGeneric, Severity: model.SeverityCritical,
			Message: "US Social Security Number literal found in source",
		},
		Pattern: regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
	},
	{
		Rule: model.Rule{
			ID: "PII-005", Category: model.CategoryPIIGeneric, Severity: model.SeverityMedium,
			Message: "Sensitive field name assigned a literal value",
		},
		Pattern: regexp.MustCompile(`(?i)\b(ssn|iban|passport_?no|national_?id|tax_?id)\b\s*[:=]\s*["'][^"']+["']`),
	},
	{
		Rule: model.Rule{
			ID: "SEC-001", Category: model.CategoryHardcodedSecret, Severity: model.SeverityCritical,
			Message: "Hardcoded API key literal found in source",
		},
		Pattern: regexp.MustCompile(`(?i)\b(api[_-]?key|apikey|secret[_-]?key)\s*[:=]\s*["'][A-Za-z0-9_\-./+=]{12,}["']`),
	},
	{
		Rule: model.Rule{
			ID: "SEC-002", Category: model.CategoryHardcodedSecret, Severity: model.SeverityCritical,
			Message: "AWS access key ID found in source",
		},
		Pattern: regexp.MustCompile(`\b(?:AKIA|ASIA)[A-Z0-9]{16}\b`),
	},
	{
		Rule: model.Rule{
			ID: "SEC-003", Category: model.CategoryHardcodedSecret, Severity: model.SeverityCritical,
			Message: "PEM private key block found in source",
		},
		Pattern: regexp.MustCompile(`-----BEGIN\s+(RSA\s+|EC\s+|OPENSSH\s+)?PRIVATE KEY-----`),
	},
	{
		Rule: model.Rule{
			ID: "LOG-001", Category: model.CategoryLoggingPII, Severity: model.SeverityHigh,
			Message: "Logging call references a PII-shaped identifier",
		},
		Pattern: regexp.MustCompile(`(?i)\b(log|logger|console)\.\w+\([^)]*\b(email|ssn|password|phone|address|dob|passport)\b[^)]*\)`),
	},
}

// Regex is the tier-0, always-on detector.
type Regex struct{}

func (Regex) Detect(content, path string) ([]model.Finding, error) {
	var findings []model.Finding
	for _, rule := range canonicalRegexRules {
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
				Suggestion:  rule.Suggestion,
				Detector:    model.DetectorRegex,
				Fingerprint: model.Fingerprint(rule.ID, path, line),
				Confidence:  1.0,
			})
		}
	}
	return findings, nil
}

// lineContaining returns the full line of content surrounding byte offset.
func lineContaining(content string, offset int) string {
	start := strings.LastIndexByte(content[:offset], '\n') + 1
	end := strings.IndexByte(content[offset:], '\n')
	if end == -1 {
		return content[start:]
	}
	return content[start : offset+end]
}
