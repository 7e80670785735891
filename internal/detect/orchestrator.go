package detect

import (
	"context"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/gitgovernance/audit/internal/model"
)

// semanticPhaseThreshold is the local-finding confidence ceiling below which
// a finding becomes an LLM candidate.
const semanticPhaseThreshold = 0.8

// contextLines is the number of lines of context on either side of a
// candidate finding sent to the semantic phase.
const contextLines = 2

var languageByExt = map[string]string{
	".ts": "typescript", ".tsx": "typescript",
	".js": "javascript", ".jsx": "javascript",
	".py": "python",
	".go": "go",
	".java": "java",
	".rs": "rust",
	".rb": "ruby",
}

func languageFor(path string) string {
	if lang, ok := languageByExt[strings.ToLower(filepath.Ext(path))]; ok {
		return lang
	}
	return "unknown"
}

// RuleOverride adjusts or disables a canonical rule's output, keyed by
// rule ID. The canonical rule tables themselves stay process-lifetime
// immutable; an override is applied to a rule's findings, not the table.
type RuleOverride struct {
	Severity model.Severity
	Disabled bool
}

// Orchestrator composes the local detector tiers with an optional semantic
// (LLM) phase and deduplicates the combined output by fingerprint.
type Orchestrator struct {
	Local []Detector
	LLM   *LLM
	Gate  *QuotaGate

	// RuleOverrides adjusts severity or disables canonical rules by ID,
	// sourced from user configuration. A nil map applies no overrides.
	RuleOverrides map[string]RuleOverride
}

// NewOrchestrator builds an Orchestrator with the regex tier always
// included, plus heuristic when enabled, plus an optional LLM tier.
func NewOrchestrator(includeHeuristic bool, llm *LLM, gate *QuotaGate) *Orchestrator {
	local := []Detector{Regex{}}
	if includeHeuristic {
		local = append(local, Heuristic{})
	}
	return &Orchestrator{Local: local, LLM: llm, Gate: gate}
}

// Detect runs the local phase over content, then — when a gate and LLM
// client are configured and quota allows — the semantic phase over
// low-confidence candidates, and returns the fingerprint-deduped union
// with local findings preferred over LLM findings on collision.
func (o *Orchestrator) Detect(ctx context.Context, content, path string) []model.Finding {
	var local []model.Finding
	for _, d := range o.Local {
		found, err := d.Detect(content, path)
		if err != nil {
			continue // per-file detector failure is swallowed
		}
		local = append(local, found...)
	}
	local = applyRuleOverrides(local, o.RuleOverrides)

	var candidates []model.Finding
	for _, f := range local {
		if f.Confidence < semanticPhaseThreshold {
			candidates = append(candidates, f)
		}
	}

	var llmFindings []model.Finding
	if o.LLM != nil && o.Gate != nil && len(candidates) > 0 && o.Gate.Allow(len(candidates)) {
		snippets := make([]CodeSnippet, 0, len(candidates))
		lines := strings.Split(content, "\n")
		for _, c := range candidates {
			start := c.Line - contextLines
			if start < 1 {
				start = 1
			}
			end := c.Line + contextLines
			if end > len(lines) {
				end = len(lines)
			}
			snippets = append(snippets, CodeSnippet{
				File:      path,
				LineStart: start,
				LineEnd:   end,
				Language:  languageFor(path),
				Content:   strings.Join(lines[start-1:end], "\n"),
			})
		}
		found, err := o.LLM.DetectSnippets(ctx, snippets)
		if err == nil {
			llmFindings = found
			o.Gate.Consume(len(candidates))
		}
		// LLM detector failure is swallowed; local findings are returned.
	}

	return dedup(append(local, llmFindings...))
}

// applyRuleOverrides drops findings from disabled rules and rewrites
// severity for rules with an overridden severity. A nil or empty overrides
// map is a no-op.
func applyRuleOverrides(findings []model.Finding, overrides map[string]RuleOverride) []model.Finding {
	if len(overrides) == 0 {
		return findings
	}
	out := make([]model.Finding, 0, len(findings))
	for _, f := range findings {
		ov, ok := overrides[f.RuleID]
		if ok && ov.Disabled {
			continue
		}
		if ok && ov.Severity != "" {
			f.Severity = ov.Severity
		}
		out = append(out, f)
	}
	return out
}

// dedup filters so the first finding for each fingerprint wins, assigning
// each surviving occurrence its opaque identity. Callers pass local
// findings before LLM findings so local is preferred.
func dedup(findings []model.Finding) []model.Finding {
	seen := make(map[string]bool, len(findings))
	out := make([]model.Finding, 0, len(findings))
	for _, f := range findings {
		if seen[f.Fingerprint] {
			continue
		}
		seen[f.Fingerprint] = true
		f.ID = uuid.NewString()
		out = append(out, f)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].File != out[j].File {
			return out[i].File < out[j].File
		}
		if out[i].Line != out[j].Line {
			return out[i].Line < out[j].Line
		}
		return out[i].RuleID < out[j].RuleID
	})
	return out
}
