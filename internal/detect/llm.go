package detect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/gitgovernance/audit/internal/model"
)

// QuotaType enumerates how an LLM endpoint's usage allowance is metered.
type QuotaType string

const (
	QuotaUnlimited  QuotaType = "unlimited"
	QuotaTrial      QuotaType = "trial"
	QuotaUsageBased QuotaType = "usage-based"
)

// LLMConfig configures the semantic detector and its quota gate.
type LLMConfig struct {
	Enabled       bool
	Endpoint      string
	APIKeyEnvVar  string // name of the process env var carrying the auth secret
	QuotaType     QuotaType
	RemainingUses *int
	ExpiresAt     *int64 // unix seconds
}

// QuotaGate decides whether a semantic-phase call is currently permitted
// and tracks remaining-uses decrements.
type QuotaGate struct {
	cfg LLMConfig
	now func() int64
}

// NewQuotaGate constructs a gate over cfg. now is injectable for tests;
// pass nil to use wall-clock time.
func NewQuotaGate(cfg LLMConfig, now func() int64) *QuotaGate {
	if now == nil {
		now = func() int64 { return time.Now().Unix() }
	}
	return &QuotaGate{cfg: cfg, now: now}
}

// Allow reports whether a call with nCandidates may proceed.
func (q *QuotaGate) Allow(nCandidates int) bool {
	if !q.cfg.Enabled || q.cfg.Endpoint == "" {
		return false
	}
	if q.cfg.QuotaType != QuotaUnlimited {
		if q.cfg.QuotaType == QuotaTrial && q.cfg.ExpiresAt != nil && *q.cfg.ExpiresAt <= q.now() {
			return false
		}
	}
	if q.cfg.RemainingUses != nil && *q.cfg.RemainingUses <= 0 {
		return false
	}
	return nCandidates > 0
}

// Consume decrements RemainingUses by n, floor-clamped at 0, after a
// successful call.
func (q *QuotaGate) Consume(n int) {
	if q.cfg.RemainingUses == nil {
		return
	}
	remaining := *q.cfg.RemainingUses - n
	if remaining < 0 {
		remaining = 0
	}
	q.cfg.RemainingUses = &remaining
}

// rawLLMFinding is one detection as returned by the remote endpoint, before
// mapping into model.Finding.
type rawLLMFinding struct {
	RuleID     string  `json:"rule_id"`
	Category   string  `json:"category"`
	Severity   string  `json:"severity"`
	File       string  `json:"file"`
	Line       int     `json:"line"`
	Column     int     `json:"column,omitempty"`
	Snippet    string  `json:"snippet"`
	Message    string  `json:"message"`
	Confidence float64 `json:"confidence,omitempty"`
}

type llmRequest struct {
	Prompt   string        `json:"prompt"`
	Snippets []CodeSnippet `json:"snippets"`
}

type llmResponse struct {
	Findings []rawLLMFinding `json:"findings"`
}

var canonicalCategories = map[model.Category]bool{
	model.CategoryPIIEmail: true, model.CategoryPIIPhone: true, model.CategoryPIIFinancial: true,
	model.CategoryPIIHealth: true, model.CategoryPIIGeneric: true, model.CategoryHardcodedSecret: true,
	model.CategoryLoggingPII: true, model.CategoryTrackingCookie: true, model.CategoryTrackingAnalyticsID: true,
	model.CategoryUnencryptedStorage: true, model.CategoryThirdPartyTransfer: true, model.CategoryUnknownRisk: true,
}

// LLM is the tier-2 semantic detector. It is not invoked through the
// Detector interface directly (it operates over CodeSnippet batches, not
// whole-file content) — the orchestrator calls DetectSnippets.
type LLM struct {
	cfg        LLMConfig
	httpClient *http.Client
}

// NewLLM constructs an LLM detector against cfg.
func NewLLM(cfg LLMConfig) *LLM {
	return &LLM{cfg: cfg, httpClient: &http.Client{Timeout: 20 * time.Second}}
}

// DetectSnippets sends the given candidate snippets to the configured
// endpoint in a single request and maps the response into findings.
func (l *LLM) DetectSnippets(ctx context.Context, snippets []CodeSnippet) ([]model.Finding, error) {
	if len(snippets) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(llmRequest{Prompt: buildPrompt(snippets), Snippets: snippets})
	if err != nil {
		return nil, fmt.Errorf("marshal LLM request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create LLM request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if l.cfg.APIKeyEnvVar != "" {
		if secret := os.Getenv(l.cfg.APIKeyEnvVar); secret != "" {
			req.Header.Set("Authorization", "Bearer "+secret)
		}
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("LLM request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("LLM endpoint returned %d: %s", resp.StatusCode, string(errBody))
	}

	limited, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("read LLM response: %w", err)
	}

	var parsed llmResponse
	if err := json.Unmarshal(limited, &parsed); err != nil {
		return nil, fmt.Errorf("decode LLM response: %w", err)
	}

	findings := make([]model.Finding, 0, len(parsed.Findings))
	for _, raw := range parsed.Findings {
		category := model.Category(raw.Category)
		if !canonicalCategories[category] {
			category = model.CategoryUnknownRisk
		}
		confidence := raw.Confidence
		if confidence == 0 {
			confidence = 0.9
		}
		findings = append(findings, model.Finding{
			RuleID:      raw.RuleID,
			Category:    category,
			Severity:    model.Severity(raw.Severity),
			File:        raw.File,
			Line:        raw.Line,
			Column:      raw.Column,
			Snippet:     model.TruncateSnippet(raw.Snippet),
			Message:     raw.Message,
			Detector:    model.DetectorLLM,
			Fingerprint: model.Fingerprint(raw.RuleID, raw.File, raw.Line),
			Confidence:  confidence,
		})
	}
	return findings, nil
}

// buildPrompt assembles the semantic-phase request prompt asking the model
// to confirm or refute each candidate's PII/secret exposure.
func buildPrompt(snippets []CodeSnippet) string {
	var b bytes.Buffer
	b.WriteString("You are reviewing source code excerpts for exposed personally identifiable " +
		"information, hardcoded credentials, or undisclosed tracking. For each numbered " +
		"snippet below, decide whether it represents a genuine exposure and, if so, return " +
		"a finding with rule_id, category, severity, file, line, snippet, message, and confidence.\n\n")
	for i, s := range snippets {
		fmt.Fprintf(&b, "Snippet %d (%s:%d-%d, %s):\n%s\n\n", i+1, s.File, s.LineStart, s.LineEnd, s.Language, s.Content)
	}
	return b.String()
}
