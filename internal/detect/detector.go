// Package detect implements the three detection tiers — regex, heuristic,
// and LLM — and the orchestrator that composes them into a single pass of
// findings over one file's content.
package detect

import "github.com/gitgovernance/audit/internal/model"

// Detector is the single capability every tier implements. Detectors are
// independent and must not observe each other's output.
type Detector interface {
	Detect(content, path string) ([]model.Finding, error)
}

// CodeSnippet is the unit of work sent to the LLM detector: a bounded
// window of context around a low-confidence local finding.
type CodeSnippet struct {
	File         string
	LineStart    int
	LineEnd      int
	Language     string
	Content      string
	HeuristicTags []string
}
