package main

import (
	"testing"

	"github.com/gitgovernance/audit/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestApplyDetectorOverrideNarrowsToRequestedTiers(t *testing.T) {
	cfg := config.Config{Detectors: config.DetectorsConfig{Regex: true, Heuristic: true, LLM: true}}
	applyDetectorOverride(&cfg, []string{"regex"})

	assert.True(t, cfg.Detectors.Regex)
	assert.False(t, cfg.Detectors.Heuristic)
	assert.False(t, cfg.Detectors.LLM)
}

func TestApplyDetectorOverrideNoOpWhenEmpty(t *testing.T) {
	cfg := config.Config{Detectors: config.DetectorsConfig{Regex: true, Heuristic: true}}
	applyDetectorOverride(&cfg, nil)

	assert.True(t, cfg.Detectors.Regex)
	assert.True(t, cfg.Detectors.Heuristic)
}

func TestBuildOrchestratorSkipsLLMWhenDisabled(t *testing.T) {
	cfg := config.Config{Detectors: config.DetectorsConfig{Regex: true}}
	orch := buildOrchestrator(cfg)

	assert.Nil(t, orch.LLM)
	assert.Nil(t, orch.Gate)
	assert.Len(t, orch.Local, 1)
}

func TestBuildOrchestratorWiresLLMWhenEnabled(t *testing.T) {
	cfg := config.Config{
		Detectors: config.DetectorsConfig{Regex: true, Heuristic: true, LLM: true},
		LLM:       config.LLMConfig{Enabled: true, Endpoint: "https://example.test/detect"},
	}
	orch := buildOrchestrator(cfg)

	assert.NotNil(t, orch.LLM)
	assert.NotNil(t, orch.Gate)
	assert.Len(t, orch.Local, 2)
}
