package doctor

import (
	"context"
	"testing"
	"time"

	"github.com/gitgovernance/audit/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckRecordStoreSkipsWithoutPath(t *testing.T) {
	result := checkRecordStore(context.Background(), config.Config{})
	assert.Equal(t, "Record Store", result.Name)
	assert.Equal(t, "SKIP", result.Status)
}

func TestCheckRecordStorePassesAgainstTempDB(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Config{RecordStore: config.RecordStoreConfig{Path: dir + "/audit.db"}}
	result := checkRecordStore(context.Background(), cfg)
	assert.Equal(t, "PASS", result.Status)
}

func TestCheckRecordStoreExternalDSNSkipsOpen(t *testing.T) {
	cfg := config.Config{RecordStore: config.RecordStoreConfig{DSN: "postgres://example"}}
	result := checkRecordStore(context.Background(), cfg)
	assert.Equal(t, "PASS", result.Status)
}

func TestCheckActorServiceWarnsWhenUnset(t *testing.T) {
	cfg := config.Config{Actor: config.ActorConfig{EnvVar: "GITGOV_AUDIT_ACTOR_ID_NOT_SET_FOR_TEST"}}
	result := checkActorService(context.Background(), cfg)
	assert.Equal(t, "WARN", result.Status)
}

func TestCheckActorServicePassesWhenSet(t *testing.T) {
	t.Setenv("GITGOV_AUDIT_ACTOR_ID_TEST", "actor-123")
	cfg := config.Config{Actor: config.ActorConfig{EnvVar: "GITGOV_AUDIT_ACTOR_ID_TEST"}}
	result := checkActorService(context.Background(), cfg)
	assert.Equal(t, "PASS", result.Status)
}

func TestCheckLLMEndpointSkipsWhenDisabled(t *testing.T) {
	result := checkLLMEndpoint(context.Background(), config.Config{})
	assert.Equal(t, "SKIP", result.Status)
}

func TestCheckLLMEndpointFailsWithoutEndpoint(t *testing.T) {
	cfg := config.Config{LLM: config.LLMConfig{Enabled: true}}
	result := checkLLMEndpoint(context.Background(), cfg)
	assert.Equal(t, "FAIL", result.Status)
}

func TestCheckVCSBinaryGitHubWarnsWithoutToken(t *testing.T) {
	cfg := config.Config{VCS: config.VCSConfig{Provider: "github"}}
	result := checkVCSBinary(context.Background(), cfg)
	assert.Equal(t, "WARN", result.Status)
}

func TestRunReturnsAllChecks(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dir := t.TempDir()
	cfg := config.Config{RecordStore: config.RecordStoreConfig{Path: dir + "/audit.db"}}
	diag := Run(ctx, cfg, "test-version")

	require.Len(t, diag.Results, 4)
	assert.Equal(t, "test-version", diag.System.Version)
}
