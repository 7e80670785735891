package actor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvServiceCurrentActor(t *testing.T) {
	t.Setenv("GITGOV_AUDIT_ACTOR_ID", "alice")
	svc := EnvService{}
	a, err := svc.CurrentActor()
	require.NoError(t, err)
	assert.Equal(t, "alice", a.ID)
}

func TestEnvServiceMissingErrors(t *testing.T) {
	t.Setenv("GITGOV_AUDIT_ACTOR_ID", "")
	svc := EnvService{}
	_, err := svc.CurrentActor()
	assert.Error(t, err)
}

func TestEnvServiceCustomVar(t *testing.T) {
	t.Setenv("CUSTOM_ACTOR", "bob")
	svc := EnvService{EnvVar: "CUSTOM_ACTOR"}
	a, err := svc.CurrentActor()
	require.NoError(t, err)
	assert.Equal(t, "bob", a.ID)
}
