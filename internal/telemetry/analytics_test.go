package telemetry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitTogglesEnabled(t *testing.T) {
	Init(false)
	assert.True(t, enabled)
	Init(true)
	assert.False(t, enabled)
}

func TestLoadEnvFileCreatesInstallID(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	LoadEnvFile()

	envFile := filepath.Join(home, ".gitgov-audit", ".env")
	require.FileExists(t, envFile)

	env, err := godotenv.Read(envFile)
	require.NoError(t, err)
	assert.Len(t, env["install_id"], 36)
	assert.Equal(t, env["install_id"], os.Getenv("install_id"))
}

func TestLoadEnvFileReusesExistingID(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	LoadEnvFile()
	first := os.Getenv("install_id")

	os.Unsetenv("install_id")
	LoadEnvFile()
	second := os.Getenv("install_id")

	assert.Equal(t, first, second)
}

func TestReportEventNoopsWithoutPublicKey(t *testing.T) {
	Init(true)
	PublicKey = ""
	ReportEvent(ScanStarted)
	// disabled + no key: must not panic, nothing to assert beyond that.
}

func TestReportEventWithPropertiesDisabledIsNoop(t *testing.T) {
	Init(false)
	PublicKey = ""
	ReportEventWithProperties(ScanCompleted, map[string]interface{}{"file_count": 3})
}
