package telemetry

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/posthog/posthog-go"
)

// Scan lifecycle events. Properties carry only scan shape (duration, file
// counts, detector mix) — never file paths, snippets, or fingerprints.
const (
	ScanStarted   = "gitgov-audit:scan_started"
	ScanCompleted = "gitgov-audit:scan_completed"
	ScanFailed    = "gitgov-audit:scan_failed"
	WaiverCreated = "gitgov-audit:waiver_created"
)

// PublicKey is the PostHog project key compiled into release builds via
// -ldflags. Empty disables reporting regardless of Init.
var PublicKey string

var (
	enabled    bool
	appVersion string
)

// Init enables or disables analytics reporting for the process lifetime.
func Init(disableMetrics bool) {
	enabled = !disableMetrics
}

// SetVersion records the binary version attached to every event.
func SetVersion(version string) {
	appVersion = version
}

func envFilePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".gitgov-audit", ".env"), nil
}

// LoadEnvFile ensures a stable anonymous install ID exists and loads it
// (plus any other local overrides) into the process environment.
func LoadEnvFile() {
	envFile, err := envFilePath()
	if err != nil {
		return
	}

	if _, statErr := os.Stat(envFile); os.IsNotExist(statErr) {
		if mkErr := os.MkdirAll(filepath.Dir(envFile), 0o755); mkErr != nil {
			return
		}
		_ = godotenv.Write(map[string]string{"install_id": uuid.New().String()}, envFile)
	}

	_ = godotenv.Load(envFile)
}

// ReportEvent sends event with no additional properties.
func ReportEvent(event string) {
	ReportEventWithProperties(event, nil)
}

// ReportEventWithProperties sends event with properties merged over
// automatic platform metadata. Callers must not include PII, file paths,
// snippets, or fingerprints in properties.
func ReportEventWithProperties(event string, properties map[string]interface{}) {
	if !enabled || PublicKey == "" {
		return
	}

	disableGeoIP := true
	client, err := posthog.NewWithConfig(PublicKey, posthog.Config{
		Endpoint:     "https://us.i.posthog.com",
		DisableGeoIP: &disableGeoIP,
	})
	if err != nil {
		return
	}
	defer client.Close()

	props := posthog.NewProperties()
	props.Set("os", runtime.GOOS)
	props.Set("arch", runtime.GOARCH)
	props.Set("go_version", runtime.Version())
	if appVersion != "" {
		props.Set("gitgov_audit_version", appVersion)
	}
	for k, v := range properties {
		props.Set(k, v)
	}

	_ = client.Enqueue(posthog.Capture{
		DistinctId: os.Getenv("install_id"),
		Event:      event,
		Properties: props,
	})
}
