package output

import (
	"encoding/json"
	"io"

	"github.com/gitgovernance/audit/internal/model"
)

// jsonEnvelope is the stable-field-ordering JSON document wrapping an
// AuditResult with tool and scan metadata.
type jsonEnvelope struct {
	Tool    jsonTool         `json:"tool"`
	Scan    ScanInfo         `json:"scan"`
	Result  model.AuditResult `json:"result"`
}

type jsonTool struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// driverName is the tool name embedded in both the JSON and SARIF emitters.
const driverName = "gitgov-audit"

// JSONFormatter serializes the full AuditResult tree with 2-space
// indentation.
type JSONFormatter struct {
	writer io.Writer
}

// NewJSONFormatter creates a JSON formatter writing to w.
func NewJSONFormatter(w io.Writer) *JSONFormatter {
	return &JSONFormatter{writer: w}
}

// Format writes result as indented JSON.
func (f *JSONFormatter) Format(result model.AuditResult, info ScanInfo) error {
	envelope := jsonEnvelope{
		Tool:   jsonTool{Name: driverName, Version: info.Version},
		Scan:   info,
		Result: result,
	}
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(envelope)
}
