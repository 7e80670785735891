package output

import (
	"fmt"
	"strings"

	"github.com/gitgovernance/audit/internal/model"
)

// ExitCode is the process exit code GatePolicy computes for a scan.
type ExitCode int

const (
	// ExitCodeSuccess indicates no retained finding met the fail-on threshold.
	ExitCodeSuccess ExitCode = 0

	// ExitCodeFindings indicates at least one retained finding met or
	// exceeded the fail-on threshold, or that the run hit an unrecoverable
	// error before a gate decision could be made. The CLI surface has only
	// two exit codes: 0 and 1.
	ExitCodeFindings ExitCode = 1
)

// FailOn is the single-severity gate threshold accepted by --fail-on.
type FailOn string

const (
	FailOnCritical FailOn = "critical"
	FailOnHigh     FailOn = "high"
	FailOnMedium   FailOn = "medium"
	FailOnLow      FailOn = "low"
	FailOnNone     FailOn = "none"
)

// rank returns the minimum severity rank that trips the gate. FailOnNone
// never trips, regardless of findings.
func (f FailOn) rank() int {
	switch f {
	case FailOnCritical:
		return model.SeverityCritical.Rank()
	case FailOnHigh:
		return model.SeverityHigh.Rank()
	case FailOnMedium:
		return model.SeverityMedium.Rank()
	case FailOnLow:
		return model.SeverityLow.Rank()
	default:
		return model.SeverityCritical.Rank() + 1
	}
}

// InvalidFailOnError is returned when an unrecognized --fail-on value is
// supplied.
type InvalidFailOnError struct {
	Value string
}

func (e *InvalidFailOnError) Error() string {
	return fmt.Sprintf("invalid --fail-on value %q, must be one of: critical, high, medium, low, none", e.Value)
}

// ParseFailOn normalizes and validates a --fail-on flag value.
func ParseFailOn(value string) (FailOn, error) {
	normalized := FailOn(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case FailOnCritical, FailOnHigh, FailOnMedium, FailOnLow, FailOnNone:
		return normalized, nil
	case "":
		return FailOnHigh, nil
	default:
		return "", &InvalidFailOnError{Value: value}
	}
}

// DetermineExitCode computes the gate decision for result under failOn.
//
// Precedence:
//  1. ExitCodeFindings - if hadErrors is true.
//  2. ExitCodeFindings - if any retained finding's severity rank is at or
//     above failOn's threshold.
//  3. ExitCodeSuccess - otherwise.
func DetermineExitCode(result model.AuditResult, failOn FailOn, hadErrors bool) ExitCode {
	if hadErrors {
		return ExitCodeFindings
	}

	if failOn == FailOnNone {
		return ExitCodeSuccess
	}

	threshold := failOn.rank()
	for _, finding := range result.Findings {
		if finding.Severity.Rank() >= threshold {
			return ExitCodeFindings
		}
	}

	return ExitCodeSuccess
}
