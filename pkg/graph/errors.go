package graph

import (
	"errors"
	"fmt"
)

var (
	ErrInstanceNotFound      = errors.New("instance not found")
	ErrAmbiguousOccurrence   = errors.New("ambiguous occurrence id")
	ErrFrameMissingConnector = errors.New("frame mate does not reference two occurrences")
	ErrEmptyDOFName          = errors.New("degree of freedom has no name")
	ErrRootNotInGraph        = errors.New("root not in graph")
	ErrRerootInconsistency   = errors.New("mate direction contradicts tree")
	ErrNoTrunkCandidate      = errors.New("no trunk candidate")
)

// MateError ties a failure to the mate feature that caused it.
type MateError struct {
	Mate string
	Err  error
}

func (e *MateError) Error() string {
	return fmt.Sprintf("mate %q: %v", e.Mate, e.Err)
}

func (e *MateError) Unwrap() error {
	return e.Err
}

// Severity indicates whether a diagnostic blocks conversion or is merely
// informational.
type Severity int

const (
	SeverityError   Severity = iota // blocks conversion
	SeverityWarning                 // informational
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// Diagnostic describes a single finding about the assembly.
type Diagnostic struct {
	Subject  string   // mate, connector or occurrence the finding is about
	Message  string   // human-readable description
	Severity Severity // error or warning
}

func (d Diagnostic) Error() string {
	if d.Subject == "" {
		return fmt.Sprintf("[%s] %s", d.Severity, d.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", d.Severity, d.Subject, d.Message)
}

// Warn returns a warning diagnostic.
func Warn(subject, format string, args ...any) Diagnostic {
	return Diagnostic{Subject: subject, Message: fmt.Sprintf(format, args...), Severity: SeverityWarning}
}
