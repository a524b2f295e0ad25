// Package analysis defines the error contract of the static-analysis
// pipeline that consumes lowered programs.
package analysis

import (
	"fmt"

	"github.com/opensource-finance/kestrel/internal/dir"
)

// ErrorTypeUnsupportedProgramKey is the sole error category lowering
// produces: a program referenced a key kind the valued domain cannot
// represent.
const ErrorTypeUnsupportedProgramKey = "unsupported_program_key"

// AnalysisErrorType is the leaf error raised inside lowering. It
// satisfies the error interface so the fail-fast element-wise maps can
// propagate it unchanged.
type AnalysisErrorType struct {
	Type string         `json:"type"`
	Key  dir.DirKeyKind `json:"key,omitempty"`
}

// UnsupportedProgramKey builds the error for a key kind that has no
// valued counterpart.
func UnsupportedProgramKey(key dir.DirKeyKind) AnalysisErrorType {
	return AnalysisErrorType{Type: ErrorTypeUnsupportedProgramKey, Key: key}
}

func (e AnalysisErrorType) Error() string {
	return fmt.Sprintf("%s: %s", e.Type, e.Key)
}

// AnalysisError wraps the leaf error type with a metadata map at the
// program level. Lowering always attaches an empty map: the failing
// rule or comparison position is deliberately not recorded, matching
// the existing wire contract.
type AnalysisError struct {
	Type     AnalysisErrorType `json:"error_type"`
	Metadata map[string]any    `json:"metadata"`
}

func (e *AnalysisError) Error() string {
	return e.Type.Error()
}

func (e *AnalysisError) Unwrap() error {
	return e.Type
}
