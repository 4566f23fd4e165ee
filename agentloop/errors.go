package agentloop

import (
	"errors"
	"fmt"

	"github.com/martinemde/toolloop/llm"
)

// ErrExhausted is reported by Result.Err when a run used its whole
// iteration budget without a final answer.
var ErrExhausted = errors.New("iteration budget exhausted")

// DuplicateToolError is returned by Register when the name is taken.
type DuplicateToolError struct {
	Name string
}

func (e *DuplicateToolError) Error() string {
	return fmt.Sprintf("tool %q is already registered", e.Name)
}

// UnknownToolError means the model asked for a tool the registry does not
// hold. It ends the run.
type UnknownToolError struct {
	Name      string
	ToolUseID string
}

func (e *UnknownToolError) Error() string {
	if e.ToolUseID == "" {
		return fmt.Sprintf("unknown tool %q", e.Name)
	}
	return fmt.Sprintf("unknown tool %q (tool_use %s)", e.Name, e.ToolUseID)
}

// SchemaError is returned by Register when a tool's input schema is not a
// valid JSON Schema.
type SchemaError struct {
	Tool  string
	Cause error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("tool %q: invalid input schema: %v", e.Tool, e.Cause)
}

func (e *SchemaError) Unwrap() error {
	return e.Cause
}

// StopReasonError ends a run whose model response cannot be acted on.
type StopReasonError struct {
	Reason llm.StopReason
	Detail string
}

func (e *StopReasonError) Error() string {
	msg := fmt.Sprintf("unexpected stop reason %q", e.Reason)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}
