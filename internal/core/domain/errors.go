package domain

import (
	"errors"
	"fmt"
)

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates authentication failed or missing
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidTransition indicates a document state transition from the wrong state
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrMissingVariable indicates a prompt was rendered without a declared variable
	ErrMissingVariable = errors.New("missing variable")

	// ErrParse indicates a file could not be read or converted to text
	ErrParse = errors.New("parse error")

	// ErrPromptNotFound indicates no prompt template exists for the requested type
	ErrPromptNotFound = errors.New("prompt not found")

	// ErrInference indicates the inference backend failed
	ErrInference = errors.New("inference error")

	// ErrEmbedding indicates the embedding backend failed or returned a malformed response
	ErrEmbedding = errors.New("embedding error")

	// ErrStorage indicates a repository backend failed
	ErrStorage = errors.New("storage error")

	// ErrInvalidProvider indicates an unknown AI provider was specified
	ErrInvalidProvider = errors.New("invalid provider")
)

// InvalidTransitionError reports which operation was attempted from which status.
type InvalidTransitionError struct {
	From DocumentStatus
	Op   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition: cannot %s from %s", e.Op, e.From)
}

// Is makes errors.Is(err, ErrInvalidTransition) hold.
func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// MissingVariableError names the template variable that was not supplied.
type MissingVariableError struct {
	Name string
}

func (e *MissingVariableError) Error() string {
	return fmt.Sprintf("missing variable: %s", e.Name)
}

func (e *MissingVariableError) Is(target error) bool {
	return target == ErrMissingVariable
}
