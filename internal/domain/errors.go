package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrAlreadySigned     = errors.New("signatory already signed")
	ErrNotAuthorized     = errors.New("not authorized to sign this contract")
	ErrContractCancelled = errors.New("contract cancelled")
	ErrInvalidVariables  = errors.New("invalid contract variables")
	ErrInvalidInput      = errors.New("invalid input")
	ErrRenderFailed      = errors.New("render failed")
	ErrTooManyAttempts   = errors.New("too many attempts")
)

type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError lists every variable that failed validation.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Reason))
	}
	return fmt.Sprintf("%s: %s", ErrInvalidVariables, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidVariables
}
