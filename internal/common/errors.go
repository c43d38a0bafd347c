package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrNotFound      = errors.New("resource not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrCorruptLedger = errors.New("corrupt ledger")
	ErrInvalidRecord = errors.New("invalid expense record")
	ErrUnknownLayout = errors.New("unrecognized ledger layout")
	ErrOCR           = errors.New("ocr failed")
	ErrJournal       = errors.New("journal error")
)

// Error codes
const (
	CodeConfig  = "CONFIG_ERROR"
	CodeLedger  = "LEDGER_ERROR"
	CodeOCR     = "OCR_ERROR"
	CodeJournal = "JOURNAL_ERROR"
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// CorruptLedgerError describes why an existing ledger file could not be read back.
type CorruptLedgerError struct {
	Path   string
	Reason string
	Cause  error
}

func (e *CorruptLedgerError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("corrupt ledger %s: %s: %v", e.Path, e.Reason, e.Cause)
	}
	return fmt.Sprintf("corrupt ledger %s: %s", e.Path, e.Reason)
}

// Is makes errors.Is(err, ErrCorruptLedger) match.
func (e *CorruptLedgerError) Is(target error) bool {
	return target == ErrCorruptLedger
}

func (e *CorruptLedgerError) Unwrap() error {
	return e.Cause
}
