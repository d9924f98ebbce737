package config

import (
	"errors"
	"fmt"
)

// Errors returned by configuration operations.
var (
	// ErrTypeMismatch indicates a value could not be decoded into its setting.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrValidationFailed indicates a decoded value is out of range or unknown.
	ErrValidationFailed = errors.New("validation failed")

	// ErrFileNotFound indicates an explicitly requested config file doesn't exist.
	ErrFileNotFound = errors.New("config file not found")
)

// ValidationError describes a validation failure for a setting.
type ValidationError struct {
	// Path is the setting path that failed validation.
	Path string
	// Message describes the validation error.
	Message string
	// Value is the invalid value.
	Value any
	// Code categorizes the validation error.
	Code ValidationErrorCode
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (value: %v)", e.Path, e.Message, e.Value)
}

// Is reports ErrValidationFailed as a match.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

// ValidationErrorCode categorizes validation errors.
type ValidationErrorCode uint8

const (
	// ErrCodeUnknownSetting indicates an unrecognized setting path.
	ErrCodeUnknownSetting ValidationErrorCode = iota
	// ErrCodeOutOfRange indicates a numeric value is out of range.
	ErrCodeOutOfRange
	// ErrCodeInvalidEnum indicates the value is not in the allowed enum.
	ErrCodeInvalidEnum
)

// String returns a human-readable name for the error code.
func (c ValidationErrorCode) String() string {
	switch c {
	case ErrCodeUnknownSetting:
		return "unknown_setting"
	case ErrCodeOutOfRange:
		return "out_of_range"
	case ErrCodeInvalidEnum:
		return "invalid_enum"
	default:
		return "unknown"
	}
}
