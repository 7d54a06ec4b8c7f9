package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrTemporary    = errors.New("temporary failure")

	ErrFileNotFound      = errors.New("file not found")
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrParseFailure      = errors.New("parse failure")

	ErrServiceUnreachable = errors.New("classification service unreachable")
	ErrBadStatus          = errors.New("classification service bad status")
	ErrMalformedResponse  = errors.New("classification service malformed response")

	ErrDestinationUnwritable = errors.New("destination unwritable")
	ErrSourceVanished        = errors.New("source vanished")
	ErrNameCollision         = errors.New("name collision")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// ExtractionError reports why text could not be read from a file.
// Kind is one of ErrFileNotFound, ErrUnsupportedFormat or ErrParseFailure.
type ExtractionError struct {
	Kind error
	Path string
	Err  error
}

func NewExtractionError(kind error, path string, err error) *ExtractionError {
	return &ExtractionError{Kind: kind, Path: path, Err: err}
}

func (e *ExtractionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("extract %s: %v", e.Path, e.Kind)
	}
	return fmt.Sprintf("extract %s: %v: %v", e.Path, e.Kind, e.Err)
}

func (e *ExtractionError) Unwrap() []error {
	return causes(e.Kind, e.Err)
}

// ClassificationServiceError reports a failed call to the remote model.
// StatusCode is set only for ErrBadStatus.
type ClassificationServiceError struct {
	Kind       error
	Operation  string
	StatusCode int
	Err        error
}

func NewClassificationServiceError(kind error, operation string, err error) *ClassificationServiceError {
	return &ClassificationServiceError{Kind: kind, Operation: operation, Err: err}
}

func (e *ClassificationServiceError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Operation, e.Kind)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (%d)", msg, e.StatusCode)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ClassificationServiceError) Unwrap() []error {
	return causes(e.Kind, e.Err)
}

// MoveError reports a failed relocation. The source file is left where it was.
type MoveError struct {
	Kind        error
	Source      string
	Destination string
	Err         error
}

func NewMoveError(kind error, source, destination string, err error) *MoveError {
	return &MoveError{Kind: kind, Source: source, Destination: destination, Err: err}
}

func (e *MoveError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("move %s -> %s: %v", e.Source, e.Destination, e.Kind)
	}
	return fmt.Sprintf("move %s -> %s: %v: %v", e.Source, e.Destination, e.Kind, e.Err)
}

func (e *MoveError) Unwrap() []error {
	return causes(e.Kind, e.Err)
}

func causes(kind, err error) []error {
	if err == nil {
		return []error{kind}
	}
	return []error{kind, err}
}

var errorKindNames = []struct {
	kind error
	name string
}{
	{ErrFileNotFound, "not_found"},
	{ErrUnsupportedFormat, "unsupported_format"},
	{ErrParseFailure, "parse_failure"},
	{ErrServiceUnreachable, "unreachable"},
	{ErrBadStatus, "bad_status"},
	{ErrMalformedResponse, "malformed_response"},
	{ErrDestinationUnwritable, "destination_unwritable"},
	{ErrSourceVanished, "source_vanished"},
	{ErrNameCollision, "name_collision"},
	{ErrInvalidInput, "invalid_input"},
	{ErrTemporary, "temporary"},
}

// ErrorKind returns a stable label for logs and metrics.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range errorKindNames {
		if errors.Is(err, k.kind) {
			return k.name
		}
	}
	return "unknown"
}
