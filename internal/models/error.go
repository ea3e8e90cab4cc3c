package models

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindFilterConflict  ErrorKind = "FilterConflict"
	KindInvalidFilter   ErrorKind = "InvalidFilter"
	KindFetchFailure    ErrorKind = "FetchFailure"
	KindDownloadFailure ErrorKind = "DownloadFailure"
	KindExtraction      ErrorKind = "ExtractionError"
	KindSchemaBootstrap ErrorKind = "SchemaBootstrapFailure"
	KindLoadTransaction ErrorKind = "LoadTransactionFailure"
)

var (
	ErrFilterConflict  = errors.New("label and class filters cannot be used at the same time")
	ErrInvalidFilter   = errors.New("invalid link filter")
	ErrFetchFailure    = errors.New("fetch failed")
	ErrDownloadFailure = errors.New("download failed")
	ErrExtraction      = errors.New("no tabular content found")
	ErrSchemaBootstrap = errors.New("schema bootstrap failed")
	ErrLoadTransaction = errors.New("load transaction failed")
)

var sentinels = map[ErrorKind]error{
	KindFilterConflict:  ErrFilterConflict,
	KindInvalidFilter:   ErrInvalidFilter,
	KindFetchFailure:    ErrFetchFailure,
	KindDownloadFailure: ErrDownloadFailure,
	KindExtraction:      ErrExtraction,
	KindSchemaBootstrap: ErrSchemaBootstrap,
	KindLoadTransaction: ErrLoadTransaction,
}

// AppError carries the kind of a pipeline failure and the source it happened on.
type AppError struct {
	Kind    ErrorKind
	Source  string
	Message string
	Err     error
}

func NewAppError(kind ErrorKind, source, message string, err error) *AppError {
	return &AppError{Kind: kind, Source: source, Message: message, Err: err}
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s [%s]: %s - %v", e.Kind, e.Source, e.Message, e.Err)
	}
	return fmt.Sprintf("%s [%s]: %s", e.Kind, e.Source, e.Message)
}

// Unwrap exposes both the kind sentinel and the underlying cause to errors.Is.
func (e *AppError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s, ok := sentinels[e.Kind]; ok {
		errs = append(errs, s)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// KindOf returns the kind of the first AppError in the chain, or "" when there is none.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}
