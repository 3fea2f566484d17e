package entity

import "errors"

// Domain errors
var (
	// File errors
	ErrNoFiles           = errors.New("no files uploaded")
	ErrFileTooLarge      = errors.New("file too large")
	ErrTooManyFiles      = errors.New("too many files")
	ErrTotalSizeTooLarge = errors.New("total file size too large")

	// Session errors
	ErrEmptySessionID = errors.New("session id cannot be empty")

	// Model errors
	ErrModelUnavailable = errors.New("model unavailable")
	ErrEmptyEmbedding   = errors.New("empty embedding")
	ErrEmbeddingCount   = errors.New("embedding count mismatch")
	ErrNotImplemented   = errors.New("not implemented")

	// Validation errors
	ErrInvalidFormat     = errors.New("invalid format")
	ErrFormatUnavailable = errors.New("format unavailable")
	ErrInvalidParameter  = errors.New("invalid parameter")
)
