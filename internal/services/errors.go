package services

import "errors"

// Report service errors
var (
	// Request errors
	ErrNoInput         = errors.New("no dataset provided")
	ErrInvalidInput    = errors.New("invalid input")
	ErrInvalidFileType = errors.New("invalid file type")

	// Batch errors
	ErrNoFilesFound  = errors.New("no files found")
	ErrBatchCanceled = errors.New("batch canceled")

	// General errors
	ErrServiceUnavailable = errors.New("service temporarily unavailable")
)
