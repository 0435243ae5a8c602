package domain

import "errors"

var (
	ErrNotFound          = errors.New("resource not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrRunActive         = errors.New("a processing run is already active")
	ErrNoActiveRun       = errors.New("no processing run is active")
	ErrNoFiles           = errors.New("no files to process")
	ErrInvalidIterations = errors.New("number of iterations must be at least 1")
	ErrInvalidDelay      = errors.New("delay must not be negative")
	ErrUnknownProvider   = errors.New("unknown provider type")
	ErrNotConfigured     = errors.New("provider client not configured")
	ErrInvalidFormat     = errors.New("unsupported export format")
	ErrFileExists        = errors.New("file already exists in library")
	ErrSinkDisabled      = errors.New("attempt database is not configured")
	ErrNoPDFText         = errors.New("no extractable text in PDF")
)
