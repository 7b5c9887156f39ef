package service

import "errors"

var (
	ErrNotFound             = errors.New("not found")
	ErrConflict             = errors.New("conflict")
	ErrInvalidRange         = errors.New("invalid range")
	ErrInvalidInput         = errors.New("invalid input")
	ErrUpstreamUnavailable  = errors.New("upstream unavailable")
	ErrConfirmationRequired = errors.New("confirmation required")
)
