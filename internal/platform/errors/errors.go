package apperrors

import "errors"

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrNotFound            = errors.New("not found")
	ErrValidation          = errors.New("validation error")
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrDataIntegrity       = errors.New("data integrity error")
	ErrNoViableRegimes     = errors.New("no viable regimes")
	ErrNoActiveSegment     = errors.New("no active segment")
	ErrActiveSegmentExists = errors.New("active segment already exists")
)
