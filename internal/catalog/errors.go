package catalog

import "errors"

var (
	ErrInvalidCatalog      = errors.New("invalid catalog")
	ErrInvalidName         = errors.New("invalid name")
	ErrInvalidSeverity     = errors.New("invalid severity")
	ErrMissingCondition    = errors.New("state has no condition")
	ErrDuplicateState      = errors.New("duplicate state")
	ErrDuplicateIntention  = errors.New("duplicate intention")
	ErrDuplicateResolution = errors.New("duplicate resolution")
	ErrDuplicateTemplate   = errors.New("duplicate template")
	ErrUnknownState        = errors.New("unknown state")
	ErrUnknownIntention    = errors.New("unknown intention")
	ErrDanglingTemplate    = errors.New("dangling template reference")
	ErrInvalidEscape       = errors.New("invalid escape mode")
)
