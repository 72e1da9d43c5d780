package gogen

import "errors"

// Errors
var (
	ErrInvalidGraph        = errors.New("invalid graph")
	ErrInvalidPartition    = errors.New("invalid partition")
	ErrSearchLimitExceeded = errors.New("canonical search limit exceeded")
	ErrBadEncoding         = errors.New("bad graph6 encoding")
	ErrBadCatalogParam     = errors.New("bad catalog param")
	ErrBadModelParam       = errors.New("bad model param")
	ErrCatalogReadOnly     = errors.New("catalog is read-only")
	ErrStreamConsumed      = errors.New("sample stream already consumed")
)
