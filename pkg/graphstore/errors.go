package graphstore

import "errors"

// Sentinel errors, following the teacher's errors.New-sentinel style in
// pkg/storage rather than a custom error framework (spec §7).
var (
	ErrNotFound      = errors.New("graphstore: not found")
	ErrInvalidID     = errors.New("graphstore: invalid id")
	ErrInvalidLabel  = errors.New("graphstore: invalid label")
	ErrAlreadyExists = errors.New("graphstore: already exists")
	ErrStoreClosed   = errors.New("graphstore: store is closed")
)
