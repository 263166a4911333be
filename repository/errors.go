package repository

import "errors"

var (
	ErrRecordNotFound    = errors.New("record not found")
	ErrStoreConflict     = errors.New("store conflict: conditional update affected zero rows")
	ErrInvalidTransition = errors.New("invalid duel status transition")
)
