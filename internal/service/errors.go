package service

import "errors"

var (
	ErrInvalid = errors.New("invalid")
	// ErrGone covers both entries that never existed and soft-deleted ones.
	ErrGone = errors.New("gone")
)
