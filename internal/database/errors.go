package database

import "errors"

var (
	// ErrNotFound indicates the referenced row does not exist
	ErrNotFound = errors.New("record not found")

	// ErrConflict indicates a status-conditioned update found the row in a
	// different state than expected (another actor got there first)
	ErrConflict = errors.New("record state conflict")

	// ErrDuplicate indicates a unique constraint violation
	ErrDuplicate = errors.New("record already exists")
)
