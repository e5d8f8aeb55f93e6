package repository

import "errors"

var (
	// ErrNotFound is returned by mutations that matched no row
	ErrNotFound = errors.New("record not found")
	// ErrInsufficientCredit is returned when a student's balance cannot cover a deduction
	ErrInsufficientCredit = errors.New("student has insufficient lesson credits")
)
