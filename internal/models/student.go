package models

import (
	"strings"
	"time"
)

// Student is a lesson taker with a prepaid credit balance.
// LessonsRemaining never goes below zero.
type Student struct {
	ID               int64
	FirstName        string
	LastName         string
	Email            string
	Phone            string
	LessonsRemaining int
	CreatedAt        time.Time
}

// FullName joins first and last name
func (s Student) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// HasCredit reports whether one more lesson can be charged
func (s Student) HasCredit() bool {
	return s.LessonsRemaining > 0
}

// StudentInput carries the editable student fields.
// LessonsRemaining is only used on create; balances change afterwards
// through credit operations.
type StudentInput struct {
	FirstName        string `validate:"required,max=100"`
	LastName         string `validate:"required,max=100"`
	Email            string `validate:"omitempty,email,max=255"`
	Phone            string `validate:"max=50"`
	LessonsRemaining int    `validate:"gte=0"`
}

// Normalize trims surrounding whitespace from the text fields
func (in *StudentInput) Normalize() {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
}
