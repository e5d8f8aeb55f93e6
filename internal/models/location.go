package models

import (
	"strings"
	"time"
)

// Location is a venue where lessons take place
type Location struct {
	ID               int64
	Name             string
	Address          string
	HasEntryCode     bool
	DefaultEntryCode string
	CreatedAt        time.Time
}

// EntryCodeFor returns the code a new lesson here should carry: the explicit
// one when given, else the location default when the location uses codes.
func (l *Location) EntryCodeFor(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if l != nil && l.HasEntryCode {
		return l.DefaultEntryCode
	}
	return ""
}

// LocationInput carries the editable location fields
type LocationInput struct {
	Name             string `validate:"required,max=255"`
	Address          string `validate:"max=1000"`
	HasEntryCode     bool
	DefaultEntryCode string `validate:"max=20"`
}

// Normalize trims text fields and drops the default code when the location
// does not use entry codes.
func (in *LocationInput) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Address = strings.TrimSpace(in.Address)
	in.DefaultEntryCode = strings.TrimSpace(in.DefaultEntryCode)
	if !in.HasEntryCode {
		in.DefaultEntryCode = ""
	}
}
