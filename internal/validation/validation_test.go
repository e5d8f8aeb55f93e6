package validation

import (
	"errors"
	"testing"

	"padelmanager/internal/models"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{name: "valid email", email: "test@example.com", wantErr: false},
		{name: "valid email with subdomain", email: "user@mail.example.com", wantErr: false},
		{name: "valid email with plus", email: "user+tag@example.com", wantErr: false},
		{name: "missing @", email: "testexample.com", wantErr: true},
		{name: "missing domain", email: "test@", wantErr: true},
		{name: "missing local part", email: "@example.com", wantErr: true},
		{name: "empty string", email: "", wantErr: true},
		{name: "spaces in email", email: "test @example.com", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateEmail(%q) error = %v, wantErr %v", tt.email, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{name: "valid password", password: "password123", wantErr: false},
		{name: "exactly 8 characters", password: "12345678", wantErr: false},
		{name: "too short", password: "short", wantErr: true},
		{name: "empty", password: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePassword() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateLesson(t *testing.T) {
	valid := models.LessonInput{
		LessonDate: "2024-05-01",
		StartTime:  "10:00",
		EndTime:    "11:00",
		Instructor: "Coach",
	}

	tests := []struct {
		name      string
		mutate    func(*models.LessonInput)
		wantField string
	}{
		{name: "valid lesson", mutate: func(*models.LessonInput) {}},
		{name: "missing instructor", mutate: func(in *models.LessonInput) { in.Instructor = "" }, wantField: "instructor"},
		{name: "missing date", mutate: func(in *models.LessonInput) { in.LessonDate = "" }, wantField: "lesson date"},
		{name: "malformed date", mutate: func(in *models.LessonInput) { in.LessonDate = "01-05-2024" }, wantField: "lesson date"},
		{name: "malformed time", mutate: func(in *models.LessonInput) { in.StartTime = "10am" }, wantField: "start time"},
		{name: "end before start", mutate: func(in *models.LessonInput) { in.EndTime = "09:00" }, wantField: "end time"},
		{name: "end equals start", mutate: func(in *models.LessonInput) { in.EndTime = "10:00" }, wantField: "end time"},
		{name: "single digit start hour", mutate: func(in *models.LessonInput) { in.StartTime, in.EndTime = "9:00", "10:00" }},
		{name: "single digit end hour before start", mutate: func(in *models.LessonInput) { in.StartTime, in.EndTime = "09:30", "9:15" }, wantField: "end time"},
		{name: "single digit end hour after start", mutate: func(in *models.LessonInput) { in.StartTime, in.EndTime = "09:30", "9:45" }},
		{name: "entry code too long", mutate: func(in *models.LessonInput) { in.EntryCode = "123456789012345678901" }, wantField: "entry code"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			err := ValidateLesson(in)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("ValidateLesson() unexpected error: %v", err)
				}
				return
			}

			var ve ValidationErrors
			if !errors.As(err, &ve) {
				t.Fatalf("ValidateLesson() error = %v, want ValidationErrors", err)
			}
			found := false
			for _, fe := range ve {
				if fe.Field == tt.wantField {
					found = true
				}
			}
			if !found {
				t.Errorf("ValidateLesson() = %v, want an error on %q", ve, tt.wantField)
			}
		})
	}
}

func TestStructStudent(t *testing.T) {
	err := Struct(models.StudentInput{FirstName: "Anna", LastName: "Jansen", Email: "not-an-email"})
	if !IsValidationError(err) {
		t.Fatalf("Struct() = %v, want validation error", err)
	}
	if err := Struct(models.StudentInput{FirstName: "Anna", LastName: "Jansen"}); err != nil {
		t.Errorf("Struct() with optional email empty: %v", err)
	}
	if err := Struct(models.StudentInput{FirstName: "Anna", LastName: "Jansen", LessonsRemaining: -1}); !IsValidationError(err) {
		t.Errorf("Struct() with negative credits = %v, want validation error", err)
	}
}

func TestStructSetup(t *testing.T) {
	err := Struct(models.SetupInput{Username: "admin", Email: "a@example.com", Password: "password123", Confirm: "different1"})
	var ve ValidationErrors
	if !errors.As(err, &ve) || ve[0].Field != "confirm" {
		t.Errorf("Struct() = %v, want mismatch on confirm", err)
	}
}
