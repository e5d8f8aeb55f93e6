package calendar

import (
	"strings"

	"padelmanager/internal/models"
)

// Summary builds the event title from the students' first names:
// "Lesson with A", "Lesson with A and B", "Lesson with A, B and C".
func Summary(students []models.Student) string {
	if len(students) == 0 {
		return "Padel Lesson"
	}

	names := make([]string, 0, len(students))
	for _, s := range students {
		names = append(names, s.FirstName)
	}

	if len(names) == 1 {
		return "Lesson with " + names[0]
	}
	last := names[len(names)-1]
	return "Lesson with " + strings.Join(names[:len(names)-1], ", ") + " and " + last
}

// Description builds the event body: instructor, entry code banner, students
// and notes
func Description(lesson *models.Lesson) string {
	var b strings.Builder

	b.WriteString("Instructor: ")
	b.WriteString(lesson.Instructor)
	b.WriteString("\n")

	if lesson.EntryCode != "" {
		b.WriteString("\n🔑 ENTRY CODE: ")
		b.WriteString(lesson.EntryCode)
		b.WriteString("\n")
	}

	if len(lesson.Assignments) > 0 {
		b.WriteString("\nStudents:\n")
		for _, s := range lesson.Students() {
			b.WriteString("- ")
			b.WriteString(s.FullName())
			b.WriteString("\n")
		}
	}

	if lesson.Notes != "" {
		b.WriteString("\nNotes:\n")
		b.WriteString(lesson.Notes)
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

// LocationText builds the event location. The location's default entry code
// is appended only when the lesson has no code of its own, since that one is
// already shown in the description.
func LocationText(lesson *models.Lesson) string {
	loc := lesson.Location
	if loc == nil {
		return ""
	}

	text := loc.Name
	if loc.Address != "" {
		text += ", " + loc.Address
	}
	if lesson.EntryCode == "" && loc.HasEntryCode && loc.DefaultEntryCode != "" {
		text += " (entry code: " + loc.DefaultEntryCode + ")"
	}
	return text
}
