package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"padelmanager/internal/models"
	"padelmanager/internal/validation"
)

// pathID parses a numeric path wildcard
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", name, r.PathValue(name))
	}
	return id, nil
}

func formInt(r *http.Request, name string) (int, error) {
	value := strings.TrimSpace(r.FormValue(name))
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a whole number", name)
	}
	return n, nil
}

func formIDs(r *http.Request, name string) []int64 {
	var ids []int64
	for _, raw := range r.Form[name] {
		if id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64); err == nil && id > 0 {
			ids = append(ids, id)
		}
	}
	return ids
}

func formOptionalID(r *http.Request, name string) *int64 {
	id, err := strconv.ParseInt(strings.TrimSpace(r.FormValue(name)), 10, 64)
	if err != nil || id <= 0 {
		return nil
	}
	return &id
}

// parseStudentForm reads the student fields. An empty lessons_remaining means
// zero; anything else must be a whole number.
func parseStudentForm(r *http.Request) (models.StudentInput, error) {
	in := models.StudentInput{
		FirstName: r.FormValue("first_name"),
		LastName:  r.FormValue("last_name"),
		Email:     r.FormValue("email"),
		Phone:     r.FormValue("phone"),
	}
	if strings.TrimSpace(r.FormValue("lessons_remaining")) == "" {
		return in, nil
	}
	n, err := formInt(r, "lessons_remaining")
	if err != nil {
		return in, validation.ValidationErrors{{Field: "lessons remaining", Message: "must be a whole number"}}
	}
	in.LessonsRemaining = n
	return in, nil
}

func parseLocationForm(r *http.Request) models.LocationInput {
	return models.LocationInput{
		Name:             r.FormValue("name"),
		Address:          r.FormValue("address"),
		HasEntryCode:     r.FormValue("has_entry_code") != "",
		DefaultEntryCode: r.FormValue("default_entry_code"),
	}
}

func parseLessonForm(r *http.Request) models.LessonInput {
	return models.LessonInput{
		LessonDate: r.FormValue("lesson_date"),
		StartTime:  r.FormValue("start_time"),
		EndTime:    r.FormValue("end_time"),
		Instructor: r.FormValue("instructor"),
		LocationID: formOptionalID(r, "location_id"),
		Notes:      r.FormValue("notes"),
		EntryCode:  r.FormValue("entry_code"),
		StudentIDs: formIDs(r, "student_ids"),
	}
}

// parseLessonPatch builds a patch from the fields present in the form. The
// roster is only replaced when the form carries the roster marker, since an
// empty checkbox group is not submitted at all.
func parseLessonPatch(r *http.Request) (models.LessonPatch, error) {
	var patch models.LessonPatch
	has := func(name string) bool {
		_, ok := r.PostForm[name]
		return ok
	}

	if has("lesson_date") {
		patch.LessonDate = models.Some(r.PostFormValue("lesson_date"))
	}
	if has("start_time") {
		patch.StartTime = models.Some(r.PostFormValue("start_time"))
	}
	if has("end_time") {
		patch.EndTime = models.Some(r.PostFormValue("end_time"))
	}
	if has("instructor") {
		patch.Instructor = models.Some(r.PostFormValue("instructor"))
	}
	if has("location_id") {
		patch.LocationID = models.Some(formOptionalID(r, "location_id"))
	}
	if has("notes") {
		patch.Notes = models.Some(r.PostFormValue("notes"))
	}
	if has("entry_code") {
		patch.EntryCode = models.Some(r.PostFormValue("entry_code"))
	}
	if has("roster") {
		patch.StudentIDs = models.Some(formIDs(r, "student_ids"))
	}

	for key := range r.PostForm {
		raw, ok := strings.CutPrefix(key, "status_")
		if !ok {
			continue
		}
		studentID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return patch, fmt.Errorf("invalid status field %q", key)
		}
		status, err := models.ParseAttendanceStatus(r.PostFormValue(key))
		if err != nil {
			return patch, err
		}
		if patch.Statuses == nil {
			patch.Statuses = make(map[int64]models.AttendanceStatus)
		}
		patch.Statuses[studentID] = status
	}
	return patch, nil
}
