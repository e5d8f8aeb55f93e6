package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"padelmanager/internal/models"
	"padelmanager/internal/repository"
	"padelmanager/internal/service"
	"padelmanager/internal/validation"
)

// LessonHandler handles lessons, rosters, attendance and calendar sync
type LessonHandler struct {
	lessonService   *service.LessonService
	studentService  *service.StudentService
	locationService *service.LocationService
	view            *View
}

// NewLessonHandler creates a new lesson handler
func NewLessonHandler(lessonService *service.LessonService, studentService *service.StudentService, locationService *service.LocationService, view *View) *LessonHandler {
	return &LessonHandler{
		lessonService:   lessonService,
		studentService:  studentService,
		locationService: locationService,
		view:            view,
	}
}

// List renders all lessons, newest first
func (h *LessonHandler) List(w http.ResponseWriter, r *http.Request) {
	lessons, err := h.lessonService.List()
	if err != nil {
		h.view.serverError(w, "Error loading lessons", err)
		return
	}
	h.view.render(w, "lessons.tmpl", LessonsViewData{
		Page:    h.view.page(w, r, "Lessons"),
		Lessons: lessons,
	})
}

// New renders an empty lesson form dated today
func (h *LessonHandler) New(w http.ResponseWriter, r *http.Request) {
	form := models.LessonInput{LessonDate: h.view.today()}
	h.renderForm(w, r, http.StatusOK, nil, form, "")
}

func (h *LessonHandler) renderForm(w http.ResponseWriter, r *http.Request, status int, lesson *models.Lesson, form models.LessonInput, formErr string) {
	locations, err := h.locationService.List()
	if err != nil {
		h.view.serverError(w, "Error loading locations", err)
		return
	}
	students, err := h.studentService.List()
	if err != nil {
		h.view.serverError(w, "Error loading students", err)
		return
	}

	title, action := "New lesson", "/lessons"
	if lesson != nil {
		title, action = "Edit lesson", fmt.Sprintf("/lessons/%d/update", lesson.ID)
	}
	h.view.renderStatus(w, status, "lesson_form.tmpl", LessonFormViewData{
		Page:      h.view.page(w, r, title),
		Lesson:    lesson,
		Form:      form,
		Locations: locations,
		Students:  students,
		Action:    action,
		Error:     formErr,
	})
}

// Create schedules a lesson and charges the selected students
func (h *LessonHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, ErrInvalidFormData, http.StatusBadRequest)
		return
	}

	in := parseLessonForm(r)
	result, err := h.lessonService.Create(r.Context(), in)
	if validation.IsValidationError(err) || errors.Is(err, service.ErrLocationNotFound) {
		h.renderForm(w, r, http.StatusUnprocessableEntity, nil, in, err.Error())
		return
	}
	if err != nil {
		h.view.serverError(w, "Error creating lesson", err)
		return
	}

	h.flashResult(w, r, result, "Lesson scheduled")
	http.Redirect(w, r, "/lessons", http.StatusSeeOther)
}

// Edit renders the form for an existing lesson
func (h *LessonHandler) Edit(w http.ResponseWriter, r *http.Request) {
	lesson, ok := h.lessonFromPath(w, r)
	if !ok {
		return
	}
	h.renderForm(w, r, http.StatusOK, lesson, models.LessonPatch{}.Merge(lesson), "")
}

// Update applies the submitted fields, roster and statuses
func (h *LessonHandler) Update(w http.ResponseWriter, r *http.Request) {
	lesson, ok := h.lessonFromPath(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, ErrInvalidFormData, http.StatusBadRequest)
		return
	}

	patch, err := parseLessonPatch(r)
	if err != nil {
		h.renderForm(w, r, http.StatusUnprocessableEntity, lesson, patch.Merge(lesson), err.Error())
		return
	}

	result, err := h.lessonService.Update(r.Context(), lesson.ID, patch)
	switch {
	case errors.Is(err, service.ErrLessonNotFound):
		http.NotFound(w, r)
	case validation.IsValidationError(err), errors.Is(err, service.ErrLocationNotFound):
		h.renderForm(w, r, http.StatusUnprocessableEntity, lesson, patch.Merge(lesson), err.Error())
	case err != nil:
		h.view.serverError(w, "Error updating lesson", err)
	default:
		h.flashResult(w, r, result, "Lesson updated")
		http.Redirect(w, r, "/lessons", http.StatusSeeOther)
	}
}

// Attendance records the status of one assigned student
func (h *LessonHandler) Attendance(w http.ResponseWriter, r *http.Request) {
	lessonID, err := pathID(r, "id")
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, ErrInvalidFormData, http.StatusBadRequest)
		return
	}

	studentID := formOptionalID(r, "student_id")
	status, err := models.ParseAttendanceStatus(r.FormValue("status"))
	if studentID == nil || err != nil {
		h.view.redirectWith(w, r, "/lessons", FlashError, "Choose a student and a valid status")
		return
	}

	err = h.lessonService.UpdateAttendanceStatus(r.Context(), lessonID, *studentID, status)
	if err != nil {
		h.lessonError(w, r, err, "Error updating attendance")
		return
	}
	h.view.redirectWith(w, r, "/lessons", FlashSuccess, fmt.Sprintf("Marked as %s", status))
}

// AddStudent assigns one student and charges one lesson
func (h *LessonHandler) AddStudent(w http.ResponseWriter, r *http.Request) {
	lessonID, err := pathID(r, "id")
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, ErrInvalidFormData, http.StatusBadRequest)
		return
	}
	studentID := formOptionalID(r, "student_id")
	if studentID == nil {
		h.view.redirectWith(w, r, h.editPath(lessonID), FlashError, "Choose a student")
		return
	}

	result, err := h.lessonService.AssignStudent(r.Context(), lessonID, *studentID)
	if err != nil {
		h.lessonError(w, r, err, "Error assigning student")
		return
	}
	h.flashResult(w, r, result, "Student added")
	http.Redirect(w, r, h.editPath(lessonID), http.StatusSeeOther)
}

// RemoveStudent unassigns one student and refunds their lesson
func (h *LessonHandler) RemoveStudent(w http.ResponseWriter, r *http.Request) {
	lessonID, err := pathID(r, "id")
	if err != nil {
		http.NotFound(w, r)
		return
	}
	studentID, err := pathID(r, "studentID")
	if err != nil {
		http.NotFound(w, r)
		return
	}

	result, err := h.lessonService.UnassignStudent(r.Context(), lessonID, studentID)
	if err != nil {
		h.lessonError(w, r, err, "Error removing student")
		return
	}
	h.flashResult(w, r, result, "Student removed and lesson refunded")
	http.Redirect(w, r, h.editPath(lessonID), http.StatusSeeOther)
}

// Delete removes a lesson and refunds its students
func (h *LessonHandler) Delete(w http.ResponseWriter, r *http.Request) {
	lessonID, err := pathID(r, "id")
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if err := h.lessonService.Delete(r.Context(), lessonID); err != nil {
		h.lessonError(w, r, err, "Error deleting lesson")
		return
	}
	h.view.redirectWith(w, r, "/lessons", FlashSuccess, "Lesson deleted and students refunded")
}

// Sync pushes one lesson to the calendar
func (h *LessonHandler) Sync(w http.ResponseWriter, r *http.Request) {
	lessonID, err := pathID(r, "id")
	if err != nil {
		http.NotFound(w, r)
		return
	}

	_, err = h.lessonService.Sync(r.Context(), lessonID)
	var mirrorErr *service.MirrorError
	switch {
	case errors.Is(err, service.ErrCalendarDisabled):
		h.view.redirectWith(w, r, "/lessons", FlashError, "Calendar sync is not configured")
	case errors.As(err, &mirrorErr):
		h.view.redirectWith(w, r, "/lessons", FlashWarning, "Could not reach the calendar, please try again later")
	case err != nil:
		h.lessonError(w, r, err, "Error syncing lesson")
	default:
		h.view.redirectWith(w, r, "/lessons", FlashSuccess, "Lesson synced to the calendar")
	}
}

func (h *LessonHandler) lessonFromPath(w http.ResponseWriter, r *http.Request) (*models.Lesson, bool) {
	id, err := pathID(r, "id")
	if err != nil {
		http.NotFound(w, r)
		return nil, false
	}
	lesson, err := h.lessonService.Get(id)
	if errors.Is(err, service.ErrLessonNotFound) {
		http.NotFound(w, r)
		return nil, false
	}
	if err != nil {
		h.view.serverError(w, "Error loading lesson", err)
		return nil, false
	}
	return lesson, true
}

func (h *LessonHandler) editPath(lessonID int64) string {
	return fmt.Sprintf("/lessons/%d/edit", lessonID)
}

// lessonError maps lesson service errors to banners and status codes
func (h *LessonHandler) lessonError(w http.ResponseWriter, r *http.Request, err error, logMsg string) {
	var msg string
	switch {
	case errors.Is(err, service.ErrLessonNotFound):
		http.NotFound(w, r)
		return
	case errors.Is(err, service.ErrStudentNotFound):
		msg = "Student not found"
	case errors.Is(err, service.ErrAlreadyAssigned):
		msg = "The student is already in this lesson"
	case errors.Is(err, service.ErrAssignmentNotFound):
		msg = "The student is not in this lesson"
	case errors.Is(err, repository.ErrInsufficientCredit):
		msg = "The student has no lessons left"
	case validation.IsValidationError(err):
		msg = err.Error()
	default:
		h.view.serverError(w, logMsg, err)
		return
	}
	h.view.redirectWith(w, r, "/lessons", FlashError, msg)
}

// flashResult queues the banners for a committed lesson change
func (h *LessonHandler) flashResult(w http.ResponseWriter, r *http.Request, result *service.LessonResult, done string) {
	h.view.flash(w, r, FlashSuccess, done)
	if len(result.Skipped) > 0 {
		h.view.flash(w, r, FlashWarning, "Not assigned, no lessons left: "+h.studentNames(result.Skipped))
	}
	if result.MirrorErr != nil {
		h.view.flash(w, r, FlashWarning, "Saved, but the calendar could not be updated. Use Sync to retry.")
	}
}

func (h *LessonHandler) studentNames(ids []int64) string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		student, err := h.studentService.Get(id)
		if err != nil {
			names = append(names, fmt.Sprintf("#%d", id))
			continue
		}
		names = append(names, student.FullName())
	}
	return strings.Join(names, ", ")
}
