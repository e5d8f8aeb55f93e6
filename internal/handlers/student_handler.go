package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"padelmanager/internal/models"
	"padelmanager/internal/repository"
	"padelmanager/internal/service"
	"padelmanager/internal/validation"
)

// StudentHandler handles student records and credit changes
type StudentHandler struct {
	studentService *service.StudentService
	lessonService  *service.LessonService
	view           *View
}

// NewStudentHandler creates a new student handler
func NewStudentHandler(studentService *service.StudentService, lessonService *service.LessonService, view *View) *StudentHandler {
	return &StudentHandler{
		studentService: studentService,
		lessonService:  lessonService,
		view:           view,
	}
}

// List renders all students with the add form
func (h *StudentHandler) List(w http.ResponseWriter, r *http.Request) {
	h.renderList(w, r, http.StatusOK, models.StudentInput{}, "")
}

func (h *StudentHandler) renderList(w http.ResponseWriter, r *http.Request, status int, form models.StudentInput, formErr string) {
	students, err := h.studentService.List()
	if err != nil {
		h.view.serverError(w, "Error loading students", err)
		return
	}
	h.view.renderStatus(w, status, "students.tmpl", StudentsViewData{
		Page:     h.view.page(w, r, "Students"),
		Students: students,
		Form:     form,
		Error:    formErr,
	})
}

// Create adds a student
func (h *StudentHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, ErrInvalidFormData, http.StatusBadRequest)
		return
	}

	in, err := parseStudentForm(r)
	if err != nil {
		h.renderList(w, r, http.StatusUnprocessableEntity, in, err.Error())
		return
	}
	student, err := h.studentService.Create(in)
	if validation.IsValidationError(err) {
		h.renderList(w, r, http.StatusUnprocessableEntity, in, err.Error())
		return
	}
	if err != nil {
		h.view.serverError(w, "Error creating student", err)
		return
	}
	h.view.redirectWith(w, r, "/students", FlashSuccess, fmt.Sprintf("Added %s", student.FullName()))
}

// Update changes a student's name and contact details
func (h *StudentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, ErrInvalidFormData, http.StatusBadRequest)
		return
	}

	in, err := parseStudentForm(r)
	if err != nil {
		h.view.redirectWith(w, r, "/students", FlashError, err.Error())
		return
	}
	student, err := h.studentService.Update(id, in)
	switch {
	case errors.Is(err, service.ErrStudentNotFound):
		http.NotFound(w, r)
	case validation.IsValidationError(err):
		h.view.redirectWith(w, r, "/students", FlashError, err.Error())
	case err != nil:
		h.view.serverError(w, "Error updating student", err)
	default:
		h.view.redirectWith(w, r, "/students", FlashSuccess, fmt.Sprintf("Updated %s", student.FullName()))
	}
}

// Delete removes a student
func (h *StudentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		http.NotFound(w, r)
		return
	}

	err = h.studentService.Delete(id)
	switch {
	case errors.Is(err, service.ErrStudentNotFound):
		http.NotFound(w, r)
	case err != nil:
		h.view.serverError(w, "Error deleting student", err)
	default:
		h.view.redirectWith(w, r, "/students", FlashSuccess, "Student deleted")
	}
}

// AddCredits tops up a balance
func (h *StudentHandler) AddCredits(w http.ResponseWriter, r *http.Request) {
	h.changeCredits(w, r, h.studentService.AddCredits, "Added %d %s")
}

// LowerCredits takes credits off a balance
func (h *StudentHandler) LowerCredits(w http.ResponseWriter, r *http.Request) {
	h.changeCredits(w, r, h.studentService.LowerCredits, "Removed %d %s")
}

func (h *StudentHandler) changeCredits(w http.ResponseWriter, r *http.Request, change func(int64, int) error, done string) {
	id, err := pathID(r, "id")
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, ErrInvalidFormData, http.StatusBadRequest)
		return
	}

	amount, err := formInt(r, "amount")
	if err != nil {
		h.view.redirectWith(w, r, "/students", FlashError, err.Error())
		return
	}

	err = change(id, amount)
	switch {
	case errors.Is(err, service.ErrStudentNotFound):
		http.NotFound(w, r)
	case errors.Is(err, service.ErrInvalidAmount):
		h.view.redirectWith(w, r, "/students", FlashError, "Amount must be greater than zero")
	case errors.Is(err, repository.ErrInsufficientCredit):
		h.view.redirectWith(w, r, "/students", FlashError, "The student does not have that many lessons left")
	case err != nil:
		h.view.serverError(w, "Error changing credits", err)
	default:
		unit := "lessons"
		if amount == 1 {
			unit = "lesson"
		}
		h.view.redirectWith(w, r, "/students", FlashSuccess, fmt.Sprintf(done, amount, unit))
	}
}

// History renders the lessons a student took part in
func (h *StudentHandler) History(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		http.NotFound(w, r)
		return
	}

	student, lessons, err := h.lessonService.HistoryForStudent(id)
	if errors.Is(err, service.ErrStudentNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		h.view.serverError(w, "Error loading lesson history", err)
		return
	}

	h.view.render(w, "student_history.tmpl", StudentHistoryViewData{
		Page:    h.view.page(w, r, student.FullName()),
		Student: student,
		Lessons: lessons,
	})
}
