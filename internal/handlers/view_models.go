package handlers

import (
	"padelmanager/internal/models"
	"padelmanager/internal/service"
)

type LoginViewData struct {
	Page
	NeedsSetup bool
	Email      string
	Username   string
	Error      string
}

type DashboardViewData struct {
	Page
	Today string
	Stats *service.DashboardStats
}

type StudentsViewData struct {
	Page
	Students []models.Student
	Form     models.StudentInput
	Error    string
}

type StudentHistoryViewData struct {
	Page
	Student *models.Student
	Lessons []models.Lesson
}

type LocationsViewData struct {
	Page
	Locations []models.Location
	Form      models.LocationInput
	Error     string
}

type LessonsViewData struct {
	Page
	Lessons []models.Lesson
}

// LessonFormViewData backs both the new and the edit form. Lesson is nil
// when creating.
type LessonFormViewData struct {
	Page
	Lesson    *models.Lesson
	Form      models.LessonInput
	Locations []models.Location
	Students  []models.Student
	Action    string
	Error     string
}
