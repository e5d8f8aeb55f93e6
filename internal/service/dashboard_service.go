package service

import (
	"fmt"

	"padelmanager/internal/models"
	"padelmanager/internal/repository"
)

const upcomingLimit = 10

// DashboardStats is the overview shown after login
type DashboardStats struct {
	TotalStudents          int
	TotalLessons           int
	TodaysLessons          []models.Lesson
	UpcomingLessons        []models.Lesson
	StudentsNeedingLessons []models.Student
	LowCreditThreshold     int
}

// DashboardService aggregates the overview numbers
type DashboardService struct {
	studentRepo        *repository.StudentRepository
	lessonRepo         *repository.LessonRepository
	lowCreditThreshold int
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(studentRepo *repository.StudentRepository, lessonRepo *repository.LessonRepository, lowCreditThreshold int) *DashboardService {
	return &DashboardService{
		studentRepo:        studentRepo,
		lessonRepo:         lessonRepo,
		lowCreditThreshold: lowCreditThreshold,
	}
}

// Stats collects the overview for the given day (YYYY-MM-DD)
func (s *DashboardService) Stats(today string) (*DashboardStats, error) {
	stats := &DashboardStats{LowCreditThreshold: s.lowCreditThreshold}
	var err error

	if stats.TotalStudents, err = s.studentRepo.Count(); err != nil {
		return nil, err
	}
	if stats.TotalLessons, err = s.lessonRepo.Count(); err != nil {
		return nil, err
	}
	if stats.TodaysLessons, err = s.lessonRepo.GetOnDate(today); err != nil {
		return nil, fmt.Errorf("failed to load today's lessons: %w", err)
	}
	if stats.UpcomingLessons, err = s.lessonRepo.GetFrom(today, upcomingLimit); err != nil {
		return nil, fmt.Errorf("failed to load upcoming lessons: %w", err)
	}
	if stats.StudentsNeedingLessons, err = s.studentRepo.GetWithCreditsAtMost(s.lowCreditThreshold); err != nil {
		return nil, fmt.Errorf("failed to load students needing lessons: %w", err)
	}
	return stats, nil
}
