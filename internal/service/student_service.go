package service

import (
	"errors"

	"padelmanager/internal/models"
	"padelmanager/internal/repository"
	"padelmanager/internal/validation"
)

// StudentService handles student records and manual credit changes
type StudentService struct {
	studentRepo *repository.StudentRepository
}

// NewStudentService creates a new student service
func NewStudentService(studentRepo *repository.StudentRepository) *StudentService {
	return &StudentService{studentRepo: studentRepo}
}

// Create validates and inserts a student
func (s *StudentService) Create(in models.StudentInput) (*models.Student, error) {
	in.Normalize()
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	return s.studentRepo.Create(in)
}

// Get returns one student
func (s *StudentService) Get(id int64) (*models.Student, error) {
	student, err := s.studentRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, ErrStudentNotFound
	}
	return student, nil
}

// List returns all students ordered by name
func (s *StudentService) List() ([]models.Student, error) {
	return s.studentRepo.GetAll()
}

// Update changes name and contact details
func (s *StudentService) Update(id int64, in models.StudentInput) (*models.Student, error) {
	if _, err := s.Get(id); err != nil {
		return nil, err
	}
	in.Normalize()
	in.LessonsRemaining = 0
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if err := s.studentRepo.Update(id, in); err != nil {
		return nil, err
	}
	return s.Get(id)
}

// Delete removes a student and their assignments
func (s *StudentService) Delete(id int64) error {
	return notFoundAs(s.studentRepo.Delete(id), ErrStudentNotFound)
}

// AddCredits tops up a balance
func (s *StudentService) AddCredits(id int64, amount int) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	return notFoundAs(s.studentRepo.AddCredits(id, amount), ErrStudentNotFound)
}

// LowerCredits takes credits off a balance. It fails with
// repository.ErrInsufficientCredit rather than going below zero.
func (s *StudentService) LowerCredits(id int64, amount int) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	return notFoundAs(s.studentRepo.LowerCredits(id, amount), ErrStudentNotFound)
}

func notFoundAs(err, target error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return target
	}
	return err
}
