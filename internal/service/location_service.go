package service

import (
	"padelmanager/internal/models"
	"padelmanager/internal/repository"
	"padelmanager/internal/validation"
)

// LocationService handles lesson venues
type LocationService struct {
	locationRepo *repository.LocationRepository
}

// NewLocationService creates a new location service
func NewLocationService(locationRepo *repository.LocationRepository) *LocationService {
	return &LocationService{locationRepo: locationRepo}
}

func (s *LocationService) Create(in models.LocationInput) (*models.Location, error) {
	in.Normalize()
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	return s.locationRepo.Create(in)
}

func (s *LocationService) Get(id int64) (*models.Location, error) {
	location, err := s.locationRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if location == nil {
		return nil, ErrLocationNotFound
	}
	return location, nil
}

func (s *LocationService) List() ([]models.Location, error) {
	return s.locationRepo.GetAll()
}

func (s *LocationService) Update(id int64, in models.LocationInput) (*models.Location, error) {
	if _, err := s.Get(id); err != nil {
		return nil, err
	}
	in.Normalize()
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if err := s.locationRepo.Update(id, in); err != nil {
		return nil, err
	}
	return s.Get(id)
}

// Delete removes a location. Its lessons stay, without a location.
func (s *LocationService) Delete(id int64) error {
	return notFoundAs(s.locationRepo.Delete(id), ErrLocationNotFound)
}
