package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"padelmanager/internal/models"
	"padelmanager/internal/service"
	"padelmanager/internal/validation"
)

// LocationHandler handles venues
type LocationHandler struct {
	locationService *service.LocationService
	view            *View
}

// NewLocationHandler creates a new location handler
func NewLocationHandler(locationService *service.LocationService, view *View) *LocationHandler {
	return &LocationHandler{locationService: locationService, view: view}
}

// List renders all locations with the add form
func (h *LocationHandler) List(w http.ResponseWriter, r *http.Request) {
	h.renderList(w, r, http.StatusOK, models.LocationInput{}, "")
}

func (h *LocationHandler) renderList(w http.ResponseWriter, r *http.Request, status int, form models.LocationInput, formErr string) {
	locations, err := h.locationService.List()
	if err != nil {
		h.view.serverError(w, "Error loading locations", err)
		return
	}
	h.view.renderStatus(w, status, "locations.tmpl", LocationsViewData{
		Page:      h.view.page(w, r, "Locations"),
		Locations: locations,
		Form:      form,
		Error:     formErr,
	})
}

// Create adds a location
func (h *LocationHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, ErrInvalidFormData, http.StatusBadRequest)
		return
	}

	in := parseLocationForm(r)
	location, err := h.locationService.Create(in)
	if validation.IsValidationError(err) {
		h.renderList(w, r, http.StatusUnprocessableEntity, in, err.Error())
		return
	}
	if err != nil {
		h.view.serverError(w, "Error creating location", err)
		return
	}
	h.view.redirectWith(w, r, "/locations", FlashSuccess, fmt.Sprintf("Added %s", location.Name))
}

// Update changes a location
func (h *LocationHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, ErrInvalidFormData, http.StatusBadRequest)
		return
	}

	location, err := h.locationService.Update(id, parseLocationForm(r))
	switch {
	case errors.Is(err, service.ErrLocationNotFound):
		http.NotFound(w, r)
	case validation.IsValidationError(err):
		h.view.redirectWith(w, r, "/locations", FlashError, err.Error())
	case err != nil:
		h.view.serverError(w, "Error updating location", err)
	default:
		h.view.redirectWith(w, r, "/locations", FlashSuccess, fmt.Sprintf("Updated %s", location.Name))
	}
}

// Delete removes a location. Its lessons are kept without a location.
func (h *LocationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		http.NotFound(w, r)
		return
	}

	err = h.locationService.Delete(id)
	switch {
	case errors.Is(err, service.ErrLocationNotFound):
		http.NotFound(w, r)
	case err != nil:
		h.view.serverError(w, "Error deleting location", err)
	default:
		h.view.redirectWith(w, r, "/locations", FlashSuccess, "Location deleted")
	}
}
