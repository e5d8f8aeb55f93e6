package handlers

import "padelmanager/internal/security"

const (
	SessionCookieName = security.SessionCookie
	CSRFFormField     = "csrf_token"
	CSRFHeader        = "X-CSRF-Token"

	ErrInvalidFormData     = "Invalid form data"
	ErrUnauthorized        = "Unauthorized"
	ErrInternalServerError = "Internal server error"
	ErrInvalidCSRFToken    = "Invalid or missing CSRF token"
	ErrTooManyRequests     = "Too many attempts, please try again later"
)
