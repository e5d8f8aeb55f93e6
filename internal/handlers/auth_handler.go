package handlers

import (
	"errors"
	"log"
	"net/http"

	"padelmanager/internal/models"
	"padelmanager/internal/security"
	"padelmanager/internal/service"
	"padelmanager/internal/validation"
)

// AuthHandler handles login, first-run setup and logout
type AuthHandler struct {
	authService *service.AuthService
	view        *View
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, view *View) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		view:        view,
	}
}

func (h *AuthHandler) loggedIn(r *http.Request) bool {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return false
	}
	_, err = h.authService.ValidateSession(cookie.Value)
	return err == nil
}

// Home sends visitors to the dashboard or the login page
func (h *AuthHandler) Home(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if h.loggedIn(r) {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// ShowLogin renders the login page, or the setup form while no user exists
func (h *AuthHandler) ShowLogin(w http.ResponseWriter, r *http.Request) {
	if h.loggedIn(r) {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	h.renderLogin(w, r, http.StatusOK, LoginViewData{})
}

func (h *AuthHandler) renderLogin(w http.ResponseWriter, r *http.Request, status int, data LoginViewData) {
	needsSetup, err := h.authService.NeedsSetup()
	if err != nil {
		h.view.serverError(w, "Error counting users", err)
		return
	}
	data.NeedsSetup = needsSetup
	title := "Login"
	if needsSetup {
		title = "Setup"
	}
	data.Page = h.view.page(w, r, title)
	h.view.renderStatus(w, status, "login.tmpl", data)
}

// Login handles login form submission
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, ErrInvalidFormData, http.StatusBadRequest)
		return
	}

	email := r.FormValue("email")
	session, user, err := h.authService.Login(email, r.FormValue("password"))
	if err != nil {
		if !errors.Is(err, service.ErrInvalidCredentials) {
			log.Printf("Login error: %v", err)
		}
		h.renderLogin(w, r, http.StatusUnauthorized, LoginViewData{Email: email, Error: "Invalid email or password"})
		return
	}

	log.Printf("User %d logged in", user.ID)
	http.SetCookie(w, security.CreateSessionCookie(r, SessionCookieName, session.ID, session.ExpiresAt))
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// Setup creates the first administrator and signs them in
func (h *AuthHandler) Setup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, ErrInvalidFormData, http.StatusBadRequest)
		return
	}

	in := models.SetupInput{
		Username: r.FormValue("username"),
		Email:    r.FormValue("email"),
		Password: r.FormValue("password"),
		Confirm:  r.FormValue("confirm_password"),
	}
	session, user, err := h.authService.CreateInitialAdmin(in)
	switch {
	case errors.Is(err, service.ErrUsersExist):
		h.view.redirectWith(w, r, "/login", FlashError, "An administrator already exists, please log in")
		return
	case validation.IsValidationError(err):
		h.renderLogin(w, r, http.StatusUnprocessableEntity, LoginViewData{Email: in.Email, Username: in.Username, Error: err.Error()})
		return
	case err != nil:
		h.view.serverError(w, "Error creating initial admin", err)
		return
	}

	log.Printf("Initial administrator %d created", user.ID)
	http.SetCookie(w, security.CreateSessionCookie(r, SessionCookieName, session.ID, session.ExpiresAt))
	h.view.redirectWith(w, r, "/dashboard", FlashSuccess, "Welcome! Your administrator account is ready")
}

// Logout handles logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		if err := h.authService.Logout(cookie.Value); err != nil {
			log.Printf("Logout error: %v", err)
		}
	}
	http.SetCookie(w, security.CreateDeleteCookie(r, SessionCookieName))
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
