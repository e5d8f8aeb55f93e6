package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"padelmanager/internal/models"
	"padelmanager/internal/repository"
	"padelmanager/internal/security"
	"padelmanager/internal/validation"
)

var (
	ErrEmailTaken         = errors.New("email already taken")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")
	ErrUsersExist         = errors.New("an administrator account already exists")
	ErrUserNotFound       = errors.New("user not found")
)

// AuthService handles administrator accounts and login sessions
type AuthService struct {
	userRepo        *repository.UserRepository
	sessionDuration time.Duration
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo *repository.UserRepository, sessionDuration time.Duration) *AuthService {
	return &AuthService{
		userRepo:        userRepo,
		sessionDuration: sessionDuration,
	}
}

// NeedsSetup reports whether no user exists yet
func (s *AuthService) NeedsSetup() (bool, error) {
	count, err := s.userRepo.CountUsers()
	if err != nil {
		return false, err
	}
	return count == 0, nil
}

// CreateInitialAdmin creates the first administrator from the setup form and
// logs them in. It refuses once any user exists.
func (s *AuthService) CreateInitialAdmin(in models.SetupInput) (*models.Session, *models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if err := validation.Struct(in); err != nil {
		return nil, nil, err
	}

	needsSetup, err := s.NeedsSetup()
	if err != nil {
		return nil, nil, err
	}
	if !needsSetup {
		return nil, nil, ErrUsersExist
	}

	user, err := s.createAdmin(in.Username, in.Email, in.Password)
	if err != nil {
		return nil, nil, err
	}
	session, err := s.newSession(user.ID)
	if err != nil {
		return nil, nil, err
	}
	return session, user, nil
}

// CreateAdmin adds an administrator account from the command line
func (s *AuthService) CreateAdmin(username, email, password string) (*models.User, error) {
	email = strings.TrimSpace(email)
	if err := validation.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, err
	}
	if username == "" {
		username, _, _ = strings.Cut(email, "@")
	}

	existing, err := s.userRepo.GetUserByEmail(email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}
	return s.createAdmin(username, email, password)
}

func (s *AuthService) createAdmin(username, email, password string) (*models.User, error) {
	passwordHash, err := security.HashPassword(password)
	if err != nil {
		return nil, err
	}
	return s.userRepo.CreateUser(username, email, passwordHash, true)
}

// SetPassword replaces the password of the user with the given email
func (s *AuthService) SetPassword(email, password string) error {
	if err := validation.ValidatePassword(password); err != nil {
		return err
	}
	user, err := s.userRepo.GetUserByEmail(strings.TrimSpace(email))
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	passwordHash, err := security.HashPassword(password)
	if err != nil {
		return err
	}
	return s.userRepo.UpdatePassword(user.ID, passwordHash)
}

// Login authenticates a user and creates a session
func (s *AuthService) Login(email, password string) (*models.Session, *models.User, error) {
	user, err := s.userRepo.GetUserByEmail(strings.TrimSpace(email))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil || !security.CheckPassword(user.PasswordHash, password) {
		return nil, nil, ErrInvalidCredentials
	}

	session, err := s.newSession(user.ID)
	if err != nil {
		return nil, nil, err
	}
	return session, user, nil
}

func (s *AuthService) newSession(userID int64) (*models.Session, error) {
	session, err := s.userRepo.CreateSession(security.GenerateSessionID(), userID, time.Now().Add(s.sessionDuration))
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

// ValidateSession checks if a session is valid and returns the associated user
func (s *AuthService) ValidateSession(sessionID string) (*models.User, error) {
	session, err := s.userRepo.GetSession(sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	if session.IsExpired() {
		_ = s.userRepo.DeleteSession(sessionID)
		return nil, ErrSessionExpired
	}

	user, err := s.userRepo.GetUserByID(session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrSessionNotFound
	}
	return user, nil
}

// Logout invalidates a session
func (s *AuthService) Logout(sessionID string) error {
	if err := s.userRepo.DeleteSession(sessionID); err != nil {
		return fmt.Errorf("failed to logout: %w", err)
	}
	return nil
}

// CleanupExpiredSessions removes expired sessions from the database
func (s *AuthService) CleanupExpiredSessions() error {
	if err := s.userRepo.DeleteExpiredSessions(); err != nil {
		return fmt.Errorf("failed to cleanup sessions: %w", err)
	}
	return nil
}
