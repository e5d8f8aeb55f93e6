package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"padelmanager/internal/database"
	"padelmanager/internal/repository"
)

const backupVersion = "1.0"

// ErrDatabaseNotEmpty is returned when importing over existing padel data
var ErrDatabaseNotEmpty = errors.New("database already contains students, locations or lessons")

// BackupData represents the complete database backup structure
type BackupData struct {
	Version      string           `json:"version"`
	ExportedAt   time.Time        `json:"exported_at"`
	DatabaseType string           `json:"database_type"`
	Users        []UserBackup     `json:"users"`
	Students     []StudentBackup  `json:"students"`
	Locations    []LocationBackup `json:"locations"`
	Lessons      []LessonBackup   `json:"lessons"`
}

// UserBackup represents a user record for backup
type UserBackup struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	IsAdmin      bool      `json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
}

// StudentBackup represents a student and their balance
type StudentBackup struct {
	ID               int64     `json:"id"`
	FirstName        string    `json:"first_name"`
	LastName         string    `json:"last_name"`
	Email            string    `json:"email"`
	Phone            string    `json:"phone"`
	LessonsRemaining int       `json:"lessons_remaining"`
	CreatedAt        time.Time `json:"created_at"`
}

// LocationBackup represents a location record for backup
type LocationBackup struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	Address          string    `json:"address"`
	HasEntryCode     bool      `json:"has_entry_code"`
	DefaultEntryCode string    `json:"default_entry_code"`
	CreatedAt        time.Time `json:"created_at"`
}

// LessonBackup represents a lesson with its roster
type LessonBackup struct {
	ID            int64              `json:"id"`
	LessonDate    string             `json:"lesson_date"`
	StartTime     string             `json:"start_time"`
	EndTime       string             `json:"end_time"`
	Instructor    string             `json:"instructor"`
	LocationID    *int64             `json:"location_id"`
	Notes         string             `json:"notes"`
	EntryCode     string             `json:"entry_code"`
	GoogleEventID string             `json:"google_event_id"`
	CreatedAt     time.Time          `json:"created_at"`
	Assignments   []AssignmentBackup `json:"assignments"`
}

// AssignmentBackup represents one student on a lesson
type AssignmentBackup struct {
	StudentID int64  `json:"student_id"`
	Status    string `json:"status"`
}

// BackupService handles database backup and restore operations
type BackupService struct {
	db           *database.DB
	userRepo     *repository.UserRepository
	studentRepo  *repository.StudentRepository
	locationRepo *repository.LocationRepository
	lessonRepo   *repository.LessonRepository
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB) *BackupService {
	return &BackupService{
		db:           db,
		userRepo:     repository.NewUserRepository(db),
		studentRepo:  repository.NewStudentRepository(db),
		locationRepo: repository.NewLocationRepository(db),
		lessonRepo:   repository.NewLessonRepository(db),
	}
}

// Export writes a complete backup of the database to a file
func (s *BackupService) Export(outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	if err := s.ExportToWriter(file); err != nil {
		return err
	}
	log.Printf("Database exported successfully to %s", outputPath)
	return nil
}

// ExportToWriter writes a complete backup of the database as indented JSON
func (s *BackupService) ExportToWriter(w io.Writer) error {
	backup, err := s.collect()
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}

	log.Printf("Exported: %d users, %d students, %d locations, %d lessons",
		len(backup.Users), len(backup.Students), len(backup.Locations), len(backup.Lessons))
	return nil
}

func (s *BackupService) collect() (*BackupData, error) {
	backup := &BackupData{
		Version:      backupVersion,
		ExportedAt:   time.Now().UTC(),
		DatabaseType: s.db.GetDialect().DriverName(),
	}

	users, err := s.userRepo.GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to export users: %w", err)
	}
	for _, u := range users {
		backup.Users = append(backup.Users, UserBackup{
			ID:           u.ID,
			Username:     u.Username,
			Email:        u.Email,
			PasswordHash: u.PasswordHash,
			IsAdmin:      u.IsAdmin,
			CreatedAt:    u.CreatedAt,
		})
	}

	students, err := s.studentRepo.GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to export students: %w", err)
	}
	for _, st := range students {
		backup.Students = append(backup.Students, StudentBackup{
			ID:               st.ID,
			FirstName:        st.FirstName,
			LastName:         st.LastName,
			Email:            st.Email,
			Phone:            st.Phone,
			LessonsRemaining: st.LessonsRemaining,
			CreatedAt:        st.CreatedAt,
		})
	}

	locations, err := s.locationRepo.GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to export locations: %w", err)
	}
	for _, l := range locations {
		backup.Locations = append(backup.Locations, LocationBackup{
			ID:               l.ID,
			Name:             l.Name,
			Address:          l.Address,
			HasEntryCode:     l.HasEntryCode,
			DefaultEntryCode: l.DefaultEntryCode,
			CreatedAt:        l.CreatedAt,
		})
	}

	lessons, err := s.lessonRepo.GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to export lessons: %w", err)
	}
	for _, l := range lessons {
		lb := LessonBackup{
			ID:            l.ID,
			LessonDate:    l.LessonDate,
			StartTime:     l.StartTime,
			EndTime:       l.EndTime,
			Instructor:    l.Instructor,
			LocationID:    l.LocationID,
			Notes:         l.Notes,
			EntryCode:     l.EntryCode,
			GoogleEventID: l.GoogleEventID,
			CreatedAt:     l.CreatedAt,
		}
		for _, a := range l.Assignments {
			lb.Assignments = append(lb.Assignments, AssignmentBackup{
				StudentID: a.Student.ID,
				Status:    string(a.Status),
			})
		}
		backup.Lessons = append(backup.Lessons, lb)
	}
	return backup, nil
}

// Import restores a backup file into an empty database
func (s *BackupService) Import(inputPath string) error {
	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()
	return s.ImportFromReader(file)
}

// ImportFromReader restores a backup into an empty database. Users whose
// email already exists are kept as they are. Everything is written in one
// transaction.
func (s *BackupService) ImportFromReader(reader io.Reader) error {
	var backup BackupData
	if err := json.NewDecoder(reader).Decode(&backup); err != nil {
		return fmt.Errorf("failed to decode backup: %w", err)
	}
	if backup.Version != backupVersion {
		return fmt.Errorf("unsupported backup version %q", backup.Version)
	}
	log.Printf("Backup version: %s, exported at: %s", backup.Version, backup.ExportedAt)

	empty, err := s.isEmpty()
	if err != nil {
		return err
	}
	if !empty {
		return ErrDatabaseNotEmpty
	}

	err = s.db.WithTx(func(tx *database.Tx) error {
		if err := importUsers(tx, backup.Users); err != nil {
			return fmt.Errorf("failed to import users: %w", err)
		}
		if err := importStudents(tx, backup.Students); err != nil {
			return fmt.Errorf("failed to import students: %w", err)
		}
		if err := importLocations(tx, backup.Locations); err != nil {
			return fmt.Errorf("failed to import locations: %w", err)
		}
		if err := importLessons(tx, backup.Lessons); err != nil {
			return fmt.Errorf("failed to import lessons: %w", err)
		}
		return resetSequences(tx)
	})
	if err != nil {
		return err
	}

	log.Println("Database import completed successfully")
	return nil
}

func (s *BackupService) isEmpty() (bool, error) {
	for _, table := range []string{"students", "locations", "lessons"} {
		var n int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
			return false, fmt.Errorf("failed to count %s: %w", table, err)
		}
		if n > 0 {
			return false, nil
		}
	}
	return true, nil
}

func importUsers(tx *database.Tx, users []UserBackup) error {
	log.Printf("Importing %d users...", len(users))
	for _, u := range users {
		var exists int
		if err := tx.QueryRow("SELECT COUNT(*) FROM users WHERE email = ? OR id = ?", u.Email, u.ID).Scan(&exists); err != nil {
			return err
		}
		if exists > 0 {
			continue
		}
		query := "INSERT INTO users (id, username, email, password, is_admin, created_at) VALUES (?, ?, ?, ?, ?, ?)"
		if _, err := tx.Exec(query, u.ID, u.Username, u.Email, u.PasswordHash, u.IsAdmin, u.CreatedAt); err != nil {
			return fmt.Errorf("failed to import user %d: %w", u.ID, err)
		}
	}
	return nil
}

func importStudents(tx *database.Tx, students []StudentBackup) error {
	log.Printf("Importing %d students...", len(students))
	for _, st := range students {
		query := "INSERT INTO students (id, first_name, last_name, email, phone, lessons_remaining, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)"
		if _, err := tx.Exec(query, st.ID, st.FirstName, st.LastName, st.Email, nullIfEmpty(st.Phone), st.LessonsRemaining, st.CreatedAt); err != nil {
			return fmt.Errorf("failed to import student %d: %w", st.ID, err)
		}
	}
	return nil
}

func importLocations(tx *database.Tx, locations []LocationBackup) error {
	log.Printf("Importing %d locations...", len(locations))
	for _, l := range locations {
		query := "INSERT INTO locations (id, name, address, has_entry_code, default_entry_code, created_at) VALUES (?, ?, ?, ?, ?, ?)"
		if _, err := tx.Exec(query, l.ID, l.Name, nullIfEmpty(l.Address), l.HasEntryCode, nullIfEmpty(l.DefaultEntryCode), l.CreatedAt); err != nil {
			return fmt.Errorf("failed to import location %d: %w", l.ID, err)
		}
	}
	return nil
}

func importLessons(tx *database.Tx, lessons []LessonBackup) error {
	log.Printf("Importing %d lessons...", len(lessons))
	for _, l := range lessons {
		query := `INSERT INTO lessons (id, lesson_date, start_time, end_time, instructor, location_id, notes, entry_code, google_event_id, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
		var locationID interface{}
		if l.LocationID != nil {
			locationID = *l.LocationID
		}
		if _, err := tx.Exec(query, l.ID, l.LessonDate, l.StartTime, l.EndTime, l.Instructor, locationID,
			nullIfEmpty(l.Notes), nullIfEmpty(l.EntryCode), nullIfEmpty(l.GoogleEventID), l.CreatedAt); err != nil {
			return fmt.Errorf("failed to import lesson %d: %w", l.ID, err)
		}
		for _, a := range l.Assignments {
			if _, err := tx.Exec("INSERT INTO student_lesson (student_id, lesson_id, status) VALUES (?, ?, ?)", a.StudentID, l.ID, a.Status); err != nil {
				return fmt.Errorf("failed to import assignment of student %d to lesson %d: %w", a.StudentID, l.ID, err)
			}
		}
	}
	return nil
}

// resetSequences moves id counters past the imported ids where the dialect
// needs it
func resetSequences(tx *database.Tx) error {
	for _, table := range []string{"users", "students", "locations", "lessons"} {
		query := tx.GetDialect().ResetSequenceQuery(table)
		if query == "" {
			continue
		}
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to reset %s sequence: %w", table, err)
		}
	}
	return nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
