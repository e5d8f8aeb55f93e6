package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"padelmanager/internal/database"
	"padelmanager/internal/models"
)

const studentColumns = `id, first_name, last_name, email, COALESCE(phone, ''), lessons_remaining, created_at`

// StudentRepository handles database operations for students and their credits
type StudentRepository struct {
	db database.DBTX
}

// NewStudentRepository creates a new student repository
func NewStudentRepository(db database.DBTX) *StudentRepository {
	return &StudentRepository{db: db}
}

// WithTx returns a copy of the repository bound to tx
func (r *StudentRepository) WithTx(tx *database.Tx) *StudentRepository {
	return &StudentRepository{db: tx}
}

func scanStudent(row rowScanner) (*models.Student, error) {
	s := &models.Student{}
	err := row.Scan(&s.ID, &s.FirstName, &s.LastName, &s.Email, &s.Phone, &s.LessonsRemaining, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Create inserts a new student
func (r *StudentRepository) Create(in models.StudentInput) (*models.Student, error) {
	query := `
		INSERT INTO students (first_name, last_name, email, phone, lessons_remaining)
		VALUES (?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query, in.FirstName, in.LastName, in.Email, nullString(in.Phone), in.LessonsRemaining)
	if err != nil {
		return nil, fmt.Errorf("failed to create student: %w", err)
	}
	return r.GetByID(id)
}

// GetByID retrieves a student, or nil when it does not exist
func (r *StudentRepository) GetByID(id int64) (*models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE id = ?`
	s, err := scanStudent(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get student: %w", err)
	}
	return s, nil
}

// GetAll retrieves all students ordered by name
func (r *StudentRepository) GetAll() ([]models.Student, error) {
	return r.list(`SELECT `+studentColumns+` FROM students ORDER BY last_name, first_name`)
}

// GetWithCreditsAtMost retrieves students whose balance is at or below max,
// lowest balance first
func (r *StudentRepository) GetWithCreditsAtMost(max int) ([]models.Student, error) {
	return r.list(`SELECT `+studentColumns+` FROM students WHERE lessons_remaining <= ? ORDER BY lessons_remaining, last_name, first_name`, max)
}

func (r *StudentRepository) list(query string, args ...interface{}) ([]models.Student, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query students: %w", err)
	}
	defer rows.Close()

	var students []models.Student
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan student: %w", err)
		}
		students = append(students, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate students: %w", err)
	}
	return students, nil
}

// Count returns the number of students
func (r *StudentRepository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM students").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count students: %w", err)
	}
	return count, nil
}

// Update writes the name and contact fields. The credit balance is left alone.
// Writing identical values is not an error.
func (r *StudentRepository) Update(id int64, in models.StudentInput) error {
	query := `
		UPDATE students
		SET first_name = ?, last_name = ?, email = ?, phone = ?
		WHERE id = ?
	`
	if _, err := r.db.Exec(query, in.FirstName, in.LastName, in.Email, nullString(in.Phone), id); err != nil {
		return fmt.Errorf("failed to update student: %w", err)
	}
	return nil
}

// Delete removes a student. Assignments go with it through the foreign key.
func (r *StudentRepository) Delete(id int64) error {
	result, err := r.db.Exec("DELETE FROM students WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete student: %w", err)
	}
	return requireRow(result)
}

// AddCredits increments the balance unconditionally
func (r *StudentRepository) AddCredits(id int64, amount int) error {
	result, err := r.db.Exec("UPDATE students SET lessons_remaining = lessons_remaining + ? WHERE id = ?", amount, id)
	if err != nil {
		return fmt.Errorf("failed to add credits: %w", err)
	}
	return requireRow(result)
}

// DeductOneCredit decrements the balance by one only when it is above zero.
// It returns ErrInsufficientCredit when the balance is already zero.
func (r *StudentRepository) DeductOneCredit(id int64) error {
	return r.deduct(id, 1)
}

// LowerCredits decrements the balance by amount only when it covers amount
func (r *StudentRepository) LowerCredits(id int64, amount int) error {
	return r.deduct(id, amount)
}

func (r *StudentRepository) deduct(id int64, amount int) error {
	result, err := r.db.Exec(
		"UPDATE students SET lessons_remaining = lessons_remaining - ? WHERE id = ? AND lessons_remaining >= ?",
		amount, id, amount,
	)
	if err != nil {
		return fmt.Errorf("failed to deduct credits: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected > 0 {
		return nil
	}

	existing, err := r.GetByID(id)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrNotFound
	}
	return ErrInsufficientCredit
}

func requireRow(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
