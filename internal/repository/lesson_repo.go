package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"padelmanager/internal/database"
	"padelmanager/internal/models"
)

const lessonSelect = `
	SELECT l.id, l.lesson_date, l.start_time, l.end_time, l.instructor, l.location_id,
		COALESCE(l.notes, ''), COALESCE(l.google_event_id, ''), COALESCE(l.entry_code, ''), l.created_at,
		loc.id, COALESCE(loc.name, ''), COALESCE(loc.address, ''), loc.has_entry_code, COALESCE(loc.default_entry_code, '')
	FROM lessons l
	LEFT JOIN locations loc ON loc.id = l.location_id
`

const assignmentSelect = `
	SELECT sl.lesson_id, s.id, s.first_name, s.last_name, s.email, COALESCE(s.phone, ''), s.lessons_remaining, s.created_at, sl.status
	FROM student_lesson sl
	JOIN students s ON s.id = sl.student_id
`

// LessonRepository handles database operations for lessons and their
// student assignments
type LessonRepository struct {
	db database.DBTX
}

// NewLessonRepository creates a new lesson repository
func NewLessonRepository(db database.DBTX) *LessonRepository {
	return &LessonRepository{db: db}
}

// WithTx returns a copy of the repository bound to tx
func (r *LessonRepository) WithTx(tx *database.Tx) *LessonRepository {
	return &LessonRepository{db: tx}
}

func scanLesson(row rowScanner) (*models.Lesson, error) {
	var (
		lesson     models.Lesson
		locationID sql.NullInt64
		joinedID   sql.NullInt64
		hasCode    sql.NullBool
		location   models.Location
	)

	err := row.Scan(
		&lesson.ID,
		civilDate(&lesson.LessonDate),
		civilTime(&lesson.StartTime),
		civilTime(&lesson.EndTime),
		&lesson.Instructor,
		&locationID,
		&lesson.Notes,
		&lesson.GoogleEventID,
		&lesson.EntryCode,
		&lesson.CreatedAt,
		&joinedID,
		&location.Name,
		&location.Address,
		&hasCode,
		&location.DefaultEntryCode,
	)
	if err != nil {
		return nil, err
	}

	if locationID.Valid {
		id := locationID.Int64
		lesson.LocationID = &id
	}
	if joinedID.Valid {
		location.ID = joinedID.Int64
		location.HasEntryCode = hasCode.Valid && hasCode.Bool
		lesson.Location = &location
	}
	return &lesson, nil
}

// Create inserts the lesson row only. Assignments are added separately.
func (r *LessonRepository) Create(in models.LessonInput) (int64, error) {
	query := `
		INSERT INTO lessons (lesson_date, start_time, end_time, instructor, location_id, notes, entry_code)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query,
		in.LessonDate, in.StartTime, in.EndTime, in.Instructor,
		nullID(in.LocationID), nullString(in.Notes), nullString(in.EntryCode),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create lesson: %w", err)
	}
	return id, nil
}

// GetByID retrieves a lesson with its location and assignments, or nil when
// it does not exist
func (r *LessonRepository) GetByID(id int64) (*models.Lesson, error) {
	lesson, err := scanLesson(r.db.QueryRow(lessonSelect+` WHERE l.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lesson: %w", err)
	}

	assignments, err := r.GetAssignments(id)
	if err != nil {
		return nil, err
	}
	lesson.Assignments = assignments
	return lesson, nil
}

// GetAll retrieves all lessons, newest first
func (r *LessonRepository) GetAll() ([]models.Lesson, error) {
	return r.list(lessonSelect + ` ORDER BY l.lesson_date DESC, l.start_time DESC`)
}

// GetOnDate retrieves the lessons on one day in start order
func (r *LessonRepository) GetOnDate(date string) ([]models.Lesson, error) {
	return r.list(lessonSelect+` WHERE l.lesson_date = ? ORDER BY l.start_time`, date)
}

// GetFrom retrieves lessons on or after date, soonest first
func (r *LessonRepository) GetFrom(date string, limit int) ([]models.Lesson, error) {
	return r.list(lessonSelect+` WHERE l.lesson_date >= ? ORDER BY l.lesson_date, l.start_time LIMIT ?`, date, limit)
}

// GetForStudent retrieves the lessons a student is assigned to, newest first
func (r *LessonRepository) GetForStudent(studentID int64) ([]models.Lesson, error) {
	return r.list(lessonSelect+`
		JOIN student_lesson own ON own.lesson_id = l.id AND own.student_id = ?
		ORDER BY l.lesson_date DESC, l.start_time DESC`, studentID)
}

func (r *LessonRepository) list(query string, args ...interface{}) ([]models.Lesson, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query lessons: %w", err)
	}

	var lessons []models.Lesson
	for rows.Next() {
		lesson, err := scanLesson(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan lesson: %w", err)
		}
		lessons = append(lessons, *lesson)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to iterate lessons: %w", err)
	}
	rows.Close()

	if err := r.attachAssignments(lessons); err != nil {
		return nil, err
	}
	return lessons, nil
}

// attachAssignments loads the assignments of all lessons in one query
func (r *LessonRepository) attachAssignments(lessons []models.Lesson) error {
	if len(lessons) == 0 {
		return nil
	}

	index := make(map[int64]int, len(lessons))
	args := make([]interface{}, 0, len(lessons))
	for i, l := range lessons {
		index[l.ID] = i
		args = append(args, l.ID)
	}

	query := assignmentSelect + ` WHERE sl.lesson_id IN (` + placeholders(len(args)) + `) ORDER BY s.first_name, s.last_name`
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return fmt.Errorf("failed to query assignments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		lessonID, a, err := scanAssignment(rows)
		if err != nil {
			return fmt.Errorf("failed to scan assignment: %w", err)
		}
		if i, ok := index[lessonID]; ok {
			lessons[i].Assignments = append(lessons[i].Assignments, a)
		}
	}
	return rows.Err()
}

func scanAssignment(row rowScanner) (int64, models.Assignment, error) {
	var (
		lessonID int64
		a        models.Assignment
		status   string
	)
	s := &a.Student
	err := row.Scan(&lessonID, &s.ID, &s.FirstName, &s.LastName, &s.Email, &s.Phone, &s.LessonsRemaining, &s.CreatedAt, &status)
	a.Status = models.AttendanceStatus(status)
	return lessonID, a, err
}

// Count returns the number of lessons
func (r *LessonRepository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM lessons").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count lessons: %w", err)
	}
	return count, nil
}

// Update writes every scalar field. Writing identical values is not an error.
func (r *LessonRepository) Update(id int64, in models.LessonInput) error {
	query := `
		UPDATE lessons
		SET lesson_date = ?, start_time = ?, end_time = ?, instructor = ?, location_id = ?, notes = ?, entry_code = ?
		WHERE id = ?
	`
	_, err := r.db.Exec(query,
		in.LessonDate, in.StartTime, in.EndTime, in.Instructor,
		nullID(in.LocationID), nullString(in.Notes), nullString(in.EntryCode), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update lesson: %w", err)
	}
	return nil
}

// SetEventID links the lesson to a calendar event. An empty id clears the link.
func (r *LessonRepository) SetEventID(id int64, eventID string) error {
	if _, err := r.db.Exec("UPDATE lessons SET google_event_id = ? WHERE id = ?", nullString(eventID), id); err != nil {
		return fmt.Errorf("failed to store calendar event id: %w", err)
	}
	return nil
}

// Delete removes the lesson row
func (r *LessonRepository) Delete(id int64) error {
	result, err := r.db.Exec("DELETE FROM lessons WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete lesson: %w", err)
	}
	return requireRow(result)
}

// GetAssignments retrieves the students assigned to a lesson with their status
func (r *LessonRepository) GetAssignments(lessonID int64) ([]models.Assignment, error) {
	rows, err := r.db.Query(assignmentSelect+` WHERE sl.lesson_id = ? ORDER BY s.first_name, s.last_name`, lessonID)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}
	defer rows.Close()

	var assignments []models.Assignment
	for rows.Next() {
		_, a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

// HasAssignment reports whether the student is assigned to the lesson
func (r *LessonRepository) HasAssignment(lessonID, studentID int64) (bool, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM student_lesson WHERE lesson_id = ? AND student_id = ?", lessonID, studentID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check assignment: %w", err)
	}
	return count > 0, nil
}

// AddAssignment inserts the join row. A duplicate pair surfaces as a unique
// violation, see database.IsUniqueViolation.
func (r *LessonRepository) AddAssignment(lessonID, studentID int64, status models.AttendanceStatus) error {
	_, err := r.db.Exec("INSERT INTO student_lesson (student_id, lesson_id, status) VALUES (?, ?, ?)", studentID, lessonID, string(status))
	if err != nil {
		return fmt.Errorf("failed to assign student: %w", err)
	}
	return nil
}

// RemoveAssignment deletes the join row. It returns ErrNotFound when the
// pair was not assigned.
func (r *LessonRepository) RemoveAssignment(lessonID, studentID int64) error {
	result, err := r.db.Exec("DELETE FROM student_lesson WHERE lesson_id = ? AND student_id = ?", lessonID, studentID)
	if err != nil {
		return fmt.Errorf("failed to unassign student: %w", err)
	}
	return requireRow(result)
}

// RemoveAllAssignments deletes every join row of a lesson
func (r *LessonRepository) RemoveAllAssignments(lessonID int64) error {
	if _, err := r.db.Exec("DELETE FROM student_lesson WHERE lesson_id = ?", lessonID); err != nil {
		return fmt.Errorf("failed to remove assignments: %w", err)
	}
	return nil
}

// UpdateAssignmentStatus sets the attendance status of one assignment
func (r *LessonRepository) UpdateAssignmentStatus(lessonID, studentID int64, status models.AttendanceStatus) error {
	_, err := r.db.Exec("UPDATE student_lesson SET status = ? WHERE lesson_id = ? AND student_id = ?", string(status), lessonID, studentID)
	if err != nil {
		return fmt.Errorf("failed to update attendance status: %w", err)
	}
	return nil
}
