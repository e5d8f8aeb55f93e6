package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"padelmanager/internal/database"
	"padelmanager/internal/models"
	"padelmanager/internal/repository"
	"padelmanager/internal/validation"
)

// CalendarMirror keeps an external calendar in step with lessons.
// *calendar.Mirror implements it.
type CalendarMirror interface {
	CreateLessonEvent(ctx context.Context, lesson *models.Lesson) (string, error)
	UpdateLessonEvent(ctx context.Context, eventID string, lesson *models.Lesson) (string, error)
	DeleteLessonEvent(ctx context.Context, eventID string) error
}

// CreditNotifier is told about students whose balance ran low after a charge
type CreditNotifier interface {
	NotifyLowCredit(ctx context.Context, student models.Student) error
}

// LessonResult is the outcome of a committed lesson change. MirrorErr is set
// when the local change succeeded but the calendar could not be updated.
type LessonResult struct {
	Lesson    *models.Lesson
	Skipped   []int64
	MirrorErr error
}

// LessonService coordinates lessons, student credits and attendance. Credit
// and assignment changes of one operation commit together; the calendar is
// updated after the commit and never rolls it back.
type LessonService struct {
	db           *database.DB
	lessonRepo   *repository.LessonRepository
	studentRepo  *repository.StudentRepository
	locationRepo *repository.LocationRepository
	mirror       CalendarMirror

	notifier           CreditNotifier
	lowCreditThreshold int
}

// NewLessonService creates a lesson service. mirror may be nil when calendar
// sync is disabled.
func NewLessonService(db *database.DB, lessonRepo *repository.LessonRepository, studentRepo *repository.StudentRepository, locationRepo *repository.LocationRepository, mirror CalendarMirror) *LessonService {
	return &LessonService{
		db:           db,
		lessonRepo:   lessonRepo,
		studentRepo:  studentRepo,
		locationRepo: locationRepo,
		mirror:       mirror,
	}
}

// WithCreditNotifier enables low balance notifications for balances at or
// below threshold
func (s *LessonService) WithCreditNotifier(notifier CreditNotifier, threshold int) *LessonService {
	s.notifier = notifier
	s.lowCreditThreshold = threshold
	return s
}

// CalendarEnabled reports whether lessons are mirrored
func (s *LessonService) CalendarEnabled() bool {
	return s.mirror != nil
}

// Get returns a lesson with its location and assignments
func (s *LessonService) Get(id int64) (*models.Lesson, error) {
	lesson, err := s.lessonRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if lesson == nil {
		return nil, ErrLessonNotFound
	}
	return lesson, nil
}

// List returns all lessons, newest first
func (s *LessonService) List() ([]models.Lesson, error) {
	return s.lessonRepo.GetAll()
}

// Upcoming returns up to limit lessons on or after today, soonest first
func (s *LessonService) Upcoming(today string, limit int) ([]models.Lesson, error) {
	return s.lessonRepo.GetFrom(today, limit)
}

// HistoryForStudent returns the lessons a student took part in, newest first
func (s *LessonService) HistoryForStudent(studentID int64) (*models.Student, []models.Lesson, error) {
	student, err := s.studentRepo.GetByID(studentID)
	if err != nil {
		return nil, nil, err
	}
	if student == nil {
		return nil, nil, ErrStudentNotFound
	}
	lessons, err := s.lessonRepo.GetForStudent(studentID)
	if err != nil {
		return nil, nil, err
	}
	return student, lessons, nil
}

// Create inserts a lesson and charges one credit per requested student.
// Students without credit, or unknown ids, are skipped and listed in
// LessonResult.Skipped. When anyone was assigned the lesson is mirrored to
// the calendar after the commit.
func (s *LessonService) Create(ctx context.Context, input models.LessonInput) (*LessonResult, error) {
	input.Normalize()
	if err := validation.ValidateLesson(input); err != nil {
		return nil, err
	}
	if input.LocationID != nil {
		location, err := s.requireLocation(*input.LocationID)
		if err != nil {
			return nil, err
		}
		input.EntryCode = location.EntryCodeFor(input.EntryCode)
	}

	result := &LessonResult{}
	var lessonID int64
	var charged []models.Student

	err := s.db.WithTx(func(tx *database.Tx) error {
		lessons := s.lessonRepo.WithTx(tx)
		students := s.studentRepo.WithTx(tx)

		id, err := lessons.Create(input)
		if err != nil {
			return err
		}
		lessonID = id

		for _, studentID := range uniqueIDs(input.StudentIDs) {
			student, err := chargeAndAssign(lessons, students, id, studentID)
			if isSkippable(err) {
				log.Printf("Skipping student %d for lesson %d: %v", studentID, id, err)
				result.Skipped = append(result.Skipped, studentID)
				continue
			}
			if err != nil {
				return err
			}
			charged = append(charged, *student)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	lesson, err := s.Get(lessonID)
	if err != nil {
		return nil, err
	}
	result.Lesson = lesson

	if len(lesson.Assignments) > 0 {
		result.MirrorErr = s.mirrorCreate(ctx, lesson)
	}
	s.notifyLowCredit(ctx, charged)
	return result, nil
}

// Update applies a partial change. When the patch carries a roster, removed
// students get their credit back and added students are charged. Statuses
// update attendance of students that remain assigned. A linked calendar event
// is rewritten after the commit.
func (s *LessonService) Update(ctx context.Context, id int64, patch models.LessonPatch) (*LessonResult, error) {
	current, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	merged := patch.Merge(current)
	if err := validation.ValidateLesson(merged); err != nil {
		return nil, err
	}
	if patch.LocationID.Set && merged.LocationID != nil {
		if _, err := s.requireLocation(*merged.LocationID); err != nil {
			return nil, err
		}
	}
	for studentID, status := range patch.Statuses {
		if !status.Valid() {
			return nil, validation.ValidationErrors{{Field: "status", Message: fmt.Sprintf("invalid status %q for student %d", status, studentID)}}
		}
	}

	result := &LessonResult{}
	var charged []models.Student

	err = s.db.WithTx(func(tx *database.Tx) error {
		lessons := s.lessonRepo.WithTx(tx)
		students := s.studentRepo.WithTx(tx)

		if err := lessons.Update(id, merged); err != nil {
			return err
		}

		if patch.StudentIDs.Set {
			toAdd, toRemove := diffIDs(current.StudentIDs(), uniqueIDs(patch.StudentIDs.Value))

			for _, studentID := range toRemove {
				err := unassignAndRefund(lessons, students, id, studentID)
				if errors.Is(err, repository.ErrNotFound) {
					// Deleted concurrently, nothing left to refund
					continue
				}
				if err != nil {
					return err
				}
			}

			for _, studentID := range toAdd {
				student, err := chargeAndAssign(lessons, students, id, studentID)
				if isSkippable(err) {
					log.Printf("Skipping student %d for lesson %d: %v", studentID, id, err)
					result.Skipped = append(result.Skipped, studentID)
					continue
				}
				if err != nil {
					return err
				}
				charged = append(charged, *student)
			}
		}

		for studentID, status := range patch.Statuses {
			assigned, err := lessons.HasAssignment(id, studentID)
			if err != nil {
				return err
			}
			if !assigned {
				continue
			}
			if err := lessons.UpdateAssignmentStatus(id, studentID, status); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	lesson, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	result.Lesson = lesson

	if lesson.IsSynced() {
		result.MirrorErr = s.mirrorUpdate(ctx, lesson)
	}
	s.notifyLowCredit(ctx, charged)
	return result, nil
}

// Delete refunds every assigned student and removes the lesson. The calendar
// event is deleted afterwards on a best-effort basis.
func (s *LessonService) Delete(ctx context.Context, id int64) error {
	lesson, err := s.Get(id)
	if err != nil {
		return err
	}

	err = s.db.WithTx(func(tx *database.Tx) error {
		lessons := s.lessonRepo.WithTx(tx)
		students := s.studentRepo.WithTx(tx)

		assignments, err := lessons.GetAssignments(id)
		if err != nil {
			return err
		}
		for _, a := range assignments {
			if err := students.AddCredits(a.Student.ID, 1); err != nil {
				return err
			}
		}
		if err := lessons.RemoveAllAssignments(id); err != nil {
			return err
		}
		return lessons.Delete(id)
	})
	if err != nil {
		return err
	}

	if lesson.IsSynced() && s.mirror != nil {
		if err := s.mirror.DeleteLessonEvent(ctx, lesson.GoogleEventID); err != nil {
			log.Printf("Failed to delete calendar event %s of lesson %d: %v", lesson.GoogleEventID, id, err)
		}
	}
	return nil
}

// AssignStudent adds one student and charges one credit. It fails with
// ErrAlreadyAssigned for an existing pair and with
// repository.ErrInsufficientCredit when the student has no credit left.
func (s *LessonService) AssignStudent(ctx context.Context, lessonID, studentID int64) (*LessonResult, error) {
	if _, err := s.Get(lessonID); err != nil {
		return nil, err
	}
	if err := s.requireStudent(studentID); err != nil {
		return nil, err
	}

	var charged *models.Student
	err := s.db.WithTx(func(tx *database.Tx) error {
		lessons := s.lessonRepo.WithTx(tx)
		assigned, err := lessons.HasAssignment(lessonID, studentID)
		if err != nil {
			return err
		}
		if assigned {
			return ErrAlreadyAssigned
		}
		charged, err = chargeAndAssign(lessons, s.studentRepo.WithTx(tx), lessonID, studentID)
		return err
	})
	if err != nil {
		return nil, err
	}

	result, err := s.remirror(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	s.notifyLowCredit(ctx, []models.Student{*charged})
	return result, nil
}

// UnassignStudent removes one student and refunds their credit
func (s *LessonService) UnassignStudent(ctx context.Context, lessonID, studentID int64) (*LessonResult, error) {
	if _, err := s.Get(lessonID); err != nil {
		return nil, err
	}

	err := s.db.WithTx(func(tx *database.Tx) error {
		err := unassignAndRefund(s.lessonRepo.WithTx(tx), s.studentRepo.WithTx(tx), lessonID, studentID)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAssignmentNotFound
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	return s.remirror(ctx, lessonID)
}

// UpdateAttendanceStatus records attendance for one assigned student. Credits
// are not touched.
func (s *LessonService) UpdateAttendanceStatus(ctx context.Context, lessonID, studentID int64, status models.AttendanceStatus) error {
	if !status.Valid() {
		return validation.ValidationErrors{{Field: "status", Message: fmt.Sprintf("invalid status %q", status)}}
	}

	assigned, err := s.lessonRepo.HasAssignment(lessonID, studentID)
	if err != nil {
		return err
	}
	if !assigned {
		return ErrAssignmentNotFound
	}
	return s.lessonRepo.UpdateAssignmentStatus(lessonID, studentID, status)
}

// Sync pushes the lesson to the calendar, updating its event or creating one.
// A calendar failure is returned as a *MirrorError.
func (s *LessonService) Sync(ctx context.Context, id int64) (*models.Lesson, error) {
	if s.mirror == nil {
		return nil, ErrCalendarDisabled
	}

	lesson, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	if lesson.IsSynced() {
		err = s.mirrorUpdate(ctx, lesson)
	} else {
		err = s.mirrorCreate(ctx, lesson)
	}
	return lesson, err
}

// SyncAll syncs every lesson and reports how many succeeded and failed
func (s *LessonService) SyncAll(ctx context.Context) (synced, failed int, err error) {
	if s.mirror == nil {
		return 0, 0, ErrCalendarDisabled
	}

	lessons, err := s.List()
	if err != nil {
		return 0, 0, err
	}
	for _, l := range lessons {
		if err := ctx.Err(); err != nil {
			return synced, failed, err
		}
		if _, err := s.Sync(ctx, l.ID); err != nil {
			log.Printf("Sync of lesson %d failed: %v", l.ID, err)
			failed++
			continue
		}
		synced++
	}
	return synced, failed, nil
}

// remirror reloads a lesson after a committed roster change and rewrites its
// calendar event when it has one
func (s *LessonService) remirror(ctx context.Context, lessonID int64) (*LessonResult, error) {
	lesson, err := s.Get(lessonID)
	if err != nil {
		return nil, err
	}
	result := &LessonResult{Lesson: lesson}
	if lesson.IsSynced() {
		result.MirrorErr = s.mirrorUpdate(ctx, lesson)
	}
	return result, nil
}

func (s *LessonService) mirrorCreate(ctx context.Context, lesson *models.Lesson) error {
	if s.mirror == nil {
		return nil
	}

	eventID, err := s.mirror.CreateLessonEvent(ctx, lesson)
	if err != nil {
		log.Printf("Calendar create for lesson %d failed: %v", lesson.ID, err)
		return &MirrorError{Op: "create", LessonID: lesson.ID, Err: err}
	}

	if err := s.lessonRepo.SetEventID(lesson.ID, eventID); err != nil {
		// Without the id the event would be orphaned, so take it down again
		if delErr := s.mirror.DeleteLessonEvent(ctx, eventID); delErr != nil {
			log.Printf("Failed to remove unlinked calendar event %s: %v", eventID, delErr)
		}
		return &MirrorError{Op: "create", LessonID: lesson.ID, Err: err}
	}
	lesson.GoogleEventID = eventID
	return nil
}

func (s *LessonService) mirrorUpdate(ctx context.Context, lesson *models.Lesson) error {
	if s.mirror == nil {
		return nil
	}

	eventID, err := s.mirror.UpdateLessonEvent(ctx, lesson.GoogleEventID, lesson)
	if eventID != lesson.GoogleEventID {
		if storeErr := s.lessonRepo.SetEventID(lesson.ID, eventID); storeErr != nil {
			err = errors.Join(err, storeErr)
		} else {
			lesson.GoogleEventID = eventID
		}
	}
	if err != nil {
		log.Printf("Calendar update for lesson %d failed: %v", lesson.ID, err)
		return &MirrorError{Op: "update", LessonID: lesson.ID, Err: err}
	}
	return nil
}

func (s *LessonService) notifyLowCredit(ctx context.Context, charged []models.Student) {
	if s.notifier == nil {
		return
	}
	for _, student := range charged {
		if student.Email == "" || student.LessonsRemaining > s.lowCreditThreshold {
			continue
		}
		if err := s.notifier.NotifyLowCredit(ctx, student); err != nil {
			log.Printf("Low credit reminder for student %d failed: %v", student.ID, err)
		}
	}
}

func (s *LessonService) requireLocation(id int64) (*models.Location, error) {
	location, err := s.locationRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if location == nil {
		return nil, ErrLocationNotFound
	}
	return location, nil
}

func (s *LessonService) requireStudent(id int64) error {
	student, err := s.studentRepo.GetByID(id)
	if err != nil {
		return err
	}
	if student == nil {
		return ErrStudentNotFound
	}
	return nil
}

// chargeAndAssign deducts one credit and inserts the assignment with status
// Present. It returns the student with the balance after the charge.
func chargeAndAssign(lessons *repository.LessonRepository, students *repository.StudentRepository, lessonID, studentID int64) (*models.Student, error) {
	if err := students.DeductOneCredit(studentID); err != nil {
		return nil, err
	}
	if err := lessons.AddAssignment(lessonID, studentID, models.StatusPresent); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrAlreadyAssigned
		}
		return nil, err
	}

	student, err := students.GetByID(studentID)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, repository.ErrNotFound
	}
	return student, nil
}

func unassignAndRefund(lessons *repository.LessonRepository, students *repository.StudentRepository, lessonID, studentID int64) error {
	if err := lessons.RemoveAssignment(lessonID, studentID); err != nil {
		return err
	}
	return students.AddCredits(studentID, 1)
}

// isSkippable reports per-student failures that skip the student instead of
// failing the whole roster change
func isSkippable(err error) bool {
	return errors.Is(err, repository.ErrInsufficientCredit) || errors.Is(err, repository.ErrNotFound)
}

// uniqueIDs drops duplicates and keeps first-seen order
func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// diffIDs returns the ids only in next (to add) and only in current (to remove)
func diffIDs(current, next []int64) (toAdd, toRemove []int64) {
	inCurrent := make(map[int64]bool, len(current))
	for _, id := range current {
		inCurrent[id] = true
	}
	inNext := make(map[int64]bool, len(next))
	for _, id := range next {
		inNext[id] = true
		if !inCurrent[id] {
			toAdd = append(toAdd, id)
		}
	}
	for _, id := range current {
		if !inNext[id] {
			toRemove = append(toRemove, id)
		}
	}
	return toAdd, toRemove
}
