package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/stemsi/rollbook/internal/model"
	"github.com/stemsi/rollbook/internal/roster"
)

// ErrAttendanceInit means the student was created but its empty attendance
// record could not be written.
var ErrAttendanceInit = errors.New("student created but attendance record could not be initialized")

// StudentService drives the roster store and keeps attendance records in step
// with newly created students.
type StudentService struct {
	roster     *roster.Store
	attendance AttendanceStore
	now        func() time.Time
	log        zerolog.Logger
}

// NewStudentService creates a new StudentService.
func NewStudentService(store *roster.Store, attendance AttendanceStore, log zerolog.Logger) *StudentService {
	return &StudentService{
		roster:     store,
		attendance: attendance,
		now:        time.Now,
		log:        log.With().Str("component", "students").Logger(),
	}
}

// List reloads the roster from the store and returns the refreshed cache.
func (s *StudentService) List(ctx context.Context) (roster.State, error) {
	if _, err := s.roster.FetchAll(ctx).Wait(ctx); err != nil {
		return s.roster.State(), err
	}
	return s.roster.State(), nil
}

// Snapshot returns the cache without touching the store.
func (s *StudentService) Snapshot() roster.State {
	return s.roster.State()
}

// Create adds a student and an all-unmarked attendance record for the current month.
func (s *StudentService) Create(ctx context.Context, student model.Student) (model.Student, error) {
	created, err := s.roster.Create(ctx, student).Wait(ctx)
	if err != nil {
		return model.Student{}, err
	}

	month := model.MonthOf(s.now())
	rec := model.AttendanceRecord{
		Name:       created.Name,
		RollNumber: created.RollNumber,
		Grade:      created.Grade,
		Attendance: model.EmptyMarks(month.Days),
	}
	if err := s.attendance.Save(ctx, created.ID, rec); err != nil {
		s.log.Error().Err(err).Str("student_id", created.ID).Msg("Initialize attendance failed")
		return created, fmt.Errorf("%w: %v", ErrAttendanceInit, err)
	}

	s.log.Info().Str("student_id", created.ID).Msg("Student created")
	return created, nil
}

// Update patches a student.
func (s *StudentService) Update(ctx context.Context, patch model.StudentPatch) (model.Student, error) {
	return s.roster.Update(ctx, patch).Wait(ctx)
}

// Delete removes a student. Its attendance record stays in the store.
func (s *StudentService) Delete(ctx context.Context, id string) error {
	_, err := s.roster.Delete(ctx, id).Wait(ctx)
	return err
}
