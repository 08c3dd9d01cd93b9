package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/stemsi/rollbook/internal/model"
)

// ErrSaveAttendance is the single error reported when any row of a save fails.
var ErrSaveAttendance = errors.New("failed to save attendance")

// StudentLister reads the full student collection.
type StudentLister interface {
	List(ctx context.Context) ([]model.Student, error)
}

// AttendanceStore reads and writes attendance records.
type AttendanceStore interface {
	ListAll(ctx context.Context) (map[string]model.AttendanceRecord, error)
	Save(ctx context.Context, studentID string, rec model.AttendanceRecord) error
}

// AttendanceService assembles the monthly sheet and saves it back.
type AttendanceService struct {
	students   StudentLister
	attendance AttendanceStore
	log        zerolog.Logger
}

// NewAttendanceService creates a new AttendanceService.
func NewAttendanceService(students StudentLister, attendance AttendanceStore, log zerolog.Logger) *AttendanceService {
	return &AttendanceService{
		students:   students,
		attendance: attendance,
		log:        log.With().Str("component", "attendance").Logger(),
	}
}

// Load fetches students and attendance in parallel and merges them into the
// sheet for the month containing now.
func (s *AttendanceService) Load(ctx context.Context, now time.Time) (*model.AttendanceSheet, error) {
	var (
		students []model.Student
		records  map[string]model.AttendanceRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		students, err = s.students.List(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		records, err = s.attendance.ListAll(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		s.log.Error().Err(err).Msg("Load attendance failed")
		return nil, err
	}

	return model.BuildSheet(model.MonthOf(now), students, records), nil
}

// SaveAll writes every row in parallel. Every write runs to completion even
// when another one fails; any failure yields ErrSaveAttendance.
func (s *AttendanceService) SaveAll(ctx context.Context, sheet *model.AttendanceSheet) error {
	var g errgroup.Group
	for _, row := range sheet.Rows {
		g.Go(func() error {
			return s.attendance.Save(ctx, row.Student.ID, row.Record())
		})
	}

	if err := g.Wait(); err != nil {
		s.log.Error().Err(err).Int("rows", len(sheet.Rows)).Msg("Save attendance failed")
		return ErrSaveAttendance
	}

	s.log.Info().Int("rows", len(sheet.Rows)).Str("month", sheet.Month.Title()).Msg("Attendance saved")
	return nil
}
