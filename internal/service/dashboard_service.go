package service

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/stemsi/rollbook/internal/model"
)

// DashboardData holds the overview statistics.
type DashboardData struct {
	TotalStudents     int    `json:"total_students"`
	PresentMarks      int    `json:"present_marks"`
	MarkedDays        int    `json:"marked_days"`
	AverageAttendance string `json:"average_attendance"`
}

// DashboardService computes dashboard statistics.
type DashboardService struct {
	students   StudentLister
	attendance AttendanceStore
}

// NewDashboardService creates a new DashboardService.
func NewDashboardService(students StudentLister, attendance AttendanceStore) *DashboardService {
	return &DashboardService{students: students, attendance: attendance}
}

// GetDashboardData fetches students and attendance concurrently. Records of
// deleted students still count toward the average.
func (s *DashboardService) GetDashboardData(ctx context.Context) (*DashboardData, error) {
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
		return nil, err
	}

	data := &DashboardData{TotalStudents: len(students)}
	for _, rec := range records {
		for _, m := range rec.Attendance {
			switch m {
			case model.MarkPresent:
				data.PresentMarks++
				data.MarkedDays++
			case model.MarkAbsent:
				data.MarkedDays++
			}
		}
	}
	data.AverageAttendance = AverageAttendance(data.PresentMarks, data.MarkedDays)
	return data, nil
}

// AverageAttendance formats present/marked as a rounded percentage, "0%" when
// nothing is marked.
func AverageAttendance(present, marked int) string {
	if marked == 0 {
		return "0%"
	}
	return fmt.Sprintf("%d%%", int(math.Round(float64(present)/float64(marked)*100)))
}
