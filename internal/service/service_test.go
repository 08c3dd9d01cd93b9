package service

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/stemsi/rollbook/internal/docstore"
	"github.com/stemsi/rollbook/internal/docstore/docstoretest"
	"github.com/stemsi/rollbook/internal/model"
	"github.com/stemsi/rollbook/internal/repository"
)

type fixture struct {
	srv        *docstoretest.Server
	students   *repository.StudentRepository
	attendance *repository.AttendanceRepository
	log        zerolog.Logger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	srv := docstoretest.NewServer(t)
	client := docstore.New(srv.URL)
	return &fixture{
		srv:        srv,
		students:   repository.NewStudentRepository(client),
		attendance: repository.NewAttendanceRepository(client),
		log:        zerolog.Nop(),
	}
}

func (f *fixture) seedStudent(t *testing.T, s model.Student) {
	t.Helper()
	f.srv.Seed(t, repository.CollectionStudents, s.ID, s.Fields())
}

func (f *fixture) seedMarks(t *testing.T, id string, marks ...model.Mark) {
	t.Helper()
	f.srv.Seed(t, repository.CollectionAttendance, id, model.AttendanceRecord{Attendance: marks})
}
