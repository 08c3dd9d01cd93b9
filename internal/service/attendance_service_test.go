package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stemsi/rollbook/internal/docstore"
	"github.com/stemsi/rollbook/internal/model"
	"github.com/stemsi/rollbook/internal/repository"
)

var october = time.Date(2026, time.October, 19, 9, 0, 0, 0, time.UTC)

func TestLoadSortsAndMerges(t *testing.T) {
	f := newFixture(t)
	f.seedStudent(t, model.Student{ID: "s10", Name: "Ten", Grade: "5B", RollNumber: "10"})
	f.seedStudent(t, model.Student{ID: "s2", Name: "Two", Grade: "5B", RollNumber: "2"})
	f.seedStudent(t, model.Student{ID: "s1", Name: "One", Grade: "5B", RollNumber: "1"})
	f.seedMarks(t, "s2", model.MarkPresent, model.MarkAbsent)

	svc := NewAttendanceService(f.students, f.attendance, f.log)
	sheet, err := svc.Load(context.Background(), october)
	if err != nil {
		t.Fatal(err)
	}

	if sheet.Month.Days != 31 || sheet.Month.Month != time.October {
		t.Fatalf("unexpected month: %+v", sheet.Month)
	}
	var rolls []string
	for _, row := range sheet.Rows {
		rolls = append(rolls, row.Student.RollNumber)
		if len(row.Attendance) != 31 {
			t.Fatalf("row %s has %d marks", row.Student.ID, len(row.Attendance))
		}
	}
	if len(rolls) != 3 || rolls[0] != "1" || rolls[1] != "2" || rolls[2] != "10" {
		t.Fatalf("unexpected order: %v", rolls)
	}
	if sheet.Rows[1].Attendance[0] != model.MarkPresent || sheet.Rows[1].Attendance[1] != model.MarkAbsent {
		t.Fatalf("stored marks lost: %v", sheet.Rows[1].Attendance[:2])
	}
	for _, m := range sheet.Rows[0].Attendance {
		if m != model.MarkUnmarked {
			t.Fatalf("missing record should be all unmarked, got %q", m)
		}
	}
}

func TestLoadToleratesOutOfRangeDayIndex(t *testing.T) {
	f := newFixture(t)
	f.seedStudent(t, model.Student{ID: "s1", Name: "One", Grade: "5B", RollNumber: "1"})
	f.srv.ServeRaw(repository.CollectionAttendance,
		`{"s1":{"name":"One","rollNumber":"1","grade":"5B","attendance":{"2":"P","99999999999999999":"A"}}}`)

	svc := NewAttendanceService(f.students, f.attendance, f.log)
	sheet, err := svc.Load(context.Background(), october)
	if err != nil {
		t.Fatal(err)
	}
	row := sheet.Rows[0]
	if len(row.Attendance) != 31 || row.Attendance[2] != model.MarkPresent {
		t.Fatalf("unexpected marks: %v", row.Attendance)
	}
}

func TestLoadFailsWhenEitherFetchFails(t *testing.T) {
	for _, path := range []string{"/students.json", "/attendance.json"} {
		f := newFixture(t)
		f.srv.Fail(http.MethodGet, path, http.StatusInternalServerError, -1)

		svc := NewAttendanceService(f.students, f.attendance, f.log)
		_, err := svc.Load(context.Background(), october)
		var fe *docstore.FetchError
		if !errors.As(err, &fe) {
			t.Fatalf("%s: expected FetchError, got %v", path, err)
		}
	}
}

func TestSaveAllPartialFailure(t *testing.T) {
	f := newFixture(t)
	for _, s := range []model.Student{
		{ID: "s1", Name: "One", Grade: "5B", RollNumber: "1"},
		{ID: "s2", Name: "Two", Grade: "5B", RollNumber: "2"},
		{ID: "s3", Name: "Three", Grade: "5B", RollNumber: "3"},
	} {
		f.seedStudent(t, s)
	}
	f.srv.Fail(http.MethodPut, "/attendance/s2.json", http.StatusInternalServerError, -1)

	svc := NewAttendanceService(f.students, f.attendance, f.log)
	sheet, err := svc.Load(context.Background(), october)
	if err != nil {
		t.Fatal(err)
	}
	for _, row := range sheet.Rows {
		if _, err := sheet.Toggle(row.Student.ID, 1); err != nil {
			t.Fatal(err)
		}
	}

	err = svc.SaveAll(context.Background(), sheet)
	if err != ErrSaveAttendance {
		t.Fatalf("expected exactly ErrSaveAttendance, got %v", err)
	}
	if err.Error() != "failed to save attendance" {
		t.Fatalf("error should not name the failed row: %q", err.Error())
	}

	if n := f.srv.RequestCount(http.MethodPut); n != 3 {
		t.Fatalf("every row should be attempted, saw %d PUTs", n)
	}
	for _, id := range []string{"s1", "s3"} {
		var rec model.AttendanceRecord
		if err := json.Unmarshal(f.srv.Document(repository.CollectionAttendance, id), &rec); err != nil {
			t.Fatalf("%s not written: %v", id, err)
		}
		if rec.Attendance[0] != model.MarkPresent {
			t.Fatalf("%s: unexpected marks %v", id, rec.Attendance[:1])
		}
	}
	if f.srv.Document(repository.CollectionAttendance, "s2") != nil {
		t.Fatal("failed row should not be stored")
	}
}

func TestSaveAllWritesFullRecords(t *testing.T) {
	f := newFixture(t)
	f.seedStudent(t, model.Student{ID: "s1", Name: "One", Grade: "5B", RollNumber: "1"})

	svc := NewAttendanceService(f.students, f.attendance, f.log)
	sheet, err := svc.Load(context.Background(), october)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := sheet.Toggle("s1", 3); err != nil {
		t.Fatal(err)
	}
	if err := svc.SaveAll(context.Background(), sheet); err != nil {
		t.Fatal(err)
	}

	var rec model.AttendanceRecord
	if err := json.Unmarshal(f.srv.Document(repository.CollectionAttendance, "s1"), &rec); err != nil {
		t.Fatal(err)
	}
	if rec.Name != "One" || rec.RollNumber != "1" || rec.Grade != "5B" || len(rec.Attendance) != 31 || rec.Attendance[2] != model.MarkPresent {
		t.Fatalf("unexpected record: %+v", rec)
	}

	reloaded, err := svc.Load(context.Background(), october)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.Rows[0].Attendance[2] != model.MarkPresent {
		t.Fatal("saved mark not visible after reload")
	}
}
