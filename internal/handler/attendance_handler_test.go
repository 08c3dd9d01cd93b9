package handler_test

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stemsi/rollbook/internal/model"
	"github.com/stemsi/rollbook/internal/repository"
	"github.com/stemsi/rollbook/internal/service"
)

func TestAttendanceSheetAndSave(t *testing.T) {
	a := newApp(t)
	token := a.login(t)
	a.seedStudent(t, model.Student{ID: "s10", Name: "Cleo", Grade: "5B", RollNumber: "10"})
	a.seedStudent(t, model.Student{ID: "s2", Name: "Ben", Grade: "5B", RollNumber: "2"})
	a.store.Seed(t, repository.CollectionAttendance, "s2", model.AttendanceRecord{Attendance: model.Marks{"P", "A"}})

	code, env := a.call(t, http.MethodGet, "/api/v1/attendance", nil, token)
	if code != http.StatusOK {
		t.Fatalf("sheet: %d %+v", code, env.Error)
	}
	sheet := decode[model.AttendanceSheet](t, env.Data)
	days := model.MonthOf(time.Now()).Days
	if sheet.Month.Days != days || len(sheet.Rows) != 2 {
		t.Fatalf("unexpected sheet %+v", sheet)
	}
	if sheet.Rows[0].Student.ID != "s2" || sheet.Rows[1].Student.ID != "s10" {
		t.Fatalf("rows should be ordered by roll number: %s, %s", sheet.Rows[0].Student.ID, sheet.Rows[1].Student.ID)
	}
	if len(sheet.Rows[1].Attendance) != days || sheet.Rows[0].Attendance[1] != model.MarkAbsent {
		t.Fatalf("unexpected marks %+v", sheet.Rows)
	}

	if _, err := sheet.Toggle("s10", 3); err != nil {
		t.Fatal(err)
	}
	code, env = a.call(t, http.MethodPut, "/api/v1/attendance", sheet, token)
	if code != http.StatusOK {
		t.Fatalf("save: %d %+v", code, env.Error)
	}

	var rec model.AttendanceRecord
	if err := json.Unmarshal(a.store.Document(repository.CollectionAttendance, "s10"), &rec); err != nil {
		t.Fatal(err)
	}
	if rec.Name != "Cleo" || rec.RollNumber != "10" || len(rec.Attendance) != days || rec.Attendance[2] != model.MarkPresent {
		t.Fatalf("unexpected saved record %+v", rec)
	}
}

func TestSaveAttendanceValidation(t *testing.T) {
	a := newApp(t)
	token := a.login(t)

	body := map[string]interface{}{
		"month": map[string]int{"year": 2026, "month": 2},
		"rows": []map[string]interface{}{
			{"student": map[string]string{"id": "s1", "name": "Ana"}, "attendance": []string{"P", "X"}},
			{"student": map[string]string{"name": "Ghost"}, "attendance": []string{}},
		},
	}
	code, env := a.call(t, http.MethodPut, "/api/v1/attendance", body, token)
	if code != http.StatusBadRequest || env.Error.Code != "VALIDATION_ERROR" {
		t.Fatalf("expected validation error, got %d %+v", code, env.Error)
	}
	for _, key := range []string{"rows[0].attendance[1]", "rows[1].student.id"} {
		if _, ok := env.Error.Fields[key]; !ok {
			t.Fatalf("expected %s in %v", key, env.Error.Fields)
		}
	}

	code, _ = a.call(t, http.MethodPut, "/api/v1/attendance", map[string]interface{}{"month": map[string]int{"year": 2026, "month": 13}, "rows": []string{}}, token)
	if code != http.StatusBadRequest {
		t.Fatalf("month 13 should be rejected, got %d", code)
	}
	if n := a.store.RequestCount(http.MethodPut); n != 0 {
		t.Fatalf("invalid sheets must not be written, got %d PUTs", n)
	}
}

func TestSaveAttendanceFitsMonth(t *testing.T) {
	a := newApp(t)
	token := a.login(t)

	long := make([]string, 31)
	for i := range long {
		long[i] = "P"
	}
	body := map[string]interface{}{
		"month": map[string]int{"year": 2026, "month": 2, "days": 31},
		"rows": []map[string]interface{}{
			{"student": map[string]string{"id": "s1", "name": "Ana", "grade": "5B", "rollNumber": "1"}, "attendance": long},
		},
	}
	if code, env := a.call(t, http.MethodPut, "/api/v1/attendance", body, token); code != http.StatusOK {
		t.Fatalf("save: %d %+v", code, env.Error)
	}

	var rec model.AttendanceRecord
	_ = json.Unmarshal(a.store.Document(repository.CollectionAttendance, "s1"), &rec)
	if len(rec.Attendance) != 28 {
		t.Fatalf("February 2026 has 28 days, saved %d", len(rec.Attendance))
	}
}

func TestSaveAttendanceFailure(t *testing.T) {
	a := newApp(t)
	token := a.login(t)
	a.store.Fail(http.MethodPut, "/attendance/s2.json", http.StatusInternalServerError, -1)

	body := map[string]interface{}{
		"month": map[string]int{"year": 2026, "month": 10},
		"rows": []map[string]interface{}{
			{"student": map[string]string{"id": "s1"}, "attendance": []string{"P"}},
			{"student": map[string]string{"id": "s2"}, "attendance": []string{"A"}},
		},
	}
	code, env := a.call(t, http.MethodPut, "/api/v1/attendance", body, token)
	if code != http.StatusBadGateway || env.Error.Code != "ATTENDANCE_SAVE_FAILED" {
		t.Fatalf("expected ATTENDANCE_SAVE_FAILED, got %d %+v", code, env.Error)
	}
	if env.Error.Message != service.ErrSaveAttendance.Error() {
		t.Fatalf("unexpected message %q", env.Error.Message)
	}
	if a.store.Document(repository.CollectionAttendance, "s1") == nil {
		t.Fatal("the successful row should still be written")
	}
}

func TestAttendanceSheetFetchFailure(t *testing.T) {
	a := newApp(t)
	token := a.login(t)
	a.store.Fail(http.MethodGet, "/attendance.json", http.StatusServiceUnavailable, -1)

	code, env := a.call(t, http.MethodGet, "/api/v1/attendance", nil, token)
	if code != http.StatusBadGateway || env.Error.Code != "STORE_READ_FAILED" {
		t.Fatalf("expected STORE_READ_FAILED, got %d %+v", code, env.Error)
	}
}
