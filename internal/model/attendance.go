package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Mark is a single day's attendance value.
type Mark string

const (
	MarkPresent  Mark = "P"
	MarkAbsent   Mark = "A"
	MarkUnmarked Mark = ""
)

// Toggled returns the next value of a clicked cell: "P" becomes "A",
// anything else (including an unmarked cell) becomes "P".
func (m Mark) Toggled() Mark {
	if m == MarkPresent {
		return MarkAbsent
	}
	return MarkPresent
}

// Valid reports whether m is one of the values a cell may hold.
func (m Mark) Valid() bool {
	return m == MarkPresent || m == MarkAbsent || m == MarkUnmarked
}

// Marks is the per-day sequence of a month, index 0 being day 1.
type Marks []Mark

// MaxDays is the longest month. Sparse indices at or beyond it are dropped on
// decode since Fit would truncate them anyway.
const MaxDays = 31

// UnmarshalJSON accepts the shapes the document store hands back: an array,
// null, an empty object, or an object keyed by array index (sparse arrays).
func (m *Marks) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*m = nil
		return nil
	}

	if data[0] == '[' {
		var raw []*string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		out := make(Marks, len(raw))
		for i, v := range raw {
			if v != nil {
				out[i] = Mark(*v)
			}
		}
		*m = out
		return nil
	}

	var byIndex map[string]*string
	if err := json.Unmarshal(data, &byIndex); err != nil {
		return fmt.Errorf("attendance marks: %w", err)
	}
	size := 0
	for k := range byIndex {
		i, err := strconv.Atoi(k)
		if err != nil || i < 0 {
			return fmt.Errorf("attendance marks: invalid day index %q", k)
		}
		if i >= MaxDays {
			continue
		}
		if i+1 > size {
			size = i + 1
		}
	}
	out := make(Marks, size)
	for k, v := range byIndex {
		i, _ := strconv.Atoi(k)
		if i < MaxDays && v != nil {
			out[i] = Mark(*v)
		}
	}
	*m = out
	return nil
}

// EmptyMarks returns an all-unmarked sequence of the given length.
func EmptyMarks(days int) Marks {
	return make(Marks, days)
}

// Fit returns a copy of m resized to exactly days entries, padding with
// unmarked cells or dropping the tail.
func (m Marks) Fit(days int) Marks {
	out := EmptyMarks(days)
	copy(out, m)
	return out
}

// AttendanceRecord is the document stored under /attendance/{studentID}.
// It is always written whole.
type AttendanceRecord struct {
	Name       string `json:"name"`
	RollNumber string `json:"rollNumber"`
	Grade      string `json:"grade"`
	Attendance Marks  `json:"attendance"`
}

// Month identifies the calendar month a sheet covers.
type Month struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Days  int        `json:"days"`
}

// MonthOf returns the month containing t with its day count.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month(), Days: DaysInMonth(t.Year(), t.Month())}
}

// Title renders e.g. "October 2026".
func (m Month) Title() string {
	return fmt.Sprintf("%s %d", m.Month, m.Year)
}

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// AttendanceRow is one student's line on the sheet.
type AttendanceRow struct {
	Student    Student `json:"student"`
	Attendance Marks   `json:"attendance"`
}

// Record builds the full-replacement document for the row.
func (r AttendanceRow) Record() AttendanceRecord {
	return AttendanceRecord{
		Name:       r.Student.Name,
		RollNumber: r.Student.RollNumber,
		Grade:      r.Student.Grade,
		Attendance: r.Attendance,
	}
}

// AttendanceSheet is the merged month view of the roster and its marks.
type AttendanceSheet struct {
	Month Month           `json:"month"`
	Rows  []AttendanceRow `json:"rows"`
}

var (
	ErrUnknownStudent = errors.New("student is not on the sheet")
	ErrDayOutOfRange  = errors.New("day is outside the sheet's month")
)

// BuildSheet merges students with their attendance records for month.
// Rows are ordered by numeric roll number; a student without a record gets
// an all-unmarked row.
func BuildSheet(month Month, students []Student, records map[string]AttendanceRecord) *AttendanceSheet {
	sorted := make([]Student, len(students))
	copy(sorted, students)
	SortByRollNumber(sorted)

	rows := make([]AttendanceRow, 0, len(sorted))
	for _, s := range sorted {
		marks := EmptyMarks(month.Days)
		if rec, ok := records[s.ID]; ok && rec.Attendance != nil {
			marks = rec.Attendance.Fit(month.Days)
		}
		rows = append(rows, AttendanceRow{Student: s, Attendance: marks})
	}
	return &AttendanceSheet{Month: month, Rows: rows}
}

// Toggle flips one cell. day is 1-based.
func (s *AttendanceSheet) Toggle(studentID string, day int) (Mark, error) {
	if day < 1 || day > s.Month.Days {
		return "", ErrDayOutOfRange
	}
	for i := range s.Rows {
		if s.Rows[i].Student.ID != studentID {
			continue
		}
		row := &s.Rows[i]
		if len(row.Attendance) != s.Month.Days {
			row.Attendance = row.Attendance.Fit(s.Month.Days)
		}
		row.Attendance[day-1] = row.Attendance[day-1].Toggled()
		return row.Attendance[day-1], nil
	}
	return "", ErrUnknownStudent
}

// SortByRollNumber orders students by the numeric value of their roll number.
// Roll numbers that are not numbers sort after numeric ones; ties keep their
// original order.
func SortByRollNumber(students []Student) {
	sort.SliceStable(students, func(i, j int) bool {
		return rollKey(students[i].RollNumber) < rollKey(students[j].RollNumber)
	})
}

func rollKey(roll string) float64 {
	n, err := strconv.ParseFloat(strings.TrimSpace(roll), 64)
	if err != nil || math.IsNaN(n) {
		return math.Inf(1)
	}
	return n
}
