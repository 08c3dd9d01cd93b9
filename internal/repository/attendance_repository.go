package repository

import (
	"context"
	"fmt"

	"github.com/stemsi/rollbook/internal/docstore"
	"github.com/stemsi/rollbook/internal/model"
)

// AttendanceRepository handles attendance record access. Records are keyed by
// the owning student's ID.
type AttendanceRepository struct {
	store DocumentStore
}

// NewAttendanceRepository creates a new AttendanceRepository.
func NewAttendanceRepository(store DocumentStore) *AttendanceRepository {
	return &AttendanceRepository{store: store}
}

// ListAll returns every stored record by student ID. Records of students that
// no longer exist are included.
func (r *AttendanceRepository) ListAll(ctx context.Context) (map[string]model.AttendanceRecord, error) {
	docs, err := r.store.FetchAll(ctx, CollectionAttendance)
	if err != nil {
		return nil, err
	}

	records := make(map[string]model.AttendanceRecord, len(docs))
	for _, d := range docs {
		var rec model.AttendanceRecord
		if err := d.Decode(&rec); err != nil {
			return nil, &docstore.FetchError{
				Message: fmt.Sprintf("failed to decode attendance %s: %v", d.ID, err),
				Err:     err,
			}
		}
		records[d.ID] = rec
	}
	return records, nil
}

// Save overwrites the record of one student.
func (r *AttendanceRepository) Save(ctx context.Context, studentID string, rec model.AttendanceRecord) error {
	if rec.Attendance == nil {
		rec.Attendance = model.Marks{}
	}
	return r.store.Put(ctx, CollectionAttendance, studentID, rec)
}
