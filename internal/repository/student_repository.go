package repository

import (
	"context"
	"fmt"

	"github.com/stemsi/rollbook/internal/docstore"
	"github.com/stemsi/rollbook/internal/model"
)

// Collection names on the document store.
const (
	CollectionStudents   = "students"
	CollectionAttendance = "attendance"
)

// DocumentStore is the subset of the document store client the repositories use.
type DocumentStore interface {
	FetchAll(ctx context.Context, collection string) ([]docstore.Document, error)
	Create(ctx context.Context, collection string, v any) (string, error)
	Update(ctx context.Context, collection, id string, v any) error
	Put(ctx context.Context, collection, id string, v any) error
	Delete(ctx context.Context, collection, id string) (bool, error)
}

// StudentRepository handles student data access.
type StudentRepository struct {
	store DocumentStore
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(store DocumentStore) *StudentRepository {
	return &StudentRepository{store: store}
}

// List retrieves every student in store order.
func (r *StudentRepository) List(ctx context.Context) ([]model.Student, error) {
	docs, err := r.store.FetchAll(ctx, CollectionStudents)
	if err != nil {
		return nil, err
	}

	students := make([]model.Student, 0, len(docs))
	for _, d := range docs {
		var f model.StudentFields
		if err := d.Decode(&f); err != nil {
			return nil, &docstore.FetchError{
				Message: fmt.Sprintf("failed to decode student %s: %v", d.ID, err),
				Err:     err,
			}
		}
		students = append(students, f.WithID(d.ID))
	}
	return students, nil
}

// Create persists a new student and returns it with its generated ID.
func (r *StudentRepository) Create(ctx context.Context, s model.Student) (model.Student, error) {
	id, err := r.store.Create(ctx, CollectionStudents, s.Fields())
	if err != nil {
		return model.Student{}, err
	}
	s.ID = id
	return s, nil
}

// Update sends only the patched fields. The store does not echo the merged
// document, so the patch itself is returned as the result.
func (r *StudentRepository) Update(ctx context.Context, p model.StudentPatch) (model.StudentPatch, error) {
	if err := r.store.Update(ctx, CollectionStudents, p.ID, p); err != nil {
		return model.StudentPatch{}, err
	}
	return p, nil
}

// Delete removes a student document. The paired attendance record is left in place.
func (r *StudentRepository) Delete(ctx context.Context, id string) error {
	_, err := r.store.Delete(ctx, CollectionStudents, id)
	return err
}
