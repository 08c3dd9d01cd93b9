// Package roster holds the cached student list and the only operations that
// may change it. Each operation runs against the remote store in the
// background and commits its outcome to the cache when it settles.
package roster

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/stemsi/rollbook/internal/model"
	"github.com/stemsi/rollbook/internal/validator"
)

// Repository is the remote side of the roster.
type Repository interface {
	List(ctx context.Context) ([]model.Student, error)
	Create(ctx context.Context, s model.Student) (model.Student, error)
	Update(ctx context.Context, p model.StudentPatch) (model.StudentPatch, error)
	Delete(ctx context.Context, id string) error
}

// ActionType names an intent.
type ActionType string

const (
	ActionFetchAll ActionType = "students/fetchAll"
	ActionCreate   ActionType = "students/create"
	ActionUpdate   ActionType = "students/update"
	ActionDelete   ActionType = "students/delete"
)

// Action is one transition of an intent.
type Action struct {
	Type      ActionType `json:"type"`
	Phase     Phase      `json:"phase"`
	StudentID string     `json:"student_id,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// State is a snapshot of the store.
type State struct {
	Students []model.Student     `json:"students"`
	Status   model.RequestStatus `json:"status"`
	Error    string              `json:"error,omitempty"`
}

func (s State) clone() State {
	out := s
	out.Students = make([]model.Student, len(s.Students))
	copy(out.Students, s.Students)
	return out
}

// Listener receives every transition with the state right after it.
type Listener func(Action, State)

// ValidationError is returned before any network call when required fields
// are missing.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Store is the single owner of the cached roster.
type Store struct {
	repo Repository
	log  zerolog.Logger

	mu    sync.Mutex
	state State

	lmu       sync.Mutex
	listeners map[int]Listener
	nextID    int
}

// NewStore creates an empty, idle store.
func NewStore(repo Repository, log zerolog.Logger) *Store {
	return &Store{
		repo:      repo,
		log:       log.With().Str("component", "roster").Logger(),
		state:     State{Students: []model.Student{}, Status: model.StatusIdle},
		listeners: make(map[int]Listener),
	}
}

// State returns a copy of the current state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Subscribe registers fn for every transition and returns its removal.
func (s *Store) Subscribe(fn Listener) func() {
	s.lmu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.lmu.Unlock()

	return func() {
		s.lmu.Lock()
		delete(s.listeners, id)
		s.lmu.Unlock()
	}
}

// FetchAll replaces the cache with the remote list. It is the only intent
// that moves Status.
func (s *Store) FetchAll(ctx context.Context) *Result[[]model.Student] {
	res := newResult[[]model.Student]()
	s.dispatch(Action{Type: ActionFetchAll, Phase: PhasePending}, func(st *State) {
		st.Status = model.StatusLoading
	})

	go func() {
		students, err := s.repo.List(ctx)
		if err != nil {
			s.log.Warn().Err(err).Msg("Fetch students failed")
			s.dispatch(Action{Type: ActionFetchAll, Phase: PhaseRejected, Error: err.Error()}, func(st *State) {
				st.Status = model.StatusFailed
				st.Error = err.Error()
			})
			res.settle(nil, err)
			return
		}

		s.dispatch(Action{Type: ActionFetchAll, Phase: PhaseFulfilled}, func(st *State) {
			st.Status = model.StatusSucceeded
			st.Error = ""
			st.Students = copyStudents(students)
		})
		res.settle(copyStudents(students), nil)
	}()
	return res
}

// Create persists a new student, then reloads the whole list into the cache.
func (s *Store) Create(ctx context.Context, student model.Student) *Result[model.Student] {
	student.ID = ""
	if fields := validator.Struct(student); fields != nil {
		return rejected[model.Student](&ValidationError{Fields: fields})
	}

	res := newResult[model.Student]()
	s.dispatch(Action{Type: ActionCreate, Phase: PhasePending}, nil)

	go func() {
		created, err := s.repo.Create(ctx, student)
		var students []model.Student
		if err == nil {
			students, err = s.repo.List(ctx)
		}
		if err != nil {
			s.log.Warn().Err(err).Msg("Create student failed")
			s.dispatch(Action{Type: ActionCreate, Phase: PhaseRejected, StudentID: created.ID, Error: err.Error()}, nil)
			res.settle(model.Student{}, err)
			return
		}

		s.dispatch(Action{Type: ActionCreate, Phase: PhaseFulfilled, StudentID: created.ID}, func(st *State) {
			st.Students = copyStudents(students)
		})
		res.settle(created, nil)
	}()
	return res
}

// Update patches a student. The cached entry with the same ID is replaced in
// place; when none exists the cache is left as is.
func (s *Store) Update(ctx context.Context, patch model.StudentPatch) *Result[model.Student] {
	fields := validator.Struct(patch)
	if patch.ID == "" {
		if fields == nil {
			fields = map[string]string{}
		}
		fields["id"] = "id is a required field"
	}
	if fields != nil {
		return rejected[model.Student](&ValidationError{Fields: fields})
	}

	res := newResult[model.Student]()
	s.dispatch(Action{Type: ActionUpdate, Phase: PhasePending, StudentID: patch.ID}, nil)

	go func() {
		applied, err := s.repo.Update(ctx, patch)
		if err != nil {
			s.log.Warn().Err(err).Str("student_id", patch.ID).Msg("Update student failed")
			s.dispatch(Action{Type: ActionUpdate, Phase: PhaseRejected, StudentID: patch.ID, Error: err.Error()}, nil)
			res.settle(model.Student{}, err)
			return
		}

		updated := model.Student{ID: applied.ID}.Apply(applied)
		s.dispatch(Action{Type: ActionUpdate, Phase: PhaseFulfilled, StudentID: applied.ID}, func(st *State) {
			for i := range st.Students {
				if st.Students[i].ID == applied.ID {
					st.Students[i] = st.Students[i].Apply(applied)
					updated = st.Students[i]
					return
				}
			}
		})
		res.settle(updated, nil)
	}()
	return res
}

// Delete removes a student; the rest of the cache keeps its order.
func (s *Store) Delete(ctx context.Context, id string) *Result[string] {
	if id == "" {
		return rejected[string](&ValidationError{Fields: map[string]string{"id": "id is a required field"}})
	}

	res := newResult[string]()
	s.dispatch(Action{Type: ActionDelete, Phase: PhasePending, StudentID: id}, nil)

	go func() {
		if err := s.repo.Delete(ctx, id); err != nil {
			s.log.Warn().Err(err).Str("student_id", id).Msg("Delete student failed")
			s.dispatch(Action{Type: ActionDelete, Phase: PhaseRejected, StudentID: id, Error: err.Error()}, nil)
			res.settle("", err)
			return
		}

		s.dispatch(Action{Type: ActionDelete, Phase: PhaseFulfilled, StudentID: id}, func(st *State) {
			kept := st.Students[:0:0]
			for _, student := range st.Students {
				if student.ID != id {
					kept = append(kept, student)
				}
			}
			st.Students = kept
		})
		res.settle(id, nil)
	}()
	return res
}

// dispatch applies reduce under the lock, then notifies listeners outside it.
func (s *Store) dispatch(a Action, reduce func(*State)) {
	s.mu.Lock()
	if reduce != nil {
		reduce(&s.state)
	}
	snapshot := s.state.clone()
	s.mu.Unlock()

	s.log.Debug().
		Str("action", string(a.Type)).
		Str("phase", a.Phase.String()).
		Str("status", string(snapshot.Status)).
		Int("students", len(snapshot.Students)).
		Msg("Roster transition")

	s.lmu.Lock()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.lmu.Unlock()

	for _, fn := range listeners {
		fn(a, snapshot.clone())
	}
}

func copyStudents(in []model.Student) []model.Student {
	out := make([]model.Student, len(in))
	copy(out, in)
	return out
}

// String renders a phase-qualified action name, e.g. "students/create/fulfilled".
func (a Action) String() string {
	return fmt.Sprintf("%s/%s", a.Type, a.Phase)
}
