package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/stemsi/rollbook/internal/config"
	"github.com/stemsi/rollbook/internal/docstore"
	"github.com/stemsi/rollbook/internal/docstore/docstoretest"
	"github.com/stemsi/rollbook/internal/handler"
	"github.com/stemsi/rollbook/internal/identity"
	"github.com/stemsi/rollbook/internal/metrics"
	"github.com/stemsi/rollbook/internal/middleware"
	"github.com/stemsi/rollbook/internal/model"
	"github.com/stemsi/rollbook/internal/repository"
	"github.com/stemsi/rollbook/internal/roster"
	"github.com/stemsi/rollbook/internal/router"
	"github.com/stemsi/rollbook/internal/service"
	"github.com/stemsi/rollbook/internal/session"
	"github.com/stemsi/rollbook/internal/validator"
)

func init() {
	gin.SetMode(gin.TestMode)
	validator.Setup()
}

// stubIdentity accepts the password "secret"; "down" simulates an outage.
type stubIdentity struct{}

func (stubIdentity) SignInWithPassword(_ context.Context, email, password string) (*identity.Teacher, error) {
	switch password {
	case "secret":
		return &identity.Teacher{UID: "uid-" + email, Email: email, DisplayName: "Ms. Rivera"}, nil
	case "down":
		return nil, identity.ErrUnavailable
	default:
		return nil, identity.ErrInvalidCredentials
	}
}

func (stubIdentity) VerifyIDToken(_ context.Context, idToken string) (*identity.Teacher, error) {
	if idToken != "google-ok" {
		return nil, identity.ErrInvalidCredentials
	}
	return &identity.Teacher{UID: "uid-google", Email: "g@example.com"}, nil
}

type app struct {
	store  *docstoretest.Server
	roster *roster.Store
	engine *gin.Engine
}

func newApp(t *testing.T) *app {
	t.Helper()
	srv := docstoretest.NewServer(t)
	client := docstore.New(srv.URL)
	cfg := &config.Config{GinMode: gin.TestMode, JWTSecret: "test-secret", JWTExpiry: time.Hour}
	log := zerolog.Nop()

	studentRepo := repository.NewStudentRepository(client)
	attendanceRepo := repository.NewAttendanceRepository(client)
	rosterStore := roster.NewStore(studentRepo, log)

	authService := service.NewAuthService(cfg, stubIdentity{}, session.NewMemoryStore())
	studentService := service.NewStudentService(rosterStore, attendanceRepo, log)
	attendanceService := service.NewAttendanceService(studentRepo, attendanceRepo, log)

	handlers := &router.Handlers{
		Auth:       handler.NewAuthHandler(authService, log),
		Student:    handler.NewStudentHandler(studentService, log),
		Attendance: handler.NewAttendanceHandler(attendanceService, log),
		Dashboard:  handler.NewDashboardHandler(service.NewDashboardService(studentRepo, attendanceRepo)),
		WS:         handler.NewWSHandler(authService, rosterStore, attendanceService, log, nil),
		System:     handler.NewSystemHandler(studentService),
	}
	m := metrics.New()
	rosterStore.Subscribe(m.ObserveRoster)

	engine := router.SetupRouter(authService, handlers, m, middleware.NewRateLimiter(100, time.Minute), cfg, log)
	return &app{store: srv, roster: rosterStore, engine: engine}
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	} `json:"error"`
}

func (a *app) call(t *testing.T, method, path string, body interface{}, token string) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &env)
	}
	return w.Code, env
}

func (a *app) login(t *testing.T) string {
	t.Helper()
	code, env := a.call(t, http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "teacher@example.com", "password": "secret"}, "")
	if code != http.StatusOK {
		t.Fatalf("login: %d %+v", code, env.Error)
	}
	var res service.LoginResult
	if err := json.Unmarshal(env.Data, &res); err != nil || res.Token == "" {
		t.Fatalf("login payload: %v %s", err, env.Data)
	}
	return res.Token
}

func (a *app) seedStudent(t *testing.T, s model.Student) {
	t.Helper()
	a.store.Seed(t, repository.CollectionStudents, s.ID, s.Fields())
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return v
}
