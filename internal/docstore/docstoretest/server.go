// Package docstoretest provides an in-memory document store speaking the same
// REST dialect as the real one, for tests.
package docstoretest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// Request is a recorded call.
type Request struct {
	Method string
	Path   string
	Body   []byte
}

type rule struct {
	method string
	path   string
	status int
	times  int // remaining; <0 means forever
}

// Server is an httptest server holding collections in memory.
type Server struct {
	*httptest.Server

	mu          sync.Mutex
	collections map[string]map[string]json.RawMessage
	raw         map[string][]byte
	rules       []*rule
	requests    []Request
	seq         int
	authToken   string
}

// NewServer starts a fake store and closes it when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		collections: make(map[string]map[string]json.RawMessage),
		raw:         make(map[string][]byte),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

// RequireAuth makes every request without ?auth=token fail with 401.
func (s *Server) RequireAuth(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authToken = token
}

// Seed stores v under /collection/id.
func (s *Server) Seed(t testing.TB, collection, id string, v any) {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("seed %s/%s: %v", collection, id, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bucket(collection)[id] = b
}

// ServeRaw makes GET /collection.json answer with body verbatim until the
// collection is written to.
func (s *Server) ServeRaw(collection, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raw[collection] = []byte(body)
}

// Fail answers requests matching method and path (e.g. "/students.json")
// with status. times < 0 fails forever.
func (s *Server) Fail(method, path string, status, times int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = append(s.rules, &rule{method: method, path: path, status: status, times: times})
}

// Document returns the stored value of /collection/id, or nil.
func (s *Server) Document(collection, id string) json.RawMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.collections[collection][id]
}

// Len returns the number of documents in a collection.
func (s *Server) Len(collection string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.collections[collection])
}

// Requests returns every call received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// RequestCount counts calls with the given method ("" for any).
func (s *Server) RequestCount(method string) int {
	n := 0
	for _, r := range s.Requests() {
		if method == "" || r.Method == method {
			n++
		}
	}
	return n
}

func (s *Server) bucket(collection string) map[string]json.RawMessage {
	b, ok := s.collections[collection]
	if !ok {
		b = make(map[string]json.RawMessage)
		s.collections[collection] = b
	}
	return b
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests = append(s.requests, Request{Method: r.Method, Path: r.URL.Path, Body: body})

	if s.authToken != "" && r.URL.Query().Get("auth") != s.authToken {
		writeJSON(w, http.StatusUnauthorized, []byte(`{"error":"Permission denied"}`))
		return
	}

	for _, ru := range s.rules {
		if ru.times == 0 || ru.method != r.Method || ru.path != r.URL.Path {
			continue
		}
		if ru.times > 0 {
			ru.times--
		}
		writeJSON(w, ru.status, []byte(fmt.Sprintf(`{"error":"injected failure %d"}`, ru.status)))
		return
	}

	if !strings.HasSuffix(r.URL.Path, ".json") {
		writeJSON(w, http.StatusNotFound, []byte(`{"error":"not found"}`))
		return
	}
	parts := strings.Split(strings.Trim(strings.TrimSuffix(r.URL.Path, ".json"), "/"), "/")

	switch len(parts) {
	case 1:
		s.serveCollection(w, r.Method, parts[0], body)
	case 2:
		s.serveDocument(w, r.Method, parts[0], parts[1], body)
	default:
		writeJSON(w, http.StatusBadRequest, []byte(`{"error":"nested paths are not supported"}`))
	}
}

func (s *Server) serveCollection(w http.ResponseWriter, method, collection string, body []byte) {
	switch method {
	case http.MethodGet:
		if raw, ok := s.raw[collection]; ok {
			writeJSON(w, http.StatusOK, raw)
			return
		}
		docs := s.collections[collection]
		if len(docs) == 0 {
			writeJSON(w, http.StatusOK, []byte("null"))
			return
		}
		out, _ := json.Marshal(docs)
		writeJSON(w, http.StatusOK, out)
	case http.MethodPost:
		if !json.Valid(body) {
			writeJSON(w, http.StatusBadRequest, []byte(`{"error":"Invalid data; couldn't parse JSON object."}`))
			return
		}
		s.seq++
		id := fmt.Sprintf("-Nrb%08d", s.seq)
		delete(s.raw, collection)
		s.bucket(collection)[id] = body
		writeJSON(w, http.StatusOK, []byte(fmt.Sprintf(`{"name":%q}`, id)))
	default:
		writeJSON(w, http.StatusMethodNotAllowed, []byte(`{"error":"method not allowed"}`))
	}
}

func (s *Server) serveDocument(w http.ResponseWriter, method, collection, id string, body []byte) {
	switch method {
	case http.MethodGet:
		doc, ok := s.collections[collection][id]
		if !ok {
			writeJSON(w, http.StatusOK, []byte("null"))
			return
		}
		writeJSON(w, http.StatusOK, doc)
	case http.MethodPut:
		if !json.Valid(body) {
			writeJSON(w, http.StatusBadRequest, []byte(`{"error":"Invalid data; couldn't parse JSON object."}`))
			return
		}
		delete(s.raw, collection)
		if bytes.Equal(bytes.TrimSpace(body), []byte("null")) {
			delete(s.bucket(collection), id)
		} else {
			s.bucket(collection)[id] = body
		}
		writeJSON(w, http.StatusOK, body)
	case http.MethodPatch:
		var patch map[string]json.RawMessage
		if err := json.Unmarshal(body, &patch); err != nil {
			writeJSON(w, http.StatusBadRequest, []byte(`{"error":"Invalid data; couldn't parse JSON object."}`))
			return
		}
		current := map[string]json.RawMessage{}
		if doc, ok := s.collections[collection][id]; ok {
			_ = json.Unmarshal(doc, &current)
		}
		for k, v := range patch {
			current[k] = v
		}
		merged, _ := json.Marshal(current)
		delete(s.raw, collection)
		s.bucket(collection)[id] = merged
		writeJSON(w, http.StatusOK, body)
	case http.MethodDelete:
		delete(s.raw, collection)
		delete(s.bucket(collection), id)
		writeJSON(w, http.StatusOK, []byte("null"))
	default:
		writeJSON(w, http.StatusMethodNotAllowed, []byte(`{"error":"method not allowed"}`))
	}
}

func writeJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
