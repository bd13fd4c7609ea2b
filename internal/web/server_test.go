package web

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"day-planner/internal/ids"
	"day-planner/internal/model"
	"day-planner/internal/service"
	"day-planner/internal/store"
)

type memoryBackend struct {
	mu     sync.Mutex
	values map[string][]byte
}

func (m *memoryBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *memoryBackend) Put(_ context.Context, entries map[string][]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range entries {
		m.values[k] = v
	}
	return nil
}

type recordingUsers struct {
	mu    sync.Mutex
	users []model.User
}

func (r *recordingUsers) Upsert(_ context.Context, identity model.User) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = append(r.users, identity)
	return &identity, nil
}

type testServer struct {
	server *Server
	users  *recordingUsers
	auth   string
}

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	registry := store.NewRegistry(func(string) store.Backend {
		return &memoryBackend{values: make(map[string][]byte)}
	})
	users := &recordingUsers{}
	srv := NewServer(
		registry,
		service.NewTaskService(ids.TimeOrdered{}, service.NewReminderService(time.UTC)),
		service.NewCategoryService(ids.TimeOrdered{}),
		Options{Token: testToken, InitDataMaxAge: 24 * time.Hour, Users: users},
	)
	srv.now = func() time.Time { return testNow }

	return &testServer{
		server: srv,
		users:  users,
		auth:   signedInitData(t, `{"id":7,"first_name":"Ann"}`, testNow.Add(-time.Minute)),
	}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if ts.auth != "" {
		req.Header.Set(InitDataHeader, ts.auth)
	}
	w := httptest.NewRecorder()
	ts.server.Handler().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return out
}

func TestUnauthorized(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	ts.auth = ""

	if w := ts.do(t, http.MethodGet, "/api/session", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", w.Code)
	}
	if w := ts.do(t, http.MethodGet, "/healthz", nil); w.Code != http.StatusOK {
		t.Errorf("Expected healthz to skip auth, got %d", w.Code)
	}
}

func TestSessionHandshake(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/api/session", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := decode[struct {
		Ready      bool             `json:"ready"`
		User       WebAppUser       `json:"user"`
		Today      string           `json:"today"`
		Categories []model.Category `json:"categories"`
	}](t, w)
	if !resp.Ready || resp.User.ID != 7 || resp.Today != "2024-05-01" || len(resp.Categories) != 3 {
		t.Errorf("Unexpected session %+v", resp)
	}
	if len(ts.users.users) != 1 || ts.users.users[0].TelegramID != 7 {
		t.Errorf("Expected user to be recorded, got %+v", ts.users.users)
	}
}

func TestTaskLifecycle(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	input := map[string]any{"title": "Study", "date": "2024-05-01", "time": "09:00", "category": store.CategoryStudy}
	w := ts.do(t, http.MethodPost, "/api/tasks", input)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	first := decode[model.Task](t, w)

	w = ts.do(t, http.MethodPost, "/api/tasks", input)
	if w.Code != http.StatusConflict {
		t.Fatalf("Expected 409, got %d", w.Code)
	}
	conflict := decode[struct {
		Conflict model.Task `json:"conflict"`
	}](t, w)
	if conflict.Conflict.ID != first.ID {
		t.Errorf("Expected conflict with %s, got %s", first.ID, conflict.Conflict.ID)
	}

	input["allowConflict"] = true
	if w := ts.do(t, http.MethodPost, "/api/tasks", input); w.Code != http.StatusCreated {
		t.Fatalf("Expected override to succeed, got %d", w.Code)
	}

	w = ts.do(t, http.MethodGet, "/api/days/2024-05-01", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	view := decode[service.DayView](t, w)
	if len(view.Buckets) != 15 || len(view.Buckets[1].Tasks) != 2 || view.Buckets[1].Tasks[0].ID != first.ID {
		t.Errorf("Unexpected day view %+v", view)
	}

	if w := ts.do(t, http.MethodPost, "/api/tasks/"+first.ID+"/toggle", nil); w.Code != http.StatusOK {
		t.Errorf("Expected toggle 200, got %d", w.Code)
	}

	w = ts.do(t, http.MethodPost, "/api/tasks/"+first.ID+"/move", map[string]string{"date": "2024-05-01", "time": "9:00"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for bad time, got %d", w.Code)
	}
	w = ts.do(t, http.MethodPost, "/api/tasks/"+first.ID+"/move", map[string]string{"date": "2024-05-02", "time": "11:00"})
	if w.Code != http.StatusOK {
		t.Errorf("Expected move 200, got %d: %s", w.Code, w.Body.String())
	}

	edit := map[string]any{"title": "Study more", "date": "2024-05-02", "time": "11:00", "category": store.CategoryStudy}
	w = ts.do(t, http.MethodPut, "/api/tasks/"+first.ID, edit)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected edit 200, got %d: %s", w.Code, w.Body.String())
	}
	if edited := decode[model.Task](t, w); !edited.Completed || edited.Title != "Study more" {
		t.Errorf("Expected completed flag kept on edit, got %+v", edited)
	}

	if w := ts.do(t, http.MethodDelete, "/api/tasks/"+first.ID, nil); w.Code != http.StatusNoContent {
		t.Errorf("Expected 204, got %d", w.Code)
	}
	if w := ts.do(t, http.MethodDelete, "/api/tasks/"+first.ID, nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}
}

func TestCategoriesAndValidation(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	if w := ts.do(t, http.MethodPost, "/api/categories", map[string]string{"name": "Sport"}); w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d", w.Code)
	}
	if w := ts.do(t, http.MethodPost, "/api/categories", map[string]string{"name": "sport"}); w.Code != http.StatusConflict {
		t.Errorf("Expected 409 for duplicate, got %d", w.Code)
	}
	if w := ts.do(t, http.MethodPost, "/api/categories", map[string]string{"name": " "}); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for empty name, got %d", w.Code)
	}

	w := ts.do(t, http.MethodGet, "/api/categories", nil)
	if list := decode[[]model.Category](t, w); len(list) != 4 {
		t.Errorf("Expected 4 categories, got %d", len(list))
	}

	if w := ts.do(t, http.MethodGet, "/api/days/yesterday", nil); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for invalid date, got %d", w.Code)
	}
	if w := ts.do(t, http.MethodPut, "/api/tasks/missing", map[string]any{"title": "x", "date": "2024-05-01", "time": "09:00", "category": "work"}); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}
}

func TestDayICS(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	input := map[string]any{"title": "Study", "date": "2024-05-01", "time": "09:00", "category": store.CategoryStudy}
	if w := ts.do(t, http.MethodPost, "/api/tasks", input); w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d", w.Code)
	}

	w := ts.do(t, http.MethodGet, "/api/days/2024-05-01/ics", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
		t.Errorf("Unexpected content type %s", ct)
	}
	if !strings.Contains(w.Body.String(), "SUMMARY:Study") {
		t.Errorf("Expected event in calendar, got %s", w.Body.String())
	}
}
