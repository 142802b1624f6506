package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"projectsmanager/internal/handler"
	"projectsmanager/internal/repository/memory"
	"projectsmanager/internal/service/auth"
	"projectsmanager/internal/service/ownership"
	"projectsmanager/internal/service/project"
	"projectsmanager/internal/service/task"
	"projectsmanager/pkg/trace"
	"projectsmanager/pkg/util"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	util.PasswordCost = bcrypt.MinCost
	os.Exit(m.Run())
}

type testServer struct {
	t      *testing.T
	router *gin.Engine
	repos  *memory.Manager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := zap.NewNop()
	repos := memory.NewManager()
	resolver := ownership.NewResolver()

	authSvc := auth.NewService(repos, auth.Options{JWT: util.JWTOptions{Secret: "test-secret"}}, log)
	router := NewRouter(Dependencies{
		Auth:        handler.NewAuthHandler(authSvc, log),
		Projects:    handler.NewProjectHandler(project.NewService(repos, resolver, log), log),
		Tasks:       handler.NewTaskHandler(task.NewService(repos, resolver, log), log),
		Verifier:    authSvc,
		Ready:       map[string]ReadinessCheck{"storage": repos.Ping},
		CORSOrigins: []string{"http://localhost:5173"},
		Logger:      log,
	})
	return &testServer{t: t, router: router, repos: repos}
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) register(email string) string {
	s.t.Helper()
	w := s.do(http.MethodPost, "/auth/register", "", gin.H{"email": email, "password": "pass1234"})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	var sess struct {
		Token  string `json:"token"`
		UserID string `json:"userId"`
	}
	decode(s.t, w, &sess)
	require.NotEmpty(s.t, sess.Token)
	return sess.Token
}

func (s *testServer) createProject(token, title string) string {
	s.t.Helper()
	w := s.do(http.MethodPost, "/projects", token, gin.H{"title": title})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	var p struct {
		ID string `json:"id"`
	}
	decode(s.t, w, &p)
	return p.ID
}

func (s *testServer) createTask(token, projectID, title, description string) string {
	s.t.Helper()
	w := s.do(http.MethodPost, "/projects/"+projectID+"/tasks", token, gin.H{"title": title, "description": description})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	var tk struct {
		ID string `json:"id"`
	}
	decode(s.t, w, &tk)
	return tk.ID
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
}

type progressBody struct {
	Progress struct {
		TotalTasks         int     `json:"totalTasks"`
		CompletedTasks     int     `json:"completedTasks"`
		ProgressPercentage float64 `json:"progressPercentage"`
	} `json:"progress"`
}

func TestRouter_ProjectLifecycle(t *testing.T) {
	s := newTestServer(t)
	token := s.register("alice@example.com")

	projectID := s.createProject(token, "Home")
	taskA := s.createTask(token, projectID, "Buy milk", "")
	s.createTask(token, projectID, "Fix door", "")

	w := s.do(http.MethodPatch, "/tasks/"+taskA+"/toggle", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var toggled struct {
		IsCompleted bool `json:"isCompleted"`
	}
	decode(t, w, &toggled)
	assert.True(t, toggled.IsCompleted)

	w = s.do(http.MethodGet, "/projects/"+projectID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got progressBody
	decode(t, w, &got)
	assert.Equal(t, 2, got.Progress.TotalTasks)
	assert.Equal(t, 1, got.Progress.CompletedTasks)
	assert.Equal(t, 50.0, got.Progress.ProgressPercentage)

	w = s.do(http.MethodGet, "/projects/"+projectID+"/tasks?status=completed", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var completed []map[string]any
	decode(t, w, &completed)
	require.Len(t, completed, 1)
	assert.Equal(t, taskA, completed[0]["id"])

	w = s.do(http.MethodDelete, "/tasks/"+taskA, token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(http.MethodDelete, "/projects/"+projectID, token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(http.MethodGet, "/projects", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestRouter_SearchMatchesTitleOrDescription(t *testing.T) {
	s := newTestServer(t)
	token := s.register("bob@example.com")
	projectID := s.createProject(token, "Groceries")
	s.createTask(token, projectID, "Buy milk", "")
	s.createTask(token, projectID, "Bakery", "get bread and MILK")
	s.createTask(token, projectID, "Bread", "")

	w := s.do(http.MethodGet, "/projects/"+projectID+"/tasks?search=milk", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var tasks []map[string]any
	decode(t, w, &tasks)
	assert.Len(t, tasks, 2)
}

func TestRouter_RequiresSession(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/projects", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodGet, "/projects", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"unauthenticated","message":"missing or invalid session token"}`, w.Body.String())
}

func TestRouter_ForeignProjectIsNotFound(t *testing.T) {
	s := newTestServer(t)
	alice := s.register("alice@example.com")
	mallory := s.register("mallory@example.com")
	projectID := s.createProject(alice, "Private")
	taskID := s.createTask(alice, projectID, "Secret", "")

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/projects/" + projectID},
		{http.MethodGet, "/projects/" + projectID + "/tasks"},
		{http.MethodDelete, "/projects/" + projectID},
		{http.MethodPatch, "/tasks/" + taskID + "/toggle"},
		{http.MethodDelete, "/tasks/" + taskID},
	} {
		w := s.do(tc.method, tc.path, mallory, nil)
		assert.Equal(t, http.StatusNotFound, w.Code, tc.method+" "+tc.path)
	}

	w := s.do(http.MethodGet, "/projects/"+projectID, alice, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_LoginFailuresLookTheSame(t *testing.T) {
	s := newTestServer(t)
	s.register("carol@example.com")

	wrongPassword := s.do(http.MethodPost, "/auth/login", "", gin.H{"email": "carol@example.com", "password": "nope"})
	unknownEmail := s.do(http.MethodPost, "/auth/login", "", gin.H{"email": "dave@example.com", "password": "nope"})

	assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	assert.Equal(t, http.StatusUnauthorized, unknownEmail.Code)
	assert.Equal(t, wrongPassword.Body.String(), unknownEmail.Body.String())

	ok := s.do(http.MethodPost, "/auth/login", "", gin.H{"email": "Carol@Example.com", "password": "pass1234"})
	assert.Equal(t, http.StatusOK, ok.Code)
}

func TestRouter_EmailIsTrimmedBeforeValidation(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/auth/register", "", gin.H{"email": " ada@x.com ", "password": "pass1234"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var sess struct {
		Email string `json:"email"`
	}
	decode(t, w, &sess)
	assert.Equal(t, "ada@x.com", sess.Email)

	w = s.do(http.MethodPost, "/auth/login", "", gin.H{"email": "  ADA@x.com", "password": "pass1234"})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/auth/login", "", gin.H{"email": "ada-at-x", "password": "pass1234"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_DuplicateRegistration(t *testing.T) {
	s := newTestServer(t)
	s.register("erin@example.com")

	w := s.do(http.MethodPost, "/auth/register", "", gin.H{"email": "ERIN@example.com", "password": "pass1234"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var body map[string]any
	decode(t, w, &body)
	assert.Equal(t, "email_taken", body["error"])
}

func TestRouter_ValidationFailures(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/auth/register", "", gin.H{"email": "not-an-email", "password": "abc"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	var body struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	decode(t, w, &body)
	assert.Equal(t, "validation_failed", body.Error)
	assert.Contains(t, body.Fields, "email")
	assert.Contains(t, body.Fields, "password")

	token := s.register("frank@example.com")
	w = s.do(http.MethodPost, "/projects", token, gin.H{"title": " x "})
	require.Equal(t, http.StatusBadRequest, w.Code)
	decode(t, w, &body)
	assert.Contains(t, body.Fields, "title")

	projectID := s.createProject(token, "Work")
	w = s.do(http.MethodPost, "/projects/"+projectID+"/tasks", token, gin.H{"title": "Ship", "dueDate": "soon"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	decode(t, w, &body)
	assert.Contains(t, body.Fields, "dueDate")
}

func TestRouter_APIPrefixAlias(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodPost, "/api/auth/register", "", gin.H{"email": "gina@example.com", "password": "pass1234"})
	require.Equal(t, http.StatusOK, w.Code)
	var sess struct {
		Token string `json:"token"`
	}
	decode(t, w, &sess)

	projectID := s.createProject(sess.Token, "Aliased")
	w = s.do(http.MethodGet, "/api/projects/"+projectID, sess.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_CORSPreflight(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/projects", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_TraceHeader(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(trace.HeaderName, "abc123")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, "abc123", w.Header().Get(trace.HeaderName))

	w = s.do(http.MethodGet, "/healthz", "", nil)
	assert.NotEmpty(t, w.Header().Get(trace.HeaderName))
}

func TestRouter_HealthAndReadiness(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/healthz", "", nil).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/readyz", "", nil).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/metrics", "", nil).Code)
}

func TestRouter_MutationsRecordEvents(t *testing.T) {
	s := newTestServer(t)
	token := s.register("hank@example.com")
	projectID := s.createProject(token, "Events")
	s.createTask(token, projectID, "One", "")
	s.do(http.MethodDelete, "/projects/"+projectID, token, nil)

	var keys []string
	for _, e := range s.repos.RecordedEvents() {
		keys = append(keys, e.RoutingKey)
	}
	assert.Equal(t, []string{"account.registered", "project.created", "task.created", "project.deleted"}, keys)
}
