package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"mentorly/api/internal/config"
	"mentorly/api/internal/middleware"
	"mentorly/api/internal/models"
	"mentorly/api/internal/policy"
	"mentorly/api/internal/repository"
	"mentorly/api/internal/security"
	"mentorly/api/internal/service"
	"mentorly/api/internal/session"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeCredentialStore struct {
	mu      sync.Mutex
	byEmail map[string]models.Identity
}

func newFakeCredentialStore() *fakeCredentialStore {
	return &fakeCredentialStore{byEmail: make(map[string]models.Identity)}
}

func (f *fakeCredentialStore) FindByEmail(_ context.Context, email string) (models.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	identity, ok := f.byEmail[email]
	if !ok {
		return models.Identity{}, repository.ErrIdentityNotFound
	}
	return identity, nil
}

func (f *fakeCredentialStore) GetByID(_ context.Context, id string) (models.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, identity := range f.byEmail {
		if identity.ID == id {
			return identity, nil
		}
	}
	return models.Identity{}, repository.ErrIdentityNotFound
}

func (f *fakeCredentialStore) Create(_ context.Context, identity models.Identity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byEmail[identity.Email] = identity
	return nil
}

func (f *fakeCredentialStore) UpdateStatus(_ context.Context, id string, status models.IdentityStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for email, identity := range f.byEmail {
		if identity.ID == id {
			identity.Status = status
			f.byEmail[email] = identity
			return nil
		}
	}
	return repository.ErrIdentityNotFound
}

type testEnv struct {
	engine   *gin.Engine
	students *fakeCredentialStore
	mentors  *fakeCredentialStore
	admins   *fakeCredentialStore
	messages *memoryMessageStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.AppConfig{
		Environment: "test",
		Session: config.SessionConfig{
			Secret: "test-secret",
			TTL:    7 * 24 * time.Hour,
		},
		Messaging: config.MessagingConfig{MaxContentLen: 2000, PageSize: 50},
	}

	env := &testEnv{
		students: newFakeCredentialStore(),
		mentors:  newFakeCredentialStore(),
		admins:   newFakeCredentialStore(),
		messages: &memoryMessageStore{},
	}

	stores := map[models.Role]service.CredentialStore{
		models.RoleStudent: env.students,
		models.RoleMentor:  env.mentors,
		models.RoleAdmin:   env.admins,
	}
	h := newHandlerSet(zerolog.Nop(), cfg, stores, env.messages, &memoryForumStore{})

	engine := gin.New()
	engine.Use(
		middleware.SessionResolve(h.Codec(), h.Cookies()),
		middleware.RoutePolicy(policy.Default()),
	)
	h.Register(engine)

	env.engine = engine
	return env
}

func seedIdentity(t *testing.T, store *fakeCredentialStore, id, email, password string, role models.Role) {
	t.Helper()
	hash, err := security.HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	store.byEmail[email] = models.Identity{
		ID:           id,
		Email:        email,
		PasswordHash: hash,
		DisplayName:  "Test " + id,
		Role:         role,
		Status:       models.IdentityStatusActive,
	}
}

func (env *testEnv) do(method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	env.engine.ServeHTTP(rec, req)
	return rec
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}

func login(t *testing.T, env *testEnv, role models.Role, email, password string) *http.Cookie {
	t.Helper()

	path := map[models.Role]string{
		models.RoleStudent: "/api/v1/auth/students/login",
		models.RoleMentor:  "/api/v1/auth/mentors/login",
		models.RoleAdmin:   "/api/v1/auth/admins/login",
	}[role]

	rec := env.do(http.MethodPost, path, gin.H{"email": email, "password": password})
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: status %d body %s", email, rec.Code, rec.Body.String())
	}

	cookie := findCookie(rec, session.CookieNameForRole(role))
	if cookie == nil || cookie.Value == "" {
		t.Fatalf("login did not set the %s cookie", session.CookieNameForRole(role))
	}
	return cookie
}

func TestLoginThenGuestRouteRedirectsHome(t *testing.T) {
	env := newTestEnv(t)
	seedIdentity(t, env.students, "student-1", "sia@college.edu", "pass-word-1", models.RoleStudent)

	cookie := login(t, env, models.RoleStudent, "sia@college.edu", "pass-word-1")

	rec := env.do(http.MethodGet, "/login", nil, cookie)
	if rec.Code != http.StatusFound {
		t.Fatalf("authenticated /login: status %d, want 302", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/students" {
		t.Fatalf("authenticated /login redirects to %q, want /students", loc)
	}
}

func TestLoginErrorCodes(t *testing.T) {
	env := newTestEnv(t)
	seedIdentity(t, env.students, "student-1", "sia@college.edu", "pass-word-1", models.RoleStudent)

	rec := env.do(http.MethodPost, "/api/v1/auth/students/login", gin.H{
		"email": "nobody@college.edu", "password": "whatever1",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unknown email: status %d, want 401", rec.Code)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte("no_account_found")) {
		t.Fatalf("unknown email body = %s", rec.Body.String())
	}

	rec = env.do(http.MethodPost, "/api/v1/auth/students/login", gin.H{
		"email": "sia@college.edu", "password": "wrong-password",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password: status %d, want 401", rec.Code)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte("incorrect_password")) {
		t.Fatalf("wrong password body = %s", rec.Body.String())
	}

	rec = env.do(http.MethodPost, "/api/v1/auth/students/login", gin.H{
		"email": "not-an-email", "password": "x",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad email: status %d, want 400", rec.Code)
	}
}

func TestProtectedRouteRedirectsGuestToLogin(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/students", nil)
	if rec.Code != http.StatusFound {
		t.Fatalf("guest /students: status %d, want 302", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/login?next=%2Fstudents" {
		t.Fatalf("guest /students redirects to %q", loc)
	}

	rec = env.do(http.MethodGet, "/admin/dashboard", nil)
	if loc := rec.Header().Get("Location"); loc != "/admin/login?next=%2Fadmin%2Fdashboard" {
		t.Fatalf("guest /admin/dashboard redirects to %q", loc)
	}
}

func TestWrongRoleRedirectsToOwnHome(t *testing.T) {
	env := newTestEnv(t)
	seedIdentity(t, env.mentors, "mentor-1", "guru@mentorly.io", "pass-word-1", models.RoleMentor)

	cookie := login(t, env, models.RoleMentor, "guru@mentorly.io", "pass-word-1")

	rec := env.do(http.MethodGet, "/admin/dashboard", nil, cookie)
	if rec.Code != http.StatusFound {
		t.Fatalf("mentor on /admin/dashboard: status %d, want 302", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/mentors/dashboard" {
		t.Fatalf("mentor redirected to %q, want /mentors/dashboard", loc)
	}
}

func TestCorruptedCookieClearedAndUnauthenticated(t *testing.T) {
	env := newTestEnv(t)

	bad := &http.Cookie{Name: session.CookieUserData, Value: "not.a.valid-token"}
	rec := env.do(http.MethodGet, "/students", nil, bad)

	if rec.Code != http.StatusFound {
		t.Fatalf("corrupted cookie: status %d, want 302", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/login?next=%2Fstudents" {
		t.Fatalf("corrupted cookie redirects to %q", loc)
	}

	cleared := findCookie(rec, session.CookieUserData)
	if cleared == nil {
		t.Fatalf("response did not clear the corrupted cookie")
	}
	if cleared.Value != "" || cleared.MaxAge >= 0 {
		t.Fatalf("cookie not cleared: value=%q maxAge=%d", cleared.Value, cleared.MaxAge)
	}
}

func TestMessagingEndToEnd(t *testing.T) {
	env := newTestEnv(t)
	seedIdentity(t, env.students, "student-1", "sia@college.edu", "pass-word-1", models.RoleStudent)
	seedIdentity(t, env.mentors, "mentor-1", "guru@mentorly.io", "pass-word-2", models.RoleMentor)

	studentCookie := login(t, env, models.RoleStudent, "sia@college.edu", "pass-word-1")
	mentorCookie := login(t, env, models.RoleMentor, "guru@mentorly.io", "pass-word-2")

	// Student sends "hello" to the mentor.
	rec := env.do(http.MethodPost, "/api/v1/messages", gin.H{
		"receiverId":   "mentor-1",
		"receiverRole": "mentor",
		"content":      "hello",
	}, studentCookie)
	if rec.Code != http.StatusCreated {
		t.Fatalf("send: status %d body %s", rec.Code, rec.Body.String())
	}
	var sendResp struct {
		Message struct {
			ID             string `json:"id"`
			ConversationID string `json:"conversationId"`
			IsRead         bool   `json:"isRead"`
		} `json:"message"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &sendResp); err != nil {
		t.Fatalf("decode send response: %v", err)
	}
	if sendResp.Message.IsRead {
		t.Fatalf("new message should be unread")
	}
	if want := models.ConversationID("student-1", "mentor-1"); sendResp.Message.ConversationID != want {
		t.Fatalf("conversation id = %q, want %q", sendResp.Message.ConversationID, want)
	}

	// Mentor sees exactly one unread message in that conversation.
	rec = env.do(http.MethodGet, "/api/v1/conversations/student-1/messages", nil, mentorCookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: status %d body %s", rec.Code, rec.Body.String())
	}
	var listResp struct {
		Messages []struct {
			ID      string `json:"id"`
			Content string `json:"content"`
			IsRead  bool   `json:"isRead"`
		} `json:"messages"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listResp); err != nil {
		t.Fatalf("decode list response: %v", err)
	}
	if len(listResp.Messages) != 1 || listResp.Messages[0].Content != "hello" || listResp.Messages[0].IsRead {
		t.Fatalf("unexpected conversation contents: %+v", listResp.Messages)
	}

	if count := unreadCount(t, env, mentorCookie); count != 1 {
		t.Fatalf("mentor unread before markRead = %d, want 1", count)
	}

	// The student cannot mark the mentor's copy read.
	rec = env.do(http.MethodPost, "/api/v1/messages/"+sendResp.Message.ID+"/read", nil, studentCookie)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("sender markRead: status %d, want 403", rec.Code)
	}

	rec = env.do(http.MethodPost, "/api/v1/messages/"+sendResp.Message.ID+"/read", nil, mentorCookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("receiver markRead: status %d body %s", rec.Code, rec.Body.String())
	}

	if count := unreadCount(t, env, mentorCookie); count != 0 {
		t.Fatalf("mentor unread after markRead = %d, want 0", count)
	}
}

func unreadCount(t *testing.T, env *testEnv, cookie *http.Cookie) int {
	t.Helper()
	rec := env.do(http.MethodGet, "/api/v1/messages/unread-count", nil, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("unread-count: status %d body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode unread count: %v", err)
	}
	return resp.Count
}

func TestMessagingRequiresAuthentication(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/api/v1/messages/unread-count", nil)
	if rec.Code != http.StatusFound {
		t.Fatalf("guest unread-count: status %d, want 302", rec.Code)
	}
}

func TestLogoutIdempotentAndClearsAllCookies(t *testing.T) {
	env := newTestEnv(t)
	seedIdentity(t, env.mentors, "mentor-1", "guru@mentorly.io", "pass-word-1", models.RoleMentor)

	cookie := login(t, env, models.RoleMentor, "guru@mentorly.io", "pass-word-1")

	rec := env.do(http.MethodPost, "/api/v1/auth/logout", nil, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("logout: status %d", rec.Code)
	}
	for _, name := range session.AuthCookieNames {
		cleared := findCookie(rec, name)
		if cleared == nil || cleared.MaxAge >= 0 {
			t.Fatalf("logout did not clear cookie %q", name)
		}
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte("/mentors/login?loggedOut=")) {
		t.Fatalf("logout redirect target missing: %s", rec.Body.String())
	}

	// Logout with no session behaves the same.
	rec = env.do(http.MethodPost, "/api/v1/auth/logout", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("logout without session: status %d", rec.Code)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte("/login?loggedOut=")) {
		t.Fatalf("logout without session target missing: %s", rec.Body.String())
	}
}

func TestSessionCheckIsCookieOnly(t *testing.T) {
	env := newTestEnv(t)
	seedIdentity(t, env.students, "student-1", "sia@college.edu", "pass-word-1", models.RoleStudent)
	cookie := login(t, env, models.RoleStudent, "sia@college.edu", "pass-word-1")

	// Drop all store state: the check must still succeed from the cookie.
	env.students.mu.Lock()
	env.students.byEmail = map[string]models.Identity{}
	env.students.mu.Unlock()

	rec := env.do(http.MethodGet, "/api/v1/auth/session", nil, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("session check: status %d", rec.Code)
	}
	var resp struct {
		Authenticated bool   `json:"authenticated"`
		Role          string `json:"role"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode session check: %v", err)
	}
	if !resp.Authenticated || resp.Role != "student" {
		t.Fatalf("session check = %+v", resp)
	}

	rec = env.do(http.MethodGet, "/api/v1/auth/session", nil)
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode session check: %v", err)
	}
	if resp.Authenticated {
		t.Fatalf("guest session check reported authenticated")
	}
}

func TestRegisterSetsCookieAndRedirect(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/v1/auth/students/register", gin.H{
		"email":       "new@college.edu",
		"password":    "long-enough-pass",
		"displayName": "Newbie",
		"year":        2,
		"college":     "Example College",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: status %d body %s", rec.Code, rec.Body.String())
	}
	if cookie := findCookie(rec, session.CookieUserData); cookie == nil || cookie.Value == "" {
		t.Fatalf("register did not set the session cookie")
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte(`"redirect":"/students"`)) {
		t.Fatalf("register response missing redirect: %s", rec.Body.String())
	}

	// Duplicate email is rejected.
	rec = env.do(http.MethodPost, "/api/v1/auth/students/register", gin.H{
		"email":       "new@college.edu",
		"password":    "long-enough-pass",
		"displayName": "Copycat",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate register: status %d, want 409", rec.Code)
	}
}
