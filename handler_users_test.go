package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
)

// asUser attaches the auth context the middleware would normally provide.
func asUser(r *http.Request, id int, username, role string) *http.Request {
	ctx := context.WithValue(r.Context(), ctxUserID, id)
	ctx = context.WithValue(ctx, ctxUsername, username)
	ctx = context.WithValue(ctx, ctxRole, role)
	return r.WithContext(ctx)
}

func TestListUsersRequiresAdmin(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	uid := createTestUser(t, "worker", "Password1", "production", true)

	w := httptest.NewRecorder()
	handleListUsers(w, asUser(jsonReq("GET", "/api/v1/users", ""), uid, "worker", "production"))
	if w.Code != 403 {
		t.Errorf("Expected 403 for non-admin, got %d", w.Code)
	}

	adminID := createTestUser(t, "boss", "Password1", "admin", true)
	w = httptest.NewRecorder()
	handleListUsers(w, asUser(jsonReq("GET", "/api/v1/users", ""), adminID, "boss", "admin"))
	if w.Code != 200 {
		t.Errorf("Expected 200 for admin, got %d: %s", w.Code, w.Body.String())
	}
}

func TestCreateUserRejectsWeakPassword(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	adminID := createTestUser(t, "boss", "Password1", "admin", true)

	w := httptest.NewRecorder()
	req := asUser(jsonReq("POST", "/api/v1/users",
		`{"username":"newbie","password":"short","role":"dispatch"}`), adminID, "boss", "admin")
	handleCreateUser(w, req)
	if w.Code != 400 {
		t.Errorf("Expected 400 for weak password, got %d: %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	req = asUser(jsonReq("POST", "/api/v1/users",
		`{"username":"newbie","password":"Str0ngPass","role":"dispatch"}`), adminID, "boss", "admin")
	handleCreateUser(w, req)
	if w.Code != 200 {
		t.Errorf("Expected 200 for valid user, got %d: %s", w.Code, w.Body.String())
	}
}

func TestCreateUserDuplicateUsernameConflicts(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	adminID := createTestUser(t, "boss", "Password1", "admin", true)
	createTestUser(t, "taken", "Password1", "billing", true)

	w := httptest.NewRecorder()
	req := asUser(jsonReq("POST", "/api/v1/users",
		`{"username":"taken","password":"Str0ngPass","role":"billing"}`), adminID, "boss", "admin")
	handleCreateUser(w, req)
	if w.Code != 409 {
		t.Errorf("Expected 409 for duplicate username, got %d", w.Code)
	}
}

func TestAdminCannotDemoteSelf(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	adminID := createTestUser(t, "boss", "Password1", "admin", true)

	w := httptest.NewRecorder()
	req := asUser(jsonReq("PUT", "/api/v1/users/"+itoa(adminID),
		`{"role":"billing","active":true}`), adminID, "boss", "admin")
	handleUpdateUser(w, req, itoa(adminID))
	if w.Code != 400 && w.Code != 409 {
		t.Errorf("Expected self-demotion to be refused, got %d: %s", w.Code, w.Body.String())
	}
}

func TestHandleMeReturnsCurrentUser(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	uid := createTestUser(t, "selfcheck", "Password1", "purchase", true)

	w := httptest.NewRecorder()
	handleMe(w, asUser(jsonReq("GET", "/auth/me", ""), uid, "selfcheck", "purchase"))
	if w.Code != 200 {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if body := w.Body.String(); !contains(body, "selfcheck") {
		t.Errorf("Expected username in response, got %s", body)
	}
}

func itoa(n int) string { return strconv.Itoa(n) }

func contains(s, sub string) bool { return strings.Contains(s, sub) }
