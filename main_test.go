package main

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"drp/internal/auth"
)

// setupTestDB swaps the global DB for an in-memory one with the production
// schema. The returned func restores the old handle.
func setupTestDB(t *testing.T) func() {
	t.Helper()
	oldDB := db

	testDB, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test DB: %v", err)
	}
	// One connection, or each pool connection would see its own empty memory DB.
	testDB.SetMaxOpenConns(1)
	if _, err := testDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("Failed to enable foreign keys: %v", err)
	}

	db = testDB
	if err := runMigrations(); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	tokenSecret = []byte("test-secret")
	tokenTTL = time.Hour

	return func() {
		testDB.Close()
		db = oldDB
	}
}

func createTestUser(t *testing.T, username, password, role string, active bool) int {
	t.Helper()
	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	activeInt := 0
	if active {
		activeInt = 1
	}
	res, err := db.Exec(
		"INSERT INTO users (username, password_hash, display_name, role, active) VALUES (?, ?, ?, ?, ?)",
		username, hash, username+" Display", role, activeInt)
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	id, _ := res.LastInsertId()
	return int(id)
}

func jsonReq(method, path, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
	}
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "127.0.0.1:12345"
	return req
}

// decodeData unwraps the {"data": ...} envelope from a handler response.
func decodeData(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&envelope); err != nil {
		t.Fatalf("Failed to decode response envelope: %v", err)
	}
	if err := json.Unmarshal(envelope.Data, v); err != nil {
		t.Fatalf("Failed to decode data: %v", err)
	}
}

func createTestPaper(t *testing.T, title, party string) string {
	t.Helper()
	w := httptest.NewRecorder()
	handleCreatePaper(w, jsonReq("POST", "/api/v1/papers", `{"title":"`+title+`","party_name":"`+party+`","quantity":10}`))
	if w.Code != 200 {
		t.Fatalf("Failed to create paper: %d %s", w.Code, w.Body.String())
	}
	var p ProductionPaper
	decodeData(t, w, &p)
	return p.ID
}
