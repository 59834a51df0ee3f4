package main

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestExportPapersCSV(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	createTestPaper(t, "Rolling shutter", "Sharma Traders")
	deleted := createTestPaper(t, "Scrapped order", "Nobody")
	w := httptest.NewRecorder()
	handleDeletePaper(w, jsonReq("DELETE", "/api/v1/papers/"+deleted, ""), deleted)
	if w.Code != 200 {
		t.Fatalf("Delete failed: %d", w.Code)
	}

	w = httptest.NewRecorder()
	handleExport(w, jsonReq("GET", "/api/v1/export/papers", ""), "papers")
	if w.Code != 200 {
		t.Fatalf("Export failed: %d %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("Expected text/csv, got %q", ct)
	}

	body := w.Body.String()
	if !strings.Contains(body, "Paper No") {
		t.Error("Expected CSV header row")
	}
	if !strings.Contains(body, "Rolling shutter") {
		t.Error("Expected live paper in export")
	}
	if strings.Contains(body, "Scrapped order") {
		t.Error("Soft-deleted paper must not be exported")
	}
}

func TestExportXLSXContentType(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	createTestPaper(t, "Anything", "Anyone")

	w := httptest.NewRecorder()
	handleExport(w, jsonReq("GET", "/api/v1/export/papers?format=xlsx", ""), "papers")
	if w.Code != 200 {
		t.Fatalf("Export failed: %d", w.Code)
	}
	want := "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	if ct := w.Header().Get("Content-Type"); ct != want {
		t.Errorf("Expected xlsx content type, got %q", ct)
	}
	if w.Body.Len() == 0 {
		t.Error("Expected non-empty workbook")
	}
}

func TestExportUnknownEntity404(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	w := httptest.NewRecorder()
	handleExport(w, jsonReq("GET", "/api/v1/export/widgets", ""), "widgets")
	if w.Code != 404 {
		t.Errorf("Expected 404, got %d", w.Code)
	}
}

func TestDashboardCounts(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	createTestPaper(t, "Open one", "Party A")
	createTestSupplier(t, "Active Vendor")

	w := httptest.NewRecorder()
	handleDashboard(w, jsonReq("GET", "/api/v1/dashboard", ""))
	if w.Code != 200 {
		t.Fatalf("Dashboard failed: %d", w.Code)
	}
	var d DashboardData
	decodeData(t, w, &d)
	if d.OpenPapers != 1 {
		t.Errorf("Expected 1 open paper, got %d", d.OpenPapers)
	}
	if d.ActiveSuppliers != 1 {
		t.Errorf("Expected 1 active supplier, got %d", d.ActiveSuppliers)
	}
}

func TestGenerateNotificationsFlagsOverdueMaterials(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	supID := createTestSupplier(t, "Slow Vendor")
	w := httptest.NewRecorder()
	handleCreateMaterialOrder(w, jsonReq("POST", "/api/v1/materials",
		`{"supplier_id":"`+supID+`","required_by":"2020-01-01","lines":[{"material":"x","qty":1}]}`))
	if w.Code != 200 {
		t.Fatalf("Create order failed: %d %s", w.Code, w.Body.String())
	}

	generateNotifications()
	// Running twice must not duplicate
	generateNotifications()

	w = httptest.NewRecorder()
	handleListNotifications(w, jsonReq("GET", "/api/v1/notifications?unread=true", ""))
	var items []Notification
	decodeData(t, w, &items)

	matched := 0
	for _, n := range items {
		if n.Type == "overdue_material" {
			matched++
		}
	}
	if matched != 1 {
		t.Errorf("Expected exactly one overdue_material notification, got %d", matched)
	}
}

func TestListNotificationsReportsTotalInMeta(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	for i := 0; i < 3; i++ {
		db.Exec("INSERT INTO notifications (type, title, message, ref_id) VALUES ('stale_draft', 'n', 'm', ?)", itoa(i))
	}

	w := httptest.NewRecorder()
	handleListNotifications(w, jsonReq("GET", "/api/v1/notifications", ""))

	var envelope struct {
		Data []Notification `json:"data"`
		Meta *Meta          `json:"meta"`
	}
	if err := json.NewDecoder(w.Body).Decode(&envelope); err != nil {
		t.Fatalf("Failed to decode envelope: %v", err)
	}
	if len(envelope.Data) != 3 {
		t.Errorf("Expected 3 notifications, got %d", len(envelope.Data))
	}
	if envelope.Meta == nil || envelope.Meta.Total != 3 {
		t.Errorf("Expected meta.total = 3, got %+v", envelope.Meta)
	}
	if envelope.Meta != nil && envelope.Meta.Limit != 100 {
		t.Errorf("Expected meta.limit = 100, got %d", envelope.Meta.Limit)
	}
}
