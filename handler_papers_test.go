package main

import (
	"net/http/httptest"
	"testing"
)

func TestPaperSoftDeleteAndRecover(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	id := createTestPaper(t, "Rolling shutter 10ft", "Sharma Traders")

	// Delete with a reason
	w := httptest.NewRecorder()
	handleDeletePaper(w, jsonReq("DELETE", "/api/v1/papers/"+id, `{"reason":"  duplicate entry  "}`), id)
	if w.Code != 200 {
		t.Fatalf("Delete failed: %d %s", w.Code, w.Body.String())
	}

	// Gone from the default list
	w = httptest.NewRecorder()
	handleListPapers(w, jsonReq("GET", "/api/v1/papers", ""))
	var live []ProductionPaper
	decodeData(t, w, &live)
	for _, p := range live {
		if p.ID == id {
			t.Error("Deleted paper still in default list")
		}
	}

	// Present in the deleted list with trimmed reason and actor
	w = httptest.NewRecorder()
	handleListPapers(w, jsonReq("GET", "/api/v1/papers?deleted=true", ""))
	var removed []ProductionPaper
	decodeData(t, w, &removed)
	found := false
	for _, p := range removed {
		if p.ID == id {
			found = true
			if p.DeletedAt == nil {
				t.Error("Expected deleted_at to be set")
			}
			if p.DeleteReason == nil || *p.DeleteReason != "duplicate entry" {
				t.Errorf("Expected trimmed reason 'duplicate entry', got %v", p.DeleteReason)
			}
		}
	}
	if !found {
		t.Fatal("Deleted paper missing from ?deleted=true list")
	}

	// Recover clears the markers
	w = httptest.NewRecorder()
	handleRecoverPaper(w, jsonReq("POST", "/api/v1/papers/"+id+"/recover", ""), id)
	if w.Code != 200 {
		t.Fatalf("Recover failed: %d %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	handleGetPaper(w, jsonReq("GET", "/api/v1/papers/"+id, ""), id)
	var p ProductionPaper
	decodeData(t, w, &p)
	if p.DeletedAt != nil || p.DeleteReason != nil {
		t.Errorf("Expected markers cleared after recover, got %+v", p.SoftDelete)
	}
}

func TestPaperDeleteWhitespaceReasonStoredAsNull(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	id := createTestPaper(t, "MS door frame", "Verma Steel")

	w := httptest.NewRecorder()
	handleDeletePaper(w, jsonReq("DELETE", "/api/v1/papers/"+id, `{"reason":"   "}`), id)
	if w.Code != 200 {
		t.Fatalf("Delete failed: %d", w.Code)
	}

	var reason *string
	db.QueryRow("SELECT delete_reason FROM production_papers WHERE id = ?", id).Scan(&reason)
	if reason != nil {
		t.Errorf("Expected NULL reason for whitespace-only input, got %q", *reason)
	}
}

func TestPaperDoubleDeleteConflicts(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	id := createTestPaper(t, "Shutter panel", "Gupta & Sons")

	w := httptest.NewRecorder()
	handleDeletePaper(w, jsonReq("DELETE", "/api/v1/papers/"+id, ""), id)
	if w.Code != 200 {
		t.Fatalf("First delete failed: %d", w.Code)
	}

	w = httptest.NewRecorder()
	handleDeletePaper(w, jsonReq("DELETE", "/api/v1/papers/"+id, ""), id)
	if w.Code != 409 {
		t.Errorf("Expected 409 on second delete, got %d", w.Code)
	}
}

func TestPaperRecoverLiveRecordConflicts(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	id := createTestPaper(t, "Grill gate", "Mehta Fabricators")

	w := httptest.NewRecorder()
	handleRecoverPaper(w, jsonReq("POST", "/api/v1/papers/"+id+"/recover", ""), id)
	if w.Code != 409 {
		t.Errorf("Expected 409 when recovering a live record, got %d", w.Code)
	}
}

func TestPaperUpdateRefusedWhileDeleted(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	id := createTestPaper(t, "Window shutter", "Joshi Works")

	w := httptest.NewRecorder()
	handleDeletePaper(w, jsonReq("DELETE", "/api/v1/papers/"+id, ""), id)
	if w.Code != 200 {
		t.Fatalf("Delete failed: %d", w.Code)
	}

	w = httptest.NewRecorder()
	handleUpdatePaper(w, jsonReq("PUT", "/api/v1/papers/"+id, `{"title":"Changed","status":"draft"}`), id)
	if w.Code != 404 {
		t.Errorf("Expected 404 updating a deleted paper, got %d", w.Code)
	}
}

func TestAssignSerialsSequentialBlocks(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	first := createTestPaper(t, "Batch one", "Party A")
	second := createTestPaper(t, "Batch two", "Party B")
	approvePaper(t, first)
	approvePaper(t, second)

	w := httptest.NewRecorder()
	handleAssignSerials(w, jsonReq("POST", "/api/v1/papers/"+first+"/assign-serials", ""), first)
	if w.Code != 200 {
		t.Fatalf("First serial assignment failed: %d %s", w.Code, w.Body.String())
	}
	var p1 ProductionPaper
	decodeData(t, w, &p1)
	if p1.SerialStart == nil || *p1.SerialStart != 1 {
		t.Fatalf("Expected serials to start at 1, got %v", p1.SerialStart)
	}
	if p1.SerialEnd == nil || *p1.SerialEnd != 10 {
		t.Fatalf("Expected serial end 10 for qty 10, got %v", p1.SerialEnd)
	}

	w = httptest.NewRecorder()
	handleAssignSerials(w, jsonReq("POST", "/api/v1/papers/"+second+"/assign-serials", ""), second)
	if w.Code != 200 {
		t.Fatalf("Second serial assignment failed: %d %s", w.Code, w.Body.String())
	}
	var p2 ProductionPaper
	decodeData(t, w, &p2)
	if p2.SerialStart == nil || *p2.SerialStart != 11 {
		t.Errorf("Expected second block to start at 11, got %v", p2.SerialStart)
	}

	// Re-assignment is refused
	w = httptest.NewRecorder()
	handleAssignSerials(w, jsonReq("POST", "/api/v1/papers/"+first+"/assign-serials", ""), first)
	if w.Code != 409 {
		t.Errorf("Expected 409 re-assigning serials, got %d", w.Code)
	}
}

func approvePaper(t *testing.T, id string) {
	t.Helper()
	w := httptest.NewRecorder()
	handleApprovePaper(w, jsonReq("POST", "/api/v1/papers/"+id+"/approve", ""), id)
	if w.Code != 200 {
		t.Fatalf("Approve failed for %s: %d %s", id, w.Code, w.Body.String())
	}
}

func TestReplaceDimensionsRoundTrip(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	id := createTestPaper(t, "Multi size order", "Patel Doors")

	w := httptest.NewRecorder()
	body := `[{"width_mm":900,"height_mm":2100,"qty":4},{"width_mm":1200,"height_mm":2400,"qty":2}]`
	handleReplaceDimensions(w, jsonReq("PUT", "/api/v1/papers/"+id+"/dimensions", body), id)
	if w.Code != 200 {
		t.Fatalf("Replace dimensions failed: %d %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	handleListDimensions(w, jsonReq("GET", "/api/v1/papers/"+id+"/dimensions", ""), id)
	var dims []PaperDimension
	decodeData(t, w, &dims)
	if len(dims) != 2 {
		t.Fatalf("Expected 2 dimensions, got %d", len(dims))
	}
	if dims[0].WidthMM != 900 || dims[1].Qty != 2 {
		t.Errorf("Unexpected dimensions: %+v", dims)
	}
}
