package main

import (
	"net/http/httptest"
	"strconv"
	"testing"
)

func createDispatchForPaper(t *testing.T, paperID string) string {
	t.Helper()
	w := httptest.NewRecorder()
	handleCreateDispatch(w, jsonReq("POST", "/api/v1/dispatches", `{"paper_id":"`+paperID+`","destination":"Pune warehouse","vehicle":"MH12 AB 1234"}`))
	if w.Code != 200 {
		t.Fatalf("Failed to create dispatch: %d %s", w.Code, w.Body.String())
	}
	var d Dispatch
	decodeData(t, w, &d)
	return d.ID
}

func setPaperDimensions(t *testing.T, paperID string) []PaperDimension {
	t.Helper()
	w := httptest.NewRecorder()
	body := `[{"width_mm":900,"height_mm":2100,"qty":4},{"width_mm":1200,"height_mm":2400,"qty":2}]`
	handleReplaceDimensions(w, jsonReq("PUT", "/api/v1/papers/"+paperID+"/dimensions", body), paperID)
	if w.Code != 200 {
		t.Fatalf("Failed to set dimensions: %d", w.Code)
	}
	var dims []PaperDimension
	decodeData(t, w, &dims)
	return dims
}

func TestDispatchLinesFromLegacyIndexPayload(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	paperID := createTestPaper(t, "Shutters for Pune", "Kulkarni Traders")
	setPaperDimensions(t, paperID)
	dispID := createDispatchForPaper(t, paperID)

	w := httptest.NewRecorder()
	handleReplaceDispatchLines(w, jsonReq("PUT", "/api/v1/dispatches/"+dispID+"/lines", `[{"index":1,"qty":2}]`), dispID)
	if w.Code != 200 {
		t.Fatalf("Replace lines failed: %d %s", w.Code, w.Body.String())
	}

	var lines []DispatchLine
	decodeData(t, w, &lines)
	if len(lines) != 1 {
		t.Fatalf("Expected 1 line, got %d", len(lines))
	}
	if lines[0].WidthMM != 1200 || lines[0].HeightMM != 2400 {
		t.Errorf("Index 1 should resolve to the second dimension, got %+v", lines[0])
	}
}

func TestDispatchLinesFromDimensionRefPayload(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	paperID := createTestPaper(t, "Doors for Nashik", "Desai Enterprises")
	dims := setPaperDimensions(t, paperID)
	dispID := createDispatchForPaper(t, paperID)

	w := httptest.NewRecorder()
	body := `[{"dimension_id":` + strconv.Itoa(dims[0].ID) + `,"qty":3}]`
	handleReplaceDispatchLines(w, jsonReq("PUT", "/api/v1/dispatches/"+dispID+"/lines", body), dispID)
	if w.Code != 200 {
		t.Fatalf("Replace lines failed: %d %s", w.Code, w.Body.String())
	}

	var lines []DispatchLine
	decodeData(t, w, &lines)
	if len(lines) != 1 || lines[0].DimensionID != dims[0].ID || lines[0].Qty != 3 {
		t.Errorf("Unexpected resolved lines: %+v", lines)
	}
}

func TestDispatchLinesRejectBadIndexAndMissingRef(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	paperID := createTestPaper(t, "Order", "Party")
	setPaperDimensions(t, paperID)
	dispID := createDispatchForPaper(t, paperID)

	cases := []struct {
		name string
		body string
	}{
		{"out of range index", `[{"index":9,"qty":1}]`},
		{"unknown dimension id", `[{"dimension_id":9999,"qty":1}]`},
		{"no dimension reference", `[{"qty":1}]`},
		{"non-positive qty", `[{"index":0,"qty":0}]`},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		handleReplaceDispatchLines(w, jsonReq("PUT", "/api/v1/dispatches/"+dispID+"/lines", tc.body), dispID)
		if w.Code != 400 {
			t.Errorf("%s: expected 400, got %d", tc.name, w.Code)
		}
	}
}

func TestDispatchStatusForwardOnly(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	paperID := createTestPaper(t, "Order", "Party")
	dispID := createDispatchForPaper(t, paperID)

	// pending -> dispatched skips loaded and is refused
	w := httptest.NewRecorder()
	handleDispatchStatus(w, jsonReq("POST", "/api/v1/dispatches/"+dispID+"/status", `{"status":"dispatched"}`), dispID)
	if w.Code != 409 {
		t.Errorf("Expected 409 skipping a stage, got %d", w.Code)
	}

	for _, next := range []string{"loaded", "dispatched", "delivered"} {
		w = httptest.NewRecorder()
		handleDispatchStatus(w, jsonReq("POST", "/api/v1/dispatches/"+dispID+"/status", `{"status":"`+next+`"}`), dispID)
		if w.Code != 200 {
			t.Fatalf("Transition to %s failed: %d %s", next, w.Code, w.Body.String())
		}
	}

	// Delivered is final
	w = httptest.NewRecorder()
	handleDispatchStatus(w, jsonReq("POST", "/api/v1/dispatches/"+dispID+"/status", `{"status":"pending"}`), dispID)
	if w.Code != 409 {
		t.Errorf("Expected 409 moving out of delivered, got %d", w.Code)
	}
}

func TestDispatchDateStampedOnDispatch(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	paperID := createTestPaper(t, "Order", "Party")
	dispID := createDispatchForPaper(t, paperID)

	for _, next := range []string{"loaded", "dispatched"} {
		w := httptest.NewRecorder()
		handleDispatchStatus(w, jsonReq("POST", "/api/v1/dispatches/"+dispID+"/status", `{"status":"`+next+`"}`), dispID)
		if w.Code != 200 {
			t.Fatalf("Transition to %s failed: %d", next, w.Code)
		}
	}

	var date *string
	db.QueryRow("SELECT dispatch_date FROM dispatches WHERE id = ?", dispID).Scan(&date)
	if date == nil {
		t.Error("Expected dispatch_date stamped when status reaches dispatched")
	}
}
