package main

import (
	"net/http/httptest"
	"testing"
)

func createTestMaterialOrder(t *testing.T, supplierID string) RawMaterialOrder {
	t.Helper()
	w := httptest.NewRecorder()
	body := `{"supplier_id":"` + supplierID + `","lines":[
		{"material":"GI sheet","gauge":"20","qty":10,"unit":"sheet"},
		{"material":"MS angle","qty":2,"unit":"ton"},
		{"material":"paint","qty":25,"unit":"kg"}]}`
	handleCreateMaterialOrder(w, jsonReq("POST", "/api/v1/materials", body))
	if w.Code != 200 {
		t.Fatalf("Failed to create material order: %d %s", w.Code, w.Body.String())
	}
	var m RawMaterialOrder
	decodeData(t, w, &m)
	return m
}

func TestMaterialOrderWeightRollup(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	supID := createTestSupplier(t, "Jindal Steel")
	m := createTestMaterialOrder(t, supID)

	// 10 sheets at 12.5 kg + 2 ton + 25 kg
	want := 10*12.5 + 2*1000 + 25
	if m.TotalWeight != want {
		t.Errorf("Expected total weight %.1f, got %.1f", want, m.TotalWeight)
	}
	if len(m.Lines) != 3 {
		t.Fatalf("Expected 3 lines, got %d", len(m.Lines))
	}
	if m.Status != "pending" {
		t.Errorf("Expected new order pending, got %q", m.Status)
	}
}

func TestMaterialOrderUnknownSupplierRejected(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	w := httptest.NewRecorder()
	handleCreateMaterialOrder(w, jsonReq("POST", "/api/v1/materials",
		`{"supplier_id":"SUP-999","lines":[{"material":"x","qty":1}]}`))
	if w.Code != 400 {
		t.Errorf("Expected 400 for unknown supplier, got %d", w.Code)
	}
}

func TestMaterialOrderApproveThenReceive(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	supID := createTestSupplier(t, "Tata Supply")
	m := createTestMaterialOrder(t, supID)

	// Receiving before ordering is refused
	w := httptest.NewRecorder()
	handleReceiveMaterialOrder(w, jsonReq("POST", "/api/v1/materials/"+m.ID+"/receive", ""), m.ID)
	if w.Code != 409 {
		t.Errorf("Expected 409 receiving a pending order, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	handleApproveMaterialOrder(w, jsonReq("POST", "/api/v1/materials/"+m.ID+"/approve", ""), m.ID)
	if w.Code != 200 {
		t.Fatalf("Approve failed: %d %s", w.Code, w.Body.String())
	}
	var ordered RawMaterialOrder
	decodeData(t, w, &ordered)
	if ordered.Status != "ordered" {
		t.Errorf("Expected status ordered, got %q", ordered.Status)
	}
	if ordered.OrderedAt == nil {
		t.Error("Expected ordered_at stamped on approval")
	}

	// Ordered orders are no longer editable
	w = httptest.NewRecorder()
	handleUpdateMaterialOrder(w, jsonReq("PUT", "/api/v1/materials/"+m.ID,
		`{"supplier_id":"`+supID+`","lines":[{"material":"y","qty":1}]}`), m.ID)
	if w.Code != 409 {
		t.Errorf("Expected 409 editing an ordered order, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	handleReceiveMaterialOrder(w, jsonReq("POST", "/api/v1/materials/"+m.ID+"/receive", ""), m.ID)
	if w.Code != 200 {
		t.Fatalf("Receive failed: %d %s", w.Code, w.Body.String())
	}
}

func TestMaterialOrderSoftDeleteExcludedFromList(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	supID := createTestSupplier(t, "Vendor")
	m := createTestMaterialOrder(t, supID)

	w := httptest.NewRecorder()
	handleDeleteMaterialOrder(w, jsonReq("DELETE", "/api/v1/materials/"+m.ID, `{"reason":"wrong vendor"}`), m.ID)
	if w.Code != 200 {
		t.Fatalf("Delete failed: %d", w.Code)
	}

	w = httptest.NewRecorder()
	handleListMaterialOrders(w, jsonReq("GET", "/api/v1/materials", ""))
	var live []RawMaterialOrder
	decodeData(t, w, &live)
	if len(live) != 0 {
		t.Errorf("Expected live list empty, got %d", len(live))
	}

	w = httptest.NewRecorder()
	handleListMaterialOrders(w, jsonReq("GET", "/api/v1/materials?deleted=true", ""))
	var removed []RawMaterialOrder
	decodeData(t, w, &removed)
	if len(removed) != 1 {
		t.Errorf("Expected 1 deleted order, got %d", len(removed))
	}
}
