package main

import (
	"net/http"
)

var materialStatuses = []string{"pending", "ordered", "received", "cancelled"}

const materialCols = `m.id, m.order_number, m.supplier_id, COALESCE(s.name,''), m.status,
	COALESCE(m.required_by,''), COALESCE(m.notes,''), m.total_weight,
	COALESCE(m.created_by,''), m.created_at, m.updated_at, m.ordered_at, m.ordered_by,
	m.deleted_at, COALESCE(m.deleted_by,''), m.delete_reason`

func scanMaterialOrder(scan func(dest ...interface{}) error) (RawMaterialOrder, error) {
	var m RawMaterialOrder
	err := scan(&m.ID, &m.OrderNumber, &m.SupplierID, &m.SupplierName, &m.Status,
		&m.RequiredBy, &m.Notes, &m.TotalWeight,
		&m.CreatedBy, &m.CreatedAt, &m.UpdatedAt, &m.OrderedAt, &m.OrderedBy,
		&m.DeletedAt, &m.DeletedBy, &m.DeleteReason)
	return m, err
}

func handleListMaterialOrders(w http.ResponseWriter, r *http.Request) {
	rows, err := db.Query(`SELECT ` + materialCols + ` FROM raw_material_orders m
		LEFT JOIN suppliers s ON s.id = m.supplier_id
		WHERE m.` + deletedFilter(r) + ` ORDER BY m.order_number DESC`)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	defer rows.Close()
	var items []RawMaterialOrder
	for rows.Next() {
		m, err := scanMaterialOrder(rows.Scan)
		if err != nil {
			continue
		}
		items = append(items, m)
	}
	if items == nil {
		items = []RawMaterialOrder{}
	}
	jsonResp(w, items)
}

func handleGetMaterialOrder(w http.ResponseWriter, r *http.Request, id string) {
	row := db.QueryRow(`SELECT `+materialCols+` FROM raw_material_orders m
		LEFT JOIN suppliers s ON s.id = m.supplier_id WHERE m.id = ?`, id)
	m, err := scanMaterialOrder(row.Scan)
	if err != nil {
		jsonErr(w, "not found", 404)
		return
	}
	m.Lines = loadMaterialLines(id)
	jsonResp(w, m)
}

func loadMaterialLines(orderID string) []MaterialLine {
	rows, err := db.Query("SELECT id, order_id, material, COALESCE(gauge,''), qty, unit, weight_kg FROM material_lines WHERE order_id = ? ORDER BY id", orderID)
	if err != nil {
		return []MaterialLine{}
	}
	defer rows.Close()
	var lines []MaterialLine
	for rows.Next() {
		var l MaterialLine
		rows.Scan(&l.ID, &l.OrderID, &l.Material, &l.Gauge, &l.Qty, &l.Unit, &l.WeightKg)
		lines = append(lines, l)
	}
	if lines == nil {
		lines = []MaterialLine{}
	}
	return lines
}

type materialOrderRequest struct {
	SupplierID string         `json:"supplier_id"`
	RequiredBy string         `json:"required_by"`
	Notes      string         `json:"notes"`
	Lines      []MaterialLine `json:"lines"`
}

func validateMaterialRequest(req *materialOrderRequest) *ValidationErrors {
	ve := &ValidationErrors{}
	requireField(ve, "supplier_id", req.SupplierID)
	validateDate(ve, "required_by", req.RequiredBy)
	for _, l := range req.Lines {
		requireField(ve, "material", l.Material)
		validatePositive(ve, "qty", l.Qty)
	}
	return ve
}

// lineWeight converts a line quantity to kilograms. Sheet counts use the
// gauge-independent flat estimate the shop floor works with.
func lineWeight(l MaterialLine) float64 {
	switch l.Unit {
	case "kg":
		return l.Qty
	case "ton":
		return l.Qty * 1000
	case "sheet":
		return l.Qty * 12.5
	default:
		return 0
	}
}

func writeMaterialLines(orderID string, lines []MaterialLine) (float64, error) {
	if _, err := db.Exec("DELETE FROM material_lines WHERE order_id = ?", orderID); err != nil {
		return 0, err
	}
	total := 0.0
	for _, l := range lines {
		if l.Unit == "" {
			l.Unit = "kg"
		}
		weight := lineWeight(l)
		total += weight
		if _, err := db.Exec("INSERT INTO material_lines (order_id, material, gauge, qty, unit, weight_kg) VALUES (?,?,?,?,?,?)",
			orderID, l.Material, l.Gauge, l.Qty, l.Unit, weight); err != nil {
			return 0, err
		}
	}
	return total, nil
}

func handleCreateMaterialOrder(w http.ResponseWriter, r *http.Request) {
	var req materialOrderRequest
	if err := decodeBody(r, &req); err != nil {
		jsonErr(w, "invalid body", 400)
		return
	}
	if ve := validateMaterialRequest(&req); ve.HasErrors() {
		jsonErr(w, ve.Error(), 400)
		return
	}

	var supplierExists int
	db.QueryRow("SELECT COUNT(*) FROM suppliers WHERE id = ? AND deleted_at IS NULL", req.SupplierID).Scan(&supplierExists)
	if supplierExists == 0 {
		jsonErr(w, "unknown supplier "+req.SupplierID, 400)
		return
	}

	id := nextID("raw_material_orders", "RM", 4)
	username := getUsername(r)
	_, err := db.Exec(`INSERT INTO raw_material_orders (id, order_number, supplier_id, required_by, notes, created_by)
		VALUES (?,?,?,?,?,?)`, id, id, req.SupplierID, req.RequiredBy, req.Notes, username)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}

	total, err := writeMaterialLines(id, req.Lines)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	db.Exec("UPDATE raw_material_orders SET total_weight = ? WHERE id = ?", total, id)

	logAudit(username, AuditActionCreate, "material", id, "Created raw material order "+id)
	handleGetMaterialOrder(w, r, id)
}

func handleUpdateMaterialOrder(w http.ResponseWriter, r *http.Request, id string) {
	var status string
	err := db.QueryRow("SELECT status FROM raw_material_orders WHERE id = ? AND deleted_at IS NULL", id).Scan(&status)
	if err != nil {
		jsonErr(w, "not found", 404)
		return
	}
	if status != "pending" {
		jsonErr(w, "only pending orders can be edited", 409)
		return
	}

	var req materialOrderRequest
	if err := decodeBody(r, &req); err != nil {
		jsonErr(w, "invalid body", 400)
		return
	}
	if ve := validateMaterialRequest(&req); ve.HasErrors() {
		jsonErr(w, ve.Error(), 400)
		return
	}

	total, err := writeMaterialLines(id, req.Lines)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	_, err = db.Exec(`UPDATE raw_material_orders SET supplier_id=?, required_by=?, notes=?, total_weight=?,
		updated_at=CURRENT_TIMESTAMP WHERE id=?`, req.SupplierID, req.RequiredBy, req.Notes, total, id)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}

	logAudit(getUsername(r), AuditActionUpdate, "material", id, "Updated raw material order "+id)
	handleGetMaterialOrder(w, r, id)
}

func handleDeleteMaterialOrder(w http.ResponseWriter, r *http.Request, id string) {
	softDeleteRecord(w, r, "raw_material_orders", "material", id)
}

func handleRecoverMaterialOrder(w http.ResponseWriter, r *http.Request, id string) {
	recoverRecord(w, r, "raw_material_orders", "material", id)
}

func handleApproveMaterialOrder(w http.ResponseWriter, r *http.Request, id string) {
	transitionMaterialOrder(w, r, id, "pending", "ordered", AuditActionApprove)
}

func handleReceiveMaterialOrder(w http.ResponseWriter, r *http.Request, id string) {
	transitionMaterialOrder(w, r, id, "ordered", "received", AuditActionUpdate)
}

func transitionMaterialOrder(w http.ResponseWriter, r *http.Request, id, from, to, auditAction string) {
	var status string
	err := db.QueryRow("SELECT status FROM raw_material_orders WHERE id = ? AND deleted_at IS NULL", id).Scan(&status)
	if err != nil {
		jsonErr(w, "not found", 404)
		return
	}
	if status != from {
		jsonErr(w, "order must be "+from+" to become "+to, 409)
		return
	}

	username := getUsername(r)
	if to == "ordered" {
		_, err = db.Exec(`UPDATE raw_material_orders SET status=?, ordered_at=CURRENT_TIMESTAMP, ordered_by=?,
			updated_at=CURRENT_TIMESTAMP WHERE id=?`, to, username, id)
	} else {
		_, err = db.Exec("UPDATE raw_material_orders SET status=?, updated_at=CURRENT_TIMESTAMP WHERE id=?", to, id)
	}
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}

	logAudit(username, auditAction, "material", id, "Material order "+id+" is now "+to)
	handleGetMaterialOrder(w, r, id)
}
