package main

import (
	"net/http"
)

var paperStatuses = []string{"draft", "approved", "in_production", "completed", "cancelled"}

const paperCols = `id, paper_number, title, COALESCE(description,''), COALESCE(party_name,''),
	COALESCE(measurement_number,''), status, quantity, serial_start, serial_end,
	COALESCE(created_by,''), created_at, updated_at, approved_at, approved_by,
	deleted_at, COALESCE(deleted_by,''), delete_reason`

func scanPaper(scan func(dest ...interface{}) error) (ProductionPaper, error) {
	var p ProductionPaper
	err := scan(&p.ID, &p.PaperNumber, &p.Title, &p.Description, &p.PartyName,
		&p.MeasurementNumber, &p.Status, &p.Quantity, &p.SerialStart, &p.SerialEnd,
		&p.CreatedBy, &p.CreatedAt, &p.UpdatedAt, &p.ApprovedAt, &p.ApprovedBy,
		&p.DeletedAt, &p.DeletedBy, &p.DeleteReason)
	return p, err
}

func handleListPapers(w http.ResponseWriter, r *http.Request) {
	rows, err := db.Query("SELECT " + paperCols + " FROM production_papers WHERE " + deletedFilter(r) + " ORDER BY paper_number DESC")
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	defer rows.Close()
	var items []ProductionPaper
	for rows.Next() {
		p, err := scanPaper(rows.Scan)
		if err != nil {
			continue
		}
		items = append(items, p)
	}
	if items == nil {
		items = []ProductionPaper{}
	}
	jsonResp(w, items)
}

func handleGetPaper(w http.ResponseWriter, r *http.Request, id string) {
	row := db.QueryRow("SELECT "+paperCols+" FROM production_papers WHERE id = ?", id)
	p, err := scanPaper(row.Scan)
	if err != nil {
		jsonErr(w, "not found", 404)
		return
	}
	jsonResp(w, p)
}

func handleCreatePaper(w http.ResponseWriter, r *http.Request) {
	var p ProductionPaper
	if err := decodeBody(r, &p); err != nil {
		jsonErr(w, "invalid body", 400)
		return
	}

	ve := &ValidationErrors{}
	requireField(ve, "title", p.Title)
	requireField(ve, "party_name", p.PartyName)
	validateEnum(ve, "status", p.Status, paperStatuses)
	if p.Quantity < 0 {
		ve.Add("quantity", "must not be negative")
	}
	if ve.HasErrors() {
		jsonErr(w, ve.Error(), 400)
		return
	}

	p.ID = nextID("production_papers", "PP", 4)
	p.PaperNumber = p.ID
	if p.Status == "" {
		p.Status = "draft"
	}
	p.CreatedBy = getUsername(r)

	_, err := db.Exec(`INSERT INTO production_papers
		(id, paper_number, title, description, party_name, measurement_number, status, quantity, created_by)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		p.ID, p.PaperNumber, p.Title, p.Description, p.PartyName, p.MeasurementNumber, p.Status, p.Quantity, p.CreatedBy)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}

	logAudit(p.CreatedBy, AuditActionCreate, "paper", p.ID, "Created production paper "+p.Title)
	handleGetPaper(w, r, p.ID)
}

func handleUpdatePaper(w http.ResponseWriter, r *http.Request, id string) {
	var p ProductionPaper
	if err := decodeBody(r, &p); err != nil {
		jsonErr(w, "invalid body", 400)
		return
	}

	ve := &ValidationErrors{}
	requireField(ve, "title", p.Title)
	validateEnum(ve, "status", p.Status, paperStatuses)
	if ve.HasErrors() {
		jsonErr(w, ve.Error(), 400)
		return
	}

	res, err := db.Exec(`UPDATE production_papers SET title=?, description=?, party_name=?, measurement_number=?,
		status=?, quantity=?, updated_at=CURRENT_TIMESTAMP WHERE id=? AND deleted_at IS NULL`,
		p.Title, p.Description, p.PartyName, p.MeasurementNumber, p.Status, p.Quantity, id)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		jsonErr(w, "not found", 404)
		return
	}

	logAudit(getUsername(r), AuditActionUpdate, "paper", id, "Updated production paper "+id)
	handleGetPaper(w, r, id)
}

func handleDeletePaper(w http.ResponseWriter, r *http.Request, id string) {
	softDeleteRecord(w, r, "production_papers", "paper", id)
}

func handleRecoverPaper(w http.ResponseWriter, r *http.Request, id string) {
	recoverRecord(w, r, "production_papers", "paper", id)
}

func handleApprovePaper(w http.ResponseWriter, r *http.Request, id string) {
	var status string
	err := db.QueryRow("SELECT status FROM production_papers WHERE id = ? AND deleted_at IS NULL", id).Scan(&status)
	if err != nil {
		jsonErr(w, "not found", 404)
		return
	}
	if status != "draft" {
		jsonErr(w, "only draft papers can be approved", 409)
		return
	}

	username := getUsername(r)
	_, err = db.Exec(`UPDATE production_papers SET status='approved', approved_at=CURRENT_TIMESTAMP,
		approved_by=?, updated_at=CURRENT_TIMESTAMP WHERE id=?`, username, id)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}

	logAudit(username, AuditActionApprove, "paper", id, "Approved production paper "+id)
	handleGetPaper(w, r, id)
}

// handleAssignSerials allocates the next contiguous serial block for an
// approved paper. Blocks never overlap and are never reassigned.
func handleAssignSerials(w http.ResponseWriter, r *http.Request, id string) {
	var status string
	var quantity int
	var serialStart *int
	err := db.QueryRow("SELECT status, quantity, serial_start FROM production_papers WHERE id = ? AND deleted_at IS NULL", id).
		Scan(&status, &quantity, &serialStart)
	if err != nil {
		jsonErr(w, "not found", 404)
		return
	}
	if serialStart != nil {
		jsonErr(w, "serials already assigned", 409)
		return
	}
	if status != "approved" && status != "in_production" {
		jsonErr(w, "paper must be approved before serials are assigned", 409)
		return
	}
	if quantity <= 0 {
		jsonErr(w, "paper quantity must be positive to assign serials", 400)
		return
	}

	tx, err := db.Begin()
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	defer tx.Rollback()

	var maxSerial int
	tx.QueryRow("SELECT COALESCE(MAX(serial_end), 0) FROM production_papers").Scan(&maxSerial)
	start := maxSerial + 1
	end := maxSerial + quantity

	if _, err := tx.Exec(`UPDATE production_papers SET serial_start=?, serial_end=?,
		status='in_production', updated_at=CURRENT_TIMESTAMP WHERE id=?`, start, end, id); err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	if err := tx.Commit(); err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}

	logAudit(getUsername(r), AuditActionUpdate, "paper", id, "Assigned serials to paper "+id)
	handleGetPaper(w, r, id)
}

func handleListDimensions(w http.ResponseWriter, r *http.Request, paperID string) {
	rows, err := db.Query("SELECT id, paper_id, width_mm, height_mm, qty FROM paper_dimensions WHERE paper_id = ? ORDER BY id", paperID)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	defer rows.Close()
	var items []PaperDimension
	for rows.Next() {
		var d PaperDimension
		rows.Scan(&d.ID, &d.PaperID, &d.WidthMM, &d.HeightMM, &d.Qty)
		items = append(items, d)
	}
	if items == nil {
		items = []PaperDimension{}
	}
	jsonResp(w, items)
}

// handleReplaceDimensions replaces the full dimension set of a paper in one
// transaction; partial edits are not supported by the measurement sheet.
func handleReplaceDimensions(w http.ResponseWriter, r *http.Request, paperID string) {
	var exists int
	if err := db.QueryRow("SELECT COUNT(*) FROM production_papers WHERE id = ? AND deleted_at IS NULL", paperID).Scan(&exists); err != nil || exists == 0 {
		jsonErr(w, "not found", 404)
		return
	}

	var dims []PaperDimension
	if err := decodeBody(r, &dims); err != nil {
		jsonErr(w, "invalid body", 400)
		return
	}
	ve := &ValidationErrors{}
	for _, d := range dims {
		validatePositive(ve, "width_mm", d.WidthMM)
		validatePositive(ve, "height_mm", d.HeightMM)
		if d.Qty <= 0 {
			ve.Add("qty", "must be greater than zero")
		}
	}
	if ve.HasErrors() {
		jsonErr(w, ve.Error(), 400)
		return
	}

	tx, err := db.Begin()
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM paper_dimensions WHERE paper_id = ?", paperID); err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	for _, d := range dims {
		if _, err := tx.Exec("INSERT INTO paper_dimensions (paper_id, width_mm, height_mm, qty) VALUES (?,?,?,?)",
			paperID, d.WidthMM, d.HeightMM, d.Qty); err != nil {
			jsonErr(w, err.Error(), 500)
			return
		}
	}
	if err := tx.Commit(); err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}

	logAudit(getUsername(r), AuditActionUpdate, "paper", paperID, "Replaced measurement sheet for "+paperID)
	handleListDimensions(w, r, paperID)
}
