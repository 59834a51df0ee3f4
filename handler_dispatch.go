package main

import (
	"encoding/json"
	"net/http"
)

var dispatchStatuses = []string{"pending", "loaded", "dispatched", "delivered"}

// Forward-only transitions. A delivered dispatch is final.
var dispatchNext = map[string]string{
	"pending":    "loaded",
	"loaded":     "dispatched",
	"dispatched": "delivered",
}

const dispatchCols = `d.id, d.dispatch_number, d.paper_id, COALESCE(p.paper_number,''),
	d.vehicle, d.driver, d.destination, d.status, d.dispatch_date, d.notes,
	d.created_by, d.created_at, d.updated_at, d.deleted_at, COALESCE(d.deleted_by,''), d.delete_reason`

func scanDispatch(scan func(dest ...interface{}) error) (Dispatch, error) {
	var d Dispatch
	err := scan(&d.ID, &d.DispatchNumber, &d.PaperID, &d.PaperNumber,
		&d.Vehicle, &d.Driver, &d.Destination, &d.Status, &d.DispatchDate, &d.Notes,
		&d.CreatedBy, &d.CreatedAt, &d.UpdatedAt, &d.DeletedAt, &d.DeletedBy, &d.DeleteReason)
	return d, err
}

func handleListDispatches(w http.ResponseWriter, r *http.Request) {
	q := `SELECT ` + dispatchCols + ` FROM dispatches d
		LEFT JOIN production_papers p ON p.id = d.paper_id
		WHERE d.` + deletedFilter(r) + ` ORDER BY d.created_at DESC`
	rows, err := db.Query(q)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	defer rows.Close()
	var items []Dispatch
	for rows.Next() {
		d, err := scanDispatch(rows.Scan)
		if err != nil {
			continue
		}
		items = append(items, d)
	}
	if items == nil {
		items = []Dispatch{}
	}
	jsonResp(w, items)
}

func handleGetDispatch(w http.ResponseWriter, r *http.Request, id string) {
	row := db.QueryRow(`SELECT `+dispatchCols+` FROM dispatches d
		LEFT JOIN production_papers p ON p.id = d.paper_id WHERE d.id = ?`, id)
	d, err := scanDispatch(row.Scan)
	if err != nil {
		jsonErr(w, "not found", 404)
		return
	}
	jsonResp(w, d)
}

type dispatchRequest struct {
	PaperID      string  `json:"paper_id"`
	Vehicle      string  `json:"vehicle"`
	Driver       string  `json:"driver"`
	Destination  string  `json:"destination"`
	DispatchDate *string `json:"dispatch_date"`
	Notes        string  `json:"notes"`
}

func validateDispatch(req *dispatchRequest) *ValidationErrors {
	ve := &ValidationErrors{}
	requireField(ve, "destination", req.Destination)
	if req.DispatchDate != nil {
		validateDate(ve, "dispatch_date", *req.DispatchDate)
	}
	if req.PaperID != "" {
		var n int
		db.QueryRow("SELECT COUNT(*) FROM production_papers WHERE id = ? AND deleted_at IS NULL", req.PaperID).Scan(&n)
		if n == 0 {
			ve.Add("paper_id", "production paper not found")
		}
	}
	return ve
}

func handleCreateDispatch(w http.ResponseWriter, r *http.Request) {
	var req dispatchRequest
	if err := decodeBody(r, &req); err != nil {
		jsonErr(w, "invalid body", 400)
		return
	}
	if ve := validateDispatch(&req); ve.HasErrors() {
		jsonErr(w, ve.Error(), 400)
		return
	}

	id := nextID("dispatches", "DSP", 4)
	_, err := db.Exec(`INSERT INTO dispatches (id, dispatch_number, paper_id, vehicle, driver, destination, dispatch_date, notes, created_by)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		id, id, req.PaperID, req.Vehicle, req.Driver, req.Destination, req.DispatchDate, req.Notes, getUsername(r))
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}

	logAudit(getUsername(r), AuditActionCreate, "dispatch", id, "Created dispatch to "+req.Destination)
	handleGetDispatch(w, r, id)
}

func handleUpdateDispatch(w http.ResponseWriter, r *http.Request, id string) {
	var req dispatchRequest
	if err := decodeBody(r, &req); err != nil {
		jsonErr(w, "invalid body", 400)
		return
	}
	if ve := validateDispatch(&req); ve.HasErrors() {
		jsonErr(w, ve.Error(), 400)
		return
	}

	res, err := db.Exec(`UPDATE dispatches SET paper_id=?, vehicle=?, driver=?, destination=?,
		dispatch_date=?, notes=?, updated_at=CURRENT_TIMESTAMP
		WHERE id=? AND deleted_at IS NULL AND status IN ('pending','loaded')`,
		req.PaperID, req.Vehicle, req.Driver, req.Destination, req.DispatchDate, req.Notes, id)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		jsonErr(w, "dispatch not found or no longer editable", 409)
		return
	}

	logAudit(getUsername(r), AuditActionUpdate, "dispatch", id, "Updated dispatch "+id)
	handleGetDispatch(w, r, id)
}

func handleDeleteDispatch(w http.ResponseWriter, r *http.Request, id string) {
	softDeleteRecord(w, r, "dispatches", "dispatch", id)
}

func handleRecoverDispatch(w http.ResponseWriter, r *http.Request, id string) {
	recoverRecord(w, r, "dispatches", "dispatch", id)
}

func handleDispatchStatus(w http.ResponseWriter, r *http.Request, id string) {
	var req struct {
		Status string `json:"status"`
	}
	if err := decodeBody(r, &req); err != nil {
		jsonErr(w, "invalid body", 400)
		return
	}
	ve := &ValidationErrors{}
	validateEnum(ve, "status", req.Status, dispatchStatuses)
	if ve.HasErrors() {
		jsonErr(w, ve.Error(), 400)
		return
	}

	var current string
	if err := db.QueryRow("SELECT status FROM dispatches WHERE id = ? AND deleted_at IS NULL", id).Scan(&current); err != nil {
		jsonErr(w, "not found", 404)
		return
	}
	if dispatchNext[current] != req.Status {
		jsonErr(w, "cannot move dispatch from "+current+" to "+req.Status, 409)
		return
	}

	if req.Status == "dispatched" {
		db.Exec(`UPDATE dispatches SET status=?, dispatch_date=COALESCE(dispatch_date, CURRENT_TIMESTAMP),
			updated_at=CURRENT_TIMESTAMP WHERE id=?`, req.Status, id)
	} else {
		db.Exec("UPDATE dispatches SET status=?, updated_at=CURRENT_TIMESTAMP WHERE id=?", req.Status, id)
	}

	logAudit(getUsername(r), AuditActionUpdate, "dispatch", id, "Dispatch "+id+" moved to "+req.Status)
	broadcast("dispatch", "status", id)
	handleGetDispatch(w, r, id)
}

func handleListDispatchLines(w http.ResponseWriter, r *http.Request, id string) {
	rows, err := db.Query(`SELECT id, dispatch_id, dimension_id, width_mm, height_mm, qty
		FROM dispatch_lines WHERE dispatch_id = ? ORDER BY id`, id)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	defer rows.Close()
	var lines []DispatchLine
	for rows.Next() {
		var l DispatchLine
		rows.Scan(&l.ID, &l.DispatchID, &l.DimensionID, &l.WidthMM, &l.HeightMM, &l.Qty)
		lines = append(lines, l)
	}
	if lines == nil {
		lines = []DispatchLine{}
	}
	jsonResp(w, lines)
}

// dispatchLineInput accepts two payload shapes for one line: the older clients
// send {"index": N, "qty": Q}, an offset into the paper's dimension list, while
// newer ones send {"dimension_id": ID, "qty": Q}. Both resolve to a concrete
// dimension row before anything is stored.
type dispatchLineInput struct {
	Index       *int `json:"index"`
	DimensionID *int `json:"dimension_id"`
	Qty         int  `json:"qty"`
}

func resolveDispatchLines(paperID string, inputs []dispatchLineInput) ([]DispatchLine, *ValidationErrors) {
	ve := &ValidationErrors{}

	// Dimension list in stored order, for index payloads.
	var dims []PaperDimension
	rows, err := db.Query(`SELECT id, width_mm, height_mm, qty FROM paper_dimensions
		WHERE paper_id = ? ORDER BY id`, paperID)
	if err == nil {
		defer rows.Close()
		for rows.Next() {
			var d PaperDimension
			rows.Scan(&d.ID, &d.WidthMM, &d.HeightMM, &d.Qty)
			dims = append(dims, d)
		}
	}
	byID := make(map[int]PaperDimension, len(dims))
	for _, d := range dims {
		byID[d.ID] = d
	}

	var lines []DispatchLine
	for _, in := range inputs {
		if in.Qty <= 0 {
			ve.Add("lines", "line qty must be positive")
			continue
		}
		var dim PaperDimension
		switch {
		case in.DimensionID != nil:
			d, ok := byID[*in.DimensionID]
			if !ok {
				ve.Add("lines", "unknown dimension id on line")
				continue
			}
			dim = d
		case in.Index != nil:
			if *in.Index < 0 || *in.Index >= len(dims) {
				ve.Add("lines", "dimension index out of range on line")
				continue
			}
			dim = dims[*in.Index]
		default:
			ve.Add("lines", "line must carry a dimension_id or index")
			continue
		}
		lines = append(lines, DispatchLine{
			DimensionID: dim.ID,
			WidthMM:     dim.WidthMM,
			HeightMM:    dim.HeightMM,
			Qty:         in.Qty,
		})
	}
	return lines, ve
}

func handleReplaceDispatchLines(w http.ResponseWriter, r *http.Request, id string) {
	var d Dispatch
	row := db.QueryRow("SELECT id, paper_id, status FROM dispatches WHERE id = ? AND deleted_at IS NULL", id)
	if err := row.Scan(&d.ID, &d.PaperID, &d.Status); err != nil {
		jsonErr(w, "not found", 404)
		return
	}
	if d.Status == "dispatched" || d.Status == "delivered" {
		jsonErr(w, "lines cannot change after dispatch", 409)
		return
	}
	if d.PaperID == "" {
		jsonErr(w, "dispatch has no production paper", 409)
		return
	}

	var inputs []dispatchLineInput
	if err := json.NewDecoder(r.Body).Decode(&inputs); err != nil {
		jsonErr(w, "invalid body", 400)
		return
	}
	lines, ve := resolveDispatchLines(d.PaperID, inputs)
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
	if _, err := tx.Exec("DELETE FROM dispatch_lines WHERE dispatch_id = ?", id); err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	for _, l := range lines {
		if _, err := tx.Exec(`INSERT INTO dispatch_lines (dispatch_id, dimension_id, width_mm, height_mm, qty)
			VALUES (?,?,?,?,?)`, id, l.DimensionID, l.WidthMM, l.HeightMM, l.Qty); err != nil {
			jsonErr(w, err.Error(), 500)
			return
		}
	}
	if err := tx.Commit(); err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}

	logAudit(getUsername(r), AuditActionUpdate, "dispatch", id, "Replaced dispatch lines for "+id)
	handleListDispatchLines(w, r, id)
}
