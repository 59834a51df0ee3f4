package main

import (
	"database/sql"
	"math"
	"net/http"
)

var invoiceStatuses = []string{"draft", "issued", "paid", "void"}

// Draft invoices can be issued or voided, issued ones paid or voided.
// Paid and void are terminal.
var invoiceTransitions = map[string][]string{
	"draft":  {"issued", "void"},
	"issued": {"paid", "void"},
}

const invoiceCols = `id, invoice_number, party_name, paper_id, amount, tax_percent,
	tax_amount, total, status, issue_date, notes, created_by, created_at, updated_at,
	deleted_at, COALESCE(deleted_by,''), delete_reason`

func scanInvoice(scan func(dest ...interface{}) error) (Invoice, error) {
	var inv Invoice
	err := scan(&inv.ID, &inv.InvoiceNumber, &inv.PartyName, &inv.PaperID, &inv.Amount,
		&inv.TaxPercent, &inv.TaxAmount, &inv.Total, &inv.Status, &inv.IssueDate,
		&inv.Notes, &inv.CreatedBy, &inv.CreatedAt, &inv.UpdatedAt,
		&inv.DeletedAt, &inv.DeletedBy, &inv.DeleteReason)
	return inv, err
}

func loadInvoiceLines(id string) []InvoiceLine {
	rows, err := db.Query(`SELECT id, invoice_id, description, qty, unit_price, line_total
		FROM invoice_lines WHERE invoice_id = ? ORDER BY id`, id)
	if err != nil {
		return nil
	}
	defer rows.Close()
	var lines []InvoiceLine
	for rows.Next() {
		var l InvoiceLine
		rows.Scan(&l.ID, &l.InvoiceID, &l.Description, &l.Qty, &l.UnitPrice, &l.LineTotal)
		lines = append(lines, l)
	}
	return lines
}

func handleListInvoices(w http.ResponseWriter, r *http.Request) {
	rows, err := db.Query("SELECT " + invoiceCols + " FROM invoices WHERE " + deletedFilter(r) + " ORDER BY created_at DESC")
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	defer rows.Close()
	var items []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows.Scan)
		if err != nil {
			continue
		}
		items = append(items, inv)
	}
	if items == nil {
		items = []Invoice{}
	}
	jsonResp(w, items)
}

func handleGetInvoice(w http.ResponseWriter, r *http.Request, id string) {
	row := db.QueryRow("SELECT "+invoiceCols+" FROM invoices WHERE id = ?", id)
	inv, err := scanInvoice(row.Scan)
	if err != nil {
		jsonErr(w, "not found", 404)
		return
	}
	inv.Lines = loadInvoiceLines(id)
	jsonResp(w, inv)
}

type invoiceRequest struct {
	PartyName  string        `json:"party_name"`
	PaperID    string        `json:"paper_id"`
	TaxPercent float64       `json:"tax_percent"`
	IssueDate  *string       `json:"issue_date"`
	Notes      string        `json:"notes"`
	Lines      []InvoiceLine `json:"lines"`
}

func validateInvoiceRequest(req *invoiceRequest) *ValidationErrors {
	ve := &ValidationErrors{}
	requireField(ve, "party_name", req.PartyName)
	if req.TaxPercent < 0 || req.TaxPercent > 100 {
		ve.Add("tax_percent", "must be between 0 and 100")
	}
	if req.IssueDate != nil {
		validateDate(ve, "issue_date", *req.IssueDate)
	}
	if len(req.Lines) == 0 {
		ve.Add("lines", "at least one line is required")
	}
	for _, l := range req.Lines {
		if l.Description == "" {
			ve.Add("lines", "line description is required")
		}
		if l.Qty <= 0 {
			ve.Add("lines", "line qty must be positive")
		}
		if l.UnitPrice < 0 {
			ve.Add("lines", "line unit price cannot be negative")
		}
	}
	return ve
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// invoiceTotals recomputes line totals and the tax breakup from scratch.
// Client-supplied totals are ignored.
func invoiceTotals(req *invoiceRequest) (amount, tax, total float64) {
	for i := range req.Lines {
		req.Lines[i].LineTotal = round2(req.Lines[i].Qty * req.Lines[i].UnitPrice)
		amount += req.Lines[i].LineTotal
	}
	amount = round2(amount)
	tax = round2(amount * req.TaxPercent / 100)
	total = round2(amount + tax)
	return amount, tax, total
}

func writeInvoiceLines(tx *sql.Tx, id string, lines []InvoiceLine) error {
	if _, err := tx.Exec("DELETE FROM invoice_lines WHERE invoice_id = ?", id); err != nil {
		return err
	}
	for _, l := range lines {
		if _, err := tx.Exec(`INSERT INTO invoice_lines (invoice_id, description, qty, unit_price, line_total)
			VALUES (?,?,?,?,?)`, id, l.Description, l.Qty, l.UnitPrice, l.LineTotal); err != nil {
			return err
		}
	}
	return nil
}

func handleCreateInvoice(w http.ResponseWriter, r *http.Request) {
	var req invoiceRequest
	if err := decodeBody(r, &req); err != nil {
		jsonErr(w, "invalid body", 400)
		return
	}
	if ve := validateInvoiceRequest(&req); ve.HasErrors() {
		jsonErr(w, ve.Error(), 400)
		return
	}
	amount, tax, total := invoiceTotals(&req)

	id := nextID("invoices", "INV", 4)
	tx, err := db.Begin()
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	defer tx.Rollback()
	_, err = tx.Exec(`INSERT INTO invoices (id, invoice_number, party_name, paper_id, amount, tax_percent, tax_amount, total, issue_date, notes, created_by)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		id, id, req.PartyName, req.PaperID, amount, req.TaxPercent, tax, total, req.IssueDate, req.Notes, getUsername(r))
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	if err := writeInvoiceLines(tx, id, req.Lines); err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	if err := tx.Commit(); err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}

	logAudit(getUsername(r), AuditActionCreate, "invoice", id, "Created invoice for "+req.PartyName)
	handleGetInvoice(w, r, id)
}

func handleUpdateInvoice(w http.ResponseWriter, r *http.Request, id string) {
	var status string
	if err := db.QueryRow("SELECT status FROM invoices WHERE id = ? AND deleted_at IS NULL", id).Scan(&status); err != nil {
		jsonErr(w, "not found", 404)
		return
	}
	if status != "draft" {
		jsonErr(w, "only draft invoices can be edited", 409)
		return
	}

	var req invoiceRequest
	if err := decodeBody(r, &req); err != nil {
		jsonErr(w, "invalid body", 400)
		return
	}
	if ve := validateInvoiceRequest(&req); ve.HasErrors() {
		jsonErr(w, ve.Error(), 400)
		return
	}
	amount, tax, total := invoiceTotals(&req)

	tx, err := db.Begin()
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	defer tx.Rollback()
	_, err = tx.Exec(`UPDATE invoices SET party_name=?, paper_id=?, amount=?, tax_percent=?, tax_amount=?, total=?,
		issue_date=?, notes=?, updated_at=CURRENT_TIMESTAMP WHERE id=?`,
		req.PartyName, req.PaperID, amount, req.TaxPercent, tax, total, req.IssueDate, req.Notes, id)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	if err := writeInvoiceLines(tx, id, req.Lines); err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	if err := tx.Commit(); err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}

	logAudit(getUsername(r), AuditActionUpdate, "invoice", id, "Updated invoice "+id)
	handleGetInvoice(w, r, id)
}

func handleDeleteInvoice(w http.ResponseWriter, r *http.Request, id string) {
	var status string
	if err := db.QueryRow("SELECT status FROM invoices WHERE id = ? AND deleted_at IS NULL", id).Scan(&status); err == nil && status == "paid" {
		jsonErr(w, "paid invoices cannot be deleted", 409)
		return
	}
	softDeleteRecord(w, r, "invoices", "invoice", id)
}

func handleRecoverInvoice(w http.ResponseWriter, r *http.Request, id string) {
	recoverRecord(w, r, "invoices", "invoice", id)
}

func handleInvoiceStatus(w http.ResponseWriter, r *http.Request, id string) {
	var req struct {
		Status string `json:"status"`
	}
	if err := decodeBody(r, &req); err != nil {
		jsonErr(w, "invalid body", 400)
		return
	}
	ve := &ValidationErrors{}
	validateEnum(ve, "status", req.Status, invoiceStatuses)
	if ve.HasErrors() {
		jsonErr(w, ve.Error(), 400)
		return
	}

	var current string
	if err := db.QueryRow("SELECT status FROM invoices WHERE id = ? AND deleted_at IS NULL", id).Scan(&current); err != nil {
		jsonErr(w, "not found", 404)
		return
	}
	allowed := false
	for _, next := range invoiceTransitions[current] {
		if next == req.Status {
			allowed = true
			break
		}
	}
	if !allowed {
		jsonErr(w, "cannot move invoice from "+current+" to "+req.Status, 409)
		return
	}

	if req.Status == "issued" {
		db.Exec(`UPDATE invoices SET status=?, issue_date=COALESCE(issue_date, CURRENT_TIMESTAMP),
			updated_at=CURRENT_TIMESTAMP WHERE id=?`, req.Status, id)
	} else {
		db.Exec("UPDATE invoices SET status=?, updated_at=CURRENT_TIMESTAMP WHERE id=?", req.Status, id)
	}

	logAudit(getUsername(r), AuditActionUpdate, "invoice", id, "Invoice "+id+" marked "+req.Status)
	broadcast("invoice", "status", id)
	handleGetInvoice(w, r, id)
}
