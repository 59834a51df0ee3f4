package main

import (
	"net/http"
)

const supplierCols = `id, name, COALESCE(contact_name,''), COALESCE(contact_email,''),
	COALESCE(contact_phone,''), COALESCE(address,''), COALESCE(gst_number,''),
	COALESCE(notes,''), status, created_at, deleted_at, COALESCE(deleted_by,''), delete_reason`

func scanSupplier(scan func(dest ...interface{}) error) (Supplier, error) {
	var s Supplier
	err := scan(&s.ID, &s.Name, &s.ContactName, &s.ContactEmail, &s.ContactPhone,
		&s.Address, &s.GSTNumber, &s.Notes, &s.Status, &s.CreatedAt,
		&s.DeletedAt, &s.DeletedBy, &s.DeleteReason)
	return s, err
}

func handleListSuppliers(w http.ResponseWriter, r *http.Request) {
	rows, err := db.Query("SELECT " + supplierCols + " FROM suppliers WHERE " + deletedFilter(r) + " ORDER BY name")
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	defer rows.Close()
	var items []Supplier
	for rows.Next() {
		s, err := scanSupplier(rows.Scan)
		if err != nil {
			continue
		}
		items = append(items, s)
	}
	if items == nil {
		items = []Supplier{}
	}
	jsonResp(w, items)
}

func handleGetSupplier(w http.ResponseWriter, r *http.Request, id string) {
	row := db.QueryRow("SELECT "+supplierCols+" FROM suppliers WHERE id = ?", id)
	s, err := scanSupplier(row.Scan)
	if err != nil {
		jsonErr(w, "not found", 404)
		return
	}
	jsonResp(w, s)
}

func validateSupplier(s *Supplier) *ValidationErrors {
	ve := &ValidationErrors{}
	requireField(ve, "name", s.Name)
	validateEmail(ve, "contact_email", s.ContactEmail)
	validateEnum(ve, "status", s.Status, []string{"active", "inactive"})
	return ve
}

func handleCreateSupplier(w http.ResponseWriter, r *http.Request) {
	var s Supplier
	if err := decodeBody(r, &s); err != nil {
		jsonErr(w, "invalid body", 400)
		return
	}
	if ve := validateSupplier(&s); ve.HasErrors() {
		jsonErr(w, ve.Error(), 400)
		return
	}

	s.ID = nextID("suppliers", "SUP", 3)
	if s.Status == "" {
		s.Status = "active"
	}
	_, err := db.Exec(`INSERT INTO suppliers (id, name, contact_name, contact_email, contact_phone, address, gst_number, notes, status)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		s.ID, s.Name, s.ContactName, s.ContactEmail, s.ContactPhone, s.Address, s.GSTNumber, s.Notes, s.Status)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}

	logAudit(getUsername(r), AuditActionCreate, "supplier", s.ID, "Created supplier "+s.Name)
	handleGetSupplier(w, r, s.ID)
}

func handleUpdateSupplier(w http.ResponseWriter, r *http.Request, id string) {
	var s Supplier
	if err := decodeBody(r, &s); err != nil {
		jsonErr(w, "invalid body", 400)
		return
	}
	if ve := validateSupplier(&s); ve.HasErrors() {
		jsonErr(w, ve.Error(), 400)
		return
	}

	res, err := db.Exec(`UPDATE suppliers SET name=?, contact_name=?, contact_email=?, contact_phone=?,
		address=?, gst_number=?, notes=?, status=? WHERE id=? AND deleted_at IS NULL`,
		s.Name, s.ContactName, s.ContactEmail, s.ContactPhone, s.Address, s.GSTNumber, s.Notes, s.Status, id)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		jsonErr(w, "not found", 404)
		return
	}

	logAudit(getUsername(r), AuditActionUpdate, "supplier", id, "Updated supplier "+s.Name)
	handleGetSupplier(w, r, id)
}

func handleDeleteSupplier(w http.ResponseWriter, r *http.Request, id string) {
	// A supplier with open material orders cannot be removed.
	var open int
	db.QueryRow(`SELECT COUNT(*) FROM raw_material_orders
		WHERE supplier_id = ? AND deleted_at IS NULL AND status IN ('pending','ordered')`, id).Scan(&open)
	if open > 0 {
		jsonErr(w, "supplier has open material orders", 409)
		return
	}
	softDeleteRecord(w, r, "suppliers", "supplier", id)
}

func handleRecoverSupplier(w http.ResponseWriter, r *http.Request, id string) {
	recoverRecord(w, r, "suppliers", "supplier", id)
}

func handleListCategories(w http.ResponseWriter, r *http.Request) {
	rows, err := db.Query("SELECT id, name, COALESCE(description,''), created_at FROM categories ORDER BY name")
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	defer rows.Close()
	var items []Category
	for rows.Next() {
		var c Category
		rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt)
		items = append(items, c)
	}
	if items == nil {
		items = []Category{}
	}
	jsonResp(w, items)
}

func handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var c Category
	if err := decodeBody(r, &c); err != nil {
		jsonErr(w, "invalid body", 400)
		return
	}
	ve := &ValidationErrors{}
	requireField(ve, "name", c.Name)
	if ve.HasErrors() {
		jsonErr(w, ve.Error(), 400)
		return
	}

	c.ID = nextID("categories", "CAT", 3)
	if _, err := db.Exec("INSERT INTO categories (id, name, description) VALUES (?,?,?)", c.ID, c.Name, c.Description); err != nil {
		jsonErr(w, "category name already exists", 409)
		return
	}

	logAudit(getUsername(r), AuditActionCreate, "category", c.ID, "Created category "+c.Name)
	jsonResp(w, c)
}

func handleUpdateCategory(w http.ResponseWriter, r *http.Request, id string) {
	var c Category
	if err := decodeBody(r, &c); err != nil {
		jsonErr(w, "invalid body", 400)
		return
	}
	res, err := db.Exec("UPDATE categories SET name=?, description=? WHERE id=?", c.Name, c.Description, id)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		jsonErr(w, "not found", 404)
		return
	}
	logAudit(getUsername(r), AuditActionUpdate, "category", id, "Updated category "+id)
	c.ID = id
	jsonResp(w, c)
}

func handleDeleteCategory(w http.ResponseWriter, r *http.Request, id string) {
	res, err := db.Exec("DELETE FROM categories WHERE id=?", id)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		jsonErr(w, "not found", 404)
		return
	}
	logAudit(getUsername(r), AuditActionDelete, "category", id, "Deleted category "+id)
	jsonResp(w, map[string]string{"deleted": id})
}
