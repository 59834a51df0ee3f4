package main

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// handleExport dumps one entity list to CSV (default) or XLSX via ?format=xlsx.
// Soft-deleted records are excluded.
func handleExport(w http.ResponseWriter, r *http.Request, entity string) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}

	var sheet string
	var headers []string
	var data [][]string
	var err error

	switch entity {
	case "papers":
		sheet = "Papers"
		headers, data, err = exportPapers()
	case "materials":
		sheet = "Materials"
		headers, data, err = exportMaterials()
	case "suppliers":
		sheet = "Suppliers"
		headers, data, err = exportSuppliers()
	case "dispatches":
		sheet = "Dispatches"
		headers, data, err = exportDispatches()
	case "invoices":
		sheet = "Invoices"
		headers, data, err = exportInvoices()
	default:
		jsonErr(w, "unknown export entity", 404)
		return
	}
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}

	logAudit(getUsername(r), AuditActionExport, entity, "", fmt.Sprintf("Exported %d %s rows as %s", len(data), entity, format))

	if format == "xlsx" {
		exportExcel(w, sheet, headers, data)
	} else {
		exportCSV(w, entity+".csv", headers, data)
	}
}

func exportPapers() ([]string, [][]string, error) {
	rows, err := db.Query(`SELECT id, title, party_name, status, quantity, COALESCE(serial_start,0), COALESCE(serial_end,0),
		created_by, created_at FROM production_papers WHERE deleted_at IS NULL ORDER BY created_at DESC`)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	headers := []string{"Paper No", "Title", "Party", "Status", "Quantity", "Serial Start", "Serial End", "Created By", "Created At"}
	var data [][]string
	for rows.Next() {
		var id, title, party, status, createdBy, createdAt string
		var qty, serialStart, serialEnd int
		rows.Scan(&id, &title, &party, &status, &qty, &serialStart, &serialEnd, &createdBy, &createdAt)
		data = append(data, []string{id, title, party, status, strconv.Itoa(qty), strconv.Itoa(serialStart), strconv.Itoa(serialEnd), createdBy, createdAt})
	}
	return headers, data, nil
}

func exportMaterials() ([]string, [][]string, error) {
	rows, err := db.Query(`SELECT m.id, COALESCE(s.name,''), m.status, m.total_weight,
		COALESCE(m.required_by,''), m.created_by, m.created_at
		FROM raw_material_orders m LEFT JOIN suppliers s ON s.id = m.supplier_id
		WHERE m.deleted_at IS NULL ORDER BY m.created_at DESC`)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	headers := []string{"Order No", "Supplier", "Status", "Total Weight (kg)", "Required By", "Created By", "Created At"}
	var data [][]string
	for rows.Next() {
		var id, supplier, status, requiredBy, createdBy, createdAt string
		var weight float64
		rows.Scan(&id, &supplier, &status, &weight, &requiredBy, &createdBy, &createdAt)
		data = append(data, []string{id, supplier, status, fmt.Sprintf("%.2f", weight), requiredBy, createdBy, createdAt})
	}
	return headers, data, nil
}

func exportSuppliers() ([]string, [][]string, error) {
	rows, err := db.Query(`SELECT id, name, COALESCE(contact_name,''), COALESCE(contact_email,''),
		COALESCE(contact_phone,''), COALESCE(gst_number,''), status, created_at
		FROM suppliers WHERE deleted_at IS NULL ORDER BY name`)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	headers := []string{"ID", "Name", "Contact", "Email", "Phone", "GST No", "Status", "Created At"}
	var data [][]string
	for rows.Next() {
		var id, name, contact, email, phone, gst, status, createdAt string
		rows.Scan(&id, &name, &contact, &email, &phone, &gst, &status, &createdAt)
		data = append(data, []string{id, name, contact, email, phone, gst, status, createdAt})
	}
	return headers, data, nil
}

func exportDispatches() ([]string, [][]string, error) {
	rows, err := db.Query(`SELECT d.id, COALESCE(p.paper_number,''), d.vehicle, d.driver, d.destination,
		d.status, COALESCE(d.dispatch_date,''), d.created_at
		FROM dispatches d LEFT JOIN production_papers p ON p.id = d.paper_id
		WHERE d.deleted_at IS NULL ORDER BY d.created_at DESC`)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	headers := []string{"Dispatch No", "Paper No", "Vehicle", "Driver", "Destination", "Status", "Dispatch Date", "Created At"}
	var data [][]string
	for rows.Next() {
		var id, paper, vehicle, driver, destination, status, date, createdAt string
		rows.Scan(&id, &paper, &vehicle, &driver, &destination, &status, &date, &createdAt)
		data = append(data, []string{id, paper, vehicle, driver, destination, status, date, createdAt})
	}
	return headers, data, nil
}

func exportInvoices() ([]string, [][]string, error) {
	rows, err := db.Query(`SELECT id, party_name, amount, tax_percent, tax_amount, total, status,
		COALESCE(issue_date,''), created_at FROM invoices WHERE deleted_at IS NULL ORDER BY created_at DESC`)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	headers := []string{"Invoice No", "Party", "Amount", "Tax %", "Tax Amount", "Total", "Status", "Issue Date", "Created At"}
	var data [][]string
	for rows.Next() {
		var id, party, status, issueDate, createdAt string
		var amount, taxPercent, taxAmount, total float64
		rows.Scan(&id, &party, &amount, &taxPercent, &taxAmount, &total, &status, &issueDate, &createdAt)
		data = append(data, []string{
			id, party, fmt.Sprintf("%.2f", amount), fmt.Sprintf("%.2f", taxPercent),
			fmt.Sprintf("%.2f", taxAmount), fmt.Sprintf("%.2f", total), status, issueDate, createdAt,
		})
	}
	return headers, data, nil
}

func exportCSV(w http.ResponseWriter, filename string, headers []string, data [][]string) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))

	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write(headers); err != nil {
		return
	}
	for _, row := range data {
		if err := writer.Write(row); err != nil {
			return
		}
	}
}

func exportExcel(w http.ResponseWriter, sheetName string, headers []string, data [][]string) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		jsonErr(w, "failed to create sheet", 500)
		return
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D3D3D3"}, Pattern: 1},
	})
	if err != nil {
		jsonErr(w, "failed to create style", 500)
		return
	}

	for i, header := range headers {
		cell := fmt.Sprintf("%s1", string(rune('A'+i)))
		f.SetCellValue(sheetName, cell, header)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}
	for rowIdx, row := range data {
		for colIdx, value := range row {
			cell := fmt.Sprintf("%s%d", string(rune('A'+colIdx)), rowIdx+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}
	for i := range headers {
		col := string(rune('A' + i))
		f.SetColWidth(sheetName, col, col, 15)
	}
	if sheetName != "Sheet1" {
		f.DeleteSheet("Sheet1")
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.xlsx", strings.ToLower(sheetName)))

	if err := f.Write(w); err != nil {
		return
	}
}
