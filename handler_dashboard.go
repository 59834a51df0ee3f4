package main

import "net/http"

func handleDashboard(w http.ResponseWriter, r *http.Request) {
	var d DashboardData
	db.QueryRow(`SELECT COUNT(*) FROM production_papers WHERE deleted_at IS NULL AND status IN ('draft','approved')`).Scan(&d.OpenPapers)
	db.QueryRow(`SELECT COUNT(*) FROM production_papers WHERE deleted_at IS NULL AND status = 'in_production'`).Scan(&d.PapersInProd)
	db.QueryRow(`SELECT COUNT(*) FROM raw_material_orders WHERE deleted_at IS NULL AND status IN ('pending','ordered')`).Scan(&d.PendingMaterials)
	db.QueryRow(`SELECT COUNT(*) FROM dispatches WHERE deleted_at IS NULL AND status IN ('pending','loaded')`).Scan(&d.PendingDispatch)
	db.QueryRow(`SELECT COUNT(*) FROM invoices WHERE deleted_at IS NULL AND status = 'issued'`).Scan(&d.UnpaidInvoices)
	db.QueryRow(`SELECT COUNT(*) FROM suppliers WHERE deleted_at IS NULL AND status = 'active'`).Scan(&d.ActiveSuppliers)
	jsonResp(w, d)
}
