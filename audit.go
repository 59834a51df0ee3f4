package main

import (
	"net/http"
	"strconv"

	"drp/internal/audit"
)

// Audit action aliases so handlers don't import the package just for a name.
const (
	AuditActionCreate  = audit.ActionCreate
	AuditActionUpdate  = audit.ActionUpdate
	AuditActionDelete  = audit.ActionDelete
	AuditActionRecover = audit.ActionRecover
	AuditActionApprove = audit.ActionApprove
	AuditActionExport  = audit.ActionExport
	AuditActionLogin   = audit.ActionLogin
	AuditActionLogout  = audit.ActionLogout
)

func logAudit(username, action, module, recordID, summary string) {
	audit.Log(db, wsHub, username, action, module, recordID, summary)
}

// handleListAudit returns the most recent audit entries, admin only.
func handleListAudit(w http.ResponseWriter, r *http.Request) {
	if getRole(r) != "admin" {
		jsonErr(w, "admin access required", 403)
		return
	}

	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
			limit = n
		}
	}

	query := "SELECT id,timestamp,COALESCE(username,''),COALESCE(action,''),COALESCE(module,''),COALESCE(record_id,''),COALESCE(summary,'') FROM audit_log"
	var args []interface{}
	if module := r.URL.Query().Get("module"); module != "" {
		query += " WHERE module = ?"
		args = append(args, module)
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := db.Query(query, args...)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	defer rows.Close()
	var items []AuditEntry
	for rows.Next() {
		var e AuditEntry
		rows.Scan(&e.ID, &e.Timestamp, &e.Username, &e.Action, &e.Module, &e.RecordID, &e.Summary)
		items = append(items, e)
	}
	if items == nil {
		items = []AuditEntry{}
	}
	jsonResp(w, items)
}
