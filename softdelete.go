package main

import (
	"fmt"
	"net/http"
	"strings"
)

// deleteRequest is the optional DELETE body. A missing, empty or
// whitespace-only reason is stored as NULL, never as an empty string.
type deleteRequest struct {
	Reason *string `json:"reason"`
}

// deletedFilter translates the ?deleted=true list variant into a WHERE
// fragment. Default lists exclude soft-deleted rows.
func deletedFilter(r *http.Request) string {
	if r.URL.Query().Get("deleted") == "true" {
		return "deleted_at IS NOT NULL"
	}
	return "deleted_at IS NULL"
}

// softDeleteRecord marks one row deleted with timestamp, actor and optional
// reason. Table and module are handler-supplied constants, never user input.
func softDeleteRecord(w http.ResponseWriter, r *http.Request, table, module, id string) {
	var deletedAt *string
	err := db.QueryRow(fmt.Sprintf("SELECT deleted_at FROM %s WHERE id = ?", table), id).Scan(&deletedAt)
	if err != nil {
		jsonErr(w, "not found", 404)
		return
	}
	if deletedAt != nil {
		jsonErr(w, module+" is already deleted", 409)
		return
	}

	var req deleteRequest
	// The body is optional; decode errors on an empty body are fine.
	decodeBody(r, &req)
	var reason *string
	if req.Reason != nil {
		if trimmed := strings.TrimSpace(*req.Reason); trimmed != "" {
			reason = &trimmed
		}
	}

	username := getUsername(r)
	_, err = db.Exec(
		fmt.Sprintf("UPDATE %s SET deleted_at = CURRENT_TIMESTAMP, deleted_by = ?, delete_reason = ? WHERE id = ?", table),
		username, reason, id)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}

	summary := "Deleted " + module + " " + id
	if reason != nil {
		summary += " (" + *reason + ")"
	}
	logAudit(username, AuditActionDelete, module, id, summary)
	jsonResp(w, map[string]string{"deleted": id})
}

// recoverRecord clears the soft-delete markers on one row.
func recoverRecord(w http.ResponseWriter, r *http.Request, table, module, id string) {
	var deletedAt *string
	err := db.QueryRow(fmt.Sprintf("SELECT deleted_at FROM %s WHERE id = ?", table), id).Scan(&deletedAt)
	if err != nil {
		jsonErr(w, "not found", 404)
		return
	}
	if deletedAt == nil {
		jsonErr(w, module+" is not deleted", 409)
		return
	}

	username := getUsername(r)
	_, err = db.Exec(
		fmt.Sprintf("UPDATE %s SET deleted_at = NULL, deleted_by = '', delete_reason = NULL WHERE id = ?", table),
		id)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}

	logAudit(username, AuditActionRecover, module, id, "Recovered "+module+" "+id)
	jsonResp(w, map[string]string{"recovered": id})
}
