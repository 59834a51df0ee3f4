// Package audit records who changed what. Every mutating handler logs here,
// and each entry fans out over the websocket hub so open clients refresh.
package audit

import (
	"database/sql"
	"log"

	"drp/internal/websocket"
)

// Action constants.
const (
	ActionCreate  = "created"
	ActionUpdate  = "updated"
	ActionDelete  = "deleted"
	ActionRecover = "recovered"
	ActionApprove = "approved"
	ActionExport  = "exported"
	ActionLogin   = "login"
	ActionLogout  = "logout"
)

// Log writes one audit entry and broadcasts the change.
func Log(db *sql.DB, hub *websocket.Hub, username, action, module, recordID, summary string) {
	_, err := db.Exec(
		"INSERT INTO audit_log (username, action, module, record_id, summary) VALUES (?, ?, ?, ?, ?)",
		username, action, module, recordID, summary)
	if err != nil {
		log.Printf("audit: %v", err)
	}
	if hub != nil {
		hub.BroadcastChange(module, action, recordID)
	}
}
