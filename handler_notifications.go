package main

import (
	"log"
	"net/http"
	"strconv"
)

func handleListNotifications(w http.ResponseWriter, r *http.Request) {
	q := `SELECT id, type, title, message, ref_id, read, created_at FROM notifications`
	countQ := `SELECT COUNT(*) FROM notifications`
	if r.URL.Query().Get("unread") == "true" {
		q += ` WHERE read = 0`
		countQ += ` WHERE read = 0`
	}
	q += ` ORDER BY created_at DESC LIMIT 100`

	rows, err := db.Query(q)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	defer rows.Close()
	var items []Notification
	for rows.Next() {
		var n Notification
		rows.Scan(&n.ID, &n.Type, &n.Title, &n.Message, &n.RefID, &n.Read, &n.CreatedAt)
		items = append(items, n)
	}
	if items == nil {
		items = []Notification{}
	}

	// The list is capped, so report the real total in the meta block.
	var total int
	db.QueryRow(countQ).Scan(&total)
	jsonRespMeta(w, items, total, 1, 100)
}

func handleMarkNotificationRead(w http.ResponseWriter, r *http.Request, id string) {
	nid, err := strconv.Atoi(id)
	if err != nil {
		jsonErr(w, "invalid notification id", 400)
		return
	}
	res, err := db.Exec("UPDATE notifications SET read = 1 WHERE id = ?", nid)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		jsonErr(w, "not found", 404)
		return
	}
	jsonResp(w, map[string]bool{"read": true})
}

type pendingNotif struct {
	ntype   string
	title   string
	message string
	refID   string
}

// generateNotifications scans for conditions worth flagging and inserts one
// notification per condition and record, skipping anything already raised.
func generateNotifications() {
	log.Println("Generating notifications...")
	var pending []pendingNotif

	// Material orders past their required-by date and still not received.
	func() {
		rows, err := db.Query(`SELECT id, required_by FROM raw_material_orders
			WHERE deleted_at IS NULL AND status IN ('pending','ordered')
			AND required_by != '' AND required_by < date('now')`)
		if err != nil {
			return
		}
		defer rows.Close()
		for rows.Next() {
			var id, requiredBy string
			rows.Scan(&id, &requiredBy)
			pending = append(pending, pendingNotif{
				ntype: "overdue_material", title: "Overdue material order " + id,
				message: "Required by " + requiredBy + " and still not received", refID: id,
			})
		}
	}()

	// Papers sitting in draft for over a week.
	func() {
		rows, err := db.Query(`SELECT id, title FROM production_papers
			WHERE deleted_at IS NULL AND status = 'draft' AND created_at < datetime('now', '-7 days')`)
		if err != nil {
			return
		}
		defer rows.Close()
		for rows.Next() {
			var id, title string
			rows.Scan(&id, &title)
			pending = append(pending, pendingNotif{
				ntype: "stale_draft", title: "Draft paper " + id + " unapproved for 7 days",
				message: title, refID: id,
			})
		}
	}()

	// Invoices issued over 30 days ago and still unpaid.
	func() {
		rows, err := db.Query(`SELECT id, party_name FROM invoices
			WHERE deleted_at IS NULL AND status = 'issued' AND issue_date < datetime('now', '-30 days')`)
		if err != nil {
			return
		}
		defer rows.Close()
		for rows.Next() {
			var id, party string
			rows.Scan(&id, &party)
			pending = append(pending, pendingNotif{
				ntype: "unpaid_invoice", title: "Invoice " + id + " unpaid for 30 days",
				message: "Party: " + party, refID: id,
			})
		}
	}()

	inserted := 0
	for _, p := range pending {
		var exists int
		db.QueryRow("SELECT COUNT(*) FROM notifications WHERE type = ? AND ref_id = ?", p.ntype, p.refID).Scan(&exists)
		if exists > 0 {
			continue
		}
		if _, err := db.Exec("INSERT INTO notifications (type, title, message, ref_id) VALUES (?,?,?,?)",
			p.ntype, p.title, p.message, p.refID); err == nil {
			inserted++
		}
	}
	if inserted > 0 {
		log.Printf("Created %d notifications", inserted)
		broadcast("notification", "created", "")
	}
}
