package main

import (
	"net/http"
	"strconv"

	"drp/internal/auth"
)

type UserFull struct {
	ID          int     `json:"id"`
	Username    string  `json:"username"`
	DisplayName string  `json:"display_name"`
	Role        string  `json:"role"`
	Active      bool    `json:"active"`
	LastLogin   *string `json:"last_login"`
	CreatedAt   string  `json:"created_at"`
}

type CreateUserRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

type UpdateUserRequest struct {
	DisplayName *string `json:"display_name"`
	Role        *string `json:"role"`
	Active      *bool   `json:"active"`
}

var userRoles = []string{"admin", "production", "dispatch", "billing", "purchase"}

func requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	if getRole(r) != "admin" {
		jsonErr(w, "admin access required", 403)
		return false
	}
	return true
}

func handleListUsers(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}
	rows, err := db.Query(`SELECT id, username, COALESCE(display_name,''), role, active, last_login, created_at
		FROM users ORDER BY username`)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	defer rows.Close()
	var items []UserFull
	for rows.Next() {
		var u UserFull
		var active int
		rows.Scan(&u.ID, &u.Username, &u.DisplayName, &u.Role, &active, &u.LastLogin, &u.CreatedAt)
		u.Active = active == 1
		items = append(items, u)
	}
	if items == nil {
		items = []UserFull{}
	}
	jsonResp(w, items)
}

func handleCreateUser(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}
	var req CreateUserRequest
	if err := decodeBody(r, &req); err != nil {
		jsonErr(w, "invalid body", 400)
		return
	}

	ve := &ValidationErrors{}
	requireField(ve, "username", req.Username)
	validateEnum(ve, "role", req.Role, userRoles)
	if ve.HasErrors() {
		jsonErr(w, ve.Error(), 400)
		return
	}
	if err := auth.ValidatePasswordStrength(req.Password); err != nil {
		jsonErr(w, err.Error(), 400)
		return
	}
	if req.Role == "" {
		req.Role = "production"
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		jsonErr(w, "failed to hash password", 500)
		return
	}
	res, err := db.Exec("INSERT INTO users (username, password_hash, display_name, role) VALUES (?, ?, ?, ?)",
		req.Username, hash, req.DisplayName, req.Role)
	if err != nil {
		jsonErr(w, "username already exists", 409)
		return
	}
	id, _ := res.LastInsertId()

	logAudit(getUsername(r), AuditActionCreate, "user", strconv.FormatInt(id, 10), "Created user "+req.Username)
	jsonResp(w, map[string]interface{}{"id": id, "username": req.Username, "role": req.Role})
}

func handleUpdateUser(w http.ResponseWriter, r *http.Request, idStr string) {
	if !requireAdmin(w, r) {
		return
	}
	id, err := strconv.Atoi(idStr)
	if err != nil {
		jsonErr(w, "invalid user id", 400)
		return
	}
	var req UpdateUserRequest
	if err := decodeBody(r, &req); err != nil {
		jsonErr(w, "invalid body", 400)
		return
	}
	if req.Role != nil {
		ve := &ValidationErrors{}
		validateEnum(ve, "role", *req.Role, userRoles)
		if ve.HasErrors() {
			jsonErr(w, ve.Error(), 400)
			return
		}
	}
	// An admin deactivating or demoting themselves is almost always a mistake.
	if id == getUserID(r) {
		if (req.Active != nil && !*req.Active) || (req.Role != nil && *req.Role != "admin") {
			jsonErr(w, "cannot deactivate or demote your own account", 400)
			return
		}
	}

	if req.DisplayName != nil {
		db.Exec("UPDATE users SET display_name = ? WHERE id = ?", *req.DisplayName, id)
	}
	if req.Role != nil {
		db.Exec("UPDATE users SET role = ? WHERE id = ?", *req.Role, id)
	}
	if req.Active != nil {
		active := 0
		if *req.Active {
			active = 1
		}
		db.Exec("UPDATE users SET active = ? WHERE id = ?", active, id)
		if active == 0 {
			// Deactivation kills any live sessions.
			db.Exec("DELETE FROM sessions WHERE user_id = ?", id)
		}
	}

	logAudit(getUsername(r), AuditActionUpdate, "user", idStr, "Updated user "+idStr)

	var u UserFull
	var active int
	err = db.QueryRow(`SELECT id, username, COALESCE(display_name,''), role, active, last_login, created_at
		FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Username, &u.DisplayName, &u.Role, &active, &u.LastLogin, &u.CreatedAt)
	if err != nil {
		jsonErr(w, "not found", 404)
		return
	}
	u.Active = active == 1
	jsonResp(w, u)
}

// handleDeleteUser deactivates rather than removes, so the audit trail keeps
// a valid actor for every historical entry.
func handleDeleteUser(w http.ResponseWriter, r *http.Request, idStr string) {
	if !requireAdmin(w, r) {
		return
	}
	id, err := strconv.Atoi(idStr)
	if err != nil {
		jsonErr(w, "invalid user id", 400)
		return
	}
	if id == getUserID(r) {
		jsonErr(w, "cannot deactivate your own account", 400)
		return
	}
	res, err := db.Exec("UPDATE users SET active = 0 WHERE id = ?", id)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		jsonErr(w, "not found", 404)
		return
	}
	db.Exec("DELETE FROM sessions WHERE user_id = ?", id)

	logAudit(getUsername(r), AuditActionDelete, "user", idStr, "Deactivated user "+idStr)
	jsonResp(w, map[string]string{"deactivated": idStr})
}

func handleResetPassword(w http.ResponseWriter, r *http.Request, idStr string) {
	if !requireAdmin(w, r) {
		return
	}
	id, err := strconv.Atoi(idStr)
	if err != nil {
		jsonErr(w, "invalid user id", 400)
		return
	}
	var req struct {
		Password string `json:"password"`
	}
	if err := decodeBody(r, &req); err != nil {
		jsonErr(w, "invalid body", 400)
		return
	}
	if err := auth.ValidatePasswordStrength(req.Password); err != nil {
		jsonErr(w, err.Error(), 400)
		return
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		jsonErr(w, "failed to hash password", 500)
		return
	}
	res, err := db.Exec("UPDATE users SET password_hash = ?, failed_login_attempts = 0, locked_until = NULL WHERE id = ?", hash, id)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		jsonErr(w, "not found", 404)
		return
	}
	db.Exec("DELETE FROM sessions WHERE user_id = ?", id)

	logAudit(getUsername(r), AuditActionUpdate, "user", idStr, "Reset password for user "+idStr)
	jsonResp(w, map[string]string{"reset": idStr})
}
