package main

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"drp/internal/auth"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type UserResponse struct {
	ID          int    `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

func handleLogin(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if !loginLimiter(r.RemoteAddr).Allow() {
		jsonErr(w, "Too many login attempts, slow down", 429)
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonErr(w, "Invalid request body", 400)
		return
	}

	if locked, err := auth.IsLocked(db, req.Username); err == nil && locked {
		jsonErr(w, "Account temporarily locked after repeated failures", 403)
		return
	}

	var id int
	var passwordHash, displayName, role string
	var active int
	err := db.QueryRow("SELECT id, password_hash, display_name, role, active FROM users WHERE username = ?", req.Username).
		Scan(&id, &passwordHash, &displayName, &role, &active)
	if err != nil {
		jsonErr(w, "Invalid username or password", 401)
		return
	}

	if !auth.CheckPassword(passwordHash, req.Password) {
		auth.RecordFailedLogin(db, req.Username)
		jsonErr(w, "Invalid username or password", 401)
		return
	}

	if active == 0 {
		jsonErr(w, "Account deactivated", 403)
		return
	}

	auth.ResetFailedLogins(db, req.Username)

	// Clean expired sessions
	db.Exec("DELETE FROM sessions WHERE expires_at < CURRENT_TIMESTAMP")

	// Create session with retry
	var token string
	expires := time.Now().Add(24 * time.Hour)
	for i := 0; i < 3; i++ {
		token = uuid.NewString()
		_, err = db.Exec("INSERT INTO sessions (token, user_id, expires_at) VALUES (?, ?, ?)",
			token, id, expires.Format("2006-01-02 15:04:05"))
		if err == nil {
			break
		}
		time.Sleep(100 * time.Millisecond)
	}
	if err != nil {
		jsonErr(w, "Failed to create session", 500)
		return
	}

	db.Exec("UPDATE users SET last_login = CURRENT_TIMESTAMP WHERE id = ?", id)

	http.SetCookie(w, &http.Cookie{
		Name:     "drp_session",
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  expires,
	})

	// API clients (the CLI) persist the bearer token instead of the cookie.
	bearer, err := auth.IssueToken(tokenSecret, id, req.Username, role, tokenTTL)
	if err != nil {
		jsonErr(w, "Failed to issue token", 500)
		return
	}

	logAudit(req.Username, AuditActionLogin, "auth", req.Username, "Logged in")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"user":  UserResponse{ID: id, Username: req.Username, DisplayName: displayName, Role: role},
		"token": bearer,
	})
}

func handleLogout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie("drp_session")
	if err == nil {
		var username string
		db.QueryRow("SELECT u.username FROM sessions s JOIN users u ON u.id = s.user_id WHERE s.token = ?", cookie.Value).Scan(&username)
		db.Exec("DELETE FROM sessions WHERE token = ?", cookie.Value)
		if username != "" {
			logAudit(username, AuditActionLogout, "auth", username, "Logged out")
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "drp_session",
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func handleMe(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	id := getUserID(r)
	if id == 0 {
		jsonErr(w, "Unauthorized", 401)
		return
	}

	var u UserResponse
	err := db.QueryRow("SELECT id, username, COALESCE(display_name,''), role FROM users WHERE id = ?", id).
		Scan(&u.ID, &u.Username, &u.DisplayName, &u.Role)
	if err != nil {
		jsonErr(w, "Unauthorized", 401)
		return
	}
	json.NewEncoder(w).Encode(map[string]interface{}{"user": u})
}
