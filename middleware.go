package main

import (
	"context"
	"encoding/json"
	"log"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"drp/internal/auth"
)

type contextKey string

const (
	ctxUserID   contextKey = "userID"
	ctxUsername contextKey = "username"
	ctxRole     contextKey = "role"
)

func logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

func authExempt(path string) bool {
	return path == "/" ||
		path == "/auth/login" ||
		path == "/healthz" ||
		strings.HasPrefix(path, "/static/")
}

func writeUnauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(401)
	json.NewEncoder(w).Encode(map[string]string{"error": msg, "detail": msg, "code": "UNAUTHORIZED"})
}

// requireAuth resolves the caller from either a JWT bearer token or the
// session cookie and stores identity in the request context.
func requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if authExempt(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
			token := strings.TrimPrefix(header, "Bearer ")
			claims, err := auth.VerifyToken(tokenSecret, token)
			if err != nil {
				writeUnauthorized(w, "Invalid or expired token")
				return
			}
			var active int
			if err := db.QueryRow("SELECT active FROM users WHERE id = ?", claims.UserID).Scan(&active); err != nil || active == 0 {
				writeUnauthorized(w, "Account deactivated")
				return
			}
			ctx := context.WithValue(r.Context(), ctxUserID, claims.UserID)
			ctx = context.WithValue(ctx, ctxUsername, claims.Subject)
			ctx = context.WithValue(ctx, ctxRole, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		cookie, err := r.Cookie("drp_session")
		if err != nil {
			writeUnauthorized(w, "Unauthorized")
			return
		}

		var userID, active int
		var username, role string
		err = db.QueryRow(`SELECT s.user_id, u.username, u.role, u.active
			FROM sessions s JOIN users u ON s.user_id = u.id
			WHERE s.token = ? AND s.expires_at > CURRENT_TIMESTAMP`, cookie.Value).
			Scan(&userID, &username, &role, &active)
		if err != nil {
			writeUnauthorized(w, "Unauthorized")
			return
		}
		if active == 0 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(403)
			json.NewEncoder(w).Encode(map[string]string{"error": "Account deactivated", "detail": "Account deactivated", "code": "FORBIDDEN"})
			return
		}

		// Sliding window: extend session expiry on each authenticated request
		newExpiry := time.Now().Add(24 * time.Hour)
		db.Exec("UPDATE sessions SET expires_at = ? WHERE token = ?",
			newExpiry.Format("2006-01-02 15:04:05"), cookie.Value)
		http.SetCookie(w, &http.Cookie{
			Name:     "drp_session",
			Value:    cookie.Value,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
			Expires:  newExpiry,
		})

		ctx := context.WithValue(r.Context(), ctxUserID, userID)
		ctx = context.WithValue(ctx, ctxUsername, username)
		ctx = context.WithValue(ctx, ctxRole, role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// moduleRoles maps the first /api/v1/ path segment to the roles allowed to
// mutate it. Reads are open to any authenticated user; admin mutates anything.
var moduleRoles = map[string][]string{
	"papers":        {"production"},
	"materials":     {"purchase", "production"},
	"suppliers":     {"purchase"},
	"categories":    {"purchase"},
	"dispatches":    {"dispatch"},
	"invoices":      {"billing"},
	"users":         {},
	"notifications": {"production", "dispatch", "billing", "purchase"},
}

// requireRBAC enforces role-based write access on /api/v1/ routes.
func requireRBAC(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if !strings.HasPrefix(path, "/api/v1/") || r.Method == "GET" {
			next.ServeHTTP(w, r)
			return
		}

		role, _ := r.Context().Value(ctxRole).(string)
		if role == "admin" {
			next.ServeHTTP(w, r)
			return
		}

		seg := strings.SplitN(strings.TrimPrefix(path, "/api/v1/"), "/", 2)[0]
		allowed, known := moduleRoles[seg]
		if !known {
			next.ServeHTTP(w, r)
			return
		}
		for _, a := range allowed {
			if role == a {
				next.ServeHTTP(w, r)
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(403)
		json.NewEncoder(w).Encode(map[string]string{
			"error":  "Insufficient permissions",
			"detail": "Your role does not permit changes to " + seg,
			"code":   "FORBIDDEN",
		})
	})
}

// Login attempts are rate limited per client IP on top of account lockout.
var (
	loginLimitersMu sync.Mutex
	loginLimiters   = map[string]*rate.Limiter{}
)

func loginLimiter(remoteAddr string) *rate.Limiter {
	ip, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		ip = remoteAddr
	}
	loginLimitersMu.Lock()
	defer loginLimitersMu.Unlock()
	lim, ok := loginLimiters[ip]
	if !ok {
		lim = rate.NewLimiter(rate.Every(2*time.Second), 5)
		loginLimiters[ip] = lim
	}
	return lim
}

func getUserID(r *http.Request) int {
	id, _ := r.Context().Value(ctxUserID).(int)
	return id
}

func getUsername(r *http.Request) string {
	name, _ := r.Context().Value(ctxUsername).(string)
	if name == "" {
		return "system"
	}
	return name
}

func getRole(r *http.Request) string {
	role, _ := r.Context().Value(ctxRole).(string)
	return role
}
