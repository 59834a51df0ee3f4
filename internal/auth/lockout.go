package auth

import (
	"database/sql"
	"time"
)

const (
	MaxFailedLoginAttempts = 10
	AccountLockoutDuration = 15 * time.Minute
)

// RecordFailedLogin increments the failed login counter and locks the
// account once the threshold is reached.
func RecordFailedLogin(db *sql.DB, username string) error {
	_, err := db.Exec(`
		UPDATE users
		SET failed_login_attempts = failed_login_attempts + 1,
		    locked_until = CASE
		        WHEN failed_login_attempts + 1 >= ? THEN datetime('now', '+15 minutes')
		        ELSE locked_until
		    END
		WHERE username = ?`, MaxFailedLoginAttempts, username)
	return err
}

// ResetFailedLogins clears the counter after a successful login.
func ResetFailedLogins(db *sql.DB, username string) error {
	_, err := db.Exec(
		"UPDATE users SET failed_login_attempts = 0, locked_until = NULL WHERE username = ?",
		username)
	return err
}

// IsLocked reports whether the account is currently locked out.
func IsLocked(db *sql.DB, username string) (bool, error) {
	var lockedUntil *string
	err := db.QueryRow("SELECT locked_until FROM users WHERE username = ?", username).Scan(&lockedUntil)
	if err != nil {
		return false, err
	}
	if lockedUntil == nil {
		return false, nil
	}

	formats := []string{"2006-01-02 15:04:05", time.RFC3339, time.RFC3339Nano}
	for _, format := range formats {
		if lockTime, parseErr := time.Parse(format, *lockedUntil); parseErr == nil {
			return time.Now().UTC().Before(lockTime), nil
		}
	}
	// Unparsable lock timestamps fail open rather than locking forever.
	return false, nil
}
