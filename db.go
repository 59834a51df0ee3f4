package main

import (
	"database/sql"
	"fmt"
	"log"
	"strings"

	_ "modernc.org/sqlite"

	"drp/internal/auth"
)

var db *sql.DB

func initDB(path string) error {
	// Close previous connection if any (prevents goroutine leaks in tests)
	if db != nil {
		db.Close()
	}
	var err error
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	db, err = sql.Open("sqlite", path+sep+"_journal_mode=WAL&_busy_timeout=10000&_foreign_keys=1")
	if err != nil {
		return err
	}

	// SQLite handles 1 writer + multiple readers with WAL mode
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(0)

	// Some drivers don't parse connection string params correctly
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=30000"); err != nil {
		return fmt.Errorf("set busy_timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("enable foreign keys: %w", err)
	}

	return runMigrations()
}

func runMigrations() error {
	tables := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			display_name TEXT DEFAULT '',
			role TEXT DEFAULT 'production' CHECK(role IN ('admin','production','dispatch','billing','purchase')),
			active INTEGER DEFAULT 1,
			failed_login_attempts INTEGER DEFAULT 0,
			locked_until DATETIME,
			last_login TIMESTAMP,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			token TEXT PRIMARY KEY,
			user_id INTEGER NOT NULL,
			expires_at TIMESTAMP NOT NULL,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS production_papers (
			id TEXT PRIMARY KEY,
			paper_number TEXT UNIQUE NOT NULL,
			title TEXT NOT NULL,
			description TEXT DEFAULT '',
			party_name TEXT DEFAULT '',
			measurement_number TEXT DEFAULT '',
			status TEXT DEFAULT 'draft' CHECK(status IN ('draft','approved','in_production','completed','cancelled')),
			quantity INTEGER DEFAULT 0,
			serial_start INTEGER,
			serial_end INTEGER,
			created_by TEXT DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			approved_at DATETIME,
			approved_by TEXT,
			deleted_at DATETIME,
			deleted_by TEXT DEFAULT '',
			delete_reason TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS paper_dimensions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			paper_id TEXT NOT NULL,
			width_mm REAL NOT NULL CHECK(width_mm > 0),
			height_mm REAL NOT NULL CHECK(height_mm > 0),
			qty INTEGER DEFAULT 1 CHECK(qty > 0),
			FOREIGN KEY (paper_id) REFERENCES production_papers(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS suppliers (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			contact_name TEXT DEFAULT '',
			contact_email TEXT DEFAULT '',
			contact_phone TEXT DEFAULT '',
			address TEXT DEFAULT '',
			gst_number TEXT DEFAULT '',
			notes TEXT DEFAULT '',
			status TEXT DEFAULT 'active' CHECK(status IN ('active','inactive')),
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			deleted_at DATETIME,
			deleted_by TEXT DEFAULT '',
			delete_reason TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS categories (
			id TEXT PRIMARY KEY,
			name TEXT UNIQUE NOT NULL,
			description TEXT DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS raw_material_orders (
			id TEXT PRIMARY KEY,
			order_number TEXT UNIQUE NOT NULL,
			supplier_id TEXT NOT NULL,
			status TEXT DEFAULT 'pending' CHECK(status IN ('pending','ordered','received','cancelled')),
			required_by TEXT DEFAULT '',
			notes TEXT DEFAULT '',
			total_weight REAL DEFAULT 0,
			created_by TEXT DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			ordered_at DATETIME,
			ordered_by TEXT,
			deleted_at DATETIME,
			deleted_by TEXT DEFAULT '',
			delete_reason TEXT,
			FOREIGN KEY (supplier_id) REFERENCES suppliers(id)
		)`,
		`CREATE TABLE IF NOT EXISTS material_lines (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			order_id TEXT NOT NULL,
			material TEXT NOT NULL,
			gauge TEXT DEFAULT '',
			qty REAL DEFAULT 1 CHECK(qty > 0),
			unit TEXT DEFAULT 'kg',
			weight_kg REAL DEFAULT 0,
			FOREIGN KEY (order_id) REFERENCES raw_material_orders(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS dispatches (
			id TEXT PRIMARY KEY,
			dispatch_number TEXT UNIQUE NOT NULL,
			paper_id TEXT DEFAULT '',
			vehicle TEXT DEFAULT '',
			driver TEXT DEFAULT '',
			destination TEXT DEFAULT '',
			status TEXT DEFAULT 'pending' CHECK(status IN ('pending','loaded','dispatched','delivered')),
			dispatch_date DATETIME,
			notes TEXT DEFAULT '',
			created_by TEXT DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			deleted_at DATETIME,
			deleted_by TEXT DEFAULT '',
			delete_reason TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS dispatch_lines (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			dispatch_id TEXT NOT NULL,
			dimension_id INTEGER DEFAULT 0,
			width_mm REAL DEFAULT 0,
			height_mm REAL DEFAULT 0,
			qty INTEGER DEFAULT 1 CHECK(qty > 0),
			FOREIGN KEY (dispatch_id) REFERENCES dispatches(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS invoices (
			id TEXT PRIMARY KEY,
			invoice_number TEXT UNIQUE NOT NULL,
			party_name TEXT NOT NULL,
			paper_id TEXT DEFAULT '',
			amount REAL DEFAULT 0,
			tax_percent REAL DEFAULT 0,
			tax_amount REAL DEFAULT 0,
			total REAL DEFAULT 0,
			status TEXT DEFAULT 'draft' CHECK(status IN ('draft','issued','paid','void')),
			issue_date DATETIME,
			notes TEXT DEFAULT '',
			created_by TEXT DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			deleted_at DATETIME,
			deleted_by TEXT DEFAULT '',
			delete_reason TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS invoice_lines (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			invoice_id TEXT NOT NULL,
			description TEXT NOT NULL,
			qty REAL DEFAULT 1,
			unit_price REAL DEFAULT 0,
			line_total REAL DEFAULT 0,
			FOREIGN KEY (invoice_id) REFERENCES invoices(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS notifications (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			type TEXT DEFAULT 'info',
			title TEXT NOT NULL,
			message TEXT DEFAULT '',
			ref_id TEXT DEFAULT '',
			read INTEGER DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS audit_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
			username TEXT,
			action TEXT,
			module TEXT,
			record_id TEXT,
			summary TEXT
		)`,
	}
	for _, t := range tables {
		if _, err := db.Exec(t); err != nil {
			return fmt.Errorf("migration: %w", err)
		}
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_papers_deleted ON production_papers(deleted_at)`,
		`CREATE INDEX IF NOT EXISTS idx_materials_deleted ON raw_material_orders(deleted_at)`,
		`CREATE INDEX IF NOT EXISTS idx_dispatches_deleted ON dispatches(deleted_at)`,
		`CREATE INDEX IF NOT EXISTS idx_invoices_deleted ON invoices(deleted_at)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_module ON audit_log(module, record_id)`,
	}
	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			return fmt.Errorf("index migration: %w", err)
		}
	}
	return nil
}

// seedDB creates the default admin account on first run.
func seedDB() {
	var count int
	db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count)
	if count > 0 {
		return
	}
	hash, err := auth.HashPassword("Admin123")
	if err != nil {
		log.Printf("seed: hash password: %v", err)
		return
	}
	_, err = db.Exec(
		"INSERT INTO users (username, password_hash, display_name, role) VALUES (?, ?, ?, 'admin')",
		"admin", hash, "Administrator")
	if err != nil {
		log.Printf("seed: create admin: %v", err)
		return
	}
	log.Printf("seeded default admin user (username: admin)")
}

// nextID allocates the next sequential id for a table, e.g. PP-0012.
func nextID(table, prefix string, width int) string {
	var maxNum int
	query := fmt.Sprintf(
		"SELECT COALESCE(MAX(CAST(SUBSTR(id,%d) AS INTEGER)),0) FROM %s WHERE id LIKE '%s-%%'",
		len(prefix)+2, table, prefix)
	db.QueryRow(query).Scan(&maxNum)
	return fmt.Sprintf("%s-%0*d", prefix, width, maxNum+1)
}
