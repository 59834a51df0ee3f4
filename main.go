package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"drp/internal/response"
)

var (
	companyName  string
	companyEmail string
	tokenSecret  []byte
	tokenTTL     time.Duration
)

func main() {
	configPath := flag.String("config", "drp.yaml", "Path to YAML config file")
	port := flag.Int("port", 0, "HTTP port (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	flag.Parse()

	// Missing .env is fine; it is a local-dev convenience.
	_ = godotenv.Load()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatal("config load failed: ", err)
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	companyName = cfg.CompanyName
	companyEmail = cfg.CompanyEmail
	tokenSecret = []byte(cfg.TokenSecret)
	tokenTTL = time.Duration(cfg.TokenTTLHrs) * time.Hour

	if err := initDB(cfg.DBPath); err != nil {
		log.Fatal("DB init failed:", err)
	}
	seedDB()

	// Background notification generator (run once after short delay, then every 5 min)
	go func() {
		time.Sleep(5 * time.Second)
		generateNotifications()
		for {
			time.Sleep(5 * time.Minute)
			generateNotifications()
		}
	}()

	mux := buildMux()

	corsWrapper := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: false,
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Printf("DRP server starting on http://localhost%s", addr)
	log.Fatal(http.ListenAndServe(addr, logging(corsWrapper.Handler(requireAuth(requireRBAC(mux))))))
}

func buildMux() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	// Auth routes
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "POST" {
			handleLogin(w, r)
		} else {
			http.Error(w, "Method not allowed", 405)
		}
	})
	mux.HandleFunc("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "POST" {
			handleLogout(w, r)
		} else {
			http.Error(w, "Method not allowed", 405)
		}
	})
	mux.HandleFunc("/auth/me", handleMe)

	// Live change feed
	mux.HandleFunc("/ws", handleWebSocket)

	// API routes - using a simple router
	mux.HandleFunc("/api/v1/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		path := strings.TrimPrefix(r.URL.Path, "/api/v1/")
		path = strings.TrimSuffix(path, "/")
		parts := strings.Split(path, "/")

		switch {
		// Dashboard
		case path == "dashboard" && r.Method == "GET":
			handleDashboard(w, r)

		// Production papers
		case path == "papers" && r.Method == "GET":
			handleListPapers(w, r)
		case path == "papers" && r.Method == "POST":
			handleCreatePaper(w, r)
		case parts[0] == "papers" && len(parts) == 2 && r.Method == "GET":
			handleGetPaper(w, r, parts[1])
		case parts[0] == "papers" && len(parts) == 2 && r.Method == "PUT":
			handleUpdatePaper(w, r, parts[1])
		case parts[0] == "papers" && len(parts) == 2 && r.Method == "DELETE":
			handleDeletePaper(w, r, parts[1])
		case parts[0] == "papers" && len(parts) == 3 && parts[2] == "recover" && r.Method == "POST":
			handleRecoverPaper(w, r, parts[1])
		case parts[0] == "papers" && len(parts) == 3 && parts[2] == "approve" && r.Method == "POST":
			handleApprovePaper(w, r, parts[1])
		case parts[0] == "papers" && len(parts) == 3 && parts[2] == "assign-serials" && r.Method == "POST":
			handleAssignSerials(w, r, parts[1])
		case parts[0] == "papers" && len(parts) == 3 && parts[2] == "dimensions" && r.Method == "GET":
			handleListDimensions(w, r, parts[1])
		case parts[0] == "papers" && len(parts) == 3 && parts[2] == "dimensions" && r.Method == "PUT":
			handleReplaceDimensions(w, r, parts[1])

		// Raw material orders
		case path == "materials" && r.Method == "GET":
			handleListMaterialOrders(w, r)
		case path == "materials" && r.Method == "POST":
			handleCreateMaterialOrder(w, r)
		case parts[0] == "materials" && len(parts) == 2 && r.Method == "GET":
			handleGetMaterialOrder(w, r, parts[1])
		case parts[0] == "materials" && len(parts) == 2 && r.Method == "PUT":
			handleUpdateMaterialOrder(w, r, parts[1])
		case parts[0] == "materials" && len(parts) == 2 && r.Method == "DELETE":
			handleDeleteMaterialOrder(w, r, parts[1])
		case parts[0] == "materials" && len(parts) == 3 && parts[2] == "recover" && r.Method == "POST":
			handleRecoverMaterialOrder(w, r, parts[1])
		case parts[0] == "materials" && len(parts) == 3 && parts[2] == "approve" && r.Method == "POST":
			handleApproveMaterialOrder(w, r, parts[1])
		case parts[0] == "materials" && len(parts) == 3 && parts[2] == "receive" && r.Method == "POST":
			handleReceiveMaterialOrder(w, r, parts[1])

		// Suppliers
		case path == "suppliers" && r.Method == "GET":
			handleListSuppliers(w, r)
		case path == "suppliers" && r.Method == "POST":
			handleCreateSupplier(w, r)
		case parts[0] == "suppliers" && len(parts) == 2 && r.Method == "GET":
			handleGetSupplier(w, r, parts[1])
		case parts[0] == "suppliers" && len(parts) == 2 && r.Method == "PUT":
			handleUpdateSupplier(w, r, parts[1])
		case parts[0] == "suppliers" && len(parts) == 2 && r.Method == "DELETE":
			handleDeleteSupplier(w, r, parts[1])
		case parts[0] == "suppliers" && len(parts) == 3 && parts[2] == "recover" && r.Method == "POST":
			handleRecoverSupplier(w, r, parts[1])

		// Categories
		case path == "categories" && r.Method == "GET":
			handleListCategories(w, r)
		case path == "categories" && r.Method == "POST":
			handleCreateCategory(w, r)
		case parts[0] == "categories" && len(parts) == 2 && r.Method == "PUT":
			handleUpdateCategory(w, r, parts[1])
		case parts[0] == "categories" && len(parts) == 2 && r.Method == "DELETE":
			handleDeleteCategory(w, r, parts[1])

		// Dispatches
		case path == "dispatches" && r.Method == "GET":
			handleListDispatches(w, r)
		case path == "dispatches" && r.Method == "POST":
			handleCreateDispatch(w, r)
		case parts[0] == "dispatches" && len(parts) == 2 && r.Method == "GET":
			handleGetDispatch(w, r, parts[1])
		case parts[0] == "dispatches" && len(parts) == 2 && r.Method == "PUT":
			handleUpdateDispatch(w, r, parts[1])
		case parts[0] == "dispatches" && len(parts) == 2 && r.Method == "DELETE":
			handleDeleteDispatch(w, r, parts[1])
		case parts[0] == "dispatches" && len(parts) == 3 && parts[2] == "recover" && r.Method == "POST":
			handleRecoverDispatch(w, r, parts[1])
		case parts[0] == "dispatches" && len(parts) == 3 && parts[2] == "status" && r.Method == "POST":
			handleDispatchStatus(w, r, parts[1])
		case parts[0] == "dispatches" && len(parts) == 3 && parts[2] == "lines" && r.Method == "GET":
			handleListDispatchLines(w, r, parts[1])
		case parts[0] == "dispatches" && len(parts) == 3 && parts[2] == "lines" && r.Method == "PUT":
			handleReplaceDispatchLines(w, r, parts[1])

		// Invoices
		case path == "invoices" && r.Method == "GET":
			handleListInvoices(w, r)
		case path == "invoices" && r.Method == "POST":
			handleCreateInvoice(w, r)
		case parts[0] == "invoices" && len(parts) == 2 && r.Method == "GET":
			handleGetInvoice(w, r, parts[1])
		case parts[0] == "invoices" && len(parts) == 2 && r.Method == "PUT":
			handleUpdateInvoice(w, r, parts[1])
		case parts[0] == "invoices" && len(parts) == 2 && r.Method == "DELETE":
			handleDeleteInvoice(w, r, parts[1])
		case parts[0] == "invoices" && len(parts) == 3 && parts[2] == "recover" && r.Method == "POST":
			handleRecoverInvoice(w, r, parts[1])
		case parts[0] == "invoices" && len(parts) == 3 && parts[2] == "status" && r.Method == "POST":
			handleInvoiceStatus(w, r, parts[1])

		// Users (admin)
		case path == "users" && r.Method == "GET":
			handleListUsers(w, r)
		case path == "users" && r.Method == "POST":
			handleCreateUser(w, r)
		case parts[0] == "users" && len(parts) == 2 && r.Method == "PUT":
			handleUpdateUser(w, r, parts[1])
		case parts[0] == "users" && len(parts) == 2 && r.Method == "DELETE":
			handleDeleteUser(w, r, parts[1])
		case parts[0] == "users" && len(parts) == 3 && parts[2] == "reset-password" && r.Method == "POST":
			handleResetPassword(w, r, parts[1])

		// Notifications
		case path == "notifications" && r.Method == "GET":
			handleListNotifications(w, r)
		case parts[0] == "notifications" && len(parts) == 3 && parts[2] == "read" && r.Method == "POST":
			handleMarkNotificationRead(w, r, parts[1])

		// Audit log (admin)
		case path == "audit" && r.Method == "GET":
			handleListAudit(w, r)

		// Exports
		case parts[0] == "export" && len(parts) == 2 && r.Method == "GET":
			handleExport(w, r, parts[1])

		default:
			jsonErr(w, "not found", 404)
		}
	})

	return mux
}

func jsonResp(w http.ResponseWriter, data interface{}) {
	response.JSON(w, data)
}

func jsonRespMeta(w http.ResponseWriter, data interface{}, total, page, limit int) {
	response.JSONMeta(w, data, total, page, limit)
}

func jsonErr(w http.ResponseWriter, msg string, code int) {
	response.Err(w, msg, code)
}

func decodeBody(r *http.Request, v interface{}) error {
	return response.DecodeBody(r, v)
}
