package models

// APIResponse is the standard JSON envelope for all API responses.
type APIResponse struct {
	Data interface{} `json:"data"`
	Meta *Meta       `json:"meta,omitempty"`
}

// Meta contains pagination metadata.
type Meta struct {
	Total int `json:"total,omitempty"`
	Page  int `json:"page,omitempty"`
	Limit int `json:"limit,omitempty"`
}

// SoftDelete carries the soft-delete markers shared by recoverable records.
// A nil DeletedAt means the record is live.
type SoftDelete struct {
	DeletedAt    *string `json:"deleted_at"`
	DeletedBy    string  `json:"deleted_by,omitempty"`
	DeleteReason *string `json:"delete_reason"`
}

// IsDeleted reports whether the record carries a soft-delete marker.
func (s SoftDelete) IsDeleted() bool { return s.DeletedAt != nil }

type ProductionPaper struct {
	ID                string  `json:"id"`
	PaperNumber       string  `json:"paper_number"`
	Title             string  `json:"title"`
	Description       string  `json:"description"`
	PartyName         string  `json:"party_name"`
	MeasurementNumber string  `json:"measurement_number"`
	Status            string  `json:"status"`
	Quantity          int     `json:"quantity"`
	SerialStart       *int    `json:"serial_start"`
	SerialEnd         *int    `json:"serial_end"`
	CreatedBy         string  `json:"created_by"`
	CreatedAt         string  `json:"created_at"`
	UpdatedAt         string  `json:"updated_at"`
	ApprovedAt        *string `json:"approved_at"`
	ApprovedBy        *string `json:"approved_by"`
	SoftDelete
}

// PaperDimension is one width/height/qty row on a production paper.
type PaperDimension struct {
	ID       int     `json:"id"`
	PaperID  string  `json:"paper_id"`
	WidthMM  float64 `json:"width_mm"`
	HeightMM float64 `json:"height_mm"`
	Qty      int     `json:"qty"`
}

type RawMaterialOrder struct {
	ID           string  `json:"id"`
	OrderNumber  string  `json:"order_number"`
	SupplierID   string  `json:"supplier_id"`
	SupplierName string  `json:"supplier_name,omitempty"`
	Status       string  `json:"status"`
	RequiredBy   string  `json:"required_by"`
	Notes        string  `json:"notes"`
	TotalWeight  float64 `json:"total_weight"`
	CreatedBy    string  `json:"created_by"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`
	OrderedAt    *string `json:"ordered_at"`
	OrderedBy    *string `json:"ordered_by"`
	SoftDelete
	Lines []MaterialLine `json:"lines,omitempty"`
}

type MaterialLine struct {
	ID       int     `json:"id"`
	OrderID  string  `json:"order_id"`
	Material string  `json:"material"`
	Gauge    string  `json:"gauge"`
	Qty      float64 `json:"qty"`
	Unit     string  `json:"unit"`
	WeightKg float64 `json:"weight_kg"`
}

type Supplier struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ContactName  string `json:"contact_name"`
	ContactEmail string `json:"contact_email"`
	ContactPhone string `json:"contact_phone"`
	Address      string `json:"address"`
	GSTNumber    string `json:"gst_number"`
	Notes        string `json:"notes"`
	Status       string `json:"status"`
	CreatedAt    string `json:"created_at"`
	SoftDelete
}

type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
}

type Dispatch struct {
	ID             string  `json:"id"`
	DispatchNumber string  `json:"dispatch_number"`
	PaperID        string  `json:"paper_id"`
	PaperNumber    string  `json:"paper_number,omitempty"`
	Vehicle        string  `json:"vehicle"`
	Driver         string  `json:"driver"`
	Destination    string  `json:"destination"`
	Status         string  `json:"status"`
	DispatchDate   *string `json:"dispatch_date"`
	Notes          string  `json:"notes"`
	CreatedBy      string  `json:"created_by"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      string  `json:"updated_at"`
	SoftDelete
}

// DispatchLine is one shipped item on a dispatch, resolved from either the
// legacy index payload or the dimension-ref payload at the API boundary.
type DispatchLine struct {
	ID          int     `json:"id"`
	DispatchID  string  `json:"dispatch_id"`
	DimensionID int     `json:"dimension_id"`
	WidthMM     float64 `json:"width_mm"`
	HeightMM    float64 `json:"height_mm"`
	Qty         int     `json:"qty"`
}

type Invoice struct {
	ID            string  `json:"id"`
	InvoiceNumber string  `json:"invoice_number"`
	PartyName     string  `json:"party_name"`
	PaperID       string  `json:"paper_id"`
	Amount        float64 `json:"amount"`
	TaxPercent    float64 `json:"tax_percent"`
	TaxAmount     float64 `json:"tax_amount"`
	Total         float64 `json:"total"`
	Status        string  `json:"status"`
	IssueDate     *string `json:"issue_date"`
	Notes         string  `json:"notes"`
	CreatedBy     string  `json:"created_by"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
	SoftDelete
	Lines []InvoiceLine `json:"lines,omitempty"`
}

type InvoiceLine struct {
	ID          int     `json:"id"`
	InvoiceID   string  `json:"invoice_id"`
	Description string  `json:"description"`
	Qty         float64 `json:"qty"`
	UnitPrice   float64 `json:"unit_price"`
	LineTotal   float64 `json:"line_total"`
}

type Notification struct {
	ID        int    `json:"id"`
	Type      string `json:"type"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	RefID     string `json:"ref_id"`
	Read      bool   `json:"read"`
	CreatedAt string `json:"created_at"`
}

type AuditEntry struct {
	ID        int    `json:"id"`
	Timestamp string `json:"timestamp"`
	Username  string `json:"username"`
	Action    string `json:"action"`
	Module    string `json:"module"`
	RecordID  string `json:"record_id"`
	Summary   string `json:"summary"`
}

type DashboardData struct {
	OpenPapers       int `json:"open_papers"`
	PapersInProd     int `json:"papers_in_production"`
	PendingMaterials int `json:"pending_materials"`
	PendingDispatch  int `json:"pending_dispatch"`
	UnpaidInvoices   int `json:"unpaid_invoices"`
	ActiveSuppliers  int `json:"active_suppliers"`
}
