package main

import "drp/internal/models"

// Type aliases so handlers can use the unqualified names while the
// definitions live in internal/models.

type APIResponse = models.APIResponse
type Meta = models.Meta
type ProductionPaper = models.ProductionPaper
type PaperDimension = models.PaperDimension
type RawMaterialOrder = models.RawMaterialOrder
type MaterialLine = models.MaterialLine
type Supplier = models.Supplier
type Category = models.Category
type Dispatch = models.Dispatch
type DispatchLine = models.DispatchLine
type Invoice = models.Invoice
type InvoiceLine = models.InvoiceLine
type Notification = models.Notification
type AuditEntry = models.AuditEntry
type DashboardData = models.DashboardData
