package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"drp/internal/filter"
	"drp/internal/listview"
	"drp/internal/models"
)

// view is the entity-independent surface the REPL drives. Each entity gets a
// tableView wrapping its typed controller.
type view interface {
	Name() string
	Load(ctx context.Context) error
	PrintVisible(w io.Writer)
	PrintDeleted(w io.Writer)
	SetCriteria(c filter.Criteria)
	RequestDelete(id string) error
	RequestRecover(id string) error
	RequestRecoverAll() error
	CancelAction()
	ConfirmChallenge(ctx context.Context, input, reason string) error
	ConfirmState() listview.ConfirmState
	ChallengeCode() string
	ChallengeError() string
	PendingAction() *listview.PendingAction
	ActionError() string
	DeletedCount() int
}

type tableView[T any] struct {
	name    string
	ctrl    *listview.Controller[T]
	headers []string
	row     func(T) []string
	label   func(T) string
	find    func([]T, string) (T, bool)
}

func newTableView[T any](name string, api listview.API, path string, id func(T) string,
	schema filter.Schema[T], headers []string, row func(T) []string, label func(T) string) *tableView[T] {
	return &tableView[T]{
		name:    name,
		ctrl:    listview.NewController(api, path, id, schema),
		headers: headers,
		row:     row,
		label:   label,
		find: func(items []T, want string) (T, bool) {
			for _, it := range items {
				if id(it) == want {
					return it, true
				}
			}
			var zero T
			return zero, false
		},
	}
}

func (v *tableView[T]) Name() string                    { return v.name }
func (v *tableView[T]) Load(ctx context.Context) error  { return v.ctrl.Load(ctx) }
func (v *tableView[T]) SetCriteria(c filter.Criteria)   { v.ctrl.SetCriteria(c) }
func (v *tableView[T]) CancelAction()                   { v.ctrl.CancelAction() }
func (v *tableView[T]) ChallengeCode() string           { return v.ctrl.ChallengeCode() }
func (v *tableView[T]) ChallengeError() string          { return v.ctrl.ChallengeError() }
func (v *tableView[T]) ActionError() string             { return v.ctrl.ActionError() }
func (v *tableView[T]) DeletedCount() int               { return len(v.ctrl.Deleted()) }
func (v *tableView[T]) RequestRecoverAll() error        { return v.ctrl.RequestRecoverAll() }

func (v *tableView[T]) ConfirmState() listview.ConfirmState {
	return v.ctrl.ConfirmState()
}

func (v *tableView[T]) PendingAction() *listview.PendingAction {
	return v.ctrl.PendingAction()
}

func (v *tableView[T]) ConfirmChallenge(ctx context.Context, input, reason string) error {
	return v.ctrl.ConfirmChallenge(ctx, input, reason)
}

func (v *tableView[T]) RequestDelete(id string) error {
	rec, ok := v.find(v.ctrl.Records(), id)
	if !ok {
		return fmt.Errorf("no %s record %q", v.name, id)
	}
	return v.ctrl.RequestDelete(id, v.label(rec))
}

func (v *tableView[T]) RequestRecover(id string) error {
	rec, ok := v.find(v.ctrl.Deleted(), id)
	if !ok {
		return fmt.Errorf("no deleted %s record %q", v.name, id)
	}
	return v.ctrl.RequestRecover(id, v.label(rec))
}

func (v *tableView[T]) PrintVisible(w io.Writer) {
	v.printTable(w, v.ctrl.Visible())
}

func (v *tableView[T]) PrintDeleted(w io.Writer) {
	v.printTable(w, v.ctrl.Deleted())
}

func (v *tableView[T]) printTable(w io.Writer, items []T) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(v.headers, "\t"))
	for _, it := range items {
		fmt.Fprintln(tw, strings.Join(v.row(it), "\t"))
	}
	tw.Flush()
	fmt.Fprintf(w, "%d records\n", len(items))
}

func paperView(api listview.API) view {
	schema := filter.Schema[models.ProductionPaper]{
		SearchFields: func(p models.ProductionPaper) []string {
			return []string{p.ID, p.Title, p.PartyName, p.MeasurementNumber}
		},
		Field: func(p models.ProductionPaper, name string) string {
			switch name {
			case "status":
				return p.Status
			case "party":
				return p.PartyName
			}
			return ""
		},
		Timestamp: func(p models.ProductionPaper) string { return p.CreatedAt },
	}
	return newTableView("papers", api, "papers",
		func(p models.ProductionPaper) string { return p.ID },
		schema,
		[]string{"ID", "TITLE", "PARTY", "STATUS", "QTY", "CREATED"},
		func(p models.ProductionPaper) []string {
			return []string{p.ID, p.Title, p.PartyName, p.Status, fmt.Sprintf("%d", p.Quantity), p.CreatedAt}
		},
		func(p models.ProductionPaper) string { return p.ID + " " + p.Title },
	)
}

func supplierView(api listview.API) view {
	schema := filter.Schema[models.Supplier]{
		SearchFields: func(s models.Supplier) []string {
			return []string{s.ID, s.Name, s.ContactName, s.ContactEmail}
		},
		Field: func(s models.Supplier, name string) string {
			if name == "status" {
				return s.Status
			}
			return ""
		},
		Timestamp: func(s models.Supplier) string { return s.CreatedAt },
	}
	return newTableView("suppliers", api, "suppliers",
		func(s models.Supplier) string { return s.ID },
		schema,
		[]string{"ID", "NAME", "CONTACT", "EMAIL", "STATUS"},
		func(s models.Supplier) []string {
			return []string{s.ID, s.Name, s.ContactName, s.ContactEmail, s.Status}
		},
		func(s models.Supplier) string { return s.ID + " " + s.Name },
	)
}

func invoiceView(api listview.API) view {
	schema := filter.Schema[models.Invoice]{
		SearchFields: func(i models.Invoice) []string {
			return []string{i.ID, i.PartyName}
		},
		Field: func(i models.Invoice, name string) string {
			switch name {
			case "status":
				return i.Status
			case "party":
				return i.PartyName
			}
			return ""
		},
		Timestamp: func(i models.Invoice) string { return i.CreatedAt },
	}
	return newTableView("invoices", api, "invoices",
		func(i models.Invoice) string { return i.ID },
		schema,
		[]string{"ID", "PARTY", "TOTAL", "STATUS", "CREATED"},
		func(i models.Invoice) []string {
			return []string{i.ID, i.PartyName, fmt.Sprintf("%.2f", i.Total), i.Status, i.CreatedAt}
		},
		func(i models.Invoice) string { return i.ID + " " + i.PartyName },
	)
}

func materialView(api listview.API) view {
	schema := filter.Schema[models.RawMaterialOrder]{
		SearchFields: func(m models.RawMaterialOrder) []string {
			return []string{m.ID, m.OrderNumber, m.SupplierName, m.Notes}
		},
		Field: func(m models.RawMaterialOrder, name string) string {
			switch name {
			case "status":
				return m.Status
			case "supplier":
				return m.SupplierID
			}
			return ""
		},
		Timestamp: func(m models.RawMaterialOrder) string { return m.CreatedAt },
	}
	return newTableView("materials", api, "materials",
		func(m models.RawMaterialOrder) string { return m.ID },
		schema,
		[]string{"ID", "SUPPLIER", "STATUS", "WEIGHT", "REQUIRED BY"},
		func(m models.RawMaterialOrder) []string {
			return []string{m.ID, m.SupplierName, m.Status, fmt.Sprintf("%.1f", m.TotalWeight), m.RequiredBy}
		},
		func(m models.RawMaterialOrder) string { return m.ID + " from " + m.SupplierName },
	)
}

func dispatchView(api listview.API) view {
	schema := filter.Schema[models.Dispatch]{
		SearchFields: func(d models.Dispatch) []string {
			return []string{d.ID, d.Destination, d.Vehicle, d.Driver}
		},
		Field: func(d models.Dispatch, name string) string {
			if name == "status" {
				return d.Status
			}
			return ""
		},
		Timestamp: func(d models.Dispatch) string { return d.CreatedAt },
	}
	return newTableView("dispatches", api, "dispatches",
		func(d models.Dispatch) string { return d.ID },
		schema,
		[]string{"ID", "DESTINATION", "VEHICLE", "STATUS", "CREATED"},
		func(d models.Dispatch) []string {
			return []string{d.ID, d.Destination, d.Vehicle, d.Status, d.CreatedAt}
		},
		func(d models.Dispatch) string { return d.ID + " to " + d.Destination },
	)
}
