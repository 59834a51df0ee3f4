package listview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"drp/internal/apiclient"
	"drp/internal/filter"
)

// API is the REST collaborator a controller drives. apiclient.Client
// satisfies it; tests substitute a fake.
type API interface {
	Get(ctx context.Context, path string, requireAuth bool) (json.RawMessage, error)
	Post(ctx context.Context, path string, body interface{}, requireAuth bool) (json.RawMessage, error)
	Put(ctx context.Context, path string, body interface{}, requireAuth bool) (json.RawMessage, error)
	Patch(ctx context.Context, path string, body interface{}, requireAuth bool) (json.RawMessage, error)
	Delete(ctx context.Context, path string, body interface{}, requireAuth bool) (json.RawMessage, error)
}

// GenericFallback is shown for transport failures that carry no server detail.
const GenericFallback = "Request failed. Check the connection and try again."

// Controller drives one list view: it owns the canonical record cache, the
// current filter criteria, and the single confirmation flow. Every mutation
// is followed by a full reload; the cache is never patched locally.
type Controller[T any] struct {
	api    API
	path   string
	id     func(T) string
	schema filter.Schema[T]

	mu        sync.Mutex
	records   []T
	deleted   []T
	criteria  filter.Criteria
	confirm   *Confirmation
	loadGen   uint64
	loading   bool
	loadErr   string
	actionErr string
	mutating  bool
}

// NewController creates a controller for the entity rooted at path (e.g.
// "papers"). id extracts a record's stable identifier.
func NewController[T any](api API, path string, id func(T) string, schema filter.Schema[T]) *Controller[T] {
	return &Controller[T]{
		api:     api,
		path:    strings.Trim(path, "/"),
		id:      id,
		schema:  schema,
		confirm: NewConfirmation(),
	}
}

// Load performs the full reload: live records plus the deleted set. A
// response belonging to a superseded load is discarded, so a slow reload can
// never overwrite data from a newer one.
func (c *Controller[T]) Load(ctx context.Context) error {
	c.mu.Lock()
	c.loadGen++
	gen := c.loadGen
	c.loading = true
	c.loadErr = ""
	c.mu.Unlock()

	live, err := c.fetch(ctx, c.path)
	var removed []T
	if err == nil {
		removed, err = c.fetch(ctx, c.path+"?deleted=true")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.loadGen {
		// A newer load started while this one was in flight.
		return nil
	}
	c.loading = false
	if err != nil {
		c.loadErr = errMessage(err)
		return err
	}
	c.records = live
	c.deleted = removed
	return nil
}

func (c *Controller[T]) fetch(ctx context.Context, path string) ([]T, error) {
	raw, err := c.api.Get(ctx, path, true)
	if err != nil {
		return nil, err
	}
	var items []T
	if err := apiclient.DecodeData(raw, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Visible derives the filtered subset from the canonical records. It is
// recomputed on every call, never cached.
func (c *Controller[T]) Visible() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return filter.Apply(c.records, c.criteria, c.schema)
}

// SetCriteria replaces the active filter criteria.
func (c *Controller[T]) SetCriteria(criteria filter.Criteria) {
	c.mu.Lock()
	c.criteria = criteria
	c.mu.Unlock()
}

// Records returns a copy of the live record cache.
func (c *Controller[T]) Records() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]T(nil), c.records...)
}

// Deleted returns a copy of the soft-deleted record cache.
func (c *Controller[T]) Deleted() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]T(nil), c.deleted...)
}

// Loading reports whether a load is in flight.
func (c *Controller[T]) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// LoadError is the blocking initial-load error, or empty. Load is the retry.
func (c *Controller[T]) LoadError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadErr
}

// ActionError is the most recent per-action failure, or empty.
func (c *Controller[T]) ActionError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.actionErr
}

// Confirm exposes the confirmation flow for rendering (code, error message,
// state). Mutations go through the Request*/ConfirmChallenge/CancelAction
// methods so locking stays in one place.
func (c *Controller[T]) ConfirmState() ConfirmState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.confirm.State()
}

// ChallengeCode returns the code currently shown in the dialog.
func (c *Controller[T]) ChallengeCode() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.confirm.Code()
}

// ChallengeError returns the current mismatch notice.
func (c *Controller[T]) ChallengeError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.confirm.ErrorMessage()
}

// PendingAction returns the action awaiting confirmation, or nil.
func (c *Controller[T]) PendingAction() *PendingAction {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.confirm.Pending()
}

// RequestDelete opens the confirmation dialog for a soft delete.
func (c *Controller[T]) RequestDelete(id, label string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.confirm.Begin(PendingAction{TargetID: id, TargetLabel: label, Kind: ActionDelete})
}

// RequestRecover opens the confirmation dialog for recovering one record.
func (c *Controller[T]) RequestRecover(id, label string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.confirm.Begin(PendingAction{TargetID: id, TargetLabel: label, Kind: ActionRecover})
}

// RequestRecoverAll opens the confirmation dialog for recovering every
// currently-known deleted record. The label is computed from the deleted
// count at this moment, not at render time.
func (c *Controller[T]) RequestRecoverAll() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.confirm.Begin(PendingAction{
		TargetID:    RecoverAllTarget,
		TargetLabel: fmt.Sprintf("All %d deleted records", len(c.deleted)),
		Kind:        ActionRecoverAll,
	})
}

// CancelAction discards the pending action and closes the dialog.
func (c *Controller[T]) CancelAction() {
	c.mu.Lock()
	c.confirm.Cancel()
	c.mu.Unlock()
}

// ConfirmChallenge submits the typed code. On a match it performs the pending
// action (with the trimmed reason for deletes; whitespace-only means no
// reason) and reloads on success. On a mismatch or empty input it returns nil
// and the dialog stays open with the regenerated code. A submission while a
// previous one is still in flight is a no-op.
func (c *Controller[T]) ConfirmChallenge(ctx context.Context, input, reason string) error {
	c.mu.Lock()
	if c.mutating {
		c.mu.Unlock()
		return nil
	}
	if !c.confirm.Submit(input) {
		c.mu.Unlock()
		return nil
	}
	pending := *c.confirm.Pending()
	if pending.Kind == ActionDelete {
		if trimmed := strings.TrimSpace(reason); trimmed != "" {
			pending.Reason = &trimmed
		}
	}
	var targets []string
	if pending.Kind == ActionRecoverAll {
		targets = make([]string, 0, len(c.deleted))
		for _, rec := range c.deleted {
			targets = append(targets, c.id(rec))
		}
	}
	c.mutating = true
	c.actionErr = ""
	c.mu.Unlock()

	err := c.perform(ctx, pending, targets)

	c.mu.Lock()
	c.mutating = false
	c.confirm.Finish()
	if err != nil {
		c.actionErr = errMessage(err)
	}
	c.mu.Unlock()

	if err != nil {
		return err
	}
	return c.Load(ctx)
}

func (c *Controller[T]) perform(ctx context.Context, pending PendingAction, targets []string) error {
	switch pending.Kind {
	case ActionDelete:
		_, err := c.api.Delete(ctx, c.path+"/"+pending.TargetID, map[string]*string{"reason": pending.Reason}, true)
		return err
	case ActionRecover:
		_, err := c.api.Post(ctx, c.path+"/"+pending.TargetID+"/recover", nil, true)
		return err
	case ActionRecoverAll:
		// Fan out one recover per deleted record. Item failures do not stop
		// the remaining calls; the result reports how far it got.
		var firstErr error
		recovered := 0
		for _, id := range targets {
			if _, err := c.api.Post(ctx, c.path+"/"+id+"/recover", nil, true); err != nil {
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			recovered++
		}
		if firstErr != nil {
			return &PartialRecoverError{Recovered: recovered, Total: len(targets), Cause: firstErr}
		}
		return nil
	}
	return fmt.Errorf("listview: unknown action kind %d", pending.Kind)
}

// Create posts a new record and reloads.
func (c *Controller[T]) Create(ctx context.Context, body interface{}) error {
	return c.mutate(ctx, func() error {
		_, err := c.api.Post(ctx, c.path, body, true)
		return err
	})
}

// Update puts changed fields for one record and reloads.
func (c *Controller[T]) Update(ctx context.Context, id string, body interface{}) error {
	return c.mutate(ctx, func() error {
		_, err := c.api.Put(ctx, c.path+"/"+id, body, true)
		return err
	})
}

// mutate runs a non-destructive write under the same single-flight guard as
// confirmed actions, then reloads on success.
func (c *Controller[T]) mutate(ctx context.Context, call func() error) error {
	c.mu.Lock()
	if c.mutating {
		c.mu.Unlock()
		return nil
	}
	c.mutating = true
	c.actionErr = ""
	c.mu.Unlock()

	err := call()

	c.mu.Lock()
	c.mutating = false
	if err != nil {
		c.actionErr = errMessage(err)
	}
	c.mu.Unlock()

	if err != nil {
		return err
	}
	return c.Load(ctx)
}

// PartialRecoverError reports a recover-all that succeeded for some records
// and failed for others. Nothing is rolled back or retried; the caller shows
// how far it got.
type PartialRecoverError struct {
	Recovered int
	Total     int
	Cause     error
}

func (e *PartialRecoverError) Error() string {
	return fmt.Sprintf("recovered %d of %d: %v", e.Recovered, e.Total, e.Cause)
}

func (e *PartialRecoverError) Unwrap() error { return e.Cause }

// errMessage prefers the server's detail message and falls back to a generic
// transport notice.
func errMessage(err error) string {
	var partial *PartialRecoverError
	if errors.As(err, &partial) {
		return fmt.Sprintf("Recovered %d of %d deleted records: %s",
			partial.Recovered, partial.Total, errMessage(partial.Cause))
	}
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	return GenericFallback
}
