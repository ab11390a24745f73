// Package workflow implements the state-transition engine over the item
// collection: status transitions, completion, approval, review round-trips,
// and the payment cycle.
//
// Every mutating operation validates first, then mutates the in-memory
// collection, then routes the whole collection through the store's Persist.
// Nothing writes to disk ad hoc. The engine is not safe for concurrent use;
// callers with multiple goroutines serialize access themselves.
package workflow

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"wt/internal/item"
	"wt/internal/ledger"
	"wt/internal/store"
)

// Policy controls when items are archived. The default archives only on the
// terminal event: payment confirmation for billable items, approval for
// non-billable items. The two knobs reproduce the eager variants.
type Policy struct {
	// ArchiveOnComplete archives an item as soon as it is completed.
	ArchiveOnComplete bool
	// ArchiveOnApprove archives billable items on approval instead of
	// waiting for payment confirmation.
	ArchiveOnApprove bool
}

// Engine mutates the item collection and keeps it consistent with the
// persisted document.
type Engine struct {
	store  *store.Store
	ledger *ledger.Ledger
	policy Policy
	items  []item.Item
	now    func() time.Time
}

// New creates an engine over the given store and ledger, loading the current
// collection.
func New(st *store.Store, led *ledger.Ledger, policy Policy) *Engine {
	return &Engine{
		store:  st,
		ledger: led,
		policy: policy,
		items:  st.Load(),
		now:    time.Now,
	}
}

// NewWithClock creates an engine with an injected clock, for tests.
func NewWithClock(st *store.Store, led *ledger.Ledger, policy Policy, now func() time.Time) *Engine {
	eng := New(st, led, policy)
	eng.now = now

	return eng
}

// Items returns a copy of the current collection.
func (e *Engine) Items() []item.Item {
	out := make([]item.Item, len(e.items))
	copy(out, e.items)

	return out
}

// Find returns a copy of the item with the given id.
func (e *Engine) Find(id string) (item.Item, bool) {
	it, err := e.find(id)
	if err != nil {
		return item.Item{}, false
	}

	return *it, true
}

// Reload re-reads the collection from the store, discarding in-memory state.
func (e *Engine) Reload() {
	e.items = e.store.Load()
}

// Ledger returns the attachment ledger.
func (e *Engine) Ledger() *ledger.Ledger {
	return e.ledger
}

// CreateParams are the inputs for Create.
type CreateParams struct {
	Title    string
	Type     string
	Client   string
	Project  string
	Billable bool
	// Actor is attributed on the initial-attachments entry if files are given.
	Actor string
	Files []ledger.File
}

// Create adds a new item in the ready state, seeding a system "Task created"
// entry. Initial attachments, if any, are recorded as a separate entry from
// the creating actor. Returns the created item and any per-file warnings.
func (e *Engine) Create(p CreateParams) (item.Item, []error, error) {
	if strings.TrimSpace(p.Title) == "" {
		return item.Item{}, nil, ErrTitleRequired
	}

	it := item.New(p.Title, p.Type, p.Client, p.Project, p.Billable, e.now())

	var warnings []error

	if len(p.Files) > 0 {
		warnings = e.ledger.Append(&it, p.Actor, "Initial attachments", p.Files)
	}

	e.items = append(e.items, it)

	persistErr := e.persist()
	if persistErr != nil {
		return item.Item{}, warnings, persistErr
	}

	return e.mustFind(it.ID), warnings, nil
}

// Start moves a ready item to inprogress.
func (e *Engine) Start(id string) (item.Item, error) {
	it, err := e.find(id)
	if err != nil {
		return item.Item{}, err
	}

	if it.Status != item.StatusReady {
		return item.Item{}, fmt.Errorf("%w (current status: %s)", ErrNotReady, it.Status)
	}

	it.Status = item.StatusInProgress
	it.CompletedAt = nil
	it.UpdatedAt = e.now()

	return e.persistAndReturn(id)
}

// Reopen moves an inprogress item back to ready.
func (e *Engine) Reopen(id string) (item.Item, error) {
	it, err := e.find(id)
	if err != nil {
		return item.Item{}, err
	}

	if it.Status != item.StatusInProgress {
		return item.Item{}, fmt.Errorf("%w (current status: %s)", ErrNotInProgress, it.Status)
	}

	it.Status = item.StatusReady
	it.CompletedAt = nil
	it.UpdatedAt = e.now()

	return e.persistAndReturn(id)
}

// CompleteParams are the inputs for Complete.
type CompleteParams struct {
	Hours   float64
	Rate    float64
	Comment string
	Files   []ledger.File
}

// Complete moves an inprogress item to completed: locks in hours and rate,
// recomputes the amount, stamps the completion time, and flags the item as
// awaiting client approval. Hours must be positive and the comment non-empty;
// violations are rejected before any mutation or persistence.
func (e *Engine) Complete(id string, p CompleteParams) (item.Item, []error, error) {
	if strings.TrimSpace(p.Comment) == "" {
		return item.Item{}, nil, ErrCommentRequired
	}

	if p.Hours <= 0 {
		return item.Item{}, nil, ErrHoursRequired
	}

	if p.Rate < 0 {
		return item.Item{}, nil, ErrNegativeRate
	}

	it, err := e.find(id)
	if err != nil {
		return item.Item{}, nil, err
	}

	if it.Status != item.StatusInProgress {
		return item.Item{}, nil, fmt.Errorf("%w (current status: %s)", ErrNotInProgress, it.Status)
	}

	now := e.now()
	it.Hours = &p.Hours
	it.RateAtCompletion = &p.Rate
	it.RecomputeAmount()
	it.Status = item.StatusCompleted
	it.CompletedAt = &now
	it.NeedsClientApproval = true
	it.ClientApproved = false
	it.Archived = e.policy.ArchiveOnComplete
	it.UpdatedAt = now

	warnings := e.ledger.Append(it, item.ActorDev, strings.TrimSpace(p.Comment), p.Files)

	updated, persistErr := e.persistAndReturn(id)

	return updated, warnings, persistErr
}

// Approve records the client's sign-off on a completed item. Re-invoking on an
// already-approved item is a no-op in effect but appends a duplicate entry;
// that is an accepted retry side effect, not an error. Non-billable items are
// archived here since no payment cycle follows them.
func (e *Engine) Approve(id string) (item.Item, error) {
	it, err := e.find(id)
	if err != nil {
		return item.Item{}, err
	}

	if it.Status != item.StatusCompleted {
		return item.Item{}, fmt.Errorf("%w (current status: %s)", ErrNotCompleted, it.Status)
	}

	it.ClientApproved = true
	it.NeedsClientApproval = false

	if !it.Billable || e.policy.ArchiveOnApprove {
		it.Archived = true
	}

	e.ledger.Append(it, item.ActorClient, "Approved", nil)

	return e.persistAndReturn(id)
}

// RequestChanges bounces a completed item back to the developer: clears the
// approval flags, sets the review flag, and moves the item to inprogress
// (un-archiving it if needed). The comment is required.
func (e *Engine) RequestChanges(id, comment string, files []ledger.File) (item.Item, []error, error) {
	if strings.TrimSpace(comment) == "" {
		return item.Item{}, nil, ErrCommentRequired
	}

	it, err := e.find(id)
	if err != nil {
		return item.Item{}, nil, err
	}

	if it.Status != item.StatusCompleted {
		return item.Item{}, nil, fmt.Errorf("%w (current status: %s)", ErrNotCompleted, it.Status)
	}

	it.ReviewRequested = true
	it.NeedsClientApproval = false
	it.ClientApproved = false
	it.Status = item.StatusInProgress
	it.CompletedAt = nil
	it.Archived = false

	warnings := e.ledger.Append(it, item.ActorClient, strings.TrimSpace(comment), files)

	updated, persistErr := e.persistAndReturn(id)

	return updated, warnings, persistErr
}

// RespondParams are the inputs for RespondToChanges.
type RespondParams struct {
	Comment string
	// Hours and Rate replace the locked-in values when set.
	Hours *float64
	Rate  *float64
	Files []ledger.File
}

// RespondToChanges is the developer's answer to a review request: appends the
// response, optionally updates hours/rate, and sends the item back to the
// client as completed and awaiting approval.
func (e *Engine) RespondToChanges(id string, p RespondParams) (item.Item, []error, error) {
	if strings.TrimSpace(p.Comment) == "" {
		return item.Item{}, nil, ErrCommentRequired
	}

	it, err := e.find(id)
	if err != nil {
		return item.Item{}, nil, err
	}

	if !it.ReviewRequested {
		return item.Item{}, nil, ErrNoReviewRequested
	}

	warnings := e.ledger.Append(it, item.ActorDev, strings.TrimSpace(p.Comment), p.Files)

	if p.Hours != nil {
		it.Hours = p.Hours
	}

	if p.Rate != nil {
		it.RateAtCompletion = p.Rate
	}

	it.RecomputeAmount()

	now := e.now()
	it.Status = item.StatusCompleted
	it.CompletedAt = &now
	it.ReviewRequested = false
	it.NeedsClientApproval = true
	it.ClientApproved = false
	it.UpdatedAt = now

	updated, persistErr := e.persistAndReturn(id)

	return updated, warnings, persistErr
}

// MarkPaid flags each matching item as paid by the client. Ids that match no
// item are silently skipped; partial success is not modeled. Returns the
// number of items updated.
func (e *Engine) MarkPaid(ids []string) (int, error) {
	now := e.now()
	updated := 0

	for idx := range e.items {
		it := &e.items[idx]
		if !slices.Contains(ids, it.ID) {
			continue
		}

		it.PaymentRequested = true
		it.PaymentRequestedAt = &now
		e.ledger.Append(it, item.ActorClient, "Marked as Paid", nil)

		updated++
	}

	if updated == 0 {
		return 0, nil
	}

	return updated, e.persist()
}

// ConfirmPayment records the developer's receipt confirmation for each
// matching item and archives it - the terminal event for billable items.
func (e *Engine) ConfirmPayment(ids []string) (int, error) {
	now := e.now()
	updated := 0

	for idx := range e.items {
		it := &e.items[idx]
		if !slices.Contains(ids, it.ID) {
			continue
		}

		it.PaymentConfirmedByDev = true
		it.PaymentConfirmedAt = &now
		it.Archived = true
		e.ledger.Append(it, item.ActorDev, "Confirmed receipt of payment", nil)

		updated++
	}

	if updated == 0 {
		return 0, nil
	}

	return updated, e.persist()
}

// Delete removes the item outright, at any stage. Hard delete, no tombstone.
func (e *Engine) Delete(id string) error {
	_, err := e.find(id)
	if err != nil {
		return err
	}

	kept := make([]item.Item, 0, len(e.items)-1)

	for _, it := range e.items {
		if it.ID != id {
			kept = append(kept, it)
		}
	}

	e.items = kept

	return e.persist()
}

// Metadata carries the editable item fields. Nil fields are left unchanged.
type Metadata struct {
	Title    *string
	Client   *string
	Project  *string
	Billable *bool
}

// EditMetadata updates title/client/project/billable in any state.
func (e *Engine) EditMetadata(id string, meta Metadata) (item.Item, error) {
	if meta.Title != nil && strings.TrimSpace(*meta.Title) == "" {
		return item.Item{}, ErrTitleRequired
	}

	it, err := e.find(id)
	if err != nil {
		return item.Item{}, err
	}

	if meta.Title != nil {
		it.Title = strings.TrimSpace(*meta.Title)
	}

	if meta.Client != nil {
		it.Client = strings.TrimSpace(*meta.Client)
	}

	if meta.Project != nil {
		it.Project = strings.TrimSpace(*meta.Project)
	}

	if meta.Billable != nil {
		it.Billable = *meta.Billable
	}

	it.UpdatedAt = e.now()

	return e.persistAndReturn(id)
}

// Comment appends a bare conversation entry from the given actor, with
// optional attachments. The append is its own transaction: the collection is
// persisted before returning.
func (e *Engine) Comment(id, actor, comment string, files []ledger.File) (item.Item, []error, error) {
	it, err := e.find(id)
	if err != nil {
		return item.Item{}, nil, err
	}

	warnings := e.ledger.Append(it, actor, strings.TrimSpace(comment), files)

	updated, persistErr := e.persistAndReturn(id)

	return updated, warnings, persistErr
}

// find returns a pointer into the live collection.
func (e *Engine) find(id string) (*item.Item, error) {
	for idx := range e.items {
		if e.items[idx].ID == id {
			return &e.items[idx], nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrItemNotFound, id)
}

// mustFind returns a copy of an item known to exist.
func (e *Engine) mustFind(id string) item.Item {
	it, err := e.find(id)
	if err != nil {
		panic(err)
	}

	return *it
}

// persist routes the collection through the store and adopts the sanitized
// result, so in-memory state matches what the next load would see.
func (e *Engine) persist() error {
	clean, err := e.store.Persist(e.items)
	if err != nil {
		return fmt.Errorf("persisting items: %w", err)
	}

	e.items = clean

	return nil
}

func (e *Engine) persistAndReturn(id string) (item.Item, error) {
	persistErr := e.persist()
	if persistErr != nil {
		return item.Item{}, persistErr
	}

	return e.mustFind(id), nil
}
