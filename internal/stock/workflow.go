package stock

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/vichambarde/serverroom/internal/models"
	"github.com/vichambarde/serverroom/internal/notify"
)

var tracer = otel.Tracer("github.com/vichambarde/serverroom/internal/stock")

// Dispatcher queues a message for asynchronous delivery.
type Dispatcher interface {
	Dispatch(msg notify.Message)
}

// Rejection reasons reported to the Recorder. Request input never becomes a
// label, since item names on a rejected request are unauthenticated.
const (
	RejectUnknownItem  = "unknown_item"
	RejectInsufficient = "insufficient"
)

// Recorder observes workflow outcomes. A nil Recorder is allowed.
type Recorder interface {
	EntryCreated(item string, qty int)
	StockRejected(reason string)
	LowStockAlert(item string)
}

// Workflow validates a request against the catalog, reserves stock, writes
// the ledger entry and notifies the configured recipient.
type Workflow struct {
	store     Store
	notifier  Dispatcher
	recipient string
	recorder  Recorder
	now       func() time.Time
	newID     func() string
}

type WorkflowOption func(*Workflow)

// WithRecorder attaches a metrics recorder.
func WithRecorder(r Recorder) WorkflowOption {
	return func(w *Workflow) { w.recorder = r }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) WorkflowOption {
	return func(w *Workflow) { w.now = now }
}

func NewWorkflow(store Store, notifier Dispatcher, recipient string, opts ...WorkflowOption) *Workflow {
	w := &Workflow{
		store:     store,
		notifier:  notifier,
		recipient: recipient,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Validate reports the required fields that are missing or blank. The
// request is not modified; entries keep the values exactly as submitted.
func Validate(req models.SubmitRequest) error {
	var bad []string
	if blank(req.FullName) {
		bad = append(bad, "fullName")
	}
	if blank(req.Department) {
		bad = append(bad, "department")
	}
	if blank(req.MobileNumber) {
		bad = append(bad, "mobileNumber")
	}
	if blank(req.ItemTaken) {
		bad = append(bad, "itemTaken")
	}
	if req.Quantity < 1 {
		bad = append(bad, "quantity")
	}
	if len(bad) > 0 {
		return &ValidationError{Fields: bad}
	}
	return nil
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// Submit issues req.Quantity units of req.ItemTaken to the requester.
func (w *Workflow) Submit(ctx context.Context, req models.SubmitRequest) (models.Entry, error) {
	ctx, span := tracer.Start(ctx, "stock.Submit")
	defer span.End()

	if err := Validate(req); err != nil {
		span.SetStatus(codes.Error, "validation")
		return models.Entry{}, err
	}
	span.SetAttributes(
		attribute.String("inventory.item", req.ItemTaken),
		attribute.Int("inventory.quantity", req.Quantity),
	)

	item, err := w.store.Catalog().FindByName(ctx, req.ItemTaken)
	if errors.Is(err, ErrItemNotFound) {
		return models.Entry{}, w.reject(RejectUnknownItem)
	}
	if err != nil {
		span.RecordError(err)
		return models.Entry{}, &StorageError{Op: "find item", Err: err}
	}
	if item.Quantity < req.Quantity {
		return models.Entry{}, w.reject(RejectInsufficient)
	}

	entry := models.Entry{
		ID:           w.newID(),
		FullName:     req.FullName,
		Department:   req.Department,
		MobileNumber: req.MobileNumber,
		ItemTaken:    req.ItemTaken,
		Quantity:     req.Quantity,
		Purpose:      req.Purpose,
		Timestamp:    w.now(),
	}

	// The lookup above is advisory; Reserve re-checks under the store's lock.
	stored, remaining, err := w.store.Reserve(ctx, entry)
	if errors.Is(err, ErrInsufficientStock) {
		return models.Entry{}, w.reject(RejectInsufficient)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "reserve")
		return models.Entry{}, &StorageError{Op: "reserve", Err: err}
	}
	if w.recorder != nil {
		w.recorder.EntryCreated(stored.ItemTaken, stored.Quantity)
	}

	w.notify(stored, remaining)
	return stored, nil
}

func (w *Workflow) reject(reason string) error {
	if w.recorder != nil {
		w.recorder.StockRejected(reason)
	}
	return ErrInsufficientStock
}

func (w *Workflow) notify(e models.Entry, remaining int) {
	if w.notifier == nil {
		return
	}
	if msg, err := notify.RequestIssued(w.recipient, e); err != nil {
		log.Printf("[Stock] %v", err)
	} else {
		w.notifier.Dispatch(msg)
	}

	if remaining > models.LowStockThreshold {
		return
	}
	if w.recorder != nil {
		w.recorder.LowStockAlert(e.ItemTaken)
	}
	if msg, err := notify.LowStock(w.recipient, e.ItemTaken, remaining); err != nil {
		log.Printf("[Stock] %v", err)
	} else {
		w.notifier.Dispatch(msg)
	}
}
