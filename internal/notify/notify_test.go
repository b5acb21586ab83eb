package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/vichambarde/serverroom/internal/models"
)

type fakeSender struct {
	mu       sync.Mutex
	failures int
	sent     []Message
	attempts int
	block    chan struct{}
}

func (f *fakeSender) Send(ctx context.Context, msg Message) error {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts++
	if f.failures > 0 {
		f.failures--
		return errors.New("relay unavailable")
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeSender) snapshot() ([]Message, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Message(nil), f.sent...), f.attempts
}

type resultLog struct {
	mu      sync.Mutex
	results []error
}

func (r *resultLog) record(_ string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, err)
}

func (r *resultLog) all() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.results...)
}

func TestRequestIssuedTemplate(t *testing.T) {
	msg, err := RequestIssued("hod@example.com", models.Entry{
		FullName:   "Ada <script>",
		Department: "ECE",
		ItemTaken:  "Arduino Uno",
		Quantity:   4,
	})
	require.NoError(t, err)

	assert.Equal(t, KindRequestIssued, msg.Kind)
	assert.Equal(t, "hod@example.com", msg.To)
	assert.Equal(t, "New Component Request", msg.Subject)
	assert.Contains(t, msg.HTMLBody, "Arduino Uno")
	assert.Contains(t, msg.HTMLBody, "<td>4</td>")
	assert.Contains(t, msg.HTMLBody, "N/A")
	assert.Contains(t, msg.HTMLBody, "Ada &lt;script&gt;")
	assert.NotContains(t, msg.HTMLBody, "<script>")
}

func TestLowStockTemplate(t *testing.T) {
	msg, err := LowStock("hod@example.com", "Resistor", 3)
	require.NoError(t, err)

	assert.Equal(t, KindLowStock, msg.Kind)
	assert.Equal(t, "Low Stock Alert: Resistor", msg.Subject)
	assert.Equal(t, "<h3>The quantity for Resistor is low. Only 3 left.</h3>", msg.HTMLBody)
}

func TestDispatcher_DeliversAndCloses(t *testing.T) {
	defer goleak.VerifyNone(t)

	sender := &fakeSender{}
	results := &resultLog{}
	d := NewDispatcher(sender, WithResultFunc(results.record))

	d.Dispatch(Message{Kind: KindRequestIssued, To: "a@example.com", Subject: "one"})
	d.Dispatch(Message{Kind: KindLowStock, To: "a@example.com", Subject: "two"})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, d.Close(ctx))

	sent, _ := sender.snapshot()
	assert.Len(t, sent, 2)
	assert.Equal(t, []error{nil, nil}, results.all())
}

func TestDispatcher_RetriesTransientFailure(t *testing.T) {
	defer goleak.VerifyNone(t)

	sender := &fakeSender{failures: 2}
	results := &resultLog{}
	d := NewDispatcher(sender,
		WithMaxTries(3),
		WithRetryInterval(time.Millisecond),
		WithResultFunc(results.record),
	)

	d.Dispatch(Message{Kind: KindRequestIssued, To: "a@example.com"})
	require.NoError(t, d.Close(context.Background()))

	sent, attempts := sender.snapshot()
	assert.Len(t, sent, 1)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, []error{nil}, results.all())
}

func TestDispatcher_GivesUpAfterMaxTries(t *testing.T) {
	defer goleak.VerifyNone(t)

	sender := &fakeSender{failures: 10}
	results := &resultLog{}
	d := NewDispatcher(sender,
		WithMaxTries(2),
		WithRetryInterval(time.Millisecond),
		WithResultFunc(results.record),
	)

	d.Dispatch(Message{Kind: KindLowStock, To: "a@example.com"})
	require.NoError(t, d.Close(context.Background()))

	_, attempts := sender.snapshot()
	assert.Equal(t, 2, attempts)

	errs := results.all()
	require.Len(t, errs, 1)
	var nerr *NotificationError
	require.ErrorAs(t, errs[0], &nerr)
	assert.Equal(t, KindLowStock, nerr.Kind)
}

func TestDispatcher_TimeoutDropsMessage(t *testing.T) {
	defer goleak.VerifyNone(t)

	block := make(chan struct{})
	defer close(block)
	sender := &fakeSender{block: block}
	results := &resultLog{}
	d := NewDispatcher(sender,
		WithTimeout(20*time.Millisecond),
		WithMaxTries(1),
		WithResultFunc(results.record),
	)

	d.Dispatch(Message{Kind: KindRequestIssued, To: "a@example.com"})
	require.NoError(t, d.Close(context.Background()))

	errs := results.all()
	require.Len(t, errs, 1)
	assert.Error(t, errs[0])
}

func TestDispatcher_DropsAfterClose(t *testing.T) {
	defer goleak.VerifyNone(t)

	sender := &fakeSender{}
	d := NewDispatcher(sender)
	require.NoError(t, d.Close(context.Background()))

	d.Dispatch(Message{Kind: KindRequestIssued, To: "a@example.com"})

	sent, attempts := sender.snapshot()
	assert.Empty(t, sent)
	assert.Zero(t, attempts)
}
