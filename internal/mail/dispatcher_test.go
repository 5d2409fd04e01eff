package mail

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type captureSender struct {
	mu   sync.Mutex
	sent []Message
	err  error
}

func (s *captureSender) Send(_ context.Context, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func (s *captureSender) messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.sent))
	copy(out, s.sent)
	return out
}

func waitForMessages(t *testing.T, s *captureSender, n int) []Message {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(s.messages()) >= n
	}, 2*time.Second, 10*time.Millisecond)
	return s.messages()
}

func TestDispatcher_OrderPlaced(t *testing.T) {
	sender := &captureSender{}
	d := NewDispatcher(sender, zap.NewNop(), 8)
	d.Start(context.Background(), 1)
	defer d.Stop()

	o := sampleOrder()
	d.OrderPlaced(o, "admin@cookieshop.lk")

	msgs := waitForMessages(t, sender, 2)
	assert.Equal(t, "nimal@example.com", msgs[0].To)
	assert.Equal(t, ConfirmationSubject(o), msgs[0].Subject)
	assert.Equal(t, "admin@cookieshop.lk", msgs[1].To)
	assert.Equal(t, AdminAlertSubject(o), msgs[1].Subject)
}

func TestDispatcher_OrderPlaced_NoAdminEmail(t *testing.T) {
	sender := &captureSender{}
	d := NewDispatcher(sender, zap.NewNop(), 8)
	d.Start(context.Background(), 1)
	defer d.Stop()

	d.OrderPlaced(sampleOrder(), "")

	msgs := waitForMessages(t, sender, 1)
	// Without an admin address only the customer confirmation goes out.
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, sender.messages(), len(msgs))
	assert.Equal(t, "nimal@example.com", msgs[0].To)
}

func TestDispatcher_StatusChanged(t *testing.T) {
	sender := &captureSender{}
	d := NewDispatcher(sender, zap.NewNop(), 8)
	d.Start(context.Background(), 2)
	defer d.Stop()

	o := sampleOrder()
	o.Status = "Shipped"
	d.StatusChanged(o)

	msgs := waitForMessages(t, sender, 1)
	assert.Equal(t, "nimal@example.com", msgs[0].To)
	assert.Contains(t, msgs[0].Subject, "Shipped")
}

func TestDispatcher_QueueFullDrops(t *testing.T) {
	// No workers running: the queue fills and further enqueues must not block.
	d := NewDispatcher(&captureSender{}, zap.NewNop(), 1)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for range 5 {
			d.Enqueue(Message{To: "a@b.lk", Subject: "x"})
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Enqueue blocked on a full queue")
	}
}

func TestDispatcher_StopDrainsQueue(t *testing.T) {
	sender := &captureSender{}
	d := NewDispatcher(sender, zap.NewNop(), 8)

	// Queue fills before any worker runs, then the workers start on an
	// already-cancelled context. Stop must still deliver everything queued.
	o := sampleOrder()
	d.OrderPlaced(o, "admin@cookieshop.lk")
	d.StatusChanged(o)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Start(ctx, 1)
	d.Stop()

	assert.Len(t, sender.messages(), 3)
}

func TestDispatcher_SendErrorAbsorbed(t *testing.T) {
	sender := &captureSender{err: errors.New("smtp down")}
	d := NewDispatcher(sender, zap.NewNop(), 1)

	ok := d.send(context.Background(), Message{To: "a@b.lk", Subject: "x"})
	assert.False(t, ok)
}

type panicSender struct{}

func (panicSender) Send(context.Context, Message) error { panic("boom") }

func TestDispatcher_SendPanicAbsorbed(t *testing.T) {
	d := NewDispatcher(panicSender{}, zap.NewNop(), 1)

	ok := d.send(context.Background(), Message{To: "a@b.lk", Subject: "x"})
	assert.False(t, ok)
}

func TestMockSender_AlwaysSucceeds(t *testing.T) {
	s := NewMockSender(zap.NewNop())

	err := s.Send(context.Background(), Message{To: "a@b.lk", Subject: "x", HTML: "<p>hi</p>"})
	require.NoError(t, err)
}
