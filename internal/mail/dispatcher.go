// Package mail formats and delivers order notification emails.
//
// Delivery is decoupled from the request path: handlers and services enqueue
// messages on the Dispatcher, background workers drain the queue, and
// transport failures are logged but never surfaced to the original caller.
package mail

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cookieshop/backend/internal/domain/order"
)

// drainTimeout bounds the delivery of messages still queued when the
// dispatcher stops.
const drainTimeout = 10 * time.Second

// Compile-time check: the Dispatcher is the Notifier used by the order
// workflow.
var _ order.Notifier = (*Dispatcher)(nil)

// Dispatcher is a fire-and-forget email queue with background workers.
type Dispatcher struct {
	sender Sender
	lg     *zap.Logger
	queue  chan Message

	eg     *errgroup.Group
	cancel context.CancelFunc
}

// NewDispatcher creates a Dispatcher with the given queue capacity. Start
// must be called before messages are drained.
func NewDispatcher(sender Sender, lg *zap.Logger, queueSize int) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Dispatcher{
		sender: sender,
		lg:     lg,
		queue:  make(chan Message, queueSize),
	}
}

// Start launches the worker goroutines. Workers stop when ctx is cancelled
// or Stop is called.
func (d *Dispatcher) Start(ctx context.Context, workers int) {
	if workers <= 0 {
		workers = 1
	}
	ctx, d.cancel = context.WithCancel(ctx)
	d.eg, ctx = errgroup.WithContext(ctx)
	for range workers {
		d.eg.Go(func() error {
			d.worker(ctx)
			return nil
		})
	}
}

// Stop cancels the workers and waits for them to finish. Messages still
// queued at that point are drained (with a deadline) rather than dropped, so
// stopping the dispatcher after the HTTP server has shut down keeps the
// notifications of late-accepted orders.
func (d *Dispatcher) Stop() {
	if d.cancel != nil {
		d.cancel()
	}
	if d.eg != nil {
		_ = d.eg.Wait()
	}
}

// Enqueue hands a message to the workers without blocking. When the queue is
// full the message is dropped with a log line; notification mail carries no
// delivery guarantee.
func (d *Dispatcher) Enqueue(msg Message) {
	select {
	case d.queue <- msg:
	default:
		d.lg.Warn("notification queue full, dropping email",
			zap.String("to", msg.To),
			zap.String("subject", msg.Subject),
		)
	}
}

// OrderPlaced enqueues the customer confirmation and, when an admin address
// is known, the admin alert.
func (d *Dispatcher) OrderPlaced(o *order.Order, adminEmail string) {
	d.Enqueue(Message{
		To:      o.Customer.Email,
		Subject: ConfirmationSubject(o),
		HTML:    ConfirmationHTML(o),
	})
	if adminEmail != "" {
		d.Enqueue(Message{
			To:      adminEmail,
			Subject: AdminAlertSubject(o),
			HTML:    AdminAlertHTML(o),
		})
	}
}

// StatusChanged enqueues a status-change notice to the customer.
func (d *Dispatcher) StatusChanged(o *order.Order) {
	d.Enqueue(Message{
		To:      o.Customer.Email,
		Subject: StatusUpdateSubject(o),
		HTML:    StatusUpdateHTML(o),
	})
}

func (d *Dispatcher) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			d.drain()
			return
		case msg := <-d.queue:
			d.send(ctx, msg)
		}
	}
}

// drain delivers whatever is still queued at shutdown. The run context is
// already cancelled here, so delivery gets its own deadline.
func (d *Dispatcher) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	for {
		select {
		case msg := <-d.queue:
			d.send(ctx, msg)
		default:
			return
		}
	}
}

// send attempts one delivery and reports the outcome as a boolean plus a log
// entry. Nothing, including a panicking transport, escapes this boundary.
func (d *Dispatcher) send(ctx context.Context, msg Message) (ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			d.lg.Error("email transport panicked", zap.Any("panic", rec))
			ok = false
		}
	}()

	if err := d.sender.Send(ctx, msg); err != nil {
		d.lg.Error("email send failed",
			zap.String("to", msg.To),
			zap.String("subject", msg.Subject),
			zap.Error(err),
		)
		return false
	}

	d.lg.Info("email sent",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
	)
	return true
}
