package mail

import (
	"context"
	"log/slog"
	"time"
)

const sendTimeout = 30 * time.Second

// Dispatcher drains a queue of outbound messages on a background goroutine.
type Dispatcher struct {
	sender Sender
	queue  chan Message
	logger *slog.Logger
}

// NewDispatcher constructs a Dispatcher with a buffered queue.
func NewDispatcher(sender Sender, logger *slog.Logger, buffer int) *Dispatcher {
	if buffer <= 0 {
		buffer = 64
	}
	return &Dispatcher{
		sender: sender,
		queue:  make(chan Message, buffer),
		logger: logger,
	}
}

// Enqueue hands a message to the dispatcher without blocking. When the queue
// is full the message is dropped and logged; senders never wait on delivery.
func (d *Dispatcher) Enqueue(msg Message) {
	select {
	case d.queue <- msg:
	default:
		d.logger.Warn("mail queue full, dropping message", "to", msg.To, "subject", msg.Subject)
	}
}

// Run processes the queue until the context is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-d.queue:
			d.deliver(ctx, msg)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, msg Message) {
	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	if err := d.sender.Send(sendCtx, msg); err != nil {
		d.logger.Error("email delivery failed", "to", msg.To, "subject", msg.Subject, "error", err)
		return
	}
	d.logger.Info("email sent", "to", msg.To, "subject", msg.Subject)
}
