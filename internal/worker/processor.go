package worker

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nexoraai/nexora_server/internal/pkg/logger"
	"github.com/nexoraai/nexora_server/internal/pkg/queue"
)

const (
	DefaultMaxAttempts   = 3
	DefaultPopErrorDelay = time.Second
	maxPopErrorDelay     = 30 * time.Second
	popTimeout           = 5 * time.Second
)

// PaymentHandler activates the plan paid by a payment.
type PaymentHandler interface {
	ProcessPayment(ctx context.Context, paymentID string) error
}

// Source is the queue the worker drains.
type Source interface {
	Push(ctx context.Context, msg *queue.PaymentMessage) error
	Pop(ctx context.Context, timeout time.Duration) (*queue.PaymentMessage, error)
}

// Processor handles queued Mercado Pago notifications. Failed messages go
// back on the queue until MaxAttempts is reached.
type Processor struct {
	payments    PaymentHandler
	source      Source
	MaxAttempts int

	// PopErrorDelay is the first pause after a failed Pop; it doubles on
	// consecutive failures up to 30s.
	PopErrorDelay time.Duration
}

func NewProcessor(payments PaymentHandler, source Source) *Processor {
	return &Processor{
		payments:      payments,
		source:        source,
		MaxAttempts:   DefaultMaxAttempts,
		PopErrorDelay: DefaultPopErrorDelay,
	}
}

// Process runs one message. The returned error is the processing error, even
// when the message was requeued.
func (p *Processor) Process(ctx context.Context, msg *queue.PaymentMessage) error {
	log := logger.WithComponent("worker").WithFields(logrus.Fields{
		"payment_id": msg.PaymentID,
		"attempt":    msg.Attempts + 1,
	})

	err := p.payments.ProcessPayment(ctx, msg.PaymentID)
	if err == nil {
		log.Debug("payment processed")
		return nil
	}

	msg.Attempts++
	if msg.Attempts >= p.MaxAttempts {
		log.WithError(err).Error("payment dropped after max attempts")
		return err
	}
	if pushErr := p.source.Push(ctx, msg); pushErr != nil {
		log.WithError(pushErr).Error("failed to requeue payment")
	} else {
		log.WithError(err).Warn("payment requeued")
	}
	return err
}

// Run starts workers goroutines draining the queue and blocks until ctx is
// cancelled and every worker has returned.
func (p *Processor) Run(ctx context.Context, workers int) {
	if workers <= 0 {
		workers = 1
	}
	log := logger.WithComponent("worker")

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			delay := p.PopErrorDelay
			for {
				select {
				case <-ctx.Done():
					log.WithField("worker_id", workerID).Info("worker shutting down")
					return
				default:
				}

				msg, err := p.source.Pop(ctx, popTimeout)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					log.WithError(err).WithFields(logrus.Fields{"worker_id": workerID, "retry_in": delay}).Error("failed to pop payment")
					if !sleep(ctx, delay) {
						return
					}
					delay = nextDelay(delay)
					continue
				}
				delay = p.PopErrorDelay
				if msg == nil {
					continue
				}

				_ = p.Process(ctx, msg)
			}
		}(i)
	}
	wg.Wait()
}

// sleep waits for d and reports false when ctx ends first.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func nextDelay(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultPopErrorDelay
	}
	d *= 2
	if d > maxPopErrorDelay {
		d = maxPopErrorDelay
	}
	return d
}
