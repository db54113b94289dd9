package events

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"example.com/roster/internal/domain"
)

const flushTimeout = 5 * time.Second

// ErrBufferFull is returned by Publish when the dispatch buffer has no room.
var ErrBufferFull = errors.New("event buffer full")

type batchWriter interface {
	WriteEvents(context.Context, ...domain.RosterEvent) error
}

// Dispatcher buffers roster events and delivers them in the background so that
// request handlers never wait on the broker.
type Dispatcher struct {
	writer           batchWriter
	queue            chan domain.RosterEvent
	batchSize        int
	logger           *zap.Logger
	shutdownComplete chan struct{}
}

// NewDispatcher constructs a Dispatcher with room for bufferSize pending events.
func NewDispatcher(writer batchWriter, bufferSize, batchSize int, logger *zap.Logger) *Dispatcher {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	if batchSize <= 0 {
		batchSize = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		writer:           writer,
		queue:            make(chan domain.RosterEvent, bufferSize),
		batchSize:        batchSize,
		logger:           logger,
		shutdownComplete: make(chan struct{}),
	}
}

// Publish implements domain.EventPublisher. It never blocks; a full buffer
// drops the event.
func (d *Dispatcher) Publish(_ context.Context, event domain.RosterEvent) error {
	select {
	case d.queue <- event:
		return nil
	default:
		droppedCounter.Inc()
		return ErrBufferFull
	}
}

// Start runs the delivery loop until ctx is cancelled, then flushes whatever is
// still buffered. It should be called in a goroutine.
func (d *Dispatcher) Start(ctx context.Context) {
	defer close(d.shutdownComplete)

	for {
		if ctx.Err() != nil {
			d.flush(nil)
			return
		}

		select {
		case <-ctx.Done():
			d.flush(nil)
			return
		case event := <-d.queue:
			batch := d.collect(event)
			if err := d.deliver(ctx, batch); err != nil && ctx.Err() != nil {
				// Interrupted by shutdown; retry with the flush deadline.
				d.flush(batch)
				return
			}
		}
	}
}

// Wait blocks until the delivery loop has exited.
func (d *Dispatcher) Wait() {
	<-d.shutdownComplete
}

// collect gathers first plus any immediately available events up to batchSize.
func (d *Dispatcher) collect(first domain.RosterEvent) []domain.RosterEvent {
	batch := []domain.RosterEvent{first}
	for len(batch) < d.batchSize {
		select {
		case event := <-d.queue:
			batch = append(batch, event)
		default:
			return batch
		}
	}
	return batch
}

// flush delivers pending and then drains the queue under its own deadline.
func (d *Dispatcher) flush(pending []domain.RosterEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()

	if len(pending) > 0 {
		_ = d.deliver(ctx, pending)
	}

	for {
		select {
		case event := <-d.queue:
			_ = d.deliver(ctx, d.collect(event))
		default:
			return
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, batch []domain.RosterEvent) error {
	start := time.Now()
	defer func() { batchDuration.Observe(time.Since(start).Seconds()) }()

	if err := d.writer.WriteEvents(ctx, batch...); err != nil {
		if ctx.Err() == nil {
			failedCounter.Add(float64(len(batch)))
			d.logger.Error("roster events delivery failed", zap.Int("count", len(batch)), zap.Error(err))
		}
		return err
	}
	deliveredCounter.Add(float64(len(batch)))
	return nil
}
