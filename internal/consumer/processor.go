// Package consumer reads roster events from Kafka and hands them to a Handler.
package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"example.com/roster/internal/domain"
	"example.com/roster/internal/events"
)

// Reader exposes the minimal kafka.Reader interface needed by the processor.
type Reader interface {
	FetchMessage(context.Context) (kafka.Message, error)
	CommitMessages(context.Context, ...kafka.Message) error
	Close() error
}

// Handler receives decoded roster events.
type Handler interface {
	Handle(context.Context, Message) error
}

// Message is a decoded roster record along with its Kafka coordinates.
type Message struct {
	Topic     string
	Partition int
	Offset    int64
	Event     domain.RosterEvent
	Payload   json.RawMessage
}

const (
	defaultRetryBase = 100 * time.Millisecond
	defaultRetryMax  = 5 * time.Second
)

// Option configures optional behaviour for the Processor.
type Option func(*Processor)

// WithLogger overrides the logger used to report errors.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Processor) {
		p.logger = logger
	}
}

// WithRetryBackoff sets the initial and maximum delay between attempts after a
// fetch or handler failure. The delay doubles on each consecutive failure.
func WithRetryBackoff(base, maxDelay time.Duration) Option {
	return func(p *Processor) {
		p.retryBase = base
		p.retryMax = maxDelay
	}
}

// Processor pulls messages from Kafka, decodes them, and dispatches to a Handler.
// A message that fails in the handler is retried until it succeeds or the
// context ends; the processor never commits past an unhandled message.
type Processor struct {
	reader    Reader
	handler   Handler
	logger    *zap.Logger
	retryBase time.Duration
	retryMax  time.Duration
}

// NewProcessor constructs a Processor with the provided reader and handler.
func NewProcessor(reader Reader, handler Handler, opts ...Option) *Processor {
	p := &Processor{
		reader:    reader,
		handler:   handler,
		logger:    zap.NewNop(),
		retryBase: defaultRetryBase,
		retryMax:  defaultRetryMax,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run starts a blocking loop that processes Kafka messages until the context is
// cancelled or the reader is closed.
func (p *Processor) Run(ctx context.Context) error {
	fetchFailures := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		msg, err := p.reader.FetchMessage(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				return err
			}
			fetchFailures++
			p.logger.Warn("fetch error", zap.Int("attempt", fetchFailures), zap.Error(err))
			if err := sleep(ctx, p.backoff(fetchFailures)); err != nil {
				return err
			}
			continue
		}
		fetchFailures = 0

		decoded, decodeErr := decodeMessage(msg)
		if decodeErr != nil {
			p.logger.Warn("decode error",
				zap.String("topic", msg.Topic),
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
				zap.Error(decodeErr),
			)
			recordDecodeError(msg.Topic)
			// Commit malformed messages to avoid poison-pill loops.
			if commitErr := p.reader.CommitMessages(ctx, msg); commitErr != nil {
				p.logger.Warn("commit error after decode failure", zap.Error(commitErr))
			}
			continue
		}

		if err := p.handle(ctx, decoded); err != nil {
			return err
		}

		if commitErr := p.reader.CommitMessages(ctx, msg); commitErr != nil {
			p.logger.Warn("commit error", zap.Error(commitErr))
		} else {
			recordProcessed(decoded)
		}
	}
}

// handle calls the handler until it succeeds. It only returns an error once ctx
// is done.
func (p *Processor) handle(ctx context.Context, msg Message) error {
	for attempt := 1; ; attempt++ {
		handleErr := p.handler.Handle(ctx, msg)
		if handleErr == nil {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		p.logger.Error("handler error",
			zap.String("event_type", string(msg.Event.EventType)),
			zap.String("activity", msg.Event.Activity),
			zap.Int64("offset", msg.Offset),
			zap.Int("attempt", attempt),
			zap.Error(handleErr),
		)
		recordHandlerError(msg)

		if err := sleep(ctx, p.backoff(attempt)); err != nil {
			return err
		}
	}
}

func (p *Processor) backoff(attempt int) time.Duration {
	delay := p.retryBase
	for i := 1; i < attempt && delay < p.retryMax; i++ {
		delay *= 2
	}
	return min(delay, p.retryMax)
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func decodeMessage(msg kafka.Message) (Message, error) {
	eventType, ok := headerValue(msg, events.HeaderEventType)
	if !ok {
		return Message{}, errors.New("missing event_type header")
	}

	var event domain.RosterEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return Message{}, fmt.Errorf("decode payload: %w", err)
	}
	if string(event.EventType) != string(eventType) {
		return Message{}, fmt.Errorf("event_type header %q does not match payload %q", eventType, event.EventType)
	}
	if event.EventID == "" || event.Activity == "" {
		return Message{}, errors.New("payload missing event_id or activity")
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = msg.Time
	}

	return Message{
		Topic:     msg.Topic,
		Partition: msg.Partition,
		Offset:    msg.Offset,
		Event:     event,
		Payload:   json.RawMessage(append([]byte(nil), msg.Value...)),
	}, nil
}

func headerValue(msg kafka.Message, key string) ([]byte, bool) {
	for _, header := range msg.Headers {
		if header.Key == key {
			return header.Value, true
		}
	}
	return nil, false
}
