// Package domain defines the roster model and the operations over it.
package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"example.com/roster/internal/observability"
)

var (
	// ErrActivityNotFound is returned when no activity has the requested name.
	ErrActivityNotFound = errors.New("activity not found")
	// ErrParticipantNotFound is returned when the email is not on the activity's roster.
	ErrParticipantNotFound = errors.New("participant not found in this activity")
	// ErrAlreadySignedUp is returned when the email is already on the activity's roster.
	ErrAlreadySignedUp = errors.New("student already signed up for this activity")
)

// Registry stores activities and their rosters. Implementations must make
// AddParticipant and RemoveParticipant atomic with respect to each other.
type Registry interface {
	List(ctx context.Context) (map[string]Activity, error)
	AddParticipant(ctx context.Context, activity, email string) (Activity, error)
	RemoveParticipant(ctx context.Context, activity, email string) (Activity, error)
}

// EventPublisher receives accepted roster changes.
type EventPublisher interface {
	Publish(ctx context.Context, event RosterEvent) error
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, RosterEvent) error { return nil }

// Service orchestrates roster workflows.
type Service struct {
	registry  Registry
	publisher EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

// Option configures optional Service behaviour.
type Option func(*Service)

// WithPublisher routes accepted roster changes to p.
func WithPublisher(p EventPublisher) Option {
	return func(s *Service) {
		if p != nil {
			s.publisher = p
		}
	}
}

// WithLogger overrides the service logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService constructs a Service.
func NewService(registry Registry, opts ...Option) *Service {
	s := &Service{
		registry:  registry,
		publisher: noopPublisher{},
		logger:    zap.NewNop(),
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListActivities returns every activity keyed by name.
func (s *Service) ListActivities(ctx context.Context) (map[string]Activity, error) {
	return s.registry.List(ctx)
}

// Signup appends email to the roster of the named activity.
// Capacity is not checked.
func (s *Service) Signup(ctx context.Context, activity, email string) error {
	updated, err := s.registry.AddParticipant(ctx, activity, email)
	if err != nil {
		observability.RecordRejected("signup", rejectReason(err))
		return fmt.Errorf("signup %q: %w", activity, err)
	}
	observability.RecordSignup(updated.Name, len(updated.Participants))
	s.publish(ctx, EventParticipantSignedUp, updated.Name, email)
	return nil
}

// Unregister removes email from the roster of the named activity.
func (s *Service) Unregister(ctx context.Context, activity, email string) error {
	updated, err := s.registry.RemoveParticipant(ctx, activity, email)
	if err != nil {
		observability.RecordRejected("unregister", rejectReason(err))
		return fmt.Errorf("unregister %q: %w", activity, err)
	}
	observability.RecordUnregister(updated.Name, len(updated.Participants))
	s.publish(ctx, EventParticipantUnregistered, updated.Name, email)
	return nil
}

// publish never fails the caller; the registry is the source of truth.
func (s *Service) publish(ctx context.Context, eventType EventType, activity, email string) {
	event := RosterEvent{
		EventID:    uuid.NewString(),
		EventType:  eventType,
		Activity:   activity,
		Email:      email,
		OccurredAt: s.now(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("roster event not published",
			zap.String("event_type", string(eventType)),
			zap.String("activity", activity),
			zap.Error(err),
		)
	}
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, ErrActivityNotFound):
		return "activity_not_found"
	case errors.Is(err, ErrParticipantNotFound):
		return "participant_not_found"
	case errors.Is(err, ErrAlreadySignedUp):
		return "already_signed_up"
	default:
		return "error"
	}
}
