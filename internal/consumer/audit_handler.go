package consumer

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

//go:embed schema.sql
var auditSchema string

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// AuditHandler writes consumed roster events into Postgres. Redelivered events
// are ignored by event_id.
type AuditHandler struct {
	db execer
}

// NewAuditHandler constructs a handler backed by db, typically a *pgxpool.Pool.
func NewAuditHandler(db execer) *AuditHandler {
	return &AuditHandler{db: db}
}

// EnsureSchema creates the audit table if it does not exist.
func (h *AuditHandler) EnsureSchema(ctx context.Context) error {
	if _, err := h.db.Exec(ctx, auditSchema); err != nil {
		return fmt.Errorf("create audit schema: %w", err)
	}
	return nil
}

// Handle stores the event in roster_audit_log.
func (h *AuditHandler) Handle(ctx context.Context, msg Message) error {
	const stmt = `INSERT INTO roster_audit_log (event_id, event_type, activity, email, occurred_at, topic, partition, record_offset, payload)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        ON CONFLICT (event_id) DO NOTHING`

	_, err := h.db.Exec(ctx, stmt,
		msg.Event.EventID,
		string(msg.Event.EventType),
		msg.Event.Activity,
		msg.Event.Email,
		msg.Event.OccurredAt,
		msg.Topic,
		msg.Partition,
		msg.Offset,
		msg.Payload,
	)
	if err != nil {
		return fmt.Errorf("insert audit event %s: %w", msg.Event.EventID, err)
	}
	return nil
}
