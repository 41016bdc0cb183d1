package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	id "didgate/pkg/domain"
	audit "didgate/pkg/platform/audit"
	txcontext "didgate/pkg/platform/tx"
)

// Store implements audit.Store on the audit_events table. Inside a
// transaction carried by ctx the event commits or rolls back with it.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	category := event.Category
	if category == "" {
		category = audit.AuditEvent(event.Action).Category()
	}

	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO audit_events (
			id, category, action, timestamp, user_id, service_id,
			subject, reason, request_id, client_ip, device
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		uuid.New(),
		string(category),
		event.Action,
		event.Timestamp,
		nullableUUID(uuid.UUID(event.UserID)),
		nullableUUID(uuid.UUID(event.ServiceID)),
		event.Subject,
		event.Reason,
		event.RequestID,
		event.ClientIP,
		event.Device,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

func (s *Store) ListByUser(ctx context.Context, userID id.UserID) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT category, action, timestamp, service_id, subject, reason, request_id, client_ip, device
		FROM audit_events
		WHERE user_id = $1
		ORDER BY timestamp
	`, uuid.UUID(userID))
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var (
			e         audit.Event
			category  string
			serviceID uuid.NullUUID
		)
		if err := rows.Scan(&category, &e.Action, &e.Timestamp, &serviceID,
			&e.Subject, &e.Reason, &e.RequestID, &e.ClientIP, &e.Device); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.Category = audit.EventCategory(category)
		e.UserID = userID
		if serviceID.Valid {
			e.ServiceID = id.ServiceID(serviceID.UUID)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}

func nullableUUID(u uuid.UUID) uuid.NullUUID {
	return uuid.NullUUID{UUID: u, Valid: u != uuid.Nil}
}
