package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"didgate/internal/directory"
	id "didgate/pkg/domain"
	"didgate/pkg/platform/sentinel"
	txcontext "didgate/pkg/platform/tx"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Postgres is the directory backed by the schema in internal/platform/postgres.
// Statements join a transaction carried in ctx when one is present.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) conn(ctx context.Context) dbtx {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func translate(err error, op string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return sentinel.ErrConflict
	}
	return fmt.Errorf("%s: %w", op, err)
}

const serviceColumns = `id, name, redirect_url, logout_url, webhook_url, created_at, updated_at`

func scanService(row *sql.Row) (*directory.Service, error) {
	var (
		svc directory.Service
		sid uuid.UUID
	)
	if err := row.Scan(&sid, &svc.Name, &svc.RedirectURL, &svc.LogoutURL, &svc.WebhookURL, &svc.CreatedAt, &svc.UpdatedAt); err != nil {
		return nil, err
	}
	svc.ID = id.ServiceID(sid)
	return &svc, nil
}

func (s *Postgres) FindService(ctx context.Context, serviceID id.ServiceID) (*directory.Service, error) {
	row := s.conn(ctx).QueryRowContext(ctx,
		`SELECT `+serviceColumns+` FROM services WHERE id = $1`, uuid.UUID(serviceID))
	svc, err := scanService(row)
	if err != nil {
		return nil, translate(err, "find service")
	}
	return svc, nil
}

func (s *Postgres) FindServiceByName(ctx context.Context, name string) (*directory.Service, error) {
	row := s.conn(ctx).QueryRowContext(ctx,
		`SELECT `+serviceColumns+` FROM services WHERE name = $1`, name)
	svc, err := scanService(row)
	if err != nil {
		return nil, translate(err, "find service by name")
	}
	return svc, nil
}

func (s *Postgres) CreateService(ctx context.Context, service *directory.Service) error {
	_, err := s.conn(ctx).ExecContext(ctx, `
		INSERT INTO services (`+serviceColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.UUID(service.ID), service.Name, service.RedirectURL, service.LogoutURL,
		service.WebhookURL, service.CreatedAt, service.UpdatedAt)
	if err != nil {
		return translate(err, "create service")
	}
	return nil
}

func (s *Postgres) PreferredKey(ctx context.Context, serviceID id.ServiceID, kind directory.KeyKind) (*directory.Key, error) {
	var (
		key      directory.Key
		kid, sid uuid.UUID
		rawKind  string
	)
	err := s.conn(ctx).QueryRowContext(ctx, `
		SELECT id, service_id, kind, value, priority, is_active, created_at
		FROM keys
		WHERE service_id = $1 AND kind = $2 AND is_active
		ORDER BY priority DESC, created_at DESC
		LIMIT 1`, uuid.UUID(serviceID), string(kind),
	).Scan(&kid, &sid, &rawKind, &key.Value, &key.Priority, &key.IsActive, &key.CreatedAt)
	if err != nil {
		return nil, translate(err, "find preferred key")
	}
	key.ID = id.KeyID(kid)
	key.ServiceID = id.ServiceID(sid)
	key.Kind = directory.KeyKind(rawKind)
	return &key, nil
}

func (s *Postgres) CreateKey(ctx context.Context, key *directory.Key) error {
	_, err := s.conn(ctx).ExecContext(ctx, `
		INSERT INTO keys (id, service_id, kind, value, priority, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.UUID(key.ID), uuid.UUID(key.ServiceID), string(key.Kind), key.Value,
		key.Priority, key.IsActive, key.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return sentinel.ErrNotFound
		}
		return translate(err, "create key")
	}
	return nil
}

func (s *Postgres) DefaultDefinition(ctx context.Context, serviceID id.ServiceID) (*directory.Definition, error) {
	var (
		def      directory.Definition
		did, sid uuid.UUID
		fields   []byte
	)
	err := s.conn(ctx).QueryRowContext(ctx, `
		SELECT id, service_id, name, fields, is_default
		FROM definitions
		WHERE service_id = $1 AND is_default`, uuid.UUID(serviceID),
	).Scan(&did, &sid, &def.Name, &fields, &def.IsDefault)
	if err != nil {
		return nil, translate(err, "find default definition")
	}
	if err := json.Unmarshal(fields, &def.Fields); err != nil {
		return nil, fmt.Errorf("decode definition fields: %w", err)
	}
	def.ID = id.DefinitionID(did)
	def.ServiceID = id.ServiceID(sid)
	return &def, nil
}

// SetDefaultDefinition demotes any current default and inserts def in one
// transaction.
func (s *Postgres) SetDefaultDefinition(ctx context.Context, def *directory.Definition) error {
	fields, err := json.Marshal(def.Fields)
	if err != nil {
		return fmt.Errorf("encode definition fields: %w", err)
	}
	return txcontext.Run(ctx, s.db, func(ctx context.Context) error {
		if _, err := s.conn(ctx).ExecContext(ctx,
			`UPDATE definitions SET is_default = FALSE WHERE service_id = $1 AND is_default`,
			uuid.UUID(def.ServiceID)); err != nil {
			return translate(err, "demote default definition")
		}
		_, err := s.conn(ctx).ExecContext(ctx, `
			INSERT INTO definitions (id, service_id, name, fields, is_default)
			VALUES ($1, $2, $3, $4, TRUE)`,
			uuid.UUID(def.ID), uuid.UUID(def.ServiceID), def.Name, fields)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
				return sentinel.ErrNotFound
			}
			return translate(err, "insert definition")
		}
		def.IsDefault = true
		return nil
	})
}

func (s *Postgres) FindUser(ctx context.Context, userID id.UserID) (*directory.User, error) {
	var (
		user     directory.User
		uid, sid uuid.UUID
	)
	err := s.conn(ctx).QueryRowContext(ctx,
		`SELECT id, service_id, created_at FROM users WHERE id = $1`, uuid.UUID(userID),
	).Scan(&uid, &sid, &user.CreatedAt)
	if err != nil {
		return nil, translate(err, "find user")
	}
	user.ID = id.UserID(uid)
	user.ServiceID = id.ServiceID(sid)
	return &user, nil
}

func (s *Postgres) findIdentifier(ctx context.Context, where string, arg any) (*directory.Identifier, error) {
	var (
		ident    directory.Identifier
		iid, uid uuid.UUID
	)
	err := s.conn(ctx).QueryRowContext(ctx,
		`SELECT id, value, user_id, created_at FROM identifiers WHERE `+where+` = $1`, arg,
	).Scan(&iid, &ident.Value, &uid, &ident.CreatedAt)
	if err != nil {
		return nil, translate(err, "find identifier")
	}
	ident.ID = id.IdentifierID(iid)
	ident.UserID = id.UserID(uid)
	return &ident, nil
}

func (s *Postgres) FindIdentifier(ctx context.Context, identifierID id.IdentifierID) (*directory.Identifier, error) {
	return s.findIdentifier(ctx, "id", uuid.UUID(identifierID))
}

func (s *Postgres) FindIdentifierByValue(ctx context.Context, value string) (*directory.Identifier, error) {
	return s.findIdentifier(ctx, "value", value)
}

func (s *Postgres) Register(ctx context.Context, user *directory.User, identifier *directory.Identifier) error {
	return txcontext.Run(ctx, s.db, func(ctx context.Context) error {
		if _, err := s.conn(ctx).ExecContext(ctx,
			`INSERT INTO users (id, service_id, created_at) VALUES ($1, $2, $3)`,
			uuid.UUID(user.ID), uuid.UUID(user.ServiceID), user.CreatedAt); err != nil {
			return translate(err, "insert user")
		}
		if _, err := s.conn(ctx).ExecContext(ctx,
			`INSERT INTO identifiers (id, value, user_id, created_at) VALUES ($1, $2, $3, $4)`,
			uuid.UUID(identifier.ID), identifier.Value, uuid.UUID(identifier.UserID), identifier.CreatedAt); err != nil {
			return translate(err, "insert identifier")
		}
		return nil
	})
}

var (
	_ directory.ServiceStore    = (*Postgres)(nil)
	_ directory.KeyStore        = (*Postgres)(nil)
	_ directory.DefinitionStore = (*Postgres)(nil)
	_ directory.UserStore       = (*Postgres)(nil)
	_ directory.IdentifierStore = (*Postgres)(nil)
	_ directory.Registrar       = (*Postgres)(nil)
)
