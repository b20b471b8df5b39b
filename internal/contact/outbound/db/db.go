package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shandysiswandi/contactgate/internal/contact/entity"
	"github.com/shandysiswandi/contactgate/internal/pkg/goerror"
	"github.com/shandysiswandi/contactgate/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	schemaSQL = `create table if not exists contact_messages (
	id            bigint primary key,
	name          varchar(100) not null,
	email         varchar(320) not null,
	body          text not null,
	credential_id varchar(64) not null unique,
	created_at    timestamptz not null
)`

	insertMessageSQL = `insert into contact_messages (id, name, email, body, credential_id, created_at)
values ($1, $2, $3, $4, $5, $6)`
)

// Conn is the subset of *pgxpool.Pool used by DB.
type Conn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

type DB struct {
	conn Conn
	ins  instrument.Instrumentation
}

func NewDB(conn Conn, ins instrument.Instrumentation) *DB {
	return &DB{conn: conn, ins: ins}
}

// mapError turns a unique violation (credential already stored) into
// goerror.ErrConflict.
func (s *DB) mapError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return goerror.ErrConflict
	}

	return err
}

func (s *DB) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("contact.outbound.db").Start(ctx, name)
}

func (s *DB) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrConflict) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// EnsureSchema creates the contact_messages table when missing.
func (s *DB) EnsureSchema(ctx context.Context) (err error) {
	ctx, span := s.startSpan(ctx, "EnsureSchema")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, schemaSQL)
	return s.mapError(err)
}

func (s *DB) CreateMessage(ctx context.Context, msg entity.Message) (err error) {
	ctx, span := s.startSpan(ctx, "CreateMessage")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, insertMessageSQL,
		msg.ID, msg.Name, msg.Email, msg.Body, msg.CredentialID, msg.CreatedAt)
	return s.mapError(err)
}
