package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shandysiswandi/contactgate/internal/contact/entity"
	"github.com/shandysiswandi/contactgate/internal/pkg/goerror"
	"github.com/shandysiswandi/contactgate/internal/pkg/instrument"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	sql     []string
	args    [][]any
	execErr error
}

func (c *fakeConn) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	c.sql = append(c.sql, sql)
	c.args = append(c.args, args)
	return pgconn.NewCommandTag("INSERT 0 1"), c.execErr
}

func TestDB_CreateMessage(t *testing.T) {
	conn := &fakeConn{}
	s := NewDB(conn, instrument.NewNoop())
	now := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)

	err := s.CreateMessage(context.Background(), entity.Message{
		ID: 1, Name: "Ada", Email: "ada@x.io", Body: "hi", CredentialID: "jti", CreatedAt: now,
	})

	require.NoError(t, err)
	require.Len(t, conn.sql, 1)
	assert.Equal(t, insertMessageSQL, conn.sql[0])
	assert.Equal(t, []any{int64(1), "Ada", "ada@x.io", "hi", "jti", now}, conn.args[0])
}

func TestDB_CreateMessage_Conflict(t *testing.T) {
	conn := &fakeConn{execErr: &pgconn.PgError{Code: "23505"}}
	s := NewDB(conn, instrument.NewNoop())

	err := s.CreateMessage(context.Background(), entity.Message{ID: 1})

	assert.ErrorIs(t, err, goerror.ErrConflict)
}

func TestDB_EnsureSchema(t *testing.T) {
	conn := &fakeConn{}
	require.NoError(t, NewDB(conn, instrument.NewNoop()).EnsureSchema(context.Background()))
	assert.Equal(t, []string{schemaSQL}, conn.sql)

	boom := errors.New("boom")
	conn.execErr = boom
	assert.ErrorIs(t, NewDB(conn, instrument.NewNoop()).EnsureSchema(context.Background()), boom)
}
