package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shandysiswandi/safex/internal/mfa/entity"
	"github.com/shandysiswandi/safex/internal/pkg/goerror"
	"github.com/shandysiswandi/safex/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// querier is satisfied by *pgxpool.Pool and pgx.Tx.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DB reads the user directory shared with the identity platform.
type DB struct {
	conn querier
	ins  instrument.Instrumentation
}

func NewDB(conn querier, ins instrument.Instrumentation) *DB {
	return &DB{conn: conn, ins: ins}
}

func (s *DB) mapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return goerror.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return goerror.ErrConflict
	}

	return err
}

func (s *DB) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("mfa.outbound.db").Start(ctx, name)
}

func (s *DB) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

const queryGetSubject = `SELECT uid, email, COALESCE(name, ''), local_2fa_enabled
FROM users
WHERE uid = $1`

func (s *DB) GetSubject(ctx context.Context, id string) (sub *entity.Subject, err error) {
	ctx, span := s.startSpan(ctx, "GetSubject")
	defer func() { s.endSpan(span, err) }()

	var (
		out     entity.Subject
		enabled *bool
	)
	if err = s.mapError(s.conn.QueryRow(ctx, queryGetSubject, id).Scan(&out.ID, &out.Email, &out.Name, &enabled)); err != nil {
		return nil, err
	}
	out.Local2FAEnabled = enabled

	return &out, nil
}
