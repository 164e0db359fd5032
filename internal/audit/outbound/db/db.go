package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shandysiswandi/safex/internal/audit/entity"
	"github.com/shandysiswandi/safex/internal/pkg/goerror"
	"github.com/shandysiswandi/safex/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// execer is satisfied by *pgxpool.Pool and pgx.Tx.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type DB struct {
	conn execer
	ins  instrument.Instrumentation
}

func NewDB(conn execer, ins instrument.Instrumentation) *DB {
	return &DB{conn: conn, ins: ins}
}

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
	return s.ins.Tracer("audit.outbound.db").Start(ctx, name)
}

func (s *DB) endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

const queryCreateLog = `INSERT INTO audit_logs (id, user_id, action, details, created_at)
VALUES ($1, $2, $3, $4, $5)`

func (s *DB) CreateLog(ctx context.Context, l entity.Log) (err error) {
	ctx, span := s.startSpan(ctx, "CreateLog")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, queryCreateLog, l.ID, l.UserID, l.Action, l.Details, l.CreatedAt)
	return s.mapError(err)
}
