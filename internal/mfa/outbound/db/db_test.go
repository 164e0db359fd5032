package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/safex/internal/pkg/goerror"
	"github.com/shandysiswandi/safex/internal/pkg/instrument"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i := range dest {
		switch d := dest[i].(type) {
		case *string:
			*d = r.values[i].(string)
		case **bool:
			if v, ok := r.values[i].(*bool); ok {
				*d = v
			}
		}
	}
	return nil
}

type fakeQuerier struct {
	row  fakeRow
	sql  string
	args []any
}

func (q *fakeQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	q.sql, q.args = sql, args
	return q.row
}

func TestDB_GetSubject(t *testing.T) {
	t.Run("Found", func(t *testing.T) {
		// Arrange
		on := true
		q := &fakeQuerier{row: fakeRow{values: []any{"user-1", "ana@safex.test", "Ana", &on}}}
		db := NewDB(q, instrument.NewNoop())

		// Act
		sub, err := db.GetSubject(context.Background(), "user-1")

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "user-1", sub.ID)
		assert.Equal(t, "ana@safex.test", sub.Email)
		assert.Equal(t, "Ana", sub.Name)
		require.NotNil(t, sub.Local2FAEnabled)
		assert.True(t, *sub.Local2FAEnabled)
		assert.Equal(t, []any{"user-1"}, q.args)
		assert.Contains(t, q.sql, "FROM users")
	})

	t.Run("NullFlag", func(t *testing.T) {
		q := &fakeQuerier{row: fakeRow{values: []any{"user-1", "a@b.c", "", nil}}}

		sub, err := NewDB(q, instrument.NewNoop()).GetSubject(context.Background(), "user-1")

		require.NoError(t, err)
		assert.Nil(t, sub.Local2FAEnabled)
	})

	t.Run("NotFound", func(t *testing.T) {
		q := &fakeQuerier{row: fakeRow{err: pgx.ErrNoRows}}

		_, err := NewDB(q, instrument.NewNoop()).GetSubject(context.Background(), "ghost")

		assert.ErrorIs(t, err, goerror.ErrNotFound)
	})

	t.Run("Failure", func(t *testing.T) {
		boom := errors.New("conn reset")
		q := &fakeQuerier{row: fakeRow{err: boom}}

		_, err := NewDB(q, instrument.NewNoop()).GetSubject(context.Background(), "user-1")

		assert.ErrorIs(t, err, boom)
	})
}
