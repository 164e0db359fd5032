package memory

import (
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/safex/internal/mfa/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Basic(t *testing.T) {
	s := NewStore()

	_, ok := s.Get("u1")
	assert.False(t, ok)

	s.Put("u1", entity.Challenge{CodeHash: "a"})
	s.Put("u1", entity.Challenge{CodeHash: "b"})

	got, ok := s.Get("u1")
	require.True(t, ok)
	assert.Equal(t, "b", got.CodeHash)
	assert.Equal(t, "u1", got.SubjectID)
	assert.Equal(t, 1, s.Len())

	s.Delete("u1")
	assert.Equal(t, 0, s.Len())
}

func TestStore_Update(t *testing.T) {
	t.Run("PutDeleteKeep", func(t *testing.T) {
		s := NewStore()

		s.Update("u1", func(_ entity.Challenge, ok bool) (entity.Challenge, entity.StoreOp) {
			assert.False(t, ok)
			return entity.Challenge{Attempts: 1}, entity.OpPut
		})
		s.Update("u1", func(cur entity.Challenge, ok bool) (entity.Challenge, entity.StoreOp) {
			assert.True(t, ok)
			cur.Attempts = 99
			return cur, entity.OpKeep
		})

		got, ok := s.Get("u1")
		require.True(t, ok)
		assert.Equal(t, 1, got.Attempts)

		s.Update("u1", func(cur entity.Challenge, _ bool) (entity.Challenge, entity.StoreOp) {
			return cur, entity.OpDelete
		})
		_, ok = s.Get("u1")
		assert.False(t, ok)
	})

	t.Run("ConcurrentIncrementsAreSerialized", func(t *testing.T) {
		// Arrange
		s := NewStore()
		s.Put("u1", entity.Challenge{})
		var wg sync.WaitGroup

		// Act
		for range 200 {
			wg.Go(func() {
				s.Update("u1", func(cur entity.Challenge, _ bool) (entity.Challenge, entity.StoreOp) {
					cur.Attempts++
					return cur, entity.OpPut
				})
			})
		}
		wg.Wait()

		// Assert
		got, _ := s.Get("u1")
		assert.Equal(t, 200, got.Attempts)
	})
}

func TestStore_RangeAndDeleteIf(t *testing.T) {
	// Arrange
	now := time.Now()
	s := NewStore()
	s.Put("expired", entity.Challenge{CodeHash: "h", ExpiresAt: now.Add(-time.Minute)})
	s.Put("pending", entity.Challenge{CodeHash: "h", ExpiresAt: now.Add(time.Minute)})
	s.Put("blocked", entity.Challenge{BlockedUntil: now.Add(time.Minute)})

	seen := 0
	s.Range(func(c entity.Challenge) bool {
		seen++
		s.Len()
		return true
	})

	// Act
	removed := s.DeleteIf(func(c entity.Challenge) bool { return c.Reclaimable(now) })

	// Assert
	assert.Equal(t, 3, seen)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 2, s.Len())
	_, ok := s.Get("expired")
	assert.False(t, ok)
}

func TestStore_RangeStops(t *testing.T) {
	s := NewStore()
	s.Put("a", entity.Challenge{})
	s.Put("b", entity.Challenge{})

	seen := 0
	s.Range(func(entity.Challenge) bool {
		seen++
		return false
	})

	assert.Equal(t, 1, seen)
}
