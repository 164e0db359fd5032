package entity

import (
	"time"

	"github.com/shandysiswandi/safex/internal/pkg/valueobject"
)

// Log is one persisted audit row.
type Log struct {
	ID        string
	UserID    string
	Action    string
	Details   valueobject.JSONMap
	CreatedAt time.Time
}
