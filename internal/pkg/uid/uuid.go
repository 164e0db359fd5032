package uid

import "github.com/google/uuid"

// UUID mints UUIDv7 strings, so ids sort by creation time.
type UUID struct{}

func NewUUID() *UUID { return &UUID{} }

func (*UUID) Generate() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}
