package uid

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUID_Generate(t *testing.T) {
	g := NewUUID()

	a, b := g.Generate(), g.Generate()

	id, err := uuid.Parse(a)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())
	assert.NotEqual(t, a, b)
}
