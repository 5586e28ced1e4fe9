package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateID(t *testing.T) {
	id := GenerateID("bid")
	require.True(t, strings.HasPrefix(id, "bid-"))
	_, err := uuid.Parse(strings.TrimPrefix(id, "bid-"))
	require.NoError(t, err)

	assert.NotEqual(t, GenerateID("bid"), GenerateID("bid"))

	_, err = uuid.Parse(GenerateID(""))
	assert.NoError(t, err)
}

func TestManualClock(t *testing.T) {
	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewManualClock(start)
	assert.Equal(t, start, c.Now())

	c.Advance(time.Minute)
	assert.Equal(t, start.Add(time.Minute), c.Now())

	c.Set(start)
	assert.Equal(t, start, c.Now())
}
