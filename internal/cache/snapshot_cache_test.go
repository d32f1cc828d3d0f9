package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-wellness/aura-core/pkg/models"
)

func TestNew_EmptyAddrIsNil(t *testing.T) {
	assert.Nil(t, New(""))
}

// A nil cache is the unconfigured state; every method must be a safe no-op.
func TestNilCache_NoOps(t *testing.T) {
	var c *SnapshotCache

	c.Publish(&models.Snapshot{})
	c.Publish(nil)

	snapshot, err := c.Latest(context.Background())
	require.NoError(t, err)
	assert.Nil(t, snapshot)

	assert.NoError(t, c.Close())
}

func TestNew_ConfiguredAddr(t *testing.T) {
	c := New("localhost:6379")
	require.NotNil(t, c)
	assert.NoError(t, c.Close())
}
