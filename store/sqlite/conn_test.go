package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConn_OpenReusesExistingHandle(t *testing.T) {
	// GIVEN: A connection whose first open succeeded
	c := &conn{path: filepath.Join(t.TempDir(), "staff.db")}
	ctx := context.Background()
	require.NoError(t, c.open(ctx, staffSchema))
	t.Cleanup(func() { c.Close() })
	first := c.db

	// WHEN: A later initialization attempt opens again, the way Initialize
	// retries after failing past the open step
	require.NoError(t, c.open(ctx, staffSchema))

	// THEN: The original handle is kept, not leaked and replaced
	assert.Same(t, first, c.db)
}
