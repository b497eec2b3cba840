package repository

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProbeSchema(t *testing.T) {
	t.Run("migrated schema", func(t *testing.T) {
		pool := setupTestDB(t)

		caps, err := ProbeSchema(context.Background(), pool, zerolog.Nop())
		require.NoError(t, err)
		assert.Equal(t, FullSchema, caps)
	})

	t.Run("legacy schema", func(t *testing.T) {
		pool := setupLegacyTestDB(t)

		caps, err := ProbeSchema(context.Background(), pool, zerolog.Nop())
		require.NoError(t, err)
		assert.Equal(t, SchemaCapabilities{}, caps)
	})
}

func TestPrepareSchema(t *testing.T) {
	t.Run("migration disabled keeps the legacy columns", func(t *testing.T) {
		pool := setupLegacyTestDB(t)

		caps, err := PrepareSchema(context.Background(), pool, false, zerolog.Nop())
		require.NoError(t, err)
		assert.Equal(t, SchemaCapabilities{}, caps)

		again, err := ProbeSchema(context.Background(), pool, zerolog.Nop())
		require.NoError(t, err)
		assert.Equal(t, SchemaCapabilities{}, again, "no column was added")
	})

	t.Run("migration enabled upgrades a legacy schema", func(t *testing.T) {
		pool := setupLegacyTestDB(t)

		caps, err := PrepareSchema(context.Background(), pool, true, zerolog.Nop())
		require.NoError(t, err)
		assert.Equal(t, FullSchema, caps)
	})
}
