package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"studycore/internal/store"
)

// NewTestDB creates an in-memory store with all migrations applied.
func NewTestDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.OpenMemory()
	require.NoError(t, err)
	return db
}

// MustClose closes a resource and fails the test on error.
func MustClose(t *testing.T, closer interface{ Close() error }) {
	t.Helper()
	require.NoError(t, closer.Close())
}
