package sqlite_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmcleod/clubdesk/storage"
	"github.com/jmcleod/clubdesk/storage/sqlite"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.NewStoreFromFile(filepath.Join(t.TempDir(), "state.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStore_SetGetRemove(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Get(storage.KeyAdminToken)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.Set(storage.KeyAdminToken, "first"))
	require.NoError(t, s.Set(storage.KeyAdminToken, "second"))

	got, err := s.Get(storage.KeyAdminToken)
	require.NoError(t, err)
	assert.Equal(t, "second", got)

	require.NoError(t, s.Remove(storage.KeyAdminToken))
	require.NoError(t, s.Remove(storage.KeyAdminToken))
	_, err = s.Get(storage.KeyAdminToken)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSQLiteStore_BatchRollback(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Set(storage.KeyAdminUsername, "ms.smith"))

	boom := errors.New("boom")
	err := s.Batch(func(tx storage.BatchTx) error {
		require.NoError(t, tx.Set(storage.KeyAdminToken, "tok"))
		require.NoError(t, tx.Remove(storage.KeyAdminUsername))
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = s.Get(storage.KeyAdminToken)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	got, err := s.Get(storage.KeyAdminUsername)
	require.NoError(t, err)
	assert.Equal(t, "ms.smith", got)
}
