package bbolt

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/jmcleod/clubdesk/storage"
	"go.etcd.io/bbolt"
)

func newTestDB(t *testing.T) *bbolt.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state-test.db")
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		t.Fatalf("could not open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestBBoltStore(t *testing.T) {
	s := NewStore(newTestDB(t))

	t.Run("Get on empty database", func(t *testing.T) {
		_, err := s.Get(storage.KeyAdminToken)
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("SetGet", func(t *testing.T) {
		if err := s.Set(storage.KeyAdminToken, "tok-abc"); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		got, err := s.Get(storage.KeyAdminToken)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got != "tok-abc" {
			t.Errorf("expected tok-abc, got %q", got)
		}
	})

	t.Run("Remove", func(t *testing.T) {
		if err := s.Remove(storage.KeyAdminToken); err != nil {
			t.Fatalf("Remove failed: %v", err)
		}
		if _, err := s.Get(storage.KeyAdminToken); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		if err := s.Remove("never-set"); err != nil {
			t.Errorf("Remove of absent key should succeed, got %v", err)
		}
	})

	t.Run("Batch rollback", func(t *testing.T) {
		if err := s.Set(storage.KeyAdminUsername, "ms.smith"); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		boom := errors.New("boom")
		err := s.Batch(func(tx storage.BatchTx) error {
			if err := tx.Remove(storage.KeyAdminUsername); err != nil {
				return err
			}
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}
		got, err := s.Get(storage.KeyAdminUsername)
		if err != nil || got != "ms.smith" {
			t.Errorf("expected ms.smith after rollback, got %q (%v)", got, err)
		}
	})
}

func TestBBoltStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")

	s, err := NewStoreFromFile(path, nil)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if err := s.Set(storage.KeyAdminToken, "persisted"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	s, err = NewStoreFromFile(path, nil)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s.Close()
	got, err := s.Get(storage.KeyAdminToken)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != "persisted" {
		t.Errorf("expected persisted, got %q", got)
	}
}
