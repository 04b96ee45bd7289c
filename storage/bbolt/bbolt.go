// Package bbolt provides a BBolt-backed storage.Store.
package bbolt

import (
	"fmt"

	"github.com/jmcleod/clubdesk/storage"
	"go.etcd.io/bbolt"
)

// bucketName holds every persisted entry, mirroring a single local-storage scope.
var bucketName = []byte("local")

// Store implements storage.Store backed by a BBolt database.
type Store struct {
	db *bbolt.DB
}

var _ storage.Store = (*Store)(nil)

// NewStore returns a Store backed by the given BBolt database.
func NewStore(db *bbolt.DB) *Store {
	return &Store{db: db}
}

// NewStoreFromFile opens a BBolt database at the given path and returns a new Store.
func NewStoreFromFile(path string, options *bbolt.Options) (*Store, error) {
	db, err := bbolt.Open(path, 0600, options)
	if err != nil {
		return nil, fmt.Errorf("opening bbolt db: %w", err)
	}
	return NewStore(db), nil
}

// Close closes the underlying BBolt database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Get(key string) (string, error) {
	var value string
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName)
		if b == nil {
			return fmt.Errorf("%s: %w", key, storage.ErrNotFound)
		}
		data := b.Get([]byte(key))
		if data == nil {
			return fmt.Errorf("%s: %w", key, storage.ErrNotFound)
		}
		value = string(data)
		return nil
	})
	if err != nil {
		return "", err
	}
	return value, nil
}

func (s *Store) Set(key, value string) error {
	return s.Batch(func(tx storage.BatchTx) error {
		return tx.Set(key, value)
	})
}

func (s *Store) Remove(key string) error {
	return s.Batch(func(tx storage.BatchTx) error {
		return tx.Remove(key)
	})
}

type boltBatchTx struct {
	bucket *bbolt.Bucket
}

func (tx *boltBatchTx) Set(key, value string) error {
	return tx.bucket.Put([]byte(key), []byte(value))
}

func (tx *boltBatchTx) Remove(key string) error {
	return tx.bucket.Delete([]byte(key))
}

func (s *Store) Batch(fn func(tx storage.BatchTx) error) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketName)
		if err != nil {
			return err
		}
		return fn(&boltBatchTx{bucket: b})
	})
}
