// Package storage provides the persisted local state that mirrors the admin
// session across runs, the way browser local storage does for a page.
package storage

import "errors"

// ErrNotFound is returned when a named entry has never been set or was removed.
var ErrNotFound = errors.New("entry not found")

// Entry names used to mirror the admin session.
const (
	KeyAdminToken    = "adminToken"
	KeyAdminUsername = "adminUsername"
)

// BatchTx provides Set and Remove within an atomic transaction.
type BatchTx interface {
	Set(key string, value string) error
	Remove(key string) error
}

// Store defines named string entries that survive process restarts.
// Remove of an absent entry is not an error.
type Store interface {
	Get(key string) (string, error)
	Set(key string, value string) error
	Remove(key string) error
	Batch(fn func(tx BatchTx) error) error
}
