// Package storage defines the persistence contracts the services rely on.
// Backends (e.g. PostgreSQL) provide concrete implementations; lookups that
// find nothing return a nil record and a nil error.
//
//go:generate mockgen -package mockstorage -source=interface.go -destination=mock/mockstorage.go *
package storage

import "context"

// AllStorage is the union of all domain storage capabilities.
type AllStorage interface {
	MemberStorage
	PaymentStorage
	JobStorage
}

// TxStorage is a storage handle bound to an open transaction. It becomes
// unusable after Commit or Rollback.
type TxStorage interface {
	AllStorage

	// Commit finalizes the transaction, persisting all changes.
	Commit() error
	// Rollback aborts the transaction, discarding all uncommitted changes.
	Rollback() error
}

// Storage is a non-transactional storage handle able to start transactions.
type Storage interface {
	AllStorage

	// Close releases the resources held by the implementation (e.g. the
	// connection pool). The instance must not be used afterwards.
	Close() error

	// Begin starts a new transaction.
	Begin(ctx context.Context) (TxStorage, error)
	// WithTx begins a transaction, invokes cb with it, and commits when cb
	// returns nil or rolls back otherwise.
	WithTx(ctx context.Context, cb func(storage AllStorage) error) error
}
