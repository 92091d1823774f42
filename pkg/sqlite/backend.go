// Package sqlite provides the public API for the SQLite inventory store.
// This package exposes the factory function for creating SQLite backends
// while keeping implementation details internal.
package sqlite

import (
	"github.com/mesh-intelligence/satchel/internal/sqlite"
	"github.com/mesh-intelligence/satchel/pkg/types"
)

// Store is a persistent Fabric store that also keeps a journal of slot
// changes.
type Store interface {
	types.Store
	types.Journal
}

// NewBackend creates a new SQLite store. Item types of stored stacks are
// rebuilt with resolver; a nil resolver keeps the types as stored. The
// store is not attached; call Attach with a Config to initialize.
//
// Example:
//
//	store := sqlite.NewBackend(catalog.New())
//	err := store.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".satchel-db",
//	})
//	defer store.Detach()
func NewBackend(resolver types.ItemResolver) Store {
	if resolver == nil {
		return sqlite.NewBackend()
	}
	return sqlite.NewBackend(sqlite.WithResolver(resolver))
}
