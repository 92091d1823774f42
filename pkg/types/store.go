package types

import (
	"errors"
	"time"
)

// FabricInfo describes a named Fabric held by a Store.
type FabricInfo struct {
	FabricID  string    // UUID v7, generated on creation.
	Name      string    // Unique, human-chosen name.
	Archetype string    // Archetype used to build the Fabric's lens tree.
	Size      int       // Number of ordinals.
	CreatedAt time.Time // Timestamp of creation.
}

// Store owns persistent Fabrics. Callers attach to a backend, create or
// open Fabrics by name, and detach when done.
type Store interface {
	// Attach connects the store to the backend described by config.
	// Returns ErrAlreadyAttached if called while already attached.
	Attach(config Config) error

	// Detach releases backend resources. Idempotent.
	Detach() error

	// CreateFabric creates an empty Fabric with size ordinals.
	// Returns ErrFabricExists if name is taken.
	CreateFabric(name, archetype string, size int) (FabricInfo, error)

	// OpenFabric loads the named Fabric. Returns ErrFabricNotFound if the
	// name is unknown.
	OpenFabric(name string) (Fabric, FabricInfo, error)

	// ListFabrics returns every Fabric ordered by name.
	ListFabrics() ([]FabricInfo, error)
}

// Journal operation names recorded by the CLI.
const (
	OpInsert = "insert"
	OpAppend = "append"
	OpPoll   = "poll"
	OpClear  = "clear"
)

// JournalEntry is one audited slot change: the value before and after a
// committed write.
type JournalEntry struct {
	EntryID   string    // UUID v7, generated on record.
	Fabric    string    // Fabric name.
	Ordinal   int       // Fabric ordinal that changed.
	Operation string    // One of the Op constants.
	Original  SlotValue // Value before the write; nil when empty.
	Final     SlotValue // Value after the write; nil when empty.
	CreatedAt time.Time // Timestamp of record.
}

// Journal consumes before/after pairs produced by inventory operations.
type Journal interface {
	// Record appends entries in order. EntryID and CreatedAt are assigned.
	Record(entries []JournalEntry) error

	// History returns the most recent entries for fabric, newest first.
	// A non-positive limit returns every entry.
	History(fabric string, limit int) ([]JournalEntry, error)
}

// Store lifecycle errors.
var (
	ErrStoreDetached   = errors.New("store is detached")
	ErrAlreadyAttached = errors.New("store is already attached")
	ErrFabricNotFound  = errors.New("fabric not found")
	ErrFabricExists    = errors.New("fabric already exists")
	ErrInvalidName     = errors.New("invalid fabric name")
	ErrInvalidSize     = errors.New("fabric size must be positive")
)

// Lookup and parsing errors.
var (
	ErrArchetypeNotFound = errors.New("archetype not found")
	ErrInvalidArchetype  = errors.New("invalid archetype")
	ErrInvalidQuery      = errors.New("invalid query term")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
	ErrInvalidSnapshot   = errors.New("invalid fabric snapshot")
)
