package sqlite

import (
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/satchel/internal/logger"
	"github.com/mesh-intelligence/satchel/pkg/types"
)

var (
	_ types.Store   = (*Backend)(nil)
	_ types.Journal = (*Backend)(nil)
)

// Backend implements types.Store and types.Journal on a SQLite database
// in the configured data directory.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB
	log      *zap.SugaredLogger
	resolver types.ItemResolver
	now      func() time.Time
}

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the logger. The default discards everything.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(b *Backend) {
		if log != nil {
			b.log = log
		}
	}
}

// WithResolver sets the resolver used to rebuild item types from stored
// item IDs. Without one, the stored name key and max stack are used.
func WithResolver(r types.ItemResolver) Option {
	return func(b *Backend) { b.resolver = r }
}

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend(opts ...Option) *Backend {
	b := &Backend{
		log: zap.NewNop().Sugar(),
		now: func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Attach opens or creates the database in config.DataDir and applies the
// schema. Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return errors.Wrapf(err, "create data dir %s", dataDir)
	}

	dbPath := filepath.Join(dataDir, dbFile)
	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)")
	if err != nil {
		return errors.Wrapf(err, "open %s", dbPath)
	}
	// A single connection keeps writes serialized.
	db.SetMaxOpenConns(1)

	for _, stmt := range append(append([]string(nil), schemaDDL...), indexDDL...) {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return errors.Wrap(err, "apply schema")
		}
	}

	b.db = db
	b.config = config
	b.attached = true
	b.log.Debugw("store attached", logger.FieldPath, dbPath)
	return nil
}

// Detach closes the database. After Detach, all operations return
// ErrStoreDetached, including writes through Fabrics opened earlier.
// Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	if err := b.db.Close(); err != nil {
		return errors.Wrap(err, "close database")
	}
	b.db = nil
	b.attached = false
	b.log.Debugw("store detached")
	return nil
}

// CreateFabric creates an empty Fabric with size ordinals.
func (b *Backend) CreateFabric(name, archetype string, size int) (types.FabricInfo, error) {
	if err := validateName(name); err != nil {
		return types.FabricInfo{}, err
	}
	if size <= 0 {
		return types.FabricInfo{}, types.ErrInvalidSize
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return types.FabricInfo{}, types.ErrStoreDetached
	}

	var exists int
	err := b.db.QueryRow("SELECT 1 FROM fabrics WHERE name = ?", name).Scan(&exists)
	if err == nil {
		return types.FabricInfo{}, errors.Wrapf(types.ErrFabricExists, "fabric %q", name)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return types.FabricInfo{}, errors.Wrap(err, "check fabric name")
	}

	info := types.FabricInfo{
		FabricID:  generateUUID(),
		Name:      name,
		Archetype: archetype,
		Size:      size,
		CreatedAt: b.now(),
	}
	_, err = b.db.Exec(
		"INSERT INTO fabrics (fabric_id, name, archetype, size, created_at) VALUES (?, ?, ?, ?, ?)",
		info.FabricID, info.Name, info.Archetype, info.Size, info.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return types.FabricInfo{}, errors.Wrapf(err, "insert fabric %q", name)
	}
	b.log.Infow("fabric created",
		logger.FieldFabric, name,
		logger.FieldArchetype, archetype,
		logger.FieldCount, size,
	)
	return info, nil
}

// OpenFabric loads the named Fabric and its slots.
func (b *Backend) OpenFabric(name string) (types.Fabric, types.FabricInfo, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, types.FabricInfo{}, types.ErrStoreDetached
	}

	info, err := b.lookupLocked(name)
	if err != nil {
		return nil, types.FabricInfo{}, err
	}
	f, err := b.loadFabricLocked(info)
	if err != nil {
		return nil, types.FabricInfo{}, err
	}
	return f, info, nil
}

// ListFabrics returns every Fabric ordered by name.
func (b *Backend) ListFabrics() ([]types.FabricInfo, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, types.ErrStoreDetached
	}

	rows, err := b.db.Query("SELECT fabric_id, name, archetype, size, created_at FROM fabrics ORDER BY name")
	if err != nil {
		return nil, errors.Wrap(err, "list fabrics")
	}
	defer rows.Close()

	var out []types.FabricInfo
	for rows.Next() {
		info, err := scanFabricInfo(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, errors.Wrap(rows.Err(), "list fabrics")
}

// DeleteFabric removes the named Fabric together with its slots and
// journal entries.
func (b *Backend) DeleteFabric(name string) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return types.ErrStoreDetached
	}

	res, err := b.db.Exec("DELETE FROM fabrics WHERE name = ?", name)
	if err != nil {
		return errors.Wrapf(err, "delete fabric %q", name)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.Wrapf(types.ErrFabricNotFound, "fabric %q", name)
	}
	b.log.Infow("fabric deleted", logger.FieldFabric, name)
	return nil
}

func (b *Backend) lookupLocked(name string) (types.FabricInfo, error) {
	row := b.db.QueryRow("SELECT fabric_id, name, archetype, size, created_at FROM fabrics WHERE name = ?", name)
	info, err := scanFabricInfo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.FabricInfo{}, errors.Wrapf(types.ErrFabricNotFound, "fabric %q", name)
	}
	return info, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFabricInfo(s scanner) (types.FabricInfo, error) {
	var (
		info    types.FabricInfo
		created string
	)
	if err := s.Scan(&info.FabricID, &info.Name, &info.Archetype, &info.Size, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return info, err
		}
		return info, errors.Wrap(err, "scan fabric")
	}
	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return info, errors.Wrapf(err, "parse created_at of fabric %q", info.Name)
	}
	info.CreatedAt = t
	return info, nil
}

// validateName accepts non-empty names without whitespace.
func validateName(name string) error {
	if name == "" || strings.ContainsFunc(name, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r'
	}) {
		return errors.Wrapf(types.ErrInvalidName, "%q", name)
	}
	return nil
}

// generateUUID generates a new UUID v7 for entity IDs.
func generateUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to UUID v4 if v7 generation fails
		return uuid.New().String()
	}
	return id.String()
}
