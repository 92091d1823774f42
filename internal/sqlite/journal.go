package sqlite

import (
	"database/sql"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/mesh-intelligence/satchel/internal/logger"
	"github.com/mesh-intelligence/satchel/pkg/types"
)

// Record appends entries to the journal in one database transaction.
// EntryID and CreatedAt are assigned here and written back into entries.
func (b *Backend) Record(entries []types.JournalEntry) error {
	if len(entries) == 0 {
		return nil
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return types.ErrStoreDetached
	}

	ids := make(map[string]string)
	for _, e := range entries {
		if _, ok := ids[e.Fabric]; ok {
			continue
		}
		info, err := b.lookupLocked(e.Fabric)
		if err != nil {
			return err
		}
		ids[e.Fabric] = info.FabricID
	}

	tx, err := b.db.Begin()
	if err != nil {
		return errors.Wrap(err, "begin journal transaction")
	}
	defer tx.Rollback()

	now := b.now()
	for i := range entries {
		e := &entries[i]
		original, err := marshalValue(e.Original)
		if err != nil {
			return errors.Wrap(err, "encode original value")
		}
		final, err := marshalValue(e.Final)
		if err != nil {
			return errors.Wrap(err, "encode final value")
		}
		e.EntryID = generateUUID()
		e.CreatedAt = now
		_, err = tx.Exec(
			"INSERT INTO journal (entry_id, fabric_id, ordinal, operation, original, final, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
			e.EntryID, ids[e.Fabric], e.Ordinal, e.Operation, original, final, now.Format(time.RFC3339Nano),
		)
		if err != nil {
			return errors.Wrapf(err, "insert journal entry for %q ordinal %d", e.Fabric, e.Ordinal)
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit journal transaction")
	}
	b.log.Debugw("journal recorded", logger.FieldCount, len(entries))
	return nil
}

// History returns the most recent entries for fabric, newest first.
func (b *Backend) History(fabric string, limit int) ([]types.JournalEntry, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, types.ErrStoreDetached
	}

	info, err := b.lookupLocked(fabric)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = -1
	}
	rows, err := b.db.Query(
		"SELECT entry_id, ordinal, operation, original, final, created_at FROM journal WHERE fabric_id = ? ORDER BY seq DESC LIMIT ?",
		info.FabricID, limit,
	)
	if err != nil {
		return nil, errors.Wrapf(err, "query history of %q", fabric)
	}
	defer rows.Close()

	var out []types.JournalEntry
	for rows.Next() {
		var (
			e               types.JournalEntry
			original, final sql.NullString
			created         string
		)
		if err := rows.Scan(&e.EntryID, &e.Ordinal, &e.Operation, &original, &final, &created); err != nil {
			return nil, errors.Wrap(err, "scan journal entry")
		}
		e.Fabric = fabric
		if e.Original, err = b.unmarshalValue(original); err != nil {
			return nil, errors.Wrapf(err, "decode journal entry %s", e.EntryID)
		}
		if e.Final, err = b.unmarshalValue(final); err != nil {
			return nil, errors.Wrapf(err, "decode journal entry %s", e.EntryID)
		}
		if e.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, errors.Wrapf(err, "parse journal entry %s", e.EntryID)
		}
		out = append(out, e)
	}
	return out, errors.Wrapf(rows.Err(), "query history of %q", fabric)
}
