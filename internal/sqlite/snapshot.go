package sqlite

import (
	"encoding/json"

	"github.com/cockroachdb/errors"

	"github.com/mesh-intelligence/satchel/internal/logger"
	"github.com/mesh-intelligence/satchel/pkg/types"
)

// A snapshot file is JSONL: a header line describing the Fabric followed
// by one line per occupied slot.

type snapshotHeader struct {
	Fabric    string `json:"fabric"`
	Archetype string `json:"archetype"`
	Size      int    `json:"size"`
}

type snapshotSlot struct {
	Ordinal int `json:"ordinal"`
	slotRecord
}

// Export writes the named Fabric's slots to a JSONL snapshot at path. It
// returns the number of occupied slots written.
func (b *Backend) Export(name, path string) (int, error) {
	f, info, err := b.OpenFabric(name)
	if err != nil {
		return 0, err
	}

	records := []any{snapshotHeader{Fabric: info.Name, Archetype: info.Archetype, Size: info.Size}}
	for i := 0; i < f.Size(); i++ {
		v := f.Get(i)
		if types.IsEmpty(v) {
			continue
		}
		records = append(records, snapshotSlot{Ordinal: i, slotRecord: encode(v)})
	}
	if err := writeJSONL(path, records); err != nil {
		return 0, errors.Wrapf(err, "export %q", name)
	}
	b.log.Infow("fabric exported",
		logger.FieldFabric, name,
		logger.FieldPath, path,
		logger.FieldCount, len(records)-1,
	)
	return len(records) - 1, nil
}

// Import creates a Fabric from the JSONL snapshot at path. The Fabric is
// named as in the snapshot unless name is non-empty. Malformed slot lines
// and slots outside the Fabric are skipped. Returns ErrInvalidSnapshot when
// the header is missing or invalid.
func (b *Backend) Import(path, name string) (types.FabricInfo, error) {
	lines, skipped, err := readJSONL(path)
	if err != nil {
		return types.FabricInfo{}, err
	}
	if len(lines) == 0 {
		return types.FabricInfo{}, errors.Wrapf(types.ErrInvalidSnapshot, "%s has no header", path)
	}
	var h snapshotHeader
	if err := json.Unmarshal(lines[0], &h); err != nil || h.Size <= 0 {
		return types.FabricInfo{}, errors.Wrapf(types.ErrInvalidSnapshot, "%s: bad header", path)
	}
	if name == "" {
		name = h.Fabric
	}

	info, err := b.CreateFabric(name, h.Archetype, h.Size)
	if err != nil {
		return types.FabricInfo{}, err
	}
	f, _, err := b.OpenFabric(name)
	if err != nil {
		return types.FabricInfo{}, err
	}

	loaded := 0
	for _, line := range lines[1:] {
		var s snapshotSlot
		if err := json.Unmarshal(line, &s); err != nil || s.Ordinal < 0 || s.Ordinal >= h.Size {
			skipped++
			continue
		}
		v := b.decode(s.slotRecord)
		if types.IsEmpty(v) {
			skipped++
			continue
		}
		if _, err := f.Set(s.Ordinal, v); err != nil {
			return info, errors.Wrapf(err, "import %q ordinal %d", name, s.Ordinal)
		}
		loaded++
	}
	if skipped > 0 {
		b.log.Warnw("snapshot lines skipped", logger.FieldPath, path, logger.FieldCount, skipped)
	}
	b.log.Infow("fabric imported",
		logger.FieldFabric, name,
		logger.FieldPath, path,
		logger.FieldCount, loaded,
	)
	return info, nil
}
