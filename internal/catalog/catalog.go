// Package catalog supplies item types and display names. A Catalog is
// both the types.ItemResolver used to rebuild stored stacks and the
// types.Translator used for lens and item names.
package catalog

import (
	"bytes"
	_ "embed"
	"os"
	"sort"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/satchel/pkg/types"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalidCatalog is returned for malformed catalog files.
var ErrInvalidCatalog = errors.New("invalid catalog")

var (
	_ types.ItemResolver = (*Catalog)(nil)
	_ types.Translator   = (*Catalog)(nil)
)

type file struct {
	Items        []types.ItemType  `yaml:"items"`
	Translations map[string]string `yaml:"translations"`
}

// Catalog maps item IDs to item types and name keys to display names.
type Catalog struct {
	items        map[string]types.ItemType
	translations map[string]string
}

// New returns a catalog holding the built-in items and names.
func New() *Catalog {
	c := Empty()
	if err := c.Load(defaultsYAML); err != nil {
		panic(errors.NewAssertionErrorWithWrappedErrf(err, "built-in catalog"))
	}
	return c
}

// Empty returns a catalog with no entries.
func Empty() *Catalog {
	return &Catalog{
		items:        make(map[string]types.ItemType),
		translations: make(map[string]string),
	}
}

// Load merges a catalog file into c. Entries replace existing ones with the
// same ID or key. Nothing is merged when the file is invalid.
func (c *Catalog) Load(data []byte) error {
	var f file
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return errors.Wrapf(ErrInvalidCatalog, "decode catalog: %v", err)
	}
	for i, t := range f.Items {
		if t.ID == "" {
			return errors.Wrapf(ErrInvalidCatalog, "item %d has no id", i)
		}
		if t.MaxStack < 0 {
			return errors.Wrapf(ErrInvalidCatalog, "item %q: max_stack %d must not be negative", t.ID, t.MaxStack)
		}
	}
	for _, t := range f.Items {
		c.items[t.ID] = t
	}
	for k, v := range f.Translations {
		c.translations[k] = v
	}
	return nil
}

// LoadFile reads and merges the catalog file at path.
func (c *Catalog) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "read catalog %s", path)
	}
	if err := c.Load(data); err != nil {
		return errors.Wrapf(err, "load catalog %s", path)
	}
	return nil
}

// ItemType returns the catalog entry for id and whether it exists.
func (c *Catalog) ItemType(id string) (types.ItemType, bool) {
	t, ok := c.items[id]
	return t, ok
}

// Resolve returns the catalog entry for id, or a bare type with the
// default max stack size when id is unknown.
func (c *Catalog) Resolve(id string) types.ItemType {
	if t, ok := c.items[id]; ok {
		return t
	}
	return types.ItemType{ID: id}
}

// Translate returns the display name for key, or key itself when no
// translation exists.
func (c *Catalog) Translate(key string) string {
	if s, ok := c.translations[key]; ok {
		return s
	}
	return key
}

// ItemName returns the display name of an item type.
func (c *Catalog) ItemName(t types.ItemType) string {
	if t.NameKey == "" {
		return t.ID
	}
	return c.Translate(t.NameKey)
}

// Items returns every item type sorted by ID.
func (c *Catalog) Items() []types.ItemType {
	out := make([]types.ItemType, 0, len(c.items))
	for _, t := range c.items {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
