package archetype

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

// file is the on-disk layout of an archetype file.
type file struct {
	Archetypes []Archetype `yaml:"archetypes"`
}

// Registry holds archetypes by name.
type Registry struct {
	byName map[string]*Archetype
}

// NewRegistry returns a registry holding the built-in archetypes.
func NewRegistry() *Registry {
	r := &Registry{byName: make(map[string]*Archetype)}
	if err := r.Load(defaultsYAML); err != nil {
		panic(errors.NewAssertionErrorWithWrappedErrf(err, "built-in archetypes"))
	}
	return r
}

// Load parses an archetype file and adds its entries, replacing any with
// the same name. Nothing is added when any entry is invalid.
func (r *Registry) Load(data []byte) error {
	var f file
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return errors.Wrapf(types.ErrInvalidArchetype, "decode archetypes: %v", err)
	}
	seen := make(map[string]bool, len(f.Archetypes))
	for i := range f.Archetypes {
		a := &f.Archetypes[i]
		if err := a.Validate(); err != nil {
			return err
		}
		if seen[a.Name] {
			return errors.Wrapf(types.ErrInvalidArchetype, "archetype %q defined twice", a.Name)
		}
		seen[a.Name] = true
	}
	for i := range f.Archetypes {
		a := f.Archetypes[i]
		r.byName[a.Name] = &a
	}
	return nil
}

// LoadFile reads and loads the archetype file at path.
func (r *Registry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "read archetypes %s", path)
	}
	if err := r.Load(data); err != nil {
		return errors.Wrapf(err, "load archetypes %s", path)
	}
	return nil
}

// Get returns the named archetype. Returns ErrArchetypeNotFound for an
// unknown name.
func (r *Registry) Get(name string) (*Archetype, error) {
	a, ok := r.byName[name]
	if !ok {
		return nil, errors.Wrapf(types.ErrArchetypeNotFound, "archetype %q", name)
	}
	return a, nil
}

// Names returns every archetype name in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
