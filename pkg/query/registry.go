package query

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/mesh-intelligence/satchel/pkg/types"
)

// Factory builds an Op from the argument of a textual term. The argument
// is empty for terms written without "=".
type Factory func(arg string) (Op, error)

// Registry maps term names to factories. Terms are written name=arg, or
// just name for operations without an argument.
type Registry struct {
	factories map[string]Factory
	tr        types.Translator
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithRegistryTranslator sets the translator name terms match against.
// Without one, name terms match name keys.
func WithRegistryTranslator(tr types.Translator) RegistryOption {
	return func(r *Registry) { r.tr = tr }
}

// NewRegistry returns a registry holding the built-in terms kind, type,
// empty, name, prop, grid and reverse.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	for _, opt := range opts {
		opt(r)
	}
	r.Register("kind", requireArg("kind", func(arg string) (Op, error) {
		return Kind(arg), nil
	}))
	r.Register("type", requireArg("type", func(arg string) (Op, error) {
		return ItemType(types.ItemType{ID: arg}), nil
	}))
	r.Register("empty", func(string) (Op, error) {
		return ItemType(types.ItemNone), nil
	})
	r.Register("name", requireArg("name", func(arg string) (Op, error) {
		if r.tr == nil {
			return Name(arg), nil
		}
		return Chain(WithTranslator(r.tr), Name(arg)), nil
	}))
	r.Register("prop", requireArg("prop", parseProperty))
	r.Register("grid", requireArg("grid", parseGrid))
	r.Register("reverse", func(arg string) (Op, error) {
		if arg != "" {
			return nil, errors.Wrapf(types.ErrInvalidQuery, "reverse takes no argument, got %q", arg)
		}
		return Reverse(), nil
	})
	return r
}

// Register adds or replaces the factory for name.
func (r *Registry) Register(name string, f Factory) {
	r.factories[name] = f
}

// Names returns the registered term names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Parse builds the Op for one term.
func (r *Registry) Parse(term string) (Op, error) {
	name, arg, _ := strings.Cut(strings.TrimSpace(term), "=")
	f, ok := r.factories[name]
	if !ok {
		return nil, errors.Wrapf(types.ErrInvalidQuery, "unknown term %q", name)
	}
	op, err := f(arg)
	if err != nil {
		return nil, errors.Wrapf(err, "parse term %q", term)
	}
	return op, nil
}

// ParseAll parses terms in order.
func (r *Registry) ParseAll(terms []string) ([]Op, error) {
	ops := make([]Op, 0, len(terms))
	for _, term := range terms {
		op, err := r.Parse(term)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, nil
}

func requireArg(name string, f Factory) Factory {
	return func(arg string) (Op, error) {
		if arg == "" {
			return nil, errors.Wrapf(types.ErrInvalidQuery, "%s requires an argument", name)
		}
		return f(arg)
	}
}

// parseProperty reads key or key:value. Values compare by their printed
// form.
func parseProperty(arg string) (Op, error) {
	key, want, hasValue := strings.Cut(arg, ":")
	if key == "" {
		return nil, errors.Wrap(types.ErrInvalidQuery, "prop requires a key")
	}
	if !hasValue {
		return Property(key, nil), nil
	}
	return Property(key, func(v any) bool { return fmt.Sprint(v) == want }), nil
}

// parseGrid reads x,y,w,h.
func parseGrid(arg string) (Op, error) {
	parts := strings.Split(arg, ",")
	if len(parts) != 4 {
		return nil, errors.Wrapf(types.ErrInvalidQuery, "grid wants x,y,w,h, got %q", arg)
	}
	var n [4]int
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, errors.Wrapf(types.ErrInvalidQuery, "grid value %q is not a number", p)
		}
		n[i] = v
	}
	if n[2] <= 0 || n[3] <= 0 {
		return nil, errors.Wrapf(types.ErrInvalidQuery, "grid size %dx%d must be positive", n[2], n[3])
	}
	return Grid(n[0], n[1], n[2], n[3]), nil
}
