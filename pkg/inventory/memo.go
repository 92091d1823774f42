package inventory

// memo is a build-once map. Entries are never invalidated.
type memo[K comparable, V any] struct {
	m map[K]V
}

func (c *memo[K, V]) get(k K, build func() V) V {
	if v, ok := c.m[k]; ok {
		return v
	}
	if c.m == nil {
		c.m = make(map[K]V)
	}
	v := build()
	c.m[k] = v
	return v
}

// once is a build-once value.
type once[V any] struct {
	built bool
	v     V
}

func (o *once[V]) get(build func() V) V {
	if !o.built {
		o.v = build()
		o.built = true
	}
	return o.v
}
