package types

// Fabric is a flat, ordinal-addressable slot store. Every algorithm in
// satchel reaches storage only through these four operations.
//
// Implementations must be comparable (normally pointer types): views
// memoize their children keyed on the Fabric they are bound to.
type Fabric interface {
	// Get returns the value at ordinal, or nil when the slot is empty.
	// Get panics when ordinal is outside [0, Size()).
	Get(ordinal int) SlotValue

	// Set stores v at ordinal; a nil or empty v clears the slot. It returns
	// false when the store refuses the value for that slot, and an error
	// when the store is in a state where it cannot accept writes.
	Set(ordinal int, v SlotValue) (bool, error)

	// Size returns the number of ordinals.
	Size() int

	// Clear empties every ordinal.
	Clear() error
}

// Translator supplies human-readable names for lens and item name keys.
type Translator interface {
	Translate(key string) string
}

// ItemResolver maps a stored item ID back to its ItemType.
type ItemResolver interface {
	ItemType(id string) (ItemType, bool)
}
