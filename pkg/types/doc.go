// Package types defines the slot value, Fabric, store and journal
// interfaces, the item types, configuration, and standard error types for
// the satchel inventory engine.
package types
