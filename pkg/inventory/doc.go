// Package inventory maps logical inventory views onto flat slot stores.
//
// A Fabric holds slot values by ordinal. A Lens is an immutable tree that
// translates the ordinals a view exposes into Fabric ordinals; its leaves
// (SlotLens) are visited left to right by every algorithm, so that order is
// the canonical placement and removal order. An Adapter binds a Fabric, a
// root Lens and a parent view, and exposes the sequential algorithms in
// logic.go. Union concatenates several views into one address space
// without copying slot data.
//
// Views are cheap and share storage: mutating a slot through any view is
// immediately visible through every other view of the same Fabric. Nothing
// here is safe for concurrent use; the owner of a Fabric must serialize
// access to it.
package inventory
