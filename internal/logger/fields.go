package logger

// Standard field names for structured logging across satchel.
// Use these constants instead of raw strings to keep keys consistent.
const (
	// Components
	FieldComponent = "component"

	// Fabrics and views
	FieldFabric    = "fabric"
	FieldArchetype = "archetype"
	FieldOrdinal   = "ordinal"
	FieldView      = "view"
	FieldQuery     = "query"

	// Items
	FieldItem     = "item"
	FieldQuantity = "quantity"
	FieldRejected = "rejected"

	// Operations
	FieldOperation = "operation"
	FieldOutcome   = "outcome"
	FieldCount     = "count"

	// Files and paths
	FieldPath = "path"
	FieldFile = "file"

	// Errors
	FieldError = "error"
)
