package inventory

import (
	"github.com/mesh-intelligence/satchel/pkg/types"
)

// Outcome classifies a transaction result.
type Outcome int

const (
	// Success means the operation made progress. Items may still have been
	// rejected; see Result.Rejected.
	Success Outcome = iota
	// Failure means a well-formed operation could not place anything. The
	// input is returned unchanged in Result.Rejected.
	Failure
	// Error means the store failed during placement. The entire input is
	// rejected and the transaction list is empty, although slots written
	// before the failure stay written.
	Error
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case Failure:
		return "failure"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// SlotTransaction records one committed slot write.
type SlotTransaction struct {
	Slot     *Slot
	Original types.SlotValue // nil when the slot was empty
	Final    types.SlotValue // nil when the slot was cleared
}

// Result is the auditable outcome of an insert or append.
type Result struct {
	Outcome      Outcome
	Transactions []SlotTransaction
	Rejected     types.SlotValue // nil when nothing was rejected
	Err          error           // set when Outcome is Error
}

// RejectedQuantity returns the quantity of Rejected, or zero.
func (r Result) RejectedQuantity() int {
	if types.IsEmpty(r.Rejected) {
		return 0
	}
	return r.Rejected.Quantity()
}
