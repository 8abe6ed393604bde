package availability

import (
	"errors"
	"fmt"

	"github.com/flotacoop/fleetcore/core/model"
)

// ErrSlotNotAvailable is matched by errors.Is when a reservation hits a slot
// that is not in the Available state, typically after a stale concurrent read.
var ErrSlotNotAvailable = errors.New("bus slot not available")

// SlotStateError reports the state that prevented a slot transition.
type SlotStateError struct {
	SlotID string
	State  model.SlotState
}

func (e *SlotStateError) Error() string {
	return fmt.Sprintf("slot %s in state %s cannot be reserved", e.SlotID, e.State)
}

func (e *SlotStateError) Unwrap() error { return ErrSlotNotAvailable }
