package schedule

import (
	"context"
	"fmt"
	"math"
	"sync"
)

// ActivationDistance is how far the pointer must travel (in logical pixels)
// after press-down before a drag engages. Below the threshold a release is
// treated as a plain click, never a reorder.
const ActivationDistance = 8.0

// DragState is the gesture state of the reorder engine.
type DragState int

const (
	StateIdle DragState = iota
	StateDragging
	StateDropped
	StateCancelled
)

func (s DragState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDragging:
		return "dragging"
	case StateDropped:
		return "dropped"
	case StateCancelled:
		return "cancelled"
	}
	return fmt.Sprintf("dragstate(%d)", int(s))
}

// ReorderTarget is what the engine needs from the block store. The flat
// cross-day list mirrors the interactive surface; a day-scoped ordering
// can be substituted behind this interface without touching callers.
type ReorderTarget interface {
	OrderedIDs() []string
	BeginGesture() error
	EndGesture()
	Reorder(ctx context.Context, orderedIDs []string) error
}

// DragEngine runs the Idle -> Dragging -> Dropped | Cancelled state machine
// for a single pointer. Exactly one gesture may be active at a time; the
// target's list is locked for the gesture so concurrent programmatic
// mutations fail fast instead of interleaving.
type DragEngine struct {
	target ReorderTarget

	mu       sync.Mutex
	state    DragState
	ids      []string
	activeID string
	originX  float64
	originY  float64
}

// NewDragEngine builds an engine over the given target.
func NewDragEngine(target ReorderTarget) *DragEngine {
	return &DragEngine{target: target, state: StateIdle}
}

// State returns the current gesture state.
func (e *DragEngine) State() DragState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Press records pointer-down on a block's drag handle and locks the target
// list. The gesture stays Idle until movement exceeds ActivationDistance.
func (e *DragEngine) Press(id string, x, y float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateDragging || e.activeID != "" {
		return fmt.Errorf("gesture already active on block %s", e.activeID)
	}
	if err := e.target.BeginGesture(); err != nil {
		return err
	}
	ids := e.target.OrderedIDs()
	found := false
	for _, candidate := range ids {
		if candidate == id {
			found = true
			break
		}
	}
	if !found {
		e.target.EndGesture()
		return fmt.Errorf("pressed block %s is not in the list", id)
	}
	e.ids = ids
	e.activeID = id
	e.originX, e.originY = x, y
	e.state = StateIdle
	return nil
}

// Move reports pointer movement. Once the travel from the press origin
// exceeds the activation distance the gesture transitions to Dragging.
func (e *DragEngine) Move(x, y float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.activeID == "" || e.state != StateIdle {
		return
	}
	if math.Hypot(x-e.originX, y-e.originY) >= ActivationDistance {
		e.state = StateDragging
	}
}

// Release ends the gesture over the given drop target id (empty means
// released outside any target). A drop on another block produces a move:
// the dragged id is removed from its old index and inserted at the drop
// index, then the full flat list is committed through Reorder. Dropping on
// itself, releasing outside a target, or releasing before the drag engaged
// all cancel with no store mutation.
func (e *DragEngine) Release(ctx context.Context, overID string) (DragState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.activeID == "" {
		return StateIdle, nil
	}
	active := e.activeID
	engaged := e.state == StateDragging
	ids := e.ids
	e.reset()
	e.target.EndGesture()

	if !engaged || overID == "" || overID == active {
		e.state = StateCancelled
		return StateCancelled, nil
	}
	oldIndex, newIndex := indexOf(ids, active), indexOf(ids, overID)
	if oldIndex < 0 || newIndex < 0 || oldIndex == newIndex {
		e.state = StateCancelled
		return StateCancelled, nil
	}
	moved := MoveElement(ids, oldIndex, newIndex)
	if err := e.target.Reorder(ctx, moved); err != nil {
		e.state = StateDropped
		return StateDropped, err
	}
	e.state = StateDropped
	return StateDropped, nil
}

// Cancel aborts the active gesture, leaving the list order unchanged.
func (e *DragEngine) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.activeID == "" {
		return
	}
	e.reset()
	e.target.EndGesture()
	e.state = StateCancelled
}

func (e *DragEngine) reset() {
	e.ids = nil
	e.activeID = ""
	e.originX, e.originY = 0, 0
	e.state = StateIdle
}

// MoveElement returns a copy of list with the element at from removed and
// reinserted at to (move semantics, not swap).
func MoveElement(list []string, from, to int) []string {
	out := append([]string(nil), list...)
	if from < 0 || from >= len(out) || to < 0 || to >= len(out) || from == to {
		return out
	}
	item := out[from]
	out = append(out[:from], out[from+1:]...)
	out = append(out[:to], append([]string{item}, out[to:]...)...)
	return out
}

func indexOf(list []string, id string) int {
	for i, v := range list {
		if v == id {
			return i
		}
	}
	return -1
}
