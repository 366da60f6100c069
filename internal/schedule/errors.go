package schedule

import (
	"errors"
	"fmt"
	"strings"

	"github.com/studyforge/studyforge/models"
)

var (
	// ErrInvalidDuration rejects zero or negative duration blocks.
	ErrInvalidDuration = errors.New("block duration must be at least one hour")
	// ErrOutOfBounds rejects blocks outside the visible grid window.
	ErrOutOfBounds = errors.New("block falls outside the grid window")
	// ErrOverlapConflict rejects blocks whose hour range collides with an
	// existing block on the same day. Use errors.Is against this and
	// errors.As against *OverlapError for the conflicting block.
	ErrOverlapConflict = errors.New("block overlaps an existing block")
	// ErrStorageUnavailable signals the persistence collaborator is
	// unreachable. Reads degrade to the last known snapshot.
	ErrStorageUnavailable = errors.New("schedule storage unavailable")
	// ErrReorderLocked rejects mutations while a drag gesture holds the list.
	ErrReorderLocked = errors.New("reorder in progress, store is locked")
	// ErrBlockNotFound is returned by Update for an unknown id. Delete is
	// idempotent and never returns it.
	ErrBlockNotFound = errors.New("block not found")
)

// OverlapError carries the first conflicting block so callers can tell the
// user exactly what is in the way.
type OverlapError struct {
	Conflicting models.ScheduleBlock
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("block overlaps %q (day %d, %d:00-%d:00)",
		e.Conflicting.TopicName, e.Conflicting.DayOfWeek, e.Conflicting.StartHour, e.Conflicting.EndHour)
}

func (e *OverlapError) Unwrap() error { return ErrOverlapConflict }

// PartialReorderError reports a reorder whose order_index writes failed
// midway: in-memory and persisted order now disagree. Persisted lists the
// ids whose new index reached storage before the failure.
type PartialReorderError struct {
	Persisted []string
	Cause     error
}

func (e *PartialReorderError) Error() string {
	return fmt.Sprintf("reorder persisted %d block(s) [%s] before failing: %v",
		len(e.Persisted), strings.Join(e.Persisted, ","), e.Cause)
}

func (e *PartialReorderError) Unwrap() error { return e.Cause }
