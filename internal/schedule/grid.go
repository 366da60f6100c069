package schedule

import (
	"sort"

	"github.com/studyforge/studyforge/models"
)

// Default visible grid window: 08:00 to 20:00.
const (
	DefaultWindowStart = 8
	DefaultWindowEnd   = 20
)

// Window is the visible hour range all blocks must fall inside.
type Window struct {
	Start int
	End   int
}

// DefaultWindow returns the 8-20 grid window.
func DefaultWindow() Window { return Window{Start: DefaultWindowStart, End: DefaultWindowEnd} }

// Occupied is one occupied hour range in a day column.
type Occupied struct {
	StartHour int
	EndHour   int
	BlockID   string
}

// ComputeOccupancy converts blocks into a per-day occupancy map for grid
// display. Ranges within a day are ordered by ascending start hour.
func ComputeOccupancy(blocks []models.ScheduleBlock) map[int][]Occupied {
	occ := make(map[int][]Occupied)
	for _, b := range blocks {
		occ[b.DayOfWeek] = append(occ[b.DayOfWeek], Occupied{
			StartHour: b.StartHour,
			EndHour:   b.EndHour,
			BlockID:   b.ID,
		})
	}
	for day := range occ {
		sort.Slice(occ[day], func(i, j int) bool { return occ[day][i].StartHour < occ[day][j].StartHour })
	}
	return occ
}

// FindOverlap returns the first block (by ascending start hour) on the
// candidate's day whose half-open interval intersects the candidate's.
// Blocks ending exactly where the candidate starts do not conflict, and
// missed blocks no longer occupy their slot. The candidate itself is
// skipped by id so updates can re-validate against siblings.
func FindOverlap(candidate models.ScheduleBlock, existing []models.ScheduleBlock) (models.ScheduleBlock, bool) {
	var conflicts []models.ScheduleBlock
	for _, b := range existing {
		if b.ID != "" && b.ID == candidate.ID {
			continue
		}
		if b.Status == models.BlockStatusMissed {
			continue
		}
		if candidate.Overlaps(b) {
			conflicts = append(conflicts, b)
		}
	}
	if len(conflicts) == 0 {
		return models.ScheduleBlock{}, false
	}
	sort.Slice(conflicts, func(i, j int) bool { return conflicts[i].StartHour < conflicts[j].StartHour })
	return conflicts[0], true
}

// ValidateBounds checks the block against the grid window. Zero or negative
// durations are rejected before the window check.
func ValidateBounds(b models.ScheduleBlock, w Window) error {
	if b.EndHour <= b.StartHour {
		return ErrInvalidDuration
	}
	if b.DayOfWeek < 0 || b.DayOfWeek > 6 {
		return ErrOutOfBounds
	}
	if b.StartHour < w.Start || b.EndHour > w.End {
		return ErrOutOfBounds
	}
	return nil
}

// Validate runs the full acceptance check for a candidate block against the
// rest of the collection: bounds first, then same-day overlap.
func Validate(candidate models.ScheduleBlock, all []models.ScheduleBlock, w Window) error {
	if err := ValidateBounds(candidate, w); err != nil {
		return err
	}
	if conflict, ok := FindOverlap(candidate, all); ok {
		return &OverlapError{Conflicting: conflict}
	}
	return nil
}
