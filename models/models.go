package models

import (
	"errors"
	"time"
)

// ErrTopicNotFound is returned when a topic is not found
var ErrTopicNotFound = errors.New("topic not found")

// Generation collaborator failure classes. The optimizer maps these to
// differentiated user messaging; all of them still produce a fallback schedule.
var (
	ErrRateLimited    = errors.New("generation rate limited")
	ErrQuotaExhausted = errors.New("generation quota exhausted")
)

// BlockStatus is the lifecycle state of a schedule block.
type BlockStatus string

const (
	BlockStatusScheduled  BlockStatus = "scheduled"
	BlockStatusInProgress BlockStatus = "in-progress"
	BlockStatusCompleted  BlockStatus = "completed"
	BlockStatusMissed     BlockStatus = "missed"
)

// Valid reports whether s is one of the known lifecycle states.
func (s BlockStatus) Valid() bool {
	switch s {
	case BlockStatusScheduled, BlockStatusInProgress, BlockStatusCompleted, BlockStatusMissed:
		return true
	}
	return false
}

// ScheduleBlock is a study session occupying a contiguous hour range on a
// day of the week. Hours are top-of-hour grid lines, day 0 = Sunday.
// OrderIndex controls display/drag order only, not time ordering.
type ScheduleBlock struct {
	ID         string      `json:"id"`
	TopicID    *string     `json:"topic_id"`
	TopicName  string      `json:"topic_name"`
	DayOfWeek  int         `json:"day_of_week"`
	StartHour  int         `json:"start_hour"`
	EndHour    int         `json:"end_hour"`
	Status     BlockStatus `json:"status"`
	OrderIndex int         `json:"order_index"`
}

// Hours returns the block's duration in whole hours.
func (b ScheduleBlock) Hours() int { return b.EndHour - b.StartHour }

// Overlaps reports whether the half-open hour ranges of two blocks on the
// same day intersect. Touching endpoints do not overlap.
func (b ScheduleBlock) Overlaps(other ScheduleBlock) bool {
	if b.DayOfWeek != other.DayOfWeek {
		return false
	}
	return b.StartHour < other.EndHour && other.StartHour < b.EndHour
}

// BlockInput is the caller-supplied part of a new block. ID, status and
// order index are assigned by the block store.
type BlockInput struct {
	TopicID   *string `json:"topic_id"`
	TopicName string  `json:"topic_name"`
	DayOfWeek int     `json:"day_of_week"`
	StartHour int     `json:"start_hour"`
	EndHour   int     `json:"end_hour"`
}

// BlockPatch is a partial update; nil fields are left untouched.
type BlockPatch struct {
	TopicName *string      `json:"topic_name,omitempty"`
	DayOfWeek *int         `json:"day_of_week,omitempty"`
	StartHour *int         `json:"start_hour,omitempty"`
	EndHour   *int         `json:"end_hour,omitempty"`
	Status    *BlockStatus `json:"status,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p BlockPatch) Empty() bool {
	return p.TopicName == nil && p.DayOfWeek == nil && p.StartHour == nil && p.EndHour == nil && p.Status == nil
}

// Topic is a study topic owned by a user.
type Topic struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// ActivityPatterns summarises when a user historically studies best.
type ActivityPatterns struct {
	BestDays               []string `json:"best_days"`
	PeakHours              []int    `json:"peak_hours"`
	AverageFocus           int      `json:"average_focus"`
	PreferredSessionLength int      `json:"preferred_session_length"`
}

// Preferences are the user's scheduling preferences sent to the optimizer.
type Preferences struct {
	DailyStudyHours int `json:"daily_study_hours"`
	BreakDuration   int `json:"break_duration"`
	PreferredStart  int `json:"preferred_start"`
	PreferredEnd    int `json:"preferred_end"`
}

// WeeklyReport is an aggregate snapshot of one week of schedule activity.
type WeeklyReport struct {
	WeekStart       time.Time `json:"week_start"`
	TotalHours      int       `json:"total_hours"`
	ScheduledBlocks int       `json:"scheduled_blocks"`
	CompletedBlocks int       `json:"completed_blocks"`
	MissedBlocks    int       `json:"missed_blocks"`
	HoursPerDay     [7]int    `json:"hours_per_day"`
	Insights        []string  `json:"insights"`
}
