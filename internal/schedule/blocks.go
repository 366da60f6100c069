package schedule

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/studyforge/studyforge/models"
)

// Persistence is the external storage collaborator for one user's blocks.
// Row-level isolation by user happens behind this interface.
type Persistence interface {
	ListBlocks(ctx context.Context) ([]models.ScheduleBlock, error)
	InsertBlock(ctx context.Context, b models.ScheduleBlock) error
	UpdateBlock(ctx context.Context, id string, patch models.BlockPatch) error
	DeleteBlock(ctx context.Context, id string) error
	UpdateOrderIndex(ctx context.Context, id string, index int) error
}

// Subscriber receives the full block list synchronously after every
// in-memory mutation, before persistence confirmation. This is the
// optimistic-UI contract: interaction latency never waits on storage.
type Subscriber func(blocks []models.ScheduleBlock)

// Store is the single source of truth for a user's schedule blocks. All
// mutation goes through it; it keeps an in-memory canonical list, persists
// through the Persistence collaborator, and notifies subscribers.
type Store struct {
	db     Persistence
	window Window
	logger *log.Logger

	mu      sync.Mutex
	blocks  []models.ScheduleBlock
	loaded  bool
	gesture bool
	subs    []Subscriber
}

// Option configures a Store.
type Option func(*Store)

// WithWindow overrides the default 8-20 grid window.
func WithWindow(w Window) Option { return func(s *Store) { s.window = w } }

// WithLogger sets the store logger.
func WithLogger(l *log.Logger) Option { return func(s *Store) { s.logger = l } }

// NewStore builds a block store over the given persistence collaborator.
func NewStore(db Persistence, opts ...Option) *Store {
	s := &Store{
		db:     db,
		window: DefaultWindow(),
		logger: log.New(log.Writer(), "[BLOCKS] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers a subscriber for synchronous post-mutation snapshots.
func (s *Store) Subscribe(fn Subscriber) {
	s.mu.Lock()
	s.subs = append(s.subs, fn)
	s.mu.Unlock()
}

func (s *Store) notify(snap []models.ScheduleBlock) {
	s.mu.Lock()
	subs := append([]Subscriber(nil), s.subs...)
	s.mu.Unlock()
	for _, fn := range subs {
		fn(snap)
	}
}

func (s *Store) snapshotLocked() []models.ScheduleBlock {
	return append([]models.ScheduleBlock(nil), s.blocks...)
}

// ensureLoaded hydrates the in-memory list from storage the first time the
// store is touched. Validation against an unhydrated list would accept
// blocks that conflict with persisted rows, so mutations refuse to proceed
// with ErrStorageUnavailable when the initial load fails.
func (s *Store) ensureLoaded(ctx context.Context) error {
	s.mu.Lock()
	if s.loaded {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	rows, err := s.db.ListBlocks(ctx)
	if err != nil {
		return fmt.Errorf("%w: load: %v", ErrStorageUnavailable, err)
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].OrderIndex < rows[j].OrderIndex })
	s.mu.Lock()
	if !s.loaded {
		s.blocks = rows
		s.loaded = true
	}
	s.mu.Unlock()
	return nil
}

// Snapshot returns a copy of the current in-memory list.
func (s *Store) Snapshot() []models.ScheduleBlock {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// OrderedIDs returns the current block ids in display order.
func (s *Store) OrderedIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, len(s.blocks))
	for i, b := range s.blocks {
		ids[i] = b.ID
	}
	return ids
}

// List refreshes the in-memory list from storage and returns it ordered by
// order index. When storage is unreachable the last known snapshot is still
// returned alongside ErrStorageUnavailable (stale-but-available read).
func (s *Store) List(ctx context.Context) ([]models.ScheduleBlock, error) {
	rows, err := s.db.ListBlocks(ctx)
	if err != nil {
		s.logger.Printf("list falling back to snapshot: %v", err)
		s.mu.Lock()
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].OrderIndex < rows[j].OrderIndex })
	s.mu.Lock()
	s.blocks = rows
	s.loaded = true
	snap := s.snapshotLocked()
	s.mu.Unlock()
	return snap, nil
}

// Add validates the input against the grid and appends it with the next
// order index. On validation failure nothing is mutated. The in-memory
// append and subscriber notification happen before the insert is confirmed;
// a storage failure reverts the append and is reported, never swallowed.
func (s *Store) Add(ctx context.Context, in models.BlockInput) (models.ScheduleBlock, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return models.ScheduleBlock{}, err
	}
	s.mu.Lock()
	if s.gesture {
		s.mu.Unlock()
		return models.ScheduleBlock{}, ErrReorderLocked
	}
	cand := models.ScheduleBlock{
		ID:         uuid.NewString(),
		TopicID:    in.TopicID,
		TopicName:  in.TopicName,
		DayOfWeek:  in.DayOfWeek,
		StartHour:  in.StartHour,
		EndHour:    in.EndHour,
		Status:     models.BlockStatusScheduled,
		OrderIndex: len(s.blocks),
	}
	if err := Validate(cand, s.blocks, s.window); err != nil {
		s.mu.Unlock()
		return models.ScheduleBlock{}, err
	}
	s.blocks = append(s.blocks, cand)
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)

	if err := s.db.InsertBlock(ctx, cand); err != nil {
		s.mu.Lock()
		s.removeLocked(cand.ID)
		snap = s.snapshotLocked()
		s.mu.Unlock()
		s.notify(snap)
		return models.ScheduleBlock{}, fmt.Errorf("%w: insert: %v", ErrStorageUnavailable, err)
	}
	return cand, nil
}

// Update applies a partial update. If the day or hour range changes the
// result is re-validated against all other blocks on that day; a conflict
// leaves the prior state untouched.
func (s *Store) Update(ctx context.Context, id string, patch models.BlockPatch) (models.ScheduleBlock, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return models.ScheduleBlock{}, err
	}
	s.mu.Lock()
	if s.gesture {
		s.mu.Unlock()
		return models.ScheduleBlock{}, ErrReorderLocked
	}
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return models.ScheduleBlock{}, ErrBlockNotFound
	}
	prev := s.blocks[idx]
	next := prev
	if patch.TopicName != nil {
		next.TopicName = *patch.TopicName
	}
	if patch.DayOfWeek != nil {
		next.DayOfWeek = *patch.DayOfWeek
	}
	if patch.StartHour != nil {
		next.StartHour = *patch.StartHour
	}
	if patch.EndHour != nil {
		next.EndHour = *patch.EndHour
	}
	if patch.Status != nil {
		if !patch.Status.Valid() {
			s.mu.Unlock()
			return models.ScheduleBlock{}, fmt.Errorf("unknown block status %q", *patch.Status)
		}
		next.Status = *patch.Status
	}
	if patch.DayOfWeek != nil || patch.StartHour != nil || patch.EndHour != nil {
		if err := Validate(next, s.blocks, s.window); err != nil {
			s.mu.Unlock()
			return models.ScheduleBlock{}, err
		}
	}
	s.blocks[idx] = next
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)

	if err := s.db.UpdateBlock(ctx, id, patch); err != nil {
		s.mu.Lock()
		if i := s.indexLocked(id); i >= 0 {
			s.blocks[i] = prev
		}
		snap = s.snapshotLocked()
		s.mu.Unlock()
		s.notify(snap)
		return models.ScheduleBlock{}, fmt.Errorf("%w: update: %v", ErrStorageUnavailable, err)
	}
	return next, nil
}

// Delete removes a block. Deleting an unknown id is a no-op success,
// matching eventual consistency with the external store.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	if s.gesture {
		s.mu.Unlock()
		return ErrReorderLocked
	}
	idx := s.indexLocked(id)
	var prev models.ScheduleBlock
	if idx >= 0 {
		prev = s.blocks[idx]
		s.removeLocked(id)
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()
	if idx >= 0 {
		s.notify(snap)
	}

	if err := s.db.DeleteBlock(ctx, id); err != nil {
		if idx < 0 {
			// Unknown locally as well, nothing to reconcile.
			s.logger.Printf("delete of unknown id %s: %v", id, err)
			return nil
		}
		s.mu.Lock()
		s.blocks = append(s.blocks, prev)
		sort.SliceStable(s.blocks, func(i, j int) bool { return s.blocks[i].OrderIndex < s.blocks[j].OrderIndex })
		snap = s.snapshotLocked()
		s.mu.Unlock()
		s.notify(snap)
		return fmt.Errorf("%w: delete: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// Reorder accepts a full reordering of the entire collection as a flat id
// list regardless of day. The in-memory order is applied immediately and
// every block's order index is persisted sequentially; a mid-sequence
// failure leaves memory ahead of storage and is surfaced as a
// *PartialReorderError naming the ids that reached storage.
func (s *Store) Reorder(ctx context.Context, orderedIDs []string) error {
	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	if s.gesture {
		s.mu.Unlock()
		return ErrReorderLocked
	}
	if len(orderedIDs) != len(s.blocks) {
		s.mu.Unlock()
		return fmt.Errorf("reorder list has %d ids, store has %d blocks", len(orderedIDs), len(s.blocks))
	}
	byID := make(map[string]models.ScheduleBlock, len(s.blocks))
	for _, b := range s.blocks {
		byID[b.ID] = b
	}
	next := make([]models.ScheduleBlock, 0, len(orderedIDs))
	for i, id := range orderedIDs {
		b, ok := byID[id]
		if !ok {
			s.mu.Unlock()
			return fmt.Errorf("reorder list references unknown block %s", id)
		}
		delete(byID, id)
		b.OrderIndex = i
		next = append(next, b)
	}
	s.blocks = next
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)

	for i, id := range orderedIDs {
		if err := s.db.UpdateOrderIndex(ctx, id, i); err != nil {
			perr := &PartialReorderError{Persisted: append([]string(nil), orderedIDs[:i]...), Cause: err}
			s.logger.Printf("reorder inconsistent with storage: %v", perr)
			return perr
		}
	}
	return nil
}

// BeginGesture locks the store's list for the duration of a drag gesture.
// Programmatic mutations fail with ErrReorderLocked until EndGesture.
func (s *Store) BeginGesture() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gesture {
		return ErrReorderLocked
	}
	s.gesture = true
	return nil
}

// EndGesture releases the gesture lock.
func (s *Store) EndGesture() {
	s.mu.Lock()
	s.gesture = false
	s.mu.Unlock()
}

func (s *Store) indexLocked(id string) int {
	for i, b := range s.blocks {
		if b.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) removeLocked(id string) {
	if i := s.indexLocked(id); i >= 0 {
		s.blocks = append(s.blocks[:i], s.blocks[i+1:]...)
	}
}
