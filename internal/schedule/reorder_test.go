package schedule

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/studyforge/studyforge/models"
)

func TestMoveElement(t *testing.T) {
	cases := []struct {
		list     []string
		from, to int
		want     []string
	}{
		{[]string{"a", "b", "c"}, 0, 2, []string{"b", "c", "a"}},
		{[]string{"a", "b", "c"}, 2, 0, []string{"c", "a", "b"}},
		{[]string{"a", "b", "c"}, 1, 1, []string{"a", "b", "c"}},
		{[]string{"a", "b", "c"}, 5, 0, []string{"a", "b", "c"}},
	}
	for _, tc := range cases {
		if got := MoveElement(tc.list, tc.from, tc.to); !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("MoveElement(%v,%d,%d) = %v, want %v", tc.list, tc.from, tc.to, got, tc.want)
		}
	}
}

func dragFixture(t *testing.T) (*Store, *DragEngine, []models.ScheduleBlock) {
	t.Helper()
	s := NewStore(newFakeDB())
	blocks := []models.ScheduleBlock{
		mustAdd(t, s, 1, 9, 11),
		mustAdd(t, s, 2, 9, 11),
		mustAdd(t, s, 3, 9, 11),
	}
	return s, NewDragEngine(s), blocks
}

func TestDragBelowActivationDistanceIsAClick(t *testing.T) {
	s, e, blocks := dragFixture(t)
	if err := e.Press(blocks[0].ID, 100, 100); err != nil {
		t.Fatalf("Press: %v", err)
	}
	e.Move(104, 102) // under 8px of travel
	state, err := e.Release(context.Background(), blocks[2].ID)
	if err != nil {
		t.Fatalf("Release: %v", err)
	}
	if state != StateCancelled {
		t.Fatalf("state = %s, want cancelled", state)
	}
	if got := s.OrderedIDs(); got[0] != blocks[0].ID {
		t.Fatalf("order mutated on a click: %v", got)
	}
}

func TestDragDropMovesElement(t *testing.T) {
	s, e, blocks := dragFixture(t)
	if err := e.Press(blocks[0].ID, 100, 100); err != nil {
		t.Fatalf("Press: %v", err)
	}
	e.Move(100, 112) // beyond activation distance
	state, err := e.Release(context.Background(), blocks[2].ID)
	if err != nil {
		t.Fatalf("Release: %v", err)
	}
	if state != StateDropped {
		t.Fatalf("state = %s, want dropped", state)
	}
	want := []string{blocks[1].ID, blocks[2].ID, blocks[0].ID}
	if got := s.OrderedIDs(); !reflect.DeepEqual(got, want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
}

func TestDropOnSelfSkipsMutation(t *testing.T) {
	db := newFakeDB()
	s := NewStore(db)
	b := mustAdd(t, s, 1, 9, 11)
	mustAdd(t, s, 2, 9, 11)
	e := NewDragEngine(s)

	if err := e.Press(b.ID, 0, 0); err != nil {
		t.Fatalf("Press: %v", err)
	}
	e.Move(20, 0)
	state, err := e.Release(context.Background(), b.ID)
	if err != nil {
		t.Fatalf("Release: %v", err)
	}
	if state != StateCancelled {
		t.Fatalf("state = %s, want cancelled", state)
	}
	if len(db.orderWrites) != 0 {
		t.Fatalf("drop-on-self persisted %d order writes", len(db.orderWrites))
	}
}

func TestReleaseOutsideTargetCancels(t *testing.T) {
	s, e, blocks := dragFixture(t)
	if err := e.Press(blocks[1].ID, 0, 0); err != nil {
		t.Fatalf("Press: %v", err)
	}
	e.Move(0, 30)
	state, err := e.Release(context.Background(), "")
	if err != nil {
		t.Fatalf("Release: %v", err)
	}
	if state != StateCancelled {
		t.Fatalf("state = %s, want cancelled", state)
	}
	if got := s.OrderedIDs(); got[1] != blocks[1].ID {
		t.Fatalf("order mutated on cancel: %v", got)
	}
}

func TestGestureLocksStoreDuringDrag(t *testing.T) {
	s, e, blocks := dragFixture(t)
	if err := e.Press(blocks[0].ID, 0, 0); err != nil {
		t.Fatalf("Press: %v", err)
	}
	if _, err := s.Add(context.Background(), models.BlockInput{TopicName: "Trees", DayOfWeek: 4, StartHour: 9, EndHour: 10}); !errors.Is(err, ErrReorderLocked) {
		t.Fatalf("Add during drag = %v, want ErrReorderLocked", err)
	}
	e.Cancel()
	if _, err := s.Add(context.Background(), models.BlockInput{TopicName: "Trees", DayOfWeek: 4, StartHour: 9, EndHour: 10}); err != nil {
		t.Fatalf("Add after cancel: %v", err)
	}
}

func TestSecondPressWhileActiveFails(t *testing.T) {
	_, e, blocks := dragFixture(t)
	if err := e.Press(blocks[0].ID, 0, 0); err != nil {
		t.Fatalf("Press: %v", err)
	}
	if err := e.Press(blocks[1].ID, 0, 0); err == nil {
		t.Fatal("expected second press to fail while a gesture is active")
	}
}
