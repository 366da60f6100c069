package store

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/studyforge/studyforge/models"
)

func newMock(t *testing.T) (*Store, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	return &Store{DB: db}, mock, func() { db.Close() }
}

func TestListBlocks(t *testing.T) {
	st, mock, done := newMock(t)
	defer done()

	query := regexp.QuoteMeta(`SELECT id, topic_id, topic_name, day_of_week, start_hour, end_hour, status, order_index FROM schedule_blocks WHERE user_id=$1 ORDER BY order_index`)
	rows := sqlmock.NewRows([]string{"id", "topic_id", "topic_name", "day_of_week", "start_hour", "end_hour", "status", "order_index"}).
		AddRow("b1", nil, "Arrays & Hashing", 1, 9, 11, "scheduled", 0).
		AddRow("b2", nil, "Trees", 3, 14, 16, "completed", 1)
	mock.ExpectQuery(query).WithArgs("u1").WillReturnRows(rows)

	blocks, err := st.ListBlocks(context.Background(), "u1")
	if err != nil {
		t.Fatalf("ListBlocks: %v", err)
	}
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
	if blocks[0].TopicName != "Arrays & Hashing" || blocks[1].Status != models.BlockStatusCompleted {
		t.Fatalf("unexpected rows: %+v", blocks)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestInsertBlock(t *testing.T) {
	st, mock, done := newMock(t)
	defer done()

	query := regexp.QuoteMeta(`INSERT INTO schedule_blocks (id, user_id, topic_id, topic_name, day_of_week, start_hour, end_hour, status, order_index) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`)
	mock.ExpectExec(query).
		WithArgs("b1", "u1", nil, "Binary Search", 2, 9, 10, "scheduled", 3).
		WillReturnResult(sqlmock.NewResult(0, 1))

	b := models.ScheduleBlock{ID: "b1", TopicName: "Binary Search", DayOfWeek: 2, StartHour: 9, EndHour: 10, Status: models.BlockStatusScheduled, OrderIndex: 3}
	if err := st.InsertBlock(context.Background(), "u1", b); err != nil {
		t.Fatalf("InsertBlock: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdateBlockPatchedColumnsOnly(t *testing.T) {
	st, mock, done := newMock(t)
	defer done()

	query := regexp.QuoteMeta(`UPDATE schedule_blocks SET day_of_week=$1, start_hour=$2, end_hour=$3, updated_at=NOW() WHERE id=$4 AND user_id=$5`)
	mock.ExpectExec(query).
		WithArgs(4, 14, 16, "b1", "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	day, start, end := 4, 14, 16
	patch := models.BlockPatch{DayOfWeek: &day, StartHour: &start, EndHour: &end}
	if err := st.UpdateBlock(context.Background(), "u1", "b1", patch); err != nil {
		t.Fatalf("UpdateBlock: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdateBlockStatusOnly(t *testing.T) {
	st, mock, done := newMock(t)
	defer done()

	query := regexp.QuoteMeta(`UPDATE schedule_blocks SET status=$1, updated_at=NOW() WHERE id=$2 AND user_id=$3`)
	mock.ExpectExec(query).
		WithArgs("completed", "b1", "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	status := models.BlockStatusCompleted
	if err := st.UpdateBlock(context.Background(), "u1", "b1", models.BlockPatch{Status: &status}); err != nil {
		t.Fatalf("UpdateBlock: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdateBlockEmptyPatchIsNoop(t *testing.T) {
	st, mock, done := newMock(t)
	defer done()

	if err := st.UpdateBlock(context.Background(), "u1", "b1", models.BlockPatch{}); err != nil {
		t.Fatalf("UpdateBlock: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("empty patch must not hit the database: %v", err)
	}
}

func TestDeleteAndReorder(t *testing.T) {
	st, mock, done := newMock(t)
	defer done()

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM schedule_blocks WHERE id=$1 AND user_id=$2`)).
		WithArgs("b1", "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE schedule_blocks SET order_index=$1, updated_at=NOW() WHERE id=$2 AND user_id=$3`)).
		WithArgs(2, "b2", "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := st.DeleteBlock(context.Background(), "u1", "b1"); err != nil {
		t.Fatalf("DeleteBlock: %v", err)
	}
	if err := st.UpdateOrderIndex(context.Background(), "u1", "b2", 2); err != nil {
		t.Fatalf("UpdateOrderIndex: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestResetFinishedBlocks(t *testing.T) {
	st, mock, done := newMock(t)
	defer done()

	query := regexp.QuoteMeta(`UPDATE schedule_blocks SET status='scheduled', updated_at=NOW() WHERE user_id=$1 AND status IN ('completed','missed')`)
	mock.ExpectExec(query).WithArgs("u1").WillReturnResult(sqlmock.NewResult(0, 5))

	n, err := st.ResetFinishedBlocks(context.Background(), "u1")
	if err != nil {
		t.Fatalf("ResetFinishedBlocks: %v", err)
	}
	if n != 5 {
		t.Fatalf("expected 5 rows reset, got %d", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestForUserScopesQueries(t *testing.T) {
	st, mock, done := newMock(t)
	defer done()

	query := regexp.QuoteMeta(`SELECT id, topic_id, topic_name, day_of_week, start_hour, end_hour, status, order_index FROM schedule_blocks WHERE user_id=$1 ORDER BY order_index`)
	mock.ExpectQuery(query).WithArgs("u2").
		WillReturnRows(sqlmock.NewRows([]string{"id", "topic_id", "topic_name", "day_of_week", "start_hour", "end_hour", "status", "order_index"}))

	if _, err := st.ForUser("u2").ListBlocks(context.Background()); err != nil {
		t.Fatalf("ListBlocks via ForUser: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
