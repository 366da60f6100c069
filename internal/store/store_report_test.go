package store

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/studyforge/studyforge/models"
)

func TestUpsertWeeklyReport(t *testing.T) {
	st, mock, done := newMock(t)
	defer done()

	query := regexp.QuoteMeta(`INSERT INTO weekly_reports (user_id, week_start, report) VALUES ($1,$2,$3) ON CONFLICT (user_id, week_start) DO UPDATE SET report=EXCLUDED.report, created_at=NOW()`)
	weekStart := time.Date(2026, 8, 23, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(query).
		WithArgs("u1", weekStart, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rep := models.WeeklyReport{WeekStart: weekStart, TotalHours: 12, CompletedBlocks: 4}
	if err := st.UpsertWeeklyReport(context.Background(), "u1", rep); err != nil {
		t.Fatalf("UpsertWeeklyReport: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetLatestWeeklyReport(t *testing.T) {
	st, mock, done := newMock(t)
	defer done()

	weekStart := time.Date(2026, 8, 23, 0, 0, 0, 0, time.UTC)
	payload, _ := json.Marshal(models.WeeklyReport{TotalHours: 10, MissedBlocks: 2, Insights: []string{"steady week"}})
	query := regexp.QuoteMeta(`SELECT week_start, report FROM weekly_reports WHERE user_id=$1 ORDER BY week_start DESC LIMIT 1`)
	mock.ExpectQuery(query).WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"week_start", "report"}).AddRow(weekStart, payload))

	rep, ok, err := st.GetLatestWeeklyReport(context.Background(), "u1")
	if err != nil {
		t.Fatalf("GetLatestWeeklyReport: %v", err)
	}
	if !ok {
		t.Fatal("expected a report")
	}
	if rep.TotalHours != 10 || rep.MissedBlocks != 2 || !rep.WeekStart.Equal(weekStart) {
		t.Fatalf("unexpected report: %+v", rep)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetLatestWeeklyReportAbsent(t *testing.T) {
	st, mock, done := newMock(t)
	defer done()

	query := regexp.QuoteMeta(`SELECT week_start, report FROM weekly_reports WHERE user_id=$1 ORDER BY week_start DESC LIMIT 1`)
	mock.ExpectQuery(query).WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"week_start", "report"}))

	_, ok, err := st.GetLatestWeeklyReport(context.Background(), "u1")
	if err != nil {
		t.Fatalf("GetLatestWeeklyReport: %v", err)
	}
	if ok {
		t.Fatal("expected no report")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
