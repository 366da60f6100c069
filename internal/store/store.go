package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/studyforge/studyforge/internal/schedule"
	"github.com/studyforge/studyforge/models"
)

// Store wraps the Postgres connection. All queries are user-scoped; there
// is no cross-user read path besides ListUserIDsWithBlocks.
type Store struct {
	DB *sql.DB
}

// New connects using DATABASE_URL, or the POSTGRES_* pieces when it is
// unset.
func New(ctx context.Context) (*Store, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		host := getenvDefault("POSTGRES_HOST", "localhost")
		port := getenvDefault("POSTGRES_PORT", "5432")
		user := os.Getenv("POSTGRES_USER")
		pass := os.Getenv("POSTGRES_PASSWORD")
		db := os.Getenv("POSTGRES_DB")
		ssl := getenvDefault("POSTGRES_SSLMODE", "disable")
		dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, pass, host, port, db, ssl)
	}
	return NewWithDSN(ctx, dsn)
}

// NewWithDSN opens and pings a Postgres connection.
func NewWithDSN(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return &Store{DB: db}, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// User operations

func (s *Store) CreateUser(ctx context.Context, email, hash string) error {
	_, err := s.DB.ExecContext(ctx, `INSERT INTO users (email, password_hash) VALUES ($1,$2)`, email, hash)
	return err
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (id string, hash string, err error) {
	err = s.DB.QueryRowContext(ctx, `SELECT id, password_hash FROM users WHERE email=$1`, email).Scan(&id, &hash)
	return
}

// Topic operations

func (s *Store) CreateTopic(ctx context.Context, userID, name string) (models.Topic, error) {
	var t models.Topic
	err := s.DB.QueryRowContext(ctx,
		`INSERT INTO topics (user_id, name) VALUES ($1,$2) RETURNING id, name, created_at`,
		userID, name).Scan(&t.ID, &t.Name, &t.CreatedAt)
	return t, err
}

func (s *Store) ListTopics(ctx context.Context, userID string) ([]models.Topic, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, name, created_at FROM topics WHERE user_id=$1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.Topic
	for rows.Next() {
		var t models.Topic
		if err := rows.Scan(&t.ID, &t.Name, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Schedule block operations

func (s *Store) ListBlocks(ctx context.Context, userID string) ([]models.ScheduleBlock, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, topic_id, topic_name, day_of_week, start_hour, end_hour, status, order_index FROM schedule_blocks WHERE user_id=$1 ORDER BY order_index`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.ScheduleBlock
	for rows.Next() {
		var b models.ScheduleBlock
		if err := rows.Scan(&b.ID, &b.TopicID, &b.TopicName, &b.DayOfWeek, &b.StartHour, &b.EndHour, &b.Status, &b.OrderIndex); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Store) InsertBlock(ctx context.Context, userID string, b models.ScheduleBlock) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO schedule_blocks (id, user_id, topic_id, topic_name, day_of_week, start_hour, end_hour, status, order_index) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		b.ID, userID, b.TopicID, b.TopicName, b.DayOfWeek, b.StartHour, b.EndHour, b.Status, b.OrderIndex)
	return err
}

// UpdateBlock applies only the patched columns.
func (s *Store) UpdateBlock(ctx context.Context, userID, id string, patch models.BlockPatch) error {
	sets := []string{}
	args := []interface{}{}
	add := func(col string, v interface{}) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s=$%d", col, len(args)))
	}
	if patch.TopicName != nil {
		add("topic_name", *patch.TopicName)
	}
	if patch.DayOfWeek != nil {
		add("day_of_week", *patch.DayOfWeek)
	}
	if patch.StartHour != nil {
		add("start_hour", *patch.StartHour)
	}
	if patch.EndHour != nil {
		add("end_hour", *patch.EndHour)
	}
	if patch.Status != nil {
		add("status", *patch.Status)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id, userID)
	q := fmt.Sprintf(`UPDATE schedule_blocks SET %s, updated_at=NOW() WHERE id=$%d AND user_id=$%d`,
		strings.Join(sets, ", "), len(args)-1, len(args))
	_, err := s.DB.ExecContext(ctx, q, args...)
	return err
}

func (s *Store) DeleteBlock(ctx context.Context, userID, id string) error {
	_, err := s.DB.ExecContext(ctx, `DELETE FROM schedule_blocks WHERE id=$1 AND user_id=$2`, id, userID)
	return err
}

func (s *Store) UpdateOrderIndex(ctx context.Context, userID, id string, index int) error {
	_, err := s.DB.ExecContext(ctx,
		`UPDATE schedule_blocks SET order_index=$1, updated_at=NOW() WHERE id=$2 AND user_id=$3`,
		index, id, userID)
	return err
}

// Rollover support

// ListUserIDsWithBlocks returns every user owning at least one block.
func (s *Store) ListUserIDsWithBlocks(ctx context.Context) ([]string, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT DISTINCT user_id FROM schedule_blocks`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// ResetFinishedBlocks returns completed and missed blocks to scheduled for
// the new week.
func (s *Store) ResetFinishedBlocks(ctx context.Context, userID string) (int64, error) {
	res, err := s.DB.ExecContext(ctx,
		`UPDATE schedule_blocks SET status='scheduled', updated_at=NOW() WHERE user_id=$1 AND status IN ('completed','missed')`,
		userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Weekly report operations

func (s *Store) UpsertWeeklyReport(ctx context.Context, userID string, rep models.WeeklyReport) error {
	payload, err := json.Marshal(rep)
	if err != nil {
		return err
	}
	_, err = s.DB.ExecContext(ctx,
		`INSERT INTO weekly_reports (user_id, week_start, report) VALUES ($1,$2,$3) ON CONFLICT (user_id, week_start) DO UPDATE SET report=EXCLUDED.report, created_at=NOW()`,
		userID, rep.WeekStart, payload)
	return err
}

func (s *Store) GetLatestWeeklyReport(ctx context.Context, userID string) (models.WeeklyReport, bool, error) {
	var (
		payload   []byte
		weekStart time.Time
	)
	err := s.DB.QueryRowContext(ctx,
		`SELECT week_start, report FROM weekly_reports WHERE user_id=$1 ORDER BY week_start DESC LIMIT 1`,
		userID).Scan(&weekStart, &payload)
	if err == sql.ErrNoRows {
		return models.WeeklyReport{}, false, nil
	}
	if err != nil {
		return models.WeeklyReport{}, false, err
	}
	var rep models.WeeklyReport
	if err := json.Unmarshal(payload, &rep); err != nil {
		return models.WeeklyReport{}, false, err
	}
	rep.WeekStart = weekStart
	return rep, true, nil
}

// ForUser narrows the store to one user's blocks so it satisfies the block
// store's persistence contract.
func (s *Store) ForUser(userID string) schedule.Persistence {
	return &userBlocks{store: s, userID: userID}
}

type userBlocks struct {
	store  *Store
	userID string
}

func (u *userBlocks) ListBlocks(ctx context.Context) ([]models.ScheduleBlock, error) {
	return u.store.ListBlocks(ctx, u.userID)
}

func (u *userBlocks) InsertBlock(ctx context.Context, b models.ScheduleBlock) error {
	return u.store.InsertBlock(ctx, u.userID, b)
}

func (u *userBlocks) UpdateBlock(ctx context.Context, id string, patch models.BlockPatch) error {
	return u.store.UpdateBlock(ctx, u.userID, id, patch)
}

func (u *userBlocks) DeleteBlock(ctx context.Context, id string) error {
	return u.store.DeleteBlock(ctx, u.userID, id)
}

func (u *userBlocks) UpdateOrderIndex(ctx context.Context, id string, index int) error {
	return u.store.UpdateOrderIndex(ctx, u.userID, id, index)
}
