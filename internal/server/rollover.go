package server

import (
	"context"
	"log"
	"time"

	"github.com/gorhill/cronexpr"
	"github.com/redis/go-redis/v9"

	"github.com/studyforge/studyforge/internal/schedule"
	"github.com/studyforge/studyforge/internal/store"
)

// Rollover snapshots every user's week into a report and returns finished
// blocks to scheduled. It ticks hourly and fires when the cron spec is due;
// a redis lock keeps multiple replicas from rolling the same week twice.
type Rollover struct {
	Store  *store.Store
	Rdb    *redis.Client
	Cron   string
	Stop   chan struct{}
	Logger *log.Logger
}

const rolloverLastKey = "rollover:last"

func (r *Rollover) Start() {
	if r.Logger == nil {
		r.Logger = log.New(log.Writer(), "[ROLLOVER] ", log.LstdFlags)
	}
	ticker := time.NewTicker(1 * time.Hour)
	go func() {
		for {
			select {
			case <-r.Stop:
				ticker.Stop()
				return
			case <-ticker.C:
				r.tick()
			}
		}
	}()
}

func (r *Rollover) tick() {
	ctx := context.Background()
	if r.Rdb != nil {
		ok, _ := r.Rdb.SetNX(ctx, "rollover:lock", "1", 2*time.Minute).Result()
		if !ok {
			return
		}
		defer r.Rdb.Del(ctx, "rollover:lock")
	}

	var last *time.Time
	if r.Rdb != nil {
		if raw, err := r.Rdb.Get(ctx, rolloverLastKey).Result(); err == nil {
			if ts, err := time.Parse(time.RFC3339, raw); err == nil {
				last = &ts
			}
		}
	}
	if !isDue(r.Cron, last) {
		return
	}

	users, err := r.Store.ListUserIDsWithBlocks(ctx)
	if err != nil {
		r.Logger.Printf("listing users: %v", err)
		return
	}
	weekStart := schedule.WeekStart(time.Now().AddDate(0, 0, -7))
	for _, uid := range users {
		blocks, err := r.Store.ListBlocks(ctx, uid)
		if err != nil {
			r.Logger.Printf("user %s: listing blocks: %v", uid, err)
			continue
		}
		rep := schedule.BuildReport(blocks, weekStart)
		if err := r.Store.UpsertWeeklyReport(ctx, uid, rep); err != nil {
			r.Logger.Printf("user %s: saving report: %v", uid, err)
			continue
		}
		n, err := r.Store.ResetFinishedBlocks(ctx, uid)
		if err != nil {
			r.Logger.Printf("user %s: resetting blocks: %v", uid, err)
			continue
		}
		r.Logger.Printf("user %s: rolled over, %d blocks reset", uid, n)
	}

	if r.Rdb != nil {
		r.Rdb.Set(ctx, rolloverLastKey, time.Now().Format(time.RFC3339), 0)
	}
}

// isDue determines if the job with cronSpec should run now given its last
// run time. Supports "@weekly", "@daily" and standard 5-field expressions.
func isDue(cronSpec string, last *time.Time) bool {
	now := time.Now()
	switch cronSpec {
	case "@weekly":
		if last == nil {
			return true
		}
		return now.Sub(*last) >= 7*24*time.Hour
	case "@daily":
		if last == nil {
			return true
		}
		return now.Sub(*last) >= 24*time.Hour
	default:
		expr, err := cronexpr.Parse(cronSpec)
		if err != nil {
			if last == nil {
				return true
			}
			return now.Sub(*last) >= 7*24*time.Hour
		}
		if last == nil {
			return true
		}
		next := expr.Next(*last)
		return !next.After(now)
	}
}
