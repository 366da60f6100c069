package schedule

import (
	"time"

	"github.com/studyforge/studyforge/models"
)

// BuildReport aggregates one week of blocks into a report snapshot. The
// week is identified by its start date (Sunday) only; block rows carry no
// absolute dates because the grid is a recurring weekly template.
func BuildReport(blocks []models.ScheduleBlock, weekStart time.Time) models.WeeklyReport {
	rep := models.WeeklyReport{WeekStart: weekStart}
	for _, b := range blocks {
		rep.TotalHours += b.Hours()
		if b.DayOfWeek >= 0 && b.DayOfWeek < 7 {
			rep.HoursPerDay[b.DayOfWeek] += b.Hours()
		}
		switch b.Status {
		case models.BlockStatusCompleted:
			rep.CompletedBlocks++
		case models.BlockStatusMissed:
			rep.MissedBlocks++
		default:
			rep.ScheduledBlocks++
		}
	}
	rep.Insights = SynthesizeInsights(blocks)
	return rep
}

// WeekStart returns the Sunday 00:00 UTC that starts the week containing t.
func WeekStart(t time.Time) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, -int(day.Weekday()))
}
