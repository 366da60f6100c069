package schedule

import (
	"fmt"

	"github.com/studyforge/studyforge/models"
)

// SynthesizeInsights derives human-readable observations from a block set.
// Used when the optimizer collaborator returns no insights, and to serve
// ad-hoc insight reads over the current schedule. Always returns at least
// one entry for a non-empty schedule.
func SynthesizeInsights(blocks []models.ScheduleBlock) []string {
	if len(blocks) == 0 {
		return []string{"Your schedule is empty. Add a block or run the optimizer to get started."}
	}

	var insights []string
	total := 0
	morning, afternoon := 0, 0
	for _, b := range blocks {
		total += b.Hours()
		if b.StartHour < 12 {
			morning++
		} else {
			afternoon++
		}
	}
	insights = append(insights, fmt.Sprintf("Your schedule includes %d hours of focused study time.", total))

	if morning > afternoon {
		insights = append(insights, "Schedule optimized for morning productivity when focus is typically highest.")
	} else {
		insights = append(insights, "Balanced distribution between morning and afternoon sessions.")
	}

	perDay := map[int]int{}
	for _, b := range blocks {
		perDay[b.DayOfWeek] += b.Hours()
	}
	lightDay, lightHours := -1, -1
	for day := 1; day <= 5; day++ {
		if lightHours == -1 || perDay[day] < lightHours {
			lightDay, lightHours = day, perDay[day]
		}
	}
	if lightDay >= 0 && lightHours == 0 {
		insights = append(insights, fmt.Sprintf("%s has no sessions yet. Good day to pick up a new topic.", dayName(lightDay)))
	}
	return insights
}

func dayName(day int) string {
	names := [...]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}
	if day < 0 || day >= len(names) {
		return "Unknown"
	}
	return names[day]
}
