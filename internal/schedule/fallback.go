package schedule

import "github.com/studyforge/studyforge/models"

// DefaultTopics seeds the fallback generator when the user has no topics.
var DefaultTopics = []string{
	"Arrays & Hashing",
	"Two Pointers",
	"Binary Search",
	"Linked List",
	"Trees",
	"Dynamic Programming",
}

// BreakTopic labels the single Saturday recovery block.
const BreakTopic = "Break"

// GenerateFallback produces a deterministic weekly schedule without any
// external calls: two 2-hour sessions per weekday (9-11 and 14-16) cycling
// through the topics round-robin so back-to-back sessions rarely repeat a
// topic, plus one 1-hour Break on Saturday and nothing on Sunday. It never
// fails and its output is always in-bounds and non-overlapping.
func GenerateFallback(topics []string) []models.ScheduleBlock {
	if len(topics) == 0 {
		topics = DefaultTopics
	}

	blocks := make([]models.ScheduleBlock, 0, 11)
	topicIndex := 0
	for day := 1; day <= 5; day++ {
		blocks = append(blocks, models.ScheduleBlock{
			TopicName: topics[topicIndex%len(topics)],
			DayOfWeek: day,
			StartHour: 9,
			EndHour:   11,
			Status:    models.BlockStatusScheduled,
		})
		topicIndex++

		blocks = append(blocks, models.ScheduleBlock{
			TopicName: topics[topicIndex%len(topics)],
			DayOfWeek: day,
			StartHour: 14,
			EndHour:   16,
			Status:    models.BlockStatusScheduled,
		})
		topicIndex++
	}

	blocks = append(blocks, models.ScheduleBlock{
		TopicName: BreakTopic,
		DayOfWeek: 6,
		StartHour: 10,
		EndHour:   11,
		Status:    models.BlockStatusScheduled,
	})

	return blocks
}
