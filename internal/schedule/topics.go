package schedule

// TopicStyle is the display descriptor for a topic category. The mapping is
// keyed by topic name with an explicit default for unrecognised names.
type TopicStyle struct {
	Category string `json:"category"`
	Color    string `json:"color"`
}

var topicStyles = map[string]TopicStyle{
	"Arrays & Hashing":    {Category: "fundamentals", Color: "emerald"},
	"Two Pointers":        {Category: "fundamentals", Color: "blue"},
	"Sliding Window":      {Category: "fundamentals", Color: "purple"},
	"Binary Search":       {Category: "searching", Color: "amber"},
	"Linked List":         {Category: "structures", Color: "pink"},
	"Trees":               {Category: "structures", Color: "cyan"},
	"Dynamic Programming": {Category: "advanced", Color: "red"},
	BreakTopic:            {Category: "rest", Color: "slate"},
}

var defaultTopicStyle = TopicStyle{Category: "general", Color: "gray"}

// StyleFor resolves the style for a topic name, falling back to the default
// entry for names outside the table.
func StyleFor(name string) TopicStyle {
	if s, ok := topicStyles[name]; ok {
		return s
	}
	return defaultTopicStyle
}

// TopicStyles returns a copy of the full style table.
func TopicStyles() map[string]TopicStyle {
	out := make(map[string]TopicStyle, len(topicStyles))
	for k, v := range topicStyles {
		out[k] = v
	}
	return out
}
