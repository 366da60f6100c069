package optimizer

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ProposedBlock is the block-shaped object the generation collaborator is
// expected to return. The collaborator never resolves topic identities,
// only names.
type ProposedBlock struct {
	TopicName string `json:"topic_name"`
	DayOfWeek int    `json:"day_of_week"`
	StartHour int    `json:"start_hour"`
	EndHour   int    `json:"end_hour"`
}

// Extractor pulls proposed blocks and optional insight strings out of a raw
// collaborator response. Implementations are swappable so the scanning
// strategy can be hardened without touching the calling code.
type Extractor interface {
	Extract(raw string) ([]ProposedBlock, []string, error)
}

// NewExtractor returns the default two-stage extractor: a structured parse
// of the whole body first, then a balanced-bracket scan for the first
// top-level JSON array embedded anywhere in the text.
func NewExtractor() Extractor {
	return chainExtractor{structuredExtractor{}, bracketExtractor{}}
}

type chainExtractor []Extractor

func (c chainExtractor) Extract(raw string) ([]ProposedBlock, []string, error) {
	var lastErr error
	for _, e := range c {
		blocks, insights, err := e.Extract(raw)
		if err == nil {
			return blocks, insights, nil
		}
		lastErr = err
	}
	return nil, nil, lastErr
}

// structuredExtractor handles collaborators that return clean JSON: either
// a bare array of blocks or an envelope {"schedule": [...], "insights": [...]}.
type structuredExtractor struct{}

func (structuredExtractor) Extract(raw string) ([]ProposedBlock, []string, error) {
	trimmed := strings.TrimSpace(raw)
	var envelope struct {
		Schedule []json.RawMessage `json:"schedule"`
		Insights []string          `json:"insights"`
	}
	if err := json.Unmarshal([]byte(trimmed), &envelope); err == nil && envelope.Schedule != nil {
		return decodeEntries(envelope.Schedule), envelope.Insights, nil
	}
	var entries []json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &entries); err != nil {
		return nil, nil, fmt.Errorf("response is not structured JSON: %w", err)
	}
	return decodeEntries(entries), nil, nil
}

// bracketExtractor scans free-form text for the first top-level balanced
// [...] substring and parses that. It is deliberately naive (no string
// awareness) because the collaborator is not guaranteed to return only
// JSON, or even valid JSON.
type bracketExtractor struct{}

func (bracketExtractor) Extract(raw string) ([]ProposedBlock, []string, error) {
	jsonStr := ""
	start := -1
	depth := 0
	for i, ch := range raw {
		if ch == '[' {
			if depth == 0 {
				start = i
			}
			depth++
		} else if ch == ']' {
			if depth > 0 {
				depth--
			}
			if depth == 0 && start != -1 {
				jsonStr = raw[start : i+1]
				break
			}
		}
	}
	if jsonStr == "" {
		return nil, nil, fmt.Errorf("no JSON array found in response")
	}
	var entries []json.RawMessage
	if err := json.Unmarshal([]byte(jsonStr), &entries); err != nil {
		return nil, nil, fmt.Errorf("failed to parse extracted array: %w", err)
	}
	return decodeEntries(entries), nil, nil
}

// decodeEntries converts raw array elements one by one so a single
// malformed entry never aborts the whole batch.
func decodeEntries(entries []json.RawMessage) []ProposedBlock {
	out := make([]ProposedBlock, 0, len(entries))
	for _, e := range entries {
		var p ProposedBlock
		if err := json.Unmarshal(e, &p); err != nil {
			continue
		}
		out = append(out, p)
	}
	return out
}
