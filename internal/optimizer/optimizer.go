package optimizer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/studyforge/studyforge/internal/schedule"
	"github.com/studyforge/studyforge/models"
	"github.com/studyforge/studyforge/provider"
)

// DefaultTimeout is generous because generation latency routinely runs into
// tens of seconds.
const DefaultTimeout = 60 * time.Second

// Degradation reasons reported alongside a fallback schedule.
const (
	DegradedRateLimited      = "rate_limited"
	DegradedQuotaExhausted   = "quota_exhausted"
	DegradedGenerationFailed = "generation_failed"
)

// Request is the payload sent to the generation collaborator.
type Request struct {
	CurrentSchedule  []models.ScheduleBlock   `json:"current_schedule"`
	ActivityPatterns *models.ActivityPatterns `json:"activity_patterns,omitempty"`
	Topics           []string                 `json:"topics"`
	Preferences      *models.Preferences      `json:"preferences"`
}

// Result is an optimization outcome. Degraded is empty on a clean run, or
// one of the Degraded* reasons when the fallback generator produced the
// blocks instead of the collaborator.
type Result struct {
	Blocks   []models.ScheduleBlock `json:"schedule"`
	Insights []string               `json:"insights"`
	Degraded string                 `json:"degraded,omitempty"`
}

// BlockAdder is the slice of the block store the optimizer needs: every
// accepted proposal is appended through the validated Add path.
type BlockAdder interface {
	Add(ctx context.Context, in models.BlockInput) (models.ScheduleBlock, error)
}

// Client requests an optimized weekly schedule from the generation
// collaborator and safely integrates the result. At most one optimize call
// is in flight per user; a re-trigger cancels the prior call and its
// response is discarded, not queued.
type Client struct {
	llm       provider.Provider
	extractor Extractor
	timeout   time.Duration
	logger    *log.Logger

	mu       sync.Mutex
	seq      uint64
	inflight map[string]inflightCall
}

type inflightCall struct {
	id     uint64
	cancel context.CancelFunc
}

// ClientOption configures an optimizer client.
type ClientOption func(*Client)

// WithTimeout overrides the generation timeout.
func WithTimeout(d time.Duration) ClientOption { return func(c *Client) { c.timeout = d } }

// WithExtractor swaps the response extraction strategy.
func WithExtractor(e Extractor) ClientOption { return func(c *Client) { c.extractor = e } }

// WithLogger sets the client logger.
func WithLogger(l *log.Logger) ClientOption { return func(c *Client) { c.logger = l } }

// New builds an optimizer client over the given generation provider.
func New(llm provider.Provider, opts ...ClientOption) *Client {
	c := &Client{
		llm:       llm,
		extractor: NewExtractor(),
		timeout:   DefaultTimeout,
		logger:    log.New(log.Writer(), "[OPTIMIZE] ", log.LstdFlags),
		inflight:  map[string]inflightCall{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Optimize runs one optimization for userID and appends every accepted
// block through store.Add. Collaborator failure, timeout, or an unusable
// response all degrade to the deterministic fallback generator instead of
// surfacing an error to the user; only cancellation by a superseding call
// propagates.
func (c *Client) Optimize(ctx context.Context, userID string, store BlockAdder, req Request) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	token := c.begin(userID, cancel)
	defer c.end(userID, token, cancel)

	proposals, insights, degraded := c.generate(ctx, req)
	if errors.Is(ctx.Err(), context.Canceled) {
		// Superseded by a newer optimize call; discard this response.
		return Result{}, ctx.Err()
	}

	// Persist accepted proposals through the validated store path. The
	// store rejects overlaps against existing blocks; a rejected entry is
	// logged and skipped, never aborts the batch. Appending uses the
	// request context's parent so a late timeout does not strand writes.
	res := Result{Degraded: degraded, Insights: insights}
	for _, p := range proposals {
		if !validProposal(p) {
			blocksRejected.Inc()
			continue
		}
		added, err := store.Add(context.WithoutCancel(ctx), models.BlockInput{
			TopicName: p.TopicName,
			DayOfWeek: p.DayOfWeek,
			StartHour: p.StartHour,
			EndHour:   p.EndHour,
		})
		if err != nil {
			blocksRejected.Inc()
			c.logger.Printf("user %s: dropped proposal %q day %d %d-%d: %v", userID, p.TopicName, p.DayOfWeek, p.StartHour, p.EndHour, err)
			continue
		}
		blocksAccepted.Inc()
		res.Blocks = append(res.Blocks, added)
	}

	if len(res.Insights) == 0 {
		res.Insights = schedule.SynthesizeInsights(res.Blocks)
	}
	return res, nil
}

// generate runs the collaborator call and extraction, falling back to the
// deterministic generator on any failure class.
func (c *Client) generate(ctx context.Context, req Request) ([]ProposedBlock, []string, string) {
	raw, err := c.llm.Complete(ctx, systemPrompt, buildUserPrompt(req))
	if err != nil {
		reason := classify(err)
		if !errors.Is(err, context.Canceled) {
			c.logger.Printf("generation failed (%s): %v", reason, err)
			fallbacks.WithLabelValues(reason).Inc()
		}
		return fallbackProposals(req.Topics), nil, reason
	}

	proposals, insights, err := c.extractor.Extract(raw)
	if err != nil {
		c.logger.Printf("unusable generation response: %v", err)
		fallbacks.WithLabelValues(DegradedGenerationFailed).Inc()
		return fallbackProposals(req.Topics), nil, DegradedGenerationFailed
	}
	return proposals, insights, ""
}

func classify(err error) string {
	switch {
	case errors.Is(err, models.ErrRateLimited):
		return DegradedRateLimited
	case errors.Is(err, models.ErrQuotaExhausted):
		return DegradedQuotaExhausted
	default:
		return DegradedGenerationFailed
	}
}

func fallbackProposals(topics []string) []ProposedBlock {
	blocks := schedule.GenerateFallback(topics)
	out := make([]ProposedBlock, len(blocks))
	for i, b := range blocks {
		out[i] = ProposedBlock{TopicName: b.TopicName, DayOfWeek: b.DayOfWeek, StartHour: b.StartHour, EndHour: b.EndHour}
	}
	return out
}

// validProposal applies the acceptance filter: named topic, day 0-6, start
// 8-19, end inside (start, 20].
func validProposal(p ProposedBlock) bool {
	if p.TopicName == "" {
		return false
	}
	if p.DayOfWeek < 0 || p.DayOfWeek > 6 {
		return false
	}
	if p.StartHour < 8 || p.StartHour > 19 {
		return false
	}
	if p.EndHour <= p.StartHour || p.EndHour > 20 {
		return false
	}
	return true
}

// begin registers the user's in-flight call, cancelling any prior one.
func (c *Client) begin(userID string, cancel context.CancelFunc) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if prior, ok := c.inflight[userID]; ok {
		prior.cancel()
	}
	c.seq++
	c.inflight[userID] = inflightCall{id: c.seq, cancel: cancel}
	return c.seq
}

// end clears the registration unless a newer call already replaced it.
func (c *Client) end(userID string, token uint64, cancel context.CancelFunc) {
	c.mu.Lock()
	if cur, ok := c.inflight[userID]; ok && cur.id == token {
		delete(c.inflight, userID)
	}
	c.mu.Unlock()
	cancel()
}

const systemPrompt = `You are an expert study schedule optimizer. Your job is to analyze a student's current study patterns and create an optimized weekly schedule.

Consider these factors:
1. Peak productivity hours (when focus is highest)
2. Topic difficulty (harder topics should be scheduled during peak hours)
3. Spaced repetition (don't cluster same topics together)
4. Break times (include short breaks between intense sessions)
5. Weekend vs weekday patterns

Return ONLY a valid JSON array of schedule blocks. Each block must have:
- topic_name: string (the study topic)
- day_of_week: number (0=Sunday to 6=Saturday)
- start_hour: number (8-20, in 24-hour format)
- end_hour: number (9-20, must be > start_hour)

Generate 15-20 blocks spread across the week. Do not include any explanation, just the JSON array.`

func buildUserPrompt(req Request) string {
	current := req.CurrentSchedule
	if current == nil {
		current = []models.ScheduleBlock{}
	}
	patterns := req.ActivityPatterns
	if patterns == nil {
		patterns = &models.ActivityPatterns{
			BestDays:               []string{"Monday", "Wednesday", "Friday"},
			PeakHours:              []int{9, 10, 11, 14, 15},
			AverageFocus:           75,
			PreferredSessionLength: 90,
		}
	}
	topics := req.Topics
	if len(topics) == 0 {
		topics = schedule.DefaultTopics
	}
	prefs := req.Preferences
	if prefs == nil {
		prefs = &models.Preferences{DailyStudyHours: 4, BreakDuration: 15, PreferredStart: 9, PreferredEnd: 18}
	}

	currentJSON, _ := json.Marshal(current)
	patternsJSON, _ := json.Marshal(patterns)
	topicsJSON, _ := json.Marshal(topics)
	prefsJSON, _ := json.Marshal(prefs)

	return fmt.Sprintf(`Current schedule: %s

Activity patterns: %s

Topics to study: %s

User preferences: %s

Generate an optimized weekly study schedule.`, currentJSON, patternsJSON, topicsJSON, prefsJSON)
}
