package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/studyforge/studyforge/internal/runtime"
	"github.com/studyforge/studyforge/internal/schedule"
	"github.com/studyforge/studyforge/models"
)

// fakePersist is an in-memory persistence collaborator shared across a test.
type fakePersist struct {
	blocks    []models.ScheduleBlock
	failOrder bool
	failedAt  int
}

func (f *fakePersist) ListBlocks(ctx context.Context) ([]models.ScheduleBlock, error) {
	return append([]models.ScheduleBlock(nil), f.blocks...), nil
}

func (f *fakePersist) InsertBlock(ctx context.Context, b models.ScheduleBlock) error {
	f.blocks = append(f.blocks, b)
	return nil
}

func (f *fakePersist) UpdateBlock(ctx context.Context, id string, patch models.BlockPatch) error {
	return nil
}

func (f *fakePersist) DeleteBlock(ctx context.Context, id string) error {
	for i, b := range f.blocks {
		if b.ID == id {
			f.blocks = append(f.blocks[:i], f.blocks[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakePersist) UpdateOrderIndex(ctx context.Context, id string, index int) error {
	if f.failOrder && f.failedAt == 0 {
		f.failedAt++
		return errors.New("write timeout")
	}
	return nil
}

func newTestHandler(f *fakePersist) *BlocksHandler {
	sessions := NewSessions(func(string) schedule.Persistence { return f })
	return &BlocksHandler{Sessions: sessions}
}

func ctxFor(e *echo.Echo, req *http.Request, rec *httptest.ResponseRecorder) echo.Context {
	c := e.NewContext(req, rec)
	c.Set("user_id", "user-1")
	return c
}

func TestCreateBlock(t *testing.T) {
	e := echo.New()
	h := newTestHandler(&fakePersist{})

	body := `{"topic_name":"Binary Search","day_of_week":2,"start_hour":9,"end_hour":11}`
	req := httptest.NewRequest(http.MethodPost, "/api/schedule/blocks", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	if err := h.create(ctxFor(e, req, rec)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	var block models.ScheduleBlock
	if err := json.Unmarshal(rec.Body.Bytes(), &block); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if block.ID == "" || block.Status != models.BlockStatusScheduled || block.OrderIndex != 0 {
		t.Fatalf("unexpected block: %+v", block)
	}
}

func TestCreateBlockOutOfBounds(t *testing.T) {
	e := echo.New()
	h := newTestHandler(&fakePersist{})

	body := `{"topic_name":"Early Bird","day_of_week":2,"start_hour":6,"end_hour":8}`
	req := httptest.NewRequest(http.MethodPost, "/api/schedule/blocks", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	err := h.create(ctxFor(e, req, rec))
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestCreateBlockConflictReturnsConflictingBlock(t *testing.T) {
	e := echo.New()
	h := newTestHandler(&fakePersist{})

	first := `{"topic_name":"Trees","day_of_week":3,"start_hour":9,"end_hour":12}`
	req := httptest.NewRequest(http.MethodPost, "/api/schedule/blocks", strings.NewReader(first))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	if err := h.create(ctxFor(e, req, rec)); err != nil {
		t.Fatalf("first create: %v", err)
	}

	second := `{"topic_name":"Graphs","day_of_week":3,"start_hour":11,"end_hour":13}`
	req = httptest.NewRequest(http.MethodPost, "/api/schedule/blocks", strings.NewReader(second))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec = httptest.NewRecorder()
	if err := h.create(ctxFor(e, req, rec)); err != nil {
		t.Fatalf("second create: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d: %s", rec.Code, rec.Body.String())
	}
	var resp ConflictResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Conflict.TopicName != "Trees" {
		t.Fatalf("expected the existing block in the conflict payload, got %+v", resp.Conflict)
	}
}

func TestCreateBlockConflictsWithPersistedRow(t *testing.T) {
	e := echo.New()
	f := &fakePersist{blocks: []models.ScheduleBlock{
		{ID: "b1", TopicName: "Trees", DayOfWeek: 1, StartHour: 9, EndHour: 11, Status: models.BlockStatusScheduled, OrderIndex: 0},
	}}
	h := newTestHandler(f)

	// no list request has touched this session; the persisted row must
	// still be visible to the conflict check
	body := `{"topic_name":"Graphs","day_of_week":1,"start_hour":10,"end_hour":12}`
	req := httptest.NewRequest(http.MethodPost, "/api/schedule/blocks", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	if err := h.create(ctxFor(e, req, rec)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d: %s", rec.Code, rec.Body.String())
	}
	if len(f.blocks) != 1 {
		t.Fatalf("conflicting block reached storage: %+v", f.blocks)
	}
}

func TestUserIDFallsBackToRequestContext(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/schedule/blocks", nil)
	req = req.WithContext(runtime.ContextWithSubject(req.Context(), "user-9"))
	c := e.NewContext(req, httptest.NewRecorder())

	if got := userID(c); got != "user-9" {
		t.Fatalf("userID = %q, want user-9", got)
	}
}

func TestListBlocksOrdered(t *testing.T) {
	e := echo.New()
	f := &fakePersist{blocks: []models.ScheduleBlock{
		{ID: "b2", TopicName: "Second", DayOfWeek: 2, StartHour: 9, EndHour: 10, Status: models.BlockStatusScheduled, OrderIndex: 1},
		{ID: "b1", TopicName: "First", DayOfWeek: 1, StartHour: 9, EndHour: 10, Status: models.BlockStatusScheduled, OrderIndex: 0},
	}}
	h := newTestHandler(f)

	req := httptest.NewRequest(http.MethodGet, "/api/schedule/blocks", nil)
	rec := httptest.NewRecorder()
	if err := h.list(ctxFor(e, req, rec)); err != nil {
		t.Fatalf("list: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var resp BlockListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Blocks) != 2 || resp.Blocks[0].ID != "b1" || resp.Blocks[1].ID != "b2" {
		t.Fatalf("expected order by order_index, got %+v", resp.Blocks)
	}
}

func TestUpdateBlockNotFound(t *testing.T) {
	e := echo.New()
	h := newTestHandler(&fakePersist{})

	req := httptest.NewRequest(http.MethodPatch, "/api/schedule/blocks/nope", strings.NewReader(`{"status":"completed"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := ctxFor(e, req, rec)
	c.SetParamNames("id")
	c.SetParamValues("nope")

	err := h.update(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", err)
	}
}

func TestReorderPartialFailure(t *testing.T) {
	e := echo.New()
	f := &fakePersist{blocks: []models.ScheduleBlock{
		{ID: "b1", TopicName: "A", DayOfWeek: 1, StartHour: 9, EndHour: 10, Status: models.BlockStatusScheduled, OrderIndex: 0},
		{ID: "b2", TopicName: "B", DayOfWeek: 2, StartHour: 9, EndHour: 10, Status: models.BlockStatusScheduled, OrderIndex: 1},
	}, failOrder: true}
	h := newTestHandler(f)

	req := httptest.NewRequest(http.MethodPut, "/api/schedule/blocks/order", strings.NewReader(`{"order":["b2","b1"]}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	if err := h.reorder(ctxFor(e, req, rec)); err != nil {
		t.Fatalf("reorder: %v", err)
	}
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d: %s", rec.Code, rec.Body.String())
	}
	var resp PartialReorderResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Persisted) != 0 {
		t.Fatalf("first write failed, nothing should be persisted: %+v", resp.Persisted)
	}
}

func TestReorderUnknownIDRejected(t *testing.T) {
	e := echo.New()
	f := &fakePersist{blocks: []models.ScheduleBlock{
		{ID: "b1", TopicName: "A", DayOfWeek: 1, StartHour: 9, EndHour: 10, Status: models.BlockStatusScheduled, OrderIndex: 0},
	}}
	h := newTestHandler(f)

	req := httptest.NewRequest(http.MethodPut, "/api/schedule/blocks/order", strings.NewReader(`{"order":["ghost"]}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	err := h.reorder(ctxFor(e, req, rec))
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestDeleteBlockIdempotent(t *testing.T) {
	e := echo.New()
	h := newTestHandler(&fakePersist{})

	req := httptest.NewRequest(http.MethodDelete, "/api/schedule/blocks/ghost", nil)
	rec := httptest.NewRecorder()
	c := ctxFor(e, req, rec)
	c.SetParamNames("id")
	c.SetParamValues("ghost")

	if err := h.delete(c); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", rec.Code)
	}
}
