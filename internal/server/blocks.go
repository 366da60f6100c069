package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/studyforge/studyforge/internal/runtime"
	"github.com/studyforge/studyforge/internal/schedule"
	"github.com/studyforge/studyforge/models"
)

// BlocksHandler serves the schedule block CRUD and reorder endpoints.
type BlocksHandler struct {
	Sessions *Sessions
}

func (h *BlocksHandler) Register(g *echo.Group, secret []byte) {
	g.Use(runtime.EchoAuthMiddleware(secret))
	g.GET("", h.list)
	g.POST("", h.create)
	g.PATCH("/:id", h.update)
	g.DELETE("/:id", h.delete)
	g.PUT("/order", h.reorder)
}

func userID(c echo.Context) string {
	if v, ok := c.Get("user_id").(string); ok {
		return v
	}
	if sub, ok := runtime.SubjectFromContext(c.Request().Context()); ok {
		return sub
	}
	return ""
}

func (h *BlocksHandler) list(c echo.Context) error {
	st := h.Sessions.ForUser(userID(c))
	blocks, err := st.List(c.Request().Context())
	if err != nil {
		if errors.Is(err, schedule.ErrStorageUnavailable) {
			// Stale-but-available read; the snapshot still serves.
			return c.JSON(http.StatusServiceUnavailable, BlockListResponse{Blocks: blocks, Stale: true})
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, BlockListResponse{Blocks: blocks})
}

func (h *BlocksHandler) create(c echo.Context) error {
	var in models.BlockInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	st := h.Sessions.ForUser(userID(c))
	block, err := st.Add(c.Request().Context(), in)
	if err != nil {
		return blockError(c, err)
	}
	return c.JSON(http.StatusCreated, block)
}

func (h *BlocksHandler) update(c echo.Context) error {
	var patch models.BlockPatch
	if err := c.Bind(&patch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	st := h.Sessions.ForUser(userID(c))
	block, err := st.Update(c.Request().Context(), c.Param("id"), patch)
	if err != nil {
		return blockError(c, err)
	}
	return c.JSON(http.StatusOK, block)
}

func (h *BlocksHandler) delete(c echo.Context) error {
	st := h.Sessions.ForUser(userID(c))
	if err := st.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return blockError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *BlocksHandler) reorder(c echo.Context) error {
	var req ReorderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	st := h.Sessions.ForUser(userID(c))
	if err := st.Reorder(c.Request().Context(), req.Order); err != nil {
		var perr *schedule.PartialReorderError
		if errors.As(err, &perr) {
			return c.JSON(http.StatusInternalServerError, PartialReorderResponse{
				Error:     "reorder partially persisted",
				Persisted: perr.Persisted,
			})
		}
		return blockError(c, err)
	}
	return c.JSON(http.StatusOK, BlockListResponse{Blocks: st.Snapshot()})
}

// blockError maps block store failures onto HTTP statuses.
func blockError(c echo.Context, err error) error {
	var overlap *schedule.OverlapError
	switch {
	case errors.As(err, &overlap):
		return c.JSON(http.StatusConflict, ConflictResponse{Error: err.Error(), Conflict: overlap.Conflicting})
	case errors.Is(err, schedule.ErrInvalidDuration), errors.Is(err, schedule.ErrOutOfBounds):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, schedule.ErrBlockNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, schedule.ErrReorderLocked):
		return echo.NewHTTPError(http.StatusConflict, "a reorder gesture is in progress")
	case errors.Is(err, schedule.ErrStorageUnavailable):
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}
