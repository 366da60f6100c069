package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/studyforge/studyforge/internal/optimizer"
	"github.com/studyforge/studyforge/internal/runtime"
	"github.com/studyforge/studyforge/internal/store"
)

// Optimizer is the slice of the optimizer client the handler needs.
type Optimizer interface {
	Optimize(ctx context.Context, userID string, store optimizer.BlockAdder, req optimizer.Request) (optimizer.Result, error)
}

// OptimizeHandler triggers schedule generation for the authenticated user.
type OptimizeHandler struct {
	Sessions *Sessions
	Opt      Optimizer
	Store    *store.Store
}

func (h *OptimizeHandler) Register(g *echo.Group, secret []byte) {
	g.Use(runtime.EchoAuthMiddleware(secret))
	g.POST("/optimize", h.optimize)
}

func (h *OptimizeHandler) optimize(c echo.Context) error {
	var req OptimizeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	uid := userID(c)
	ctx := c.Request().Context()
	session := h.Sessions.ForUser(uid)

	topics := req.Topics
	if len(topics) == 0 && h.Store != nil {
		stored, err := h.Store.ListTopics(ctx, uid)
		if err == nil {
			for _, t := range stored {
				topics = append(topics, t.Name)
			}
		}
	}

	res, err := h.Opt.Optimize(ctx, uid, session, optimizer.Request{
		CurrentSchedule:  session.Snapshot(),
		ActivityPatterns: req.ActivityPatterns,
		Topics:           topics,
		Preferences:      req.Preferences,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			// A newer optimize call for this user superseded us.
			return echo.NewHTTPError(http.StatusConflict, "optimization superseded by a newer request")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, OptimizeResponse{Blocks: res.Blocks, Insights: res.Insights, Degraded: res.Degraded})
}
