package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/studyforge/studyforge/internal/runtime"
	"github.com/studyforge/studyforge/internal/schedule"
	"github.com/studyforge/studyforge/internal/store"
)

// ReportHandler serves weekly insight and report endpoints.
type ReportHandler struct {
	Sessions *Sessions
	Store    *store.Store
}

func (h *ReportHandler) Register(g *echo.Group, secret []byte) {
	g.Use(runtime.EchoAuthMiddleware(secret))
	g.GET("/insights", h.insights)
	g.GET("/report", h.report)
}

func (h *ReportHandler) insights(c echo.Context) error {
	st := h.Sessions.ForUser(userID(c))
	blocks, _ := st.List(c.Request().Context())
	return c.JSON(http.StatusOK, InsightsResponse{Insights: schedule.SynthesizeInsights(blocks)})
}

// report returns the latest stored weekly report. Before the first rollover
// it aggregates the live schedule instead.
func (h *ReportHandler) report(c echo.Context) error {
	uid := userID(c)
	rep, ok, err := h.Store.GetLatestWeeklyReport(c.Request().Context(), uid)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !ok {
		st := h.Sessions.ForUser(uid)
		blocks, _ := st.List(c.Request().Context())
		rep = schedule.BuildReport(blocks, schedule.WeekStart(time.Now()))
	}
	return c.JSON(http.StatusOK, rep)
}
