package server

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/lib/pq"

	"github.com/studyforge/studyforge/internal/runtime"
	"github.com/studyforge/studyforge/internal/schedule"
	"github.com/studyforge/studyforge/internal/store"
)

// TopicsHandler serves the study topic endpoints.
type TopicsHandler struct {
	Store *store.Store
}

func (h *TopicsHandler) Register(g *echo.Group, secret []byte) {
	g.Use(runtime.EchoAuthMiddleware(secret))
	g.GET("", h.list)
	g.POST("", h.create)
	g.GET("/styles", h.styles)
}

func (h *TopicsHandler) list(c echo.Context) error {
	topics, err := h.Store.ListTopics(c.Request().Context(), userID(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, topics)
}

func (h *TopicsHandler) create(c echo.Context) error {
	var req CreateTopicRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "topic name required")
	}
	topic, err := h.Store.CreateTopic(c.Request().Context(), userID(c), name)
	if err != nil {
		if pgErr, ok := err.(*pq.Error); ok && pgErr.Code == "23505" {
			return echo.NewHTTPError(http.StatusConflict, "topic already exists")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, topic)
}

// styles returns the category and color assigned to each known topic name.
func (h *TopicsHandler) styles(c echo.Context) error {
	return c.JSON(http.StatusOK, schedule.TopicStyles())
}
