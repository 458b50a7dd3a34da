package notification

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	notificationrepo "bookcatalog/repository/notification"
	notificationsvc "bookcatalog/service/notification"

	"github.com/labstack/echo/v4"
)

type Controller struct {
	Svc notificationsvc.Service
	Log *slog.Logger
}

// GET /v1/notifications
func (h *Controller) List(c echo.Context) error {
	uid, _ := c.Get("user_id").(string)

	f := notificationrepo.Filter{UserID: uid}
	f.Page, _ = strconv.Atoi(c.QueryParam("page"))
	f.Limit, _ = strconv.Atoi(c.QueryParam("limit"))
	if raw := c.QueryParam("read"); raw != "" {
		if v, err := strconv.ParseBool(raw); err == nil {
			f.Read = &v
		}
	}

	page, err := h.Svc.List(c.Request().Context(), f)
	if err != nil {
		h.Log.Error("notification list", "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, page)
}

// GET /v1/notifications/:id
func (h *Controller) Detail(c echo.Context) error {
	uid, _ := c.Get("user_id").(string)

	n, err := h.Svc.Get(c.Request().Context(), uid, c.Param("id"))
	if err != nil {
		if errors.Is(err, notificationsvc.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "notification not found")
		}
		h.Log.Error("notification detail", "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, n)
}

// POST /v1/notifications/:id/read
func (h *Controller) MarkRead(c echo.Context) error {
	uid, _ := c.Get("user_id").(string)

	n, err := h.Svc.MarkRead(c.Request().Context(), uid, c.Param("id"))
	if err != nil {
		if errors.Is(err, notificationsvc.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "notification not found")
		}
		h.Log.Error("notification mark read", "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, n)
}

// POST /v1/notifications/read-all
func (h *Controller) MarkAllRead(c echo.Context) error {
	uid, _ := c.Get("user_id").(string)

	updated, err := h.Svc.MarkAllRead(c.Request().Context(), uid)
	if err != nil {
		h.Log.Error("notification mark all read", "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, echo.Map{"updated": updated})
}
