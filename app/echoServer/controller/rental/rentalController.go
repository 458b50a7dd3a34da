package rental

import (
	"log/slog"
	"net/http"
	"strconv"

	rentalrepo "bookcatalog/repository/rental"
	rentalsvc "bookcatalog/service/rental"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type Controller struct {
	Svc rentalsvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

// POST /v1/rentals/:id/return
// @Summary      Return a rental
// @Description  Closes the active rental and makes the book available again. Returning twice is a conflict.
// @Tags         rentals
// @Produce      json
// @Param        id  path  string  true  "Rental ID"
// @Success      200  {object}  model.Rental
// @Failure      404  {object}  map[string]any
// @Failure      409  {object}  map[string]any "rental is already returned"
// @Router       /v1/rentals/{id}/return [post]
func (h *Controller) Return(c echo.Context) error {
	uid, _ := c.Get("user_id").(string)

	out, err := h.Svc.Return(c.Request().Context(), uid, c.Param("id"))
	if err != nil {
		switch rentalsvc.Code(err) {
		case rentalsvc.ErrNotFound:
			return echo.NewHTTPError(http.StatusNotFound, "rental not found")
		case rentalsvc.ErrAlreadyReturned:
			return echo.NewHTTPError(http.StatusConflict, "rental is already returned")
		default:
			h.Log.Error("rental return", "err", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}
	return c.JSON(http.StatusOK, out)
}

// GET /v1/rentals
// @Summary      List my rentals
// @Tags         rentals
// @Produce      json
// @Param        page       query  int   false  "Page"
// @Param        limit      query  int   false  "Page size"
// @Param        is_active  query  bool  false  "Filter by active flag"
// @Success      200  {object}  map[string]any
// @Router       /v1/rentals [get]
func (h *Controller) List(c echo.Context) error {
	uid, _ := c.Get("user_id").(string)

	f := rentalrepo.Filter{UserID: uid}
	f.Page, _ = strconv.Atoi(c.QueryParam("page"))
	f.Limit, _ = strconv.Atoi(c.QueryParam("limit"))
	if raw := c.QueryParam("is_active"); raw != "" {
		if v, err := strconv.ParseBool(raw); err == nil {
			f.IsActive = &v
		}
	}

	page, err := h.Svc.List(c.Request().Context(), f)
	if err != nil {
		h.Log.Error("rental list", "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, page)
}

// GET /v1/rentals/:id
// @Summary      Rental detail
// @Tags         rentals
// @Produce      json
// @Param        id  path  string  true  "Rental ID"
// @Success      200  {object}  model.Rental
// @Failure      404  {object}  map[string]any
// @Router       /v1/rentals/{id} [get]
func (h *Controller) Detail(c echo.Context) error {
	uid, _ := c.Get("user_id").(string)

	out, err := h.Svc.Get(c.Request().Context(), uid, c.Param("id"))
	if err != nil {
		if rentalsvc.Code(err) == rentalsvc.ErrNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "rental not found")
		}
		h.Log.Error("rental detail", "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, out)
}
