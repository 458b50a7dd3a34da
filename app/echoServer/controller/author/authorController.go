package author

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"bookcatalog/model"
	authorrepo "bookcatalog/repository/author"
	authorsvc "bookcatalog/service/author"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type Controller struct {
	Svc authorsvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

// GET /v1/authors
func (h *Controller) List(c echo.Context) error {
	f := authorrepo.Filter{
		Search:    c.QueryParam("search"),
		SortBy:    c.QueryParam("sort_by"),
		SortOrder: c.QueryParam("sort_order"),
	}
	f.Page, _ = strconv.Atoi(c.QueryParam("page"))
	f.Limit, _ = strconv.Atoi(c.QueryParam("limit"))

	page, err := h.Svc.List(c.Request().Context(), f)
	if err != nil {
		h.Log.Error("author list", "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, page)
}

// GET /v1/authors/:id
func (h *Controller) Detail(c echo.Context) error {
	a, err := h.Svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.mapErr(c, err, "author detail")
	}
	return c.JSON(http.StatusOK, a)
}

// POST /v1/authors (admin)
func (h *Controller) Create(c echo.Context) error {
	var req model.CreateAuthorReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := h.V.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "validation error")
	}

	a, err := h.Svc.Create(c.Request().Context(), req)
	if err != nil {
		return h.mapErr(c, err, "author create")
	}
	return c.JSON(http.StatusCreated, a)
}

// PATCH /v1/authors/:id (admin)
func (h *Controller) Update(c echo.Context) error {
	var req model.UpdateAuthorReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	a, err := h.Svc.Update(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return h.mapErr(c, err, "author update")
	}
	return c.JSON(http.StatusOK, a)
}

// DELETE /v1/authors/:id (admin)
func (h *Controller) Delete(c echo.Context) error {
	if err := h.Svc.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return h.mapErr(c, err, "author delete")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "deleted"})
}

func (h *Controller) mapErr(c echo.Context, err error, op string) error {
	switch {
	case errors.Is(err, authorsvc.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "author not found")
	case errors.Is(err, authorsvc.ErrNameTaken):
		return echo.NewHTTPError(http.StatusConflict, "author name already exists")
	case errors.Is(err, authorsvc.ErrHasBooks):
		return echo.NewHTTPError(http.StatusConflict, "author is referenced by books")
	default:
		h.Log.Error(op, "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
