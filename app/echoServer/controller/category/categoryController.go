package category

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"bookcatalog/model"
	categoryrepo "bookcatalog/repository/category"
	categorysvc "bookcatalog/service/category"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type Controller struct {
	Svc categorysvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

// GET /v1/categories
func (h *Controller) List(c echo.Context) error {
	f := categoryrepo.Filter{Search: c.QueryParam("search")}
	f.Page, _ = strconv.Atoi(c.QueryParam("page"))
	f.Limit, _ = strconv.Atoi(c.QueryParam("limit"))

	page, err := h.Svc.List(c.Request().Context(), f)
	if err != nil {
		h.Log.Error("category list", "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, page)
}

// GET /v1/categories/:id
func (h *Controller) Detail(c echo.Context) error {
	cat, err := h.Svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.mapErr(c, err, "category detail")
	}
	return c.JSON(http.StatusOK, cat)
}

// POST /v1/categories (admin)
func (h *Controller) Create(c echo.Context) error {
	var req model.CreateCategoryReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := h.V.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "validation error")
	}

	cat, err := h.Svc.Create(c.Request().Context(), req)
	if err != nil {
		return h.mapErr(c, err, "category create")
	}
	return c.JSON(http.StatusCreated, cat)
}

// PATCH /v1/categories/:id (admin)
func (h *Controller) Update(c echo.Context) error {
	var req model.UpdateCategoryReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := h.V.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "validation error")
	}

	cat, err := h.Svc.Update(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return h.mapErr(c, err, "category update")
	}
	return c.JSON(http.StatusOK, cat)
}

// DELETE /v1/categories/:id (admin)
func (h *Controller) Delete(c echo.Context) error {
	if err := h.Svc.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return h.mapErr(c, err, "category delete")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "deleted"})
}

func (h *Controller) mapErr(c echo.Context, err error, op string) error {
	switch {
	case errors.Is(err, categorysvc.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "category not found")
	case errors.Is(err, categorysvc.ErrNameTaken):
		return echo.NewHTTPError(http.StatusConflict, "category name already exists")
	case errors.Is(err, categorysvc.ErrHasBooks):
		return echo.NewHTTPError(http.StatusConflict, "category is referenced by books")
	default:
		h.Log.Error(op, "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
