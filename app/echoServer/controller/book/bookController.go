package book

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"bookcatalog/model"
	bookrepo "bookcatalog/repository/book"
	booksvc "bookcatalog/service/book"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type Controller struct {
	Svc booksvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

// GET /v1/books
// @Summary      List books
// @Description  Filtered, paginated book listing (cached)
// @Tags         books
// @Produce      json
// @Param        page        query  int     false  "Page"
// @Param        limit       query  int     false  "Page size"
// @Param        author_id   query  string  false  "Filter by author"
// @Param        category_id query  string  false  "Filter by category"
// @Param        year        query  int     false  "Filter by year"
// @Param        status      query  string  false  "Filter by status"
// @Param        search      query  string  false  "Title search"
// @Success      200  {object}  map[string]any
// @Router       /v1/books [get]
func (h *Controller) List(c echo.Context) error {
	f := bookrepo.Filter{
		AuthorID:   c.QueryParam("author_id"),
		CategoryID: c.QueryParam("category_id"),
		Status:     c.QueryParam("status"),
		Search:     c.QueryParam("search"),
	}
	f.Page, _ = strconv.Atoi(c.QueryParam("page"))
	f.Limit, _ = strconv.Atoi(c.QueryParam("limit"))
	f.Year, _ = strconv.Atoi(c.QueryParam("year"))

	page, err := h.Svc.List(c.Request().Context(), f)
	if err != nil {
		h.Log.Error("book list", "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, page)
}

// GET /v1/books/:id
// @Summary      Book detail
// @Tags         books
// @Produce      json
// @Param        id  path  string  true  "Book ID"
// @Success      200  {object}  model.Book
// @Failure      404  {object}  map[string]any
// @Router       /v1/books/{id} [get]
func (h *Controller) Detail(c echo.Context) error {
	book, err := h.Svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, booksvc.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "book not found")
		}
		h.Log.Error("book detail", "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, book)
}

// POST /v1/books (admin)
// @Summary      Create book
// @Tags         books
// @Accept       json
// @Produce      json
// @Param        payload  body  model.CreateBookReq  true  "Book payload"
// @Success      201  {object}  model.Book
// @Failure      400  {object}  map[string]any
// @Failure      404  {object}  map[string]any "author/category not found"
// @Router       /v1/books [post]
func (h *Controller) Create(c echo.Context) error {
	var req model.CreateBookReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := h.V.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "validation error")
	}

	book, err := h.Svc.Create(c.Request().Context(), req)
	if err != nil {
		return h.mapErr(c, err, "book create")
	}
	return c.JSON(http.StatusCreated, book)
}

// PATCH /v1/books/:id (admin)
// @Summary      Update book
// @Tags         books
// @Accept       json
// @Produce      json
// @Param        id       path  string               true  "Book ID"
// @Param        payload  body  model.UpdateBookReq  true  "Fields to update"
// @Success      200  {object}  model.Book
// @Failure      400  {object}  map[string]any
// @Failure      404  {object}  map[string]any
// @Router       /v1/books/{id} [patch]
func (h *Controller) Update(c echo.Context) error {
	var req model.UpdateBookReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := h.V.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "validation error")
	}

	book, err := h.Svc.Update(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return h.mapErr(c, err, "book update")
	}
	return c.JSON(http.StatusOK, book)
}

// DELETE /v1/books/:id (admin)
// @Summary      Delete book
// @Description  Refused while the book has an active rental or order history
// @Tags         books
// @Produce      json
// @Param        id  path  string  true  "Book ID"
// @Success      200  {object}  map[string]any
// @Failure      404  {object}  map[string]any
// @Failure      409  {object}  map[string]any
// @Router       /v1/books/{id} [delete]
func (h *Controller) Delete(c echo.Context) error {
	if err := h.Svc.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return h.mapErr(c, err, "book delete")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "deleted"})
}

func (h *Controller) mapErr(c echo.Context, err error, op string) error {
	switch {
	case errors.Is(err, booksvc.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "book not found")
	case errors.Is(err, booksvc.ErrAuthorNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "author not found")
	case errors.Is(err, booksvc.ErrCategoryNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "category not found")
	case errors.Is(err, booksvc.ErrBadStatus):
		return echo.NewHTTPError(http.StatusBadRequest, "invalid book status")
	case errors.Is(err, booksvc.ErrHasActiveRental):
		return echo.NewHTTPError(http.StatusConflict, "book has an active rental")
	case errors.Is(err, booksvc.ErrHasOrders):
		return echo.NewHTTPError(http.StatusConflict, "book is referenced by orders")
	default:
		h.Log.Error(op, "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
