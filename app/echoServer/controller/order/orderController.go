package order

import (
	"log/slog"
	"net/http"
	"strconv"

	"bookcatalog/model"
	orderrepo "bookcatalog/repository/order"
	ordersvc "bookcatalog/service/order"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type Controller struct {
	Svc ordersvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

// POST /v1/orders
// @Summary      Create order
// @Description  Purchase or rent an AVAILABLE book. Rental orders require a duration.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        payload  body  model.CreateOrderReq  true  "Order payload"
// @Success      201  {object}  model.Order
// @Failure      400  {object}  map[string]any "missing/invalid duration or type"
// @Failure      404  {object}  map[string]any "book not found"
// @Failure      409  {object}  map[string]any "book not available"
// @Router       /v1/orders [post]
func (h *Controller) Create(c echo.Context) error {
	var req model.CreateOrderReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := h.V.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "validation error")
	}
	uid, _ := c.Get("user_id").(string)

	out, err := h.Svc.Create(c.Request().Context(), uid, req)
	if err != nil {
		switch ordersvc.Code(err) {
		case ordersvc.ErrBookNotFound:
			return echo.NewHTTPError(http.StatusNotFound, "book not found")
		case ordersvc.ErrBookUnavailable:
			return echo.NewHTTPError(http.StatusConflict, "book is not available for ordering")
		case ordersvc.ErrMissingDuration:
			return echo.NewHTTPError(http.StatusBadRequest, "rental duration is required for rental orders")
		case ordersvc.ErrBadDuration, ordersvc.ErrBadType:
			return echo.NewHTTPError(http.StatusBadRequest, "invalid order payload")
		default:
			h.Log.Error("order create", "err", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}
	return c.JSON(http.StatusCreated, out)
}

// GET /v1/orders
// @Summary      List my orders
// @Tags         orders
// @Produce      json
// @Param        page   query  int     false  "Page"
// @Param        limit  query  int     false  "Page size"
// @Param        type   query  string  false  "PURCHASE or RENTAL"
// @Success      200  {object}  map[string]any
// @Router       /v1/orders [get]
func (h *Controller) List(c echo.Context) error {
	uid, _ := c.Get("user_id").(string)

	f := orderrepo.Filter{
		UserID: uid,
		Type:   c.QueryParam("type"),
	}
	f.Page, _ = strconv.Atoi(c.QueryParam("page"))
	f.Limit, _ = strconv.Atoi(c.QueryParam("limit"))

	page, err := h.Svc.List(c.Request().Context(), f)
	if err != nil {
		h.Log.Error("order list", "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, page)
}

// GET /v1/orders/:id
// @Summary      Order detail
// @Tags         orders
// @Produce      json
// @Param        id  path  string  true  "Order ID"
// @Success      200  {object}  model.Order
// @Failure      404  {object}  map[string]any
// @Router       /v1/orders/{id} [get]
func (h *Controller) Detail(c echo.Context) error {
	uid, _ := c.Get("user_id").(string)

	out, err := h.Svc.Get(c.Request().Context(), uid, c.Param("id"))
	if err != nil {
		if ordersvc.Code(err) == ordersvc.ErrOrderNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "order not found")
		}
		h.Log.Error("order detail", "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, out)
}
