package echoServer

import (
	"log/slog"

	"bookcatalog/app/echoServer/controller/auth"
	"bookcatalog/app/echoServer/controller/author"
	"bookcatalog/app/echoServer/controller/book"
	"bookcatalog/app/echoServer/controller/category"
	"bookcatalog/app/echoServer/controller/notification"
	"bookcatalog/app/echoServer/controller/order"
	"bookcatalog/app/echoServer/controller/rental"
	"bookcatalog/util/cache"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

type C struct {
	Auth         *auth.Controller
	Book         *book.Controller
	Order        *order.Controller
	Rental       *rental.Controller
	Author       *author.Controller
	Category     *category.Controller
	Notification *notification.Controller

	JWTSecret string
	Cache     cache.Cache
	Log       *slog.Logger
}

func Register(e *echo.Echo, c C) {
	// Public
	pub := e.Group("/v1")
	pub.POST("/auth/register", c.Auth.Register)
	pub.POST("/auth/login", c.Auth.Login)
	// Logout revokes best-effort; it must work for expired tokens too,
	// so it sits outside the JWT group.
	pub.POST("/auth/logout", c.Auth.Logout)

	// Authenticated
	api := e.Group("/v1")
	api.Use(echojwt.WithConfig(echojwt.Config{
		SigningKey:  []byte(c.JWTSecret),
		TokenLookup: "cookie:access_token,header:Authorization:Bearer ",
		NewClaimsFunc: func(echo.Context) jwt.Claims {
			return jwt.MapClaims{}
		},
	}))
	api.Use(AuthContext(c.Cache, c.Log))

	admin := RequireAdmin()

	// Books
	api.GET("/books", c.Book.List)
	api.GET("/books/:id", c.Book.Detail)
	api.POST("/books", c.Book.Create, admin)
	api.PATCH("/books/:id", c.Book.Update, admin)
	api.DELETE("/books/:id", c.Book.Delete, admin)

	// Authors
	api.GET("/authors", c.Author.List)
	api.GET("/authors/:id", c.Author.Detail)
	api.POST("/authors", c.Author.Create, admin)
	api.PATCH("/authors/:id", c.Author.Update, admin)
	api.DELETE("/authors/:id", c.Author.Delete, admin)

	// Categories
	api.GET("/categories", c.Category.List)
	api.GET("/categories/:id", c.Category.Detail)
	api.POST("/categories", c.Category.Create, admin)
	api.PATCH("/categories/:id", c.Category.Update, admin)
	api.DELETE("/categories/:id", c.Category.Delete, admin)

	// Orders
	api.POST("/orders", c.Order.Create)
	api.GET("/orders", c.Order.List)
	api.GET("/orders/:id", c.Order.Detail)

	// Rentals
	api.GET("/rentals", c.Rental.List)
	api.GET("/rentals/:id", c.Rental.Detail)
	api.POST("/rentals/:id/return", c.Rental.Return)

	// Notifications
	api.GET("/notifications", c.Notification.List)
	api.GET("/notifications/:id", c.Notification.Detail)
	api.POST("/notifications/:id/read", c.Notification.MarkRead)
	api.POST("/notifications/read-all", c.Notification.MarkAllRead)
}
