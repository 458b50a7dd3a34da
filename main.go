// Package main book catalog API.
//
// @title           Book Catalog API
// @version         1.0
// @description     Catalog and inventory service: books can be purchased or rented.
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description  Use:  Bearer <JWT>
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"bookcatalog/app/echoServer"
	authctrl "bookcatalog/app/echoServer/controller/auth"
	authorctrl "bookcatalog/app/echoServer/controller/author"
	bookctrl "bookcatalog/app/echoServer/controller/book"
	categoryctrl "bookcatalog/app/echoServer/controller/category"
	notificationctrl "bookcatalog/app/echoServer/controller/notification"
	orderctrl "bookcatalog/app/echoServer/controller/order"
	rentalctrl "bookcatalog/app/echoServer/controller/rental"
	"bookcatalog/app/echoServer/validation"
	"bookcatalog/config"
	authorrepo "bookcatalog/repository/author"
	bookrepo "bookcatalog/repository/book"
	categoryrepo "bookcatalog/repository/category"
	notificationrepo "bookcatalog/repository/notification"
	orderrepo "bookcatalog/repository/order"
	rentalrepo "bookcatalog/repository/rental"
	userrepo "bookcatalog/repository/user"
	authsvc "bookcatalog/service/auth"
	authorsvc "bookcatalog/service/author"
	booksvc "bookcatalog/service/book"
	categorysvc "bookcatalog/service/category"
	notificationsvc "bookcatalog/service/notification"
	ordersvc "bookcatalog/service/order"
	rentalsvc "bookcatalog/service/rental"
	"bookcatalog/util/cache"
	"bookcatalog/util/database"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"
)

func main() {

	cfg := config.Load()
	ctx := context.Background()

	// logger
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// DB: *sql.DB
	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	// cache: explicit lifecycle, closed on shutdown
	rc := cache.NewRedis(cfg.RedisAddr, cfg.RedisPassword)
	defer rc.Close()
	if err := rc.Ping(ctx); err != nil {
		// Degraded mode: every lookup becomes a store read.
		log.Warn("redis unreachable, running store-only", "err", err)
	}

	// repos
	ur := userrepo.New(db)
	br := bookrepo.New(db)
	ar := authorrepo.New(db)
	cr := categoryrepo.New(db)
	or := orderrepo.New(db)
	rr := rentalrepo.New(db)
	nr := notificationrepo.New(db)

	// services
	reminderLead := time.Duration(cfg.ReminderLeadHours) * time.Hour
	as := authsvc.New(ur, rc, log, cfg.JWTSecret, cfg.JWTTTLHours)
	bs := booksvc.New(br, ar, cr, rc, log, cfg)
	aus := authorsvc.New(ar)
	cs := categorysvc.New(cr)
	ords := ordersvc.New(db, or, br, rr, rc, log, reminderLead)
	rs := rentalsvc.New(db, rr, br, rc, log)
	ns := notificationsvc.New(nr)

	// controllers
	v := validator.New()
	authC := &authctrl.Controller{Svc: as, V: v, Log: log}
	bookC := &bookctrl.Controller{Svc: bs, V: v, Log: log}
	authorC := &authorctrl.Controller{Svc: aus, V: v, Log: log}
	categoryC := &categoryctrl.Controller{Svc: cs, V: v, Log: log}
	orderC := &orderctrl.Controller{Svc: ords, V: v, Log: log}
	rentalC := &rentalctrl.Controller{Svc: rs, V: v, Log: log}
	notificationC := &notificationctrl.Controller{Svc: ns, Log: log}

	// echo
	e := echo.New()
	echoServer.RegisterMiddlewares(e)
	e.Validator = validation.New()

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]any{
			"status":  "ok",
			"message": "Service is healthy and connected",
		})
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	echoServer.Register(e, echoServer.C{
		Auth:         authC,
		Book:         bookC,
		Order:        orderC,
		Rental:       rentalC,
		Author:       authorC,
		Category:     categoryC,
		Notification: notificationC,

		JWTSecret: cfg.JWTSecret,
		Cache:     rc,
		Log:       log,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Port
	}

	log.Info("starting server", "port", port, "env", cfg.Env)

	e.Logger.Fatal(e.Start(":" + port))
}
