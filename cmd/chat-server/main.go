package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/nrednav/cuid2"
	"golang.org/x/time/rate"

	"uk.co.dudmesh.nevermore/internal/boot"
	"uk.co.dudmesh.nevermore/internal/handlers"
	"uk.co.dudmesh.nevermore/internal/poet"
	"uk.co.dudmesh.nevermore/internal/service/chat"
	"uk.co.dudmesh.nevermore/internal/service/connection"
	"uk.co.dudmesh.nevermore/internal/service/user"
	"uk.co.dudmesh.nevermore/internal/store"
)

func main() {
	config, err := boot.Load()
	if err != nil {
		log.Fatalf("boot: %+v", err)
	}

	db, err := store.New(config.DatabasePath)
	if err != nil {
		log.Fatalf("opening store: %+v", err)
	}
	defer db.Close()

	bard, err := poet.New(context.Background(), config.GeminiAPIKey, time.Now().UnixNano())
	if err != nil {
		log.Fatalf("creating poet: %+v", err)
	}
	defer bard.Close()

	userService := user.New(db, bard, config.JWTSecret)
	ledger := connection.NewLedger(db, config.AttemptThreshold, config.Cooldown())
	gate := connection.NewGate(db, ledger, bard)
	chatService := chat.New(db)

	server := echo.New()
	server.Use(middleware.BodyLimit("1M"))
	server.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string {
			return cuid2.Generate()
		},
	}))
	server.Use(echoprometheus.NewMiddleware("nevermore"))
	server.Use(middleware.Recover())
	server.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(20))))

	server.Logger.SetLevel(log.INFO)

	headers := []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization}
	server.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowHeaders:     headers,
		AllowCredentials: true,
	}))

	server.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})
	server.POST("/register", handlers.Register(userService))
	server.POST("/login", handlers.Login(userService))
	server.GET("/users", handlers.ListUsers(userService))
	server.POST("/attempt-connection", handlers.AttemptConnection(gate))
	server.GET("/connections/:userID", handlers.Connections(userService, chatService), handlers.RequireUser(userService))
	server.POST("/send-message", handlers.SendMessage(chatService))
	server.GET("/messages/:userID/:targetUsername", handlers.Messages(userService, chatService))

	go func() {
		metrics := echo.New()
		metrics.GET("/metrics", echoprometheus.NewHandler())
		if err := metrics.Start(config.MetricsAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	go func() {
		if err := server.Start(config.BindAddr); err != nil && err != http.ErrServerClosed {
			server.Logger.Fatal("shutting down the server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		server.Logger.Fatal(err)
	}
}
