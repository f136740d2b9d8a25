package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/aws/aws-xray-sdk-go/strategy/ctxmissing"
	"github.com/aws/aws-xray-sdk-go/xray"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"go.uber.org/zap"

	"github.com/rahulkarmakar28/code-sandbox/handlers"
	"github.com/rahulkarmakar28/code-sandbox/middleware"
	"github.com/rahulkarmakar28/code-sandbox/services"

	_ "github.com/rahulkarmakar28/code-sandbox/docs"
)

// @title Code Sandbox Relay API
// @version 1.0
// @description Submission relay: admits code submissions, queues them for the worker tier, and fans execution output back to the submitting room over websockets.
// @host localhost:8080
// @BasePath /api/v1
func main() {
	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Config
	redisURL := getEnv("REDIS_URL", "redis://localhost:6379")
	serverPort := getEnv("PORT", "8080")
	frontendURL := getEnv("FRONTEND_URL", "http://localhost:3000")
	turnstileSecret := getEnv("TURNSTILE_SECRET_KEY", "")
	rateMax, _ := strconv.Atoi(getEnv("RATE_LIMIT_MAX", "7"))
	rateWindow, _ := strconv.Atoi(getEnv("RATE_LIMIT_WINDOW_SECONDS", "60"))

	// Trace whatever has a request segment, log the rest instead of failing
	_ = xray.Configure(xray.Config{
		ContextMissingStrategy: ctxmissing.NewDefaultLogErrorStrategy(),
	})

	// Broker connection, shared by the limiter, the producer and the subscriber
	redisService, err := services.NewRedisService(redisURL)
	if err != nil {
		log.Fatal("invalid redis url", zap.Error(err))
	}
	if err := redisService.Ping(context.Background()); err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}

	// Realtime gateway and result subscription
	hub := services.NewHub(log)
	subscriber := services.NewSubscriberService(redisService, hub, log)
	if err := subscriber.Start(context.Background()); err != nil {
		log.Fatal("failed to start result subscriber", zap.Error(err))
	}

	// Handlers
	runHandler := handlers.NewRunHandler(redisService)
	verifyHandler := handlers.NewVerifyHandler(turnstileSecret)

	// Fiber App
	app := fiber.New(fiber.Config{
		AppName: "code-sandbox-relay",
	})

	// Middleware
	app.Use(logger.New())
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     frontendURL,
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept",
		AllowCredentials: true,
	}))
	app.Use(middleware.XRayMiddleware())

	// Swagger
	app.Get("/swagger/*", swagger.HandlerDefault)

	// Health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "UP"})
	})

	// Realtime channel
	app.Use("/ws", handlers.SocketUpgrade())
	app.Get("/ws", handlers.SocketHandler(hub, log))

	// API routes
	api := app.Group("/api/v1")
	api.Use(middleware.RateLimiter(redisService, middleware.RateLimitConfig{
		Max:    rateMax,
		Window: time.Duration(rateWindow) * time.Second,
	}))
	api.Post("/run", runHandler.RunCode)
	api.Post("/verify", verifyHandler.Verify)

	go func() {
		log.Info("relay listening", zap.String("port", serverPort))
		if err := app.Listen(":" + serverPort); err != nil {
			log.Fatal("server stopped", zap.Error(err))
		}
	}()

	// Shutdown: stop accepting requests, drain the subscription, then drop
	// the broker connection.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	if err := app.Shutdown(); err != nil {
		log.Warn("server shutdown", zap.Error(err))
	}
	subscriber.Stop()
	if err := redisService.Close(); err != nil {
		log.Warn("redis close", zap.Error(err))
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
