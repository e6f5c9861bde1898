package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jo-hoe/gowall/internal/api"
	"github.com/jo-hoe/gowall/internal/common"
	"github.com/jo-hoe/gowall/internal/core"
	"github.com/jo-hoe/gowall/internal/database"
	"github.com/jo-hoe/gowall/internal/imagegen"
	"github.com/jo-hoe/gowall/internal/render"
	"github.com/jo-hoe/gowall/internal/rotation"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
)

func getConfigPath() string {
	// First check if config path is provided via environment variable
	if configPath := os.Getenv("CONFIG_PATH"); configPath != "" {
		return configPath
	}

	// Default to config.yaml in current working directory
	cwd, err := os.Getwd()
	if err != nil {
		panic(err)
	}
	return filepath.Join(cwd, "config.yaml")
}

func main() {
	configPath := getConfigPath()
	config, err := core.LoadConfig(configPath)
	if err != nil {
		log.Printf("failed to load config from %s: %v", configPath, err)
		panic(err)
	}

	databaseService, err := database.NewDatabase(config.Database.Type, config.Database.ConnectionString)
	if err != nil {
		log.Printf("failed to initialize database: %v", err)
		panic(err)
	}

	generator := imagegen.NewOpenAIClient(imagegen.Config{
		APIKey:  config.ImageAPI.APIKey,
		BaseURL: config.ImageAPI.BaseURL,
		Model:   config.ImageAPI.Model,
		Size:    config.ImageAPI.Size,
		Quality: config.ImageAPI.Quality,
		Timeout: config.APITimeout(),
	})

	coreService := core.NewCoreService(config, databaseService, generator)

	renderer, err := render.NewRenderer(config.Display.Width, config.Display.Height)
	if err != nil {
		log.Printf("failed to create renderer: %v", err)
		panic(err)
	}

	framePath := config.Storage.FramePath
	if framePath == "" {
		framePath = filepath.Join(config.Storage.ImagesDir, "current.png")
	}
	surface, err := render.NewFileSurface(framePath, config.Display.Width, config.Display.Height)
	if err != nil {
		log.Printf("failed to create display surface: %v", err)
		panic(err)
	}

	var cache *redis.Client
	if config.Cache.RedisAddress != "" {
		cache = redis.NewClient(&redis.Options{Addr: config.Cache.RedisAddress})
	}

	engine, err := rotation.NewEngine(rotation.Config{
		Database: databaseService,
		Loader:   rotation.NewLoader(cache, config.CacheTTL()),
		Renderer: renderer,
		Surface:  surface,
	})
	if err != nil {
		log.Printf("failed to create rotation engine: %v", err)
		panic(err)
	}

	trigger := rotation.NewEventTrigger()
	if err := engine.Start(context.Background(), trigger); err != nil {
		log.Printf("failed to start rotation engine: %v", err)
		panic(err)
	}

	server := defineServer()
	apiService := api.NewAPIService(coreService, databaseService, engine, trigger)
	apiService.SetRoutes(server)

	portString := fmt.Sprintf(":%d", config.Port)

	// Start HTTP server in a goroutine to allow graceful shutdown
	go func() {
		if err := server.Start(portString); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Printf("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	engine.Stop()

	if cache != nil {
		if err := cache.Close(); err != nil {
			log.Printf("cache close error: %v", err)
		}
	}

	if err := coreService.Close(); err != nil {
		log.Printf("core service close error: %v", err)
	}
}

func defineServer() *echo.Echo {
	e := echo.New()

	// Configure request logger to skip the probe endpoint
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/probe"
		},
		LogStatus:    true,
		LogLatency:   true,
		LogMethod:    true,
		LogURI:       true,
		LogError:     true,
		LogRemoteIP:  true,
		LogHost:      true,
		LogUserAgent: true,
		LogRoutePath: true,
		HandleError:  false,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				log.Printf("%s %s (route=%s) - Status: %d - Latency: %v - Error: %v - RemoteIP: %s - Host: %s - UA: %s",
					v.Method,
					v.URI,
					v.RoutePath,
					v.Status,
					v.Latency,
					v.Error,
					v.RemoteIP,
					v.Host,
					v.UserAgent,
				)
			} else {
				log.Printf("%s %s (route=%s) - Status: %d - Latency: %v - RemoteIP: %s - Host: %s - UA: %s",
					v.Method,
					v.URI,
					v.RoutePath,
					v.Status,
					v.Latency,
					v.RemoteIP,
					v.Host,
					v.UserAgent,
				)
			}
			return nil
		},
	}))

	e.Use(middleware.Recover())
	e.Pre(middleware.RemoveTrailingSlash())

	e.Validator = &common.GenericEchoValidator{}

	return e
}
