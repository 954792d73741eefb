package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"songservice/config"
	"songservice/db"
	"songservice/logger"
	"songservice/repository"
	"songservice/storage"

	"github.com/redis/go-redis/v9"
)

const seedTimeout = time.Minute

func newHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}

// newEventPublisher 连接 Redis 失败只记录日志，退化为不发布事件
func newEventPublisher(cfg *config.Config) (EventPublisher, *redis.Client) {
	if !cfg.UseRedis() {
		return noopPublisher{}, nil
	}

	client, err := db.ConnectRedis(cfg)
	if err != nil {
		logger.Error("Redis unavailable, song events disabled", logger.ErrorField(err))
		return noopPublisher{}, nil
	}

	logger.Info("Successfully connected to Redis", logger.String("channel", cfg.RedisChannel))
	return db.NewRedisEventPublisher(client, cfg.RedisChannel), client
}

// Start initializes dependencies, seeds the collection and serves HTTP until
// SIGINT or SIGTERM. Configuration and seeding failures are fatal.
func Start(cfg *config.Config) {
	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration", logger.ErrorField(err))
	}

	loader, err := storage.NewSeedLoader(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize seed source", logger.ErrorField(err))
	}

	client, err := db.ConnectMongo(context.Background(), cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", logger.ErrorField(err))
	}
	defer db.DisconnectMongo(client)

	repo := repository.NewMongoSongRepository(db.SongsCollectionFor(client, cfg))

	seedCtx, cancelSeed := context.WithTimeout(context.Background(), seedTimeout)
	if _, err := SeedSongs(seedCtx, repo, loader); err != nil {
		cancelSeed()
		logger.Fatal("Failed to seed database", logger.ErrorField(err))
	}
	cancelSeed()

	events, redisClient := newEventPublisher(cfg)
	if redisClient != nil {
		defer redisClient.Close()
	}

	handler := NewSongHandler(repo, events, cfg.RequestTimeout)
	server := newHTTPServer(":"+cfg.HTTPPort, NewRouter(handler))

	// 创建一个通道来接收操作系统信号
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server starting", logger.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case <-stop:
		logger.Info("Shutting down server...")
	case err := <-serverErr:
		logger.Fatal("Failed to start server", logger.ErrorField(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", logger.ErrorField(err))
	}

	logger.Info("Server stopped")
}
