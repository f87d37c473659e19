package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"campuslink/internal/adapter/api"
	"campuslink/internal/adapter/api/handler"
	apimiddleware "campuslink/internal/adapter/api/middleware"
	"campuslink/internal/adapter/api/router"
	"campuslink/internal/adapter/repository"
	domainrepo "campuslink/internal/domain/repository"
	"campuslink/internal/infrastructure/auth"
	"campuslink/internal/infrastructure/firebase"
	"campuslink/internal/infrastructure/ratelimit"
	"campuslink/internal/infrastructure/relay"
	"campuslink/internal/infrastructure/storage"
	"campuslink/internal/infrastructure/websocket"
	"campuslink/internal/usecase"
	"campuslink/pkg/config"
	"campuslink/pkg/logger"
)

type repositories struct {
	users    domainrepo.UserRepository
	rooms    domainrepo.RoomRepository
	messages domainrepo.MessageRepository
	close    func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger.Init(cfg.LogLevel, cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fbOptions := firebase.Options{
		ProjectID:          cfg.FirebaseProject,
		ServiceAccountPath: cfg.FirebaseServiceAccountPath,
		ServiceAccountJSON: cfg.FirebaseServiceAccountJSON,
	}

	repos, err := openRepositories(ctx, cfg, fbOptions)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer repos.close()

	verifier, issuer, err := newAuthProvider(ctx, cfg, fbOptions)
	if err != nil {
		log.Fatalf("Failed to initialize auth provider: %v", err)
	}

	hub := websocket.NewHub(websocket.Options{
		SendBuffer:    cfg.WSSendBuffer,
		WriteTimeout:  cfg.WSWriteTimeout,
		PongTimeout:   cfg.WSPongTimeout,
		MaxFrameBytes: cfg.WSMaxFrameBytes,
	})
	hub.Start(ctx)

	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		defer redisClient.Close()

		roomRelay := relay.NewRedisRelay(redisClient, cfg.RedisChannelPrefix)
		if err := roomRelay.Start(ctx, hub); err != nil {
			log.Fatalf("Failed to start Redis relay: %v", err)
		}
		hub.SetPublisher(roomRelay.Publish)
		logger.Info("Relaying room broadcasts through Redis at %s", cfg.RedisAddr)
	}

	messageLimiter := ratelimit.NewRateLimiter(cfg.MessageRatePerSecond, cfg.MessageRateBurst)
	messageLimiter.StartCleanupRoutine(ctx, time.Minute, 10*time.Minute)
	httpLimiter := ratelimit.NewRateLimiter(cfg.HTTPRatePerSecond, cfg.HTTPRateBurst)
	httpLimiter.StartCleanupRoutine(ctx, time.Minute, 10*time.Minute)

	gate := usecase.NewAuthorizationGate(repos.rooms)
	userUseCase := usecase.NewUserUseCase(repos.users, issuer)
	roomUseCase := usecase.NewRoomUseCase(repos.rooms, repos.users, gate)
	messageUseCase := usecase.NewMessageUseCase(repos.messages, repos.rooms, repos.users, gate, hub)
	connectionUseCase := usecase.NewConnectionUseCase(repos.rooms, gate, messageUseCase, hub, messageLimiter)

	handler.Setup(roomUseCase, messageUseCase)
	handler.SetupHealthHandler(hub)
	handler.SetupDevTokenHandler(userUseCase)

	if cfg.StorageBucket != "" {
		storageClient, err := storage.NewCloudStorageClient(ctx, cfg.StorageBucket, cfg.FirebaseServiceAccountPath)
		if err != nil {
			log.Fatalf("Failed to initialize Cloud Storage: %v", err)
		}
		defer storageClient.Close()
		handler.SetupFileHandler(storageClient, cfg.MaxAttachmentSize)
	}

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.With(
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency.String(),
			).Info("request")
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.Validator = api.NewValidator()

	authMiddleware := apimiddleware.NewAuthMiddleware(verifier, userUseCase)
	wsHandler := handler.NewWebSocketHandler(connectionUseCase, cfg.WSWriteTimeout)

	router.Setup(e, authMiddleware, apimiddleware.RateLimit(httpLimiter))
	router.SetupWebSocketRouter(e, wsHandler, authMiddleware)
	router.SetupFileRouter(e, authMiddleware, "12M")
	router.SetupDevRouter(e, cfg.Environment)

	go func() {
		logger.Info("Starting server on port %s...", cfg.ServerPort)
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server stopped: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	// Upgraded connections are hijacked and invisible to e.Shutdown.
	hub.Shutdown()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed: %v", err)
	}
}

func openRepositories(ctx context.Context, cfg *config.Config, fbOptions firebase.Options) (*repositories, error) {
	switch cfg.StorageDriver {
	case config.StorageFirestore:
		client, err := firestore.NewClient(ctx, cfg.FirebaseProject, fbOptions.ClientOptions()...)
		if err != nil {
			return nil, err
		}
		logger.Info("Using Firestore project %s", cfg.FirebaseProject)
		return &repositories{
			users:    repository.NewFirestoreUserRepository(client),
			rooms:    repository.NewFirestoreRoomRepository(client),
			messages: repository.NewFirestoreMessageRepository(client),
			close:    func() { client.Close() },
		}, nil

	default:
		db, err := repository.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		logger.Info("Using SQLite database %s", cfg.SQLitePath)
		return &repositories{
			users:    repository.NewGormUserRepository(db),
			rooms:    repository.NewGormRoomRepository(db),
			messages: repository.NewGormMessageRepository(db),
			close: func() {
				if sqlDB, err := db.DB(); err == nil {
					sqlDB.Close()
				}
			},
		}, nil
	}
}

// newAuthProvider returns a nil issuer for Firebase: tokens are minted by the
// Firebase client SDK, not by this service.
func newAuthProvider(ctx context.Context, cfg *config.Config, fbOptions firebase.Options) (auth.TokenVerifier, auth.TokenIssuer, error) {
	if cfg.AuthProvider != config.AuthFirebase {
		jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiry)
		return jwtManager, jwtManager, nil
	}

	app, err := firebase.NewApp(ctx, fbOptions)
	if err != nil {
		return nil, nil, err
	}
	authClient, err := app.Auth(ctx)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("Verifying Firebase ID tokens for project %s", cfg.FirebaseProject)
	return firebase.NewFirebaseAuthClient(authClient), nil, nil
}
