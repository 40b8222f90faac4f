package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	redisDriver "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"streamify/internal/chat"
	"streamify/internal/config"
	"streamify/internal/handlers/apiserver"
	appKafka "streamify/internal/kafka"
	"streamify/internal/logger"
	"streamify/internal/middleware"
	appRedis "streamify/internal/redis"
	"streamify/internal/services"
	"streamify/internal/storage"
)

func main() {
	// 1. Configuration
	cfg, err := config.LoadConfig("")
	if err != nil {
		log.Fatalf("cannot load configuration: %v", err)
	}

	logger.Init(cfg.Log)
	defer logger.Sync()

	// The signing secret is a hard startup requirement; there is no
	// fallback value a session could safely be minted with.
	if cfg.Auth.JWTSecretKey == "" {
		logger.Fatal("AUTH_JWT_SECRET_KEY must be set")
	}

	// 2. Database. The handle is owned here and injected everywhere;
	// nothing connects lazily on a request path.
	db, err := storage.InitDB(cfg.Database)
	if err != nil {
		logger.Fatal("cannot initialize database", zap.Error(err))
	}
	if err := storage.AutoMigrateTables(db); err != nil {
		logger.Warn("database migration failed", zap.Error(err))
	}
	logger.Info("database connected",
		zap.String("host", cfg.Database.Host), zap.String("db", cfg.Database.DBName))

	// 3. Redis (login throttling). The limiter fails open, so an
	// unavailable Redis degrades to no throttling instead of downtime.
	var loginLimiter appRedis.LoginLimiter
	redisClient := redisDriver.NewClient(&redisDriver.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 3*time.Second)
	if _, err := redisClient.Ping(pingCtx).Result(); err != nil {
		logger.Warn("redis unavailable, login throttling disabled", zap.Error(err))
	} else {
		loginLimiter = appRedis.NewRedisLoginLimiter(redisClient, cfg.RateLimits)
		logger.Info("redis connected", zap.String("addr", cfg.Redis.Addr))
	}
	cancelPing()

	// 4. Kafka notification producer (optional).
	var producer appKafka.MessageProducer
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err = appKafka.NewConfluentKafkaProducer(cfg.Kafka)
		if err != nil {
			logger.Fatal("cannot create Kafka producer", zap.Error(err))
		}
		defer producer.Close()
		logger.Info("kafka producer initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
	}

	// 5. Chat-identity provider
	chatClient, err := chat.NewClient(cfg.Chat)
	if err != nil {
		logger.Fatal("cannot initialize chat provider client", zap.Error(err))
	}
	identitySyncer := chat.NewAsyncSyncer(chatClient)

	// 6. Repositories
	userRepo := storage.NewGormUserRepository(db)
	requestRepo := storage.NewGormFriendRequestRepository(db)
	friendshipRepo := storage.NewGormFriendshipRepository(db)

	// 7. Services
	authService := services.NewAuthService(userRepo, identitySyncer, cfg)
	friendService := services.NewFriendService(userRepo, requestRepo, friendshipRepo, producer, cfg.Kafka)

	// 8. Handlers
	authHandler := apiserver.NewAuthHandler(authService, loginLimiter, cfg)
	userHandler := apiserver.NewUserHandler(friendService)
	chatHandler := apiserver.NewChatHandler(chatClient)

	// 9. Routes
	sessionMW := middleware.RequireSession(userRepo, cfg.Auth)

	r := mux.NewRouter()

	authRouter := r.PathPrefix("/api/auth").Subrouter()
	authRouter.HandleFunc("/signup", authHandler.SignupHandler).Methods(http.MethodPost)
	authRouter.HandleFunc("/login", authHandler.LoginHandler).Methods(http.MethodPost)
	authRouter.HandleFunc("/logout", authHandler.LogoutHandler).Methods(http.MethodPost)
	authRouter.Handle("/onboarding", sessionMW(http.HandlerFunc(authHandler.OnboardingHandler))).Methods(http.MethodPost)
	authRouter.Handle("/me", sessionMW(http.HandlerFunc(authHandler.MeHandler))).Methods(http.MethodGet)

	userRouter := r.PathPrefix("/api/users").Subrouter()
	userRouter.Use(sessionMW)
	userRouter.HandleFunc("", userHandler.RecommendedUsersHandler).Methods(http.MethodGet)
	userRouter.HandleFunc("/", userHandler.RecommendedUsersHandler).Methods(http.MethodGet)
	userRouter.HandleFunc("/friends", userHandler.MyFriendsHandler).Methods(http.MethodGet)
	userRouter.HandleFunc("/friends-request/{id:[0-9]+}", userHandler.SendFriendRequestHandler).Methods(http.MethodPost)
	userRouter.HandleFunc("/friends-request/{id:[0-9]+}/accept", userHandler.AcceptFriendRequestHandler).Methods(http.MethodPut)
	userRouter.HandleFunc("/friends-requests", userHandler.FriendRequestsHandler).Methods(http.MethodGet)
	userRouter.HandleFunc("/outgoing-friends-request", userHandler.OutgoingFriendRequestsHandler).Methods(http.MethodGet)

	chatRouter := r.PathPrefix("/api/chat").Subrouter()
	chatRouter.Use(sessionMW)
	chatRouter.HandleFunc("/token", chatHandler.TokenHandler).Methods(http.MethodGet)

	// 10. CORS
	corsOptions := []handlers.CORSOption{
		handlers.AllowedOrigins(cfg.Server.CORS.AllowedOrigins),
		handlers.AllowedMethods(cfg.Server.CORS.AllowedMethods),
		handlers.AllowedHeaders(cfg.Server.CORS.AllowedHeaders),
		handlers.ExposedHeaders(cfg.Server.CORS.ExposedHeaders),
		handlers.MaxAge(cfg.Server.CORS.MaxAge),
	}
	if cfg.Server.CORS.AllowCredentials {
		corsOptions = append(corsOptions, handlers.AllowCredentials())
	}
	corsHandler := handlers.CORS(corsOptions...)(r)

	// 11. HTTP server with graceful shutdown
	serverAddr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:           serverAddr,
		Handler:        corsHandler,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
		IdleTimeout:    time.Second * 60,
	}

	go func() {
		logger.Info("API server listening", zap.String("addr", serverAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("API server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutdown signal received, stopping API server")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Fatal("API server forced to shut down", zap.Error(err))
	}

	logger.Info("API server stopped")
}
