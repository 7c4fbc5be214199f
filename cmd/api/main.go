package main

import (
	"context"
	"net/http"
	"os"

	"github.com/circlesapp/circles-backend/api/routes"
	"github.com/circlesapp/circles-backend/internal/auth"
	"github.com/circlesapp/circles-backend/internal/circles"
	"github.com/circlesapp/circles-backend/internal/invitations"
	"github.com/circlesapp/circles-backend/internal/memberships"
	"github.com/circlesapp/circles-backend/internal/posts"
	"github.com/circlesapp/circles-backend/internal/users"
	"github.com/circlesapp/circles-backend/pkg/auth/session"
	"github.com/circlesapp/circles-backend/pkg/config"
	"github.com/circlesapp/circles-backend/pkg/db"
	"github.com/circlesapp/circles-backend/pkg/logger"
	"github.com/circlesapp/circles-backend/pkg/migrate"
	"github.com/circlesapp/circles-backend/pkg/redis"
	"github.com/joho/godotenv"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	usersRepo := users.NewRepository(dbClient.DB())
	membershipsRepo := memberships.NewRepository(dbClient.DB())
	circlesRepo := circles.NewRepository(dbClient.DB())
	invitationsRepo := invitations.NewRepository(dbClient.DB())
	postsRepo := posts.NewRepository(dbClient.DB())

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       usersRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		DB:             dbClient,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create register service", err)
		os.Exit(1)
	}

	circlesService, err := circles.NewService(dbClient, circlesRepo, membershipsRepo, invitationsRepo, postsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create circles service", err)
		os.Exit(1)
	}

	invitationsService, err := invitations.NewService(dbClient, invitationsRepo, membershipsRepo, circlesRepo, usersRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create invitations service", err)
		os.Exit(1)
	}

	postsService, err := posts.NewService(postsRepo, membershipsRepo, circlesRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create posts service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			sessionManager,
			authService,
			registerService,
			circlesService,
			invitationsService,
			postsService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
