package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/example/team-calendar/internal/application"
	"github.com/example/team-calendar/internal/config"
	httptransport "github.com/example/team-calendar/internal/http"
	"github.com/example/team-calendar/internal/logging"
	"github.com/example/team-calendar/internal/persistence/sqlite"
)

func main() {
	seedPath := flag.String("seed", "", "path to a JSON file of accounts to create before serving")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stderr, nil)).Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stdout, parseLogLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storage, err := sqlite.Open(cfg.SQLitePath)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := storage.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := storage.Migrate(context.Background()); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	now := time.Now
	idGenerator := uuid.NewString
	codec := application.NewJWTCodec([]byte(cfg.SessionSecret), cfg.SessionTTL)

	authService := application.NewAuthService(storage, codec, application.VerifyPassword, now, cfg.SessionTTL, logger)
	calendarService := application.NewCalendarItemService(storage, storage, now, idGenerator, logger)
	scheduleService := application.NewScheduleEntryService(storage, storage, now, idGenerator, logger)
	permissionService := application.NewPermissionService(storage, storage, storage, now, logger)
	userService := application.NewUserService(storage, nil, now, idGenerator, logger)

	if *seedPath != "" {
		if err := seedAccounts(context.Background(), userService, *seedPath, logger); err != nil {
			logger.Error("failed to seed accounts", "error", err, "path", *seedPath)
			os.Exit(1)
		}
	}

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:        httptransport.NewAuthHandler(authService, logger),
		Calendar:    httptransport.NewCalendarHandler(calendarService, logger),
		Schedule:    httptransport.NewScheduleHandler(scheduleService, logger),
		Users:       httptransport.NewUserHandler(userService, logger),
		Permissions: httptransport.NewPermissionHandler(permissionService, logger),
		Session:     httptransport.RequireSession(authService, logger),
		MeLimiter: httptransport.NewRateLimiter(httptransport.RateLimiterConfig{
			Requests: cfg.MeRateLimit,
			Window:   cfg.MeRateWindow,
		}),
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
		},
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("calendar API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type seedAccount struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Password string `json:"password"`
}

// seedAccounts creates the accounts listed in a JSON file. Accounts whose
// email already exists are skipped so the seed file can be applied on every
// start.
func seedAccounts(ctx context.Context, users *application.UserService, path string, logger *slog.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}

	var accounts []seedAccount
	if err := json.Unmarshal(data, &accounts); err != nil {
		return fmt.Errorf("parse seed file: %w", err)
	}

	for _, account := range accounts {
		user, err := users.Create(ctx, application.CreateUserParams{
			Name:     account.Name,
			Email:    account.Email,
			Role:     application.Role(account.Role),
			Password: account.Password,
		})
		if err != nil {
			if errors.Is(err, application.ErrConflict) {
				logger.Info("seed account already exists", "email", account.Email)
				continue
			}
			return fmt.Errorf("create account %s: %w", account.Email, err)
		}
		logger.Info("seed account created", "user_id", user.ID, "email", user.Email)
	}

	return nil
}
