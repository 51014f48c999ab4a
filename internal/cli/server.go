package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"perk-quiz-backend/internal/app"
	"perk-quiz-backend/internal/config"
	"perk-quiz-backend/internal/domain"
	"perk-quiz-backend/internal/infra/memory"
	"perk-quiz-backend/internal/infra/perk"
	pgloader "perk-quiz-backend/internal/infra/postgres"
	redisstore "perk-quiz-backend/internal/infra/redis"
	"perk-quiz-backend/internal/pkg/logger"
	transport "perk-quiz-backend/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz backend server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return err
	}
	defer log.Sync()

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
			return err
		}
	}

	finalPort := resolvePort(portFlag, cfg.Server.Port)

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var loader memory.QuizLoader = memory.NewStaticQuizLoader(builtinQuizzes())
	if pool != nil {
		loader = pgloader.NewQuizLoader(pool)
	}
	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	registry := memory.NewQuizRegistry(loader, quizTTL)

	var completions app.CompletionStore = memory.NewCompletionStore()
	if redisClient != nil {
		completions = redisstore.NewCompletionStore(redisClient)
	} else {
		log.Warn("using in-memory completion store; records are lost on restart")
	}

	awarder, err := perk.New(log, perk.Config{
		APIKey:  cfg.Perk.APIKey,
		BaseURL: cfg.Perk.BaseURL,
		Timeout: config.TTLDuration(cfg.Perk.Timeout, 10*time.Second),
	})
	if err != nil {
		return err
	}

	service := app.NewQuizService(registry, completions, awarder)
	handler := transport.NewHandler(service, log)
	watch := transport.NewWatchHandler(service, log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))
	handler.Mount(r)
	r.Get("/ws/status", watch.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info("starting quiz backend", "port", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("failed to start server", "err", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// resolvePort picks the listen port: the --port flag wins, then the config
// value (which already carries the $PORT override), then the default.
func resolvePort(flag, configured string) string {
	if flag != "" {
		return flag
	}
	if configured != "" {
		return configured
	}
	return "8080"
}

// builtinQuizzes is the default quiz catalog; deployments with Postgres
// configured load definitions from the quiz_definitions table instead.
func builtinQuizzes() map[string]domain.QuizDefinition {
	return map[string]domain.QuizDefinition{
		"grooming_mastery": {
			Name:            "Grooming Mastery Quiz",
			TotalQuestions:  5,
			PassingScore:    3,
			Points:          50,
			ActionTitle:     "Completed Grooming Mastery Quiz",
			CompletionLimit: 1,
		},
		"product_knowledge": {
			Name:            "Product Knowledge Challenge",
			TotalQuestions:  4,
			PassingScore:    3,
			Points:          40,
			ActionTitle:     "Completed Product Knowledge Challenge",
			CompletionLimit: 1,
		},
		"skin_type": {
			Name:            "Find Your Skin Type Quiz",
			TotalQuestions:  6,
			PassingScore:    6, // every question must be answered
			Points:          30,
			ActionTitle:     "Completed Skin Type Assessment",
			CompletionLimit: 1,
		},
	}
}
