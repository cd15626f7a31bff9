package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/bryanwahyu/slide-review/internal/application"
	appfiles "github.com/bryanwahyu/slide-review/internal/application/files"
	appreviews "github.com/bryanwahyu/slide-review/internal/application/reviews"
	domfiles "github.com/bryanwahyu/slide-review/internal/domain/files"
	domreviews "github.com/bryanwahyu/slide-review/internal/domain/reviews"
	"github.com/bryanwahyu/slide-review/internal/config"
	openaiclient "github.com/bryanwahyu/slide-review/internal/infra/ai/openai"
	"github.com/bryanwahyu/slide-review/internal/infra/ai/stub"
	mysqlp "github.com/bryanwahyu/slide-review/internal/infra/db/mysql"
	postgresp "github.com/bryanwahyu/slide-review/internal/infra/db/postgres"
	"github.com/bryanwahyu/slide-review/internal/infra/httpserver"
	"github.com/bryanwahyu/slide-review/internal/infra/report"
	minioStore "github.com/bryanwahyu/slide-review/internal/infra/storage"
	"github.com/bryanwahyu/slide-review/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}
	secrets := cfg.SecretSource()

	ctx := context.Background()

	// connect DB, init repos (driver dipilih dari config)
	var (
		db         *sql.DB
		fileRepo   domfiles.Repository
		reviewRepo domreviews.Repository
	)
	switch cfg.Database.Driver {
	case "postgres":
		db, err = postgresp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			log.Fatalf("postgres connect error: %v", err)
		}
		fileRepo = postgresp.NewFileRepository(db)
		reviewRepo = postgresp.NewReviewRepository(db)
	case "mysql":
		db, err = mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			log.Fatalf("mysql connect error: %v", err)
		}
		fileRepo = mysqlp.NewFileRepository(db)
		reviewRepo = mysqlp.NewReviewRepository(db)
	default:
		log.Fatalf("unknown database driver %q", cfg.Database.Driver)
	}
	defer db.Close()

	// init minio
	store, err := minioStore.New(ctx,
		cfg.Minio.Endpoint,
		cfg.Minio.Region,
		cfg.Minio.BucketName,
		cfg.Minio.AccessKey,
		cfg.Minio.SecretKey,
		cfg.Minio.UseSSL,
	)
	if err != nil {
		log.Fatalf("minio init error: %v", err)
	}

	// external strategy: without a key the client still wires up and fails
	// on call, so auto mode degrades to the stub instead of crashing here
	apiKey, err := secrets.Get(config.SecretOpenAIKey)
	if err != nil {
		log.Printf("warning: %v; external analysis mode will fail", err)
	}
	external := openaiclient.NewClient(apiKey, cfg.AI.Model)

	jwtSecret, err := secrets.Get(config.SecretJWTKey)
	if err != nil {
		log.Fatalf("jwt secret error: %v", err)
	}

	clock := application.SystemClock{}
	filesSvc := &appfiles.Service{
		Repo:  fileRepo,
		Store: store,
		Clock: clock,
	}
	reviewsSvc := &appreviews.Service{
		Files:           fileRepo,
		Store:           store,
		Reviews:         reviewRepo,
		External:        external,
		Stub:            stub.New(),
		Report:          report.Renderer{},
		Clock:           clock,
		ExternalTimeout: time.Duration(cfg.AI.TimeoutSeconds) * time.Second,
	}

	checkers := map[string]middleware.HealthChecker{
		"database": &middleware.DatabaseHealthChecker{DB: db},
		"storage":  store,
	}

	// init router + middleware chain
	mux := chi.NewRouter()
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	mux.Use(middleware.BearerAuth([]byte(jwtSecret)))
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(middleware.RateLimitMiddleware(middleware.NewRateLimiter(30, 10)))
	mux.Mount("/", httpserver.NewRouter(filesSvc, reviewsSvc, checkers))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// run server
	go func() {
		log.Printf("server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
