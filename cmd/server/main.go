package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/arpan/report-agent/backend/internal/config"
	"github.com/arpan/report-agent/backend/internal/documents"
	"github.com/arpan/report-agent/backend/internal/export"
	"github.com/arpan/report-agent/backend/internal/llm"
	"github.com/arpan/report-agent/backend/internal/memory"
	"github.com/arpan/report-agent/backend/internal/middleware"
	"github.com/arpan/report-agent/backend/internal/progress"
	"github.com/arpan/report-agent/backend/internal/report"
	"github.com/arpan/report-agent/backend/internal/scrape"
	"github.com/arpan/report-agent/backend/internal/search"
	"github.com/arpan/report-agent/backend/internal/store"
	"github.com/arpan/report-agent/backend/internal/tables"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	// ── PostgreSQL ────────────────────────────────────────────
	pgPool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatal("postgres connect", zap.Error(err))
	}
	defer pgPool.Close()
	pgStore := store.NewPostgresStore(pgPool)
	if err := pgStore.Migrate(ctx); err != nil {
		logger.Fatal("postgres migrate", zap.Error(err))
	}

	// ── MongoDB ──────────────────────────────────────────────
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		logger.Fatal("mongo connect", zap.Error(err))
	}
	defer mongoClient.Disconnect(ctx)
	mongoStore := store.NewMongoStore(mongoClient.Database(cfg.MongoDB))

	// ── Redis ────────────────────────────────────────────────
	rdb, err := store.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		logger.Fatal("redis connect", zap.Error(err))
	}
	defer rdb.Close()
	quota := store.NewQuotaStore(rdb, cfg.MonthlyReportCap)

	// ── MinIO ────────────────────────────────────────────────
	minioStore, err := store.NewMinioStore(
		ctx, cfg.MinioEndpoint, cfg.MinioAccessKey,
		cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL,
	)
	if err != nil {
		logger.Fatal("minio connect", zap.Error(err))
	}

	// ── Pipeline services ────────────────────────────────────
	provider, err := llm.NewProvider(cfg)
	if err != nil {
		logger.Fatal("llm provider", zap.Error(err))
	}
	llmClient := llm.NewClient(provider, logger)

	searcher, err := search.New(cfg)
	if err != nil {
		logger.Fatal("search provider", zap.Error(err))
	}

	embedder := memory.NewOpenAIEmbedder(cfg.OpenAIAPIKey, cfg.EmbeddingModel)
	compressor := memory.NewCompressor(embedder, logger)
	docRetriever := memory.NewDocumentRetriever(embedder, pgStore)
	ingestor := memory.NewIngestor(embedder, pgStore)

	scraper := scrape.NewScraper(cfg.UserAgent, logger)
	extractor := tables.NewExtractor(cfg.UserAgent, logger)
	exporter := export.NewExporter(minioStore, logger)

	deps := &report.Deps{
		LLM:        llmClient,
		Planner:    report.NewPlanner(llmClient, cfg, logger),
		Search:     searcher,
		Scraper:    scraper,
		Compressor: compressor,
		Tables:     extractor,
		TableCache: exporter,
		Documents:  docRetriever,
		Progress:   progress.NewLogSink(logger),
		Config:     cfg,
		Log:        logger,
	}
	runner := report.NewRunner(deps, exporter)

	// ── Handlers ─────────────────────────────────────────────
	reportHandler := report.NewHandler(runner, mongoStore, minioStore, quota, logger)
	documentHandler := documents.NewHandler(ingestor, pgStore, logger)

	// ── Router ───────────────────────────────────────────────
	r := chi.NewRouter()
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", middleware.OwnerHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/reports", func(r chi.Router) {
		r.Use(middleware.RequireOwner)
		r.Post("/", reportHandler.Generate)
		r.Get("/", reportHandler.List)
		r.Get("/quota", reportHandler.RemainingQuota)
		r.Get("/{id}", reportHandler.Get)
		r.Delete("/{id}", reportHandler.Delete)
		r.Get("/{id}/download", reportHandler.Download)
	})

	r.Route("/api/documents", func(r chi.Router) {
		r.Use(middleware.RequireOwner)
		r.Post("/", documentHandler.Upload)
		r.Get("/", documentHandler.List)
		r.Delete("/", documentHandler.Delete)
	})

	// ── Server ───────────────────────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  5 * time.Minute,
		WriteTimeout: 15 * time.Minute,
	}

	go func() {
		logger.Info("backend listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	srv.Shutdown(shutCtx)
}
