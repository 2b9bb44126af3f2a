// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/semconv/internal/api"
	"github.com/starford/semconv/internal/convert"
	"github.com/starford/semconv/internal/corpusservice"
	"github.com/starford/semconv/internal/graphexport"
	"github.com/starford/semconv/internal/index"
	"github.com/starford/semconv/internal/mcpserver"
	"github.com/starford/semconv/internal/metrics"
	"github.com/starford/semconv/internal/models"
	"github.com/starford/semconv/internal/sse"
	"github.com/starford/semconv/internal/storage"
)

// NewConverter builds a converter from the conversion settings. Rewrite
// statistics go to the Prometheus instruments.
func NewConverter(cfg ConversionConfig) *convert.Converter {
	return convert.New(
		convert.WithAnnotations(cfg.Annotate),
		convert.WithEnhanced(cfg.Enhanced),
		convert.WithSemanticLabels(cfg.SemanticLabels),
		convert.WithObserver(metrics.RecordRewrite),
	)
}

// core holds the components shared by the HTTP and MCP front ends.
type core struct {
	store    *storage.FS
	db       *index.DB
	indexer  *index.Indexer
	svc      *corpusservice.Service
	exporter *graphexport.Executor
}

func (c *core) Close(ctx context.Context, logger *slog.Logger) {
	if c.exporter != nil {
		if err := c.exporter.Close(ctx); err != nil {
			logger.Warn("neo4j close failed", slog.String("error", err.Error()))
		}
	}
	if err := c.db.Close(); err != nil {
		logger.Warn("index close failed", slog.String("error", err.Error()))
	}
}

func openCore(ctx context.Context, cfg *Config, logger *slog.Logger) (*core, error) {
	if err := os.MkdirAll(cfg.Corpus.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create corpus dir: %w", err)
	}
	store, err := storage.NewFS(cfg.Corpus.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}
	c := &core{store: store, db: db}

	conv := NewConverter(cfg.Conversion)
	ixOpts := []index.IndexerOption{
		index.WithLogger(logger),
		index.WithWorkers(cfg.Conversion.Workers),
	}

	if n := cfg.Export.Neo4j; n.Enabled {
		exec, err := graphexport.NewExecutor(n.URI, n.Username, n.Password, n.Database)
		if err != nil {
			c.Close(ctx, logger)
			return nil, err
		}
		verifyCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err = exec.Verify(verifyCtx)
		cancel()
		if err != nil {
			_ = exec.Close(ctx)
			c.Close(ctx, logger)
			return nil, fmt.Errorf("neo4j: verify connectivity: %w", err)
		}
		c.exporter = exec
		ixOpts = append(ixOpts, index.WithExporter(graphexport.New(exec)))
		logger.Info("Neo4j export enabled", slog.String("uri", n.URI), slog.String("database", n.Database))
	}

	c.indexer = index.NewIndexer(db, store, conv, ixOpts...)
	c.svc = corpusservice.NewService(store, db, c.indexer, conv, cfg.Conversion.Workers, logger)
	return c, nil
}

// corpusTotals is the payload of corpus.updated events.
type corpusTotals struct {
	Files     int `json:"files"`
	Sentences int `json:"sentences"`
	Failed    int `json:"failed"`
}

func corpusStats(db index.CorpusIndex) sse.StatsFunc {
	return func() (any, error) {
		files, err := db.ListFiles()
		if err != nil {
			return nil, err
		}
		t := corpusTotals{Files: len(files)}
		for _, f := range files {
			t.Sentences += f.Sentences
			t.Failed += f.Failed
		}
		return t, nil
	}
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = fmt.Fprintf(w, `{"status":%q}`, status)
}

// Run starts the HTTP server, the corpus watcher and the initial sync.
func Run(ctx context.Context, opts ...Option) error {
	app := newApplication(opts)
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config

	logger := slog.New(slog.NewJSONHandler(app.logOut, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("corpus_path", cfg.Corpus.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.Bool("annotate", cfg.Conversion.Annotate),
		slog.Bool("enhanced", cfg.Conversion.Enhanced),
		slog.String("log_level", cfg.App.LogLevel.String()))

	c, err := openCore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer c.Close(context.Background(), logger)

	if err := c.indexer.Sync(ctx); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	broker := sse.NewBroker(2*time.Second, sse.WithStats(corpusStats(c.db)))
	defer broker.Close()

	apiRouter := api.NewRouter(c.svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Unauthenticated.
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		writeStatus(w, http.StatusOK, "ok")
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if err := c.db.Ping(r.Context()); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "index unavailable")
			return
		}
		writeStatus(w, http.StatusOK, "ok")
	})
	r.Handle("/metrics", metrics.Handler())

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := c.indexer.Watch(gCtx, c.store.Root(), func(kind string, f models.CorpusFile) {
			broker.PublishFileEvent(sse.FileEvent{
				Kind:      kind,
				Path:      f.Path,
				Sentences: f.Sentences,
				Failed:    f.Failed,
			})
		})
		if err != nil {
			logger.Error("watcher failed", slog.String("error", err.Error()))
		}
		return nil
	})

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		// Streams only end when clients leave or the broker closes.
		broker.Close()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group once a signal arrives so the watcher stops.
var errShutdown = errors.New("shutdown")

// RunMCP syncs the corpus and serves the MCP tools over stdio. Logs go to
// stderr unless redirected.
func RunMCP(ctx context.Context, opts ...Option) error {
	app := newApplication(append([]Option{WithLogOutput(os.Stderr)}, opts...))
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config

	logger := slog.New(slog.NewJSONHandler(app.logOut, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	c, err := openCore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer c.Close(context.Background(), logger)

	if err := c.indexer.Sync(ctx); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	logger.Info("MCP server starting", slog.String("version", app.version), slog.String("corpus_path", cfg.Corpus.Path))
	return mcpserver.New(c.svc, app.version).ServeStdio()
}
