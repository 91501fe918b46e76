// Package twin provides the base HTTP server, CLI flags, middleware chain,
// and response helpers for the EcoPoints API twin: an in-memory emulator of
// the production API used for local development and tests.
package twin

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// Config holds the twin configuration, parsed from CLI flags.
type Config struct {
	Port    int
	Latency time.Duration
	Verbose bool
	Name    string
}

// ParseFlags parses the CLI flags and returns a Config.
func ParseFlags(name string) *Config {
	return parseFlags(name, flag.CommandLine, os.Args[1:])
}

func parseFlags(name string, fs *flag.FlagSet, args []string) *Config {
	cfg := &Config{Name: name}
	fs.IntVar(&cfg.Port, "port", 8089, "HTTP listen port")
	fs.DurationVar(&cfg.Latency, "latency", 0, "Base simulated latency")
	fs.BoolVar(&cfg.Verbose, "verbose", false, "Enable request/response logging")
	fs.Parse(args)

	// The PORT env var only applies when no explicit -port was given.
	portSet := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "port" {
			portSet = true
		}
	})
	if p := os.Getenv("PORT"); p != "" && !portSet {
		fmt.Sscanf(p, "%d", &cfg.Port)
	}
	return cfg
}

// Twin is the base server. It wraps a chi router with common middleware and
// provides lifecycle management.
type Twin struct {
	Config *Config
	Router *chi.Mux
	Logger *slog.Logger
	mw     *Middleware
}

// New creates a Twin with the given config.
func New(cfg *Config) *Twin {
	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))

	r := chi.NewRouter()
	mw := NewMiddleware(cfg, logger)

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(mw.CORS)
	r.Use(mw.RequestLog)
	r.Use(mw.LatencyInjection)

	return &Twin{
		Config: cfg,
		Router: r,
		Logger: logger,
		mw:     mw,
	}
}

// Middleware returns the middleware instance.
func (t *Twin) Middleware() *Middleware { return t.mw }

// Serve starts the HTTP server and blocks until a shutdown signal.
func (t *Twin) Serve() error {
	addr := fmt.Sprintf(":%d", t.Config.Port)

	srv := &http.Server{
		Addr:         addr,
		Handler:      t.Router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		t.Logger.Info("starting twin", "name", t.Config.Name, "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			t.Logger.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	<-done
	t.Logger.Info("shutting down twin", "name", t.Config.Name)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

// ServeHTTP implements http.Handler so Twin can be used directly in tests.
func (t *Twin) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	t.Router.ServeHTTP(w, r)
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

// Error writes an error response in the production API's flat format.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}
