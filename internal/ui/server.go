// Package ui serves the tree grid in a browser.
package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	"github.com/leapstack-labs/treegrid/internal/engine"
	"github.com/leapstack-labs/treegrid/internal/ui/notifier"
	"github.com/leapstack-labs/treegrid/internal/ui/router"
	"golang.org/x/sync/errgroup"
)

const (
	defaultShutdownTimeout = 5 * time.Second
	debounceDelay          = 100 * time.Millisecond
)

// Server is the main UI server.
type Server struct {
	engine          *engine.Engine
	sessionStore    *sessions.CookieStore
	port            int
	watch           bool
	dev             bool
	pageSize        int
	shutdownTimeout time.Duration
	logger          *slog.Logger
	notifier        *notifier.Notifier
}

// Config holds configuration for the UI server.
type Config struct {
	Engine          *engine.Engine
	Port            int
	Watch           bool
	Dev             bool
	SessionSecret   string
	PageSize        int
	ShutdownTimeout time.Duration
	Logger          *slog.Logger
}

// NewServer creates a new UI server instance.
func NewServer(cfg Config) *Server {
	sessionStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	sessionStore.MaxAge(86400 * 30) // 30 days
	sessionStore.Options.Path = "/"
	sessionStore.Options.HttpOnly = true
	sessionStore.Options.SameSite = http.SameSiteLaxMode

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	timeout := cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}

	return &Server{
		engine:          cfg.Engine,
		sessionStore:    sessionStore,
		port:            cfg.Port,
		watch:           cfg.Watch,
		dev:             cfg.Dev,
		pageSize:        cfg.PageSize,
		shutdownTimeout: timeout,
		logger:          logger,
		notifier:        notifier.New(),
	}
}

// Handler builds the HTTP handler with all routes mounted.
func (s *Server) Handler() (http.Handler, error) {
	r := chi.NewMux()
	r.Use(
		middleware.Logger,
		middleware.Recoverer,
		middleware.Compress(5),
	)

	if err := router.SetupRoutes(r, s.engine, s.sessionStore, s.notifier, s.pageSize, s.dev); err != nil {
		return nil, fmt.Errorf("failed to setup routes: %w", err)
	}
	return r, nil
}

// Serve starts the UI server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("starting UI server", "addr", fmt.Sprintf("http://localhost:%d", s.port))

	handler, err := s.Handler()
	if err != nil {
		return err
	}

	cancelMoves := s.engine.Source().Subscribe(s.notifier.Moved)
	defer cancelMoves()

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start file watcher if enabled
	if s.watch && s.engine.SeedPath() != "" {
		eg.Go(func() error {
			return s.watchSeed(egctx)
		})
	}

	// Start HTTP server
	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()

		s.logger.Debug("shutting down UI server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// Notifier returns the server's notifier for SSE updates.
func (s *Server) Notifier() *notifier.Notifier {
	return s.notifier
}

// reloadSeed reloads the forest and tells every connected browser.
func (s *Server) reloadSeed(ctx context.Context) {
	if err := s.engine.Reload(ctx); err != nil {
		s.logger.Error("reload failed, keeping current forest", "error", err)
		return
	}
	s.notifier.Reloaded()
}

// watchSeed watches the directory of the seed file; editors often replace
// the file instead of writing it in place.
func (s *Server) watchSeed(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	seed, err := filepath.Abs(s.engine.SeedPath())
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(seed)); err != nil {
		s.logger.Error("failed to watch seed directory", "error", err)
		// Don't fail - continue without watching
		<-ctx.Done()
		return nil
	}

	var (
		mu            sync.Mutex
		debounceTimer *time.Timer
	)
	defer func() {
		mu.Lock()
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if name, _ := filepath.Abs(event.Name); name != seed {
				continue
			}

			// Debounce
			mu.Lock()
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(debounceDelay, func() {
				s.logger.Debug("seed changed, reloading", "file", event.Name)
				s.reloadSeed(ctx)
			})
			mu.Unlock()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("watcher error", "error", err)
		}
	}
}
