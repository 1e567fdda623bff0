package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"

	"github.com/beffroi/beffroi/internal/config"
)

const shutdownTimeout = 10 * time.Second

// Server runs the HTTP server with graceful shutdown. When the config
// comes from a file, the file is watched and the log level follows the
// verbose setting without a restart.
type Server struct {
	cfg    *config.Config
	logger *slog.Logger
	level  *slog.LevelVar
	http   *http.Server
}

// NewServer builds the server. level may be nil, in which case config
// changes do not affect logging.
func NewServer(cfg *config.Config, handler http.Handler, logger *slog.Logger, level *slog.LevelVar) *Server {
	return &Server{
		cfg:    cfg,
		logger: logger,
		level:  level,
		http: &http.Server{
			Addr:              cfg.Server.Addr(),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Run serves until ctx is canceled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("http server listening", "addr", s.http.Addr, "dev", s.cfg.Server.Dev)
		if err := s.http.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		s.logger.Info("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	})

	if s.cfg.Source != "" && s.level != nil {
		g.Go(func() error {
			return s.watchConfig(ctx)
		})
	}

	return g.Wait()
}

// watchConfig re-reads the config file when it changes and applies the
// verbose flag to the log level. Editors fire several events per save,
// so reloads are debounced.
func (s *Server) watchConfig(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the directory: editors replace the file on save, which
	// would silently drop a watch on the file itself.
	if err := watcher.Add(filepath.Dir(s.cfg.Source)); err != nil {
		s.logger.Warn("config watch disabled", "file", s.cfg.Source, "error", err)
		return nil
	}
	s.logger.Info("watching config file", "file", s.cfg.Source)

	target := filepath.Clean(s.cfg.Source)
	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			pending = time.After(200 * time.Millisecond)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("config watcher error", "error", err)
		case <-pending:
			pending = nil
			s.reloadLevel()
		}
	}
}

func (s *Server) reloadLevel() {
	cfg, err := config.Load(s.cfg.Source, nil)
	if err != nil {
		s.logger.Error("config reload failed", "file", s.cfg.Source, "error", err)
		return
	}
	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	if s.level.Level() != level {
		s.level.Set(level)
		s.logger.Info("log level changed", "level", level)
	}
}
