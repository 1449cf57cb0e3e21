// Package app wires the tracker HTTP service: storage, preferences, the
// metadata client and the request pipeline.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/louisbranch/playlog/internal/platform/httpx"
	"github.com/louisbranch/playlog/internal/platform/kvstore"
	"github.com/louisbranch/playlog/internal/platform/observability"
	"github.com/louisbranch/playlog/internal/platform/timeouts"
	"github.com/louisbranch/playlog/internal/services/tracker/integration/bgg"
	"github.com/louisbranch/playlog/internal/services/tracker/service"
	"github.com/louisbranch/playlog/internal/services/tracker/storage/sqlite"
	"github.com/louisbranch/playlog/internal/services/tracker/transport/httpapi"
)

// Config defines startup inputs for the tracker service.
type Config struct {
	HTTPAddr        string
	DBPath          string
	MetadataBaseURL string
	Logger          *log.Logger
}

// Server hosts the tracker HTTP surface and owns its resources.
type Server struct {
	httpServer  *http.Server
	listener    net.Listener
	store       *sqlite.Store
	preferences *kvstore.Store
	logger      *log.Logger
}

// NewHandler composes the tracker routes with the shared middleware.
func NewHandler(tracker httpapi.Tracker, logger *log.Logger) http.Handler {
	return httpx.Chain(httpapi.NewHandler(tracker, logger),
		httpx.RecoverPanic(logger),
		httpx.RequestID(),
		observability.RequestLogger(logger),
	)
}

// NewServer opens the database, applies pending migrations, loads the
// preferences and binds the listen address.
func NewServer(ctx context.Context, cfg Config) (*Server, error) {
	httpAddr := strings.TrimSpace(cfg.HTTPAddr)
	if httpAddr == "" {
		return nil, errors.New("http address is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	store, err := sqlite.Open(ctx, cfg.DBPath, logger)
	if err != nil {
		return nil, fmt.Errorf("open tracker store: %w", err)
	}
	preferences, err := kvstore.New(ctx, store)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("load preferences: %w", err)
	}

	svc := service.NewService(
		service.Stores{Players: store, Templates: store, Sessions: store},
		bgg.NewClient(cfg.MetadataBaseURL, nil),
		preferences,
	)

	listener, err := net.Listen("tcp", httpAddr)
	if err != nil {
		_ = preferences.Close()
		_ = store.Close()
		return nil, fmt.Errorf("listen on %s: %w", httpAddr, err)
	}

	return &Server{
		httpServer: &http.Server{
			Handler:           otelhttp.NewHandler(NewHandler(svc, logger), "playlog-tracker"),
			ReadHeaderTimeout: timeouts.ReadHeader,
			ErrorLog:          logger,
		},
		listener:    listener,
		store:       store,
		preferences: preferences,
		logger:      logger,
	}, nil
}

// Addr reports the bound listen address.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// ListenAndServe serves HTTP traffic until context cancellation or server stop.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return errors.New("tracker server is nil")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	serveErr := make(chan error, 1)
	go func() {
		s.logger.Printf("tracker listening on %s", s.Addr())
		serveErr <- s.httpServer.Serve(s.listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown tracker http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve tracker http: %w", err)
	}
}

// Close releases the listener, the preference store and the database.
func (s *Server) Close() error {
	if s == nil {
		return nil
	}
	var errs []error
	if s.httpServer != nil {
		if err := s.httpServer.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			errs = append(errs, err)
		}
	}
	if s.preferences != nil {
		errs = append(errs, s.preferences.Close())
	}
	if s.store != nil {
		errs = append(errs, s.store.Close())
	}
	return errors.Join(errs...)
}
