// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/picam/internal/log"
)

// ShutdownHook is a function that performs cleanup during graceful shutdown.
// Hooks are executed in reverse registration order (LIFO).
type ShutdownHook func(ctx context.Context) error

// ServerConfig holds the HTTP server settings of the manager.
type ServerConfig struct {
	ListenAddr        string
	ReadHeaderTimeout time.Duration
	// WriteTimeout stays zero by default: preview streams and the status
	// websocket are long-lived responses.
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// Manager manages the daemon lifecycle: starting servers, handling shutdown.
type Manager interface {
	// Start runs the camera loop and all servers and blocks until ctx is
	// cancelled or one of them fails.
	Start(ctx context.Context) error

	// Shutdown gracefully shuts down all servers, stops the camera loop and runs hooks.
	Shutdown(ctx context.Context) error

	// RegisterShutdownHook registers a function to be called during shutdown
	RegisterShutdownHook(name string, hook ShutdownHook)

	// Ready is closed once the listeners are bound.
	Ready() <-chan struct{}

	// APIAddr is the bound API address, valid after Ready.
	APIAddr() string
}

type manager struct {
	serverCfg ServerConfig
	deps      Deps

	apiServer     *http.Server
	metricsServer *http.Server
	apiAddr       string

	stopCamera context.CancelFunc
	cameraDone chan struct{}
	ready      chan struct{}
	stopped    chan struct{}

	shutdownHooks []namedHook

	started  bool
	stopping bool
	mu       sync.Mutex

	logger zerolog.Logger
}

type namedHook struct {
	name string
	hook ShutdownHook
}

// NewManager creates a new daemon manager with the given configuration and dependencies.
func NewManager(serverCfg ServerConfig, deps Deps) (Manager, error) {
	if err := deps.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dependencies: %w", err)
	}
	if serverCfg.ShutdownTimeout <= 0 {
		serverCfg.ShutdownTimeout = 15 * time.Second
	}
	if serverCfg.ReadHeaderTimeout <= 0 {
		serverCfg.ReadHeaderTimeout = 5 * time.Second
	}
	return &manager{
		serverCfg:     serverCfg,
		deps:          deps,
		logger:        deps.Logger.With().Str(log.FieldComponent, "manager").Logger(),
		shutdownHooks: make([]namedHook, 0),
		cameraDone:    make(chan struct{}),
		ready:         make(chan struct{}),
		stopped:       make(chan struct{}),
	}, nil
}

func (m *manager) Ready() <-chan struct{} { return m.ready }

func (m *manager) APIAddr() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.apiAddr
}

// Start binds the listeners, then runs the camera loop and the servers in
// one errgroup.
func (m *manager) Start(ctx context.Context) error {
	if ctx == nil {
		return fmt.Errorf("start context is nil")
	}
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return ErrManagerAlreadyStarted
	}
	m.started = true
	m.mu.Unlock()

	apiLn, err := net.Listen("tcp", m.serverCfg.ListenAddr)
	if err != nil {
		close(m.cameraDone)
		return fmt.Errorf("listen API %s: %w", m.serverCfg.ListenAddr, err)
	}
	var metricsLn net.Listener
	if m.deps.MetricsHandler != nil && m.deps.MetricsAddr != "" {
		metricsLn, err = net.Listen("tcp", m.deps.MetricsAddr)
		if err != nil {
			_ = apiLn.Close()
			close(m.cameraDone)
			return fmt.Errorf("listen metrics %s: %w", m.deps.MetricsAddr, err)
		}
	}

	cameraCtx, stopCamera := context.WithCancel(context.WithoutCancel(ctx))
	m.mu.Lock()
	m.apiAddr = apiLn.Addr().String()
	m.stopCamera = stopCamera
	m.apiServer = &http.Server{
		Handler:           m.deps.APIHandler,
		ReadHeaderTimeout: m.serverCfg.ReadHeaderTimeout,
		WriteTimeout:      m.serverCfg.WriteTimeout,
		IdleTimeout:       m.serverCfg.IdleTimeout,
	}
	if metricsLn != nil {
		m.metricsServer = &http.Server{
			Handler:           m.deps.MetricsHandler,
			ReadHeaderTimeout: m.serverCfg.ReadHeaderTimeout,
		}
	}
	m.mu.Unlock()

	m.logger.Info().
		Str(log.FieldEvent, "daemon.starting").
		Str("listen", m.apiAddr).
		Str("metrics", m.deps.MetricsAddr).
		Dur("shutdown_timeout", m.serverCfg.ShutdownTimeout).
		Msg("starting daemon manager")

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(m.cameraDone)
		err := m.deps.Camera.Run(cameraCtx)
		if m.isStopping() {
			return err
		}
		if err == nil {
			err = ErrCameraStopped
		}
		m.logger.Error().Err(err).Str(log.FieldEvent, "camera.loop_failed").Msg("camera loop exited")
		return err
	})

	g.Go(func() error {
		m.logger.Info().Str("addr", m.apiAddr).Msg("API server listening (HTTP)")
		if err := m.apiServer.Serve(apiLn); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error().Err(err).Str(log.FieldEvent, "api.server_failed").Msg("API server failed")
			return fmt.Errorf("API server: %w", err)
		}
		return nil
	})

	if metricsLn != nil {
		g.Go(func() error {
			m.logger.Info().Str("addr", metricsLn.Addr().String()).Msg("metrics server listening")
			if err := m.metricsServer.Serve(metricsLn); err != nil && !errors.Is(err, http.ErrServerClosed) {
				m.logger.Error().Err(err).Str(log.FieldEvent, "metrics.server_failed").Msg("metrics server failed")
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		select {
		case <-gctx.Done():
		case <-m.stopped:
			return nil
		}
		if ctx.Err() != nil {
			m.logger.Info().Str(log.FieldEvent, "daemon.signal").Msg("shutdown signal received")
		}
		// Use a detached-but-bounded context so shutdown can complete even if parent is canceled.
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.serverCfg.ShutdownTimeout)
		defer cancel()
		return m.Shutdown(shutdownCtx)
	})

	close(m.ready)
	return g.Wait()
}

func (m *manager) isStopping() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopping
}

// Shutdown stops the servers first so in-flight requests can still resolve
// against the camera loop, then stops the loop, then runs the hooks.
func (m *manager) Shutdown(ctx context.Context) error {
	if ctx == nil {
		return fmt.Errorf("shutdown context is nil")
	}

	m.mu.Lock()
	if m.stopping {
		m.mu.Unlock()
		return nil
	}
	if !m.started {
		m.mu.Unlock()
		return ErrManagerNotStarted
	}
	m.stopping = true
	close(m.stopped)
	apiServer, metricsServer, stopCamera := m.apiServer, m.metricsServer, m.stopCamera
	hooks := append([]namedHook(nil), m.shutdownHooks...)
	m.mu.Unlock()

	m.logger.Info().Str(log.FieldEvent, "daemon.stopping").Msg("shutting down daemon manager")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.serverCfg.ShutdownTimeout)
	defer cancel()

	var errs []error

	if apiServer != nil {
		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("API server shutdown: %w", err))
		}
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	if stopCamera != nil {
		stopCamera()
		select {
		case <-m.cameraDone:
		case <-shutdownCtx.Done():
			errs = append(errs, fmt.Errorf("camera loop: %w", shutdownCtx.Err()))
		}
	}

	for i := len(hooks) - 1; i >= 0; i-- {
		hook := hooks[i]
		hookStart := time.Now()
		if err := hook.hook(shutdownCtx); err != nil {
			m.logger.Error().
				Err(err).
				Str("hook", hook.name).
				Dur("duration", time.Since(hookStart)).
				Msg("shutdown hook failed")
			errs = append(errs, fmt.Errorf("hook %s: %w", hook.name, err))
			continue
		}
		m.logger.Debug().
			Str("hook", hook.name).
			Dur("duration", time.Since(hookStart)).
			Msg("shutdown hook completed")
	}

	if len(errs) > 0 {
		m.logger.Error().Int("error_count", len(errs)).Msg("shutdown completed with errors")
		return fmt.Errorf("shutdown errors: %w", errors.Join(errs...))
	}
	m.logger.Info().Str(log.FieldEvent, "daemon.stopped").Msg("daemon manager stopped cleanly")
	return nil
}

// RegisterShutdownHook registers a cleanup function to be called during shutdown.
// Hooks are executed in reverse registration order (LIFO).
func (m *manager) RegisterShutdownHook(name string, hook ShutdownHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shutdownHooks = append(m.shutdownHooks, namedHook{name: name, hook: hook})
	m.logger.Debug().Str("hook", name).Msg("registered shutdown hook")
}
