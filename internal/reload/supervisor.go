// Package reload implements the Reload Supervisor (spec §4.7): a periodic
// timer that rebuilds the full config-to-Engine pipeline and atomically
// swaps the live Service Layer, never tearing down the listener and never
// stalling in-flight requests.
package reload

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/devnull-http/devnull/internal/config"
	"github.com/devnull-http/devnull/internal/engine"
	"github.com/devnull-http/devnull/internal/metrics"
	"github.com/devnull-http/devnull/internal/service"
	"github.com/devnull-http/devnull/internal/template"
)

// DefaultInterval is the reload cadence used when the root config omits
// reload_interval, per spec §4.7.
const DefaultInterval = 5 * time.Second

// Supervisor owns the RWMutex-guarded live Service Layer cell described in
// spec §5 and §9. Readers (request handlers) take Current() briefly to
// grab the current *service.Service; the background reload goroutine takes
// the exclusive path only to overwrite the pointer.
type Supervisor struct {
	configPath string
	interval   time.Duration
	logger     *zap.Logger
	metrics    *metrics.Metrics

	mu      sync.RWMutex
	current *service.Service
}

// New performs the initial load (fatal on failure, matching "at startup
// this terminates the process" from spec §7) and returns a Supervisor
// ready to Start.
func New(configPath string, interval time.Duration, logger *zap.Logger, m *metrics.Metrics) (*Supervisor, error) {
	if interval <= 0 {
		interval = DefaultInterval
	}

	s := &Supervisor{
		configPath: configPath,
		interval:   interval,
		logger:     logger,
		metrics:    m,
	}

	svc, err := build(configPath, logger, m)
	if err != nil {
		return nil, err
	}
	s.current = svc

	return s, nil
}

// Current returns the live Service Layer snapshot. Callers should use it
// for the duration of a single request; reloads never mutate a Service
// in place.
func (s *Supervisor) Current() *service.Service {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Start runs the reload loop until ctx is cancelled. The listener itself is
// never touched by this loop, per spec §4.7.
func (s *Supervisor) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.reloadOnce()
		case <-ctx.Done():
			return
		}
	}
}

func (s *Supervisor) reloadOnce() {
	svc, err := build(s.configPath, s.logger, s.metrics)
	if err != nil {
		s.logger.Warn("config reload failed, keeping previous service layer",
			zap.String("config_path", s.configPath), zap.Error(err))
		if s.metrics != nil {
			s.metrics.ObserveReload(false)
		}
		return
	}

	s.mu.Lock()
	s.current = svc
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.ObserveReload(true)
	}
	s.logger.Info("config reloaded", zap.String("config_path", s.configPath))
}

// build runs the full Loader -> Template Registry -> Engine -> Service
// pipeline from scratch, the way every reload tick does.
func build(configPath string, logger *zap.Logger, m *metrics.Metrics) (*service.Service, error) {
	parsed, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	registry := template.New()

	eng, err := engine.Build(parsed, registry)
	if err != nil {
		return nil, err
	}

	return service.New(eng, registry, logger, m), nil
}
