package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/canyonbook-backend/pkg/logger"
)

const heartbeatInterval = time.Minute

// runner is a long-lived subscriber loop.
type runner interface {
	Run(ctx context.Context) error
}

type pinger interface {
	Ping(ctx context.Context) error
}

type ServiceParams struct {
	Logger       *logger.Logger
	Dependencies map[string]pinger
	Consumers    map[string]runner
}

// Service supervises the worker's Pub/Sub consumers. The first consumer to
// fail stops the others.
type Service struct {
	logg      *logger.Logger
	deps      map[string]pinger
	consumers map[string]runner
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if len(params.Consumers) == 0 {
		return nil, errors.New("at least one consumer is required")
	}
	for name, c := range params.Consumers {
		if c == nil {
			return nil, fmt.Errorf("consumer %s is nil", name)
		}
	}
	return &Service{
		logg:      params.Logger,
		deps:      params.Dependencies,
		consumers: params.Consumers,
	}, nil
}

func (s *Service) ensureReadiness(ctx context.Context) error {
	for name, dep := range s.deps {
		if dep == nil {
			return fmt.Errorf("%s client not initialized", name)
		}
		if err := dep.Ping(ctx); err != nil {
			s.logg.Error(ctx, name+" ping failed", err)
			return fmt.Errorf("%s ping failed: %w", name, err)
		}
	}
	s.logg.Info(ctx, "all worker dependencies are ready")
	return nil
}

// Run blocks until ctx is cancelled or a consumer returns.
func (s *Service) Run(ctx context.Context) error {
	if err := s.ensureReadiness(ctx); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	type exit struct {
		name string
		err  error
	}
	exits := make(chan exit, len(s.consumers))
	for name, c := range s.consumers {
		go func(name string, c runner) {
			exits <- exit{name: name, err: c.Run(s.logg.WithField(runCtx, "consumer", name))}
		}(name, c)
	}

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "worker context canceled")
			return ctx.Err()
		case e := <-exits:
			if e.err == nil || errors.Is(e.err, context.Canceled) {
				s.logg.Warn(s.logg.WithField(ctx, "consumer", e.name), "consumer returned")
				return e.err
			}
			s.logg.Error(s.logg.WithField(ctx, "consumer", e.name), "consumer stopped unexpectedly", e.err)
			return fmt.Errorf("consumer %s: %w", e.name, e.err)
		case <-ticker.C:
			s.logg.Debug(ctx, "worker heartbeat")
		}
	}
}
