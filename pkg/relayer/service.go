package relayer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/speedrun-hq/burn-relayer/pkg/chains"
	"github.com/speedrun-hq/burn-relayer/pkg/circuitbreaker"
	"github.com/speedrun-hq/burn-relayer/pkg/health"
	"github.com/speedrun-hq/burn-relayer/pkg/logger"
	"github.com/speedrun-hq/burn-relayer/pkg/models"
)

// DefaultPollingInterval is the delay between daemon runs
const DefaultPollingInterval = 60 * time.Second

// Service runs the processor periodically in poll mode
type Service struct {
	processor  *Processor
	invocation models.Invocation
	interval   time.Duration
	logger     logger.Logger

	mu         sync.Mutex
	runs       int
	ready      bool
	lastRunAt  time.Time
	lastResult *models.RunResult
	lastErr    error
}

var _ health.Provider = (*Service)(nil)

// NewService creates a daemon service for the chain pair of inv
func NewService(processor *Processor, inv models.Invocation, interval time.Duration, log logger.Logger) *Service {
	if interval <= 0 {
		interval = DefaultPollingInterval
	}

	// register breakers up front so they show on /status before the first hand-off
	processor.Breaker(inv.UserArgs.SourceChainID)
	processor.Breaker(inv.UserArgs.DestChainID)

	return &Service{
		processor:  processor,
		invocation: inv,
		interval:   interval,
		logger:     log,
	}
}

// Start runs immediately, then every polling interval until ctx is cancelled
func (s *Service) Start(ctx context.Context) {
	s.logger.Info("Starting relayer service with polling interval %v", s.interval)
	s.RunOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Context cancelled, shutting down service")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce executes a single poll-mode run and records its result
func (s *Service) RunOnce(ctx context.Context) {
	result, err := s.processor.Run(ctx, s.invocation)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs++
	s.lastRunAt = time.Now()
	s.lastErr = err
	if err != nil {
		s.lastResult = nil
		if !errors.Is(err, context.Canceled) {
			s.logger.Error("Run failed: %v", err)
		}
		return
	}

	s.lastResult = &result
	s.ready = true
	s.logger.Info("Run result: %s", result.Message)
}

// Ready reports whether a run has completed without a fatal error
func (s *Service) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

// Status returns the state reported on the health server
func (s *Service) Status() health.Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.invocation.UserArgs.SourceChainID
	b := s.invocation.UserArgs.DestChainID
	status := health.Status{
		Routes: []health.Route{
			{SourceChainID: a, SourceChain: chains.GetChainName(a), DestinationChainID: b, DestinationChain: chains.GetChainName(b)},
			{SourceChainID: b, SourceChain: chains.GetChainName(b), DestinationChainID: a, DestinationChain: chains.GetChainName(a)},
		},
		Runs:      s.runs,
		LastRunAt: s.lastRunAt,
	}
	if s.lastResult != nil {
		result := *s.lastResult
		status.LastResult = &result
	}
	if s.lastErr != nil {
		status.LastError = s.lastErr.Error()
	}

	for _, cb := range s.processor.Breakers() {
		status.Circuits = append(status.Circuits, cb.GetStatus())
	}
	return status
}

// Breakers returns the processor's circuit breakers
func (s *Service) Breakers() []*circuitbreaker.CircuitBreaker {
	return s.processor.Breakers()
}
