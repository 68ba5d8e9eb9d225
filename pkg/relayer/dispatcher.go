package relayer

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/speedrun-hq/burn-relayer/pkg/gelato"
	"github.com/speedrun-hq/burn-relayer/pkg/logger"
	"github.com/speedrun-hq/burn-relayer/pkg/metrics"
	"github.com/speedrun-hq/burn-relayer/pkg/models"
)

// Retry defaults for relay submissions
const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = time.Second
	DefaultMaxDelay    = 30 * time.Second
)

// Transport submits sponsored calls to the relay
type Transport interface {
	SponsoredCall(ctx context.Context, req gelato.SponsoredCallRequest) (gelato.SponsoredCallResponse, error)
}

// rateLimited is implemented by transport errors that may be retried after a delay
type rateLimited interface {
	RateLimited() bool
}

// IsRateLimited reports whether err, or an error it wraps, is a rate-limit refusal
func IsRateLimited(err error) bool {
	var rl rateLimited
	return errors.As(err, &rl) && rl.RateLimited()
}

// RetryConfig bounds the retries of one relay hand-off
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = DefaultBaseDelay
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = DefaultMaxDelay
	}
	if c.MaxDelay < c.BaseDelay {
		c.MaxDelay = c.BaseDelay
	}
	return c
}

// Dispatcher hands relay intents to the sponsor relay, retrying rate-limited submissions
type Dispatcher struct {
	transport Transport
	retry     RetryConfig
	newTimer  func() backoff.Timer
	logger    logger.Logger
}

// NewDispatcher creates a dispatcher over transport
func NewDispatcher(transport Transport, retry RetryConfig, log logger.Logger) *Dispatcher {
	return &Dispatcher{
		transport: transport,
		retry:     retry.withDefaults(),
		logger:    log,
	}
}

func (d *Dispatcher) backOff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = d.retry.BaseDelay
	exp.Multiplier = 2
	exp.RandomizationFactor = 0
	exp.MaxInterval = d.retry.MaxDelay
	exp.MaxElapsedTime = 0

	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(d.retry.MaxAttempts-1)), ctx)
}

// Dispatch submits intent once, then again after each rate-limited refusal until attempts run out
// It never returns an error: failures are reported in the outcome
func (d *Dispatcher) Dispatch(ctx context.Context, intent models.RelayIntent, apiKey string) models.RelayOutcome {
	chainID := intent.DestinationChainID
	chainLabel := strconv.FormatInt(chainID, 10)
	req := gelato.SponsoredCallRequest{
		ChainID:       chainID,
		Target:        intent.DestinationContract,
		Data:          intent.CallData,
		SponsorAPIKey: apiKey,
	}

	var (
		attempts int
		taskID   string
	)
	operation := func() error {
		attempts++
		metrics.RelayAttempts.WithLabelValues(chainLabel).Inc()

		resp, err := d.transport.SponsoredCall(ctx, req)
		if err == nil {
			taskID = resp.TaskID
			return nil
		}
		if IsRateLimited(err) {
			metrics.RateLimitHits.WithLabelValues(chainLabel).Inc()
			return err
		}
		return backoff.Permanent(err)
	}
	notify := func(err error, next time.Duration) {
		d.logger.NoticeWithChain(chainID, "Relay rate limited (attempt %d/%d), retrying in %v: %v",
			attempts, d.retry.MaxAttempts, next, err)
	}

	var timer backoff.Timer
	if d.newTimer != nil {
		timer = d.newTimer()
	}

	if err := backoff.RetryNotifyWithTimer(operation, d.backOff(ctx), notify, timer); err != nil {
		d.logger.ErrorWithChain(chainID, "Relay of %s failed after %d attempt(s): %v", intent.EventKey, attempts, err)
		metrics.RelaysSubmitted.WithLabelValues(chainLabel, "failed").Inc()
		return models.RelayOutcome{
			Success:      false,
			ErrorMessage: err.Error(),
			Attempts:     attempts,
		}
	}

	d.logger.InfoWithChain(chainID, "Relay of %s accepted, task %s", intent.EventKey, taskID)
	metrics.RelaysSubmitted.WithLabelValues(chainLabel, "success").Inc()
	return models.RelayOutcome{
		Success:  true,
		TaskID:   taskID,
		Attempts: attempts,
	}
}
