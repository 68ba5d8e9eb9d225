package relayer

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/speedrun-hq/burn-relayer/pkg/gelato"
	"github.com/speedrun-hq/burn-relayer/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDispatcher(transport Transport, retry RetryConfig) (*Dispatcher, *recordingTimer) {
	timer := &recordingTimer{}
	d := NewDispatcher(transport, retry, testLogger)
	d.newTimer = func() backoff.Timer { return timer }
	return d, timer
}

func testIntent() models.RelayIntent {
	return models.RelayIntent{
		DestinationChainID:  chainB,
		DestinationContract: contractB,
		CallData:            []byte{0x01, 0x02},
		EventKey:            "421614:500:3:0xabc",
	}
}

func TestDispatchSuccess(t *testing.T) {
	transport := &fakeTransport{}
	d, timer := newTestDispatcher(transport, RetryConfig{})

	outcome := d.Dispatch(context.Background(), testIntent(), "key")
	assert.True(t, outcome.Success)
	assert.Equal(t, "0xtask0", outcome.TaskID)
	assert.Equal(t, 1, outcome.Attempts)
	assert.Empty(t, timer.recorded())

	reqs := transport.requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, gelato.SponsoredCallRequest{
		ChainID:       chainB,
		Target:        contractB,
		Data:          []byte{0x01, 0x02},
		SponsorAPIKey: "key",
	}, reqs[0])
}

func TestDispatchRetries(t *testing.T) {
	permanent := &gelato.APIError{StatusCode: 400, Message: "Invalid sponsor key"}

	tests := []struct {
		name     string
		retry    RetryConfig
		errs     []error
		fail     error
		success  bool
		attempts int
		delays   []time.Duration
		message  string
	}{
		{
			name:     "rate limited twice then success",
			errs:     []error{tooManyRequests(), tooManyRequests()},
			success:  true,
			attempts: 3,
			delays:   []time.Duration{time.Second, 2 * time.Second},
		},
		{
			name:     "rate limit exhausts attempts",
			fail:     tooManyRequests(),
			attempts: 3,
			delays:   []time.Duration{time.Second, 2 * time.Second},
			message:  "gelato relay returned status 429: Too many requests",
		},
		{
			name:     "permanent error is not retried",
			fail:     permanent,
			attempts: 1,
			message:  "gelato relay returned status 400: Invalid sponsor key",
		},
		{
			name:     "wrapped rate limit is retried",
			errs:     []error{fmt.Errorf("submit: %w", tooManyRequests())},
			success:  true,
			attempts: 2,
			delays:   []time.Duration{time.Second},
		},
		{
			name:     "delay is capped",
			retry:    RetryConfig{MaxAttempts: 4, BaseDelay: time.Second, MaxDelay: 1500 * time.Millisecond},
			fail:     tooManyRequests(),
			attempts: 4,
			delays:   []time.Duration{time.Second, 1500 * time.Millisecond, 1500 * time.Millisecond},
			message:  "gelato relay returned status 429: Too many requests",
		},
		{
			name:     "single attempt",
			retry:    RetryConfig{MaxAttempts: 1},
			fail:     tooManyRequests(),
			attempts: 1,
			message:  "gelato relay returned status 429: Too many requests",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := &fakeTransport{errs: tt.errs, fail: tt.fail}
			d, timer := newTestDispatcher(transport, tt.retry)

			outcome := d.Dispatch(context.Background(), testIntent(), "key")
			assert.Equal(t, tt.success, outcome.Success)
			assert.Equal(t, tt.attempts, outcome.Attempts)
			assert.Equal(t, tt.attempts, transport.callCount())
			assert.Equal(t, tt.delays, timer.recorded())
			assert.Equal(t, tt.message, outcome.ErrorMessage)

			// every retry resends the same calldata
			for _, req := range transport.requests() {
				assert.Equal(t, []byte{0x01, 0x02}, []byte(req.Data))
			}
		})
	}
}

func TestDispatchCancelledContext(t *testing.T) {
	transport := &fakeTransport{fail: tooManyRequests()}
	d, _ := newTestDispatcher(transport, RetryConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome := d.Dispatch(ctx, testIntent(), "key")
	assert.False(t, outcome.Success)
	assert.Equal(t, 1, outcome.Attempts)
	assert.Equal(t, context.Canceled.Error(), outcome.ErrorMessage)
}

func TestIsRateLimited(t *testing.T) {
	assert.True(t, IsRateLimited(tooManyRequests()))
	assert.True(t, IsRateLimited(fmt.Errorf("wrapped: %w", tooManyRequests())))
	assert.False(t, IsRateLimited(&gelato.APIError{StatusCode: 500}))
	assert.False(t, IsRateLimited(errors.New("Too many requests")))
	assert.False(t, IsRateLimited(nil))
}
