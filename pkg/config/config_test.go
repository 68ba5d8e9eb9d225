package config

import (
	"testing"
	"time"

	"github.com/speedrun-hq/burn-relayer/pkg/logger"
	"github.com/speedrun-hq/burn-relayer/pkg/relayer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envVars = []string{
	"SOURCE_RPC_URL", "DEST_RPC_URL", "SOURCE_CONTRACT_ADDRESS", "DEST_CONTRACT_ADDRESS",
	"SOURCE_CHAIN_ID", "DEST_CHAIN_ID", "GELATO_API_KEY", "GELATO_API_ENDPOINT",
	"LOOKBACK_BLOCKS", "EVENT_SELECTION", "ROUTE_POLICY", "RELAY_MAX_ATTEMPTS",
	"RELAY_BASE_DELAY", "RELAY_MAX_DELAY", "RUN_TIMEOUT", "POLLING_INTERVAL",
	"CONCURRENT_DIRECTIONS", "LEDGER_PATH", "METRICS_PORT", "METRICS_API_KEY",
	"CIRCUIT_BREAKER_ENABLED", "CIRCUIT_BREAKER_THRESHOLD", "CIRCUIT_BREAKER_WINDOW",
	"CIRCUIT_BREAKER_RESET", "LOG_LEVEL", "LOG_COLORING",
	"DEDICATED_ADDRESS", "REQUIRE_DEDICATED_ADDRESS",
}

// clearEnv blanks every relayer variable for the duration of the test
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range envVars {
		t.Setenv(name, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := loadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, int64(421614), cfg.Source.ChainID)
	assert.Equal(t, "https://sepolia-rollup.arbitrum.io/rpc", cfg.Source.RPCURL)
	assert.Equal(t, int64(11155420), cfg.Dest.ChainID)
	assert.Equal(t, "https://sepolia.optimism.io", cfg.Dest.RPCURL)
	assert.Empty(t, cfg.Source.ContractAddress)
	assert.Empty(t, cfg.GelatoAPIKey)
	assert.Empty(t, cfg.DedicatedAddress)
	assert.False(t, cfg.RequireDedicated)
	assert.Equal(t, "https://api.gelato.digital", cfg.GelatoEndpoint)
	assert.Equal(t, uint64(10000), cfg.LookbackBlocks)
	assert.Equal(t, relayer.SelectLatest, cfg.EventSelection)
	assert.Equal(t, relayer.RoutePolicyFallback, cfg.RoutePolicy)
	assert.Equal(t, RelayConfig{MaxAttempts: 3, BaseDelay: time.Second, MaxDelay: 30 * time.Second}, cfg.Relay)
	assert.Equal(t, 2*time.Minute, cfg.RunTimeout)
	assert.Equal(t, 60*time.Second, cfg.PollingInterval)
	assert.False(t, cfg.ConcurrentDirections)
	assert.Equal(t, "8080", cfg.MetricsPort)
	assert.True(t, cfg.CircuitBreaker.Enabled)
	assert.Equal(t, logger.InfoLevel, cfg.LoggerConfig.Level)
	assert.True(t, cfg.LoggerConfig.Coloring)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("SOURCE_CONTRACT_ADDRESS", "0x1000000000000000000000000000000000000001")
	t.Setenv("DEST_CONTRACT_ADDRESS", "0x2000000000000000000000000000000000000002")
	t.Setenv("SOURCE_RPC_URL", "http://localhost:8545")
	t.Setenv("GELATO_API_KEY", "key")
	t.Setenv("EVENT_SELECTION", "all")
	t.Setenv("ROUTE_POLICY", "fail-closed")
	t.Setenv("RELAY_BASE_DELAY", "500ms")
	t.Setenv("POLLING_INTERVAL", "2m")
	t.Setenv("CONCURRENT_DIRECTIONS", "true")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DEDICATED_ADDRESS", "0x3000000000000000000000000000000000000003")
	t.Setenv("REQUIRE_DEDICATED_ADDRESS", "true")

	cfg, err := loadFromEnv()
	require.NoError(t, err)

	inv := cfg.Invocation()
	assert.False(t, inv.IsPush())
	assert.Equal(t, "http://localhost:8545", inv.UserArgs.SourceRPCURL)
	assert.Equal(t, "0x2000000000000000000000000000000000000002", inv.UserArgs.DestContractAddress)
	assert.Equal(t, int64(421614), inv.UserArgs.SourceChainID)
	assert.Equal(t, "key", inv.Secrets.GelatoAPIKey)
	assert.Equal(t, "0x3000000000000000000000000000000000000003", inv.DedicatedAddress())

	opts := cfg.ProcessorOptions()
	assert.Equal(t, relayer.SelectAll, opts.Selection)
	assert.Equal(t, relayer.RoutePolicyFailClosed, opts.RoutePolicy)
	assert.Equal(t, 500*time.Millisecond, opts.Retry.BaseDelay)
	assert.True(t, opts.ConcurrentDirections)
	assert.True(t, opts.RequireDedicatedAddress)
	assert.Equal(t, 2*time.Minute, cfg.PollingInterval)
	assert.Equal(t, logger.DebugLevel, cfg.LoggerConfig.Level)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad contract", "SOURCE_CONTRACT_ADDRESS", "0x123"},
		{"bad dedicated address", "DEDICATED_ADDRESS", "dedicated"},
		{"bad chain id", "DEST_CHAIN_ID", "optimism"},
		{"same chains", "DEST_CHAIN_ID", "421614"},
		{"bad rpc url", "DEST_RPC_URL", "not a url"},
		{"bad selection", "EVENT_SELECTION", "newest"},
		{"bad route policy", "ROUTE_POLICY", "drop"},
		{"zero attempts", "RELAY_MAX_ATTEMPTS", "0"},
		{"bad delay", "RELAY_BASE_DELAY", "soon"},
		{"max below base", "RELAY_MAX_DELAY", "100ms"},
		{"zero lookback", "LOOKBACK_BLOCKS", "0"},
		{"negative polling", "POLLING_INTERVAL", "-5"},
		{"bad bool", "CONCURRENT_DIRECTIONS", "yes"},
		{"bad port", "METRICS_PORT", "http"},
		{"bad log level", "LOG_LEVEL", "verbose"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := loadFromEnv()
			assert.Error(t, err)
		})
	}
}

func TestGetEnvPollingInterval(t *testing.T) {
	tests := []struct {
		value    string
		expected time.Duration
	}{
		{"", 60 * time.Second},
		{"15", 15 * time.Second},
		{"90s", 90 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("POLLING_INTERVAL", tt.value)
			interval, err := GetEnvPollingInterval()
			require.NoError(t, err)
			assert.Equal(t, tt.expected, interval)
		})
	}
}
