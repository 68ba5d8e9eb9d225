package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/speedrun-hq/burn-relayer/pkg/chains"
	"github.com/speedrun-hq/burn-relayer/pkg/gelato"
	"github.com/speedrun-hq/burn-relayer/pkg/logger"
	"github.com/speedrun-hq/burn-relayer/pkg/relayer"
)

const (
	// DefaultSourceChainID is chain A of the bridged pair (Arbitrum Sepolia)
	DefaultSourceChainID = chains.ArbitrumSepoliaChainID

	// DefaultDestChainID is chain B of the bridged pair (Optimism Sepolia)
	DefaultDestChainID = chains.OptimismSepoliaChainID

	// DefaultGelatoEndpoint is the Gelato relay API
	DefaultGelatoEndpoint = gelato.DefaultEndpoint

	// DefaultLookbackBlocks is how many blocks behind the head a poll covers
	DefaultLookbackBlocks = relayer.DefaultLookbackBlocks

	// DefaultEventSelection forwards only the latest burn per poll
	DefaultEventSelection = relayer.SelectLatest

	// DefaultRoutePolicy routes unknown source chains to chain A
	DefaultRoutePolicy = relayer.RoutePolicyFallback

	// DefaultRelayMaxAttempts is the number of sponsored-call submissions per burn
	DefaultRelayMaxAttempts = relayer.DefaultMaxAttempts

	// DefaultRelayBaseDelay is the wait before the first retry, doubled on each further retry
	DefaultRelayBaseDelay = relayer.DefaultBaseDelay

	// DefaultRelayMaxDelay caps the wait between retries
	DefaultRelayMaxDelay = relayer.DefaultMaxDelay

	// DefaultRunTimeout is the wall-clock budget of one run
	DefaultRunTimeout = relayer.DefaultRunTimeout

	// DefaultPollingInterval defines the default polling interval in seconds
	DefaultPollingInterval = 60

	// DefaultMetricsPort defines the default port for the metrics server
	DefaultMetricsPort = "8080"

	// DefaultCircuitBreakerEnabled defines whether the circuit breaker is enabled
	DefaultCircuitBreakerEnabled = true

	// DefaultCircuitBreakerThreshold defines the number of failures before the circuit breaker trips
	DefaultCircuitBreakerThreshold = 5

	// DefaultCircuitBreakerWindow defines the time window for the circuit breaker
	DefaultCircuitBreakerWindow = 5 * time.Minute

	// DefaultCircuitBreakerReset defines the reset timeout for the circuit breaker
	DefaultCircuitBreakerReset = 15 * time.Minute

	// DefaultLogLevel defines the default log level
	DefaultLogLevel = logger.InfoLevel
)

// GetEnvRPCURL returns the RPC URL in the named variable, or the chain's public endpoint
func GetEnvRPCURL(name string, chainID int64) (string, error) {
	rpcURL := os.Getenv(name)
	if rpcURL == "" {
		return chains.GetDefaultRPCURL(chainID), nil
	}

	if _, err := url.ParseRequestURI(rpcURL); err != nil {
		return "", fmt.Errorf("invalid %s value: %s, must be a valid URL", name, rpcURL)
	}
	return rpcURL, nil
}

// GetEnvContractAddress returns the contract address in the named variable
// An empty value is allowed: the relayer reports it when a run needs the address
func GetEnvContractAddress(name string) (string, error) {
	address := os.Getenv(name)
	if address == "" {
		return "", nil
	}

	if !common.IsHexAddress(address) {
		return "", fmt.Errorf("invalid %s value: %s, must be a valid Ethereum address", name, address)
	}
	return address, nil
}

// GetEnvChainID returns the chain ID in the named variable
func GetEnvChainID(name string, defaultID int64) (int64, error) {
	chainID := os.Getenv(name)
	if chainID == "" {
		return defaultID, nil
	}

	id, err := strconv.ParseInt(chainID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value: %s, must be an integer", name, chainID)
	}
	if id <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", name)
	}
	return id, nil
}

// GetEnvGelatoAPIKey returns the Gelato sponsor API key
func GetEnvGelatoAPIKey() string {
	return os.Getenv("GELATO_API_KEY")
}

// GetEnvGelatoEndpoint returns the Gelato relay API endpoint from environment variables
func GetEnvGelatoEndpoint() (string, error) {
	endpoint := os.Getenv("GELATO_API_ENDPOINT")
	if endpoint == "" {
		return DefaultGelatoEndpoint, nil
	}

	if _, err := url.ParseRequestURI(endpoint); err != nil {
		return "", fmt.Errorf("invalid GELATO_API_ENDPOINT value: %s, must be a valid URL", endpoint)
	}
	return endpoint, nil
}

// GetEnvLookbackBlocks returns the poll window size in blocks
func GetEnvLookbackBlocks() (uint64, error) {
	lookback := os.Getenv("LOOKBACK_BLOCKS")
	if lookback == "" {
		return DefaultLookbackBlocks, nil
	}

	blocks, err := strconv.ParseUint(lookback, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid LOOKBACK_BLOCKS value: %s, must be a positive integer", lookback)
	}
	if blocks == 0 {
		return 0, fmt.Errorf("LOOKBACK_BLOCKS must be greater than 0")
	}
	return blocks, nil
}

// GetEnvEventSelection returns which burns of a poll window are forwarded
func GetEnvEventSelection() (relayer.SelectionPolicy, error) {
	selection := os.Getenv("EVENT_SELECTION")
	if selection == "" {
		return DefaultEventSelection, nil
	}

	policy, err := relayer.ParseSelectionPolicy(selection)
	if err != nil {
		return "", fmt.Errorf("invalid EVENT_SELECTION value: %s, must be 'latest' or 'all'", selection)
	}
	return policy, nil
}

// GetEnvRoutePolicy returns how burns from unknown chains are routed
func GetEnvRoutePolicy() (relayer.RoutePolicy, error) {
	policy := os.Getenv("ROUTE_POLICY")
	if policy == "" {
		return DefaultRoutePolicy, nil
	}

	parsed, err := relayer.ParseRoutePolicy(policy)
	if err != nil {
		return "", fmt.Errorf("invalid ROUTE_POLICY value: %s, must be 'fallback' or 'fail-closed'", policy)
	}
	return parsed, nil
}

// GetEnvRelayMaxAttempts returns the number of sponsored-call submissions per burn
func GetEnvRelayMaxAttempts() (int, error) {
	maxAttempts := os.Getenv("RELAY_MAX_ATTEMPTS")
	if maxAttempts == "" {
		return DefaultRelayMaxAttempts, nil
	}

	attempts, err := strconv.Atoi(maxAttempts)
	if err != nil {
		return 0, fmt.Errorf("invalid RELAY_MAX_ATTEMPTS value: %s, must be an integer", maxAttempts)
	}
	if attempts <= 0 {
		return 0, fmt.Errorf("RELAY_MAX_ATTEMPTS must be greater than 0")
	}
	return attempts, nil
}

// getEnvDuration parses a positive duration string from the named variable
func getEnvDuration(name string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(name)
	if value == "" {
		return defaultValue, nil
	}

	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value: %s, must be a valid duration string", name, value)
	}
	if parsed <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", name)
	}
	return parsed, nil
}

// GetEnvRelayBaseDelay returns the delay before the first relay retry
func GetEnvRelayBaseDelay() (time.Duration, error) {
	return getEnvDuration("RELAY_BASE_DELAY", DefaultRelayBaseDelay)
}

// GetEnvRelayMaxDelay returns the cap on the delay between relay retries
func GetEnvRelayMaxDelay() (time.Duration, error) {
	return getEnvDuration("RELAY_MAX_DELAY", DefaultRelayMaxDelay)
}

// GetEnvRunTimeout returns the wall-clock budget of one run
func GetEnvRunTimeout() (time.Duration, error) {
	return getEnvDuration("RUN_TIMEOUT", DefaultRunTimeout)
}

// GetEnvPollingInterval returns the daemon polling interval from environment variables
// Plain integers are read as seconds
func GetEnvPollingInterval() (time.Duration, error) {
	pollingInterval := os.Getenv("POLLING_INTERVAL")
	if pollingInterval == "" {
		return time.Duration(DefaultPollingInterval) * time.Second, nil
	}

	if interval, err := strconv.Atoi(pollingInterval); err == nil {
		if interval <= 0 {
			return 0, fmt.Errorf("POLLING_INTERVAL must be greater than 0")
		}
		return time.Duration(interval) * time.Second, nil
	}
	return getEnvDuration("POLLING_INTERVAL", 0)
}

// getEnvBool parses 'true' or 'false' from the named variable
func getEnvBool(name string, defaultValue bool) (bool, error) {
	value := os.Getenv(name)
	if value == "" {
		return defaultValue, nil
	}

	if value == "true" {
		return true, nil
	} else if value == "false" {
		return false, nil
	}

	return false, fmt.Errorf("invalid %s value: %s, must be 'true' or 'false'", name, value)
}

// GetEnvConcurrentDirections returns whether both directions are polled in parallel
func GetEnvConcurrentDirections() (bool, error) {
	return getEnvBool("CONCURRENT_DIRECTIONS", false)
}

// GetEnvDedicatedAddress returns the minting address handed to the relayer as a secret
func GetEnvDedicatedAddress() (string, error) {
	return GetEnvContractAddress("DEDICATED_ADDRESS")
}

// GetEnvRequireDedicatedAddress returns whether runs are skipped without a dedicated address
func GetEnvRequireDedicatedAddress() (bool, error) {
	return getEnvBool("REQUIRE_DEDICATED_ADDRESS", false)
}

// GetEnvLedgerPath returns the badger ledger directory, empty for an in-memory ledger
func GetEnvLedgerPath() string {
	return os.Getenv("LEDGER_PATH")
}

// GetEnvMetricsPort returns the metrics server port from environment variables
func GetEnvMetricsPort() (string, error) {
	metricsPort := os.Getenv("METRICS_PORT")
	if metricsPort == "" {
		return DefaultMetricsPort, nil
	}

	// Validate port format
	if _, err := strconv.Atoi(metricsPort); err != nil {
		return "", fmt.Errorf("invalid METRICS_PORT value: %s, must be a valid integer", metricsPort)
	}
	return metricsPort, nil
}

// GetEnvMetricsAPIKey returns the bearer token protecting /metrics, empty to disable auth
func GetEnvMetricsAPIKey() string {
	return os.Getenv("METRICS_API_KEY")
}

// GetEnvCircuitBreakerEnabled returns whether the circuit breaker is enabled from environment variables
func GetEnvCircuitBreakerEnabled() (bool, error) {
	return getEnvBool("CIRCUIT_BREAKER_ENABLED", DefaultCircuitBreakerEnabled)
}

// GetEnvCircuitBreakerThreshold returns the circuit breaker threshold from environment variables
func GetEnvCircuitBreakerThreshold() (int, error) {
	threshold := os.Getenv("CIRCUIT_BREAKER_THRESHOLD")
	if threshold == "" {
		return DefaultCircuitBreakerThreshold, nil
	}

	thresholdInt, err := strconv.Atoi(threshold)
	if err != nil {
		return 0, fmt.Errorf("invalid CIRCUIT_BREAKER_THRESHOLD value: %s, must be an integer", threshold)
	}
	if thresholdInt <= 0 {
		return 0, fmt.Errorf("CIRCUIT_BREAKER_THRESHOLD must be greater than 0")
	}
	return thresholdInt, nil
}

// GetEnvCircuitBreakerWindow returns the circuit breaker window duration from environment variables
func GetEnvCircuitBreakerWindow() (time.Duration, error) {
	return getEnvDuration("CIRCUIT_BREAKER_WINDOW", DefaultCircuitBreakerWindow)
}

// GetEnvCircuitBreakerReset returns the circuit breaker reset timeout from environment variables
func GetEnvCircuitBreakerReset() (time.Duration, error) {
	return getEnvDuration("CIRCUIT_BREAKER_RESET", DefaultCircuitBreakerReset)
}

// GetEnvLogLevel returns the log level from environment variables
func GetEnvLogLevel() (logger.Level, error) {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return DefaultLogLevel, nil
	}

	parsed, err := logger.ParseLevel(level)
	if err != nil {
		return 0, fmt.Errorf("invalid LOG_LEVEL value: %s, must be one of debug, info, notice, error", level)
	}
	return parsed, nil
}

// GetEnvLogColoring returns whether log output is colored
func GetEnvLogColoring() (bool, error) {
	return getEnvBool("LOG_COLORING", true)
}
