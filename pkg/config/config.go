package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/speedrun-hq/burn-relayer/pkg/logger"
	"github.com/speedrun-hq/burn-relayer/pkg/models"
	"github.com/speedrun-hq/burn-relayer/pkg/relayer"
)

// Config holds the configuration for the relayer
type Config struct {
	Source               ChainConfig
	Dest                 ChainConfig
	GelatoAPIKey         string
	DedicatedAddress     string
	RequireDedicated     bool
	GelatoEndpoint       string
	LookbackBlocks       uint64
	EventSelection       relayer.SelectionPolicy
	RoutePolicy          relayer.RoutePolicy
	Relay                RelayConfig
	RunTimeout           time.Duration
	PollingInterval      time.Duration
	ConcurrentDirections bool
	LedgerPath           string
	MetricsPort          string
	MetricsAPIKey        string
	CircuitBreaker       CircuitBreakerConfig
	LoggerConfig         LoggerConfig
}

// ChainConfig holds the configuration for one side of the bridged pair
type ChainConfig struct {
	ChainID         int64
	RPCURL          string
	ContractAddress string
}

// RelayConfig holds the sponsored-call retry configuration
type RelayConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// CircuitBreakerConfig holds circuit breaker configuration
type CircuitBreakerConfig struct {
	Enabled        bool
	Threshold      int
	WindowDuration time.Duration
	ResetTimeout   time.Duration
}

// LoggerConfig holds the configuration for logging
type LoggerConfig struct {
	Level    logger.Level
	Coloring bool
}

// LoadConfig loads the configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}
	return loadFromEnv()
}

func loadFromEnv() (*Config, error) {
	source, err := getEnvChain("SOURCE", DefaultSourceChainID)
	if err != nil {
		return nil, err
	}

	dest, err := getEnvChain("DEST", DefaultDestChainID)
	if err != nil {
		return nil, err
	}

	gelatoEndpoint, err := GetEnvGelatoEndpoint()
	if err != nil {
		return nil, err
	}

	lookback, err := GetEnvLookbackBlocks()
	if err != nil {
		return nil, err
	}

	selection, err := GetEnvEventSelection()
	if err != nil {
		return nil, err
	}

	routePolicy, err := GetEnvRoutePolicy()
	if err != nil {
		return nil, err
	}

	maxAttempts, err := GetEnvRelayMaxAttempts()
	if err != nil {
		return nil, err
	}

	baseDelay, err := GetEnvRelayBaseDelay()
	if err != nil {
		return nil, err
	}

	maxDelay, err := GetEnvRelayMaxDelay()
	if err != nil {
		return nil, err
	}

	runTimeout, err := GetEnvRunTimeout()
	if err != nil {
		return nil, err
	}

	pollingInterval, err := GetEnvPollingInterval()
	if err != nil {
		return nil, err
	}

	concurrent, err := GetEnvConcurrentDirections()
	if err != nil {
		return nil, err
	}

	metricsPort, err := GetEnvMetricsPort()
	if err != nil {
		return nil, err
	}

	dedicated, err := GetEnvDedicatedAddress()
	if err != nil {
		return nil, err
	}

	requireDedicated, err := GetEnvRequireDedicatedAddress()
	if err != nil {
		return nil, err
	}

	cbEnabled, err := GetEnvCircuitBreakerEnabled()
	if err != nil {
		return nil, err
	}

	cbThreshold, err := GetEnvCircuitBreakerThreshold()
	if err != nil {
		return nil, err
	}

	cbWindow, err := GetEnvCircuitBreakerWindow()
	if err != nil {
		return nil, err
	}

	cbReset, err := GetEnvCircuitBreakerReset()
	if err != nil {
		return nil, err
	}

	logLevel, err := GetEnvLogLevel()
	if err != nil {
		return nil, err
	}

	logColoring, err := GetEnvLogColoring()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Source:           source,
		Dest:             dest,
		GelatoAPIKey:     GetEnvGelatoAPIKey(),
		DedicatedAddress: dedicated,
		RequireDedicated: requireDedicated,
		GelatoEndpoint:   gelatoEndpoint,
		LookbackBlocks:   lookback,
		EventSelection:   selection,
		RoutePolicy:      routePolicy,
		RunTimeout:       runTimeout,
		PollingInterval:  pollingInterval,
		Relay: RelayConfig{
			MaxAttempts: maxAttempts,
			BaseDelay:   baseDelay,
			MaxDelay:    maxDelay,
		},
		ConcurrentDirections: concurrent,
		LedgerPath:           GetEnvLedgerPath(),
		MetricsPort:          metricsPort,
		MetricsAPIKey:        GetEnvMetricsAPIKey(),
		CircuitBreaker: CircuitBreakerConfig{
			Enabled:        cbEnabled,
			Threshold:      cbThreshold,
			WindowDuration: cbWindow,
			ResetTimeout:   cbReset,
		},
		LoggerConfig: LoggerConfig{
			Level:    logLevel,
			Coloring: logColoring,
		},
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// getEnvChain reads <PREFIX>_CHAIN_ID, <PREFIX>_RPC_URL and <PREFIX>_CONTRACT_ADDRESS
func getEnvChain(prefix string, defaultID int64) (ChainConfig, error) {
	chainID, err := GetEnvChainID(prefix+"_CHAIN_ID", defaultID)
	if err != nil {
		return ChainConfig{}, err
	}

	rpcURL, err := GetEnvRPCURL(prefix+"_RPC_URL", chainID)
	if err != nil {
		return ChainConfig{}, err
	}

	contract, err := GetEnvContractAddress(prefix + "_CONTRACT_ADDRESS")
	if err != nil {
		return ChainConfig{}, err
	}

	return ChainConfig{
		ChainID:         chainID,
		RPCURL:          rpcURL,
		ContractAddress: contract,
	}, nil
}

// validateConfig validates the configuration
// Missing contract addresses and API key are reported by the relayer at run time
func validateConfig(cfg *Config) error {
	if cfg.Source.ChainID == cfg.Dest.ChainID {
		return fmt.Errorf("SOURCE_CHAIN_ID and DEST_CHAIN_ID must differ, both are %d", cfg.Source.ChainID)
	}
	if cfg.Relay.MaxDelay < cfg.Relay.BaseDelay {
		return fmt.Errorf("RELAY_MAX_DELAY (%v) must not be lower than RELAY_BASE_DELAY (%v)", cfg.Relay.MaxDelay, cfg.Relay.BaseDelay)
	}
	return nil
}

// Invocation builds the poll-mode invocation for the configured pair
func (c *Config) Invocation() models.Invocation {
	return models.Invocation{
		UserArgs: models.UserArgs{
			SourceRPCURL:          c.Source.RPCURL,
			DestRPCURL:            c.Dest.RPCURL,
			SourceContractAddress: c.Source.ContractAddress,
			DestContractAddress:   c.Dest.ContractAddress,
			SourceChainID:         c.Source.ChainID,
			DestChainID:           c.Dest.ChainID,
		},
		Secrets: models.Secrets{
			GelatoAPIKey:     c.GelatoAPIKey,
			DedicatedAddress: c.DedicatedAddress,
		},
	}
}

// ProcessorOptions returns the relayer options for this configuration
func (c *Config) ProcessorOptions() relayer.Options {
	return relayer.Options{
		Lookback:    c.LookbackBlocks,
		Selection:   c.EventSelection,
		RoutePolicy: c.RoutePolicy,
		Retry: relayer.RetryConfig{
			MaxAttempts: c.Relay.MaxAttempts,
			BaseDelay:   c.Relay.BaseDelay,
			MaxDelay:    c.Relay.MaxDelay,
		},
		RunTimeout:              c.RunTimeout,
		ConcurrentDirections:    c.ConcurrentDirections,
		RequireDedicatedAddress: c.RequireDedicated,
		CircuitBreaker: relayer.BreakerConfig{
			Enabled:      c.CircuitBreaker.Enabled,
			Threshold:    c.CircuitBreaker.Threshold,
			Window:       c.CircuitBreaker.WindowDuration,
			ResetTimeout: c.CircuitBreaker.ResetTimeout,
		},
	}
}
