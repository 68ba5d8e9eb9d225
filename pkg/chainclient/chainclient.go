package chainclient

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// DefaultRequestTimeout bounds a single RPC call when the caller's context has no deadline
const DefaultRequestTimeout = 30 * time.Second

// Client contains the read-only RPC connection to a specific blockchain
type Client struct {
	ChainID int64
	RPCURL  string
	Client  *ethclient.Client
}

// Dial connects to the chain at rpcURL
func Dial(ctx context.Context, chainID int64, rpcURL string) (*Client, error) {
	if rpcURL == "" {
		return nil, fmt.Errorf("no RPC URL for chain %d", chainID)
	}

	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to chain %d: %w", chainID, err)
	}

	return &Client{
		ChainID: chainID,
		RPCURL:  rpcURL,
		Client:  client,
	}, nil
}

// BlockNumber gets the latest block number from the chain
func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	if c.Client == nil {
		return 0, fmt.Errorf("client not connected")
	}

	ctx, cancel := withDefaultTimeout(ctx)
	defer cancel()

	return c.Client.BlockNumber(ctx)
}

// FilterLogs executes a log filter query against the chain
func (c *Client) FilterLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error) {
	if c.Client == nil {
		return nil, fmt.Errorf("client not connected")
	}

	ctx, cancel := withDefaultTimeout(ctx)
	defer cancel()

	return c.Client.FilterLogs(ctx, query)
}

// Close releases the underlying RPC connection
func (c *Client) Close() {
	if c.Client != nil {
		c.Client.Close()
	}
}

func withDefaultTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, DefaultRequestTimeout)
}

// Reader is the read-only chain access the relayer needs
type Reader interface {
	BlockNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error)
	Close()
}

// Dialer opens a Reader for a chain
type Dialer interface {
	Dial(ctx context.Context, chainID int64, rpcURL string) (Reader, error)
}

// EthDialer dials chains over JSON-RPC with ethclient
type EthDialer struct{}

// Dial implements Dialer
func (EthDialer) Dial(ctx context.Context, chainID int64, rpcURL string) (Reader, error) {
	return Dial(ctx, chainID, rpcURL)
}
