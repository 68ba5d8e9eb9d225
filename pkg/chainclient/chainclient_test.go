package chainclient

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rpcRequest struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

// newRPCServer serves a minimal JSON-RPC endpoint answering from results keyed by method
func newRPCServer(t *testing.T, results map[string]interface{}, seen *[]rpcRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if seen != nil {
			*seen = append(*seen, req)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  results[req.Method],
		})
	}))
}

func TestDialRequiresURL(t *testing.T) {
	_, err := Dial(context.Background(), 421614, "")
	assert.Error(t, err)
}

func TestClientBlockNumber(t *testing.T) {
	server := newRPCServer(t, map[string]interface{}{"eth_blockNumber": "0x1f4"}, nil)
	defer server.Close()

	client, err := Dial(context.Background(), 421614, server.URL)
	require.NoError(t, err)
	defer client.Close()

	block, err := client.BlockNumber(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(500), block)
}

func TestClientFilterLogs(t *testing.T) {
	var seen []rpcRequest
	server := newRPCServer(t, map[string]interface{}{"eth_getLogs": []interface{}{}}, &seen)
	defer server.Close()

	var dialer Dialer = EthDialer{}
	reader, err := dialer.Dial(context.Background(), 421614, server.URL)
	require.NoError(t, err)
	defer reader.Close()

	contract := common.HexToAddress("0x1000000000000000000000000000000000000001")
	logs, err := reader.FilterLogs(context.Background(), ethereum.FilterQuery{
		FromBlock: big.NewInt(0),
		ToBlock:   big.NewInt(500),
		Addresses: []common.Address{contract},
	})
	require.NoError(t, err)
	assert.Empty(t, logs)

	require.Len(t, seen, 1)
	assert.Equal(t, "eth_getLogs", seen[0].Method)
	assert.Contains(t, string(seen[0].Params[0]), "0x1f4")
}

func TestClientNotConnected(t *testing.T) {
	client := &Client{ChainID: 1}

	_, err := client.BlockNumber(context.Background())
	assert.Error(t, err)

	_, err = client.FilterLogs(context.Background(), ethereum.FilterQuery{})
	assert.Error(t, err)

	// closing an unconnected client is a no-op
	client.Close()
}
