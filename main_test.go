package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/speedrun-hq/burn-relayer/pkg/contracts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleLog() types.Log {
	return types.Log{
		Address:     common.HexToAddress("0x1000000000000000000000000000000000000001"),
		Topics:      []common.Hash{contracts.TokensBurnedTopic, common.HexToHash("0xABC0000000000000000000000000000000000001")},
		Data:        common.LeftPadBytes([]byte{0x01}, 32),
		BlockNumber: 500,
		TxHash:      common.HexToHash("0x01"),
		Index:       3,
	}
}

func TestReadLog(t *testing.T) {
	data, err := json.Marshal(sampleLog())
	require.NoError(t, err)

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "log.json")
		require.NoError(t, os.WriteFile(path, data, 0o600))

		got, err := readLog(path, nil)
		require.NoError(t, err)
		assert.Equal(t, uint64(500), got.BlockNumber)
		assert.Equal(t, uint(3), got.Index)
		assert.Equal(t, contracts.TokensBurnedTopic, got.Topics[0])
	})

	t.Run("stdin", func(t *testing.T) {
		got, err := readLog("-", bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, sampleLog().Address, got.Address)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := readLog(filepath.Join(t.TempDir(), "nope.json"), nil)
		assert.Error(t, err)
	})

	t.Run("invalid json", func(t *testing.T) {
		_, err := readLog("-", strings.NewReader(`{"address":`))
		assert.Error(t, err)
	})
}

func TestAppCommands(t *testing.T) {
	app := newApp()

	names := make([]string, 0, len(app.Commands))
	for _, cmd := range app.Commands {
		names = append(names, cmd.Name)
	}
	assert.Equal(t, []string{"run", "push", "daemon"}, names)
}
