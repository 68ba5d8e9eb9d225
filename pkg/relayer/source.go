package relayer

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"strconv"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/speedrun-hq/burn-relayer/pkg/contracts"
	"github.com/speedrun-hq/burn-relayer/pkg/logger"
	"github.com/speedrun-hq/burn-relayer/pkg/metrics"
	"github.com/speedrun-hq/burn-relayer/pkg/models"
)

// DefaultLookbackBlocks is how far back from the chain head a poll looks for burns
const DefaultLookbackBlocks uint64 = 10000

// SelectionPolicy decides which of the burns found in one poll are forwarded
type SelectionPolicy string

const (
	// SelectLatest forwards only the most recent burn of the window
	SelectLatest SelectionPolicy = "latest"
	// SelectAll forwards every burn of the window, oldest first
	SelectAll SelectionPolicy = "all"
)

// ParseSelectionPolicy converts a configuration value into a SelectionPolicy
func ParseSelectionPolicy(s string) (SelectionPolicy, error) {
	switch SelectionPolicy(s) {
	case "", SelectLatest:
		return SelectLatest, nil
	case SelectAll:
		return SelectAll, nil
	}
	return "", fmt.Errorf("unknown event selection policy: %s", s)
}

// LogReader is the read-only chain access needed to poll for burns
type LogReader interface {
	BlockNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error)
}

// EventSource finds TokensBurned events on a source chain
type EventSource struct {
	Lookback  uint64
	Selection SelectionPolicy
	logger    logger.Logger
}

// NewEventSource creates an event source, applying defaults for zero values
func NewEventSource(lookback uint64, selection SelectionPolicy, log logger.Logger) *EventSource {
	if lookback == 0 {
		lookback = DefaultLookbackBlocks
	}
	if selection == "" {
		selection = SelectLatest
	}
	return &EventSource{
		Lookback:  lookback,
		Selection: selection,
		logger:    log,
	}
}

// Poll returns the burns on contract within the lookback window, filtered by the selection policy
func (s *EventSource) Poll(ctx context.Context, reader LogReader, chainID int64, contract common.Address) ([]models.BurnEvent, error) {
	latest, err := reader.BlockNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest block on chain %d: %w", chainID, err)
	}

	var fromBlock uint64
	if latest > s.Lookback {
		fromBlock = latest - s.Lookback
	}

	logs, err := reader.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		ToBlock:   new(big.Int).SetUint64(latest),
		Addresses: []common.Address{contract},
		Topics:    [][]common.Hash{{contracts.TokensBurnedTopic}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query burn logs on chain %d: %w", chainID, err)
	}

	s.logger.DebugWithChain(chainID, "Queried blocks %d-%d, %d logs", fromBlock, latest, len(logs))

	chainLabel := strconv.FormatInt(chainID, 10)
	events := make([]models.BurnEvent, 0, len(logs))
	for _, log := range logs {
		if log.Removed {
			continue
		}
		event, err := s.Decode(log, chainID)
		if err != nil {
			s.logger.NoticeWithChain(chainID, "Skipping log %s:%d: %v", log.TxHash.Hex(), log.Index, err)
			metrics.EventsDropped.WithLabelValues(chainLabel, "malformed").Inc()
			continue
		}
		events = append(events, event)
	}

	if len(events) == 0 {
		return []models.BurnEvent{}, nil
	}
	metrics.EventsFound.WithLabelValues(chainLabel).Add(float64(len(events)))

	sort.SliceStable(events, func(i, j int) bool {
		if events[i].BlockNumber != events[j].BlockNumber {
			return events[i].BlockNumber > events[j].BlockNumber
		}
		return events[i].LogIndex > events[j].LogIndex
	})

	switch s.Selection {
	case SelectAll:
		for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
			events[i], events[j] = events[j], events[i]
		}
		return events, nil
	default:
		if dropped := len(events) - 1; dropped > 0 {
			s.logger.InfoWithChain(chainID, "Found %d burns, forwarding only the latest", len(events))
			metrics.EventsDropped.WithLabelValues(chainLabel, "superseded").Add(float64(dropped))
		}
		return events[:1], nil
	}
}

// Decode turns a single TokensBurned log into a BurnEvent
func (s *EventSource) Decode(log types.Log, chainID int64) (models.BurnEvent, error) {
	from, amount, err := contracts.DecodeTokensBurned(log)
	if err != nil {
		return models.BurnEvent{}, &DecodeError{ChainID: chainID, Err: err}
	}

	return models.BurnEvent{
		SourceChainID: chainID,
		From:          from,
		Amount:        amount,
		BlockNumber:   log.BlockNumber,
		LogIndex:      log.Index,
		TxHash:        log.TxHash,
	}, nil
}
