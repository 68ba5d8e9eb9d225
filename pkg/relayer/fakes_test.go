package relayer

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/speedrun-hq/burn-relayer/pkg/chainclient"
	"github.com/speedrun-hq/burn-relayer/pkg/contracts"
	"github.com/speedrun-hq/burn-relayer/pkg/gelato"
	"github.com/speedrun-hq/burn-relayer/pkg/logger"
)

var (
	testLogger = &logger.EmptyLogger{}

	contractA = common.HexToAddress("0x1000000000000000000000000000000000000001")
	contractB = common.HexToAddress("0x2000000000000000000000000000000000000002")
	burner    = common.HexToAddress("0xABC0000000000000000000000000000000000001")
)

const (
	chainA int64 = 421614
	chainB int64 = 11155420
)

func hundredTokens() *big.Int {
	v, _ := new(big.Int).SetString("100000000000000000000", 10)
	return v
}

func burnLog(contract, from common.Address, amount *big.Int, block uint64, index uint) types.Log {
	return types.Log{
		Address:     contract,
		Topics:      []common.Hash{contracts.TokensBurnedTopic, common.BytesToHash(from.Bytes())},
		Data:        common.LeftPadBytes(amount.Bytes(), 32),
		BlockNumber: block,
		Index:       index,
		TxHash:      common.BigToHash(new(big.Int).SetUint64(block)),
	}
}

// fakeReader serves a fixed chain head and log set
type fakeReader struct {
	mu      sync.Mutex
	head    uint64
	logs    []types.Log
	headErr error
	logsErr error
	hang    bool
	queries []ethereum.FilterQuery
	closed  bool
}

func (f *fakeReader) BlockNumber(ctx context.Context) (uint64, error) {
	if f.hang {
		<-ctx.Done()
		return 0, ctx.Err()
	}
	return f.head, f.headErr
}

func (f *fakeReader) FilterLogs(_ context.Context, query ethereum.FilterQuery) ([]types.Log, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	if f.logsErr != nil {
		return nil, f.logsErr
	}
	logs := make([]types.Log, len(f.logs))
	copy(logs, f.logs)
	return logs, nil
}

func (f *fakeReader) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

// fakeDialer hands out readers per chain
type fakeDialer struct {
	mu      sync.Mutex
	readers map[int64]*fakeReader
	errs    map[int64]error
	dialed  []string
}

func newFakeDialer() *fakeDialer {
	return &fakeDialer{
		readers: make(map[int64]*fakeReader),
		errs:    make(map[int64]error),
	}
}

func (f *fakeDialer) Dial(_ context.Context, chainID int64, rpcURL string) (chainclient.Reader, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dialed = append(f.dialed, rpcURL)
	if err := f.errs[chainID]; err != nil {
		return nil, err
	}
	reader, ok := f.readers[chainID]
	if !ok {
		return nil, fmt.Errorf("no reader for chain %d", chainID)
	}
	return reader, nil
}

func (f *fakeDialer) dialCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.dialed)
}

// fakeTransport replays a sequence of errors, then succeeds
// With a delay set, each call takes that long unless ctx is cancelled first
type fakeTransport struct {
	mu        sync.Mutex
	errs      []error
	fail      error
	delay     time.Duration
	calls     []gelato.SponsoredCallRequest
	cancelled int
}

func (f *fakeTransport) SponsoredCall(ctx context.Context, req gelato.SponsoredCallRequest) (gelato.SponsoredCallResponse, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			f.mu.Lock()
			f.cancelled++
			f.calls = append(f.calls, req)
			f.mu.Unlock()
			return gelato.SponsoredCallResponse{}, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	i := len(f.calls)
	f.calls = append(f.calls, req)
	if i < len(f.errs) && f.errs[i] != nil {
		return gelato.SponsoredCallResponse{}, f.errs[i]
	}
	if f.fail != nil {
		return gelato.SponsoredCallResponse{}, f.fail
	}
	return gelato.SponsoredCallResponse{TaskID: fmt.Sprintf("0xtask%d", i)}, nil
}

func (f *fakeTransport) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeTransport) cancelledCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cancelled
}

func (f *fakeTransport) requests() []gelato.SponsoredCallRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]gelato.SponsoredCallRequest(nil), f.calls...)
}

func tooManyRequests() error {
	return &gelato.APIError{StatusCode: 429, Message: "Too many requests"}
}

// recordingTimer fires immediately and records the requested delays
type recordingTimer struct {
	mu     sync.Mutex
	delays []time.Duration
	c      chan time.Time
}

func (r *recordingTimer) Start(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delays = append(r.delays, d)
	r.c = make(chan time.Time, 1)
	r.c <- time.Time{}
}

func (r *recordingTimer) Stop() {}

func (r *recordingTimer) C() <-chan time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.c
}

func (r *recordingTimer) recorded() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.delays...)
}
