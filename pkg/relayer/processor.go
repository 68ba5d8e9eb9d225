package relayer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/speedrun-hq/burn-relayer/pkg/chainclient"
	"github.com/speedrun-hq/burn-relayer/pkg/chains"
	"github.com/speedrun-hq/burn-relayer/pkg/circuitbreaker"
	"github.com/speedrun-hq/burn-relayer/pkg/ledger"
	"github.com/speedrun-hq/burn-relayer/pkg/logger"
	"github.com/speedrun-hq/burn-relayer/pkg/metrics"
	"github.com/speedrun-hq/burn-relayer/pkg/models"
	"golang.org/x/sync/errgroup"
)

// Run result messages
const (
	MessageProcessed     = "Processed events and relayed transactions"
	MessageMissingAPIKey = "GELATO_API_KEY not set in secrets"
	// MessageMissingDedicatedAddress is reported when RequireDedicatedAddress is set and none is given
	MessageMissingDedicatedAddress = "Dedicated address not set in secrets or user args"
	messageErrorPrefix             = "Error occurred: "
)

// DefaultRunTimeout is the wall-clock budget of one invocation
const DefaultRunTimeout = 2 * time.Minute

// amounts are logged in whole tokens of the bridged 18-decimal token
const tokenDecimals = 18

type runState string

const (
	stateFetching    runState = "fetching"
	stateResolving   runState = "resolving"
	stateEncoding    runState = "encoding"
	stateDispatching runState = "dispatching"
	stateDone        runState = "done"
)

// BreakerConfig configures the per-destination circuit breakers
type BreakerConfig struct {
	Enabled      bool
	Threshold    int
	Window       time.Duration
	ResetTimeout time.Duration
}

// Options configures a Processor
type Options struct {
	Lookback             uint64
	Selection            SelectionPolicy
	RoutePolicy          RoutePolicy
	Retry                RetryConfig
	RunTimeout           time.Duration
	ConcurrentDirections bool
	CircuitBreaker       BreakerConfig
	// RequireDedicatedAddress skips the run unless the invocation names the minting address
	RequireDedicatedAddress bool
}

// Processor runs one relayer invocation: detect burns, route them and hand the mints to the relay
type Processor struct {
	dialer     chainclient.Dialer
	dispatcher *Dispatcher
	source     *EventSource
	ledger     ledger.Ledger
	opts       Options
	logger     logger.Logger

	mu       sync.Mutex
	breakers map[int64]*circuitbreaker.CircuitBreaker
}

// NewProcessor creates a processor. A nil ledger keeps relayed keys in memory.
func NewProcessor(dialer chainclient.Dialer, transport Transport, l ledger.Ledger, opts Options, log logger.Logger) *Processor {
	if l == nil {
		l = ledger.NewMemory()
	}
	if opts.RunTimeout <= 0 {
		opts.RunTimeout = DefaultRunTimeout
	}
	if opts.RoutePolicy == "" {
		opts.RoutePolicy = RoutePolicyFallback
	}

	source := NewEventSource(opts.Lookback, opts.Selection, log)
	opts.Lookback = source.Lookback
	opts.Selection = source.Selection

	log.Info("Relayer processor: route policy %s, event selection %s, lookback %d blocks",
		opts.RoutePolicy, opts.Selection, opts.Lookback)

	return &Processor{
		dialer:     dialer,
		dispatcher: NewDispatcher(transport, opts.Retry, log),
		source:     source,
		ledger:     l,
		opts:       opts,
		logger:     log,
		breakers:   make(map[int64]*circuitbreaker.CircuitBreaker),
	}
}

// Breaker returns the circuit breaker guarding hand-offs to chainID
func (p *Processor) Breaker(chainID int64) *circuitbreaker.CircuitBreaker {
	p.mu.Lock()
	defer p.mu.Unlock()

	cb, ok := p.breakers[chainID]
	if !ok {
		cfg := p.opts.CircuitBreaker
		cb = circuitbreaker.NewCircuitBreaker(chainID, cfg.Enabled, cfg.Threshold, cfg.Window, cfg.ResetTimeout, p.logger)
		p.breakers[chainID] = cb
	}
	return cb
}

// Breakers returns all circuit breakers ordered by chain id
func (p *Processor) Breakers() []*circuitbreaker.CircuitBreaker {
	p.mu.Lock()
	defer p.mu.Unlock()

	list := make([]*circuitbreaker.CircuitBreaker, 0, len(p.breakers))
	for _, cb := range p.breakers {
		list = append(list, cb)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ChainID() < list[j].ChainID() })
	return list
}

// relayFailure is one failed hand-off reported in the run message
type relayFailure struct {
	chainID int64
	reason  string
}

func (f relayFailure) String() string {
	return fmt.Sprintf("%d: %s", f.chainID, f.reason)
}

// runTracker holds the state shared by the directions of one run
type runTracker struct {
	mu      sync.Mutex
	relayed map[string]bool
}

func (t *runTracker) seen(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.relayed[key]
}

func (t *runTracker) mark(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.relayed[key] = true
}

// Run executes one invocation. Only *ConfigurationError and *DecodeError are returned as errors;
// every other problem is reported in the result message.
func (p *Processor) Run(ctx context.Context, inv models.Invocation) (models.RunResult, error) {
	mode := "poll"
	if inv.IsPush() {
		mode = "push"
	}
	start := time.Now()
	defer func() {
		metrics.RunDuration.Observe(time.Since(start).Seconds())
	}()

	if inv.Secrets.GelatoAPIKey == "" {
		p.logger.Error("Gelato API key missing, nothing relayed")
		metrics.Runs.WithLabelValues(mode, "skipped").Inc()
		return models.RunResult{CanExec: false, Message: MessageMissingAPIKey}, nil
	}

	if dedicated := inv.DedicatedAddress(); dedicated != "" {
		p.logger.Debug("Dedicated address: %s", dedicated)
	} else if p.opts.RequireDedicatedAddress {
		p.logger.Error("Dedicated address missing, nothing relayed")
		metrics.Runs.WithLabelValues(mode, "skipped").Inc()
		return models.RunResult{CanExec: false, Message: MessageMissingDedicatedAddress}, nil
	}

	runCtx, cancel := context.WithTimeout(ctx, p.opts.RunTimeout)
	defer cancel()

	var (
		failures []relayFailure
		err      error
	)
	if inv.IsPush() {
		failures, err = p.runPush(runCtx, inv)
	} else {
		failures, err = p.runPoll(runCtx, inv)
	}

	var cfgErr *ConfigurationError
	var decErr *DecodeError
	if errors.As(err, &cfgErr) || errors.As(err, &decErr) {
		p.logger.Error("Run aborted: %v", err)
		metrics.Runs.WithLabelValues(mode, "fatal").Inc()
		return models.RunResult{}, err
	}

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		p.logger.Error("Run exceeded time budget of %v", p.opts.RunTimeout)
		metrics.Runs.WithLabelValues(mode, "timeout").Inc()
		return models.RunResult{
			CanExec: false,
			Message: fmt.Sprintf("%srun exceeded time budget of %v", messageErrorPrefix, p.opts.RunTimeout),
		}, nil
	}

	if err != nil {
		p.logger.Error("Run failed: %v", err)
		metrics.Runs.WithLabelValues(mode, "error").Inc()
		return models.RunResult{CanExec: false, Message: messageErrorPrefix + err.Error()}, nil
	}

	if len(failures) > 0 {
		reasons := make([]string, len(failures))
		for i, f := range failures {
			reasons[i] = f.String()
		}
		metrics.Runs.WithLabelValues(mode, "relay_failed").Inc()
		return models.RunResult{
			CanExec: false,
			Message: fmt.Sprintf("Processed events with %d failed relay(s): %s", len(failures), strings.Join(reasons, "; ")),
		}, nil
	}

	p.logger.Debug("State: %s", stateDone)
	metrics.Runs.WithLabelValues(mode, "ok").Inc()
	return models.RunResult{CanExec: false, Message: MessageProcessed}, nil
}

// parseContract validates an optional contract address
func parseContract(name, value string) (common.Address, error) {
	if value == "" {
		return common.Address{}, nil
	}
	if !common.IsHexAddress(value) {
		return common.Address{}, &ConfigurationError{Reason: fmt.Sprintf("%s is not a valid address: %s", name, value)}
	}
	return common.HexToAddress(value), nil
}

func (p *Processor) resolver(args models.UserArgs) (*RouteResolver, error) {
	sourceContract, err := parseContract("source contract address", args.SourceContractAddress)
	if err != nil {
		return nil, err
	}
	destContract, err := parseContract("destination contract address", args.DestContractAddress)
	if err != nil {
		return nil, err
	}

	return NewRouteResolver(
		ChainEndpoint{ChainID: args.SourceChainID, Contract: sourceContract},
		ChainEndpoint{ChainID: args.DestChainID, Contract: destContract},
		p.opts.RoutePolicy,
		p.logger,
	)
}

func (p *Processor) runPush(ctx context.Context, inv models.Invocation) ([]relayFailure, error) {
	sourceChainID := inv.UserArgs.SourceChainID
	if inv.GelatoArgs != nil && inv.GelatoArgs.ChainID != 0 {
		sourceChainID = inv.GelatoArgs.ChainID
	}

	event, err := p.source.Decode(*inv.Log, sourceChainID)
	if err != nil {
		return nil, err
	}
	p.logger.InfoWithChain(sourceChainID, "Burn pushed: %s burned %s tokens", event.From.Hex(), event.FormattedAmount(tokenDecimals))

	resolver, err := p.resolver(inv.UserArgs)
	if err != nil {
		return nil, err
	}

	// poll mode only sees logs of the configured contracts, push mode must match that
	if ep, ok := resolver.Endpoint(sourceChainID); ok && ep.Contract != (common.Address{}) && inv.Log.Address != ep.Contract {
		return nil, &DecodeError{
			ChainID: sourceChainID,
			Err:     fmt.Errorf("%w: got %s, want %s", ErrUnexpectedEmitter, inv.Log.Address.Hex(), ep.Contract.Hex()),
		}
	}

	p.logger.DebugWithChain(sourceChainID, "State: %s", stateResolving)
	route, _, err := resolver.Resolve(sourceChainID)
	if err != nil {
		return []relayFailure{{chainID: sourceChainID, reason: err.Error()}}, nil
	}
	if route.DestinationContract == (common.Address{}) {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("no contract address for destination chain %d", route.DestinationChainID)}
	}

	tracker := &runTracker{relayed: make(map[string]bool)}
	if f := p.relayEvent(ctx, event, route, inv.Secrets.GelatoAPIKey, tracker); f != nil {
		return []relayFailure{*f}, nil
	}
	return nil, nil
}

type direction struct {
	chainID  int64
	rpcURL   string
	contract common.Address
}

func (p *Processor) runPoll(ctx context.Context, inv models.Invocation) ([]relayFailure, error) {
	args := inv.UserArgs
	if args.SourceContractAddress == "" {
		return nil, &ConfigurationError{Reason: "source contract address is not set"}
	}
	if args.DestContractAddress == "" {
		return nil, &ConfigurationError{Reason: "destination contract address is not set"}
	}

	resolver, err := p.resolver(args)
	if err != nil {
		return nil, err
	}

	directions := []direction{
		{chainID: resolver.A.ChainID, rpcURL: rpcURLOrDefault(args.SourceRPCURL, resolver.A.ChainID), contract: resolver.A.Contract},
		{chainID: resolver.B.ChainID, rpcURL: rpcURLOrDefault(args.DestRPCURL, resolver.B.ChainID), contract: resolver.B.Contract},
	}

	tracker := &runTracker{relayed: make(map[string]bool)}
	results := make([][]relayFailure, len(directions))

	if p.opts.ConcurrentDirections {
		// a failing direction must not cancel hand-offs already in flight on the other one
		var g errgroup.Group
		for i, dir := range directions {
			i, dir := i, dir
			g.Go(func() error {
				failures, err := p.processDirection(ctx, dir, resolver, inv.Secrets.GelatoAPIKey, tracker)
				results[i] = failures
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i, dir := range directions {
			failures, err := p.processDirection(ctx, dir, resolver, inv.Secrets.GelatoAPIKey, tracker)
			if err != nil {
				return nil, err
			}
			results[i] = failures
		}
	}

	var failures []relayFailure
	for _, r := range results {
		failures = append(failures, r...)
	}
	return failures, nil
}

func rpcURLOrDefault(url string, chainID int64) string {
	if url != "" {
		return url
	}
	return chains.GetDefaultRPCURL(chainID)
}

// processDirection relays the burns found on one chain of the pair
// A returned error means the source chain could not be read
func (p *Processor) processDirection(ctx context.Context, dir direction, resolver *RouteResolver, apiKey string, tracker *runTracker) ([]relayFailure, error) {
	p.logger.DebugWithChain(dir.chainID, "State: %s", stateFetching)

	reader, err := p.dialer.Dial(ctx, dir.chainID, dir.rpcURL)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	events, err := p.source.Poll(ctx, reader, dir.chainID, dir.contract)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		p.logger.DebugWithChain(dir.chainID, "No burns found")
		return nil, nil
	}

	var failures []relayFailure
	for _, event := range events {
		p.logger.InfoWithChain(dir.chainID, "Burn found in block %d: %s burned %s tokens",
			event.BlockNumber, event.From.Hex(), event.FormattedAmount(tokenDecimals))

		p.logger.DebugWithChain(dir.chainID, "State: %s", stateResolving)
		route, _, err := resolver.Resolve(event.SourceChainID)
		if err != nil {
			failures = append(failures, relayFailure{chainID: event.SourceChainID, reason: err.Error()})
			continue
		}

		if f := p.relayEvent(ctx, event, route, apiKey, tracker); f != nil {
			failures = append(failures, *f)
		}
	}
	return failures, nil
}

// relayEvent hands one routed burn to the relay unless it was already relayed
func (p *Processor) relayEvent(ctx context.Context, event models.BurnEvent, route models.ChainRoute, apiKey string, tracker *runTracker) *relayFailure {
	key := event.Key()
	dest := route.DestinationChainID

	if tracker.seen(key) {
		p.skipDuplicate(event)
		return nil
	}
	seen, err := p.ledger.Seen(key)
	if err != nil {
		return &relayFailure{chainID: dest, reason: fmt.Sprintf("ledger read failed: %v", err)}
	}
	if seen {
		p.skipDuplicate(event)
		return nil
	}

	p.logger.DebugWithChain(dest, "State: %s", stateEncoding)
	intent, err := BuildIntent(route, event)
	if err != nil {
		return &relayFailure{chainID: dest, reason: err.Error()}
	}

	breaker := p.Breaker(dest)
	if breaker.IsOpen() {
		p.logger.NoticeWithChain(dest, "Circuit open, not relaying %s", key)
		metrics.CircuitOpenSkips.WithLabelValues(strconv.FormatInt(dest, 10)).Inc()
		return &relayFailure{chainID: dest, reason: "circuit breaker open"}
	}

	p.logger.DebugWithChain(dest, "State: %s", stateDispatching)
	outcome := p.dispatcher.Dispatch(ctx, intent, apiKey)
	if !outcome.Success {
		breaker.RecordFailure()
		return &relayFailure{chainID: dest, reason: outcome.ErrorMessage}
	}

	breaker.RecordSuccess()
	tracker.mark(key)
	if err := p.ledger.Mark(key, outcome.TaskID); err != nil {
		p.logger.ErrorWithChain(dest, "Failed to record relay of %s: %v", key, err)
	}
	return nil
}

func (p *Processor) skipDuplicate(event models.BurnEvent) {
	p.logger.DebugWithChain(event.SourceChainID, "Burn %s already relayed, skipping", event.Key())
	metrics.DuplicatesSkipped.WithLabelValues(strconv.FormatInt(event.SourceChainID, 10)).Inc()
}
