package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/speedrun-hq/burn-relayer/pkg/chainclient"
	"github.com/speedrun-hq/burn-relayer/pkg/config"
	"github.com/speedrun-hq/burn-relayer/pkg/gelato"
	"github.com/speedrun-hq/burn-relayer/pkg/health"
	"github.com/speedrun-hq/burn-relayer/pkg/ledger"
	"github.com/speedrun-hq/burn-relayer/pkg/logger"
	"github.com/speedrun-hq/burn-relayer/pkg/models"
	"github.com/speedrun-hq/burn-relayer/pkg/relayer"
	"github.com/urfave/cli/v2"
)

var (
	Version = "0.1.0"
)

var logFlag = &cli.StringFlag{
	Name:     "log",
	Usage:    "JSON-encoded TokensBurned log, or - to read from stdin",
	Required: true,
}

var chainIDFlag = &cli.Int64Flag{
	Name:  "chain-id",
	Usage: "Chain the log was emitted on (defaults to SOURCE_CHAIN_ID)",
}

var runCommand = cli.Command{
	Name:   "run",
	Usage:  "poll both chains once and relay the burns found",
	Action: runCmd,
}

var pushCommand = cli.Command{
	Name:   "push",
	Usage:  "relay a single burn log",
	Flags:  []cli.Flag{logFlag, chainIDFlag},
	Action: pushCmd,
}

var daemonCommand = cli.Command{
	Name:   "daemon",
	Usage:  "poll periodically and serve health and metrics",
	Action: daemonCmd,
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "burn-relayer"
	app.Usage = "Mint on the paired chain for every TokensBurned event, via the Gelato sponsored-call relay"
	app.Version = Version
	app.Commands = []*cli.Command{
		&runCommand,
		&pushCommand,
		&daemonCommand,
	}
	return app
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// relayerEnv is what every command needs to run the processor
type relayerEnv struct {
	cfg       *config.Config
	logger    logger.Logger
	ledger    ledger.Ledger
	processor *relayer.Processor
}

func setup() (*relayerEnv, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger := logger.NewStdLogger(cfg.LoggerConfig.Coloring, cfg.LoggerConfig.Level)

	var l ledger.Ledger = ledger.NewMemory()
	if cfg.LedgerPath != "" {
		l, err = ledger.OpenBadger(cfg.LedgerPath)
		if err != nil {
			return nil, err
		}
		appLogger.Info("Using persistent ledger at %s", cfg.LedgerPath)
	}

	transport := gelato.New(cfg.GelatoEndpoint, appLogger)
	processor := relayer.NewProcessor(chainclient.EthDialer{}, transport, l, cfg.ProcessorOptions(), appLogger)

	return &relayerEnv{
		cfg:       cfg,
		logger:    appLogger,
		ledger:    l,
		processor: processor,
	}, nil
}

func (e *relayerEnv) close() {
	if err := e.ledger.Close(); err != nil {
		e.logger.Error("Failed to close ledger: %v", err)
	}
}

// signalContext is cancelled on SIGINT/SIGTERM
func signalContext(appLogger logger.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-signalCh:
			appLogger.Info("Received termination signal, shutting down gracefully...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(signalCh)
	}()

	return ctx, cancel
}

// runOnce executes one invocation and prints its result as JSON
func runOnce(c *cli.Context, env *relayerEnv, inv models.Invocation) error {
	ctx, cancel := signalContext(env.logger)
	defer cancel()

	result, err := env.processor.Run(ctx, inv)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	out, err := json.Marshal(result)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer, string(out))
	return err
}

func runCmd(c *cli.Context) error {
	env, err := setup()
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	defer env.close()

	return runOnce(c, env, env.cfg.Invocation())
}

func pushCmd(c *cli.Context) error {
	env, err := setup()
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	defer env.close()

	burnLog, err := readLog(c.String(logFlag.Name), c.App.Reader)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	inv := env.cfg.Invocation()
	inv.Log = burnLog
	if c.IsSet(chainIDFlag.Name) {
		inv.GelatoArgs = &models.GelatoArgs{ChainID: c.Int64(chainIDFlag.Name)}
	}
	return runOnce(c, env, inv)
}

// readLog decodes a JSON log from path, or from stdin when path is -
func readLog(path string, stdin io.Reader) (*types.Log, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read log: %w", err)
	}

	var burnLog types.Log
	if err := json.Unmarshal(data, &burnLog); err != nil {
		return nil, fmt.Errorf("failed to decode log: %w", err)
	}
	return &burnLog, nil
}

func daemonCmd(c *cli.Context) error {
	env, err := setup()
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	defer env.close()

	ctx, cancel := signalContext(env.logger)
	defer cancel()

	service := relayer.NewService(env.processor, env.cfg.Invocation(), env.cfg.PollingInterval, env.logger)

	healthServer := health.NewServer(env.cfg.MetricsPort, service, env.cfg.MetricsAPIKey, env.logger)
	go func() {
		if err := healthServer.Start(ctx); err != nil {
			env.logger.Error("%v", err)
		}
	}()

	env.logger.Info("Starting the relayer service...")
	service.Start(ctx)
	return nil
}
