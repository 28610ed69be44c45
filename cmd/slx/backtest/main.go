// Command backtest drives the pipeline from recorded history, a journal
// replay, a binary capture file or a duckdb database, and prints the
// audit report at the end.
//
// Replaying a journal feeds the recorded QUOTE and SIGNAL events back in,
// so the strategy stays unplugged and the pipeline regenerates the
// derived events from the recorded inputs.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/peter-kozarec/solstice/cmd/slx"
	"github.com/peter-kozarec/solstice/cmd/slx/advisor"
	"github.com/peter-kozarec/solstice/internal/config"
	"github.com/peter-kozarec/solstice/internal/dbg"
	"github.com/peter-kozarec/solstice/pkg/audit"
	"github.com/peter-kozarec/solstice/pkg/bus"
	"github.com/peter-kozarec/solstice/pkg/common"
	"github.com/peter-kozarec/solstice/pkg/data/duckdb"
	"github.com/peter-kozarec/solstice/pkg/datasource"
	"github.com/peter-kozarec/solstice/pkg/datasource/capture"
	"github.com/peter-kozarec/solstice/pkg/execution"
	"github.com/peter-kozarec/solstice/pkg/journal"
	"github.com/peter-kozarec/solstice/pkg/middleware"
	"github.com/peter-kozarec/solstice/pkg/order"
	"github.com/peter-kozarec/solstice/pkg/portfolio"
	"github.com/peter-kozarec/solstice/pkg/risk"
	"github.com/peter-kozarec/solstice/pkg/tools/bar"
	"github.com/peter-kozarec/solstice/pkg/utility"
)

// farFuture stands in for an unset to_ms bound.
const farFuture = common.Millis(4_102_444_800_000) // 2100-01-01T00:00:00Z

func main() {
	configPath := flag.String("config", "", "path to yaml configuration")
	replayPath := flag.String("replay", "", "journal file to replay instead of a data source")
	flag.Parse()

	logger := dbg.NewLogger(Env)
	defer func() {
		_ = logger.Sync()
	}()
	dbg.SetupSlog(LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info(fmt.Sprintf("slx backtest %s", slx.Version),
		zap.String("run_id", utility.GetExecutionID().String()))
	defer logger.Info("done")

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logger.Fatal("unable to load configuration", zap.Error(err))
	}

	slippage, err := cfg.Execution.Slippage()
	if err != nil {
		logger.Fatal("unable to parse slippage", zap.Error(err))
	}
	fee, err := cfg.Execution.Fee()
	if err != nil {
		logger.Fatal("unable to parse fee", zap.Error(err))
	}
	cash, err := cfg.Account.Cash()
	if err != nil {
		logger.Fatal("unable to parse initial cash", zap.Error(err))
	}

	journalPath := cfg.Journal.Path
	if journalPath == "" {
		journalPath = DefaultJournalPath
	}
	if journalPath == *replayPath {
		logger.Fatal("journal path equals replay path", zap.String("path", journalPath))
	}
	writer, err := journal.NewWriter(journalPath)
	if err != nil {
		logger.Fatal("unable to open journal", zap.String("path", journalPath), zap.Error(err))
	}
	defer func() {
		_ = writer.Close()
	}()

	router := bus.NewRouter()
	telemetry := middleware.NewTelemetry(logger)
	latency := middleware.NewLatency(logger)
	monitor := middleware.NewMonitor(MonitorFlags)

	orderManager := order.NewManager(router, common.Quantity(cfg.Pipeline.DefaultOrderQty))
	riskEngine := risk.NewEngine(router,
		common.Quantity(cfg.Risk.MaxOrderQty),
		common.Quantity(cfg.Risk.MaxPositionQty))
	simulator := execution.NewSimulator(router,
		execution.WithSlippageBps(slippage),
		execution.WithFeePerShare(fee),
		execution.WithPriceDigits(cfg.Execution.PriceDigits))
	aggregator := bar.NewAggregator(router, common.Millis(cfg.Pipeline.BarDurationMs))
	tracker := portfolio.NewTracker(router, cash, common.Count(cfg.Pipeline.SnapshotEvery))
	auditor := audit.NewAuditor(common.Millis(cfg.Audit.MinSnapshotIntervalMs))

	// The journal writer goes first so the journal reflects delivery order.
	// Telemetry and monitor wrap it because it is the one handler that sees
	// every event exactly once.
	var lastTs common.Millis
	handlers := []bus.Handler{
		middleware.Chain(telemetry.With, monitor.With)(writer.OnEvent),
		func(_ context.Context, e common.Event) {
			if e.TimeStamp > lastTs {
				lastTs = e.TimeStamp
			}
		},
	}
	if *replayPath == "" {
		strategy := advisor.NewStrategy(router,
			cfg.Strategy.FastWindow,
			cfg.Strategy.SlowWindow,
			common.Quantity(cfg.Strategy.OrderQty))
		handlers = append(handlers, latency.With("strategy", strategy.OnEvent))
	}
	handlers = append(handlers,
		latency.With("order_manager", orderManager.OnEvent),
		latency.With("risk_engine", riskEngine.OnEvent),
		latency.With("execution", simulator.OnEvent),
		latency.With("bar_aggregator", aggregator.OnEvent),
		latency.With("portfolio", tracker.OnEvent),
		auditor.OnEvent,
	)
	router.Subscribe(handlers...)

	defer router.PrintStatistics()
	defer telemetry.PrintStatistics()
	defer latency.PrintStatistics()

	var runErr error
	if *replayPath != "" {
		runErr = journal.Replay(ctx, router, *replayPath, common.TypeQuote, common.TypeSignal)
	} else {
		source, cleanup, err := newQuoteSource(cfg)
		if err != nil {
			logger.Fatal("unable to open quote source", zap.Error(err))
		}
		defer cleanup()
		runErr = datasource.Run(ctx, router, source)
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		logger.Error("backtest aborted", zap.Error(runErr))
	}

	if lastTs != 0 {
		aggregator.Flush(ctx, lastTs)
		tracker.FlushState(ctx, lastTs)
	}

	auditor.GenerateReport().Print(logger)
}

func loadConfig(path string) (*config.Config, error) {
	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newQuoteSource picks the quote source by configuration precedence,
// duckdb first, then a binary capture file. The returned cleanup releases
// whatever the source opened.
func newQuoteSource(cfg *config.Config) (datasource.EventSource, func(), error) {
	from := common.Millis(cfg.Data.FromMs)
	to := common.Millis(cfg.Data.ToMs)
	if to == 0 {
		to = farFuture
	}

	switch {
	case cfg.Data.DuckDBPath != "":
		reader := duckdb.NewReader(cfg.Data.DuckDBPath)
		if err := reader.Connect(); err != nil {
			return nil, nil, err
		}
		source := duckdb.NewQuoteSource(reader, cfg.Data.Symbol, from, to)
		return source, func() {
			_ = source.Close()
			reader.Close()
		}, nil
	case cfg.Data.CapturePath != "":
		source := capture.NewSource(cfg.Data.CapturePath)
		if err := source.Open(); err != nil {
			return nil, nil, err
		}
		reader := capture.NewQuoteReader(source, cfg.Data.Symbol, from, to)
		return reader, func() {
			source.Close()
		}, nil
	default:
		return nil, nil, errors.New("no data source configured, set -replay, data.capture_path or data.duckdb_path")
	}
}
