// Command paper runs the demo loop, a synthetic quote walk through the
// fully wired pipeline with the bar momentum advisor attached, journaled
// so the session can be replayed through the backtest command.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/peter-kozarec/solstice/cmd/slx"
	"github.com/peter-kozarec/solstice/cmd/slx/advisor"
	"github.com/peter-kozarec/solstice/internal/config"
	"github.com/peter-kozarec/solstice/internal/dbg"
	"github.com/peter-kozarec/solstice/pkg/audit"
	"github.com/peter-kozarec/solstice/pkg/bus"
	"github.com/peter-kozarec/solstice/pkg/common"
	"github.com/peter-kozarec/solstice/pkg/datasource"
	"github.com/peter-kozarec/solstice/pkg/datasource/synthetic"
	"github.com/peter-kozarec/solstice/pkg/execution"
	"github.com/peter-kozarec/solstice/pkg/journal"
	"github.com/peter-kozarec/solstice/pkg/middleware"
	"github.com/peter-kozarec/solstice/pkg/order"
	"github.com/peter-kozarec/solstice/pkg/portfolio"
	"github.com/peter-kozarec/solstice/pkg/risk"
	"github.com/peter-kozarec/solstice/pkg/tools/bar"
	"github.com/peter-kozarec/solstice/pkg/utility"
)

func main() {
	configPath := flag.String("config", "", "path to yaml configuration")
	flag.Parse()

	logger := dbg.NewLogger(Env)
	defer func() {
		_ = logger.Sync()
	}()
	dbg.SetupSlog(LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info(fmt.Sprintf("slx paper %s", slx.Version),
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
	strategy := advisor.NewStrategy(router,
		cfg.Strategy.FastWindow,
		cfg.Strategy.SlowWindow,
		common.Quantity(cfg.Strategy.OrderQty))
	auditor := audit.NewAuditor(common.Millis(cfg.Audit.MinSnapshotIntervalMs))

	var lastTs common.Millis
	router.Subscribe(
		telemetry.With(monitor.With(writer.OnEvent)),
		func(_ context.Context, e common.Event) {
			if e.TimeStamp > lastTs {
				lastTs = e.TimeStamp
			}
		},
		latency.With("strategy", strategy.OnEvent),
		latency.With("order_manager", orderManager.OnEvent),
		latency.With("risk_engine", riskEngine.OnEvent),
		latency.With("execution", simulator.OnEvent),
		latency.With("bar_aggregator", aggregator.OnEvent),
		latency.With("portfolio", tracker.OnEvent),
		auditor.OnEvent,
	)

	defer router.PrintStatistics()
	defer telemetry.PrintStatistics()
	defer latency.PrintStatistics()

	// The walk is anchored at wall time so the journal reads like a live
	// session, the price path itself is seeded and reproducible.
	generator := synthetic.NewEquityQuoteGenerator(cfg.Data.Symbol,
		rand.New(rand.NewSource(SyntheticSeed)),
		common.Millis(time.Now().UnixMilli()),
		SyntheticDuration, SyntheticMu, SyntheticSigma)

	if err := datasource.Run(ctx, router, generator); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("paper session aborted", zap.Error(err))
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
