package audit

import (
	"context"
	"log/slog"

	"github.com/peter-kozarec/solstice/pkg/common"
	"github.com/peter-kozarec/solstice/pkg/utility/fixed"
)

const millisPerDay = 86_400_000

var maxAnnualizedGrowth = fixed.FromInt(30, 0)

type equitySnapshot struct {
	cash   fixed.Point
	equity fixed.Point
	ts     common.Millis
}

// Auditor observes the event stream and accumulates the raw material for
// a performance report: an equity curve sampled from state snapshots plus
// order and fill tallies. It never publishes, so it can subscribe at any
// position without disturbing the pipeline.
type Auditor struct {
	minSnapshotInterval common.Millis

	snapshots []equitySnapshot
	last      equitySnapshot
	haveLast  bool

	totalOrders    int
	acceptedOrders int
	rejectedOrders int
	totalFills     int

	totalFees     fixed.Point
	totalSlippage fixed.Point
	realized      fixed.Point
	unrealized    fixed.Point
}

// NewAuditor samples the equity curve at most once per minSnapshotInterval.
// Zero keeps every snapshot.
func NewAuditor(minSnapshotInterval common.Millis) *Auditor {
	return &Auditor{
		minSnapshotInterval: minSnapshotInterval,
		totalFees:           fixed.Zero,
		totalSlippage:       fixed.Zero,
		realized:            fixed.Zero,
		unrealized:          fixed.Zero,
	}
}

func (a *Auditor) OnEvent(_ context.Context, e common.Event) {
	switch e.Type {
	case common.TypeState:
		a.onState(e)
	case common.TypeOrder:
		a.totalOrders++
	case common.TypeOrderAccepted:
		a.acceptedOrders++
	case common.TypeReject:
		a.rejectedOrders++
	case common.TypeFill:
		a.onFill(e)
	}
}

func (a *Auditor) onState(e common.Event) {
	state, ok := e.Data.(common.State)
	if !ok {
		slog.Warn("malformed state payload, skipping", "event", e)
		return
	}

	a.last = equitySnapshot{cash: state.Cash, equity: state.Equity, ts: e.TimeStamp}
	a.haveLast = true
	a.realized = state.RealizedPnl
	a.unrealized = state.UnrealizedPnl

	if len(a.snapshots) == 0 ||
		e.TimeStamp-a.snapshots[len(a.snapshots)-1].ts >= a.minSnapshotInterval {
		a.snapshots = append(a.snapshots, a.last)
	}
}

func (a *Auditor) onFill(e common.Event) {
	fill, ok := e.Data.(common.Fill)
	if !ok {
		slog.Warn("malformed fill payload, skipping", "event", e)
		return
	}

	a.totalFills++
	a.totalFees = a.totalFees.Add(fill.Fee)
	a.totalSlippage = a.totalSlippage.Add(fill.Slippage)
}

func (a *Auditor) GenerateReport() Report {

	report := Report{}

	report.TotalOrders = a.totalOrders
	report.AcceptedOrders = a.acceptedOrders
	report.RejectedOrders = a.rejectedOrders
	report.TotalFills = a.totalFills
	report.TotalFees = a.totalFees
	report.TotalSlippage = a.totalSlippage
	report.RealizedPnl = a.realized
	report.UnrealizedPnl = a.unrealized
	if report.TotalOrders > 0 {
		report.FillRate = fixed.FromInt64(int64(report.TotalFills), 0).
			DivInt64(int64(report.TotalOrders)).MulInt64(100).Rescale(2)
	}

	snapshots := a.series()
	if len(snapshots) == 0 {
		return report
	}

	auditedDays := dayCount(snapshots)
	year := fixed.FromInt64(36500, 2)

	report.StartTs = snapshots[0].ts
	report.EndTs = snapshots[len(snapshots)-1].ts
	report.InitialEquity = snapshots[0].equity
	report.FinalEquity = snapshots[len(snapshots)-1].equity

	// --- Return Metrics ---
	report.TotalReturn = report.FinalEquity.Div(report.InitialEquity).Sub(fixed.One).MulInt64(100).Rescale(2)
	if report.InitialEquity.Gt(fixed.Zero) && report.FinalEquity.Gt(fixed.Zero) {
		ratio := report.FinalEquity.Div(report.InitialEquity)
		exponent := year.DivInt64(int64(auditedDays))
		// Annualizing a large gain over a sub-day curve overflows the
		// decimal range, growth past e^30 carries no information anyway.
		if growth := ratio.Log().Mul(exponent); growth.Lt(maxAnnualizedGrowth) {
			report.AnnualizedReturn = ratio.Pow(exponent).Sub(fixed.One).MulInt64(100).Rescale(2)
		}
	}

	// --- Max Drawdown ---
	maxEquity := report.InitialEquity
	for _, snapshot := range snapshots {
		if snapshot.equity.Gt(maxEquity) {
			maxEquity = snapshot.equity
		}
		drawdown := maxEquity.Sub(snapshot.equity).Div(maxEquity)
		if drawdown.Gt(report.MaxDrawdown) {
			report.MaxDrawdown = drawdown
		}
	}
	report.MaxDrawdown = report.MaxDrawdown.MulInt64(100).Rescale(2)
	if report.MaxDrawdown.Gt(fixed.Zero) {
		report.RecoveryFactor = report.TotalReturn.Div(report.MaxDrawdown).Rescale(2)
	}

	// --- Risk Metrics: Volatility, Sharpe, Sortino ---
	returns := dailyReturns(snapshots)
	meanReturn := fixed.Mean(returns)
	vol := fixed.StdDev(returns, meanReturn)

	if !meanReturn.IsZero() && !vol.IsZero() {
		report.AnnualizedVolatility = vol.Mul(fixed.Sqrt252).MulInt64(100).Rescale(2)
		report.SharpeRatio = fixed.SharpeRatio(returns, fixed.Zero).Mul(fixed.Sqrt252).Rescale(5)
		report.SortinoRatio = fixed.SortinoRatio(returns, fixed.Zero).Mul(fixed.Sqrt252).Rescale(5)
	}

	return report
}

// series closes the sampled curve on the most recent state even when the
// interval guard swallowed it, reports must end on final equity.
func (a *Auditor) series() []equitySnapshot {
	if !a.haveLast {
		return a.snapshots
	}
	if n := len(a.snapshots); n == 0 || a.snapshots[n-1].ts < a.last.ts {
		return append(a.snapshots, a.last)
	}
	return a.snapshots
}

func dayCount(snapshots []equitySnapshot) int {
	if len(snapshots) < 2 {
		return 1
	}
	span := snapshots[len(snapshots)-1].ts - snapshots[0].ts
	return int(span/millisPerDay) + 1
}

func dailyReturns(snapshots []equitySnapshot) []fixed.Point {
	var returns []fixed.Point
	if len(snapshots) < 2 {
		return returns
	}

	var (
		prevDay    = snapshots[0].ts / millisPerDay
		prevEquity = snapshots[0].equity
	)

	for _, snapshot := range snapshots[1:] {
		currDay := snapshot.ts / millisPerDay

		if currDay > prevDay {
			returns = append(returns, snapshot.equity.Div(prevEquity).Sub(fixed.One))

			prevDay = currDay
			prevEquity = snapshot.equity
		}
	}

	return returns
}
