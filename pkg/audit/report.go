package audit

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/peter-kozarec/solstice/pkg/common"
	"github.com/peter-kozarec/solstice/pkg/utility/fixed"
)

type Report struct {
	StartTs              common.Millis
	EndTs                common.Millis
	InitialEquity        fixed.Point
	FinalEquity          fixed.Point
	TotalReturn          fixed.Point
	AnnualizedReturn     fixed.Point
	MaxDrawdown          fixed.Point
	RecoveryFactor       fixed.Point
	RealizedPnl          fixed.Point
	UnrealizedPnl        fixed.Point
	TotalOrders          int
	AcceptedOrders       int
	RejectedOrders       int
	TotalFills           int
	FillRate             fixed.Point
	TotalFees            fixed.Point
	TotalSlippage        fixed.Point
	SharpeRatio          fixed.Point
	SortinoRatio         fixed.Point
	AnnualizedVolatility fixed.Point
}

func (report Report) Print(logger *zap.Logger) {
	logger.Info("performance report",
		zap.Time("start", time.UnixMilli(int64(report.StartTs)).UTC()),
		zap.Time("end", time.UnixMilli(int64(report.EndTs)).UTC()),
		zap.String("initial_equity", report.InitialEquity.String()),
		zap.String("final_equity", report.FinalEquity.String()),
		zap.String("total_return", fmt.Sprintf("%s%%", report.TotalReturn.String())),
		zap.String("annualized_return", fmt.Sprintf("%s%%", report.AnnualizedReturn.String())),
		zap.String("max_drawdown", fmt.Sprintf("%s%%", report.MaxDrawdown.String())),
		zap.String("recovery_factor", report.RecoveryFactor.String()),
	)

	logger.Info("execution statistics",
		zap.Int("total_orders", report.TotalOrders),
		zap.Int("accepted_orders", report.AcceptedOrders),
		zap.Int("rejected_orders", report.RejectedOrders),
		zap.Int("total_fills", report.TotalFills),
		zap.String("fill_rate", fmt.Sprintf("%s%%", report.FillRate.String())),
		zap.String("total_fees", report.TotalFees.String()),
		zap.String("total_slippage", report.TotalSlippage.String()),
		zap.String("realized_pnl", report.RealizedPnl.String()),
		zap.String("unrealized_pnl", report.UnrealizedPnl.String()),
	)

	logger.Info("risk metrics",
		zap.String("sharpe_ratio", report.SharpeRatio.String()),
		zap.String("sortino_ratio", report.SortinoRatio.String()),
		zap.String("annualized_volatility", fmt.Sprintf("%s%%", report.AnnualizedVolatility.String())),
	)
}
