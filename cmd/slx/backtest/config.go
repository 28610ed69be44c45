package main

import "github.com/peter-kozarec/solstice/pkg/middleware"

const (
	Env      = "dev"
	LogLevel = "info"

	DefaultJournalPath = "backtest.ndjson"

	MonitorFlags = middleware.MonitorSignals | middleware.MonitorRejects | middleware.MonitorStates
)
