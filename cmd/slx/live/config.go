package main

import "github.com/peter-kozarec/solstice/pkg/middleware"

const (
	Env      = "dev"
	LogLevel = "info"

	DefaultJournalPath = "live.ndjson"

	MonitorFlags = middleware.MonitorSignals | middleware.MonitorOrders |
		middleware.MonitorRejects | middleware.MonitorFills | middleware.MonitorStates
)
