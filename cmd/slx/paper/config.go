package main

import (
	"time"

	"github.com/peter-kozarec/solstice/pkg/middleware"
)

const (
	Env      = "dev"
	LogLevel = "info"

	DefaultJournalPath = "paper.ndjson"

	MonitorFlags = middleware.MonitorSignals | middleware.MonitorOrders |
		middleware.MonitorRejects | middleware.MonitorFills | middleware.MonitorStates

	// Synthetic walk parameters. The seed is fixed so two paper sessions
	// trade the same price path.
	SyntheticSeed     = 42
	SyntheticDuration = 8 * time.Hour
	SyntheticMu       = 0.05
	SyntheticSigma    = 0.20
)
