// Package config exposes the typed application configuration the slx
// commands load from YAML. Money-valued fields stay strings in the file
// and are parsed through fixed.Parse, floats never touch account math.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/peter-kozarec/solstice/pkg/datasource/live"
	"github.com/peter-kozarec/solstice/pkg/utility/fixed"
)

type Pipeline struct {
	DefaultOrderQty int64 `yaml:"default_order_qty"`
	BarDurationMs   int64 `yaml:"bar_duration_ms"`
	SnapshotEvery   int64 `yaml:"snapshot_every"`
}

type Risk struct {
	MaxOrderQty    int64 `yaml:"max_order_qty"`
	MaxPositionQty int64 `yaml:"max_position_qty"`
}

type Execution struct {
	SlippageBps string `yaml:"slippage_bps"`
	FeePerShare string `yaml:"fee_per_share"`
	PriceDigits int    `yaml:"price_digits"`
}

func (e Execution) Slippage() (fixed.Point, error) { return fixed.Parse(e.SlippageBps) }
func (e Execution) Fee() (fixed.Point, error)      { return fixed.Parse(e.FeePerShare) }

type Account struct {
	InitialCash string `yaml:"initial_cash"`
}

func (a Account) Cash() (fixed.Point, error) { return fixed.Parse(a.InitialCash) }

// Strategy groups the advisor's tunable knobs. An OrderQty of zero defers
// to the order manager's default quantity.
type Strategy struct {
	FastWindow int   `yaml:"fast_window"`
	SlowWindow int   `yaml:"slow_window"`
	OrderQty   int64 `yaml:"order_qty"`
}

// Data points a backtest at its historical quotes, either a binary
// capture file or a duckdb database. FromMs and ToMs bound the replayed
// range, zero ToMs means unbounded.
type Data struct {
	CapturePath string `yaml:"capture_path"`
	DuckDBPath  string `yaml:"duckdb_path"`
	Symbol      string `yaml:"symbol"`
	FromMs      int64  `yaml:"from_ms"`
	ToMs        int64  `yaml:"to_ms"`
}

type Live struct {
	Endpoint string   `yaml:"endpoint"`
	Symbols  []string `yaml:"symbols"`
}

type Audit struct {
	MinSnapshotIntervalMs int64 `yaml:"min_snapshot_interval_ms"`
}

type Journal struct {
	Path string `yaml:"path"`
}

type Config struct {
	Pipeline  Pipeline  `yaml:"pipeline"`
	Risk      Risk      `yaml:"risk"`
	Execution Execution `yaml:"execution"`
	Account   Account   `yaml:"account"`
	Strategy  Strategy  `yaml:"strategy"`
	Data      Data      `yaml:"data"`
	Live      Live      `yaml:"live"`
	Audit     Audit     `yaml:"audit"`
	Journal   Journal   `yaml:"journal"`
}

func Default() *Config {
	return &Config{
		Pipeline: Pipeline{
			DefaultOrderQty: 100,
			BarDurationMs:   60_000,
			SnapshotEvery:   16,
		},
		Risk: Risk{
			MaxOrderQty:    1_000,
			MaxPositionQty: 5_000,
		},
		Execution: Execution{
			SlippageBps: "5",
			FeePerShare: "0.005",
			PriceDigits: 4,
		},
		Account: Account{
			InitialCash: "100000",
		},
		Strategy: Strategy{
			FastWindow: 5,
			SlowWindow: 20,
		},
		Data: Data{
			Symbol: "ACME",
		},
		Live: Live{
			Endpoint: live.DefaultEndpoint,
		},
		Audit: Audit{
			MinSnapshotIntervalMs: 60_000,
		},
	}
}

// Load reads a YAML file over the defaults, keys absent from the file
// keep their default values.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	config := Default()
	if err := yaml.NewDecoder(file).Decode(config); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return config, nil
}

func (c *Config) Validate() error {
	if c.Pipeline.DefaultOrderQty <= 0 {
		return fmt.Errorf("config: default_order_qty must be positive")
	}
	if c.Pipeline.BarDurationMs <= 0 {
		return fmt.Errorf("config: bar_duration_ms must be positive")
	}
	if c.Pipeline.SnapshotEvery < 0 {
		return fmt.Errorf("config: snapshot_every must not be negative")
	}
	if c.Risk.MaxOrderQty <= 0 {
		return fmt.Errorf("config: max_order_qty must be positive")
	}
	if c.Risk.MaxPositionQty <= 0 {
		return fmt.Errorf("config: max_position_qty must be positive")
	}
	if c.Execution.PriceDigits < 0 {
		return fmt.Errorf("config: price_digits must not be negative")
	}
	if _, err := c.Execution.Slippage(); err != nil {
		return fmt.Errorf("config: slippage_bps: %w", err)
	}
	if _, err := c.Execution.Fee(); err != nil {
		return fmt.Errorf("config: fee_per_share: %w", err)
	}
	if _, err := c.Account.Cash(); err != nil {
		return fmt.Errorf("config: initial_cash: %w", err)
	}
	if c.Strategy.FastWindow <= 0 || c.Strategy.SlowWindow <= c.Strategy.FastWindow {
		return fmt.Errorf("config: strategy windows must satisfy 0 < fast_window < slow_window")
	}
	if c.Strategy.OrderQty < 0 {
		return fmt.Errorf("config: strategy order_qty must not be negative")
	}
	if c.Audit.MinSnapshotIntervalMs < 0 {
		return fmt.Errorf("config: min_snapshot_interval_ms must not be negative")
	}
	return nil
}
