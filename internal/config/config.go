package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Thresholds holds the option-Greeks and volatility cutoffs used by the
// signal engine. All four Greek thresholds are magnitudes; the engine
// applies the sign per branch.
type Thresholds struct {
	Delta   float64 `yaml:"delta"`
	Gamma   float64 `yaml:"gamma"`
	Theta   float64 `yaml:"theta"`
	Vega    float64 `yaml:"vega"`
	VIXBuy  float64 `yaml:"vix_buy"`
	VIXSell float64 `yaml:"vix_sell"`
}

// Window is the intraday trading-hours gate (inclusive on both ends).
type Window struct {
	StartHour   int `yaml:"start_hour"`
	StartMinute int `yaml:"start_minute"`
	EndHour     int `yaml:"end_hour"`
	EndMinute   int `yaml:"end_minute"`
}

// Config holds all application configuration.
type Config struct {
	DataSource struct {
		Symbol      string `yaml:"symbol"`
		Exchange    string `yaml:"exchange"`
		Interval    string `yaml:"interval"`
		HistoryDays int    `yaml:"history_days"`
	} `yaml:"data_source"`
	Broker struct {
		BaseURL  string `yaml:"base_url"`
		APIKey   string `yaml:"api_key"`
		Quantity int    `yaml:"quantity"`
	} `yaml:"broker"`
	Indicators struct {
		RSIPeriod int `yaml:"rsi_period"`
		MAPeriod  int `yaml:"ma_period"`
	} `yaml:"indicators"`
	Thresholds   Thresholds `yaml:"thresholds"`
	TradingHours Window     `yaml:"trading_hours"`
	Risk         struct {
		StopLossPercent   float64 `yaml:"stop_loss_percent"`
		TakeProfitPercent float64 `yaml:"take_profit_percent"`
	} `yaml:"risk"`
	Backtest struct {
		InitialCapital float64 `yaml:"initial_capital"`
		Seed           int64   `yaml:"seed"`
	} `yaml:"backtest"`
	Schedule struct {
		EvalCron string `yaml:"eval_cron"`
	} `yaml:"schedule"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("SYMBOL"); v != "" {
		cfg.DataSource.Symbol = v
	}
	if v := os.Getenv("EXCHANGE"); v != "" {
		cfg.DataSource.Exchange = v
	}
	if v := os.Getenv("BROKER_BASE_URL"); v != "" {
		cfg.Broker.BaseURL = v
	}
	if v := os.Getenv("BROKER_API_KEY"); v != "" {
		cfg.Broker.APIKey = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	overrideFloat("DELTA_THRESHOLD", &cfg.Thresholds.Delta)
	overrideFloat("GAMMA_THRESHOLD", &cfg.Thresholds.Gamma)
	overrideFloat("THETA_THRESHOLD", &cfg.Thresholds.Theta)
	overrideFloat("VEGA_THRESHOLD", &cfg.Thresholds.Vega)
	overrideFloat("VIX_BUY_THRESHOLD", &cfg.Thresholds.VIXBuy)
	overrideFloat("VIX_SELL_THRESHOLD", &cfg.Thresholds.VIXSell)
	overrideFloat("STOP_LOSS_PERCENT", &cfg.Risk.StopLossPercent)
	overrideFloat("TAKE_PROFIT_PERCENT", &cfg.Risk.TakeProfitPercent)

	// Defaults
	if cfg.DataSource.Symbol == "" {
		cfg.DataSource.Symbol = "NIFTY"
	}
	if cfg.DataSource.Exchange == "" {
		cfg.DataSource.Exchange = "NSE"
	}
	if cfg.DataSource.Interval == "" {
		cfg.DataSource.Interval = "FIFTEEN_MINUTE"
	}
	if cfg.DataSource.HistoryDays == 0 {
		cfg.DataSource.HistoryDays = 30
	}
	if cfg.Broker.Quantity == 0 {
		cfg.Broker.Quantity = 50
	}
	if cfg.Indicators.RSIPeriod == 0 {
		cfg.Indicators.RSIPeriod = 14
	}
	if cfg.Indicators.MAPeriod == 0 {
		cfg.Indicators.MAPeriod = 20
	}
	if cfg.Thresholds == (Thresholds{}) {
		cfg.Thresholds = Thresholds{Delta: 0.5, Gamma: 0.1, Theta: 0.05, Vega: 0.1, VIXBuy: 20, VIXSell: 30}
	}
	if cfg.TradingHours == (Window{}) {
		cfg.TradingHours = Window{StartHour: 9, StartMinute: 15, EndHour: 15, EndMinute: 30}
	}
	if cfg.Risk.StopLossPercent == 0 {
		cfg.Risk.StopLossPercent = 1.0
	}
	if cfg.Risk.TakeProfitPercent == 0 {
		cfg.Risk.TakeProfitPercent = 2.0
	}
	if cfg.Backtest.InitialCapital == 0 {
		cfg.Backtest.InitialCapital = 100000
	}
	if cfg.Schedule.EvalCron == "" {
		// Every 15 minutes during NSE market hours, Mon-Fri.
		cfg.Schedule.EvalCron = "0 */15 9-15 * * 1-5"
	}

	return cfg, nil
}

func overrideFloat(env string, dst *float64) {
	if v := os.Getenv(env); v != "" {
		var f float64
		if _, err := fmt.Sscanf(v, "%f", &f); err == nil {
			*dst = f
		}
	}
}

// Validate checks that all numeric parameters are in range. A failure here
// is fatal at startup; the engine and simulator assume a validated config.
func (c *Config) Validate() error {
	if c.Indicators.RSIPeriod <= 0 {
		return fmt.Errorf("indicators.rsi_period must be positive, got %d", c.Indicators.RSIPeriod)
	}
	if c.Indicators.MAPeriod <= 0 {
		return fmt.Errorf("indicators.ma_period must be positive, got %d", c.Indicators.MAPeriod)
	}
	if c.Thresholds.Delta <= 0 || c.Thresholds.Delta >= 1 {
		return fmt.Errorf("thresholds.delta must be in (0, 1), got %g", c.Thresholds.Delta)
	}
	if c.Thresholds.Gamma <= 0 {
		return fmt.Errorf("thresholds.gamma must be positive, got %g", c.Thresholds.Gamma)
	}
	if c.Thresholds.Vega <= 0 {
		return fmt.Errorf("thresholds.vega must be positive, got %g", c.Thresholds.Vega)
	}
	if c.Thresholds.VIXBuy <= 0 || c.Thresholds.VIXSell <= 0 {
		return fmt.Errorf("thresholds.vix_buy and vix_sell must be positive")
	}
	if c.Risk.StopLossPercent <= 0 {
		return fmt.Errorf("risk.stop_loss_percent must be positive, got %g", c.Risk.StopLossPercent)
	}
	if c.Risk.TakeProfitPercent <= 0 {
		return fmt.Errorf("risk.take_profit_percent must be positive, got %g", c.Risk.TakeProfitPercent)
	}
	if c.Backtest.InitialCapital <= 0 {
		return fmt.Errorf("backtest.initial_capital must be positive, got %g", c.Backtest.InitialCapital)
	}
	if err := c.TradingHours.validate(); err != nil {
		return err
	}
	if c.Broker.Quantity <= 0 {
		return fmt.Errorf("broker.quantity must be positive, got %d", c.Broker.Quantity)
	}
	return nil
}

func (w Window) validate() error {
	if w.StartHour < 0 || w.StartHour > 23 || w.EndHour < 0 || w.EndHour > 23 {
		return fmt.Errorf("trading_hours: hours must be in [0, 23]")
	}
	if w.StartMinute < 0 || w.StartMinute > 59 || w.EndMinute < 0 || w.EndMinute > 59 {
		return fmt.Errorf("trading_hours: minutes must be in [0, 59]")
	}
	if w.StartHour*60+w.StartMinute >= w.EndHour*60+w.EndMinute {
		return fmt.Errorf("trading_hours: window start must precede end")
	}
	return nil
}

// Contains reports whether t's clock time falls inside the window.
func (w Window) Contains(hour, minute int) bool {
	m := hour*60 + minute
	return m >= w.StartHour*60+w.StartMinute && m <= w.EndHour*60+w.EndMinute
}
