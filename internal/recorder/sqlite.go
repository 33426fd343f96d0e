package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"OptionSentinel/internal/model"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists runs and signals to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so result dashboards can read while a run is being written.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS backtest_runs (
			id                   TEXT PRIMARY KEY,
			created_at           INTEGER NOT NULL,
			symbol               TEXT,
			interval             TEXT,
			started_at           INTEGER,
			finished_at          INTEGER,
			initial_capital      REAL,
			final_capital        REAL,
			total_return_percent REAL,
			total_trades         INTEGER,
			winning_trades       INTEGER,
			losing_trades        INTEGER,
			win_rate             REAL,
			avg_profit           REAL,
			avg_loss             REAL,
			profit_factor        REAL,
			max_drawdown_percent REAL,
			sharpe_ratio         REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created ON backtest_runs(created_at)`,

		`CREATE TABLE IF NOT EXISTS backtest_trades (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id      TEXT NOT NULL,
			entry_time  INTEGER,
			exit_time   INTEGER,
			entry_price REAL,
			exit_price  REAL,
			direction   TEXT,
			pnl         REAL,
			pnl_percent REAL,
			exit_reason TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_run ON backtest_trades(run_id)`,

		`CREATE TABLE IF NOT EXISTS backtest_equity (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id    TEXT NOT NULL,
			timestamp INTEGER,
			equity    REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_equity_run ON backtest_equity(run_id)`,

		`CREATE TABLE IF NOT EXISTS signal_events (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			symbol    TEXT,
			signal    TEXT,
			price     REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_signals_ts ON signal_events(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordBacktest writes the run header, trades, and equity curve inside one
// transaction and returns the generated run id.
func (r *SQLiteRecorder) RecordBacktest(run *BacktestRun) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	runID := uuid.NewString()
	m := run.Metrics

	tx, err := r.db.Begin()
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO backtest_runs
		(id, created_at, symbol, interval, started_at, finished_at,
		 initial_capital, final_capital, total_return_percent,
		 total_trades, winning_trades, losing_trades, win_rate,
		 avg_profit, avg_loss, profit_factor, max_drawdown_percent, sharpe_ratio)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		runID, time.Now().Unix(), run.Symbol, run.Interval,
		run.StartedAt.Unix(), run.FinishedAt.Unix(),
		m.InitialCapital, m.FinalCapital, m.TotalReturnPercent,
		m.TotalTrades, m.WinningTrades, m.LosingTrades, m.WinRate,
		m.AvgProfit, m.AvgLoss, finiteOrNull(m.ProfitFactor),
		m.MaxDrawdownPercent, m.SharpeRatio,
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	for _, t := range run.Trades {
		if _, err := tx.Exec(`INSERT INTO backtest_trades
			(run_id, entry_time, exit_time, entry_price, exit_price, direction, pnl, pnl_percent, exit_reason)
			VALUES (?,?,?,?,?,?,?,?,?)`,
			runID, t.EntryTime.Unix(), t.ExitTime.Unix(),
			t.EntryPrice, t.ExitPrice, string(t.Direction),
			t.PnL, t.PnLPercent, string(t.ExitReason),
		); err != nil {
			return "", fmt.Errorf("insert trade: %w", err)
		}
	}

	for _, p := range run.Equity {
		if _, err := tx.Exec(`INSERT INTO backtest_equity (run_id, timestamp, equity) VALUES (?,?,?)`,
			runID, p.Time.Unix(), p.Equity,
		); err != nil {
			return "", fmt.Errorf("insert equity point: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return runID, nil
}

func (r *SQLiteRecorder) RecordSignal(symbol string, evt *model.SignalEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO signal_events (timestamp, symbol, signal, price) VALUES (?,?,?,?)`,
		evt.Time.Unix(), symbol, string(evt.Signal), evt.Price,
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}

// finiteOrNull stores an infinite profit factor (no realized losses) as
// NULL, which SQLite can round-trip.
func finiteOrNull(v float64) interface{} {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return v
}
