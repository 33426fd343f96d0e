package trader

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"OptionSentinel/internal/broker"
	"OptionSentinel/internal/collector"
	"OptionSentinel/internal/config"
	"OptionSentinel/internal/model"
	"OptionSentinel/internal/notifier"
	"OptionSentinel/internal/recorder"
	"OptionSentinel/internal/strategy"

	"github.com/robfig/cron/v3"
)

// signalCooldown is the de-duplication window: a verdict of the same kind
// as the last recorded signal is dropped unless this much time has passed.
const signalCooldown = 15 * time.Minute

// Runner drives the live loop: on each cron tick it collects market data,
// evaluates the signal engine, records de-duplicated signals, and submits
// orders through the gateway. The engine itself stays stateless; the signal
// history and its de-duplication policy live here, in the consuming layer.
type Runner struct {
	Cron      *cron.Cron
	Collector *collector.Collector
	Engine    *strategy.Engine
	Gateway   broker.Gateway
	Notifier  *notifier.TelegramNotifier
	Recorder  recorder.Recorder
	Cfg       *config.Config
	Ctx       context.Context

	mu      sync.Mutex
	signals []model.SignalEvent
}

// NewRunner creates a new Runner.
func NewRunner(ctx context.Context, col *collector.Collector, eng *strategy.Engine, gw broker.Gateway, tn *notifier.TelegramNotifier, rec recorder.Recorder, cfg *config.Config) *Runner {
	return &Runner{
		Cron:      cron.New(cron.WithSeconds()),
		Collector: col,
		Engine:    eng,
		Gateway:   gw,
		Notifier:  tn,
		Recorder:  rec,
		Cfg:       cfg,
		Ctx:       ctx,
	}
}

// Register adds the evaluation task to the cron schedule.
func (r *Runner) Register() error {
	if _, err := r.Cron.AddFunc(r.Cfg.Schedule.EvalCron, r.EvaluateOnce); err != nil {
		return fmt.Errorf("register evaluation task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (r *Runner) Start() {
	r.Cron.Start()
	log.Println("[INFO] evaluation schedule started")
}

// Stop stops the cron scheduler gracefully.
func (r *Runner) Stop() {
	r.Cron.Stop()
	log.Println("[INFO] evaluation schedule stopped")
}

// Signals returns a copy of the recorded signal history.
func (r *Runner) Signals() []model.SignalEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.SignalEvent, len(r.signals))
	copy(out, r.signals)
	return out
}

// EvaluateOnce runs one full collect-evaluate-execute cycle. Missing
// upstream data is a normal state and only logged; order rejections are
// surfaced and never retried here.
func (r *Runner) EvaluateOnce() {
	view, err := r.Collector.Collect(r.Ctx)
	if err != nil {
		if errors.Is(err, broker.ErrDataUnavailable) {
			log.Printf("[WARN] market data unavailable, skipping evaluation: %v", err)
		} else {
			log.Printf("[ERROR] collect: %v", err)
		}
		return
	}

	candle, rsi, ma, ok := view.Series.Latest()
	if !ok {
		log.Println("[WARN] empty candle series, skipping evaluation")
		return
	}

	ev := r.Engine.Evaluate(time.Now(), candle, strategy.Indicators{RSI: rsi, MA: ma}, view.Greeks)
	switch {
	case ev.OutsideHours:
		log.Println("[INFO] outside trading hours, no signal")
		return
	case ev.InsufficientData:
		log.Println("[INFO] insufficient data for evaluation, no signal")
		return
	}
	for _, f := range ev.Filters {
		log.Printf("[INFO] filter %s: buy=%v sell=%v (%s)", f.Name, f.Buy, f.Sell, f.Commentary)
	}
	if !ev.Signal.Actionable() {
		log.Println("[INFO] no signal")
		return
	}

	evt := model.SignalEvent{Signal: ev.Signal, Time: ev.Time, Price: ev.Price}
	if !r.appendSignal(evt) {
		log.Printf("[INFO] %s signal suppressed by de-duplication window", ev.Signal)
		return
	}
	if err := r.Recorder.RecordSignal(r.Cfg.DataSource.Symbol, &evt); err != nil {
		log.Printf("[ERROR] record signal: %v", err)
	}

	r.execute(ev)
}

// appendSignal applies the append-only de-duplication contract: a signal is
// recorded only if its kind differs from the last one, or the cooldown has
// elapsed.
func (r *Runner) appendSignal(evt model.SignalEvent) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n := len(r.signals); n > 0 {
		last := r.signals[n-1]
		if last.Signal == evt.Signal && evt.Time.Sub(last.Time) <= signalCooldown {
			return false
		}
	}
	r.signals = append(r.signals, evt)
	return true
}

// execute submits an order when the signal does not fight an existing
// position: BUY only when flat or net short, SELL only when flat or net long.
func (r *Runner) execute(ev strategy.Evaluation) {
	positions, err := r.Gateway.FetchOpenPositions(r.Ctx)
	if err != nil {
		log.Printf("[ERROR] fetch positions: %v", err)
		return
	}
	netQty := 0
	for _, p := range positions {
		if p.Symbol == r.Cfg.DataSource.Symbol {
			netQty = p.NetQty
			break
		}
	}
	if (ev.Signal == model.SignalBuy && netQty > 0) || (ev.Signal == model.SignalSell && netQty < 0) {
		log.Printf("[INFO] %s signal ignored, position already open (netqty=%d)", ev.Signal, netQty)
		return
	}

	orderID, err := r.Gateway.SubmitOrder(r.Ctx, broker.OrderRequest{
		Direction: ev.Signal,
		Symbol:    r.Cfg.DataSource.Symbol,
		Exchange:  r.Cfg.DataSource.Exchange,
		Quantity:  r.Cfg.Broker.Quantity,
	})
	if err != nil {
		log.Printf("[ERROR] submit order: %v", err)
		r.trySend(fmt.Sprintf("❌ %s order failed: %v", ev.Signal, err))
		return
	}
	log.Printf("[INFO] %s order placed, id=%s", ev.Signal, orderID)
	r.trySend(notifier.FormatSignalAlert(r.Cfg.DataSource.Symbol, ev, orderID))
}

func (r *Runner) trySend(text string) {
	if err := r.Notifier.SendWithRetry(r.Ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
