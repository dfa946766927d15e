package risk

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Ledger tracks position-size and daily-loss limits.
// This is the GATEKEEPER - no trade happens without its approval, and every
// settled trade is reported back through RecordTrade.
type Ledger struct {
	mu     sync.Mutex
	limits Limits
	state  State
	now    func() time.Time
}

// Limits defines the risk parameters. Immutable after construction.
type Limits struct {
	MaxPositionSize      decimal.Decimal // ETH, per-trade notional ceiling
	MaxDailyLoss         decimal.Decimal // ETH, cumulative realized losses per UTC day
	SlippageToleranceBps int
}

// State tracks current risk exposure
type State struct {
	CurrentDailyLoss decimal.Decimal
	LastResetDay     int64 // UTC epoch day of the last counter reset
}

// DefaultLimits returns sensible defaults
func DefaultLimits() Limits {
	return Limits{
		MaxPositionSize:      decimal.NewFromInt(5), // 5 ETH max per trade
		MaxDailyLoss:         decimal.NewFromInt(1), // stop at 1 ETH daily loss
		SlippageToleranceBps: 50,                    // 0.5%
	}
}

// NewLedger creates a new risk ledger
func NewLedger(limits Limits) *Ledger {
	l := &Ledger{
		limits: limits,
		now:    time.Now,
	}
	l.state.LastResetDay = epochDay(l.now())
	return l
}

// CheckPositionSize reports whether a prospective notional is within the
// position ceiling. No side effects. Amount must be in the same unit as
// MaxPositionSize (ETH).
func (l *Ledger) CheckPositionSize(amount decimal.Decimal) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	ok := amount.LessThanOrEqual(l.limits.MaxPositionSize)
	log.Debug().
		Str("amount", amount.String()).
		Str("max", l.limits.MaxPositionSize.String()).
		Bool("ok", ok).
		Msg("Position size check")
	return ok
}

// RecordTrade records a realized profit or loss and returns whether the
// daily-loss budget still holds. The daily counter resets lazily on the first
// trade recorded after a UTC day boundary; it only ever grows within a day.
// The caller decides what to do when the budget is blown - the ledger does
// not hard-stop anything.
func (l *Ledger) RecordTrade(profitOrLoss decimal.Decimal) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	today := epochDay(l.now())
	if today > l.state.LastResetDay {
		log.Info().Msg("New trading day - resetting daily loss counter")
		l.state.CurrentDailyLoss = decimal.Zero
		l.state.LastResetDay = today
	}

	if profitOrLoss.IsNegative() {
		l.state.CurrentDailyLoss = l.state.CurrentDailyLoss.Add(profitOrLoss.Abs())
		log.Info().
			Str("daily_loss", l.state.CurrentDailyLoss.String()).
			Str("max", l.limits.MaxDailyLoss.String()).
			Msg("Updated daily loss")
	}

	within := l.state.CurrentDailyLoss.LessThanOrEqual(l.limits.MaxDailyLoss)
	if !within {
		log.Warn().
			Str("daily_loss", l.state.CurrentDailyLoss.String()).
			Str("max", l.limits.MaxDailyLoss.String()).
			Msg("Daily loss limit exceeded")
	}
	return within
}

// SlippageToleranceBps returns the configured slippage tolerance in basis points.
func (l *Ledger) SlippageToleranceBps() int {
	return l.limits.SlippageToleranceBps
}

// GetState returns a snapshot of the current risk state.
func (l *Ledger) GetState() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// epochDay maps a wall-clock instant to a UTC day index. Day boundaries are
// pinned to UTC so the reset is unambiguous under timezone and DST changes.
func epochDay(t time.Time) int64 {
	return t.UTC().Unix() / 86400
}
