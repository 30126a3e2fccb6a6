package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"odds-edge-bot/internal/analysis"
)

// Settings are the money-management rules applied to every bankroll.
type Settings struct {
	Initial       decimal.Decimal
	MaxBetPct     float64 // cap on the share of bankroll per bet
	KellyFraction float64
	StopLossPct   float64 // measured against the starting bankroll
	TakeProfitPct float64
	MinBet        decimal.Decimal
	MaxBet        decimal.Decimal
}

// DefaultSettings mirrors a quarter-Kelly, 5%-cap money-management plan.
func DefaultSettings() Settings {
	return Settings{
		Initial:       decimal.NewFromInt(1000),
		MaxBetPct:     0.05,
		KellyFraction: 0.25,
		StopLossPct:   0.20,
		TakeProfitPct: 0.50,
		MinBet:        decimal.NewFromInt(10),
		MaxBet:        decimal.NewFromInt(1000),
	}
}

// Bankroll is a chat's current balance.
type Bankroll struct {
	ChatID    int64
	Balance   decimal.Decimal
	Starting  decimal.Decimal
	UpdatedAt time.Time
}

// BankrollStatus is where a balance stands against the stop-loss and
// take-profit levels.
type BankrollStatus string

const (
	StatusNormal     BankrollStatus = "NORMAL"
	StatusStopLoss   BankrollStatus = "STOP_LOSS"
	StatusTakeProfit BankrollStatus = "TAKE_PROFIT"
)

// Levels returns the balances at which stop-loss and take-profit trigger.
func (s Settings) Levels(starting decimal.Decimal) (stopLoss, takeProfit decimal.Decimal) {
	stopLoss = starting.Mul(decimal.NewFromFloat(1 - s.StopLossPct)).Round(2)
	takeProfit = starting.Mul(decimal.NewFromFloat(1 + s.TakeProfitPct)).Round(2)
	return stopLoss, takeProfit
}

// Status classifies balance against the starting bankroll.
func (s Settings) Status(balance, starting decimal.Decimal) BankrollStatus {
	if !starting.IsPositive() {
		return StatusNormal
	}
	stopLoss, takeProfit := s.Levels(starting)
	switch {
	case balance.LessThanOrEqual(stopLoss):
		return StatusStopLoss
	case balance.GreaterThanOrEqual(takeProfit):
		return StatusTakeProfit
	default:
		return StatusNormal
	}
}

// BetRecommendation is a sized bet with its reasoning.
type BetRecommendation struct {
	Amount        decimal.Decimal
	KellyPct      float64 // full Kelly fraction
	AdjustedPct   float64 // after the Kelly fraction and max-bet cap
	ExpectedValue decimal.Decimal
	Risk          string
	Reason        string
}

// BetSize sizes a bet at decimal odds for a win probability: full Kelly
// times the configured fraction, capped at MaxBetPct of balance, then
// clamped to [MinBet, MaxBet]. A non-positive edge sizes to zero.
func (s Settings) BetSize(balance decimal.Decimal, prob, odds float64) BetRecommendation {
	if odds <= 1 || prob <= 0 || prob >= 1 {
		return BetRecommendation{Amount: decimal.Zero, Reason: "Invalid odds or probability"}
	}

	kelly := analysis.KellyFraction(prob, odds, 1)
	if kelly <= 0 {
		return BetRecommendation{Amount: decimal.Zero, Reason: "No positive expected value"}
	}

	pct := min(kelly*s.KellyFraction, s.MaxBetPct)
	amount := balance.Mul(decimal.NewFromFloat(pct))
	if amount.LessThan(s.MinBet) {
		amount = s.MinBet
	}
	if s.MaxBet.IsPositive() && amount.GreaterThan(s.MaxBet) {
		amount = s.MaxBet
	}
	amount = amount.Round(2)

	ev := decimal.NewFromFloat(prob*(odds-1) - (1 - prob)).Mul(amount).Round(2)

	return BetRecommendation{
		Amount:        amount,
		KellyPct:      kelly,
		AdjustedPct:   pct,
		ExpectedValue: ev,
		Risk:          RiskLevel(pct),
		Reason:        "Kelly-optimized bet size",
	}
}

// RiskLevel labels a bet by its share of bankroll.
func RiskLevel(pct float64) string {
	switch {
	case pct <= 0.01:
		return "VERY LOW"
	case pct <= 0.02:
		return "LOW"
	case pct <= 0.03:
		return "MEDIUM"
	case pct <= 0.05:
		return "HIGH"
	default:
		return "VERY HIGH"
	}
}

// Adjustment is the result of moving a bankroll.
type Adjustment struct {
	Old    decimal.Decimal
	New    decimal.Decimal
	Change decimal.Decimal
	Status BankrollStatus
	Reason string
}

// HistoryEntry is one recorded bankroll change.
type HistoryEntry struct {
	Old       decimal.Decimal
	New       decimal.Decimal
	Reason    string
	CreatedAt time.Time
}

// GetBankroll returns the chat's bankroll, creating it at the configured
// initial amount on first use.
func (d *DB) GetBankroll(ctx context.Context, chatID int64) (Bankroll, error) {
	return d.loadBankroll(ctx, d.db, chatID)
}

// SetBankroll resets a chat's balance and starting point to amount.
func (d *DB) SetBankroll(ctx context.Context, chatID int64, amount decimal.Decimal) (Bankroll, error) {
	if !amount.IsPositive() {
		return Bankroll{}, fmt.Errorf("bankroll must be positive, got %s", amount)
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return Bankroll{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	old, err := d.loadBankroll(ctx, tx, chatID)
	if err != nil {
		return Bankroll{}, err
	}

	now := d.now()
	_, err = tx.ExecContext(ctx, `
		UPDATE bankrolls SET balance = ?, starting = ?, updated_at = ? WHERE chat_id = ?
	`, amount, amount, now, chatID)
	if err != nil {
		return Bankroll{}, fmt.Errorf("updating bankroll: %w", err)
	}
	if err := d.recordHistory(ctx, tx, chatID, old.Balance, amount, "bankroll set"); err != nil {
		return Bankroll{}, err
	}

	if err := tx.Commit(); err != nil {
		return Bankroll{}, fmt.Errorf("committing bankroll: %w", err)
	}
	return Bankroll{ChatID: chatID, Balance: amount, Starting: amount, UpdatedAt: now}, nil
}

// Adjust moves a chat's balance by delta and reports stop-loss/take-profit status.
func (d *DB) Adjust(ctx context.Context, chatID int64, delta decimal.Decimal, reason string) (Adjustment, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return Adjustment{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	adj, err := d.adjust(ctx, tx, chatID, delta, reason)
	if err != nil {
		return Adjustment{}, err
	}
	if err := tx.Commit(); err != nil {
		return Adjustment{}, fmt.Errorf("committing adjustment: %w", err)
	}
	return adj, nil
}

// History returns the chat's bankroll changes, newest first.
func (d *DB) History(ctx context.Context, chatID int64, limit int) ([]HistoryEntry, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT old_amount, new_amount, reason, created_at
		FROM bankroll_history
		WHERE chat_id = ?
		ORDER BY id DESC
		LIMIT ?
	`, chatID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying bankroll history: %w", err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(&e.Old, &e.New, &e.Reason, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

type execQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (d *DB) loadBankroll(ctx context.Context, q execQuerier, chatID int64) (Bankroll, error) {
	b := Bankroll{ChatID: chatID}
	err := q.QueryRowContext(ctx, `
		SELECT balance, starting, updated_at FROM bankrolls WHERE chat_id = ?
	`, chatID).Scan(&b.Balance, &b.Starting, &b.UpdatedAt)
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Bankroll{}, fmt.Errorf("scanning bankroll: %w", err)
	}

	b.Balance = d.settings.Initial
	b.Starting = d.settings.Initial
	b.UpdatedAt = d.now()
	_, err = q.ExecContext(ctx, `
		INSERT INTO bankrolls (chat_id, balance, starting, updated_at) VALUES (?, ?, ?, ?)
	`, chatID, b.Balance, b.Starting, b.UpdatedAt)
	if err != nil {
		return Bankroll{}, fmt.Errorf("creating bankroll: %w", err)
	}
	return b, nil
}

func (d *DB) adjust(ctx context.Context, q execQuerier, chatID int64, delta decimal.Decimal, reason string) (Adjustment, error) {
	b, err := d.loadBankroll(ctx, q, chatID)
	if err != nil {
		return Adjustment{}, err
	}

	newBalance := b.Balance.Add(delta)
	_, err = q.ExecContext(ctx, `
		UPDATE bankrolls SET balance = ?, updated_at = ? WHERE chat_id = ?
	`, newBalance, d.now(), chatID)
	if err != nil {
		return Adjustment{}, fmt.Errorf("updating bankroll: %w", err)
	}
	if err := d.recordHistory(ctx, q, chatID, b.Balance, newBalance, reason); err != nil {
		return Adjustment{}, err
	}

	return Adjustment{
		Old:    b.Balance,
		New:    newBalance,
		Change: delta,
		Status: d.settings.Status(newBalance, b.Starting),
		Reason: reason,
	}, nil
}

func (d *DB) recordHistory(ctx context.Context, q execQuerier, chatID int64, oldAmount, newAmount decimal.Decimal, reason string) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO bankroll_history (chat_id, old_amount, new_amount, reason, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, chatID, oldAmount, newAmount, reason, d.now())
	if err != nil {
		return fmt.Errorf("recording bankroll history: %w", err)
	}

	_, err = q.ExecContext(ctx, `
		DELETE FROM bankroll_history
		WHERE chat_id = ? AND id NOT IN (
			SELECT id FROM bankroll_history WHERE chat_id = ? ORDER BY id DESC LIMIT ?
		)
	`, chatID, chatID, d.historyLimit)
	if err != nil {
		return fmt.Errorf("pruning bankroll history: %w", err)
	}
	return nil
}
