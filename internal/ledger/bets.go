package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is a bet's settlement state.
type Status string

const (
	StatusPending Status = "pending"
	StatusWon     Status = "won"
	StatusLost    Status = "lost"
	StatusVoid    Status = "void"
)

// ParseOutcome validates a settlement outcome typed by a user.
func ParseOutcome(s string) (Status, error) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusWon, StatusLost, StatusVoid:
		return st, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidOutcome, s)
	}
}

// Bet is one tracked wager.
type Bet struct {
	ID         string
	ChatID     int64
	Sport      string
	Event      string
	BetType    string
	Selection  string
	Odds       float64
	Stake      decimal.Decimal
	Bookmaker  string
	Status     Status
	Payout     decimal.Decimal
	ProfitLoss decimal.Decimal
	PlacedAt   time.Time
	SettledAt  *time.Time
}

// ShortID is the id prefix users type to refer to a bet.
func (b Bet) ShortID() string {
	if len(b.ID) < 8 {
		return b.ID
	}
	return b.ID[:8]
}

// settle fills payout and P/L for outcome.
func (b *Bet) settle(outcome Status, at time.Time) {
	b.Status = outcome
	b.SettledAt = &at
	switch outcome {
	case StatusWon:
		b.Payout = b.Stake.Mul(decimal.NewFromFloat(b.Odds)).Round(2)
	case StatusVoid:
		b.Payout = b.Stake
	default:
		b.Payout = decimal.Zero
	}
	b.ProfitLoss = b.Payout.Sub(b.Stake)
}

// AddBet records a pending bet and returns it with its new id.
func (d *DB) AddBet(ctx context.Context, bet Bet) (Bet, error) {
	if bet.Odds <= 1 {
		return Bet{}, fmt.Errorf("odds must be above 1.0, got %.2f", bet.Odds)
	}
	if !bet.Stake.IsPositive() {
		return Bet{}, fmt.Errorf("stake must be positive, got %s", bet.Stake)
	}

	bet.ID = uuid.NewString()
	bet.Status = StatusPending
	bet.Payout = decimal.Zero
	bet.ProfitLoss = decimal.Zero
	if bet.PlacedAt.IsZero() {
		bet.PlacedAt = d.now()
	}
	bet.PlacedAt = bet.PlacedAt.UTC().Truncate(time.Second)
	if bet.BetType == "" {
		bet.BetType = "h2h"
	}

	_, err := d.db.ExecContext(ctx, `
		INSERT INTO bets (id, chat_id, sport, event, bet_type, selection, odds, stake, bookmaker, status, payout, profit_loss, placed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, bet.ID, bet.ChatID, bet.Sport, bet.Event, bet.BetType, bet.Selection, bet.Odds,
		bet.Stake, bet.Bookmaker, bet.Status, bet.Payout, bet.ProfitLoss, bet.PlacedAt)
	if err != nil {
		return Bet{}, fmt.Errorf("inserting bet: %w", err)
	}
	return bet, nil
}

// SettleBet settles the chat's bet whose id starts with idPrefix and moves
// the bet's P/L into the chat's bankroll. Settled bets cannot be settled again.
func (d *DB) SettleBet(ctx context.Context, chatID int64, idPrefix string, outcome Status) (Bet, Adjustment, error) {
	if _, err := ParseOutcome(string(outcome)); err != nil {
		return Bet{}, Adjustment{}, err
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return Bet{}, Adjustment{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	bet, err := findBet(ctx, tx, chatID, idPrefix)
	if err != nil {
		return Bet{}, Adjustment{}, err
	}
	if bet.Status != StatusPending {
		return Bet{}, Adjustment{}, fmt.Errorf("%w: %s is %s", ErrBetSettled, bet.ShortID(), bet.Status)
	}

	bet.settle(outcome, d.now())
	_, err = tx.ExecContext(ctx, `
		UPDATE bets SET status = ?, payout = ?, profit_loss = ?, settled_at = ? WHERE id = ?
	`, bet.Status, bet.Payout, bet.ProfitLoss, bet.SettledAt.UTC(), bet.ID)
	if err != nil {
		return Bet{}, Adjustment{}, fmt.Errorf("updating bet: %w", err)
	}

	reason := fmt.Sprintf("bet %s %s", bet.ShortID(), bet.Status)
	adj, err := d.adjust(ctx, tx, chatID, bet.ProfitLoss, reason)
	if err != nil {
		return Bet{}, Adjustment{}, err
	}

	if err := tx.Commit(); err != nil {
		return Bet{}, Adjustment{}, fmt.Errorf("committing settlement: %w", err)
	}
	return bet, adj, nil
}

// GetBet retrieves a chat's bet by id prefix.
func (d *DB) GetBet(ctx context.Context, chatID int64, idPrefix string) (Bet, error) {
	return findBet(ctx, d.db, chatID, idPrefix)
}

// PendingBets returns the chat's unsettled bets, oldest first.
func (d *DB) PendingBets(ctx context.Context, chatID int64) ([]Bet, error) {
	return d.queryBets(ctx, `WHERE chat_id = ? AND status = ? ORDER BY placed_at ASC, rowid ASC`, chatID, StatusPending)
}

// BetsSince returns every bet the chat placed at or after since, oldest first.
func (d *DB) BetsSince(ctx context.Context, chatID int64, since time.Time) ([]Bet, error) {
	return d.queryBets(ctx, `WHERE chat_id = ? AND placed_at >= ? ORDER BY placed_at ASC, rowid ASC`,
		chatID, since.UTC().Truncate(time.Second))
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

const betColumns = `id, chat_id, sport, event, bet_type, selection, odds, stake, bookmaker, status, payout, profit_loss, placed_at, settled_at`

func findBet(ctx context.Context, q querier, chatID int64, idPrefix string) (Bet, error) {
	idPrefix = strings.ToLower(strings.TrimSpace(idPrefix))
	if idPrefix == "" {
		return Bet{}, fmt.Errorf("%w: empty id", ErrBetNotFound)
	}

	bets, err := scanBets(q.QueryContext(ctx,
		`SELECT `+betColumns+` FROM bets WHERE chat_id = ? AND substr(id, 1, ?) = ? LIMIT 2`,
		chatID, len(idPrefix), idPrefix))
	if err != nil {
		return Bet{}, err
	}
	switch len(bets) {
	case 0:
		return Bet{}, fmt.Errorf("%w: %s", ErrBetNotFound, idPrefix)
	case 1:
		return bets[0], nil
	default:
		return Bet{}, fmt.Errorf("%w: %s", ErrAmbiguousBet, idPrefix)
	}
}

func (d *DB) queryBets(ctx context.Context, where string, args ...any) ([]Bet, error) {
	return scanBets(d.db.QueryContext(ctx, `SELECT `+betColumns+` FROM bets `+where, args...))
}

func scanBets(rows *sql.Rows, err error) ([]Bet, error) {
	if err != nil {
		return nil, fmt.Errorf("querying bets: %w", err)
	}
	defer rows.Close()

	var bets []Bet
	for rows.Next() {
		var b Bet
		var settled sql.NullTime
		if err := rows.Scan(&b.ID, &b.ChatID, &b.Sport, &b.Event, &b.BetType, &b.Selection, &b.Odds,
			&b.Stake, &b.Bookmaker, &b.Status, &b.Payout, &b.ProfitLoss, &b.PlacedAt, &settled); err != nil {
			return nil, fmt.Errorf("scanning bet row: %w", err)
		}
		if settled.Valid {
			t := settled.Time
			b.SettledAt = &t
		}
		bets = append(bets, b)
	}
	return bets, rows.Err()
}

// AllPendingBets returns unsettled bets across every chat.
func (d *DB) AllPendingBets(ctx context.Context) ([]Bet, error) {
	return d.queryBets(ctx, `WHERE status = ? ORDER BY placed_at ASC, rowid ASC`, StatusPending)
}
