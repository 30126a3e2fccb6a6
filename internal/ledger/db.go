package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

var (
	ErrBetNotFound    = errors.New("bet not found")
	ErrAmbiguousBet   = errors.New("bet id prefix matches more than one bet")
	ErrBetSettled     = errors.New("bet already settled")
	ErrInvalidOutcome = errors.New("outcome must be won, lost or void")
)

// historyLimit is how many bankroll history rows are kept per chat.
const historyLimit = 1000

// DB stores bets, bankrolls and alert subscribers in sqlite.
type DB struct {
	db           *sql.DB
	settings     Settings
	historyLimit int
	now          func() time.Time
}

// NewDB opens (creating if needed) the ledger database. New bankrolls start
// from settings.
func NewDB(dbPath string, settings Settings) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// sqlite allows one writer; serialize through a single connection
	db.SetMaxOpenConns(1)

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return &DB{
		db:           db,
		settings:     settings,
		historyLimit: historyLimit,
		now:          func() time.Time { return time.Now().UTC().Truncate(time.Second) },
	}, nil
}

func createTables(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS bets (
		id TEXT PRIMARY KEY,
		chat_id INTEGER NOT NULL,
		sport TEXT NOT NULL,
		event TEXT NOT NULL,
		bet_type TEXT NOT NULL,
		selection TEXT NOT NULL,
		odds REAL NOT NULL,
		stake TEXT NOT NULL,
		bookmaker TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		payout TEXT NOT NULL DEFAULT '0',
		profit_loss TEXT NOT NULL DEFAULT '0',
		placed_at DATETIME NOT NULL,
		settled_at DATETIME
	);

	CREATE INDEX IF NOT EXISTS idx_bets_chat ON bets(chat_id, placed_at);
	CREATE INDEX IF NOT EXISTS idx_bets_status ON bets(chat_id, status);

	CREATE TABLE IF NOT EXISTS bankrolls (
		chat_id INTEGER PRIMARY KEY,
		balance TEXT NOT NULL,
		starting TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS bankroll_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		chat_id INTEGER NOT NULL,
		old_amount TEXT NOT NULL,
		new_amount TEXT NOT NULL,
		reason TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_history_chat ON bankroll_history(chat_id, id);

	CREATE TABLE IF NOT EXISTS subscribers (
		chat_id INTEGER PRIMARY KEY,
		created_at DATETIME NOT NULL
	);
	`

	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating tables: %w", err)
	}
	return nil
}

// Close closes the database connection
func (d *DB) Close() error {
	return d.db.Close()
}

// Ping checks the database is reachable.
func (d *DB) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// Settings returns the defaults new bankrolls are created with.
func (d *DB) Settings() Settings {
	return d.settings
}
