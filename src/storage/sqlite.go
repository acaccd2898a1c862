package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"candle-feed/src/logger"
	"candle-feed/src/models"

	_ "modernc.org/sqlite"
)

// -----------------------------------------------------------------------------

type SQLiteSeedStore struct {
	Config *models.MConfig
	DB     *sql.DB
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewSQLiteSeedStore(cfg *models.MConfig, log *logger.Logger) *SQLiteSeedStore {
	return &SQLiteSeedStore{
		Config: cfg,
		Logger: log,
	}
}

// -----------------------------------------------------------------------------

func (d *SQLiteSeedStore) Initialize() error {
	dsn := d.Config.Seed.DBPath
	if dir := filepath.Dir(dsn); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}

	// Open DB
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return err
	}

	d.DB = db

	// PRAGMA optimizations
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		d.Logger.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 2000;"); err != nil {
		d.Logger.Warning("Failed to set busy timeout: %v", err)
	}

	return d.createTables()
}

// -----------------------------------------------------------------------------

func (d *SQLiteSeedStore) createTables() error {
	// SQLite types: REAL for float64, TEXT for string
	query := `
		CREATE TABLE IF NOT EXISTS daily_candles (
			symbol TEXT NOT NULL,
			token TEXT NOT NULL,
			trade_date TEXT NOT NULL,
			open REAL NOT NULL,
			high REAL NOT NULL,
			low REAL NOT NULL,
			close REAL NOT NULL,
			PRIMARY KEY (symbol, token, trade_date)
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create daily_candles: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

// GetSeed returns the most recent stored candle for the instrument, or nil.
func (d *SQLiteSeedStore) GetSeed(ctx context.Context, key models.InstrumentKey) (*models.MSeedCandle, error) {
	row := d.DB.QueryRowContext(ctx, `
		SELECT open, high, low, close FROM daily_candles
		WHERE symbol = ? AND token = ?
		ORDER BY trade_date DESC
		LIMIT 1
	`, key.Symbol, key.Token)

	var seed models.MSeedCandle
	if err := row.Scan(&seed.Open, &seed.High, &seed.Low, &seed.Close); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("sqlite seed query for %s: %w", key, err)
	}
	return &seed, nil
}

// -----------------------------------------------------------------------------

// SaveDailyCandles upserts session candles in one transaction.
func (d *SQLiteSeedStore) SaveDailyCandles(ctx context.Context, candles []models.MDailyCandle) error {
	if len(candles) == 0 {
		return nil
	}

	tx, err := d.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO daily_candles (symbol, token, trade_date, open, high, low, close)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (symbol, token, trade_date) DO UPDATE SET
			open = excluded.open,
			high = excluded.high,
			low = excluded.low,
			close = excluded.close
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, c := range candles {
		if _, err := stmt.ExecContext(ctx, c.Symbol, c.Token, c.TradeDate, c.Open, c.High, c.Low, c.Close); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// -----------------------------------------------------------------------------

func (d *SQLiteSeedStore) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
