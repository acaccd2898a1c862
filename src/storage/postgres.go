package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"candle-feed/src/logger"
	"candle-feed/src/models"

	_ "github.com/lib/pq"
)

// -----------------------------------------------------------------------------

type PostgresSeedStore struct {
	Config *models.MConfig
	DB     *sql.DB
	Schema string
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

// NewPostgresSeedStore keeps its table in a schema named after the application.
func NewPostgresSeedStore(cfg *models.MConfig, log *logger.Logger) *PostgresSeedStore {
	return &PostgresSeedStore{
		Config: cfg,
		Schema: SchemaName(cfg.Name),
		Logger: log,
	}
}

// SchemaName turns an application name into a plain identifier.
func SchemaName(appName string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(appName) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "public"
	}
	return b.String()
}

// -----------------------------------------------------------------------------

func (d *PostgresSeedStore) Initialize() error {
	dsn := d.Config.Seed.DBConnectionString
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return err
	}

	d.DB = db

	// Create Schema
	if _, err := d.DB.Exec(fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS "%s"`, d.Schema)); err != nil {
		return fmt.Errorf("failed to create schema %s: %w", d.Schema, err)
	}

	if err := d.createTables(); err != nil {
		return err
	}

	d.Logger.Info("PostgresSeedStore initialized successfully (Schema: %s)", d.Schema)
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresSeedStore) createTables() error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS "%s"."daily_candles" (
			symbol TEXT NOT NULL,
			token TEXT NOT NULL,
			trade_date DATE NOT NULL,
			open DOUBLE PRECISION NOT NULL,
			high DOUBLE PRECISION NOT NULL,
			low DOUBLE PRECISION NOT NULL,
			close DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (symbol, token, trade_date)
		);
	`, d.Schema)
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create daily_candles: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

// GetSeed returns the most recent stored candle for the instrument, or nil.
func (d *PostgresSeedStore) GetSeed(ctx context.Context, key models.InstrumentKey) (*models.MSeedCandle, error) {
	query := fmt.Sprintf(`
		SELECT open, high, low, close FROM "%s"."daily_candles"
		WHERE symbol = $1 AND token = $2
		ORDER BY trade_date DESC
		LIMIT 1
	`, d.Schema)

	var seed models.MSeedCandle
	err := d.DB.QueryRowContext(ctx, query, key.Symbol, key.Token).Scan(&seed.Open, &seed.High, &seed.Low, &seed.Close)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("postgres seed query for %s: %w", key, err)
	}
	return &seed, nil
}

// -----------------------------------------------------------------------------

// SaveDailyCandles upserts session candles in one transaction.
func (d *PostgresSeedStore) SaveDailyCandles(ctx context.Context, candles []models.MDailyCandle) error {
	if len(candles) == 0 {
		return nil
	}

	tx, err := d.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`
		INSERT INTO "%s"."daily_candles" (symbol, token, trade_date, open, high, low, close)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (symbol, token, trade_date) DO UPDATE SET
			open = EXCLUDED.open,
			high = EXCLUDED.high,
			low = EXCLUDED.low,
			close = EXCLUDED.close
	`, d.Schema)

	stmt, err := tx.PrepareContext(ctx, query)
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

func (d *PostgresSeedStore) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
