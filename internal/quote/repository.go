package quote

import (
	"database/sql"
	"fmt"
	"time"
)

// Repository persists end-of-day bars in postgres. The schema is a
// single table:
//
//	CREATE TABLE eod_quote (
//	    symbol TEXT NOT NULL,
//	    date DATE NOT NULL,
//	    open DOUBLE PRECISION NOT NULL,
//	    high DOUBLE PRECISION NOT NULL,
//	    low DOUBLE PRECISION NOT NULL,
//	    close DOUBLE PRECISION NOT NULL,
//	    volume BIGINT NOT NULL,
//	    PRIMARY KEY (symbol, date)
//	);
type Repository interface {
	Add(tx *sql.Tx, bars []EOD) error
	List(tx *sql.Tx, start, end time.Time) ([]EOD, error)
	LoadStore(tx *sql.Tx, start, end time.Time) (*Store, error)
}

func NewRepository() Repository {
	return repositoryHandler{}
}

type repositoryHandler struct{}

func (h repositoryHandler) Add(tx *sql.Tx, bars []EOD) error {
	stmt, err := tx.Prepare(`
		INSERT INTO eod_quote (symbol, date, open, high, low, close, volume)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (symbol, date) DO UPDATE SET
			open = EXCLUDED.open,
			high = EXCLUDED.high,
			low = EXCLUDED.low,
			close = EXCLUDED.close,
			volume = EXCLUDED.volume
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare quote insert: %w", err)
	}
	defer stmt.Close()

	for _, b := range bars {
		_, err := stmt.Exec(b.Symbol, b.Date, b.Open, b.High, b.Low, b.Close, b.Volume)
		if err != nil {
			return fmt.Errorf("failed to add quote %s %s to db: %w", b.Symbol, b.Date.Format(time.DateOnly), err)
		}
	}

	return nil
}

func (h repositoryHandler) List(tx *sql.Tx, start, end time.Time) ([]EOD, error) {
	rows, err := tx.Query(`
		SELECT symbol, date, open, high, low, close, volume
		FROM eod_quote
		WHERE date >= $1 AND date <= $2
		ORDER BY date, symbol
	`, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list quotes from db: %w", err)
	}
	defer rows.Close()

	bars := []EOD{}
	for rows.Next() {
		var b EOD
		err := rows.Scan(&b.Symbol, &b.Date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume)
		if err != nil {
			return nil, fmt.Errorf("failed to scan quote row: %w", err)
		}
		bars = append(bars, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read quote rows: %w", err)
	}

	return bars, nil
}

// LoadStore reads the requested date range into an in-memory Store so
// the simulation never touches the database mid-run.
func (h repositoryHandler) LoadStore(tx *sql.Tx, start, end time.Time) (*Store, error) {
	bars, err := h.List(tx, start, end)
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("no quotes in db between %s and %s", start.Format(time.DateOnly), end.Format(time.DateOnly))
	}
	return NewStore(bars), nil
}
