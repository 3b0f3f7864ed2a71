package main

import (
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"papertrade/internal/quote"
	"papertrade/internal/rule"
	"papertrade/internal/sim"
)

type dbConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SslMode  string
}

func loadDbConfig() dbConfig {
	cfg := dbConfig{
		Host:     os.Getenv("PAPERTRADE_DB_HOST"),
		Port:     os.Getenv("PAPERTRADE_DB_PORT"),
		User:     os.Getenv("PAPERTRADE_DB_USER"),
		Password: os.Getenv("PAPERTRADE_DB_PASSWORD"),
		Database: os.Getenv("PAPERTRADE_DB_NAME"),
		SslMode:  os.Getenv("PAPERTRADE_DB_SSLMODE"),
	}
	if cfg.Port == "" {
		cfg.Port = "5432"
	}
	if cfg.SslMode == "" {
		cfg.SslMode = "disable"
	}
	return cfg
}

func (c dbConfig) connectionStr() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SslMode)
}

func openDb() (*sql.DB, error) {
	cfg := loadDbConfig()
	if cfg.Host == "" {
		return nil, fmt.Errorf("PAPERTRADE_DB_HOST is not set")
	}
	db, err := sql.Open("postgres", cfg.connectionStr())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to db: %w", err)
	}
	return db, nil
}

// loadStore resolves the quote source for a run: a CSV file when
// --csv is given, otherwise the postgres quote table.
func loadStore(csvPath, fromStr, toStr string) (*quote.Store, error) {
	if csvPath != "" {
		return quote.LoadCSVFile(csvPath)
	}

	from, to, err := parseDateRange(fromStr, toStr)
	if err != nil {
		return nil, err
	}

	db, err := openDb()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	tx, err := db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	return quote.NewRepository().LoadStore(tx, from, to)
}

func parseDateRange(fromStr, toStr string) (time.Time, time.Time, error) {
	from := time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Now().UTC()
	var err error
	if fromStr != "" {
		from, err = time.Parse(time.DateOnly, fromStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("failed to parse --from: %w", err)
		}
	}
	if toStr != "" {
		to, err = time.Parse(time.DateOnly, toStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("failed to parse --to: %w", err)
		}
	}
	return from, to, nil
}

// dayRange maps the optional --from/--to dates onto the store's day
// offsets. The last covered day is reserved for trade execution, so
// the default range ends one day short.
func dayRange(store *quote.Store, fromStr, toStr string) (int, int, error) {
	start := 0
	end := store.Days() - 1
	if fromStr != "" {
		from, err := time.Parse(time.DateOnly, fromStr)
		if err != nil {
			return 0, 0, fmt.Errorf("failed to parse --from: %w", err)
		}
		start, err = store.DateToOffset(from)
		if err != nil {
			return 0, 0, err
		}
	}
	if toStr != "" {
		to, err := time.Parse(time.DateOnly, toStr)
		if err != nil {
			return 0, 0, fmt.Errorf("failed to parse --to: %w", err)
		}
		end, err = store.DateToOffset(to)
		if err != nil {
			return 0, 0, err
		}
	}
	return start, end, nil
}

// buildComparator parses the --order flag: an order key name, or
// "rule:<expression>" for ordering by a rule's value.
func buildComparator(store *quote.Store, orderFlag string, log *zap.SugaredLogger) (*sim.OrderComparator, error) {
	if strings.HasPrefix(orderFlag, "rule:") {
		r, err := rule.New(strings.TrimPrefix(orderFlag, "rule:"))
		if err != nil {
			return nil, err
		}
		return sim.NewRuleOrderComparator(store, r, log), nil
	}
	key, err := sim.ParseOrderKey(orderFlag)
	if err != nil {
		return nil, err
	}
	return sim.NewOrderComparator(store, key), nil
}
