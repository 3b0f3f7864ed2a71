package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"papertrade/internal/logger"
	"papertrade/internal/quote"
)

var ingestFlags struct {
	symbols []string
	from    string
	to      string
	out     string
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Download daily OHLCV history into a csv file or postgres",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logger.New()
		defer log.Sync()

		from, to, err := parseDateRange(ingestFlags.from, ingestFlags.to)
		if err != nil {
			return err
		}

		bars, err := quote.IngestHistories(ingestFlags.symbols, from, to)
		if err != nil {
			// partial data is still worth keeping; report after writing
			log.Warnw("ingest incomplete", "err", err)
		}
		if len(bars) == 0 {
			return fmt.Errorf("no bars ingested")
		}

		if ingestFlags.out != "" {
			f, err := os.Create(ingestFlags.out)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", ingestFlags.out, err)
			}
			defer f.Close()
			if err := quote.WriteCSV(f, bars); err != nil {
				return err
			}
			log.Infow("wrote quote history", "file", ingestFlags.out, "bars", len(bars))
			return nil
		}

		db, err := openDb()
		if err != nil {
			return err
		}
		defer db.Close()
		tx, err := db.Begin()
		if err != nil {
			return err
		}
		if err := quote.NewRepository().Add(tx, bars); err != nil {
			tx.Rollback()
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		log.Infow("stored quote history", "bars", len(bars))
		return nil
	},
}

func init() {
	f := ingestCmd.Flags()
	f.StringSliceVar(&ingestFlags.symbols, "symbols", nil, "symbols to download (repeatable or comma separated)")
	f.StringVar(&ingestFlags.from, "from", "", "first day (YYYY-MM-DD)")
	f.StringVar(&ingestFlags.to, "to", time.Now().UTC().Format(time.DateOnly), "last day (YYYY-MM-DD)")
	f.StringVar(&ingestFlags.out, "out", "", "write to this csv file instead of postgres")
	ingestCmd.MarkFlagRequired("symbols")
}
