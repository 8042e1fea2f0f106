// Package main lists and searches saved journal entries without the interactive UI.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/thebtf/journalcoach/internal/config"
	"github.com/thebtf/journalcoach/internal/journal"
	"github.com/thebtf/journalcoach/pkg/models"
)

func main() {
	query := flag.String("query", "", "Only show entries containing this text (case-insensitive)")
	path := flag.String("path", "", "Journal file (default: the remembered one)")
	full := flag.Bool("full", false, "Print each entry in full instead of one line per entry")
	asJSON := flag.Bool("json", false, "Print matching entries as JSON lines")
	limit := flag.Int("limit", 0, "Show at most this many entries (0 = all)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true})

	paths := config.LoadPathStore(config.PathStorePath())
	if *path != "" {
		paths = config.NewPathStore(*path)
	}
	store := journal.NewStore(paths)
	if _, err := store.Path(); err != nil {
		log.Fatal().Err(err).Msg("No journal file: pass --path or choose one in journalcoach first")
	}

	records := journal.History(store.LoadAll(), *query)
	if *limit > 0 && len(records) > *limit {
		records = records[:*limit]
	}

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()
	if err := write(out, records, *full, *asJSON); err != nil {
		log.Fatal().Err(err).Msg("Failed to write output")
	}
}

func write(w io.Writer, records []models.Record, full, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		for _, rec := range records {
			if err := enc.Encode(rec); err != nil {
				return err
			}
		}
		return nil
	}

	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No matching entries.")
		return err
	}
	for i, rec := range records {
		var err error
		if full {
			if i > 0 {
				_, err = fmt.Fprintln(w)
			}
			if err == nil {
				_, err = fmt.Fprintln(w, rec.Detail())
			}
		} else {
			_, err = fmt.Fprintln(w, rec.Label())
		}
		if err != nil {
			return err
		}
	}
	return nil
}
