// Command condition removes power-line interference from the EMG channels of
// a recording and band-limits them, writing the conditioned recording as CSV.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/banshee-data/gesture.report/internal/conditioning"
	"github.com/banshee-data/gesture.report/internal/config"
	"github.com/banshee-data/gesture.report/internal/db"
	"github.com/banshee-data/gesture.report/internal/recording"
	"github.com/banshee-data/gesture.report/internal/report"
	"github.com/banshee-data/gesture.report/internal/version"
)

var (
	inPath      = flag.String("in", "", "Input recording CSV")
	outPath     = flag.String("out", "", "Output CSV for the conditioned recording")
	configPath  = flag.String("config", "", "Pipeline config JSON (missing keys use defaults)")
	plotDir     = flag.String("plots", "", "Directory for before/after spectrum plots (disabled when empty)")
	dbPath      = flag.String("db", "", "SQLite run store to record the run in (disabled when empty)")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

type options struct {
	in, out string
	config  string
	plots   string
	db      string
}

func main() {
	flag.Parse()
	if *showVersion {
		fmt.Println(version.String("condition"))
		return
	}
	if *inPath == "" || *outPath == "" {
		log.Fatalf("-in and -out must be provided")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	opts := options{in: *inPath, out: *outPath, config: *configPath, plots: *plotDir, db: *dbPath}
	if err := run(ctx, opts); err != nil {
		log.Fatalf("condition: %v", err)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.EmptyConfig(), nil
	}
	return config.Load(path)
}

func run(ctx context.Context, o options) error {
	cfg, err := loadConfig(o.config)
	if err != nil {
		return err
	}
	params := cfg.Conditioning()
	pipeline, err := conditioning.New(params)
	if err != nil {
		return err
	}

	table, err := recording.ReadFile(o.in)
	if err != nil {
		return err
	}
	log.Printf("read %s: %d rows, %d columns", o.in, table.Rows(), len(table.Columns))

	out, rep, err := pipeline.ApplyToTable(ctx, table)
	if err != nil {
		return err
	}
	for _, ch := range rep.Channels {
		log.Printf("%s: rms %.4g -> %.4g (%d windows, %d nonconverged)",
			ch.Name, ch.RMSBefore, ch.RMSAfter, ch.Windows, ch.Nonconverged)
	}

	if err := recording.WriteFile(o.out, out); err != nil {
		return err
	}
	log.Printf("wrote %s", o.out)

	if o.plots != "" {
		names := make([]string, len(rep.Channels))
		for i, ch := range rep.Channels {
			names[i] = ch.Name
		}
		segment := min(report.DefaultSegment, table.Rows())
		paths, err := report.WritePSDPlots(o.plots, table, out, names, params.SampleRate, segment)
		if err != nil {
			return err
		}
		log.Printf("wrote %d spectrum plots to %s", len(paths), o.plots)
	}

	if o.db != "" {
		store, err := db.Open(o.db)
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		defer store.Close()
		runID, err := store.RecordConditioningRun(o.in, params, rep)
		if err != nil {
			return err
		}
		log.Printf("recorded run %s in %s", runID, o.db)
	}
	return nil
}
