// Command labels relabels the trajectory or recognizer columns of a
// recording with one of the label filters and writes the result as a new
// column.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/banshee-data/gesture.report/internal/config"
	"github.com/banshee-data/gesture.report/internal/db"
	"github.com/banshee-data/gesture.report/internal/labels"
	"github.com/banshee-data/gesture.report/internal/recording"
	"github.com/banshee-data/gesture.report/internal/report"
	"github.com/banshee-data/gesture.report/internal/version"
)

// Label policies.
const (
	policyTransitions = "transitions"
	policySmart       = "smart"
	policyVGG         = "vgg"
	policyRecognition = "recognition"
)

var (
	inPath        = flag.String("in", "", "Input recording CSV")
	outPath       = flag.String("out", "", "Output CSV with the label column added")
	configPath    = flag.String("config", "", "Pipeline config JSON (missing keys use defaults)")
	policy        = flag.String("policy", policyTransitions, "Label filter: transitions, smart, vgg or recognition")
	trajectoryCol = flag.String("trajectory", "", "Trajectory column (default TRAJ_GT for transitions, TRAJ_1 otherwise)")
	recognizedCol = flag.String("recognized", "TRAJ_GT", "Recognized label column (smart, vgg, recognition)")
	gestureList   = flag.String("gestures", "", "Comma-separated gesture labels kept by the recognition policy")
	outputCol     = flag.String("column", "output_0", "Name of the label column to write")
	dropNegative  = flag.Bool("drop-negative", false, "Keep only rows whose new label is non-negative")
	chartPath     = flag.String("chart", "", "HTML label timeline to write (disabled when empty)")
	dbPath        = flag.String("db", "", "SQLite run store to record the run in (disabled when empty)")
	showVersion   = flag.Bool("version", false, "Print version and exit")
)

type options struct {
	in, out      string
	config       string
	policy       string
	trajectory   string
	recognized   string
	gestures     []int
	column       string
	dropNegative bool
	chart        string
	db           string
}

func main() {
	flag.Parse()
	if *showVersion {
		fmt.Println(version.String("labels"))
		return
	}
	if *inPath == "" || *outPath == "" {
		log.Fatalf("-in and -out must be provided")
	}
	gestures, err := parseGestures(*gestureList)
	if err != nil {
		log.Fatalf("invalid -gestures: %v", err)
	}

	opts := options{
		in:           *inPath,
		out:          *outPath,
		config:       *configPath,
		policy:       *policy,
		trajectory:   trajectoryColumn(*policy, *trajectoryCol),
		recognized:   *recognizedCol,
		gestures:     gestures,
		column:       *outputCol,
		dropNegative: *dropNegative,
		chart:        *chartPath,
		db:           *dbPath,
	}
	if err := run(opts); err != nil {
		log.Fatalf("labels: %v", err)
	}
}

// trajectoryColumn resolves the trajectory column for policy. The
// transitions policy marks margins on the ground-truth labels.
func trajectoryColumn(policy, col string) string {
	switch {
	case col != "":
		return col
	case policy == policyTransitions:
		return "TRAJ_GT"
	default:
		return "TRAJ_1"
	}
}

func parseGestures(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []int
	for _, field := range strings.Split(s, ",") {
		g, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

// relabel applies the named policy and returns the new sequence with the
// parameters it ran with.
func relabel(o options, cfg *config.Config, trajectory, recognized []int) ([]int, interface{}, error) {
	switch o.policy {
	case policyTransitions:
		m := cfg.Margins()
		return labels.FilterTransitions(trajectory, m), m, nil
	case policySmart:
		so := cfg.SmartOptions()
		seq, err := labels.FilterSmart(recognized, trajectory, so)
		return seq, so, err
	case policyVGG:
		vo := cfg.VGGOptions()
		seq, err := labels.VGGFilter(recognized, trajectory, vo)
		return seq, vo, err
	case policyRecognition:
		if len(o.gestures) == 0 {
			return nil, nil, fmt.Errorf("policy %s needs -gestures", o.policy)
		}
		ro := cfg.RecognitionOptions()
		seq, err := labels.FilterRecognition(recognized, trajectory, o.gestures, ro)
		params := struct {
			labels.RecognitionOptions
			Gestures []int `json:"gestures"`
		}{ro, o.gestures}
		return seq, params, err
	}
	return nil, nil, fmt.Errorf("unknown policy %q", o.policy)
}

func run(o options) error {
	cfg := config.EmptyConfig()
	if o.config != "" {
		var err error
		if cfg, err = config.Load(o.config); err != nil {
			return err
		}
	}

	table, err := recording.ReadFile(o.in)
	if err != nil {
		return err
	}
	trajectory, err := recording.IntColumn(table, o.trajectory)
	if err != nil {
		return err
	}
	var recognized []int
	if o.policy != policyTransitions {
		if recognized, err = recording.IntColumn(table, o.recognized); err != nil {
			return err
		}
	}

	seq, params, err := relabel(o, cfg, trajectory, recognized)
	if err != nil {
		return err
	}
	summary := labels.Summarize(seq)
	log.Printf("%s: %s", o.policy, summary)

	out := recording.WithIntColumn(table, o.column, seq)
	if o.dropNegative {
		keep := make([]bool, len(seq))
		for i, v := range seq {
			keep[i] = v >= 0
		}
		if out, err = out.Select(keep); err != nil {
			return err
		}
		log.Printf("kept %d of %d rows", out.Rows(), len(seq))
	}
	if err := recording.WriteFile(o.out, out); err != nil {
		return err
	}

	if o.chart != "" {
		if err := writeChart(o, table.Index, trajectory, recognized, seq); err != nil {
			return err
		}
		log.Printf("wrote %s", o.chart)
	}

	if o.db != "" {
		store, err := db.Open(o.db)
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		defer store.Close()
		runID, err := store.RecordLabelRun(o.in, o.policy, params, summary)
		if err != nil {
			return err
		}
		log.Printf("recorded run %s in %s", runID, o.db)
	}
	return nil
}

func writeChart(o options, index []float64, trajectory, recognized, seq []int) error {
	series := []report.LabelSeries{{Name: o.trajectory, Labels: trajectory}}
	if recognized != nil {
		series = append(series, report.LabelSeries{Name: o.recognized, Labels: recognized})
	}
	series = append(series, report.LabelSeries{Name: o.column, Labels: seq})

	f, err := os.Create(o.chart)
	if err != nil {
		return err
	}
	err = report.RenderTimeline(f, index, series, report.TimelineOptions{
		Title:    fmt.Sprintf("%s labels", o.policy),
		Subtitle: o.in,
	})
	if err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
