package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/gesture.report/internal/conditioning"
	"github.com/banshee-data/gesture.report/internal/labels"
)

// Run kinds.
const (
	KindConditioning = "conditioning"
	KindLabels       = "labels"
)

// Run is one recorded invocation of a pipeline.
type Run struct {
	RunID     string          `json:"run_id"`
	Kind      string          `json:"kind"`
	Source    string          `json:"source"`
	Params    json.RawMessage `json:"params"`
	StartedAt time.Time       `json:"started_at"`
	Elapsed   time.Duration   `json:"elapsed"`
}

// ChannelStat is the stored conditioning outcome of one channel.
type ChannelStat struct {
	RunID        string  `json:"run_id"`
	Channel      string  `json:"channel"`
	RMSBefore    float64 `json:"rms_before"`
	RMSAfter     float64 `json:"rms_after"`
	Windows      int     `json:"windows"`
	Nonconverged int     `json:"nonconverged"`
}

// LabelStat is the number of frames carrying one label after a filter run.
type LabelStat struct {
	RunID  string `json:"run_id"`
	Policy string `json:"policy"`
	Label  int    `json:"label"`
	Frames int    `json:"frames"`
}

// RecordConditioningRun stores a conditioning report with its parameters and
// returns the new run id.
func (db *DB) RecordConditioningRun(source string, params interface{}, rep conditioning.Report) (string, error) {
	tx, runID, err := db.beginRun(KindConditioning, source, params, rep.Elapsed)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO channel_stats (run_id, channel, rms_before, rms_after, windows, nonconverged)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare channel insert: %w", err)
	}
	defer stmt.Close()

	for _, ch := range rep.Channels {
		if _, err := stmt.Exec(runID, ch.Name, ch.RMSBefore, ch.RMSAfter, ch.Windows, ch.Nonconverged); err != nil {
			return "", fmt.Errorf("failed to insert channel %s: %w", ch.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run: %w", err)
	}
	return runID, nil
}

// RecordLabelRun stores the label counts of a filter run and returns the new
// run id.
func (db *DB) RecordLabelRun(source, policy string, params interface{}, summary labels.Summary) (string, error) {
	tx, runID, err := db.beginRun(KindLabels, source, params, 0)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO label_stats (run_id, policy, label, frames) VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare label insert: %w", err)
	}
	defer stmt.Close()

	for _, label := range summary.Labels() {
		if _, err := stmt.Exec(runID, policy, label, summary.Counts[label]); err != nil {
			return "", fmt.Errorf("failed to insert label %d: %w", label, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run: %w", err)
	}
	return runID, nil
}

func (db *DB) beginRun(kind, source string, params interface{}, elapsed time.Duration) (*sql.Tx, string, error) {
	if params == nil {
		params = struct{}{}
	}
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode run params: %w", err)
	}

	runID := uuid.NewString()
	startedAt := db.clock.Now().Add(-elapsed)

	tx, err := db.Begin()
	if err != nil {
		return nil, "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	_, err = tx.Exec(`
		INSERT INTO runs (run_id, kind, source, params_json, started_at, elapsed_ms)
		VALUES (?, ?, ?, ?, ?, ?)
	`, runID, kind, source, string(paramsJSON), startedAt.UnixNano(), elapsed.Milliseconds())
	if err != nil {
		tx.Rollback()
		return nil, "", fmt.Errorf("failed to insert run: %w", err)
	}
	return tx, runID, nil
}

// Runs returns every recorded run, most recent first.
func (db *DB) Runs() ([]Run, error) {
	rows, err := db.Query(`
		SELECT run_id, kind, source, params_json, started_at, elapsed_ms
		FROM runs
		ORDER BY started_at DESC, run_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var params string
		var startedAt, elapsedMs int64
		if err := rows.Scan(&r.RunID, &r.Kind, &r.Source, &params, &startedAt, &elapsedMs); err != nil {
			return nil, err
		}
		r.Params = json.RawMessage(params)
		r.StartedAt = time.Unix(0, startedAt).UTC()
		r.Elapsed = time.Duration(elapsedMs) * time.Millisecond
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// ChannelStats returns the channel outcomes of a conditioning run in channel
// order.
func (db *DB) ChannelStats(runID string) ([]ChannelStat, error) {
	rows, err := db.Query(`
		SELECT run_id, channel, rms_before, rms_after, windows, nonconverged
		FROM channel_stats
		WHERE run_id = ?
		ORDER BY rowid
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []ChannelStat
	for rows.Next() {
		var s ChannelStat
		if err := rows.Scan(&s.RunID, &s.Channel, &s.RMSBefore, &s.RMSAfter, &s.Windows, &s.Nonconverged); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// LabelStats returns the label counts of a labelling run in ascending label
// order.
func (db *DB) LabelStats(runID string) ([]LabelStat, error) {
	rows, err := db.Query(`
		SELECT run_id, policy, label, frames
		FROM label_stats
		WHERE run_id = ?
		ORDER BY label
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []LabelStat
	for rows.Next() {
		var s LabelStat
		if err := rows.Scan(&s.RunID, &s.Policy, &s.Label, &s.Frames); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}
