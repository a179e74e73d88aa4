package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/banshee-data/gesture.report/internal/conditioning"
	"github.com/banshee-data/gesture.report/internal/labels"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	return path
}

func TestGetterDefaults(t *testing.T) {
	cfg := EmptyConfig()

	if got := cfg.GetWindowSeconds(); got != 10 {
		t.Errorf("GetWindowSeconds() = %v, want 10", got)
	}
	if got := cfg.GetSampleRateHz(); got != 5124.07211903 {
		t.Errorf("GetSampleRateHz() = %v, want 5124.07211903", got)
	}
	if diff := cmp.Diff([]float64{30, 49.99, 60, 90, 150}, cfg.GetNotchFrequenciesHz()); diff != "" {
		t.Errorf("GetNotchFrequenciesHz() mismatch (-want +got):\n%s", diff)
	}
	if got := cfg.GetLowCutHz(); got != 20 {
		t.Errorf("GetLowCutHz() = %v, want 20", got)
	}
	if got := cfg.GetHighCutHz(); got != 700 {
		t.Errorf("GetHighCutHz() = %v, want 700", got)
	}
	if got := cfg.GetFilterOrder(); got != 5 {
		t.Errorf("GetFilterOrder() = %d, want 5", got)
	}
	if got := cfg.GetChannelMarker(); got != "EMG" {
		t.Errorf("GetChannelMarker() = %q, want EMG", got)
	}
	if got := cfg.GetParallelism(); got != 1 {
		t.Errorf("GetParallelism() = %d, want 1", got)
	}
	if got := cfg.GetFrequencyToleranceHz(); got != 0.01 {
		t.Errorf("GetFrequencyToleranceHz() = %v, want 0.01", got)
	}
	if got := cfg.GetGradientTolerance(); got != 1e-6 {
		t.Errorf("GetGradientTolerance() = %v, want 1e-6", got)
	}

	if diff := cmp.Diff(labels.Margins{}, cfg.Margins()); diff != "" {
		t.Errorf("Margins() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(labels.DefaultSmartOptions(), cfg.SmartOptions()); diff != "" {
		t.Errorf("SmartOptions() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(labels.DefaultVGGOptions(), cfg.VGGOptions()); diff != "" {
		t.Errorf("VGGOptions() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(labels.DefaultRecognitionOptions(), cfg.RecognitionOptions()); diff != "" {
		t.Errorf("RecognitionOptions() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(conditioning.DefaultConfig(), cfg.Conditioning()); diff != "" {
		t.Errorf("Conditioning() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadDefaultConfigFile(t *testing.T) {
	cfg, err := Load("../../" + DefaultConfigPath)
	if err != nil {
		t.Fatalf("Failed to load defaults: %v", err)
	}
	// The defaults file and the getter defaults must agree.
	if diff := cmp.Diff(EmptyConfig().Conditioning(), cfg.Conditioning()); diff != "" {
		t.Errorf("conditioning defaults drift (-getters +file):\n%s", diff)
	}
	if diff := cmp.Diff(EmptyConfig().SmartOptions(), cfg.SmartOptions()); diff != "" {
		t.Errorf("smart defaults drift (-getters +file):\n%s", diff)
	}
	if diff := cmp.Diff(EmptyConfig().VGGOptions(), cfg.VGGOptions()); diff != "" {
		t.Errorf("vgg defaults drift (-getters +file):\n%s", diff)
	}
	if diff := cmp.Diff(EmptyConfig().RecognitionOptions(), cfg.RecognitionOptions()); diff != "" {
		t.Errorf("recognition defaults drift (-getters +file):\n%s", diff)
	}
	if diff := cmp.Diff(EmptyConfig().Margins(), cfg.Margins()); diff != "" {
		t.Errorf("margin defaults drift (-getters +file):\n%s", diff)
	}
}

func TestLoadExampleConfigFile(t *testing.T) {
	cfg, err := Load("../../config/pipeline.example.json")
	if err != nil {
		t.Fatalf("Failed to load example: %v", err)
	}
	cc := cfg.Conditioning()
	if cc.WindowSeconds != 5 {
		t.Errorf("Expected window 5, got %v", cc.WindowSeconds)
	}
	if cc.HighCut != 500 || cc.LowCut != 20 {
		t.Errorf("Expected pass band [20, 500], got [%v, %v]", cc.LowCut, cc.HighCut)
	}
	if cc.Parallelism != 4 {
		t.Errorf("Expected parallelism 4, got %d", cc.Parallelism)
	}
	want := labels.Margins{StartBefore: 3, StartAfter: 3, EndBefore: 3, EndAfter: 3, PauseBefore: 2}
	if diff := cmp.Diff(want, cfg.Margins()); diff != "" {
		t.Errorf("Margins() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadPartial(t *testing.T) {
	path := writeConfig(t, "partial.json", `{
  "high_cut_hz": 450,
  "min_idle_period": 11,
  "stages": ["bandpass"]
}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load partial config: %v", err)
	}
	if got := cfg.GetHighCutHz(); got != 450 {
		t.Errorf("Expected overridden high cut 450, got %v", got)
	}
	if got := cfg.GetLowCutHz(); got != 20 {
		t.Errorf("Expected default low cut 20, got %v", got)
	}
	if got := cfg.SmartOptions().MinIdlePeriod; got != 11 {
		t.Errorf("Expected overridden min idle period 11, got %d", got)
	}
	if got := cfg.SmartOptions().MedianKernel; got != 5 {
		t.Errorf("Expected default median kernel 5, got %d", got)
	}
	if diff := cmp.Diff([]conditioning.StageKind{conditioning.StageBandpass}, cfg.GetStages()); diff != "" {
		t.Errorf("GetStages() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := Load("/nonexistent/path/to/config.json"); err == nil {
		t.Error("Expected error when loading missing file, got nil")
	}
}

func TestLoadInvalidJSON(t *testing.T) {
	path := writeConfig(t, "invalid.json", `{"low_cut_hz": "twenty"`)
	if _, err := Load(path); err == nil {
		t.Error("Expected error when loading invalid JSON, got nil")
	}
}

func TestLoadRejectsNonJSON(t *testing.T) {
	_, err := Load("/some/path/config.yaml")
	if err == nil || !strings.Contains(err.Error(), ".json") {
		t.Errorf("Expected .json extension error, got %v", err)
	}
}

func TestLoadRejectsLargeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "large.json")
	if err := os.WriteFile(path, make([]byte, 2*1024*1024), 0644); err != nil {
		t.Fatalf("Failed to write large file: %v", err)
	}
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "too large") {
		t.Errorf("Expected size error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"valid", `{"filter_order": 4, "median_kernel_vgg": 9}`, ""},
		{"negative rate", `{"sample_rate_hz": -1}`, "sample_rate_hz"},
		{"zero window", `{"window_seconds": 0}`, "window_seconds"},
		{"negative notch", `{"notch_frequencies_hz": [50, -60]}`, "notch_frequencies_hz"},
		{"unordered cutoffs", `{"low_cut_hz": 300, "high_cut_hz": 200}`, "low_cut_hz"},
		{"zero order", `{"filter_order": 0}`, "filter_order"},
		{"empty marker", `{"channel_marker": ""}`, "channel_marker"},
		{"zero parallelism", `{"parallelism": 0}`, "parallelism"},
		{"zero tolerance", `{"frequency_tolerance_hz": 0}`, "frequency_tolerance_hz"},
		{"unknown stage", `{"stages": ["notch", "lowpass"]}`, "lowpass"},
		{"negative margin", `{"end_after": -2}`, "end_after"},
		{"even kernel", `{"median_kernel_smart": 4}`, "median_kernel_smart"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, "cfg.json", tt.body))
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error mentioning %q, got %v", tt.wantErr, err)
			}
		})
	}
}
