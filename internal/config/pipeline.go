package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/gesture.report/internal/conditioning"
	"github.com/banshee-data/gesture.report/internal/dsp"
	"github.com/banshee-data/gesture.report/internal/labels"
)

// DefaultConfigPath is the path to the canonical pipeline defaults file.
const DefaultConfigPath = "config/pipeline.defaults.json"

// Config holds every tunable of the conditioning and labeling tools. The
// schema is flat; fields omitted from a file fall back to the Get* defaults.
type Config struct {
	// Conditioning
	WindowSeconds        *float64  `json:"window_seconds,omitempty"`
	SampleRateHz         *float64  `json:"sample_rate_hz,omitempty"`
	NotchFrequenciesHz   []float64 `json:"notch_frequencies_hz,omitempty"`
	LowCutHz             *float64  `json:"low_cut_hz,omitempty"`
	HighCutHz            *float64  `json:"high_cut_hz,omitempty"`
	FilterOrder          *int      `json:"filter_order,omitempty"`
	ChannelMarker        *string   `json:"channel_marker,omitempty"`
	Parallelism          *int      `json:"parallelism,omitempty"`
	FrequencyToleranceHz *float64  `json:"frequency_tolerance_hz,omitempty"`
	GradientTolerance    *float64  `json:"gradient_tolerance,omitempty"`
	MaxIterations        *int      `json:"max_iterations,omitempty"`
	Stages               []string  `json:"stages,omitempty"`

	// Segmentation
	StartBefore *int `json:"start_before,omitempty"`
	StartAfter  *int `json:"start_after,omitempty"`
	EndBefore   *int `json:"end_before,omitempty"`
	EndAfter    *int `json:"end_after,omitempty"`
	PauseBefore *int `json:"pause_before,omitempty"`
	PauseAfter  *int `json:"pause_after,omitempty"`

	// Recognition filtering
	MedianKernelSmart *int `json:"median_kernel_smart,omitempty"`
	ToleranceBackward *int `json:"tolerance_backward,omitempty"`
	ToleranceForward  *int `json:"tolerance_forward,omitempty"`
	MinIdlePeriod     *int `json:"min_idle_period,omitempty"`
	MedianKernelVGG   *int `json:"median_kernel_vgg,omitempty"`
	ToleranceEarly    *int `json:"tolerance_early,omitempty"`
	ToleranceLate     *int `json:"tolerance_late,omitempty"`
	MarginLeft        *int `json:"margin_left,omitempty"`
	MarginRight       *int `json:"margin_right,omitempty"`
}

// EmptyConfig returns a Config with all fields unset.
func EmptyConfig() *Config {
	return &Config{}
}

// Load loads a Config from a JSON file.
// The file must have a .json extension and be at most 1MB.
// Fields omitted from the JSON file keep their defaults, so partial configs
// are safe.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks the values that are set.
func (c *Config) Validate() error {
	if c.SampleRateHz != nil && !(*c.SampleRateHz > 0) {
		return fmt.Errorf("sample_rate_hz must be positive, got %g", *c.SampleRateHz)
	}
	if c.WindowSeconds != nil && !(*c.WindowSeconds > 0) {
		return fmt.Errorf("window_seconds must be positive, got %g", *c.WindowSeconds)
	}
	for _, f := range c.NotchFrequenciesHz {
		if !(f > 0) {
			return fmt.Errorf("notch_frequencies_hz must be positive, got %g", f)
		}
	}
	if c.LowCutHz != nil && c.HighCutHz != nil && *c.LowCutHz >= *c.HighCutHz {
		return fmt.Errorf("low_cut_hz %g must be below high_cut_hz %g", *c.LowCutHz, *c.HighCutHz)
	}
	if c.FilterOrder != nil && *c.FilterOrder < 1 {
		return fmt.Errorf("filter_order must be at least 1, got %d", *c.FilterOrder)
	}
	if c.ChannelMarker != nil && *c.ChannelMarker == "" {
		return fmt.Errorf("channel_marker must not be empty")
	}
	if c.Parallelism != nil && *c.Parallelism < 1 {
		return fmt.Errorf("parallelism must be at least 1, got %d", *c.Parallelism)
	}
	if c.FrequencyToleranceHz != nil && !(*c.FrequencyToleranceHz > 0) {
		return fmt.Errorf("frequency_tolerance_hz must be positive, got %g", *c.FrequencyToleranceHz)
	}
	if c.GradientTolerance != nil && !(*c.GradientTolerance > 0) {
		return fmt.Errorf("gradient_tolerance must be positive, got %g", *c.GradientTolerance)
	}
	for _, s := range c.Stages {
		if _, err := conditioning.ParseStageKind(s); err != nil {
			return err
		}
	}

	frames := map[string]*int{
		"start_before": c.StartBefore, "start_after": c.StartAfter,
		"end_before": c.EndBefore, "end_after": c.EndAfter,
		"pause_before": c.PauseBefore, "pause_after": c.PauseAfter,
		"tolerance_backward": c.ToleranceBackward, "tolerance_forward": c.ToleranceForward,
		"min_idle_period": c.MinIdlePeriod,
		"tolerance_early": c.ToleranceEarly, "tolerance_late": c.ToleranceLate,
		"margin_left": c.MarginLeft, "margin_right": c.MarginRight,
	}
	for name, v := range frames {
		if v != nil && *v < 0 {
			return fmt.Errorf("%s must be non-negative, got %d", name, *v)
		}
	}
	for name, v := range map[string]*int{"median_kernel_smart": c.MedianKernelSmart, "median_kernel_vgg": c.MedianKernelVGG} {
		if v != nil && (*v < 1 || *v%2 == 0) {
			return fmt.Errorf("%s must be positive and odd, got %d", name, *v)
		}
	}
	return nil
}

func getFloat(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

func getInt(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

// GetWindowSeconds returns the window_seconds value or the default.
func (c *Config) GetWindowSeconds() float64 {
	return getFloat(c.WindowSeconds, dsp.DefaultWindowSeconds)
}

// GetSampleRateHz returns the sample_rate_hz value or the default.
func (c *Config) GetSampleRateHz() float64 {
	return getFloat(c.SampleRateHz, dsp.DefaultSampleRate)
}

// GetNotchFrequenciesHz returns the notch_frequencies_hz value or the default.
func (c *Config) GetNotchFrequenciesHz() []float64 {
	if len(c.NotchFrequenciesHz) == 0 {
		return append([]float64(nil), dsp.DefaultNotchFrequencies...)
	}
	return append([]float64(nil), c.NotchFrequenciesHz...)
}

// GetLowCutHz returns the low_cut_hz value or the default.
func (c *Config) GetLowCutHz() float64 { return getFloat(c.LowCutHz, 20) }

// GetHighCutHz returns the high_cut_hz value or the default.
func (c *Config) GetHighCutHz() float64 { return getFloat(c.HighCutHz, 700) }

// GetFilterOrder returns the filter_order value or the default.
func (c *Config) GetFilterOrder() int { return getInt(c.FilterOrder, dsp.DefaultFilterOrder) }

// GetChannelMarker returns the channel_marker value or the default.
func (c *Config) GetChannelMarker() string {
	if c.ChannelMarker == nil {
		return "EMG"
	}
	return *c.ChannelMarker
}

// GetParallelism returns the parallelism value or the default.
func (c *Config) GetParallelism() int { return getInt(c.Parallelism, 1) }

// GetFrequencyToleranceHz returns the frequency_tolerance_hz value or the default.
func (c *Config) GetFrequencyToleranceHz() float64 {
	return getFloat(c.FrequencyToleranceHz, dsp.DefaultFreqTolerance)
}

// GetGradientTolerance returns the gradient_tolerance value or the default.
func (c *Config) GetGradientTolerance() float64 {
	return getFloat(c.GradientTolerance, dsp.DefaultGradientTolerance)
}

// GetMaxIterations returns the max_iterations value or the default.
func (c *Config) GetMaxIterations() int { return getInt(c.MaxIterations, dsp.DefaultMaxIterations) }

// GetStages returns the conditioning stage order or the default. Names are
// checked by Validate; unknown names are skipped here.
func (c *Config) GetStages() []conditioning.StageKind {
	if len(c.Stages) == 0 {
		return conditioning.DefaultStages()
	}
	var out []conditioning.StageKind
	for _, s := range c.Stages {
		if k, err := conditioning.ParseStageKind(s); err == nil {
			out = append(out, k)
		}
	}
	return out
}

// Conditioning returns the conditioning pipeline configuration.
func (c *Config) Conditioning() conditioning.Config {
	return conditioning.Config{
		SampleRate:        c.GetSampleRateHz(),
		WindowSeconds:     c.GetWindowSeconds(),
		NotchFrequencies:  c.GetNotchFrequenciesHz(),
		LowCut:            c.GetLowCutHz(),
		HighCut:           c.GetHighCutHz(),
		FilterOrder:       c.GetFilterOrder(),
		ChannelMarker:     c.GetChannelMarker(),
		Parallelism:       c.GetParallelism(),
		FreqTolerance:     c.GetFrequencyToleranceHz(),
		GradientTolerance: c.GetGradientTolerance(),
		MaxIterations:     c.GetMaxIterations(),
		Stages:            c.GetStages(),
	}
}

// Margins returns the trajectory segmentation margins. They default to 0.
func (c *Config) Margins() labels.Margins {
	return labels.Margins{
		StartBefore: getInt(c.StartBefore, 0),
		StartAfter:  getInt(c.StartAfter, 0),
		EndBefore:   getInt(c.EndBefore, 0),
		EndAfter:    getInt(c.EndAfter, 0),
		PauseBefore: getInt(c.PauseBefore, 0),
		PauseAfter:  getInt(c.PauseAfter, 0),
	}
}

// SmartOptions returns the FilterSmart options.
func (c *Config) SmartOptions() labels.SmartOptions {
	d := labels.DefaultSmartOptions()
	return labels.SmartOptions{
		MedianKernel:      getInt(c.MedianKernelSmart, d.MedianKernel),
		ToleranceBackward: getInt(c.ToleranceBackward, d.ToleranceBackward),
		ToleranceForward:  getInt(c.ToleranceForward, d.ToleranceForward),
		MinIdlePeriod:     getInt(c.MinIdlePeriod, d.MinIdlePeriod),
	}
}

// VGGOptions returns the VGGFilter options.
func (c *Config) VGGOptions() labels.VGGOptions {
	d := labels.DefaultVGGOptions()
	return labels.VGGOptions{
		MedianKernel:   getInt(c.MedianKernelVGG, d.MedianKernel),
		ToleranceEarly: getInt(c.ToleranceEarly, d.ToleranceEarly),
		ToleranceLate:  getInt(c.ToleranceLate, d.ToleranceLate),
	}
}

// RecognitionOptions returns the FilterRecognition options.
func (c *Config) RecognitionOptions() labels.RecognitionOptions {
	d := labels.DefaultRecognitionOptions()
	return labels.RecognitionOptions{
		MarginLeft:  getInt(c.MarginLeft, d.MarginLeft),
		MarginRight: getInt(c.MarginRight, d.MarginRight),
	}
}
