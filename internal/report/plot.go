package report

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/gesture.report/internal/conditioning"
)

// floorDB bounds the plotted density so empty bins stay drawable.
const floorDB = -200

var (
	rawColor         = color.RGBA{R: 0x99, G: 0x99, B: 0x99, A: 0xff}
	conditionedColor = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
)

// PlotPSD writes a before/after spectrum plot to path. The image format
// follows the file extension.
func PlotPSD(path, title string, before, after PSD) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Frequency (Hz)"
	p.Y.Label.Text = "Power (dB/Hz)"
	p.Add(plotter.NewGrid())

	series := []struct {
		name  string
		psd   PSD
		color color.Color
	}{
		{"raw", before, rawColor},
		{"conditioned", after, conditionedColor},
	}
	for _, s := range series {
		if len(s.psd.Freqs) == 0 {
			continue
		}
		db := s.psd.Decibels(floorDB)
		pts := make(plotter.XYs, len(db))
		for k := range db {
			pts[k] = plotter.XY{X: s.psd.Freqs[k], Y: db[k]}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("failed to build %s line: %w", s.name, err)
		}
		line.Color = s.color
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(s.name, line)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	if err := p.Save(14*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save plot %s: %w", path, err)
	}
	return nil
}

// WritePSDPlots writes one PNG per named channel comparing its spectrum in
// before and after. It returns the paths written.
func WritePSDPlots(dir string, before, after conditioning.Table, channels []string, rate float64, segment int) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create plot directory: %w", err)
	}
	var paths []string
	for _, name := range channels {
		raw, ok := before.Column(name)
		if !ok {
			return paths, fmt.Errorf("channel %s missing from input table", name)
		}
		clean, ok := after.Column(name)
		if !ok {
			return paths, fmt.Errorf("channel %s missing from conditioned table", name)
		}
		rawPSD, err := Welch(raw.Values, rate, segment)
		if err != nil {
			return paths, fmt.Errorf("channel %s: %w", name, err)
		}
		cleanPSD, err := Welch(clean.Values, rate, segment)
		if err != nil {
			return paths, fmt.Errorf("channel %s: %w", name, err)
		}

		path := filepath.Join(dir, fileName(name)+"_psd.png")
		if err := PlotPSD(path, fmt.Sprintf("%s - Power Spectral Density", name), rawPSD, cleanPSD); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func fileName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, name)
}
