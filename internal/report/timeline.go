package report

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// DefaultMaxPoints bounds the points drawn per label series.
const DefaultMaxPoints = 5000

// LabelSeries is one named label sequence on a timeline.
type LabelSeries struct {
	Name   string
	Labels []int
}

// TimelineOptions controls label timeline rendering.
type TimelineOptions struct {
	Title    string
	Subtitle string
	// MaxPoints caps the points per series by striding; 0 uses
	// DefaultMaxPoints.
	MaxPoints int
	// AssetsHost overrides where the page loads the echarts scripts from.
	AssetsHost string
}

// RenderTimeline writes an HTML page plotting each label series against
// index, which gives the time of every frame and may be nil.
func RenderTimeline(w io.Writer, index []float64, series []LabelSeries, o TimelineOptions) error {
	if len(series) == 0 {
		return errors.New("no label series to render")
	}
	n := len(series[0].Labels)
	for _, s := range series {
		if len(s.Labels) != n {
			return fmt.Errorf("series %s has %d frames, want %d", s.Name, len(s.Labels), n)
		}
	}
	if index != nil && len(index) != n {
		return fmt.Errorf("index has %d frames, want %d", len(index), n)
	}

	maxPoints := o.MaxPoints
	if maxPoints <= 0 {
		maxPoints = DefaultMaxPoints
	}
	stride := 1
	if n > maxPoints {
		stride = (n + maxPoints - 1) / maxPoints
	}

	x := make([]string, 0, n/stride+1)
	for i := 0; i < n; i += stride {
		if index != nil {
			x = append(x, strconv.FormatFloat(index[i], 'f', 3, 64))
		} else {
			x = append(x, strconv.Itoa(i))
		}
	}

	title := o.Title
	if title == "" {
		title = "Label Timeline"
	}
	subtitle := o.Subtitle
	if subtitle == "" {
		subtitle = fmt.Sprintf("frames=%d stride=%d", n, stride)
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "100%", Height: "600px", AssetsHost: o.AssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithXAxisOpts(opts.XAxis{Name: xAxisName(index), NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Label", NameLocation: "middle", NameGap: 30}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: 100}),
	)
	line.SetXAxis(x)
	for _, s := range series {
		data := make([]opts.LineData, 0, len(x))
		for i := 0; i < n; i += stride {
			data = append(data, opts.LineData{Value: s.Labels[i]})
		}
		line.AddSeries(s.Name, data)
	}

	page := components.NewPage()
	if o.AssetsHost != "" {
		page.SetAssetsHost(o.AssetsHost)
	}
	page.AddCharts(line)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render error: %w", err)
	}
	return nil
}

func xAxisName(index []float64) string {
	if index == nil {
		return "Frame"
	}
	return "Time (s)"
}
