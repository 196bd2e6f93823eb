package render

import (
	"bytes"
	"fmt"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/strikeplanner/internal/fsutil"
)

// ChartRenderer writes one interactive HTML page per frame with go-echarts.
type ChartRenderer struct {
	buffer
	fs        fsutil.FileSystem
	outputDir string
	// AssetsHost overrides where the page loads echarts from. Empty uses the
	// library default.
	AssetsHost string
}

// NewChartRenderer creates a renderer writing into outputDir on fsys,
// creating the directory if needed.
func NewChartRenderer(fsys fsutil.FileSystem, outputDir string) (*ChartRenderer, error) {
	if err := fsys.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("create render dir: %w", err)
	}
	return &ChartRenderer{fs: fsys, outputDir: outputDir}, nil
}

// Flush implements Renderer. Frames with nothing drawn produce no file.
func (r *ChartRenderer) Flush() error {
	frame, players, scenes := r.drain()
	if len(players) == 0 {
		return nil
	}

	page := components.NewPage()
	page.PageTitle = fmt.Sprintf("Strike planner frame %d", frame)
	for _, p := range players {
		s := scenes[p]
		if s.path != nil {
			page.AddCharts(r.pathChart(p, s))
		}
		if s.plot != nil {
			page.AddCharts(r.reachChart(p, s))
		}
	}

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return fmt.Errorf("render page: %w", err)
	}
	name := filepath.Join(r.outputDir, fmt.Sprintf("frame_%04d.html", frame))
	if err := r.fs.WriteFile(name, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

func (r *ChartRenderer) initOpts(title string) charts.GlobalOpts {
	initial := opts.Initialization{PageTitle: title, Width: "900px", Height: "600px"}
	if r.AssetsHost != "" {
		initial.AssetsHost = r.AssetsHost
	}
	return charts.WithInitializationOpts(initial)
}

func (r *ChartRenderer) pathChart(player int, s *scene) *charts.Scatter {
	slices := s.path.Slices()
	data := make([]opts.ScatterData, 0, len(slices))
	for _, sl := range slices {
		data = append(data, opts.ScatterData{Value: []interface{}{sl.Space.X, sl.Space.Y, sl.Time}})
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		r.initOpts("Ball path"),
		charts.WithTitleOpts(opts.Title{Title: fmt.Sprintf("Player %d ball path", player), Subtitle: fmt.Sprintf("slices=%d", len(data))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "X", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Y", NameLocation: "middle", NameGap: 30}),
	)
	scatter.AddSeries("ball", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 3}))
	if in := s.intercept; in != nil {
		hit := []opts.ScatterData{{Value: []interface{}{in.Space.X, in.Space.Y, in.Time}}}
		scatter.AddSeries("intercept", hit, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 12}))
	}
	return scatter
}

func (r *ChartRenderer) reachChart(player int, s *scene) *charts.Scatter {
	samples := s.plot.Samples()
	data := make([]opts.ScatterData, 0, len(samples))
	for _, d := range samples {
		data = append(data, opts.ScatterData{Value: []interface{}{d.Time, d.Distance, d.Speed}})
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		r.initOpts("Reachability"),
		charts.WithTitleOpts(opts.Title{Title: fmt.Sprintf("Player %d reachable distance", player)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Seconds", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Distance", NameLocation: "middle", NameGap: 30}),
	)
	scatter.AddSeries("distance", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 3}))
	if in := s.intercept; in != nil {
		mark := []opts.ScatterData{{Value: []interface{}{in.AccelSlice.Time, in.AccelSlice.Distance, in.AccelSlice.Speed}}}
		scatter.AddSeries("intercept", mark, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 12}))
	}
	return scatter
}
