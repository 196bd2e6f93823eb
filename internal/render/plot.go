package render

import (
	"bytes"
	"fmt"
	"image/color"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/strikeplanner/internal/fsutil"
)

var (
	pathColor      = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	interceptColor = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	plotColor      = color.RGBA{R: 44, G: 160, B: 44, A: 255}
)

// PlotRenderer writes PNG images with gonum/plot: a top-down view of the
// ball path and intercept, and the distance-versus-time reachability plot.
type PlotRenderer struct {
	buffer
	fs        fsutil.FileSystem
	outputDir string
}

// NewPlotRenderer creates a renderer writing into outputDir on fsys,
// creating the directory if needed.
func NewPlotRenderer(fsys fsutil.FileSystem, outputDir string) (*PlotRenderer, error) {
	if err := fsys.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("create render dir: %w", err)
	}
	return &PlotRenderer{fs: fsys, outputDir: outputDir}, nil
}

// Flush implements Renderer. Files are named
// frame_NNNN_pP_path.png and frame_NNNN_pP_reach.png.
func (r *PlotRenderer) Flush() error {
	frame, players, scenes := r.drain()
	for _, p := range players {
		s := scenes[p]
		if s.path != nil {
			name := filepath.Join(r.outputDir, fmt.Sprintf("frame_%04d_p%d_path.png", frame, p))
			if err := r.savePath(s, name); err != nil {
				return fmt.Errorf("player %d: %w", p, err)
			}
		}
		if s.plot != nil {
			name := filepath.Join(r.outputDir, fmt.Sprintf("frame_%04d_p%d_reach.png", frame, p))
			if err := r.saveReach(s, name); err != nil {
				return fmt.Errorf("player %d: %w", p, err)
			}
		}
	}
	return nil
}

func (r *PlotRenderer) savePath(s *scene, name string) error {
	p := plot.New()
	p.Title.Text = "Predicted ball path"
	p.X.Label.Text = "X"
	p.Y.Label.Text = "Y"

	slices := s.path.Slices()
	pts := make(plotter.XYs, 0, len(slices))
	for _, sl := range slices {
		pts = append(pts, plotter.XY{X: sl.Space.X, Y: sl.Space.Y})
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("path line: %w", err)
	}
	line.Color = pathColor
	line.Width = vg.Points(1)
	p.Add(line)
	p.Legend.Add("ball", line)

	if s.intercept != nil {
		hit, err := plotter.NewScatter(plotter.XYs{{X: s.intercept.Space.X, Y: s.intercept.Space.Y}})
		if err != nil {
			return fmt.Errorf("intercept point: %w", err)
		}
		hit.Color = interceptColor
		hit.Radius = vg.Points(4)
		p.Add(hit)
		p.Legend.Add(fmt.Sprintf("intercept t=%.2f", s.intercept.Time), hit)
	}

	return r.save(p, 8*vg.Inch, 8*vg.Inch, name)
}

func (r *PlotRenderer) saveReach(s *scene, name string) error {
	p := plot.New()
	p.Title.Text = "Reachable distance"
	p.X.Label.Text = "Seconds"
	p.Y.Label.Text = "Distance"

	samples := s.plot.Samples()
	pts := make(plotter.XYs, 0, len(samples))
	for _, d := range samples {
		pts = append(pts, plotter.XY{X: d.Time, Y: d.Distance})
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("reach line: %w", err)
	}
	line.Color = plotColor
	line.Width = vg.Points(1)
	p.Add(line)

	if in := s.intercept; in != nil {
		mark, err := plotter.NewScatter(plotter.XYs{{X: in.AccelSlice.Time, Y: in.AccelSlice.Distance}})
		if err != nil {
			return fmt.Errorf("intercept mark: %w", err)
		}
		mark.Color = interceptColor
		mark.Radius = vg.Points(4)
		p.Add(mark)
	}

	return r.save(p, 10*vg.Inch, 5*vg.Inch, name)
}

func (r *PlotRenderer) save(p *plot.Plot, w, h vg.Length, name string) error {
	wt, err := p.WriterTo(w, h, "png")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if err := r.fs.WriteFile(name, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("save %s: %w", name, err)
	}
	return nil
}
