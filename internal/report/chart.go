package report

import (
	"fmt"
	"image/color"

	"github.com/KaramelBytes/clusterbench-cli/internal/elbow"
	"github.com/KaramelBytes/clusterbench-cli/internal/utils"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

var palette = []color.RGBA{
	{R: 230, G: 25, B: 75, A: 255},
	{R: 60, G: 180, B: 75, A: 255},
	{R: 0, G: 130, B: 200, A: 255},
	{R: 245, G: 130, B: 48, A: 255},
	{R: 145, G: 30, B: 180, A: 255},
	{R: 70, G: 240, B: 240, A: 255},
	{R: 240, G: 50, B: 230, A: 255},
	{R: 128, G: 128, B: 0, A: 255},
}

// ElbowChart plots WCSS against k and marks the elbow point. The image format
// follows the extension of path (png, svg, pdf, ...).
func ElbowChart(rep *elbow.Report, path string) error {
	if len(rep.KValues) == 0 {
		return fmt.Errorf("elbow chart: no points")
	}
	p := plot.New()
	p.Title.Text = "Elbow method"
	p.X.Label.Text = "k"
	p.Y.Label.Text = "WCSS"

	pts := make(plotter.XYs, len(rep.KValues))
	var estimated plotter.XYs
	for i, k := range rep.KValues {
		pts[i] = plotter.XY{X: float64(k), Y: rep.WCSS[i]}
		if rep.Estimated(k) {
			estimated = append(estimated, pts[i])
		}
	}
	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return fmt.Errorf("elbow chart: %w", err)
	}
	line.Color = palette[2]
	points.Color = palette[2]
	p.Add(line, points)
	p.Legend.Add("WCSS", line)

	if len(estimated) > 0 {
		s, err := plotter.NewScatter(estimated)
		if err != nil {
			return fmt.Errorf("elbow chart: %w", err)
		}
		s.Color = color.RGBA{R: 128, G: 128, B: 128, A: 255}
		s.Shape = draw.RingGlyph{}
		s.Radius = vg.Points(6)
		p.Add(s)
		p.Legend.Add("estimated", s)
	}
	for i, k := range rep.KValues {
		if k != rep.ElbowK {
			continue
		}
		s, err := plotter.NewScatter(plotter.XYs{{X: float64(k), Y: rep.WCSS[i]}})
		if err != nil {
			return fmt.Errorf("elbow chart: %w", err)
		}
		s.Color = palette[0]
		s.Shape = draw.CrossGlyph{}
		s.Radius = vg.Points(7)
		p.Add(s)
		p.Legend.Add(fmt.Sprintf("elbow k=%d", k), s)
	}
	return save(p, path)
}

// ScatterChart plots the first two feature columns coloured by cluster, with
// the centroids drawn as crosses.
func ScatterChart(features [][]float64, assignments []int, centroids [][]float64, xLabel, yLabel, path string) error {
	if len(features) == 0 || len(features[0]) < 2 {
		return fmt.Errorf("scatter chart: need at least two feature columns")
	}
	p := plot.New()
	p.Title.Text = "Clusters"
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel

	for c := range centroids {
		var pts plotter.XYs
		for i, a := range assignments {
			if a == c && i < len(features) {
				pts = append(pts, plotter.XY{X: features[i][0], Y: features[i][1]})
			}
		}
		if len(pts) == 0 {
			continue
		}
		s, err := plotter.NewScatter(pts)
		if err != nil {
			return fmt.Errorf("scatter chart: %w", err)
		}
		s.Color = palette[c%len(palette)]
		p.Add(s)
		p.Legend.Add(fmt.Sprintf("cluster %d", c), s)
	}
	cpts := make(plotter.XYs, 0, len(centroids))
	for _, c := range centroids {
		if len(c) >= 2 {
			cpts = append(cpts, plotter.XY{X: c[0], Y: c[1]})
		}
	}
	if len(cpts) > 0 {
		s, err := plotter.NewScatter(cpts)
		if err != nil {
			return fmt.Errorf("scatter chart: %w", err)
		}
		s.Color = color.RGBA{A: 255}
		s.Shape = draw.CrossGlyph{}
		s.Radius = vg.Points(5)
		p.Add(s)
	}
	return save(p, path)
}

func save(p *plot.Plot, path string) error {
	if err := utils.EnsureParentDir(path); err != nil {
		return err
	}
	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("save chart: %w", err)
	}
	return nil
}
