package sim

import (
	"fmt"
	"image/color"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Series is a named set of 2D points stored in the first two columns of Data
type Series struct {
	Name string
	Data *mat.Dense
}

// glyph styles cycled through the plotted series
var styles = []draw.GlyphStyle{
	{Color: color.RGBA{R: 255, B: 128, A: 255}, Shape: draw.PyramidGlyph{}, Radius: vg.Points(3)},
	{Color: color.RGBA{G: 255, A: 128}, Shape: draw.CircleGlyph{}, Radius: vg.Points(3)},
	{Color: color.RGBA{R: 169, G: 169, B: 169, A: 255}, Shape: draw.CrossGlyph{}, Radius: vg.Points(3)},
	{Color: color.RGBA{B: 255, A: 255}, Shape: draw.BoxGlyph{}, Radius: vg.Points(2)},
}

// NewPlot creates new scatter plot titled title with one legend entry per series.
// It returns error if no series is given, a series has no data or fewer than 2 columns,
// or if gonum plot fails to create a scatter.
func NewPlot(title, xLabel, yLabel string, series ...Series) (*plot.Plot, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("no data to plot")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	p.Legend.Top = true

	for i, s := range series {
		if s.Data == nil {
			return nil, fmt.Errorf("series %q: no data", s.Name)
		}

		if _, c := s.Data.Dims(); c < 2 {
			return nil, fmt.Errorf("series %q: need 2 columns, got %d", s.Name, c)
		}

		sc, err := plotter.NewScatter(points(s.Data))
		if err != nil {
			return nil, fmt.Errorf("series %q: failed to create scatter: %w", s.Name, err)
		}
		sc.GlyphStyle = styles[i%len(styles)]

		p.Add(sc)
		p.Legend.Add(s.Name, sc)
	}

	return p, nil
}

func points(m *mat.Dense) plotter.XYs {
	r, _ := m.Dims()
	pts := make(plotter.XYs, r)
	for i := range pts {
		pts[i].X, pts[i].Y = m.At(i, 0), m.At(i, 1)
	}

	return pts
}
