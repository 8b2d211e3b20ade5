package chart

import (
	"bytes"
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// Render draws the series as a PNG of width x height points.
func Render(s Series, width, height int) ([]byte, error) {
	if len(s.Points) < 2 {
		return nil, fmt.Errorf("need at least 2 points to render, got %d", len(s.Points))
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid image size %dx%d", width, height)
	}

	p, err := buildPlot(s)
	if err != nil {
		return nil, err
	}

	c := vgimg.New(vg.Points(float64(width)), vg.Points(float64(height)))
	p.Draw(draw.New(c))

	var buf bytes.Buffer
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("encoding png: %w", err)
	}
	return buf.Bytes(), nil
}

func buildPlot(s Series) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = s.Asset
	p.X.Label.Text = "Time"
	p.Y.Label.Text = "Price"
	p.Add(plotter.NewGrid())

	price := make(plotter.XYs, len(s.Points))
	fast := make(plotter.XYs, len(s.Points))
	slow := make(plotter.XYs, len(s.Points))
	ticks := make([]plot.Tick, len(s.Points))
	for i, pt := range s.Points {
		x := float64(i)
		price[i] = plotter.XY{X: x, Y: pt.Price}
		fast[i] = plotter.XY{X: x, Y: pt.EMA8}
		slow[i] = plotter.XY{X: x, Y: pt.EMA21}
		ticks[i] = plot.Tick{Value: x}
		if i%4 == 0 {
			ticks[i].Label = pt.Time
		}
	}
	p.X.Tick.Marker = plot.ConstantTicks(ticks)

	lines := []struct {
		name string
		xys  plotter.XYs
	}{
		{"Price", price},
		{"EMA8", fast},
		{"EMA21", slow},
	}
	for i, l := range lines {
		line, err := plotter.NewLine(l.xys)
		if err != nil {
			return nil, fmt.Errorf("building %s line: %w", l.name, err)
		}
		line.Color = plotutil.Color(i)
		line.Width = vg.Points(1.5)
		if i > 0 {
			line.Dashes = plotutil.Dashes(i)
			line.Width = vg.Points(1)
		}
		p.Add(line)
		p.Legend.Add(l.name, line)
	}
	p.Legend.Top = true

	return p, nil
}
