package report

import (
	"bufio"
	"fmt"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/san-kum/apid/internal/dynamo"
)

type PNGOptions struct {
	Title string
	// Width and Height are in inches.
	Width      float64
	Height     float64
	DPI        int
	Correction bool
}

func DefaultPNGOptions() PNGOptions {
	return PNGOptions{Title: "closed-loop response", Width: 8, Height: 5, DPI: 150}
}

func series(samples []dynamo.Sample, field func(dynamo.Sample) float64) plotter.XYs {
	pts := make(plotter.XYs, len(samples))
	for i, s := range samples {
		pts[i].X = s.Time + s.Dt
		pts[i].Y = field(s)
	}
	return pts
}

// WritePNG plots measured against target over time, and optionally the
// approximator correction, as a PNG image.
func WritePNG(w io.Writer, samples []dynamo.Sample, opts PNGOptions) error {
	if len(samples) == 0 {
		return fmt.Errorf("report: no samples")
	}

	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = "time (s)"
	p.Y.Label.Text = "output"
	p.Add(plotter.NewGrid())

	lines := []interface{}{
		"target", series(samples, func(s dynamo.Sample) float64 { return s.Target }),
		"measured", series(samples, func(s dynamo.Sample) float64 { return s.Measured }),
	}
	if opts.Correction {
		lines = append(lines, "correction", series(samples, func(s dynamo.Sample) float64 { return s.Correction }))
	}
	if err := plotutil.AddLines(p, lines...); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	p.Legend.Top = true

	c := vgimg.NewWith(
		vgimg.UseWH(vg.Length(opts.Width)*vg.Inch, vg.Length(opts.Height)*vg.Inch),
		vgimg.UseDPI(opts.DPI),
	)
	p.Draw(draw.New(c))

	bw := bufio.NewWriter(w)
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(bw); err != nil {
		return fmt.Errorf("report: cannot write png: %w", err)
	}
	return bw.Flush()
}
