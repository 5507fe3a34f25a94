package report

import (
	"fmt"
	"io"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/apid/internal/dynamo"
)

// WriteASCII draws measured and target against tick index, with the control
// signal in a second chart below.
func WriteASCII(w io.Writer, caption string, samples []dynamo.Sample, width, height int) error {
	if len(samples) == 0 {
		return fmt.Errorf("report: no samples")
	}

	measured := make([]float64, len(samples))
	target := make([]float64, len(samples))
	u := make([]float64, len(samples))
	for i, s := range samples {
		measured[i] = s.Measured
		target[i] = s.Target
		u[i] = s.Control
	}

	tracking := asciigraph.PlotMany([][]float64{target, measured},
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.SeriesColors(asciigraph.Red, asciigraph.Blue),
		asciigraph.Caption(caption+" (red: target, blue: measured)"))

	control := asciigraph.Plot(u,
		asciigraph.Height(height/2),
		asciigraph.Width(width),
		asciigraph.Caption("control u"))

	_, err := fmt.Fprintf(w, "%s\n\n%s\n", tracking, control)
	return err
}
