package tilefarmctl

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/armadaproject/tilefarm/internal/tilefarm/domain"
)

// Farm computes, or submits to the batch queue, every incomplete tile of kind. It returns the
// collected tile failures after all other tiles have been dispatched.
func (a *App) Farm(ctx context.Context, kind domain.Kind, mode domain.RunMode) error {
	config, err := a.loadConfig(a.Params.ConfigPath)
	if err != nil {
		return err
	}
	c, err := a.build(config)
	if err != nil {
		return err
	}
	defer c.pushMetrics()

	report, err := c.coordinator.Farm(ctx, kind, mode)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(a.Out, 1, 1, 1, ' ', 0)
	fmt.Fprintf(w, "Run:\t%s\n", report.RunId)
	fmt.Fprintf(w, "Kind:\t%s\n", report.Kind)
	fmt.Fprintf(w, "Mode:\t%s\n", report.Mode)
	fmt.Fprintf(w, "Tiles:\t%d\n", report.Tiles)
	fmt.Fprintf(w, "Skipped:\t%d\n", report.Skipped)
	fmt.Fprintf(w, "Ran:\t%d\n", report.Ran)
	fmt.Fprintf(w, "Submitted:\t%d\n", report.Submitted)
	fmt.Fprintf(w, "Failed:\t%d\n", report.Failed)
	w.Flush()
	return report.Err()
}
