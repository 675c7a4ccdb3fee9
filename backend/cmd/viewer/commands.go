package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"vouch-graph/backend/internal/render"
	"vouch-graph/backend/internal/render/tui"
	"vouch-graph/backend/internal/source"
	"vouch-graph/backend/internal/view"
	"vouch-graph/backend/pkg/config"
	"vouch-graph/backend/pkg/logger"
)

func runView(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	// The screen belongs to the TUI, so logs go to a file
	if err := logger.InitWithOutput(cfg.Env, []string{cfg.LogFile}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()
	log := logger.Get()

	ctx := cmd.Context()
	v := view.New(viewOptions(cfg, addressesOnly)...)
	defer v.Close()

	if err := v.LoadFrom(ctx, fetcher(cfg, useStatic)); err != nil {
		return err
	}
	log.Info("Viewer started",
		zap.String("data_url", cfg.DataURL),
		zap.Bool("lookups", cfg.LookupsEnabled()),
	)

	if err := tui.Run(v, cfg.TickInterval*2); err != nil {
		return fmt.Errorf("viewer exited: %w", err)
	}
	return nil
}

func runExportCommand(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := logger.Init(cfg.Env); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	f, err := os.Create(exportOut)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", exportOut, err)
	}
	defer f.Close()

	opts := exportOptions{ticks: exportTicks, width: exportWidth, height: exportHeight}
	frame, err := runExport(cmd.Context(), cfg, fetcher(cfg, useStatic), opts, f)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d nodes, %d links)\n", exportOut, len(frame.Nodes), len(frame.Links))
	return nil
}

type exportOptions struct {
	ticks  int
	width  float64
	height float64
}

// runExport settles the layout without the animation loop, waits for name
// resolution and writes the final frame as SVG.
func runExport(ctx context.Context, cfg *config.Config, f source.Fetcher, opts exportOptions, w io.Writer) (render.Frame, error) {
	if opts.width <= 0 {
		opts.width = cfg.CanvasWidth
	}
	if opts.height <= 0 {
		opts.height = cfg.CanvasHeight
	}

	v := view.New(append(viewOptions(cfg, addressesOnly), view.WithoutAnimation())...)
	defer v.Close()

	if err := v.LoadFrom(ctx, f); err != nil {
		return render.Frame{}, err
	}
	v.Simulation().Settle(opts.ticks)
	if err := v.WaitResolved(ctx); err != nil {
		return render.Frame{}, fmt.Errorf("name resolution interrupted: %w", err)
	}

	frame := v.Frame()
	if err := render.WriteSVG(w, &frame, opts.width, opts.height); err != nil {
		return render.Frame{}, fmt.Errorf("failed to write svg: %w", err)
	}
	return frame, nil
}
