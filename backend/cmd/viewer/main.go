package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	addressesOnly bool
	useStatic     bool

	exportOut    string
	exportTicks  int
	exportWidth  float64
	exportHeight float64

	rootCmd = &cobra.Command{
		Use:   "vouchgraph",
		Short: "Explore the vouching graph in your terminal",
		Long: `vouchgraph lays out who vouches for whom as a force-directed graph,
resolves account addresses to registered names and lets you highlight
any account's vouches with a click.`,
		SilenceUsage: true,
	}

	viewCmd = &cobra.Command{
		Use:   "view",
		Short: "Open the interactive graph",
		RunE:  runView,
	}

	exportCmd = &cobra.Command{
		Use:   "export",
		Short: "Lay out the graph headlessly and write it as SVG",
		RunE:  runExportCommand,
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVar(&addressesOnly, "addresses", false, "show shortened addresses instead of looking up names")
	rootCmd.PersistentFlags().BoolVar(&useStatic, "static", false, "use the built-in sample graph instead of DATA_URL")

	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "graph.svg", "output file")
	exportCmd.Flags().IntVar(&exportTicks, "ticks", 300, "maximum simulation ticks before rendering")
	exportCmd.Flags().Float64Var(&exportWidth, "width", 0, "image width (defaults to CANVAS_WIDTH)")
	exportCmd.Flags().Float64Var(&exportHeight, "height", 0, "image height (defaults to CANVAS_HEIGHT)")

	rootCmd.AddCommand(viewCmd, exportCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
