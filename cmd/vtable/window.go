package main

import (
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"vtable"
)

// windowReport is the JSON shape printed by the window command.
type windowReport struct {
	RowCount       int     `json:"rowCount"`
	RowHeight      float64 `json:"rowHeight"`
	ViewportHeight float64 `json:"viewportHeight"`
	ScrollTop      float64 `json:"scrollTop"`
	BufferSize     int     `json:"bufferSize"`
	Start          int     `json:"start"`
	End            int     `json:"end"`
	OffsetY        float64 `json:"offsetY"`
	ContentHeight  float64 `json:"contentHeight"`
	VisibleStart   int     `json:"visibleStart"`
	VisibleEnd     int     `json:"visibleEnd"`
}

func newWindowCmd() *cobra.Command {
	var (
		rows   int
		scroll float64
		cfg    = vtable.DefaultConfig()
	)
	cmd := &cobra.Command{
		Use:   "window",
		Short: "Print the window computed for the given geometry as JSON.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			w := vtable.ComputeWindow(rows, cfg.RowHeight, cfg.ViewportHeight, scroll, cfg.BufferSize)
			vs, ve := vtable.VisibleRange(rows, cfg.RowHeight, cfg.ViewportHeight, scroll)
			report := windowReport{
				RowCount:       rows,
				RowHeight:      cfg.RowHeight,
				ViewportHeight: cfg.ViewportHeight,
				ScrollTop:      scroll,
				BufferSize:     cfg.BufferSize,
				Start:          w.Start,
				End:            w.End,
				OffsetY:        w.OffsetY,
				ContentHeight:  w.ContentHeight,
				VisibleStart:   vs,
				VisibleEnd:     ve,
			}
			enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}
	f := cmd.Flags()
	f.IntVar(&rows, "count", 0, "number of rows in the collection")
	f.Float64Var(&scroll, "scroll-top", 0, "scroll offset in pixels")
	f.Float64Var(&cfg.RowHeight, "pixel-row-height", cfg.RowHeight, "row height in pixels")
	f.Float64Var(&cfg.ViewportHeight, "viewport", cfg.ViewportHeight, "viewport height in pixels")
	f.IntVar(&cfg.BufferSize, "window-buffer", cfg.BufferSize, "buffer rows beyond each viewport edge")
	return cmd
}
