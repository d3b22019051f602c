package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/spf13/cobra"

	"vtable"
	"vtable/internal/observability"
	"vtable/internal/source"
)

type dumpOptions struct {
	width, height int
	scroll        float64
	plain         bool
}

func newDumpCmd(a *app) *cobra.Command {
	var opts dumpOptions
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Render one frame of the table to stdout and exit.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(cmd, a, opts)
		},
	}
	cmd.Flags().IntVar(&opts.width, "width", 0, "frame width in cells (default: terminal width)")
	cmd.Flags().IntVar(&opts.height, "height", 0, "frame height in lines (default: terminal height)")
	cmd.Flags().Float64Var(&opts.scroll, "scroll", 0, "scroll offset in lines")
	cmd.Flags().BoolVar(&opts.plain, "plain", false, "strip colors and styles")
	return cmd
}

func runDump(cmd *cobra.Command, a *app, opts dumpOptions) error {
	observability.InitializeConsole(a.cfg.Logger)
	defer observability.Sync()
	logger := observability.GetLogger()
	ctx := cmd.Context()

	src, closeSrc, err := buildSource(ctx, a.cfg.Source, logger)
	if err != nil {
		return err
	}
	defer closeSrc()

	store := source.NewStore(src, a.cfg.Source.Timeout, logger)
	m, err := newModel(a.cfg, nil, logger)
	if err != nil {
		return err
	}
	defer m.Close()

	size := vtable.OutputSize(os.Stdout)
	if opts.width > 0 {
		size.Width = opts.width
	}
	if opts.height > 0 {
		size.Height = opts.height
	}

	rows, err := store.Fetch(ctx)
	if err != nil {
		return err
	}
	var model tea.Model = m
	model, _ = model.Update(tea.WindowSizeMsg{Width: size.Width, Height: size.Height})
	model, _ = model.Update(vtable.RowsMsg{Rows: rows, Source: store.Name()})
	if opts.scroll > 0 {
		m.Engine().Reposition(opts.scroll)
		m.Engine().ClampScroll()
	}

	out := model.View()
	if opts.plain {
		out = ansi.Strip(out)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
	return err
}
