package main

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"vtable"
	"vtable/internal/observability"
	"vtable/internal/source"
)

func newBrowseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse the configured source interactively.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBrowse(cmd.Context(), a)
		},
	}
}

func runBrowse(ctx context.Context, a *app) error {
	// the table owns the terminal, so logs go to the file only
	observability.InitializeFileOnly(a.cfg.Logger)
	defer observability.Sync()
	logger := observability.GetLogger()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	src, closeSrc, err := buildSource(ctx, a.cfg.Source, logger)
	if err != nil {
		return err
	}
	defer closeSrc()

	store := source.NewStore(src, a.cfg.Source.Timeout, logger)
	m, err := newModel(a.cfg, store, logger)
	if err != nil {
		return err
	}
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion(), tea.WithContext(ctx))

	if fs, ok := src.(*source.FileSource); ok && a.cfg.Source.Watch {
		go func() {
			err := fs.Watch(ctx,
				func(rows []vtable.Row) { p.Send(vtable.RowsMsg{Rows: rows, Source: fs.Name()}) },
				func(err error) { p.Send(vtable.FetchErrMsg{Err: err}) })
			if err != nil {
				logger.Error("File watch stopped", zap.Error(err))
			}
		}()
	}

	logger.Info("Starting table", zap.String("source", src.Name()))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("table exited: %w", err)
	}
	return nil
}
