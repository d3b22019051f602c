package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"vtable/internal/config"
	"vtable/internal/observability"
)

// app carries state shared by the subcommands of one invocation.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		observability.GetLogger().Error("Command execution failed", zap.Error(err))
		fmt.Fprintln(os.Stderr, "Error:", err)
		observability.Sync()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}
	config.SetDefaults(a.v)

	root := &cobra.Command{
		Use:           "vtable",
		Short:         "A virtualized table for very large row collections.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initializeConfig()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.cfgFile, "config", "c", "", "config file (default is ./vtable.yaml)")
	pf.String("source", "", "data source: http, file, postgres or synthetic")
	pf.String("url", "", "http source url")
	pf.String("file", "", "file source path")
	pf.Int("rows", 0, "synthetic source row count")
	pf.Int("limit", 0, "maximum rows to fetch from the http source")
	pf.Float64("row-height", 0, "row height in lines")
	pf.Int("buffer", 0, "rows materialized beyond each edge of the viewport")
	for key, flag := range map[string]string{
		"source.kind":           "source",
		"source.url":            "url",
		"source.path":           "file",
		"source.synthetic_rows": "rows",
		"source.limit":          "limit",
		"table.row_height":      "row-height",
		"table.buffer_size":     "buffer",
	} {
		_ = a.v.BindPFlag(key, pf.Lookup(flag))
	}

	root.AddCommand(newBrowseCmd(a), newDumpCmd(a), newWindowCmd())
	return root
}

// initializeConfig reads the config file, if any, and the environment, then
// loads and validates the result.
func (a *app) initializeConfig() error {
	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
	} else {
		a.v.AddConfigPath(".")
		a.v.SetConfigName("vtable")
		a.v.SetConfigType("yaml")
	}

	a.v.SetEnvPrefix("VTABLE")
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	a.v.AutomaticEnv()

	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}
