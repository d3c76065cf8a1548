// Package cmd - stockctl commands
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/wonny/stockmarket/internal/pkg/config"
	"github.com/wonny/stockmarket/internal/pkg/logger"
)

// app carries state shared by every subcommand of one invocation
type app struct {
	cfgFile string
	verbose bool
	cfg     *config.Config
}

// NewRootCmd builds the stockctl command tree
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "stockctl",
		Short: "StockMarket catalogue CLI",
		Long: `StockMarket catalogue CLI

Usage:
    go run ./cmd/stockctl [command]

Commands:
    token       mint a bearer token for the HTTP API
    stocks      list/get/add/update/delete/price/favorite
`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "YAML config file (overrides STOCK_CONFIG_FILE)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "verbose output")

	root.AddCommand(newTokenCmd(a))
	root.AddCommand(newStocksCmd(a))

	return root
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}

func (a *app) init() error {
	if a.cfgFile != "" {
		if err := os.Setenv("STOCK_CONFIG_FILE", a.cfgFile); err != nil {
			return err
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	a.cfg = cfg

	level := "warn"
	if a.verbose {
		level = "debug"
	}
	return logger.Init(logger.Config{
		Level:       level,
		Format:      "pretty",
		ServiceName: "stockctl",
	})
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
