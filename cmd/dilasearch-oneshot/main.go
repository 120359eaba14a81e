// Command dilasearch-oneshot is the ephemeral orchestrator (C8): it
// takes a query and an optional fond selection, runs the whole
// download/extract/index/search cycle chunk by chunk against a
// temporary working tree, and writes a CSV of matches, without ever
// persisting a working directory across runs.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/dilasearch/internal/config"
	"github.com/standardbeagle/dilasearch/internal/oneshot"
	"github.com/standardbeagle/dilasearch/internal/version"
)

func main() {
	app := &cli.App{
		Name:    "dilasearch-oneshot",
		Usage:   "Search the DILA legal corpus without keeping a working directory",
		Version: version.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "query",
				Aliases:  []string{"q"},
				Usage:    "Query text to search for",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "to-csv",
				Aliases: []string{"o"},
				Usage:   "Output CSV path for matching records",
				Value:   "matches.csv",
			},
			&cli.StringSliceFlag{
				Name:  "fond",
				Usage: "Fond to search (repeatable); defaults to every fond",
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "Directory to load dilasearch.kdl from",
				Value: ".",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.Load(c.String("config"))
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			return oneshot.Run(context.Background(), cfg, c.StringSlice("fond"), c.String("query"), c.String("to-csv"))
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "dilasearch-oneshot: %v\n", err)
		os.Exit(1)
	}
}
