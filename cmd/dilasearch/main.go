// Command dilasearch is the persistent-mode CLI (C7): it keeps a
// working directory of downloaded tarballs, extracted XML, and a
// bleve index across invocations, and exposes download/extract/index/
// update/query/csv as subcommands plus a thin article lookup against
// the secondary Piste API.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/dilasearch/internal/config"
	"github.com/standardbeagle/dilasearch/internal/pipeline"
	"github.com/standardbeagle/dilasearch/internal/piste"
	"github.com/standardbeagle/dilasearch/internal/version"
)

func loadConfigWithOverrides(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("root"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", c.String("root"), err)
	}
	if root := c.String("root"); root != "" {
		cfg.Project.Root = root
	}
	return cfg, nil
}

func main() {
	app := &cli.App{
		Name:    "dilasearch",
		Usage:   "Search the DILA legal corpus offline",
		Version: version.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Working directory root (tarballs/, extracted/, index/ live under it)",
				Value:   ".",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "download",
				Usage: "Download new tarballs for the given fonds (or all fonds if none given)",
				Action: func(c *cli.Context) error {
					cfg, err := loadConfigWithOverrides(c)
					if err != nil {
						return err
					}
					return pipeline.New(cfg).Download(context.Background(), c.Args().Slice())
				},
			},
			{
				Name:  "extract",
				Usage: "Extract every downloaded tarball into extracted/",
				Action: func(c *cli.Context) error {
					cfg, err := loadConfigWithOverrides(c)
					if err != nil {
						return err
					}
					return pipeline.New(cfg).Extract(context.Background())
				},
			},
			{
				Name:  "index",
				Usage: "(Re)build the index from extracted/",
				Action: func(c *cli.Context) error {
					cfg, err := loadConfigWithOverrides(c)
					if err != nil {
						return err
					}
					return pipeline.New(cfg).Index()
				},
			},
			{
				Name:  "update",
				Usage: "List remote, download and index only what's missing",
				Action: func(c *cli.Context) error {
					cfg, err := loadConfigWithOverrides(c)
					if err != nil {
						return err
					}
					return pipeline.New(cfg).Update(context.Background(), c.Args().Slice())
				},
			},
			{
				Name:      "query",
				Usage:     "Search the index",
				ArgsUsage: "<query text>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "save",
						Usage: "Write every matching path (not just the top 10) to this file",
					},
				},
				Action: func(c *cli.Context) error {
					if c.NArg() < 1 {
						return fmt.Errorf("usage: dilasearch query <text>")
					}
					cfg, err := loadConfigWithOverrides(c)
					if err != nil {
						return err
					}
					total, hits, err := pipeline.New(cfg).Query(c.Args().First(), c.String("save"))
					if err != nil {
						return err
					}
					fmt.Printf("%d matches\n", total)
					for _, h := range hits {
						fmt.Printf("%s (%d)\n", h.Path, h.Year)
					}
					return nil
				},
			},
			{
				Name:      "csv",
				Usage:     "Finalize a results file (one path per line) into a CSV",
				ArgsUsage: "<results-file>",
				Action: func(c *cli.Context) error {
					if c.NArg() < 1 {
						return fmt.Errorf("usage: dilasearch csv <results-file>")
					}
					cfg, err := loadConfigWithOverrides(c)
					if err != nil {
						return err
					}
					return pipeline.New(cfg).CSV(c.Args().First())
				},
			},
			{
				Name:      "article",
				Usage:     "Look up a document's full text via the Piste API",
				ArgsUsage: "<cid> <fond>",
				Action: func(c *cli.Context) error {
					if c.NArg() < 2 {
						return fmt.Errorf("usage: dilasearch article <cid> <fond>")
					}
					cfg, err := loadConfigWithOverrides(c)
					if err != nil {
						return err
					}
					ctx := context.Background()
					client := piste.New(ctx, piste.Config{
						ClientID:     cfg.Piste.ClientID,
						ClientSecret: cfg.Piste.ClientSecret,
						TokenURL:     cfg.Piste.TokenURL,
						BaseURL:      cfg.Piste.BaseURL,
					})
					text, err := client.FullText(ctx, c.Args().Get(0), c.Args().Get(1))
					if err != nil {
						return err
					}
					fmt.Println(text)
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "dilasearch: %v\n", err)
		os.Exit(1)
	}
}
