package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/taskquery"
	"github.com/poiesic/taskquery/core"
	"github.com/poiesic/taskquery/search"
	"github.com/poiesic/taskquery/settings"
)

func ingestCommand() *cli.Command {
	return &cli.Command{
		Name:  "ingest",
		Usage: "Parse the vault and replace the stored tasks",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "vault",
				Aliases: []string{"v"},
				Usage:   "Vault directory; overrides the settings file",
			},
		},
		Action: ingestAction,
	}
}

func ingestAction(c *cli.Context) error {
	cfg, err := loadSettings(c)
	if err != nil {
		return err
	}
	if v := c.String("vault"); v != "" {
		cfg.Vault.Path = v
	}
	engine, err := taskquery.Open(cfg)
	if err != nil {
		return fmt.Errorf("failed to open engine: %w", err)
	}
	defer engine.Close()

	n, err := engine.Ingest(c.Context)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "ingested %d tasks from %s\n", n, cfg.Vault.Path)
	return nil
}

func queryCommand() *cli.Command {
	return &cli.Command{
		Name:      "query",
		Usage:     "Search the stored tasks",
		ArgsUsage: "<query words>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "mode",
				Aliases: []string{"m"},
				Usage:   "Query mode (simple, smart, chat); defaults to the settings file",
			},
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum number of tasks to show, 0 for all",
				Value:   20,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print the result as JSON",
			},
			&cli.BoolFlag{
				Name:  "ingest",
				Usage: "Ingest the vault before searching",
			},
		},
		Action: queryAction,
	}
}

func queryAction(c *cli.Context) error {
	cfg, err := loadSettings(c)
	if err != nil {
		return err
	}
	mode, err := resolveMode(c.String("mode"), cfg)
	if err != nil {
		return err
	}
	if c.Int("limit") < 0 {
		return fmt.Errorf("limit must not be negative")
	}

	engine, err := taskquery.Open(cfg)
	if err != nil {
		return fmt.Errorf("failed to open engine: %w", err)
	}
	defer engine.Close()

	if c.Bool("ingest") {
		if _, err := engine.Ingest(c.Context); err != nil {
			return fmt.Errorf("ingest failed: %w", err)
		}
	}

	result, err := engine.Search(c.Context, strings.Join(c.Args().Slice(), " "), mode, c.Int("limit"))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if c.Bool("json") {
		enc := json.NewEncoder(c.App.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(newQueryResponse(result))
	}
	printResult(c, result)
	return nil
}

func printResult(c *cli.Context, result *search.Result) {
	w := c.App.Writer
	for _, warning := range result.Intent.Diagnostics.Warnings {
		fmt.Fprintf(w, "note: %s\n", warning)
	}
	fmt.Fprintf(w, "Found %d of %d tasks (%s mode)\n", result.Total, result.Scanned, result.Intent.Mode)
	for i, st := range result.Tasks {
		t := st.Task
		fmt.Fprintf(w, "%d: [%s] %s", i+1, t.Status, t.Text)
		if t.HasPriority() {
			fmt.Fprintf(w, " p%d", t.Priority)
		}
		if t.HasDue() {
			fmt.Fprintf(w, " due %s", t.Due.Format(core.IsoDateLayout))
		}
		fmt.Fprintf(w, " (%s:%d)[%0.3f]\n", t.Path, t.Line, st.FinalScore)
	}
}

// resolveMode maps an empty mode name to the configured default.
func resolveMode(name string, cfg *settings.Settings) (core.Mode, error) {
	if name == "" {
		return cfg.DefaultMode(), nil
	}
	return core.ParseMode(name)
}

func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Print the effective settings",
		Action: func(c *cli.Context) error {
			cfg, err := loadSettings(c)
			if err != nil {
				return err
			}
			data, err := cfg.Marshal()
			if err != nil {
				return err
			}
			_, err = c.App.Writer.Write(data)
			if err != nil {
				return err
			}
			_, warnings := cfg.ResolveTerms()
			for _, w := range warnings {
				fmt.Fprintf(c.App.ErrWriter, "warning: %s\n", w)
			}
			return nil
		},
	}
}
