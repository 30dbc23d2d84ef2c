// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v2"

	"github.com/poiesic/taskquery/settings"
)

const defaultConfigPath = "taskquery.yaml"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "taskquery",
		Usage: "Natural-language search over Markdown checklist tasks",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the settings file",
				Value:   defaultConfigPath,
				EnvVars: []string{"TASKQUERY_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error); overrides the settings file",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "Set log format (text, json); overrides the settings file",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			ingestCommand(),
			queryCommand(),
			serveCommand(),
			configCommand(),
		},
	}
}

// setupLogger installs the default logger from the flags. Commands that
// load a settings file call applyLogSettings afterwards.
func setupLogger(c *cli.Context) error {
	level, err := parseLevel(c.String("log-level"))
	if err != nil {
		return err
	}
	format := c.String("log-format")
	if format == "" {
		format = settings.LogFormatText
	}
	return installLogger(c.App.ErrWriter, level, format)
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", s)
}

func installLogger(w io.Writer, level slog.Level, format string) error {
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch format {
	case settings.LogFormatText:
		handler = slog.NewTextHandler(w, opts)
	case settings.LogFormatJSON:
		handler = slog.NewJSONHandler(w, opts)
	default:
		return fmt.Errorf("invalid log format %q: must be text or json", format)
	}
	slog.SetDefault(slog.New(handler))
	return nil
}

// loadSettings reads the settings file named by --config. The default path
// may be absent, in which case built-in defaults apply.
func loadSettings(c *cli.Context) (*settings.Settings, error) {
	path := c.String("config")
	cfg, err := settings.Load(path)
	if errors.Is(err, os.ErrNotExist) && !c.IsSet("config") {
		slog.Debug("no settings file, using defaults", "path", path)
		cfg = settings.Default()
		err = nil
	}
	if err != nil {
		return nil, err
	}
	if err := applyLogSettings(c, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyLogSettings reinstalls the logger from the settings file unless the
// flags already chose.
func applyLogSettings(c *cli.Context, cfg *settings.Settings) error {
	if c.IsSet("log-level") && c.IsSet("log-format") {
		return nil
	}
	level := cfg.Log.Level
	if c.IsSet("log-level") {
		level, _ = parseLevel(c.String("log-level"))
	}
	format := cfg.Log.Format
	if c.IsSet("log-format") {
		format = c.String("log-format")
	}
	return installLogger(c.App.ErrWriter, level, format)
}
