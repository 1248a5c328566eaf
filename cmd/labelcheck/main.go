package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
var version = "dev"

// exitErr carries a numeric exit code through the cobra error path.
type exitErr struct {
	code int
	msg  string
}

func (e *exitErr) Error() string { return e.msg }

func codeError(code int, format string, args ...any) error {
	return &exitErr{code: code, msg: fmt.Sprintf(format, args...)}
}

// globals is the state shared by every subcommand once the config is read.
type globals struct {
	configPath string
	logLevel   string

	cfg    config
	logger *slog.Logger
}

func (g *globals) load() error {
	cfg, found, err := loadConfig(g.configPath)
	if err != nil {
		return codeError(3, "%s", err)
	}
	if g.logLevel != "" {
		cfg.LogLevel = g.logLevel
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return codeError(3, "%s", err)
	}
	if !found {
		logger.Debug("no config file, using defaults", "path", g.configPath)
	}
	g.cfg, g.logger = cfg, logger
	return nil
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:           "labelcheck",
		Short:         "Ingredient compliance matching: allergens, GRAS and NDI",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return g.load()
		},
	}
	root.PersistentFlags().StringVar(&g.configPath, "config", "labelcheck.yaml", "path to config file")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "override log_level (debug, info, warn, error)")

	root.AddCommand(
		newServeCmd(g),
		newCheckCmd(g),
		newImportCmd(g),
		newSourcesCmd(g),
		newStatsCmd(g),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		var ee *exitErr
		if errors.As(err, &ee) {
			fmt.Fprintln(os.Stderr, "Error:", ee.msg)
			os.Exit(ee.code)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
