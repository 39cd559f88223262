// Package main provides the CLI entry point for sheetcore.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/ukaji3/sheetcore-go/pkg/sheet"
)

// app holds the state shared by all subcommands of one invocation.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	configPath string
	file       string
	logLevel   string
	logFormat  string
	asJSON     bool

	cfg    *Config
	logger *slog.Logger
	events sheet.ChannelSink
	sheet  *sheet.Sheet
}

func main() {
	rootCmd := newRootCmd(os.Stdin, os.Stdout, os.Stderr)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdin: stdin, stdout: stdout, stderr: stderr}

	rootCmd := &cobra.Command{
		Use:   "sheetcore",
		Short: "Formula spreadsheet backed by a CSV file",
		Long: `sheetcore reads and edits a CSV file as a spreadsheet with formulas,
condition and SQL queries, and live watches on external appends.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if a.sheet != nil {
				return a.sheet.Close()
			}
			return nil
		},
	}
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "Config file path (default: ./"+defaultConfigPath+" if present)")
	flags.StringVarP(&a.file, "file", "f", "", "Backing CSV file (overrides config)")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.StringVar(&a.logFormat, "log-format", "", "Log format: text, json")
	flags.BoolVar(&a.asJSON, "json", false, "Print results as JSON")

	rootCmd.AddCommand(
		a.viewCmd(), a.getCmd(), a.setCmd(), a.addCmd(), a.pushCmd(),
		a.removeCmd(), a.updateCmd(), a.queryCmd(), a.sqlCmd(), a.sortCmd(),
		a.fillCmd(), a.schemaCmd(), a.resizeCmd(), a.ingestCmd(), a.dumpCmd(),
		a.clearCmd(), a.renameCmd(), a.formatCmd(), a.tailCmd(), a.watchesCmd(),
	)
	return rootCmd
}

// setup merges the config file with flags, builds the logger and opens the sheet.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	path, explicit := a.configPath, a.configPath != ""
	if !explicit {
		path = defaultConfigPath
	}
	raw, err := loadConfig(path, explicit)
	if err != nil {
		return err
	}
	if a.file != "" {
		raw.File = a.file
	}
	if a.logLevel != "" {
		raw.LogLevel = a.logLevel
	}
	if a.logFormat != "" {
		raw.LogFormat = a.logFormat
	}
	cfg, err := NewConfig(raw)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	a.cfg = cfg
	a.logger = newLogger(cfg.LogLevel, cfg.LogFormat, a.stderr)

	opts := cfg.Options()
	opts.Logger = a.logger
	opts.Actions = a.actions()
	a.events = make(sheet.ChannelSink, 256)
	opts.Events = a.events
	s, err := sheet.Open(cfg.File, opts)
	if err != nil {
		return err
	}
	a.sheet = s
	a.logger.Debug("Opened sheet", "path", s.Path(), "command", cmd.Name())
	return nil
}
