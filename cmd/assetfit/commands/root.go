// Package commands implements the assetfit command line.
package commands

import (
	"context"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/gogpu/assets"
)

// CLI represents the assetfit command line interface.
type CLI struct {
	rootCmd *cobra.Command
	stdout  io.Writer
	stderr  io.Writer

	configPath string
	verbose    bool
}

// New creates a CLI writing results to stdout and logs to stderr.
func New(stdout, stderr io.Writer) *CLI {
	rootCmd := &cobra.Command{
		Use:           "assetfit",
		Short:         "Load, fit and rasterize images through the asset cache",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       assets.Version,
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	c := &CLI{
		rootCmd: rootCmd,
		stdout:  stdout,
		stderr:  stderr,
	}

	rootCmd.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "YAML configuration file")
	rootCmd.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Log cache and load activity to stderr")
	rootCmd.PersistentPreRun = func(*cobra.Command, []string) {
		c.setupLogging()
	}

	rootCmd.AddCommand(c.newFitCmd())
	rootCmd.AddCommand(c.newIconCmd())
	rootCmd.AddCommand(c.newWatchCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

func (c *CLI) setupLogging() {
	level := slog.LevelWarn
	if c.verbose {
		level = slog.LevelDebug
	}
	assets.SetLogger(slog.New(slog.NewTextHandler(c.stderr, &slog.HandlerOptions{Level: level})))
}

func (c *CLI) logger() *slog.Logger {
	return assets.Logger()
}
