// Package commands implements the CLI commands for tola.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/tola/internal/adapters/detector"
	"go.trai.ch/tola/internal/app"
	"go.trai.ch/tola/internal/build"
)

// CLI represents the command line interface for tola.
type CLI struct {
	app     Application
	rootCmd *cobra.Command
}

// Application represents the application logic interface.
type Application interface {
	Build(ctx context.Context, opts app.Options) error
	Watch(ctx context.Context, opts app.Options) error
}

// New creates a new CLI instance with the given app.
func New(a Application) *CLI {
	rootCmd := &cobra.Command{
		Use:           "tola",
		Short:         "An incremental static site generator for typst",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	flags := rootCmd.PersistentFlags()
	flags.StringP("root", "C", ".", "Directory to start the configuration search from")
	flags.IntP("jobs", "j", 0, "Number of parallel compile jobs (0 uses the configured value)")
	flags.String("color", "auto", "Colored output: auto, always or never")
	flags.Bool("json-logs", false, "Write logs as JSON lines")
	flags.String("trace", "", "Write one JSON line per finished span to this file")

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}

	rootCmd.AddCommand(c.newBuildCmd())
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

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}

// options reads the persistent flags shared by build and watch.
func options(cmd *cobra.Command) app.Options {
	flags := cmd.Flags()
	root, _ := flags.GetString("root")
	jobs, _ := flags.GetInt("jobs")
	color, _ := flags.GetString("color")
	jsonLogs, _ := flags.GetBool("json-logs")
	trace, _ := flags.GetString("trace")

	return app.Options{
		Dir:       root,
		Jobs:      jobs,
		Color:     detector.ParseColorMode(color),
		JSONLogs:  jsonLogs,
		TraceFile: trace,
	}
}
