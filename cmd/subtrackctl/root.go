package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"subtrack/internal/cli"
	"subtrack/internal/config"
	"subtrack/internal/log"
)

// runtime holds what every command needs: where to write and how to reach
// the configured storage. Tests swap loadConfig for a temp directory.
type runtime struct {
	out        io.Writer
	errOut     io.Writer
	loadConfig func() (*config.Config, error)
	logger     *log.Logger
	verbose    bool
}

func newRuntime() *runtime {
	return &runtime{
		out:        os.Stdout,
		errOut:     os.Stderr,
		loadConfig: cli.LoadAndValidateConfig,
	}
}

// withApp bootstraps the application for the duration of fn.
func (rt *runtime) withApp(ctx context.Context, fn func(*cli.App) error) error {
	cfg, err := rt.loadConfig()
	if err != nil {
		return err
	}
	app, err := cli.Bootstrap(ctx, cfg, rt.logger, nil)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := app.Close(); cerr != nil {
			rt.logger.Warn("Failed to release resources", log.FieldError, cerr)
		}
	}()
	return fn(app)
}

func newRootCmd(rt *runtime) *cobra.Command {
	root := &cobra.Command{
		Use:   "subtrackctl",
		Short: "Manage subscriptions from the command line",
		Long: `subtrackctl reads and writes the same storage as the subtrack server.
Storage is selected with DATA_BACKEND and friends; run "subtrackctl config"
for the full list.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := "warn"
			if rt.verbose {
				level = "debug"
			}
			rt.logger = cli.SetupLogger(rt.errOut, level).WithComponent(log.ComponentCLI)
		},
	}
	root.SetOut(rt.out)
	root.SetErr(rt.errOut)
	root.PersistentFlags().BoolVarP(&rt.verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddGroup(
		&cobra.Group{ID: "subscriptions", Title: "Subscriptions:"},
		&cobra.Group{ID: "reports", Title: "Reports:"},
		&cobra.Group{ID: "system", Title: "System:"},
	)
	root.SetHelpCommandGroupID("system")
	root.SetCompletionCommandGroupID("system")

	root.AddCommand(
		newListCmd(rt),
		newShowCmd(rt),
		newAddCmd(rt),
		newUpdateCmd(rt),
		newDeleteCmd(rt),
		newClearCmd(rt),
		newDashboardCmd(rt),
		newExportCmd(rt),
		newSettingsCmd(rt),
		newWatchCmd(rt),
		newConfigCmd(rt),
	)
	return root
}

func newConfigCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:     "config",
		Short:   "List the environment variables subtrack reads",
		GroupID: "system",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config.Usage(rt.out)
			return nil
		},
	}
}

func main() {
	cli.LoadEnvFile()

	ctx, stop := cli.ShutdownContext(context.Background())
	rt := newRuntime()
	err := newRootCmd(rt).ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(rt.errOut, "Error:", err)
		os.Exit(1)
	}
}
