package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version is set at build time
var Version = "dev"

// Execute runs the root command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd(os.Stdout).ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. Flags are bound to a private viper
// instance so BUSYWORK_* environment variables override the defaults.
func newRootCmd(stdout io.Writer) *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:   "busywork",
		Short: "BusyWork - nlog to Loupe bridge demo",
		Long: `BusyWork logs through nlog into a Loupe agent session.

  busywork run                      # start the default workers
  busywork run --workers Larry,Moe  # start selected workers
  busywork exception                # log a nested error
  busywork --config nlog.yaml run   # load targets from a file`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			v.SetEnvPrefix("BUSYWORK")
			v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
			v.AutomaticEnv()
		},
	}
	root.SetOut(stdout)

	root.PersistentFlags().String("config", "nlog.yaml", "path to YAML config")
	root.PersistentFlags().Bool("debug", false, "write agent diagnostics to stderr")
	_ = v.BindPFlag("config", root.PersistentFlags().Lookup("config"))
	_ = v.BindPFlag("debug", root.PersistentFlags().Lookup("debug"))

	root.AddCommand(newRunCmd(v, stdout), newExceptionCmd(v, stdout), newVersionCmd())
	return root
}

func newRunCmd(v *viper.Viper, stdout io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start workers that log trace messages",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(v.GetString("config"), v.GetBool("debug"), stdout)
			if err != nil {
				return err
			}
			opts := workOptions{
				workers:  v.GetStringSlice("workers"),
				messages: v.GetInt("messages"),
				interval: v.GetDuration("interval"),
				failing:  v.GetString("fail"),
			}
			runErr := a.runWorkers(cmd.Context(), opts)
			return firstErr(runErr, a.Close(shutdownReason))
		},
	}
	cmd.Flags().StringSlice("workers", []string{"Larry", "Moe", "Curly", "Shemp"}, "worker names")
	cmd.Flags().Int("messages", 10, "messages per worker")
	cmd.Flags().Duration("interval", 500*time.Millisecond, "delay between messages")
	cmd.Flags().String("fail", "Shemp", "name of the worker that fails to start")
	for _, name := range []string{"workers", "messages", "interval", "fail"} {
		_ = v.BindPFlag(name, cmd.Flags().Lookup(name))
	}
	return cmd
}

func newExceptionCmd(v *viper.Viper, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "exception",
		Short: "Log a nested error at Error level",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(v.GetString("config"), v.GetBool("debug"), stdout)
			if err != nil {
				return err
			}
			a.logException()
			return a.Close(shutdownReason)
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "BusyWork %s\n", Version)
		},
	}
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
