package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hris-labs/shiftgate/config"
)

// Version is set at build time with -ldflags "-X .../cmd.Version=...".
var Version = "dev"

// rootOptions holds flags shared by every command.
type rootOptions struct {
	configPath string
	logLevel   string
}

var rootCmd = newRootCommand()

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "shiftgate",
		Short: "shiftgate resolves work sessions and gates attendance",
		Long: `shiftgate classifies clock events into work sessions, flags late arrivals
and decides whether attendance may be recorded, from a session directory that
may be remote and unreliable.`,
		SilenceUsage: true,
		Version:      Version,
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to a TOML configuration file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "Log level (debug|info|warn|error)")

	cmd.AddCommand(newServerCommand(opts))
	cmd.AddCommand(newResolveCommand(opts))
	cmd.AddCommand(newSessionsCommand(opts))
	return cmd
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// loadConfig reads --config when given and the defaults otherwise.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	if o.configPath == "" {
		return config.Default(), nil
	}
	return config.Load(o.configPath)
}

// logger returns a JSON logger on w at the --log-level.
func (o *rootOptions) logger(w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(o.logLevel))); err != nil {
		return nil, fmt.Errorf("invalid log level %q", o.logLevel)
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})), nil
}
