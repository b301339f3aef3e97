package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/hris-labs/shiftgate/shift"
)

type resolveOptions struct {
	at           string
	directoryURL string
	json         bool
}

func newResolveCommand(root *rootOptions) *cobra.Command {
	opts := &resolveOptions{}
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve the session, lateness and gate decision for an instant",
		Long: `Resolve runs the session resolver, the lateness evaluator and the
attendance gate for one instant. The instant is read in the configured
attendance timezone. Directory failures fall back the same way the server does.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("directory") {
				cfg.Directory.URL = opts.directoryURL
			}
			loc, err := cfg.Location()
			if err != nil {
				return err
			}

			at := time.Now()
			if opts.at != "" {
				at, err = time.Parse(time.RFC3339, opts.at)
				if err != nil {
					return fmt.Errorf("invalid --at %q: expected RFC3339", opts.at)
				}
			}

			logger, err := root.logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			dir, closeDir, err := openDirectory(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeDir()

			engine := shift.NewEngine(newCache(cfg, dir), shift.WithLogger(logger))
			verdict := engine.Evaluate(cmd.Context(), at.In(loc))

			if opts.json {
				return writeVerdictJSON(cmd.OutOrStdout(), verdict)
			}
			writeVerdict(cmd.OutOrStdout(), verdict)
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.at, "at", "", "Instant to evaluate, RFC3339 (default: now)")
	cmd.Flags().StringVar(&opts.directoryURL, "directory", "", "Remote session directory URL (default: local session store)")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Print the verdict as JSON")
	return cmd
}

func writeVerdict(w io.Writer, v shift.Verdict) {
	fmt.Fprintf(w, "at:       %s\n", v.At.Format(time.RFC3339))
	fmt.Fprintf(w, "session:  %s\n", v.Session)
	fmt.Fprintf(w, "late:     %t\n", v.Late)
	fmt.Fprintf(w, "allowed:  %t\n", v.Allowed)
	fmt.Fprintf(w, "fallback: %t\n", v.Fallback)
}

func writeVerdictJSON(w io.Writer, v shift.Verdict) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
