// Command huntflow executes huntflow scripts against STIX bundle data
// sources and prints the resulting tables.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/huntflow-lang/huntflow/display"
	"github.com/huntflow-lang/huntflow/session"
)

func main() {
	var (
		debug      bool
		runtimeDir string
		noColor    bool
	)

	rootCmd := &cobra.Command{
		Use:   "huntflow [script]",
		Short: "Run a huntflow threat-hunting script",
		Long: "Run a huntflow script from a file, or from stdin when the\n" +
			"argument is - or input is piped.",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if noColor {
				color.NoColor = true
			}
			script, err := readScript(args)
			if err != nil {
				return err
			}
			return runScript(cmd.OutOrStdout(), script, debug, runtimeDir)
		},
	}

	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging and the shared runtime directory")
	rootCmd.PersistentFlags().StringVar(&runtimeDir, "runtime-dir", "", "Use a specific runtime directory instead of an ephemeral one")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	if err := rootCmd.Execute(); err != nil {
		reportError(err)
		os.Exit(1)
	}
}

// readScript resolves the script text from the argument or stdin. A lone
// "-" reads stdin explicitly; with no argument, stdin is used when input
// is piped.
func readScript(args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", fmt.Errorf("reading script: %w", err)
		}
		return string(data), nil
	}
	if len(args) == 0 && !hasPipedInput() {
		return "", errors.New("no script given: pass a file or pipe one on stdin")
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return string(data), nil
}

func hasPipedInput() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

func runScript(out io.Writer, script string, debug bool, runtimeDir string) error {
	var opts []session.Option
	if debug {
		opts = append(opts, session.WithDebug(true))
	}
	if runtimeDir != "" {
		opts = append(opts, session.WithRuntimeDir(runtimeDir))
	}
	sess, err := session.New(opts...)
	if err != nil {
		return err
	}
	defer sess.Close()

	results, err := sess.Execute(script)
	if err != nil {
		return err
	}
	failed := false
	for _, res := range results {
		if msg, ok := res.(display.ErrorMessage); ok {
			color.New(color.FgRed).Fprintln(os.Stderr, msg.String())
			failed = true
			continue
		}
		fmt.Fprintln(out, res)
	}
	if failed {
		return errors.New("script aborted on a data error")
	}
	return nil
}

// reportError renders a fatal error. Parse errors carry position and
// keyword suggestions in their message already.
func reportError(err error) {
	color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
}
