package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/atoms/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		errors.Print(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "atoms",
		Short: "Reactive atom store tooling",
		Long: `atoms runs and inspects reactive atom stores.

An atom is a unit of state. Derived atoms are computed from other atoms
and recomputed only when something they read has changed. Async atoms
resolve on their own goroutine. Subscribing to an atom mounts it and
everything it depends on.

  • serve: devtools server over a demo graph (HTTP, WebSocket, metrics)
  • demo:  scripted scenarios printing what the store does
  • init:  write a default configuration file`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to atoms.json or atoms.yaml")

	rootCmd.AddCommand(
		serveCmd(&configPath),
		demoCmd(),
		initCmd(),
		versionCmd(),
	)
	return rootCmd
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}
