package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"riptide/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "riptide",
	Short: "Riptide cooperative I/O runtime",
	Long:  `Riptide is a single-threaded cooperative I/O runtime: coroutines suspended on descriptor readiness or deadlines, multiplexed through one batched poll`,
}

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(echoCmd)
	rootCmd.AddCommand(timersCmd)
	rootCmd.AddCommand(monitorCmd)
	rootCmd.AddCommand(traceCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("config", "", "path to riptide.toml (default: ./riptide.toml)")
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
