package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"riptide/internal/trace"
)

var traceCmd = &cobra.Command{
	Use:   "trace <file>",
	Short: "Decode a recorded engine trace",
	Long:  `Read a trace file produced by a run with tracing enabled and print its events as text`,
	Args:  cobra.ExactArgs(1),
	RunE:  runTrace,
}

func init() {
	traceCmd.Flags().String("format", "auto", "trace file format (auto, ndjson, msgpack)")
}

func runTrace(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	formatStr, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	format, err := trace.ParseFormat(formatStr)
	if err != nil {
		return err
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open trace file: %w", err)
	}
	defer f.Close()

	events, err := trace.ReadEvents(f, format)
	if err != nil {
		return fmt.Errorf("decode %s: %w", args[0], err)
	}
	if len(events) == 0 {
		fmt.Fprintln(os.Stderr, "trace file contains no events")
		return nil
	}
	return trace.DumpText(os.Stdout, events)
}
