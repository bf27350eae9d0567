package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"riptide/internal/config"
	"riptide/internal/trace"
)

// loadConfig resolves --config and reads settings, falling back to
// ./riptide.toml and then to defaults.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to get config flag: %w", err)
	}
	if path == "" {
		path = config.DefaultPath
	}
	return config.Load(path)
}

// applyColorFlag configures fatih/color according to --color.
func applyColorFlag(cmd *cobra.Command) error {
	mode, err := cmd.Flags().GetString("color")
	if err != nil {
		return fmt.Errorf("failed to get color flag: %w", err)
	}
	switch mode {
	case "auto":
		color.NoColor = !isTerminal(os.Stdout)
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	default:
		return fmt.Errorf("invalid --color value: %q (expected: auto|on|off)", mode)
	}
	return nil
}

// buildTracer creates a tracer from the [trace] config section.
func buildTracer(cfg config.Trace) (trace.Tracer, error) {
	level, err := trace.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	if level == trace.LevelOff {
		return trace.Nop, nil
	}
	mode := trace.ModeRing
	if cfg.Mode != "" {
		if mode, err = trace.ParseMode(cfg.Mode); err != nil {
			return nil, err
		}
	}
	format := trace.FormatAuto
	if cfg.Format != "" {
		if format, err = trace.ParseFormat(cfg.Format); err != nil {
			return nil, err
		}
	}
	return trace.New(trace.Config{
		Level:      level,
		Mode:       mode,
		Format:     format,
		OutputPath: cfg.Path,
	})
}
