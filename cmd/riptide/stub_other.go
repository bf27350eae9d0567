//go:build !unix

package main

import (
	"errors"

	"github.com/spf13/cobra"
)

var errUnsupported = errors.New("requires a platform with poll(2)")

var echoCmd = &cobra.Command{
	Use:   "echo",
	Short: "Run a poll-driven TCP echo server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return errUnsupported
	},
}

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Run a synthetic workload and watch engine stats live",
	RunE: func(cmd *cobra.Command, args []string) error {
		return errUnsupported
	},
}
