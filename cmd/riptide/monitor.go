//go:build unix

package main

import (
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"

	"riptide/internal/config"
	"riptide/internal/coro"
	"riptide/internal/ioengine"
	"riptide/internal/osfd"
	"riptide/internal/trace"
	"riptide/internal/ui"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Run a synthetic workload and watch engine stats live",
	Long:  `Drive a mixed workload of timers and pipe traffic through the engine and stream its counters to a terminal dashboard`,
	RunE:  runMonitor,
}

func init() {
	monitorCmd.Flags().Duration("duration", 5*time.Second, "how long to run the workload")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	if err := applyColorFlag(cmd); err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	duration, err := cmd.Flags().GetDuration("duration")
	if err != nil {
		return fmt.Errorf("failed to get duration flag: %w", err)
	}
	tracer, err := buildTracer(cfg.Trace)
	if err != nil {
		return err
	}

	events := make(chan ui.StatsMsg, 16)
	go runWorkload(cfg.Monitor, duration, tracer, events)

	if isTerminal(os.Stdout) {
		model := ui.NewMonitorModel("riptide monitor", events)
		p := tea.NewProgram(model, tea.WithOutput(os.Stdout))
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("monitor ui: %w", err)
		}
		return nil
	}

	// No terminal: drain the stream and print the final snapshot.
	var last ui.StatsMsg
	for msg := range events {
		last = msg
	}
	fmt.Println(ui.Summary(last))
	return nil
}

// runWorkload owns the engine for the whole run. Everything that touches it
// happens on this goroutine; only the stats channel crosses to the UI.
func runWorkload(mcfg config.Monitor, duration time.Duration, tracer trace.Tracer, events chan<- ui.StatsMsg) {
	defer close(events)

	eng := ioengine.New(ioengine.Config{Tracer: tracer})
	start := time.Now()
	stop := start.Add(duration)

	// Staggered rearming timers.
	for i := 0; i < mcfg.Timers; i++ {
		d := time.Duration(10+17*i%90) * time.Millisecond
		coro.New(func(c *coro.Coroutine) {
			for time.Now().Before(stop) {
				if err := eng.WaitFor(c, d); err != nil {
					return
				}
			}
		}).Resume()
	}

	// Pipe ping-pong: a writer feeds bytes, a reader suspends on readiness.
	r, w, perr := osfd.Pipe()
	if perr == nil {
		defer r.Close()
		defer w.Close()
		coro.New(func(c *coro.Coroutine) {
			buf := make([]byte, 16)
			for {
				ev, err := eng.PollFor(c, r.FD(), ioengine.EventIn, 50*time.Millisecond)
				if err != nil {
					return
				}
				if ev&ioengine.EventIn != 0 {
					if n, rerr := unix.Read(r.FD(), buf); rerr != nil || n == 0 {
						return
					}
				}
				if !time.Now().Before(stop) {
					return
				}
			}
		}).Resume()
		coro.New(func(c *coro.Coroutine) {
			for time.Now().Before(stop) {
				_, _ = unix.Write(w.FD(), []byte("ping"))
				if err := eng.WaitFor(c, 20*time.Millisecond); err != nil {
					return
				}
			}
		}).Resume()
	}

	// Sampler publishes counters on every tick, from inside the reactor.
	coro.New(func(c *coro.Coroutine) {
		for time.Now().Before(stop) {
			select {
			case events <- ui.StatsMsg{Stats: eng.Stats(), Pending: eng.Len(), Elapsed: time.Since(start)}:
			default:
			}
			if err := eng.WaitFor(c, mcfg.Tick()); err != nil {
				return
			}
		}
	}).Resume()

	eng.PullAll()
	events <- ui.StatsMsg{Stats: eng.Stats(), Pending: eng.Len(), Elapsed: time.Since(start)}
	_ = eng.Close()
}
