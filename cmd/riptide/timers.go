package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"riptide/internal/coro"
	"riptide/internal/ioengine"
)

var timersCmd = &cobra.Command{
	Use:   "timers",
	Short: "Race pure timers and report completion order",
	Long:  `Register N staggered deadlines in reverse order and show that the engine fires them soonest-first regardless of registration order`,
	RunE:  runTimers,
}

func init() {
	timersCmd.Flags().Int("count", 5, "number of timers to race")
	timersCmd.Flags().Duration("spread", 300*time.Millisecond, "span the deadlines are spread over")
}

func runTimers(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	if err := applyColorFlag(cmd); err != nil {
		return err
	}
	count, err := cmd.Flags().GetInt("count")
	if err != nil {
		return fmt.Errorf("failed to get count flag: %w", err)
	}
	spread, err := cmd.Flags().GetDuration("spread")
	if err != nil {
		return fmt.Errorf("failed to get spread flag: %w", err)
	}
	if count < 1 {
		return fmt.Errorf("count must be at least 1, got %d", count)
	}

	eng := ioengine.New(ioengine.Config{})
	defer eng.Close()

	type firing struct {
		name  string
		want  time.Duration
		after time.Duration
	}
	fired := make([]firing, 0, count)
	start := time.Now()

	// Longest deadline registered first: completion order must still come
	// out soonest-first.
	for i := count; i >= 1; i-- {
		d := spread * time.Duration(i) / time.Duration(count)
		name := fmt.Sprintf("timer-%d", i)
		coro.New(func(c *coro.Coroutine) {
			if err := eng.WaitFor(c, d); err != nil {
				return
			}
			fired = append(fired, firing{name: name, want: d, after: time.Since(start)})
		}).Resume()
	}

	eng.PullAll()

	if len(fired) != count {
		return fmt.Errorf("expected %d timers to fire, got %d", count, len(fired))
	}
	green := color.New(color.FgGreen).SprintFunc()
	for i, f := range fired {
		fmt.Printf("%2d. %s %s (armed for %v, fired after %v)\n",
			i+1, f.name, green("fired"), f.want, f.after.Round(time.Millisecond))
	}
	stats := eng.Stats()
	fmt.Printf("drains=%d resumed=%d timeouts=%d\n", stats.Drains, stats.Resumed, stats.Timeouts)
	return nil
}
