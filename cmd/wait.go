package cmd

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/louis030195/bigbrother/internal/output"
	"github.com/louis030195/bigbrother/internal/platform"
	"github.com/louis030195/bigbrother/internal/uierr"
	"github.com/spf13/cobra"
)

var waitCmd = &cobra.Command{
	Use:   "wait [selector]",
	Short: "Wait for an element to appear or for input to go idle",
	Long: "Poll the accessibility tree until an element matching the selector\n" +
		"appears, or with --idle, wait until no user input arrives for the given\n" +
		"quiet period. Fails with a timeout error when the deadline passes first.",
	Args: cobra.MaximumNArgs(1),
	RunE: runWait,
}

func init() {
	rootCmd.AddCommand(waitCmd)
	waitCmd.Flags().String("app", "", "Limit the search to this application's subtree")
	waitCmd.Flags().Duration("timeout", 30*time.Second, "Max time to wait")
	waitCmd.Flags().Duration("interval", 250*time.Millisecond, "Polling interval")
	waitCmd.Flags().Duration("idle", 0, "Wait for this long with no user input instead of a selector")
	waitCmd.Flags().Bool("strict", false, "Fail when the selector matches more than one element")
	waitCmd.Flags().Int("max-depth", 0, "Max tree depth to traverse (0 = default)")
}

// waitResult is the top-level output of the wait command.
type waitResult struct {
	OK      bool         `yaml:"ok"                json:"ok"`
	Waited  string       `yaml:"waited"            json:"waited"`
	Element *elementInfo `yaml:"element,omitempty" json:"element,omitempty"`
}

func runWait(cmd *cobra.Command, args []string) error {
	idle, _ := cmd.Flags().GetDuration("idle")
	if idle > 0 {
		if len(args) != 0 {
			return fmt.Errorf("--idle and a selector argument are mutually exclusive")
		}
		timeout, _ := cmd.Flags().GetDuration("timeout")
		return waitIdle(idle, timeout)
	}

	if len(args) != 1 {
		return fmt.Errorf("a selector argument or --idle is required")
	}
	loc, err := newLocator(cmd, args[0])
	if err != nil {
		return err
	}

	start := time.Now()
	n, err := loc.Wait()
	if err != nil {
		return fmt.Errorf("wait for %q: %w", args[0], err)
	}
	info := elementInfoFromNode(n)
	return output.Print(waitResult{
		OK:      true,
		Waited:  time.Since(start).Round(time.Millisecond).String(),
		Element: &info,
	})
}

// waitIdle blocks until no raw input arrives for the quiet window. The
// deadline bounds the whole wait; crossing it is a timeout error.
func waitIdle(quiet, timeout time.Duration) error {
	provider, err := newProvider()
	if err != nil {
		return err
	}
	if status := provider.Permissions.Request(); !status.InputMonitoring {
		return uierr.New(uierr.PermissionDenied,
			"input monitoring permission is required to observe idle state")
	}

	var lastInput atomic.Int64
	start := time.Now()
	lastInput.Store(0)
	if err := provider.Hook.Start(func(platform.RawEvent) {
		lastInput.Store(int64(time.Since(start)))
	}); err != nil {
		return err
	}
	defer provider.Hook.Stop()

	deadline := time.Now().Add(timeout)
	for {
		elapsed := time.Since(start)
		quietFor := elapsed - time.Duration(lastInput.Load())
		if quietFor >= quiet {
			return output.Print(waitResult{
				OK:     true,
				Waited: elapsed.Round(time.Millisecond).String(),
			})
		}
		if time.Now().After(deadline) {
			return uierr.Newf(uierr.Timeout, "input did not go idle for %s within %s", quiet, timeout)
		}
		time.Sleep(50 * time.Millisecond)
	}
}
