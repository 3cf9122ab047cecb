package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/louis030195/bigbrother/internal/output"
	"github.com/louis030195/bigbrother/internal/recorder"
	"github.com/louis030195/bigbrother/internal/uierr"
	"github.com/louis030195/bigbrother/internal/workflow"
	"github.com/spf13/cobra"
)

var recordCmd = &cobra.Command{
	Use:   "record <name>",
	Short: "Record desktop input as a replayable workflow",
	Long: "Capture mouse and keyboard input into a named workflow until\n" +
		"interrupted (Ctrl-C) or --duration elapses. Pointer moves are sampled by\n" +
		"distance, keystrokes aggregate into text runs, and clicks carry a\n" +
		"selector snapshot of the element under the cursor for resilient replay.",
	Args: cobra.ExactArgs(1),
	RunE: runRecord,
}

func init() {
	rootCmd.AddCommand(recordCmd)
	recordCmd.Flags().Duration("duration", 0, "Stop automatically after this long (0 = until interrupted)")
	recordCmd.Flags().String("dir", "", "Workflow storage directory (default ~/.bigbrother/workflows)")
	recordCmd.Flags().Float64("threshold", 0, "Min pointer distance in px before a move is recorded (0 = default)")
	recordCmd.Flags().Duration("text-timeout", 0, "Quiet period that closes a text run (0 = default)")
	recordCmd.Flags().Int("buffer", 0, "Event queue capacity; overflow drops events (0 = default)")
	recordCmd.Flags().Bool("no-context", false, "Skip element selector capture on clicks")
}

// recordResult is the top-level output of the record command.
type recordResult struct {
	OK       bool   `yaml:"ok"       json:"ok"`
	Name     string `yaml:"name"     json:"name"`
	Path     string `yaml:"path"     json:"path"`
	Events   int    `yaml:"events"   json:"events"`
	Dropped  uint64 `yaml:"dropped"  json:"dropped"`
	Duration string `yaml:"duration" json:"duration"`
}

func runRecord(cmd *cobra.Command, args []string) error {
	provider, err := newProvider()
	if err != nil {
		return err
	}
	if status := provider.Permissions.Request(); !status.AllGranted() {
		return uierr.Newf(uierr.PermissionDenied,
			"missing permissions (accessibility=%v, input_monitoring=%v); grant them in System Settings > Privacy & Security",
			status.Accessibility, status.InputMonitoring)
	}

	cfg := recorder.DefaultConfig()
	cfg.Log = log
	if threshold, _ := cmd.Flags().GetFloat64("threshold"); threshold > 0 {
		cfg.PointerMoveThreshold = threshold
	}
	if quiet, _ := cmd.Flags().GetDuration("text-timeout"); quiet > 0 {
		cfg.TextQuietTimeout = quiet
	}
	if buffer, _ := cmd.Flags().GetInt("buffer"); buffer > 0 {
		cfg.MaxBufferedEvents = buffer
	}
	// Context capture is on for CLI recordings; replays survive moved
	// windows only when clicks carry a selector snapshot.
	noContext, _ := cmd.Flags().GetBool("no-context")
	cfg.CaptureElementContext = !noContext

	rec := recorder.New(provider.Hook, provider.Focuser, provider.Tree, cfg)
	w, handle, err := rec.Start(args[0])
	if err != nil {
		return err
	}
	start := time.Now()

	fmt.Fprintf(os.Stderr, "recording %q; press Ctrl-C to stop\n", args[0])

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	duration, _ := cmd.Flags().GetDuration("duration")
	var expired <-chan time.Time
	if duration > 0 {
		expired = time.After(duration)
	}

	select {
	case <-interrupt:
	case <-expired:
	}

	if err := handle.Stop(w); err != nil {
		return err
	}

	dir, _ := cmd.Flags().GetString("dir")
	if dir == "" {
		dir = workflow.DefaultDir()
	}
	store, err := workflow.NewStore(dir)
	if err != nil {
		return err
	}
	path, err := store.Save(w)
	if err != nil {
		return err
	}

	return output.Print(recordResult{
		OK:       true,
		Name:     w.Name,
		Path:     path,
		Events:   len(w.Events),
		Dropped:  handle.Dropped(),
		Duration: time.Since(start).Round(time.Millisecond).String(),
	})
}
