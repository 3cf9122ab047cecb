package cmd

import (
	"strings"
	"time"

	"github.com/louis030195/bigbrother/internal/output"
	"github.com/louis030195/bigbrother/internal/replay"
	"github.com/louis030195/bigbrother/internal/uierr"
	"github.com/louis030195/bigbrother/internal/workflow"
	"github.com/spf13/cobra"
)

var replayCmd = &cobra.Command{
	Use:   "replay <name|path>",
	Short: "Replay a recorded workflow",
	Long: "Replay a saved workflow by name (or a .json file by path), preserving\n" +
		"the recorded pacing. Clicks that carry a selector snapshot re-resolve the\n" +
		"target element so replay survives moved windows.",
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)
	replayCmd.Flags().Float64("speed", 1.0, "Pacing multiplier (0.5 = twice as fast, 2.0 = half speed)")
	replayCmd.Flags().Bool("fail-fast", false, "Abort on the first failed step instead of continuing")
	replayCmd.Flags().Duration("timeout", 0, "Per-step element resolve timeout (0 = default)")
	replayCmd.Flags().String("dir", "", "Workflow storage directory (default ~/.bigbrother/workflows)")
}

// replayResult is the top-level output of the replay command.
type replayResult struct {
	OK       bool   `yaml:"ok"       json:"ok"`
	Name     string `yaml:"name"     json:"name"`
	Replayed int    `yaml:"replayed" json:"replayed"`
	Skipped  int    `yaml:"skipped"  json:"skipped"`
	Failed   int    `yaml:"failed"   json:"failed"`
	Duration string `yaml:"duration" json:"duration"`
}

func loadWorkflow(cmd *cobra.Command, ref string) (*workflow.Workflow, error) {
	if strings.HasSuffix(ref, ".json") {
		return workflow.LoadFile(ref)
	}
	dir, _ := cmd.Flags().GetString("dir")
	if dir == "" {
		dir = workflow.DefaultDir()
	}
	store, err := workflow.NewStore(dir)
	if err != nil {
		return nil, err
	}
	w, err := store.Load(ref)
	if err != nil {
		return nil, uierr.Wrap(uierr.Unknown, "workflow "+ref+" not found", err)
	}
	return w, nil
}

func runReplay(cmd *cobra.Command, args []string) error {
	w, err := loadWorkflow(cmd, args[0])
	if err != nil {
		return err
	}

	provider, err := newProvider()
	if err != nil {
		return err
	}

	r := replay.New(provider.Inputter, provider.Tree, provider.Focuser).WithLogger(log)
	if speed, _ := cmd.Flags().GetFloat64("speed"); speed > 0 {
		r.Speed(speed)
	}
	if failFast, _ := cmd.Flags().GetBool("fail-fast"); failFast {
		r.SetMode(replay.FailFast)
	}
	if timeout, _ := cmd.Flags().GetDuration("timeout"); timeout > 0 {
		r.ResolveTimeout(timeout)
	}

	start := time.Now()
	stats, err := r.Replay(w)
	result := replayResult{
		OK:       err == nil,
		Name:     w.Name,
		Replayed: stats.Replayed,
		Skipped:  stats.Skipped,
		Failed:   stats.Failed,
		Duration: time.Since(start).Round(time.Millisecond).String(),
	}
	if err != nil {
		// Report partial progress alongside the failure.
		output.Print(result)
		return err
	}
	return output.Print(result)
}
