package cmd

import (
	"github.com/louis030195/bigbrother/internal/output"
	"github.com/louis030195/bigbrother/internal/workflow"
	"github.com/spf13/cobra"
)

var workflowsCmd = &cobra.Command{
	Use:   "workflows",
	Short: "List saved workflows",
	Args:  cobra.NoArgs,
	RunE:  runWorkflows,
}

func init() {
	rootCmd.AddCommand(workflowsCmd)
	workflowsCmd.Flags().String("dir", "", "Workflow storage directory (default ~/.bigbrother/workflows)")
}

// workflowsResult is the top-level output of the workflows command.
type workflowsResult struct {
	OK        bool            `yaml:"ok"        json:"ok"`
	Dir       string          `yaml:"dir"       json:"dir"`
	Workflows []workflow.Info `yaml:"workflows" json:"workflows"`
	Total     int             `yaml:"total"     json:"total"`
}

func runWorkflows(cmd *cobra.Command, args []string) error {
	dir, _ := cmd.Flags().GetString("dir")
	if dir == "" {
		dir = workflow.DefaultDir()
	}
	store, err := workflow.NewStore(dir)
	if err != nil {
		return err
	}
	infos, err := store.List()
	if err != nil {
		return err
	}
	if infos == nil {
		infos = []workflow.Info{}
	}
	return output.Print(workflowsResult{
		OK:        true,
		Dir:       store.Dir(),
		Workflows: infos,
		Total:     len(infos),
	})
}
