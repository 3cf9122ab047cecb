package cmd

import (
	"fmt"
	"time"

	"github.com/louis030195/bigbrother/internal/locator"
	"github.com/louis030195/bigbrother/internal/output"
	"github.com/spf13/cobra"
)

var findCmd = &cobra.Command{
	Use:   "find <selector>",
	Short: "Find UI elements matching a selector",
	Long: "Find UI elements matching a selector expression like\n" +
		"\"role:button AND title:Submit\". With --all, returns every match from a\n" +
		"single traversal; otherwise polls until one match appears or the timeout\n" +
		"elapses.",
	Args: cobra.ExactArgs(1),
	RunE: runFind,
}

func init() {
	rootCmd.AddCommand(findCmd)
	findCmd.Flags().String("app", "", "Limit the search to this application's subtree")
	findCmd.Flags().Duration("timeout", 5*time.Second, "Max time to wait for a match")
	findCmd.Flags().Duration("interval", 250*time.Millisecond, "Polling interval")
	findCmd.Flags().Bool("all", false, "Return all matches from one traversal instead of polling for one")
	findCmd.Flags().Bool("strict", false, "Fail when the selector matches more than one element")
	findCmd.Flags().Int("max-depth", 0, "Max tree depth to traverse (0 = default)")
}

// findResult is the top-level output of the find command.
type findResult struct {
	OK       bool          `yaml:"ok"       json:"ok"`
	Selector string        `yaml:"selector" json:"selector"`
	Matches  []elementInfo `yaml:"matches"  json:"matches"`
	Total    int           `yaml:"total"    json:"total"`
}

func newLocator(cmd *cobra.Command, sel string) (*locator.Locator, error) {
	provider, err := newProvider()
	if err != nil {
		return nil, err
	}
	loc, err := locator.New(provider.Tree, provider.Inputter, sel)
	if err != nil {
		return nil, err
	}
	if app, _ := cmd.Flags().GetString("app"); app != "" {
		loc.InApp(app)
	}
	if timeout, _ := cmd.Flags().GetDuration("timeout"); timeout > 0 {
		loc.Timeout(timeout)
	}
	if interval, _ := cmd.Flags().GetDuration("interval"); interval > 0 {
		loc.Interval(interval)
	}
	if depth, _ := cmd.Flags().GetInt("max-depth"); depth > 0 {
		loc.MaxDepth(depth)
	}
	if strict, _ := cmd.Flags().GetBool("strict"); strict {
		loc.Strict()
	}
	return loc.WithLogger(log), nil
}

func runFind(cmd *cobra.Command, args []string) error {
	loc, err := newLocator(cmd, args[0])
	if err != nil {
		return err
	}

	all, _ := cmd.Flags().GetBool("all")
	var infos []elementInfo
	if all {
		nodes, err := loc.FindAll()
		if err != nil {
			return err
		}
		for _, n := range nodes {
			infos = append(infos, elementInfoFromNode(n))
		}
	} else {
		n, err := loc.Wait()
		if err != nil {
			return fmt.Errorf("find %q: %w", args[0], err)
		}
		infos = append(infos, elementInfoFromNode(n))
	}

	if infos == nil {
		infos = []elementInfo{}
	}
	return output.Print(findResult{
		OK:       true,
		Selector: args[0],
		Matches:  infos,
		Total:    len(infos),
	})
}
