package cmd

import (
	"fmt"

	"github.com/louis030195/bigbrother/internal/output"
	"github.com/louis030195/bigbrother/internal/platform"
	"github.com/spf13/cobra"
)

var clickCmd = &cobra.Command{
	Use:   "click [selector]",
	Short: "Click on an element or at coordinates",
	Long: "Click on a UI element matched by a selector, or at absolute screen\n" +
		"coordinates via --x/--y when no selector is given.",
	Args: cobra.MaximumNArgs(1),
	RunE: runClick,
}

func init() {
	rootCmd.AddCommand(clickCmd)
	clickCmd.Flags().Int("x", 0, "Click at absolute X screen coordinate")
	clickCmd.Flags().Int("y", 0, "Click at absolute Y screen coordinate")
	clickCmd.Flags().String("button", "left", "Mouse button: left, right, middle")
	clickCmd.Flags().Bool("double", false, "Double-click")
	clickCmd.Flags().String("app", "", "Limit the selector search to this application's subtree")
	clickCmd.Flags().Duration("timeout", 0, "Max time to wait for the element")
	clickCmd.Flags().Duration("interval", 0, "Polling interval")
	clickCmd.Flags().Bool("strict", false, "Fail when the selector matches more than one element")
	clickCmd.Flags().Int("max-depth", 0, "Max tree depth to traverse (0 = default)")
}

// clickResult is the top-level output of the click command.
type clickResult struct {
	OK     bool   `yaml:"ok"                 json:"ok"`
	X      int    `yaml:"x"                  json:"x"`
	Y      int    `yaml:"y"                  json:"y"`
	Button string `yaml:"button"             json:"button"`
	Target string `yaml:"target,omitempty"   json:"target,omitempty"`
}

func runClick(cmd *cobra.Command, args []string) error {
	buttonStr, _ := cmd.Flags().GetString("button")
	button, err := platform.ParseMouseButton(buttonStr)
	if err != nil {
		return err
	}
	double, _ := cmd.Flags().GetBool("double")
	count := 1
	if double {
		count = 2
	}

	if len(args) == 1 {
		loc, err := newLocator(cmd, args[0])
		if err != nil {
			return err
		}
		n, err := loc.Wait()
		if err != nil {
			return fmt.Errorf("click %q: %w", args[0], err)
		}
		b, err := n.Bounds()
		if err != nil {
			return err
		}
		provider, err := newProvider()
		if err != nil {
			return err
		}
		x, y := b.Center()
		if err := provider.Inputter.Click(x, y, button, count); err != nil {
			return err
		}
		return output.Print(clickResult{OK: true, X: x, Y: y, Button: buttonStr, Target: args[0]})
	}

	x, _ := cmd.Flags().GetInt("x")
	y, _ := cmd.Flags().GetInt("y")
	if !cmd.Flags().Changed("x") || !cmd.Flags().Changed("y") {
		return fmt.Errorf("either a selector argument or both --x and --y are required")
	}
	provider, err := newProvider()
	if err != nil {
		return err
	}
	if err := provider.Inputter.Click(x, y, button, count); err != nil {
		return err
	}
	return output.Print(clickResult{OK: true, X: x, Y: y, Button: buttonStr})
}
