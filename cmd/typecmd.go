package cmd

import (
	"fmt"
	"strings"

	"github.com/louis030195/bigbrother/internal/output"
	"github.com/spf13/cobra"
)

var typeCmd = &cobra.Command{
	Use:   "type [text]",
	Short: "Type text or press key combinations",
	Long: "Type text into the focused element, or into an element matched by\n" +
		"--target. Use --key for key combos like \"cmd+c\" or \"enter\".",
	Args: cobra.MaximumNArgs(1),
	RunE: runType,
}

func init() {
	rootCmd.AddCommand(typeCmd)
	typeCmd.Flags().String("target", "", "Selector of the element to focus before typing")
	typeCmd.Flags().String("key", "", "Key combo to press (e.g. \"cmd+c\", \"enter\", \"tab\")")
	typeCmd.Flags().Int("delay", 0, "Delay between keystrokes in ms")
	typeCmd.Flags().String("app", "", "Limit the selector search to this application's subtree")
	typeCmd.Flags().Duration("timeout", 0, "Max time to wait for the target element")
	typeCmd.Flags().Duration("interval", 0, "Polling interval")
	typeCmd.Flags().Bool("strict", false, "Fail when the selector matches more than one element")
	typeCmd.Flags().Int("max-depth", 0, "Max tree depth to traverse (0 = default)")
}

// typeResult is the top-level output of the type command.
type typeResult struct {
	OK     bool   `yaml:"ok"               json:"ok"`
	Typed  string `yaml:"typed,omitempty"  json:"typed,omitempty"`
	Key    string `yaml:"key,omitempty"    json:"key,omitempty"`
	Target string `yaml:"target,omitempty" json:"target,omitempty"`
}

func runType(cmd *cobra.Command, args []string) error {
	key, _ := cmd.Flags().GetString("key")
	target, _ := cmd.Flags().GetString("target")
	delay, _ := cmd.Flags().GetInt("delay")

	var text string
	if len(args) == 1 {
		text = args[0]
	}
	if text == "" && key == "" {
		return fmt.Errorf("text argument or --key is required")
	}

	provider, err := newProvider()
	if err != nil {
		return err
	}

	if target != "" {
		loc, err := newLocator(cmd, target)
		if err != nil {
			return err
		}
		n, err := loc.Wait()
		if err != nil {
			return fmt.Errorf("type into %q: %w", target, err)
		}
		if err := n.Focus(); err != nil {
			return err
		}
	}

	if text != "" {
		if err := provider.Inputter.TypeText(text, delay); err != nil {
			return err
		}
	}
	if key != "" {
		if err := provider.Inputter.KeyCombo(strings.Split(key, "+")); err != nil {
			return err
		}
	}
	return output.Print(typeResult{OK: true, Typed: text, Key: key, Target: target})
}
