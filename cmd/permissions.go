package cmd

import (
	"github.com/louis030195/bigbrother/internal/output"
	"github.com/louis030195/bigbrother/internal/platform"
	"github.com/spf13/cobra"
)

var permissionsCmd = &cobra.Command{
	Use:   "permissions",
	Short: "Check OS automation permissions",
	Long: "Report whether accessibility and input monitoring permissions are\n" +
		"granted. With --request, trigger the OS permission prompts.",
	Args: cobra.NoArgs,
	RunE: runPermissions,
}

func init() {
	rootCmd.AddCommand(permissionsCmd)
	permissionsCmd.Flags().Bool("request", false, "Trigger the OS permission prompts")
}

// permissionsResult is the top-level output of the permissions command.
type permissionsResult struct {
	OK     bool                      `yaml:"ok"     json:"ok"`
	Status platform.PermissionStatus `yaml:"status" json:"status"`
}

func runPermissions(cmd *cobra.Command, args []string) error {
	provider, err := newProvider()
	if err != nil {
		return err
	}
	request, _ := cmd.Flags().GetBool("request")
	var status platform.PermissionStatus
	if request {
		status = provider.Permissions.Request()
	} else {
		status = provider.Permissions.Check()
	}
	return output.Print(permissionsResult{OK: status.AllGranted(), Status: status})
}
