package cli

import (
	"fmt"

	"github.com/adp-labs/adpkg/internal/adpkg"
	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <package-dir>",
	Short: "Check that every blob a package references is present and intact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		checks, err := adpkg.Verify(args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, c := range checks {
			if c.Err != nil {
				fmt.Fprintf(out, "  [FAIL] %-8s %s: %v\n", c.Role, c.Descriptor.Digest, c.Err)
				continue
			}
			fmt.Fprintf(out, "  [ OK ] %-8s %s\n", c.Role, c.Descriptor.Digest)
		}
		if adpkg.Failed(checks) {
			return fmt.Errorf("package %s failed verification", args[0])
		}
		fmt.Fprintf(out, "%d blobs verified\n", len(checks))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}
