package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/adp-labs/adpkg/internal/adpkg"
	"github.com/spf13/cobra"
)

var blobsCmd = &cobra.Command{
	Use:   "blobs <package-dir>",
	Short: "List the blobs stored in a package",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		blobs, err := adpkg.ListBlobs(args[0])
		if err != nil {
			return err
		}
		if len(blobs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No blobs stored.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "DIGEST\tSIZE\tPATH")
		for _, b := range blobs {
			fmt.Fprintf(w, "%s\t%d\t%s\n", b.Digest, b.Size, b.Path)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(blobsCmd)
}
