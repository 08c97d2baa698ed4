package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var unpackCmd = &cobra.Command{
	Use:   "unpack <package-dir> <dest-dir>",
	Short: "Extract every file of a package into a directory",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newPackager(readSettings())
		if err != nil {
			return err
		}
		names, err := p.Unpack(args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Unpacked %d files into %s\n", len(names), args[1])
		return nil
	},
}

func init() {
	unpackCmd.Flags().BoolVar(&noVerify, "no-verify", false, "Skip digest verification of the layer")
	rootCmd.AddCommand(unpackCmd)
}
