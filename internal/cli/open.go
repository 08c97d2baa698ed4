package cli

import (
	"encoding/json"
	"fmt"

	"github.com/adp-labs/adpkg/internal/definition"
	"github.com/spf13/cobra"
)

var openJSON bool

var openCmd = &cobra.Command{
	Use:   "open <package-dir>",
	Short: "Print the agent definition stored in a package",
	Args:  cobra.ExactArgs(1),
	RunE:  runOpen,
}

func init() {
	openCmd.Flags().BoolVar(&openJSON, "json", false, "Output in JSON format")
	openCmd.Flags().BoolVar(&noVerify, "no-verify", false, "Skip digest verification of blobs")
	rootCmd.AddCommand(openCmd)
}

func runOpen(cmd *cobra.Command, args []string) error {
	p, err := newPackager(readSettings())
	if err != nil {
		return err
	}
	def, err := p.Open(args[0])
	if err != nil {
		return err
	}

	var data []byte
	if openJSON {
		data, err = json.MarshalIndent(def, "", "  ")
		if err == nil {
			data = append(data, '\n')
		}
	} else {
		data, err = definition.Marshal(def)
	}
	if err != nil {
		return fmt.Errorf("formatting definition: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
