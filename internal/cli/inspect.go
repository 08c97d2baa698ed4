package cli

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var inspectJSON bool

var inspectCmd = &cobra.Command{
	Use:   "inspect <package-dir>",
	Short: "Show the index, manifest, config and layer entries of a package",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func init() {
	inspectCmd.Flags().BoolVar(&inspectJSON, "json", false, "Output in JSON format")
	inspectCmd.Flags().BoolVar(&noVerify, "no-verify", false, "Skip digest verification of blobs")
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	p, err := newPackager(readSettings())
	if err != nil {
		return err
	}
	info, err := p.Inspect(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if inspectJSON {
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	}

	fmt.Fprintf(out, "Package:     %s\n", info.Root)
	fmt.Fprintf(out, "Title:       %s\n", info.Title)
	fmt.Fprintf(out, "Agent:       %s (adp_version %s)\n", info.Config.AgentID, info.Config.ADPVersion)
	fmt.Fprintf(out, "Manifest:    %s  %d bytes\n", info.ManifestDescriptor.Digest, info.ManifestDescriptor.Size)
	fmt.Fprintf(out, "Config:      %s  %d bytes\n", info.Manifest.Config.Digest, info.Manifest.Config.Size)
	for _, l := range info.Manifest.Layers {
		fmt.Fprintf(out, "Layer:       %s  %d bytes  %s\n", l.Digest, l.Size, l.MediaType)
	}

	fmt.Fprintf(out, "\nEntries (%d):\n", len(info.Entries))
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	for _, e := range info.Entries {
		fmt.Fprintf(w, "  %s\t%d\t%s\n", fs.FileMode(e.Mode).Perm(), e.Size, e.Name)
	}
	return w.Flush()
}
