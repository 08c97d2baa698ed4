package cli

import (
	"fmt"

	"github.com/adp-labs/adpkg/internal/config"
	"github.com/spf13/cobra"
)

var (
	packOutput   string
	packDigest   string
	packCompress string
	packIgnore   []string
	packNoSchema bool
)

var packCmd = &cobra.Command{
	Use:   "pack <source-dir>",
	Short: "Package an agent project",
	Long: `Package the project at <source-dir> into an OCI image layout.

The project must contain adp/agent.yaml. The definition is validated before
anything is written; the output directory may sit inside the project and is
never included in the layer.`,
	Args: cobra.ExactArgs(1),
	RunE: runPack,
}

func init() {
	packCmd.Flags().StringVarP(&packOutput, "output", "o", "", "Output directory for the package (required)")
	packCmd.Flags().StringVar(&packDigest, "digest", "", "Digest algorithm: sha256, sha512 or blake3 (default from config)")
	packCmd.Flags().StringVar(&packCompress, "compress", "", "Layer compression: none, gzip or zstd (default from config)")
	packCmd.Flags().StringSliceVar(&packIgnore, "ignore", nil, "File or directory names to leave out of the layer (repeatable)")
	packCmd.Flags().BoolVar(&packNoSchema, "no-schema", false, "Skip the JSON schema check")
	_ = packCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(packCmd)
}

func runPack(cmd *cobra.Command, args []string) error {
	s := config.Current()
	if packDigest != "" {
		s.DigestAlgorithm = packDigest
	}
	if packCompress != "" {
		s.LayerCompression = packCompress
	}
	s.Ignore = append(s.Ignore, packIgnore...)
	if packNoSchema {
		s.SchemaCheck = false
	}

	p, err := newPackager(s)
	if err != nil {
		return err
	}
	res, err := p.Create(args[0], packOutput)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Packaged %s (adp_version %s) into %s\n", res.Definition.ID, res.Definition.ADPVersion, res.Root)
	fmt.Fprintf(out, "  manifest  %s\n", res.Manifest.Digest)
	fmt.Fprintf(out, "  config    %s  %d bytes\n", res.Config.Digest, res.Config.Size)
	fmt.Fprintf(out, "  layer     %s  %d bytes, %d files\n", res.Layer.Digest, res.Layer.Size, len(res.Entries))
	return nil
}
