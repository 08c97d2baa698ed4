package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/adp-labs/adpkg/internal/config"
	"github.com/adp-labs/adpkg/internal/definition"
	"github.com/spf13/cobra"
)

var validateNoSchema bool

var validateCmd = &cobra.Command{
	Use:   "validate <path>",
	Short: "Validate an agent definition",
	Long: `Validate an agent definition file, or the adp/agent.yaml of a project
directory, against the JSON schema and the packaging rules.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().BoolVar(&validateNoSchema, "no-schema", false, "Skip the JSON schema check")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	path := args[0]
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, filepath.FromSlash(definition.Path))
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Validating %s\n", path)

	failed := false
	if config.Current().SchemaCheck && !validateNoSchema {
		res, err := definition.ValidateSchemaFile(path)
		if err != nil {
			fmt.Fprintf(out, "  [FAIL] %v\n", err)
			return fmt.Errorf("%s is not a readable definition", path)
		}
		if res.Valid {
			fmt.Fprintln(out, "  [ OK ] Schema")
		} else {
			failed = true
			fmt.Fprintf(out, "  [FAIL] Schema: %d issue(s):\n", len(res.Issues))
			printIssues(out, res.Issues)
		}
	}

	def, err := definition.Load(path)
	if err != nil {
		fmt.Fprintf(out, "  [FAIL] %v\n", err)
		return fmt.Errorf("%s is not a readable definition", path)
	}
	if err := definition.Validate(def); err != nil {
		failed = true
		var ve *definition.ValidationError
		if errors.As(err, &ve) {
			fmt.Fprintf(out, "  [FAIL] Rules: %d issue(s):\n", len(ve.Issues))
			printIssues(out, ve.Issues)
		} else {
			fmt.Fprintf(out, "  [FAIL] Rules: %v\n", err)
		}
	} else {
		fmt.Fprintf(out, "  [ OK ] Rules: %s (adp_version %s, %d execution entries)\n",
			def.ID, def.ADPVersion, len(def.Runtime.Execution))
	}

	if failed {
		return fmt.Errorf("%s is invalid", path)
	}
	return nil
}

func printIssues(w io.Writer, issues []definition.ValidationIssue) {
	for _, issue := range issues {
		path := issue.Path
		if path == "" {
			path = "(root)"
		}
		fmt.Fprintf(w, "         - %s: %s\n", path, issue.Message)
	}
}
