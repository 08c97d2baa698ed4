package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/adp-labs/adpkg/internal/blobstore"
	"github.com/adp-labs/adpkg/internal/config"
	"github.com/adp-labs/adpkg/internal/definition"
	"github.com/spf13/cobra"
)

var doctorFix bool

func init() {
	doctorCmd.Flags().BoolVar(&doctorFix, "fix", false, "Create the config directory when it is missing")
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the local configuration and built-in resources",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		failures := checkConfigDir(out, doctorFix) +
			checkConfigValues(out) +
			checkSchema(out) +
			checkAlgorithms(out)
		if failures > 0 {
			return fmt.Errorf("%d check(s) failed", failures)
		}
		return nil
	},
}

func checkConfigDir(w io.Writer, fix bool) int {
	dir := config.Dir()
	if _, err := os.Stat(dir); err == nil {
		fmt.Fprintf(w, "  [ OK ] %s exists\n", dir)
		return 0
	}
	fmt.Fprintf(w, "  [MISS] %s does not exist\n", dir)
	if !fix {
		fmt.Fprintln(w, "         Defaults are in use. Run 'doctor --fix' or 'config set' to create it")
		return 0
	}
	if err := config.EnsureDir(); err != nil {
		fmt.Fprintf(w, "  [FAIL] %v\n", err)
		return 1
	}
	fmt.Fprintf(w, "  [FIX ] Created %s\n", dir)
	return 0
}

func checkConfigValues(w io.Writer) int {
	problems := config.Check()
	if len(problems) == 0 {
		fmt.Fprintln(w, "  [ OK ] Settings")
		return 0
	}
	for _, p := range problems {
		fmt.Fprintf(w, "  [FAIL] %v\n", p)
	}
	return len(problems)
}

func checkSchema(w io.Writer) int {
	if err := definition.CheckSchema(); err != nil {
		fmt.Fprintf(w, "  [FAIL] Definition schema: %v\n", err)
		return 1
	}
	fmt.Fprintln(w, "  [ OK ] Definition schema")
	return 0
}

func checkAlgorithms(w io.Writer) int {
	failures := 0
	for _, alg := range blobstore.Algorithms {
		if _, err := blobstore.NewHasher(alg); err != nil {
			fmt.Fprintf(w, "  [FAIL] Digest %s: %v\n", alg, err)
			failures++
			continue
		}
		fmt.Fprintf(w, "  [ OK ] Digest %s\n", alg)
	}
	return failures
}
