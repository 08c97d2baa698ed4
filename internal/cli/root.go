package cli

import (
	"github.com/adp-labs/adpkg/internal/branding"
	"github.com/adp-labs/adpkg/internal/config"
	"github.com/adp-labs/adpkg/internal/logging"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string
)

var (
	logLevel string
	logger   = zerolog.Nop()
)

var rootCmd = &cobra.Command{
	Use:   branding.CLIName(),
	Short: branding.Description(),
	Long: branding.DisplayName() + ` bundles an agent project, described by adp/agent.yaml, into a
content-addressed OCI image layout and reads the definition back out of such packages.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config.Load()

		level := config.Current().LogLevel
		if logLevel != "" {
			level = logLevel
		}
		l, err := logging.New(cmd.ErrOrStderr(), branding.CLIName(), level)
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides the log_level setting")
}

// Execute runs the root command with build info injected via ldflags.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date
	return rootCmd.Execute()
}
