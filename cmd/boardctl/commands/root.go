package commands

import (
	"github.com/spf13/cobra"
)

type rootOptions struct {
	apiURL    string
	store     string
	assumeYes bool
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:          "boardctl",
		Short:        "Session and moderation client for the community board",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.apiURL, "api", "", "board API base URL (overrides BOARD_API_URL)")
	rootCmd.PersistentFlags().StringVar(&opts.store, "store", "", "session store backend: memory, file or redis (overrides BOARD_STORE)")
	rootCmd.PersistentFlags().BoolVarP(&opts.assumeYes, "yes", "y", false, "answer yes to every confirmation prompt")

	rootCmd.AddCommand(
		newLoginCommand(opts),
		newLogoutCommand(opts),
		newWhoamiCommand(opts),
		newWatchCommand(opts),
		newViewCommand(opts),
		newAccountsCommand(opts),
		newSuspendCommand(opts),
		newSuspendAuthorCommand(opts),
		newUnsuspendCommand(opts),
		newRoleCommand(opts),
		newDeleteCommand(opts),
		newStubCommand(),
	)

	return rootCmd
}
