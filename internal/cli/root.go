package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

var rootCmd = &cobra.Command{
	Use:   "detective",
	Short: "Lemon Detective - a character-guessing game driven by a language model",
	Long: `Lemon Detective asks yes/no questions until it can name the character you
are thinking of. A local language model proposes the questions and guesses;
deterministic rules reject repeated, forbidden and contradictory questions
and rule out guesses that contradict what you have confirmed.

Run 'detective play' to start a game. The check, fallback and guess commands
run the rules offline without the model.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "detective %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
