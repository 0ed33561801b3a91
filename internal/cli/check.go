package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/lemon-detective/internal/core"
	"github.com/valter-silva-au/lemon-detective/pkg/models"
)

var (
	offlinePrior  []string
	offlineTraits []string
)

var checkCmd = &cobra.Command{
	Use:   "check <question>",
	Short: "Validate a question against prior questions and confirmed traits",
	Long: `Run a question through the same rules a live game applies to the model's
proposals: alternative repair, forbidden patterns, duplicate topics, confirmed
traits and logical incompatibility. A rejected question prints its reason and
the fallback that would be asked instead.

Examples:
  detective check "Is your character a woman?" --trait gender=male
  detective check "Does your character have wings?" --trait species=human
  detective check "Does your character have distinctive hair?" --prior "Does your character have blonde hair?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Engine == nil {
			return fmt.Errorf("engine not initialized")
		}
		traits, err := core.ParseTraits(offlineTraits)
		if err != nil {
			return err
		}

		r := Engine.Check(strings.Join(args, " "), offlinePrior, traits)
		if statsJSON {
			return writeJSON(cmd.OutOrStdout(), r)
		}

		out := cmd.OutOrStdout()
		if r.Repaired != r.Question {
			fmt.Fprintf(out, "Repaired: %s\n", r.Repaired)
		}
		if len(r.Realms) > 0 {
			fmt.Fprintf(out, "Realms:   %s\n", strings.Join(r.Realms, ", "))
		}
		if r.Valid {
			fmt.Fprintln(out, "OK: the question would be asked.")
			return nil
		}
		fmt.Fprintf(out, "Rejected: %s\n", r.Reason)
		fmt.Fprintf(out, "Fallback: %s\n", r.Fallback)
		return nil
	},
}

var fallbackCmd = &cobra.Command{
	Use:   "fallback",
	Short: "Print the fallback question for the given game state",
	Long: `Print the curated fallback question the engine would substitute for an
unusable proposal, given the questions already asked and the confirmed traits.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Engine == nil {
			return fmt.Errorf("engine not initialized")
		}
		traits, err := core.ParseTraits(offlineTraits)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), Engine.PickFallback(offlinePrior, models.TraitKeys(traits), traits))
		return nil
	},
}

var guessCmd = &cobra.Command{
	Use:   "guess <name>",
	Short: "Check whether a character fits the confirmed traits",
	Long: `Look a character up in the known-character table, then the web lookup when
enabled, and report whether it contradicts the confirmed traits. A character
nothing is known about is allowed.

Example:
  detective guess Superman --trait has_powers=false`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Filter == nil {
			return fmt.Errorf("guess filter not initialized")
		}
		traits, err := core.ParseTraits(offlineTraits)
		if err != nil {
			return err
		}

		name := strings.Join(args, " ")
		facts, source := Filter.Facts(commandContext(cmd), name)
		out := cmd.OutOrStdout()
		if facts == nil {
			fmt.Fprintf(out, "%s: nothing known (source %s); the guess is allowed.\n", name, source)
			return nil
		}
		fmt.Fprintf(out, "%s (source %s): %s, %s, fictional=%t, powers=%t, alignment=%s\n",
			name, source, orDefault(facts.Gender, "unknown"), orDefault(facts.Species, "unknown"),
			facts.Fictional, facts.Powers, orDefault(facts.Alignment, "unknown"))
		if reason := core.Contradiction(*facts, traits); reason != "" {
			fmt.Fprintf(out, "Incompatible: %s.\n", reason)
			return nil
		}
		fmt.Fprintln(out, "Compatible.")
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{checkCmd, fallbackCmd, guessCmd} {
		c.Flags().StringArrayVar(&offlineTraits, "trait", nil, "Confirmed trait as key=value (repeatable)")
		rootCmd.AddCommand(c)
	}
	for _, c := range []*cobra.Command{checkCmd, fallbackCmd} {
		c.Flags().StringArrayVar(&offlinePrior, "prior", nil, "A question already asked (repeatable)")
	}
	checkCmd.Flags().BoolVar(&statsJSON, "json", false, "Output as JSON")
}
