package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/valter-silva-au/lemon-detective/internal/observability"
	"github.com/valter-silva-au/lemon-detective/internal/storage"
)

var (
	statsJSON   bool
	statsSince  string
	alertNotify bool
	gamesLimit  int
	gamesDir    string
)

var (
	statsHeader = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	statsLabel  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	wonStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	lostStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Display gameplay metrics",
	Long: `Display metrics derived from the event log: games started and won, turns
to win, how often the model's question had to be replaced and why, filtered
and rejected guesses, and model failures.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if MetricsCalc == nil {
			return fmt.Errorf("metrics calculator not initialized (event log may be disabled)")
		}

		sinceTime, err := observability.ParseSince(orDefault(statsSince, "7d"))
		if err != nil {
			return fmt.Errorf("parsing --since: %w", err)
		}

		m, err := MetricsCalc.Calculate(sinceTime)
		if err != nil {
			return fmt.Errorf("calculating metrics: %w", err)
		}

		out := cmd.OutOrStdout()
		if statsJSON {
			return writeJSON(out, m)
		}
		printMetrics(out, m, sinceTime)
		return nil
	},
}

func printMetrics(w io.Writer, m *observability.Metrics, since time.Time) {
	row := func(label string, value any) {
		fmt.Fprintf(w, "  %s %v\n", statsLabel.Render(fmt.Sprintf("%-22s", label)), value)
	}

	fmt.Fprintf(w, "%s\n\n", statsHeader.Render(fmt.Sprintf("Games (since %s)", since.Format("2006-01-02"))))
	row("Started:", m.GamesStarted)
	row("Won:", m.GamesWon)
	row("Abandoned:", m.GamesReset)
	row("Win rate:", fmt.Sprintf("%.0f%%", m.WinRate()*100))
	row("Avg turns to win:", fmt.Sprintf("%.1f", m.AvgTurnsToWin))

	fmt.Fprintf(w, "\n%s\n\n", statsHeader.Render("Questions"))
	row("Asked:", m.QuestionsAsked)
	row("Answered:", m.TurnsAnswered)
	row("Replaced:", fmt.Sprintf("%d (%.0f%%)", m.QuestionsReplaced, m.ReplacementRate*100))
	for _, reason := range sortedKeys(m.ReplacementsByReason) {
		fmt.Fprintf(w, "    %-20s %d\n", reason+":", m.ReplacementsByReason[reason])
	}
	row("Traits confirmed:", m.TraitsAdded)

	fmt.Fprintf(w, "\n%s\n\n", statsHeader.Render("Guesses"))
	row("Presented:", m.GuessesPresented)
	row("Rejected:", m.GuessesRejected)
	row("Filtered out:", m.GuessesFiltered)
	row("Model failures:", m.LLMFailures)

	if m.OldestEvent != nil {
		fmt.Fprintf(w, "\n  %-22s %s\n", "Oldest event:", m.OldestEvent.Format(time.RFC3339))
	}
	if m.NewestEvent != nil {
		fmt.Fprintf(w, "  %-22s %s\n", "Newest event:", m.NewestEvent.Format(time.RFC3339))
	}
}

var statsAlertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Show triggered alerts",
	Long: `Evaluate alert conditions against the event log and display any triggered
alerts: a high question replacement rate, repeated model failures in one game,
and games that ran long without a win.

With --notify the alerts are also posted to alerts.webhook_url.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if AlertEngine == nil {
			return fmt.Errorf("alert engine not initialized (event log may be disabled)")
		}

		alerts, err := AlertEngine.Evaluate()
		if err != nil {
			return fmt.Errorf("evaluating alerts: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(alerts) == 0 {
			fmt.Fprintln(out, "No active alerts.")
		} else {
			fmt.Fprintf(out, "%d active alert(s):\n\n", len(alerts))
			for _, alert := range alerts {
				sev := styleForSeverity(string(alert.Severity)).Render(fmt.Sprintf("[%s]", strings.ToUpper(string(alert.Severity))))
				fmt.Fprintf(out, "  %s %s\n", sev, alert.Message)
				fmt.Fprintf(out, "         triggered at %s\n\n", alert.TriggeredAt.Format("2006-01-02 15:04 UTC"))
			}
		}

		if !alertNotify || len(alerts) == 0 {
			return nil
		}
		if Notifier == nil {
			return fmt.Errorf("--notify needs alerts.webhook_url to be configured")
		}
		if err := Notifier.Notify(commandContext(cmd), alerts); err != nil {
			return fmt.Errorf("sending alerts: %w", err)
		}
		fmt.Fprintf(out, "Sent %d alert(s) to the webhook.\n", len(alerts))
		return nil
	},
}

var statsGamesCmd = &cobra.Command{
	Use:   "games",
	Short: "List exported game transcripts",
	Long: `List the game transcripts written by 'detective play', newest first.
Pass --dir to read a directory other than the configured one.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store := Transcripts
		if gamesDir != "" {
			store = storage.NewTranscriptStore(gamesDir)
		}
		if store == nil {
			return fmt.Errorf("transcript store not initialized")
		}

		transcripts, err := store.List()
		if err != nil {
			return fmt.Errorf("listing transcripts: %w", err)
		}
		// Newest first.
		sort.SliceStable(transcripts, func(i, j int) bool { return transcripts[i].ID > transcripts[j].ID })
		if gamesLimit > 0 && len(transcripts) > gamesLimit {
			transcripts = transcripts[:gamesLimit]
		}

		out := cmd.OutOrStdout()
		if statsJSON {
			return writeJSON(out, transcripts)
		}
		if len(transcripts) == 0 {
			fmt.Fprintln(out, "No transcripts found.")
			return nil
		}

		fmt.Fprintf(out, "  %-8s %-16s %-6s %-6s %s\n", "ID", "FINISHED", "TURNS", "RESULT", "FINAL GUESS")
		for _, t := range transcripts {
			result := lostStyle.Render(fmt.Sprintf("%-6s", "lost"))
			if t.Won {
				result = wonStyle.Render(fmt.Sprintf("%-6s", "won"))
			}
			fmt.Fprintf(out, "  %-8s %-16s %-6d %s %s\n",
				t.ID, t.FinishedAt.Format("2006-01-02 15:04"), len(t.Turns), result, t.FinalGuess)
		}
		return nil
	},
}

// commandContext returns the command's context, or Background when the
// command runs outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("formatting as JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func init() {
	statsCmd.PersistentFlags().BoolVar(&statsJSON, "json", false, "Output as JSON")
	statsCmd.Flags().StringVar(&statsSince, "since", "7d", "Time window for metrics (e.g. 7d, 30d, 24h)")
	statsAlertsCmd.Flags().BoolVar(&alertNotify, "notify", false, "Post triggered alerts to alerts.webhook_url")
	statsGamesCmd.Flags().StringVar(&gamesDir, "dir", "", "Transcript directory (defaults to the configured one)")
	statsGamesCmd.Flags().IntVar(&gamesLimit, "limit", 20, "Show at most this many games (0 for all)")
	statsCmd.AddCommand(statsAlertsCmd, statsGamesCmd)
	rootCmd.AddCommand(statsCmd)
}
