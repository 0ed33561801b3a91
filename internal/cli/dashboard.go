package cli

import (
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/valter-silva-au/lemon-detective/internal/observability"
)

// Dashboard panel indices.
const (
	panelGames = iota
	panelQuestions
	panelAlerts
	panelCount
)

var dashboardSince string

type dashboardModel struct {
	activePanel int
	width       int
	height      int
	window      string

	metrics *observability.Metrics
	alerts  []alertSnapshot

	loading bool
	err     error
}

type alertSnapshot struct {
	severity string
	message  string
	time     string
}

// dataLoadedMsg carries loaded data back to the model.
type dataLoadedMsg struct {
	metrics *observability.Metrics
	alerts  []alertSnapshot
	err     error
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(1, 2)

	activePanelStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("62")).
				Padding(1, 2)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			MarginBottom(1)

	severityHigh   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	severityMedium = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	severityLow    = lipgloss.NewStyle().Foreground(lipgloss.Color("69"))

	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func newDashboardModel(window string) dashboardModel {
	return dashboardModel{
		activePanel: panelGames,
		window:      orDefault(window, "7d"),
		loading:     true,
	}
}

func (m dashboardModel) Init() tea.Cmd {
	return m.load
}

func (m dashboardModel) load() tea.Msg {
	return loadData(m.window)
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "tab":
			m.activePanel = (m.activePanel + 1) % panelCount
			return m, nil
		case "shift+tab":
			m.activePanel = (m.activePanel - 1 + panelCount) % panelCount
			return m, nil
		case "r":
			m.loading = true
			return m, m.load
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case dataLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.metrics = msg.metrics
		m.alerts = msg.alerts
		m.err = nil
		return m, nil
	}

	return m, nil
}

func (m dashboardModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	title := titleStyle.Render(" Detective Dashboard ")
	help := helpStyle.Render("tab: switch panel | r: refresh | q: quit")

	if m.loading {
		return fmt.Sprintf("%s\n\n  Loading data...\n\n%s", title, help)
	}

	if m.err != nil {
		return fmt.Sprintf("%s\n\n  Error: %s\n\n%s", title, m.err, help)
	}

	gamesPanel := m.renderGamesPanel()
	questionsPanel := m.renderQuestionsPanel()
	alertsPanel := m.renderAlertsPanel()

	availableWidth := m.width - 2

	var body string
	if availableWidth > 120 {
		colWidth := availableWidth / 3
		gamesPanel = m.applyPanelStyle(panelGames, gamesPanel, colWidth-4)
		questionsPanel = m.applyPanelStyle(panelQuestions, questionsPanel, colWidth-4)
		alertsPanel = m.applyPanelStyle(panelAlerts, alertsPanel, colWidth-4)
		body = lipgloss.JoinHorizontal(lipgloss.Top, gamesPanel, questionsPanel, alertsPanel)
	} else {
		panelWidth := max(availableWidth-4, 20)
		gamesPanel = m.applyPanelStyle(panelGames, gamesPanel, panelWidth)
		questionsPanel = m.applyPanelStyle(panelQuestions, questionsPanel, panelWidth)
		alertsPanel = m.applyPanelStyle(panelAlerts, alertsPanel, panelWidth)
		body = lipgloss.JoinVertical(lipgloss.Left, gamesPanel, questionsPanel, alertsPanel)
	}

	return fmt.Sprintf("%s\n\n%s\n\n%s", title, body, help)
}

func (m dashboardModel) applyPanelStyle(panel int, content string, width int) string {
	style := panelStyle
	if m.activePanel == panel {
		style = activePanelStyle
	}
	return style.Width(width).Render(content)
}

func (m dashboardModel) renderGamesPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("Games (%s)", m.window)))
	b.WriteString("\n")

	if m.metrics == nil || m.metrics.GamesStarted == 0 {
		b.WriteString("  No games played.")
		return b.String()
	}

	md := m.metrics
	fmt.Fprintf(&b, "  %-14s %d\n", "Started", md.GamesStarted)
	fmt.Fprintf(&b, "  %-14s %d\n", "Won", md.GamesWon)
	fmt.Fprintf(&b, "  %-14s %d\n", "Abandoned", md.GamesReset)
	fmt.Fprintf(&b, "  %-14s %.0f%%\n", "Win rate", md.WinRate()*100)
	fmt.Fprintf(&b, "  %-14s %.1f\n", "Turns to win", md.AvgTurnsToWin)
	fmt.Fprintf(&b, "  %-14s %d", "Guesses", md.GuessesPresented)

	return b.String()
}

func (m dashboardModel) renderQuestionsPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Questions"))
	b.WriteString("\n")

	if m.metrics == nil || m.metrics.QuestionsAsked == 0 {
		b.WriteString("  No questions asked.")
		return b.String()
	}

	md := m.metrics
	fmt.Fprintf(&b, "  %-14s %d\n", "Asked", md.QuestionsAsked)
	fmt.Fprintf(&b, "  %-14s %d (%.0f%%)\n", "Replaced", md.QuestionsReplaced, md.ReplacementRate*100)
	for _, reason := range sortedKeys(md.ReplacementsByReason) {
		fmt.Fprintf(&b, "    %-18s %d\n", reason, md.ReplacementsByReason[reason])
	}
	fmt.Fprintf(&b, "  %-14s %d", "Model errors", md.LLMFailures)

	return b.String()
}

func (m dashboardModel) renderAlertsPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Alerts"))
	b.WriteString("\n")

	if len(m.alerts) == 0 {
		b.WriteString("  No active alerts.")
		return b.String()
	}

	for _, a := range m.alerts {
		sev := styleForSeverity(a.severity).Render(fmt.Sprintf("[%s]", strings.ToUpper(a.severity)))
		fmt.Fprintf(&b, "  %s %s\n", sev, a.message)
	}

	fmt.Fprintf(&b, "\n  Total: %d alert(s)", len(m.alerts))

	return b.String()
}

func styleForSeverity(severity string) lipgloss.Style {
	switch strings.ToLower(severity) {
	case "high":
		return severityHigh
	case "medium":
		return severityMedium
	case "low":
		return severityLow
	default:
		return lipgloss.NewStyle()
	}
}

func loadData(window string) tea.Msg {
	var result dataLoadedMsg

	if MetricsCalc != nil {
		since, err := observability.ParseSince(window)
		if err != nil {
			result.err = fmt.Errorf("parsing window: %w", err)
			return result
		}
		metrics, err := MetricsCalc.Calculate(since)
		if err != nil {
			result.err = fmt.Errorf("loading metrics: %w", err)
			return result
		}
		result.metrics = metrics
	}

	if AlertEngine != nil {
		alerts, err := AlertEngine.Evaluate()
		if err != nil {
			result.err = fmt.Errorf("loading alerts: %w", err)
			return result
		}
		result.alerts = make([]alertSnapshot, 0, len(alerts))

		sort.SliceStable(alerts, func(i, j int) bool {
			return severityRank(string(alerts[i].Severity)) < severityRank(string(alerts[j].Severity))
		})

		for _, a := range alerts {
			result.alerts = append(result.alerts, alertSnapshot{
				severity: string(a.Severity),
				message:  a.Message,
				time:     a.TriggeredAt.Format("2006-01-02 15:04 UTC"),
			})
		}
	}

	return result
}

func severityRank(s string) int {
	switch s {
	case "high":
		return 0
	case "medium":
		return 1
	case "low":
		return 2
	default:
		return 3
	}
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Interactive TUI dashboard for gameplay metrics and alerts",
	Long: `Launch an interactive terminal dashboard showing games, question
replacement and alerts.

Navigate between panels with Tab, refresh with r, quit with q.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if MetricsCalc == nil {
			return fmt.Errorf("metrics calculator not initialized (event log may be disabled)")
		}
		if _, err := observability.ParseSince(orDefault(dashboardSince, "7d")); err != nil {
			return fmt.Errorf("parsing --since: %w", err)
		}
		p := tea.NewProgram(newDashboardModel(dashboardSince), tea.WithAltScreen())
		_, err := p.Run()
		return err
	},
}

func init() {
	dashboardCmd.Flags().StringVar(&dashboardSince, "since", "7d", "Time window for metrics (e.g. 7d, 30d, 24h)")
	rootCmd.AddCommand(dashboardCmd)
}
