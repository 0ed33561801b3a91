package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/valter-silva-au/lemon-detective/internal/core"
	"github.com/valter-silva-au/lemon-detective/internal/storage"
	"github.com/valter-silva-au/lemon-detective/pkg/models"
)

var (
	playTranscriptDir string
	playNoTranscript  bool
)

// answerKeys maps keys to answers while a question is shown.
var answerKeys = map[string]models.AnswerValue{
	"y": models.AnswerYes,
	"n": models.AnswerNo,
	"p": models.AnswerProbably,
	"o": models.AnswerProbablyNot,
	"d": models.AnswerDontKnow,
	"?": models.AnswerDontKnow,
}

var answerLabels = map[models.AnswerValue]string{
	models.AnswerYes:         "y: yes",
	models.AnswerNo:          "n: no",
	models.AnswerProbably:    "p: probably",
	models.AnswerProbablyNot: "o: probably not",
	models.AnswerDontKnow:    "d: don't know",
}

var (
	playTitle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230")).Background(lipgloss.Color("62")).Padding(0, 1)
	questionBox  = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("62")).Padding(1, 2)
	guessBox     = lipgloss.NewStyle().BorderStyle(lipgloss.DoubleBorder()).BorderForeground(lipgloss.Color("226")).Padding(1, 2)
	traitStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("141"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	thinkStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)
	revealedText = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("46"))
)

// gameSession is the part of core.Session the play UI drives.
type gameSession interface {
	Game() *core.Game
	Begin(ctx context.Context) error
	Answer(ctx context.Context, answer models.AnswerValue) error
	RespondToGuess(ctx context.Context, correct bool) error
	Resume(ctx context.Context) error
	CompleteHeroRender() error
}

// gameView is what the UI renders. It is copied from the game on the
// goroutine that changed it, so View never reads the live game.
type gameView struct {
	phase    models.Phase
	turn     int
	question string
	guess    string
	turns    int
	traits   []models.Trait
	err      string
}

func snapshot(g *core.Game) gameView {
	return gameView{
		phase:    g.Phase,
		turn:     g.Turn,
		question: g.CurrentQuestion,
		guess:    g.FinalGuess,
		turns:    len(g.Turns),
		traits:   append([]models.Trait(nil), g.Traits...),
		err:      g.Err,
	}
}

// stepDoneMsg reports that a session call finished.
type stepDoneMsg struct {
	err  error
	view gameView
}

type playModel struct {
	ctx         context.Context
	session     gameSession
	transcripts storage.TranscriptStore

	busy     bool
	view     gameView
	saved    string
	saveErr  error
	lastErr  error
	quitting bool
	width    int
}

func newPlayModel(ctx context.Context, session gameSession, transcripts storage.TranscriptStore) playModel {
	return playModel{ctx: ctx, session: session, transcripts: transcripts, busy: true}
}

// step runs fn off the UI loop. Only one step runs at a time; keys are
// ignored while busy.
func (m playModel) step(fn func(ctx context.Context) error) tea.Cmd {
	ctx, session := m.ctx, m.session
	return func() tea.Msg {
		err := fn(ctx)
		return stepDoneMsg{err: err, view: snapshot(session.Game())}
	}
}

func (m playModel) Init() tea.Cmd {
	return m.step(m.session.Begin)
}

func (m playModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case stepDoneMsg:
		m.busy = false
		m.lastErr = msg.err
		m.view = msg.view
		return m, nil

	case tea.KeyMsg:
		key := msg.String()
		if key == "ctrl+c" || key == "esc" {
			m.quitting = true
			return m, tea.Quit
		}
		if m.busy {
			return m, nil
		}
		return m.handleKey(key)
	}
	return m, nil
}

func (m playModel) handleKey(key string) (tea.Model, tea.Cmd) {
	if key == "q" {
		m.quitting = true
		return m, tea.Quit
	}
	if m.view.err != "" {
		if key == "r" {
			return m.run(m.session.Resume)
		}
		return m, nil
	}

	switch m.view.phase {
	case models.PhaseWaitingForAnswer:
		if answer, ok := answerKeys[key]; ok {
			return m.run(func(ctx context.Context) error {
				return m.session.Answer(ctx, answer)
			})
		}
	case models.PhaseGuessing:
		switch key {
		case "y", "n":
			correct := key == "y"
			return m.run(func(ctx context.Context) error {
				return m.session.RespondToGuess(ctx, correct)
			})
		}
	case models.PhaseRevealed:
		if key == "enter" {
			m.lastErr = m.session.CompleteHeroRender()
			m.saveTranscript()
			m.view = snapshot(m.session.Game())
		}
	case models.PhaseHeroRender:
		if key == "n" {
			m.saved, m.saveErr = "", nil
			return m.run(m.session.Begin)
		}
	}
	return m, nil
}

func (m playModel) run(fn func(ctx context.Context) error) (tea.Model, tea.Cmd) {
	m.busy = true
	m.lastErr = nil
	return m, m.step(fn)
}

func (m *playModel) saveTranscript() {
	if m.transcripts == nil {
		return
	}
	m.saved, m.saveErr = m.transcripts.Save(m.session.Game().Transcript(time.Now().UTC()))
}

func (m playModel) View() string {
	if m.quitting {
		return ""
	}
	v := m.view

	var b strings.Builder
	b.WriteString(playTitle.Render(" Lemon Detective "))
	if v.turn > 0 {
		b.WriteString(fmt.Sprintf("  turn %d", v.turn))
	}
	b.WriteString("\n\n")

	switch {
	case m.busy:
		b.WriteString(thinkStyle.Render("The detective is thinking..."))
		b.WriteString("\n")
	case v.err != "":
		b.WriteString(errorStyle.Render("The detective could not reach the model: " + v.err))
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("r: retry | q: quit"))
		b.WriteString("\n")
	default:
		b.WriteString(m.renderPhase(v))
	}

	if m.lastErr != nil && v.err == "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("Error: " + m.lastErr.Error()))
		b.WriteString("\n")
	}
	if traits := renderTraits(v.traits); traits != "" {
		b.WriteString("\n")
		b.WriteString(traits)
	}
	return b.String()
}

func (m playModel) renderPhase(v gameView) string {
	var b strings.Builder
	switch v.phase {
	case models.PhaseWaitingForAnswer:
		b.WriteString(questionBox.Render(v.question))
		b.WriteString("\n\n")
		labels := make([]string, 0, len(models.AllAnswers))
		for _, a := range models.AllAnswers {
			labels = append(labels, answerLabels[a])
		}
		b.WriteString(helpStyle.Render(strings.Join(labels, " | ") + " | q: quit"))
		b.WriteString("\n")
	case models.PhaseGuessing:
		b.WriteString(guessBox.Render(fmt.Sprintf("Is your character %s?", v.guess)))
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("y: correct | n: wrong, keep asking | q: quit"))
		b.WriteString("\n")
	case models.PhaseRevealed:
		b.WriteString(revealedText.Render(fmt.Sprintf("Got it! Your character is %s.", v.guess)))
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter: finish | q: quit"))
		b.WriteString("\n")
	case models.PhaseHeroRender:
		b.WriteString(revealedText.Render(fmt.Sprintf("%s, found in %d turns.", v.guess, v.turns)))
		b.WriteString("\n")
		switch {
		case m.saveErr != nil:
			b.WriteString(errorStyle.Render("Saving transcript: " + m.saveErr.Error()))
			b.WriteString("\n")
		case m.saved != "":
			b.WriteString(fmt.Sprintf("Transcript saved as %s.\n", m.saved))
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("n: new game | q: quit"))
		b.WriteString("\n")
	default:
		b.WriteString(thinkStyle.Render("Preparing the next question..."))
		b.WriteString("\n")
	}
	return b.String()
}

func renderTraits(traits []models.Trait) string {
	if len(traits) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(headerStyle.Render("Known so far"))
	b.WriteString("\n")
	for _, t := range traits {
		b.WriteString(traitStyle.Render(fmt.Sprintf("  %s: %s", t.Key, t.Value)))
		b.WriteString("\n")
	}
	return b.String()
}

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play a game in the terminal",
	Long: `Think of a character, real or fictional, and answer the detective's
questions until it names them. Answer with y (yes), n (no), p (probably),
o (probably not) or d (don't know).

Finished games are written as YAML transcripts to the configured directory,
or to --transcript DIR. Pass --no-transcript to skip them.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Session == nil {
			return fmt.Errorf("game session not initialized")
		}

		// The UI owns the terminal; without a log file, logs would corrupt it.
		if Config != nil && Config.Logging.File == "" && LogLevel != (zap.AtomicLevel{}) {
			prev := LogLevel.Level()
			LogLevel.SetLevel(zapcore.FatalLevel)
			defer LogLevel.SetLevel(prev)
		}

		var store storage.TranscriptStore
		switch {
		case playNoTranscript:
		case playTranscriptDir != "":
			store = storage.NewTranscriptStore(playTranscriptDir)
		default:
			store = Transcripts
		}

		ctx, cancel := context.WithCancel(commandContext(cmd))
		defer cancel()

		p := tea.NewProgram(newPlayModel(ctx, Session, store), tea.WithAltScreen(), tea.WithContext(ctx))
		_, err := p.Run()
		return err
	},
}

func init() {
	playCmd.Flags().StringVar(&playTranscriptDir, "transcript", "", "Write finished games to this directory")
	playCmd.Flags().BoolVar(&playNoTranscript, "no-transcript", false, "Do not write transcripts")
	rootCmd.AddCommand(playCmd)
}
