// Package tui is the hot-seat terminal front end: players take turns at one
// keyboard, typing the timeline slot for their active card.
package tui

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/mitchellh/go-wordwrap"

	"github.com/lox/when/internal/event"
	"github.com/lox/when/internal/game"
	"github.com/lox/when/internal/share"
)

const eventBuffer = 64

// Model is the Bubble Tea model for a game in progress
type Model struct {
	engine *game.Engine
	logger *log.Logger
	clip   Clipboard

	// UI components
	logViewport viewport.Model
	input       textinput.Model

	// State
	events      chan game.GameEvent
	gameLog     []logEntry
	state       game.State
	revealing   *game.PlacementResult
	quitting    bool
	focusedPane int // 0 = timeline, 1 = input

	// Dimensions
	width       int
	height      int
	initialized bool
}

type logEntry struct {
	text  string
	style lipgloss.Style
}

// gameEventMsg carries an engine event into the update loop
type gameEventMsg struct {
	event game.GameEvent
}

// Option configures a Model
type Option func(*Model)

// WithClipboard replaces the system clipboard used by "share".
func WithClipboard(c Clipboard) Option {
	return func(m *Model) { m.clip = c }
}

// New creates a model driving engine. It subscribes to the engine's event
// bus, so create it before starting the game.
func New(engine *game.Engine, logger *log.Logger, opts ...Option) *Model {
	// Sized properly when WindowSizeMsg arrives
	vp := viewport.New(10, 5)

	ti := textinput.New()
	ti.Focus()
	ti.CharLimit = 32
	ti.Width = 40
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)
	ti.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAFAFA"))
	ti.Prompt = "> "

	m := &Model{
		engine:      engine,
		logger:      logger.WithPrefix("tui"),
		clip:        SystemClipboard{Out: os.Stderr},
		logViewport: vp,
		input:       ti,
		events:      make(chan game.GameEvent, eventBuffer),
		focusedPane: 1,
	}
	for _, opt := range opts {
		opt(m)
	}
	engine.EventBus().Subscribe(m)
	m.state = engine.State()
	return m
}

// OnEvent forwards engine events to the update loop. It implements
// game.EventSubscriber and may be called from the engine's clock goroutine.
func (m *Model) OnEvent(e game.GameEvent) {
	select {
	case m.events <- e:
	default:
		m.logger.Warn("Dropping game event, UI is not keeping up", "type", e.EventType())
	}
}

func (m *Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		return gameEventMsg{event: <-m.events}
	}
}

// Init initializes the model
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitForEvent())
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case gameEventMsg:
		m.handleEvent(msg.event)
		cmds = append(cmds, m.waitForEvent())

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "tab":
			if m.focusedPane == 0 {
				m.focusedPane = 1
				m.input.Focus()
			} else {
				m.focusedPane = 0
				m.input.Blur()
			}
		case "enter":
			if m.focusedPane == 1 {
				cmd := m.Submit(m.input.Value())
				m.input.SetValue("")
				if cmd != nil {
					return m, cmd
				}
			}
		case "up", "k":
			if m.focusedPane == 0 {
				m.logViewport.ScrollUp(1)
			}
		case "down", "j":
			if m.focusedPane == 0 {
				m.logViewport.ScrollDown(1)
			}
		case "pgup":
			if m.focusedPane == 0 {
				m.logViewport.HalfPageUp()
			}
		case "pgdown":
			if m.focusedPane == 0 {
				m.logViewport.HalfPageDown()
			}
		}
	}

	var cmd tea.Cmd
	if m.focusedPane == 1 {
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}
	m.logViewport, cmd = m.logViewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// Submit runs one line of player input. It returns tea.Quit for "quit".
func (m *Model) Submit(input string) tea.Cmd {
	m.state = m.engine.State()
	if m.state.PendingNotification != nil {
		m.engine.DismissNotification()
	}

	fields := strings.Fields(strings.ToLower(input))
	if len(fields) == 0 {
		return nil
	}

	switch cmd := fields[0]; cmd {
	case "q", "quit":
		m.quitting = true
		return tea.Quit
	case "c", "cycle":
		if !m.engine.CycleHand() {
			m.addLog("Nothing to cycle", WarningStyle)
		}
	case "r", "restart":
		if !m.engine.Restart() {
			m.addLog("Can't restart yet", WarningStyle)
		}
	case "s", "share":
		m.share()
	default:
		slot, err := strconv.Atoi(cmd)
		if err != nil {
			m.addLog(fmt.Sprintf("Unknown command %q", cmd), WarningStyle)
			break
		}
		m.place(slot)
	}
	m.state = m.engine.State()
	return nil
}

func (m *Model) place(slot int) {
	if m.state.Phase != game.PhasePlaying {
		m.addLog("No game in progress", WarningStyle)
		return
	}
	if slot < 0 || slot > len(m.state.Timeline) {
		m.addLog(fmt.Sprintf("Pick a slot between 0 and %d", len(m.state.Timeline)), WarningStyle)
		return
	}

	player := m.state.CurrentPlayer()
	res := m.engine.PlaceCard(slot)
	if res == nil {
		m.addLog("Wait for the last card to land", WarningStyle)
		return
	}
	m.revealing = res
	m.engine.CommitAfter(game.RevealDelay(res.Success))
	m.logger.Debug("Placed card", "player", player.Name, "event", res.Event.Name, "slot", slot)
}

func (m *Model) share() {
	if m.state.Phase != game.PhaseGameOver {
		m.addLog("Finish the game before sharing", WarningStyle)
		return
	}
	text := share.Text(m.state)
	if err := m.clip.Copy(text); err != nil {
		m.logger.Warn("Clipboard unavailable", "error", err)
		m.addLog("Couldn't copy, here's your result:", WarningStyle)
	} else {
		m.addLog("Copied to clipboard:", SuccessStyle)
	}
	for line := range strings.SplitSeq(text, "\n") {
		m.addLog("  "+line, LogStyle)
	}
}

func (m *Model) handleEvent(e game.GameEvent) {
	switch e := e.(type) {
	case game.GameStartEvent:
		m.gameLog = nil
		m.revealing = nil
		m.addLog(fmt.Sprintf("New %s game: %s, %s each",
			modeName(e.Config.Mode), playerCount(len(e.Players)), cardCount(e.Config.EffectiveHandSize())), HeaderStyle)
		if len(e.Timeline) > 0 {
			m.addLog(fmt.Sprintf("The timeline starts with %s", e.Timeline[0]), LogStyle)
		}

	case game.PlacementEvent:
		m.revealing = nil
		res := e.Result
		if res.Success {
			m.addLog(fmt.Sprintf("✓ %s placed %s", e.Player.Name, res.Event), SuccessStyle)
			if tier := game.TierForStreak(e.Player.Streak()); tier >= game.StreakHot {
				m.addLog(fmt.Sprintf("  %s is on a roll: %d in a row", e.Player.Name, e.Player.Streak()), WarningStyle)
			}
		} else {
			m.addLog(fmt.Sprintf("✗ %s guessed slot %d, %s belongs at slot %d",
				e.Player.Name, res.AttemptedPosition, res.Event, res.CorrectPosition), ErrorStyle)
		}

	case game.RoundEndEvent:
		for _, p := range e.Eliminated {
			m.addLog(fmt.Sprintf("Round %d: %s is out", e.Round, p.Name), ErrorStyle)
		}
		for _, p := range e.Reprieved {
			m.addLog(fmt.Sprintf("Round %d: nobody survived, %s plays on with a fresh card", e.Round, p.Name), WarningStyle)
		}

	case game.GameOverEvent:
		switch {
		case len(e.Winners) == 1:
			m.addLog(fmt.Sprintf("Game over! %s wins", e.Winners[0].Name), HeaderStyle)
		case len(e.Winners) > 1:
			names := make([]string, len(e.Winners))
			for i, w := range e.Winners {
				names[i] = w.Name
			}
			m.addLog("Game over! Winners: "+strings.Join(names, ", "), HeaderStyle)
		default:
			m.addLog(fmt.Sprintf("Game over after %d turns, timeline of %d", e.Turns, len(e.Timeline)), HeaderStyle)
		}
		m.addLog("Type 'share' to copy your result or 'restart' to play again", InfoStyle)
	}
	m.state = m.engine.State()
}

func (m *Model) addLog(text string, style lipgloss.Style) {
	m.gameLog = append(m.gameLog, logEntry{text: text, style: style})
	m.logViewport.SetContent(m.renderMainPane())
	if m.logViewport.Height > 0 && m.logViewport.Width > 0 {
		m.logViewport.GotoBottom()
	}
}

// Log returns the plain text of the game log.
func (m *Model) Log() []string {
	out := make([]string, len(m.gameLog))
	for i, e := range m.gameLog {
		out[i] = e.text
	}
	return out
}

// State returns the last state the model rendered.
func (m *Model) State() game.State {
	return m.state
}

// View renders the TUI
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	actionContent := m.renderActionPane()
	actionHeight := lipgloss.Height(actionContent)
	actionPane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#04B575")).
		Width(max(1, m.width-2)).
		Height(max(1, actionHeight)).
		Render(actionContent)

	sidebarContent := m.renderSidebarPane()
	sidebarWidth := max(25, lipgloss.Width(sidebarContent))
	paneHeight := max(1, m.height-actionHeight-4)
	sidebarPane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#626262")).
		Width(sidebarWidth).
		Height(paneHeight).
		Render(sidebarContent)

	m.logViewport.Width = max(1, m.width-sidebarWidth-4)
	m.logViewport.Height = paneHeight
	m.logViewport.SetContent(m.renderMainPane())
	if !m.initialized && m.logViewport.Width > 1 && m.logViewport.Height > 1 {
		m.logViewport.GotoBottom()
		m.initialized = true
	}

	border := lipgloss.Color("#626262")
	if m.focusedPane == 0 {
		border = lipgloss.Color("#04B575")
	}
	mainPane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Width(m.logViewport.Width).
		Height(paneHeight).
		Render(m.logViewport.View())

	topRow := lipgloss.JoinHorizontal(lipgloss.Top, mainPane, sidebarPane)
	return lipgloss.JoinVertical(lipgloss.Top, topRow, actionPane)
}

// renderMainPane shows the timeline with numbered slots, then the log.
func (m *Model) renderMainPane() string {
	var b strings.Builder
	b.WriteString(HeaderStyle.Render(" Timeline "))
	b.WriteString("\n")
	for i, e := range m.state.Timeline {
		b.WriteString(SlotStyle.Render(fmt.Sprintf("  [%d]", i)))
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("      %s  %s\n", YearStyle.Render(event.FormatYear(e.Year)), e.FriendlyName))
	}
	b.WriteString(SlotStyle.Render(fmt.Sprintf("  [%d]", len(m.state.Timeline))))
	b.WriteString("\n\n")

	for _, e := range m.gameLog {
		b.WriteString(e.style.Render(e.text))
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) renderSidebarPane() string {
	var b strings.Builder
	s := m.state
	b.WriteString(WarningStyle.Render(modeName(s.Mode)))
	b.WriteString("\n")
	b.WriteString(InfoStyle.Render(fmt.Sprintf("Round %d · Turn %d", s.RoundNumber, s.TurnNumber)))
	b.WriteString("\n\n")

	for i, p := range s.Players {
		marker := "  "
		if i == s.CurrentPlayerIndex && s.Phase == game.PhasePlaying {
			marker = "▶ "
		}
		name := lipgloss.NewStyle().Foreground(GlowColor(game.TierForStreak(p.Streak()))).Render(p.Name)
		status := fmt.Sprintf("%d cards, %d ✓", len(p.Hand), p.CorrectCount())
		switch {
		case p.HasWon:
			status = SuccessStyle.Render("won")
		case p.IsEliminated:
			status = ErrorStyle.Render(fmt.Sprintf("out (round %d)", p.EliminatedRound))
		}
		b.WriteString(fmt.Sprintf("%s%s  %s\n", marker, name, status))
	}

	if len(s.Deck) > 0 {
		b.WriteString("\n")
		b.WriteString(InfoStyle.Render(fmt.Sprintf("%d cards left in deck", len(s.Deck))))
	}
	return b.String()
}

func (m *Model) renderActionPane() string {
	var b strings.Builder
	s := m.state

	switch {
	case m.revealing != nil:
		b.WriteString(WarningStyle.Render(fmt.Sprintf("Revealing %s...", m.revealing.Event.FriendlyName)))
		b.WriteString("\n")
	case s.Phase == game.PhasePlaying:
		if p := s.CurrentPlayer(); p != nil {
			if card, ok := p.ActiveCard(); ok {
				b.WriteString(fmt.Sprintf("%s's card: %s  %s\n", p.Name, CardStyle.Render(card.FriendlyName),
					InfoStyle.Render(fmt.Sprintf("[%s · %s]", card.Category.DisplayName(), card.Difficulty))))
				if card.Description != "" {
					width := uint(max(20, m.width-6))
					b.WriteString(InfoStyle.Render(wordwrap.WrapString(card.Description, width)))
					b.WriteString("\n")
				}
			}
		}
	case s.Phase == game.PhaseGameOver:
		b.WriteString(HeaderStyle.Render(" Game over "))
		b.WriteString("\n")
	}

	if n := s.PendingNotification; n != nil && n.Kind != game.NotifyGameOver && m.revealing == nil {
		if n.NextPlayer != nil {
			b.WriteString(InfoStyle.Render(fmt.Sprintf("Pass to %s", n.NextPlayer.Name)))
			b.WriteString("\n")
		}
	}

	b.WriteString(m.input.View())
	b.WriteString("\n")

	help := "slot number to place • c cycle • Tab scroll • Ctrl+C quit"
	if s.Phase == game.PhaseGameOver {
		help = "share • restart • quit"
	}
	b.WriteString(InfoStyle.Render(help))
	return b.String()
}

func modeName(m game.Mode) string {
	switch m {
	case game.ModeSuddenDeath:
		return "Sudden Death"
	case game.ModeDaily:
		return "Daily Challenge"
	default:
		return "Freeplay"
	}
}

func playerCount(n int) string {
	if n == 1 {
		return "1 player"
	}
	return fmt.Sprintf("%d players", n)
}

func cardCount(n int) string {
	if n == 1 {
		return "1 card"
	}
	return fmt.Sprintf("%d cards", n)
}

// Run starts the program on the given streams and blocks until the player
// quits.
func Run(m *Model, in io.Reader, out io.Writer) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithInput(in), tea.WithOutput(out))
	_, err := p.Run()
	return err
}
