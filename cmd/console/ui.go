package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/jwebster45206/scene-engine/pkg/engine"
	"github.com/jwebster45206/scene-engine/pkg/scene"
	"github.com/jwebster45206/scene-engine/pkg/state"
)

// ConsoleUI is the BubbleTea model that runs the player.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	session      *engine.Session
	sceneView    viewport.Model
	metaViewport viewport.Model
	ready        bool
	width        int
	height       int

	frame    engine.Frame
	vars     state.Vars
	turns    int
	next     scene.LocationRef
	loading  bool
	selected int
	status   string

	// Quit confirmation state
	showQuitModal bool

	// Progress bar state. ticking is set while a tick chain is scheduled.
	progressTick int
	ticking      bool
}

type loadingMsg struct {
	next scene.LocationRef
}

type frameMsg struct {
	frame engine.Frame
	vars  state.Vars
	turns int
}

// actionDoneMsg reports a rejected start, select or restart. Successful
// transitions arrive as loadingMsg and frameMsg.
type actionDoneMsg struct {
	err error
}

type copiedMsg struct {
	err error
}

type progressTickMsg struct{}

type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Choose  key.Binding
	Restart key.Binding
	Copy    key.Binding
	Quit    key.Binding
}

var keys = keyMap{
	Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Choose:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter/1-9", "choose")),
	Restart: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "restart")),
	Copy:    key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy scene")),
	Quit:    key.NewBinding(key.WithKeys("ctrl+c", "esc", "q"), key.WithHelp("q", "quit")),
}

var (
	scenePanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	dayTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	sceneTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	choiceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	selectedChoiceStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("86")).
				Bold(true)

	disabledChoiceStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")) // dark grey

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

func NewConsoleUI(session *engine.Session) ConsoleUI {
	sceneVp := viewport.New(50, 20)
	sceneVp.MouseWheelEnabled = true

	return ConsoleUI{
		session:      session,
		sceneView:    sceneVp,
		metaViewport: viewport.New(20, 20),
		loading:      true,
		ticking:      true,
		next:         session.StartRef(),
	}
}

func (m ConsoleUI) Init() tea.Cmd {
	return tea.Batch(m.start(), progressTick())
}

func (m ConsoleUI) start() tea.Cmd {
	session := m.session
	return func() tea.Msg {
		_, err := session.Start(context.Background())
		return actionDoneMsg{err: err}
	}
}

func (m ConsoleUI) restart() tea.Cmd {
	session := m.session
	return func() tea.Msg {
		_, err := session.Restart(context.Background())
		return actionDoneMsg{err: err}
	}
}

func (m ConsoleUI) choose(index int) (ConsoleUI, tea.Cmd) {
	choices := m.frame.Choices()
	if m.loading || index < 0 || index >= len(choices) {
		return m, nil
	}
	choice := choices[index]
	if !choice.Enabled || choice.OnSelect == nil {
		m.status = "That choice is locked."
		return m, nil
	}
	m.status = ""
	onSelect := choice.OnSelect
	return m, func() tea.Msg {
		_, err := onSelect(context.Background())
		return actionDoneMsg{err: err}
	}
}

func (m ConsoleUI) copyScene() tea.Cmd {
	text := sceneText(m.frame)
	return func() tea.Msg {
		return copiedMsg{err: clipboard.WriteAll(text)}
	}
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.sceneView, vpCmd = m.sceneView.Update(msg)
		return m, vpCmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.ready = true
		m.writeSceneContent()
		m.metaViewport.SetContent(m.writeMetadata())
		return m, nil

	case loadingMsg:
		m.loading = true
		m.next = msg.next
		m.frame = engine.Frame{}
		m.selected = 0
		m.progressTick = 0
		m.writeSceneContent()
		if m.ticking {
			return m, nil
		}
		m.ticking = true
		return m, progressTick()

	case frameMsg:
		m.loading = false
		m.frame = msg.frame
		m.vars = msg.vars
		m.turns = msg.turns
		m.selected = firstEnabled(msg.frame.Choices())
		m.writeSceneContent()
		m.metaViewport.SetContent(m.writeMetadata())
		m.sceneView.GotoTop()
		return m, nil

	case actionDoneMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
			m.writeSceneContent()
		}
		return m, nil

	case copiedMsg:
		if msg.err != nil {
			m.status = "Copy failed: " + msg.err.Error()
		} else {
			m.status = "Scene copied to clipboard."
		}
		m.writeSceneContent()
		return m, nil

	case progressTickMsg:
		if m.loading {
			m.progressTick++
			m.writeSceneContent()
			return m, progressTick()
		}
		m.ticking = false
		return m, nil

	case tea.KeyMsg:
		choices := m.frame.Choices()
		switch {
		case key.Matches(msg, keys.Quit):
			m.showQuitModal = true
			return m, nil
		case key.Matches(msg, keys.Up):
			if m.selected > 0 {
				m.selected--
			}
			m.writeSceneContent()
			return m, nil
		case key.Matches(msg, keys.Down):
			if m.selected < len(choices)-1 {
				m.selected++
			}
			m.writeSceneContent()
			return m, nil
		case key.Matches(msg, keys.Choose):
			var cmd tea.Cmd
			m, cmd = m.choose(m.selected)
			m.writeSceneContent()
			return m, cmd
		case key.Matches(msg, keys.Restart):
			if m.loading {
				return m, nil
			}
			m.status = ""
			return m, m.restart()
		case key.Matches(msg, keys.Copy):
			if m.frame.IsZero() {
				return m, nil
			}
			return m, m.copyScene()
		default:
			if s := msg.String(); len(s) == 1 && s[0] >= '1' && s[0] <= '9' {
				var cmd tea.Cmd
				m, cmd = m.choose(int(s[0] - '1'))
				m.writeSceneContent()
				return m, cmd
			}
		}
		m.sceneView, vpCmd = m.sceneView.Update(msg)
		return m, vpCmd
	}

	m.sceneView, vpCmd = m.sceneView.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)
	return m, tea.Batch(vpCmd, mvCmd)
}

func (m *ConsoleUI) resize() {
	sceneWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - sceneWidth - 6

	m.sceneView.Width = sceneWidth - 2
	m.sceneView.Height = m.height - 5
	m.metaViewport.Width = metaWidth - 2
	m.metaViewport.Height = m.height - 4
}

func firstEnabled(choices []engine.ChoiceView) int {
	for i, c := range choices {
		if c.Enabled {
			return i
		}
	}
	return 0
}

// writeSceneContent redraws the scene panel for the current viewport width.
func (m *ConsoleUI) writeSceneContent() {
	width := m.sceneView.Width - 6
	if width < 20 {
		width = 20
	}

	var content strings.Builder
	switch {
	case m.loading:
		content.WriteString(loadingStyle.Render("Loading "+m.next.String()+"...") + "\n\n")
		content.WriteString(m.renderProgressBar() + "\n")

	case m.frame.Err != nil:
		content.WriteString(errorStyle.Render(wordwrap.String(m.frame.Err.Message, width)) + "\n\n")
		content.WriteString(promptStyle.Render("Press r to start over.") + "\n")

	case m.frame.Model != nil:
		model := m.frame.Model
		content.WriteString(dayTitleStyle.Render(strings.ToUpper(model.DayTitle)) + "\n\n")
		content.WriteString(sceneTitleStyle.Render(model.SceneTitle) + "\n")
		content.WriteString(separatorStyle.Render(strings.Repeat("─", width)) + "\n\n")
		content.WriteString(wordwrap.String(renderMarkup(string(model.Description)), width) + "\n\n")
		content.WriteString(renderChoices(model.Choices, m.selected, width))
		if model.Terminal {
			content.WriteString(promptStyle.Render("The End. Press r to play again.") + "\n")
		}
	}

	if m.status != "" {
		content.WriteString("\n" + promptStyle.Render(m.status) + "\n")
	}
	m.sceneView.SetContent(content.String())
}

func renderChoices(choices []engine.ChoiceView, selected, width int) string {
	var b strings.Builder
	for i, c := range choices {
		line := wordwrap.String(fmt.Sprintf("%d. %s", i+1, c.Label), width-2)
		switch {
		case !c.Enabled:
			b.WriteString("  " + disabledChoiceStyle.Render(line))
		case i == selected:
			b.WriteString(selectedChoiceStyle.Render("▶ " + line))
		default:
			b.WriteString("  " + choiceStyle.Render(line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// sceneText is the displayed scene as plain text.
func sceneText(frame engine.Frame) string {
	if frame.Err != nil {
		return frame.Err.Message
	}
	if frame.Model == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(frame.Model.DayTitle + "\n")
	b.WriteString(frame.Model.SceneTitle + "\n\n")
	b.WriteString(plainText(string(frame.Model.Description)) + "\n")
	for i, c := range frame.Model.Choices {
		fmt.Fprintf(&b, "\n%d. %s", i+1, c.Label)
	}
	return b.String()
}

func (m ConsoleUI) writeMetadata() string {
	var content strings.Builder
	content.WriteString(dayTitleStyle.Render("GAME STATE") + "\n\n")

	content.WriteString("Location:\n")
	if m.frame.Model != nil {
		content.WriteString(m.frame.Model.Ref.String() + "\n\n")
	} else {
		content.WriteString(m.next.String() + "\n\n")
	}

	content.WriteString("Scenes visited:\n")
	content.WriteString(fmt.Sprintf("%d\n\n", m.turns))

	content.WriteString("Variables:\n")
	if len(m.vars) == 0 {
		content.WriteString("None set\n")
	} else {
		for _, k := range sortedKeys(m.vars) {
			content.WriteString(fmt.Sprintf("• %s: %s\n", k, m.vars[k]))
		}
	}

	content.WriteString("\nCommands:\n")
	for _, b := range []key.Binding{keys.Up, keys.Down, keys.Choose, keys.Restart, keys.Copy, keys.Quit} {
		h := b.Help()
		content.WriteString(fmt.Sprintf("• %s: %s\n", h.Key, h.Desc))
	}
	return content.String()
}

func sortedKeys(vars state.Vars) []string {
	gs := state.NewGameState()
	gs.Merge(vars)
	return gs.Keys()
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				return m, nil
			}
		}

	case frameMsg, loadingMsg:
		// Keep tracking the session while the modal is up.
		m.showQuitModal = false
		model, cmd := m.Update(msg)
		mm := model.(ConsoleUI)
		mm.showQuitModal = true
		return mm, cmd
	}

	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Quit Game?"))
	content.WriteString("\n\n")
	content.WriteString("Are you sure you want to quit?")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue, or Ctrl+C to force quit"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showQuitModal {
		return m.renderQuitModal()
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	sceneWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - sceneWidth - 6

	scenePanel := scenePanelStyle.Width(sceneWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.sceneView.View(),
			separatorStyle.Render(strings.Repeat("─", sceneWidth-4)),
			promptStyle.Render("↑/↓ move • enter choose • r restart • y copy • q quit"),
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, scenePanel, metaPanel)
}

// renderProgressBar creates an animated progress bar for loading states
func (m ConsoleUI) renderProgressBar() string {
	usable := m.sceneView.Width - 6
	if usable <= 0 {
		usable = 30
	}
	if usable > 80 {
		usable = 80
	} else if usable < 10 {
		usable = 10
	}

	const totalFrames = 40
	frame := m.progressTick % totalFrames
	filled := (frame * usable) / totalFrames

	var bar strings.Builder
	for i := 0; i < usable; i++ {
		if i < filled {
			bar.WriteString("█")
		} else if i == filled && frame%4 < 2 {
			bar.WriteString("▓")
		} else {
			bar.WriteString("░")
		}
	}
	return separatorStyle.Render(bar.String())
}

// progressTick creates a command that sends a progress tick message
func progressTick() tea.Cmd {
	return tea.Tick(time.Millisecond*200, func(time.Time) tea.Msg {
		return progressTickMsg{}
	})
}
