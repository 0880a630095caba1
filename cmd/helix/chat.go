// This file implements the interactive chat interface using bubbletea.
package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	helixchat "helix/internal/chat"
	"helix/internal/llm"
	"helix/internal/logging"
	"helix/internal/search"
	"helix/internal/sequence"
	"helix/internal/store"
	"helix/internal/tools"
	"helix/internal/types"
)

// chatModel is the main model for the interactive chat interface.
type chatModel struct {
	// UI Components
	textinput textinput.Model
	viewport  viewport.Model
	spinner   spinner.Model
	styles    chatStyles

	// State
	history   []chatMessage
	sequence  []types.SequenceStep
	isLoading bool
	err       error
	width     int
	height    int
	ready     bool

	// Session State
	sessionID string
	turnCount int

	// Backend
	st        *store.Store
	orch      *helixchat.Orchestrator
	workspace string
}

type chatMessage struct {
	role    string // "user", "assistant", or "sequence"
	content string
	time    time.Time
}

// Messages for tea updates
type (
	turnMsg  *helixchat.TurnResult
	errorMsg error
)

// initChat builds the full backend stack and opens a fresh session.
func initChat() (chatModel, error) {
	cfg, err := loadConfig()
	if err != nil {
		return chatModel{}, err
	}
	if err := cfg.Validate(); err != nil {
		return chatModel{}, err
	}
	if err := logging.Initialize(workspace); err != nil {
		return chatModel{}, err
	}

	st, err := store.New(cfg.Storage.DatabasePath)
	if err != nil {
		return chatModel{}, fmt.Errorf("failed to open store: %w", err)
	}

	client, err := llm.NewClient(cfg)
	if err != nil {
		st.Close()
		return chatModel{}, err
	}

	var searcher tools.Searcher
	if cfg.Search.APIKey != "" {
		searchTimeout, tErr := cfg.SearchTimeout()
		if tErr != nil {
			st.Close()
			return chatModel{}, tErr
		}
		searcher = search.NewClient(cfg.Search.APIKey, cfg.Search.BaseURL, searchTimeout)
	}

	gen := sequence.NewGenerator(st, client, nil)
	dispatcher := tools.NewDispatcher(tools.NewCatalog(gen, searcher, st))
	phrasings := helixchat.NewPhrasings(cfg.Prompts.TemplatesPath)
	orch := helixchat.NewOrchestrator(st, client, dispatcher, phrasings)

	userID, err := ensureUser(st, workspace, &types.UserProfile{})
	if err != nil {
		st.Close()
		return chatModel{}, err
	}
	session, err := st.CreateSession(userID)
	if err != nil {
		st.Close()
		return chatModel{}, fmt.Errorf("failed to create session: %w", err)
	}

	ti := textinput.New()
	ti.Placeholder = "Describe the role you're hiring for... (Enter to send, Ctrl+C to exit)"
	ti.Focus()
	ti.Prompt = "│ "
	ti.CharLimit = 4096
	ti.Width = 80

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	vp := viewport.New(80, 20)
	vp.SetContent("")

	styles := defaultStyles()
	ti.PromptStyle = styles.Prompt
	ti.TextStyle = styles.UserInput
	sp.Style = styles.Spinner

	return chatModel{
		textinput: ti,
		viewport:  vp,
		spinner:   sp,
		styles:    styles,
		history:   []chatMessage{},
		sessionID: session.ID,
		st:        st,
		orch:      orch,
		workspace: workspace,
	}, nil
}

// runInteractiveChat launches the bubbletea program.
func runInteractiveChat() error {
	m, err := initChat()
	if err != nil {
		return err
	}
	defer m.st.Close()
	defer logging.CloseAll()

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	return err
}

func (m chatModel) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
	)
}

func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		spCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit

		case tea.KeyEnter:
			if !m.isLoading {
				return m.handleSubmit()
			}
		}

		if !m.isLoading {
			m.textinput, tiCmd = m.textinput.Update(msg)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 3
		footerHeight := 2
		inputHeight := 3

		if !m.ready {
			m.viewport = viewport.New(msg.Width-4, msg.Height-headerHeight-footerHeight-inputHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width - 4
			m.viewport.Height = msg.Height - headerHeight - footerHeight - inputHeight
		}
		m.textinput.Width = msg.Width - 4

	case spinner.TickMsg:
		if m.isLoading {
			m.spinner, spCmd = m.spinner.Update(msg)
			return m, spCmd
		}

	case turnMsg:
		m.isLoading = false
		m.err = nil
		m.turnCount++
		m.history = append(m.history, chatMessage{
			role:    "assistant",
			content: msg.Reply,
			time:    time.Now(),
		})
		if sequenceChanged(m.sequence, msg.Sequence) {
			m.sequence = msg.Sequence
			m.history = append(m.history, chatMessage{
				role:    "sequence",
				content: formatSequence(msg.Sequence),
				time:    time.Now(),
			})
		}
		m.viewport.SetContent(m.renderHistory())
		m.viewport.GotoBottom()

	case errorMsg:
		m.isLoading = false
		m.err = msg
	}

	m.viewport, vpCmd = m.viewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, spCmd)
}

func (m chatModel) handleSubmit() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.textinput.Value())
	if input == "" {
		return m, nil
	}

	if strings.HasPrefix(input, "/") {
		return m.handleCommand(input)
	}

	m.history = append(m.history, chatMessage{
		role:    "user",
		content: input,
		time:    time.Now(),
	})
	m.textinput.Reset()
	m.viewport.SetContent(m.renderHistory())
	m.viewport.GotoBottom()
	m.isLoading = true

	return m, tea.Batch(
		m.spinner.Tick,
		m.runTurn(input),
	)
}

// runTurn processes one chat turn in the background.
func (m chatModel) runTurn(input string) tea.Cmd {
	orch, sessionID := m.orch, m.sessionID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		result, err := orch.HandleTurn(ctx, sessionID, input)
		if err != nil {
			return errorMsg(err)
		}
		return turnMsg(result)
	}
}

func (m chatModel) handleCommand(input string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(input)
	cmd := parts[0]
	m.textinput.Reset()

	switch cmd {
	case "/quit", "/exit", "/q":
		return m, tea.Quit

	case "/clear":
		m.history = []chatMessage{}
		m.viewport.SetContent("")
		return m, nil

	case "/sequence":
		content := "No sequence yet. Ask me to generate one."
		if len(m.sequence) > 0 {
			content = formatSequence(m.sequence)
		}
		m.history = append(m.history, chatMessage{role: "sequence", content: content, time: time.Now()})

	case "/new":
		session, err := m.st.CreateSession(mustUserID(m.st, m.workspace))
		if err != nil {
			m.err = err
			return m, nil
		}
		m.sessionID = session.ID
		m.sequence = nil
		m.history = append(m.history, chatMessage{
			role:    "sequence",
			content: "Started a new session.",
			time:    time.Now(),
		})

	case "/help":
		help := `Commands:
  /help       Show this help message
  /sequence   Show the current outreach sequence
  /new        Start a fresh session
  /clear      Clear chat history
  /quit       Exit

Try:
  "I'm hiring a senior Go engineer in Berlin"
  "Make step 2 more casual"
  "Add a LinkedIn touchpoint after step 1"
  "Change the tone to friendly"`
		m.history = append(m.history, chatMessage{role: "sequence", content: help, time: time.Now()})

	default:
		m.history = append(m.history, chatMessage{
			role:    "sequence",
			content: fmt.Sprintf("Unknown command %s. Try /help.", cmd),
			time:    time.Now(),
		})
	}

	m.viewport.SetContent(m.renderHistory())
	m.viewport.GotoBottom()
	return m, nil
}

// mustUserID re-reads the workspace profile pointer; it exists by the time
// the chat is running.
func mustUserID(st *store.Store, ws string) int64 {
	id, err := ensureUser(st, ws, &types.UserProfile{})
	if err != nil {
		return 0
	}
	return id
}

func sequenceChanged(prev, cur []types.SequenceStep) bool {
	if len(cur) == 0 {
		return false
	}
	if len(prev) != len(cur) {
		return true
	}
	for i := range cur {
		if prev[i].Content != cur[i].Content {
			return true
		}
	}
	return false
}

func formatSequence(steps []types.SequenceStep) string {
	var sb strings.Builder
	sb.WriteString("Current outreach sequence:\n")
	for _, s := range steps {
		sb.WriteString(fmt.Sprintf("\n%d. %s\n", s.StepNumber, s.Content))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (m chatModel) renderHistory() string {
	var sb strings.Builder

	for _, msg := range m.history {
		switch msg.role {
		case "user":
			userStyle := m.styles.Bold.
				Foreground(m.styles.Primary).
				MarginTop(1)
			sb.WriteString(userStyle.Render("You") + "\n")
			sb.WriteString(m.styles.UserInput.Render(msg.content))
			sb.WriteString("\n")
		case "assistant":
			assistantStyle := m.styles.Bold.
				Foreground(m.styles.Accent).
				MarginTop(1)
			sb.WriteString(assistantStyle.Render("Helix") + "\n")
			sb.WriteString(m.styles.Assistant.Render(msg.content))
			sb.WriteString("\n")
		case "sequence":
			sb.WriteString("\n" + m.styles.Sequence.Render(msg.content) + "\n")
		}
	}

	return sb.String()
}

func (m chatModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	header := m.renderHeader()

	chatView := m.styles.Content.Render(m.viewport.View())

	if m.isLoading {
		chatView += "\n" + m.styles.Spinner.Render(m.spinner.View()) + " Thinking..."
	}

	if m.err != nil {
		chatView += "\n" + m.styles.Error.Render("Error: "+m.err.Error())
	}

	inputStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.styles.Accent).
		Padding(0, 1)
	inputArea := inputStyle.Render(m.textinput.View())

	footer := m.renderFooter()

	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		chatView,
		inputArea,
		footer,
	)
}

func (m chatModel) renderHeader() string {
	title := m.styles.Header.Render(" Helix ")
	badge := m.styles.Badge.Render("recruiting assistant")

	var status string
	if m.isLoading {
		status = m.styles.Warning.Render("● Working")
	} else {
		status = m.styles.Success.Render("● Ready")
	}

	steps := m.styles.Muted.Render(fmt.Sprintf("steps: %d", len(m.sequence)))

	return lipgloss.JoinHorizontal(
		lipgloss.Center,
		title, " ", badge, "  ", status, "  ", steps,
	)
}

func (m chatModel) renderFooter() string {
	help := m.styles.Muted.Render("Enter: send • /sequence: show steps • /help: commands • Ctrl+C: exit")
	return lipgloss.NewStyle().MarginTop(1).Render(help)
}
