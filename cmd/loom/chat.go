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
	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"loom/cmd/loom/ui"
	"loom/internal/llm"
	"loom/internal/logging"
	"loom/internal/prompt"
	"loom/internal/session"
	"loom/internal/store"
)

var chatSystemPrompt string

// chatCmd launches the interactive chat; running loom with no
// arguments does the same.
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start the interactive chat interface",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat()
	},
}

func init() {
	chatCmd.Flags().StringVar(&chatSystemPrompt, "system", "", "System prompt for the chat session")
}

// transcriptEntry is one rendered line of conversation history.
type transcriptEntry struct {
	role    prompt.Role
	content string
}

// chatModel is the bubbletea model for the interactive chat view.
type chatModel struct {
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	styles   ui.Styles
	renderer *glamour.TermRenderer

	client  llm.Client
	sess    *session.Session
	library *prompt.Library
	db      *store.Store

	history   []transcriptEntry
	isLoading bool
	err       error
	width     int
	height    int
	ready     bool

	watchCancel context.CancelFunc
}

// replyMsg carries a completed model call back into the update loop.
type replyMsg struct {
	content string
}

type errorMsg error

func newChatModel() (*chatModel, error) {
	client, err := newModelClient()
	if err != nil {
		return nil, err
	}
	library, err := newLibrary()
	if err != nil {
		return nil, err
	}

	input := textinput.New()
	input.Placeholder = "Ask anything ('/help' for commands)"
	input.Focus()
	input.CharLimit = 4000

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return nil, fmt.Errorf("markdown renderer: %w", err)
	}

	m := &chatModel{
		input:    input,
		spinner:  sp,
		styles:   ui.NewStyles(),
		renderer: renderer,
		client:   client,
		library:  library,
	}

	// Persistence and template hot reload are conveniences; chat works
	// without them.
	if db, err := openStore(); err == nil {
		m.db = db
		if _, err := m.newSession(); err != nil {
			db.Close()
			m.db = nil
			m.sess = session.New(session.WithSystem(chatSystemPrompt))
		}
	} else {
		m.sess = session.New(session.WithSystem(chatSystemPrompt))
	}

	watchCtx, cancel := context.WithCancel(context.Background())
	m.watchCancel = cancel
	watcher := prompt.NewWatcher(library)
	go func() {
		if err := watcher.Watch(watchCtx); err != nil && watchCtx.Err() == nil {
			logging.L().Debug("template watcher stopped: " + err.Error())
		}
	}()

	return m, nil
}

func (m *chatModel) newSession() (string, error) {
	title := time.Now().Format("chat 2006-01-02 15:04")
	id, err := m.db.CreateSession(context.Background(), title)
	if err != nil {
		return "", err
	}
	opts := []session.Option{session.WithPersister(m.db)}
	if chatSystemPrompt != "" {
		opts = append(opts, session.WithSystem(chatSystemPrompt))
	}
	sess, err := session.Resume(context.Background(), m.db, id, opts...)
	if err != nil {
		return "", err
	}
	m.sess = sess
	return id, nil
}

func (m *chatModel) shutdown() {
	if m.watchCancel != nil {
		m.watchCancel()
	}
	if m.db != nil {
		m.db.Close()
	}
}

func (m *chatModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

func (m *chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		inputCmd tea.Cmd
		vpCmd    tea.Cmd
	)
	m.input, inputCmd = m.input.Update(msg)
	m.viewport, vpCmd = m.viewport.Update(msg)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.shutdown()
			return m, tea.Quit
		case tea.KeyEnter:
			if m.isLoading {
				return m, nil
			}
			line := strings.TrimSpace(m.input.Value())
			if line == "" {
				return m, nil
			}
			m.input.Reset()
			m.err = nil

			if strings.HasPrefix(line, "/") {
				return m.handleCommand(line)
			}

			m.history = append(m.history, transcriptEntry{role: prompt.RoleUser, content: line})
			m.isLoading = true
			m.refreshViewport()
			return m, tea.Batch(m.sendTurn(line), m.spinner.Tick)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		headerHeight := 2
		inputHeight := 3
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-headerHeight-inputHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - headerHeight - inputHeight
		}
		m.input.Width = msg.Width - 6
		m.refreshViewport()

	case spinner.TickMsg:
		if m.isLoading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, tea.Batch(cmd, inputCmd, vpCmd)
		}

	case replyMsg:
		m.isLoading = false
		m.history = append(m.history, transcriptEntry{role: prompt.RoleAssistant, content: msg.content})
		m.refreshViewport()

	case errorMsg:
		m.isLoading = false
		m.err = msg
		m.refreshViewport()
	}

	return m, tea.Batch(inputCmd, vpCmd)
}

// sendTurn appends the user turn to the session and asks the model for
// the next reply off the UI goroutine.
func (m *chatModel) sendTurn(line string) tea.Cmd {
	sess := m.sess
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout())
		defer cancel()

		if err := sess.Append(ctx, prompt.UserMessage(line)); err != nil {
			return errorMsg(err)
		}
		reply, err := client.Chat(ctx, sess.Messages())
		if err != nil {
			return errorMsg(err)
		}
		if err := sess.Append(ctx, prompt.AssistantMessage(reply.Content)); err != nil {
			return errorMsg(err)
		}
		return replyMsg{content: reply.Content}
	}
}

func (m *chatModel) handleCommand(line string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit", "/exit":
		m.shutdown()
		return m, tea.Quit

	case "/help":
		m.systemNote(`Commands:
  /new                start a fresh session
  /clear              clear the window, keep the session
  /system <text>      set the system prompt for this session
  /templates          list corpus templates
  /quit               exit`)

	case "/new":
		if m.db != nil {
			if _, err := m.newSession(); err != nil {
				m.err = err
				break
			}
		} else {
			m.sess = session.New(session.WithSystem(chatSystemPrompt))
		}
		m.history = nil
		m.systemNote("Started a new session.")

	case "/clear":
		m.history = nil

	case "/system":
		text := strings.TrimSpace(strings.TrimPrefix(line, "/system"))
		if text == "" {
			m.systemNote("Usage: /system <text>")
			break
		}
		if err := m.sess.Append(context.Background(), prompt.SystemMessage(text)); err != nil {
			m.err = err
			break
		}
		m.systemNote("System prompt updated.")

	case "/templates":
		names := m.library.Names()
		if len(names) == 0 {
			m.systemNote("No templates loaded.")
			break
		}
		m.systemNote("Templates: " + strings.Join(names, ", "))

	default:
		m.systemNote(fmt.Sprintf("Unknown command %s; try /help", fields[0]))
	}

	m.refreshViewport()
	return m, nil
}

func (m *chatModel) systemNote(text string) {
	m.history = append(m.history, transcriptEntry{role: prompt.RoleSystem, content: text})
}

func (m *chatModel) refreshViewport() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderHistory())
	m.viewport.GotoBottom()
}

func (m *chatModel) renderHistory() string {
	var sb strings.Builder
	for _, entry := range m.history {
		switch entry.role {
		case prompt.RoleUser:
			sb.WriteString(m.styles.UserLabel.Render("You") + "\n")
			sb.WriteString(m.styles.UserText.Render(entry.content))
			sb.WriteString("\n")
		case prompt.RoleSystem:
			sb.WriteString(m.styles.Status.Render(entry.content))
			sb.WriteString("\n")
		default:
			sb.WriteString(m.styles.BotLabel.Render("loom") + "\n")
			sb.WriteString(m.safeRenderMarkdown(entry.content))
		}
	}
	if m.err != nil {
		sb.WriteString("\n" + m.styles.Error.Render("Error: "+m.err.Error()) + "\n")
	}
	return sb.String()
}

// safeRenderMarkdown falls back to plain text when glamour fails.
func (m *chatModel) safeRenderMarkdown(content string) string {
	rendered, err := m.renderer.Render(content)
	if err != nil {
		return content + "\n"
	}
	return rendered
}

func (m *chatModel) View() string {
	if !m.ready {
		return "Starting loom..."
	}

	header := m.styles.Header.Width(m.width).Render(
		fmt.Sprintf("loom chat  ·  %s", m.client.GetModel()))

	status := m.styles.Help.Render("enter to send · /help for commands · ctrl+c to quit")
	if m.isLoading {
		status = m.spinner.View() + m.styles.Status.Render(" thinking...")
	}

	input := m.styles.InputBox.Width(m.width - 2).Render(m.input.View())

	return fmt.Sprintf("%s\n%s\n%s\n%s", header, m.viewport.View(), input, status)
}

// runChat launches the interactive chat TUI.
func runChat() error {
	model, err := newChatModel()
	if err != nil {
		return err
	}
	defer model.shutdown()

	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
