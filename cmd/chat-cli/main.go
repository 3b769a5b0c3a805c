// Command chat-cli is a terminal client for the calendar assistant. It
// connects to the server's chat websocket, renders tool results as
// interactive components, and translates the actions the user takes on them
// back into chat messages.
//
// Usage:
//
//	export CALENDAR_CHAT_SERVER="http://localhost:8080"
//	go run ./cmd/chat-cli
//
// Commands:
//
//	/stop - Cancel the in-flight response
//	/quit - Exit the program
//	1-9   - Trigger an action on the latest tool component
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/front10/calendar-chat/pkg/chat"
	"github.com/front10/calendar-chat/pkg/domain"
	"github.com/front10/calendar-chat/pkg/genui"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#25A065")).
			Padding(0, 1)

	senderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("5")).
			Bold(true)

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("2")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	pendingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220")).
			Italic(true)

	actionKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true).
			Padding(0, 1)
)

type serverEventMsg domain.Event
type connClosedMsg struct{}
type errMsg struct{ err error }

// clientState is shared between the registry's action handler (which runs on
// key dispatch) and the view (which shows the active calendar).
type clientState struct {
	queue *chat.SendQueue

	mu             sync.Mutex
	activeCalendar string
}

// handleAction is the single user-action handler behind every calendar
// component. Selecting a calendar is remembered locally so the header can
// show it; every action is translated and sent (or queued) as a user
// message.
func (cs *clientState) handleAction(a genui.UserAction) {
	if a.Action == "select_calendar" {
		cs.mu.Lock()
		cs.activeCalendar, _ = a.Data["calendarName"].(string)
		cs.mu.Unlock()
	}
	cs.queue.EnqueueOrSend(genui.Message(a))
}

func (cs *clientState) ActiveCalendar() string {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.activeCalendar
}

type appModel struct {
	client   *chat.Client
	queue    *chat.SendQueue
	registry *genui.Registry
	state    *clientState

	session domain.Session
	entries []domain.StreamEntry
	// invocations folds tool events by call ID into the latest known state.
	invocations map[string]*domain.ToolInvocation
	status      domain.ChatStatus
	// actions are the key-bound affordances of the most recent tool
	// component, dispatched with the digit keys.
	actions []genui.BoundAction

	viewport viewport.Model
	textarea textarea.Model
	renderer *glamour.TermRenderer
	width    int
	height   int
	err      error
}

func initialModel(client *chat.Client, queue *chat.SendQueue, registry *genui.Registry, state *clientState, session domain.Session) appModel {
	ta := textarea.New()
	ta.Placeholder = "Ask about your calendar..."
	ta.Focus()
	ta.Prompt = "┃ "
	ta.CharLimit = 280
	ta.SetWidth(80)
	ta.SetHeight(3)
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.ShowLineNumbers = false

	vp := viewport.New(80, 20)
	vp.SetContent("Connected. Ask about your calendar to get started.")

	r, _ := glamour.NewTermRenderer(
		glamour.WithStandardStyle("light"),
		glamour.WithWordWrap(80),
	)

	return appModel{
		client:      client,
		queue:       queue,
		registry:    registry,
		state:       state,
		session:     session,
		invocations: make(map[string]*domain.ToolInvocation),
		status:      domain.StatusReady,
		viewport:    vp,
		textarea:    ta,
		renderer:    r,
	}
}

func (m appModel) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, waitForEvent(m.client.Events()))
}

func waitForEvent(ch <-chan domain.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return connClosedMsg{}
		}
		return serverEventMsg(ev)
	}
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width
		m.textarea.SetWidth(msg.Width)
		m.viewport.Height = msg.Height - m.textarea.Height() - 4
		if m.viewport.Height < 0 {
			m.viewport.Height = 0
		}
		m.renderer, _ = glamour.NewTermRenderer(
			glamour.WithStandardStyle("light"),
			glamour.WithWordWrap(m.width-4),
		)
		m.rebuildView()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			m.err = nil
			return m.submit()
		default:
			// Digit keys dispatch component actions, but only when the
			// input is empty so typing numbers in a message still works.
			if key := msg.String(); len(key) == 1 && key >= "1" && key <= "9" && m.textarea.Value() == "" {
				idx := int(key[0] - '1')
				if idx < len(m.actions) {
					m.actions[idx].Invoke()
					m.rebuildView()
					return m, nil
				}
			}
		}

	case serverEventMsg:
		ev := domain.Event(msg)
		switch ev.Type {
		case domain.EventTypeEntry:
			if ev.Entry != nil {
				m.entries = append(m.entries, *ev.Entry)
			}
		case domain.EventTypeStatus:
			m.status = ev.Status
		case domain.EventTypeTool:
			if ev.Tool != nil {
				m.foldToolEvent(*ev.Tool)
			}
		}
		m.rebuildView()
		cmds = append(cmds, waitForEvent(m.client.Events()))

	case connClosedMsg:
		m.err = fmt.Errorf("connection to server lost")
		return m, tea.Quit

	case errMsg:
		m.err = msg.err
	}

	var tiCmd, vpCmd tea.Cmd
	m.textarea, tiCmd = m.textarea.Update(msg)
	m.viewport, vpCmd = m.viewport.Update(msg)
	cmds = append(cmds, tiCmd, vpCmd)

	return m, tea.Batch(cmds...)
}

// foldToolEvent merges one lifecycle update into the invocation view.
func (m *appModel) foldToolEvent(tev domain.ToolEvent) {
	inv, ok := m.invocations[tev.ToolCallID]
	if !ok {
		inv = &domain.ToolInvocation{ToolID: tev.ToolID, ToolCallID: tev.ToolCallID}
		m.invocations[tev.ToolCallID] = inv
	}
	if tev.ToolID != "" {
		inv.ToolID = tev.ToolID
	}
	inv.State = tev.State
	if tev.Input != nil {
		inv.Input = tev.Input
	}
	if tev.Output != nil {
		inv.Output = tev.Output
	}
	if tev.Error != "" {
		inv.Error = tev.Error
	}
}

func (m appModel) submit() (tea.Model, tea.Cmd) {
	v := strings.TrimSpace(m.textarea.Value())
	if v == "" {
		return m, nil
	}

	switch v {
	case "/quit", "/exit":
		return m, tea.Quit
	case "/stop":
		m.textarea.Reset()
		if err := m.client.Stop(); err != nil {
			m.err = err
		}
		return m, nil
	}

	m.textarea.Reset()
	m.queue.EnqueueOrSend(domain.ChatMessage{
		ID:    uuid.New().String(),
		Role:  domain.RoleUser,
		Parts: []domain.MessagePart{{Type: "text", Text: v}},
	})
	m.rebuildView()
	return m, nil
}

// rebuildView re-renders the conversation into the viewport and refreshes
// the key-bound action list from the most recent tool component.
func (m *appModel) rebuildView() {
	var sb strings.Builder
	var latestActions []genui.BoundAction

	for _, e := range m.entries {
		switch {
		case e.Role == domain.RoleUser && e.ContentType == domain.ContentTypeText:
			sb.WriteString(userStyle.Render("You: "))
			sb.WriteString("\n")
			sb.WriteString(e.Content)
			sb.WriteString("\n")

		case e.Role == domain.RoleAssistant && e.ContentType == domain.ContentTypeText:
			sb.WriteString(senderStyle.Render("Assistant: "))
			sb.WriteString("\n")
			sb.WriteString(m.renderMarkdown(e.Content))
			sb.WriteString("\n")

		case e.ContentType == domain.ContentTypeToolCall:
			var tc domain.ToolCall
			if err := json.Unmarshal([]byte(e.Content), &tc); err != nil {
				continue
			}
			inv := m.invocations[tc.ID]
			if inv == nil {
				inv = &domain.ToolInvocation{
					ToolID:     tc.Name,
					ToolCallID: tc.ID,
					State:      domain.ToolStateInputAvailable,
					Input:      tc.Input,
				}
			}
			rendered := m.registry.Render(*inv)
			if rendered.Empty() {
				continue
			}
			sb.WriteString(rendered.View)
			sb.WriteString("\n")
			latestActions = rendered.Actions

		case e.Role == domain.RoleCompactionSummary:
			sb.WriteString(statusStyle.Render("— earlier conversation compacted —"))
			sb.WriteString("\n")
		}
		// Tool result entries are folded into the invocation rendered at
		// the call site, so they produce no output of their own.
	}

	// Cap at what the digit keys can address.
	if len(latestActions) > 9 {
		latestActions = latestActions[:9]
	}
	for i := range latestActions {
		latestActions[i].Key = fmt.Sprintf("%d", i+1)
	}
	m.actions = latestActions

	m.viewport.SetContent(sb.String())
	m.viewport.GotoBottom()
}

func (m *appModel) renderMarkdown(raw string) string {
	if m.renderer == nil {
		return raw
	}
	rendered, err := m.renderer.Render(raw)
	if err != nil {
		return raw
	}
	return rendered
}

func (m appModel) View() string {
	header := titleStyle.Render("Calendar Assistant")
	if cal := m.state.ActiveCalendar(); cal != "" {
		header += statusStyle.Render("  calendar: " + cal)
	}

	statusLine := statusStyle.Render(fmt.Sprintf("status: %s", m.status))
	if pending := m.queue.Pending(); pending != "" {
		statusLine += "  " + pendingStyle.Render(fmt.Sprintf("queued: %q", pending))
	}
	if len(m.actions) > 0 {
		var hints []string
		for _, a := range m.actions {
			hints = append(hints, actionKeyStyle.Render("["+a.Key+"]")+" "+a.Label)
		}
		statusLine += "\n" + statusStyle.Render(strings.Join(hints, "  "))
	}

	var errorView string
	if m.err != nil {
		errorView = errorStyle.Width(m.width).Render(fmt.Sprintf("Error: %v", m.err))
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		m.viewport.View(),
		statusLine,
		errorView,
		m.textarea.View(),
	)
}

// --- server API ---

func listModels(baseURL string) ([]domain.Model, error) {
	resp, err := http.Get(baseURL + "/api/models")
	if err != nil {
		return nil, fmt.Errorf("listing models: %w", err)
	}
	defer resp.Body.Close()

	var models []domain.Model
	if err := json.NewDecoder(resp.Body).Decode(&models); err != nil {
		return nil, fmt.Errorf("decoding models: %w", err)
	}
	return models, nil
}

func createSession(baseURL, modelName string) (domain.Session, error) {
	body, _ := json.Marshal(map[string]string{"model": modelName})
	resp, err := http.Post(baseURL+"/api/sessions", "application/json", bytes.NewReader(body))
	if err != nil {
		return domain.Session{}, fmt.Errorf("creating session: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return domain.Session{}, fmt.Errorf("creating session: unexpected status %s", resp.Status)
	}

	var sess domain.Session
	if err := json.NewDecoder(resp.Body).Decode(&sess); err != nil {
		return domain.Session{}, fmt.Errorf("decoding session: %w", err)
	}
	return sess, nil
}

func main() {
	godotenv.Load()

	// The TUI owns the terminal, so logs go to a file.
	f, err := os.OpenFile("chat-cli.log", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		fmt.Println("fatal:", err)
		os.Exit(1)
	}
	defer f.Close()
	slog.SetDefault(slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug})))

	baseURL := os.Getenv("CALENDAR_CHAT_SERVER")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	modelName := os.Getenv("CALENDAR_CHAT_MODEL")
	if modelName == "" {
		models, err := listModels(baseURL)
		if err != nil {
			fmt.Println("Error:", err)
			os.Exit(1)
		}
		if len(models) == 0 {
			fmt.Println("Error: server reports no available models")
			os.Exit(1)
		}
		modelName = models[0].ID
	}

	sess, err := createSession(baseURL, modelName)
	if err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}

	wsURL := strings.Replace(baseURL, "http", "ws", 1) + "/api/sessions/" + sess.ID + "/chat"
	client, err := chat.Dial(context.Background(), wsURL)
	if err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
	defer client.Close()

	queue := chat.NewSendQueue(client)
	client.OnStatusChange(queue.OnStatus)

	state := &clientState{queue: queue}
	registry := genui.NewRegistry()
	registerCalendarComponents(registry, state.handleAction)

	p := tea.NewProgram(initialModel(client, queue, registry, state, sess))
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}
