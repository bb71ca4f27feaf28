// Package tui is the interactive council client: a Bubble Tea program that
// owns the conversation list, the active transcript and the busy flag, and
// folds stream updates into the transcript on its single Update goroutine.
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"councilchat/internal/api"
	"councilchat/internal/guard"
	"councilchat/internal/session"
	"councilchat/internal/transcript"
)

const (
	maxLogLines      = 50
	timelineMaxLines = 40
	timelineMaxChars = 4000
)

// Backend is everything the view needs from the council service.
type Backend interface {
	session.Streamer
	ListConversations(ctx context.Context) ([]transcript.Summary, error)
	CreateConversation(ctx context.Context, req api.CreateRequest) (transcript.Conversation, error)
	GetConversation(ctx context.Context, id string) (transcript.Conversation, error)
	ListStarterQuestions(ctx context.Context) ([]api.StarterQuestion, error)
	GetStarterQuestion(ctx context.Context, id string) (string, error)
	ListTemplates(ctx context.Context) ([]api.Template, error)
	GetTemplate(ctx context.Context, id string) (string, error)
}

type Options struct {
	Backend Backend
	Logger  *logrus.Entry
	// Context bounds every request and stream the program starts.
	Context context.Context
}

type tabID int

const (
	tabChat tabID = iota
	tabConversations
	tabPrompts
	tabStarters
	tabHelp
	tabCount
)

// promptConfig is applied to conversations created from the view.
type promptConfig struct {
	TemplateID   string
	SystemPrompt string
}

type Model struct {
	ctx        context.Context
	backend    Backend
	controller *session.Controller
	logger     *logrus.Entry

	conversations []transcript.Summary
	activeID      string
	transcript    transcript.Transcript
	busy          bool
	prompt        promptConfig
	starters      []api.StarterQuestion
	templates     []api.Template
	switchGuard   guard.SwitchGuard
	stream        *session.Stream
	loadingID     string

	// streamTranscript is what the current stream folds into, including while
	// its conversation is off screen.
	streamTranscript transcript.Transcript

	statusLine    string
	logs          []string
	activeTab     tabID
	listIndex     int
	templateIndex int
	starterIndex  int
	quitConfirm   bool

	width  int
	height int

	input    textinput.Model
	timeline viewport.Model
	spinner  spinner.Model

	theme uiTheme
}

type conversationsLoadedMsg struct {
	conversations []transcript.Summary
	err           error
}

type conversationLoadedMsg struct {
	id           string
	conversation transcript.Conversation
	err          error
}

type conversationCreatedMsg struct {
	conversation transcript.Conversation
	err          error
}

type startersLoadedMsg struct {
	starters []api.StarterQuestion
	err      error
}

type templatesLoadedMsg struct {
	templates []api.Template
	err       error
}

type templateLoadedMsg struct {
	id     string
	prompt string
	err    error
}

// starterReadyMsg carries everything the starter flow fetched before it can
// seed the new conversation and open the stream.
type starterReadyMsg struct {
	question     api.StarterQuestion
	prompt       string
	conversation transcript.Conversation
	err          error
}

type streamUpdateMsg struct {
	stream *session.Stream
	update session.Update
}

type streamClosedMsg struct {
	streamID string
}

func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opts.Logger
	if logger == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		logger = logrus.NewEntry(l)
	}

	input := textinput.New()
	input.Prompt = "❯ "
	input.CharLimit = 8000
	input.Placeholder = "Ask the council. Ctrl+N starts a new conversation."
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Points
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#05ffa1"))

	timeline := viewport.New(0, 0)
	timeline.MouseWheelEnabled = true
	timeline.MouseWheelDelta = 4

	return Model{
		ctx:        ctx,
		backend:    opts.Backend,
		controller: session.NewController(opts.Backend, logger),
		logger:     logger.WithField("component", "tui"),
		prompt:     promptConfig{TemplateID: "blank"},
		statusLine: "starting...",
		logs:       []string{},
		activeTab:  tabChat,
		input:      input,
		timeline:   timeline,
		spinner:    sp,
		theme:      newTheme(),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		textinput.Blink,
		m.loadConversationsCmd(),
		m.loadStartersCmd(),
		m.loadTemplatesCmd(),
	)
}

// ActiveID returns the conversation currently on screen.
func (m Model) ActiveID() string {
	return m.activeID
}

// Busy reports whether a send or starter flow is in flight.
func (m Model) Busy() bool {
	return m.busy
}

