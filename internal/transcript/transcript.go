package transcript

import (
	"encoding/json"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Loading tracks which council stages are in flight for one assistant message.
type Loading struct {
	Stage1 bool
	Stage2 bool
	Stage3 bool
}

func (l Loading) Any() bool {
	return l.Stage1 || l.Stage2 || l.Stage3
}

// Message is one transcript entry. Stage slots and Metadata hold the backend's
// payload verbatim; nil means the stage has not produced a result yet.
type Message struct {
	Role     Role            `json:"role"`
	Content  string          `json:"content,omitempty"`
	Stage1   json.RawMessage `json:"stage1,omitempty"`
	Stage2   json.RawMessage `json:"stage2,omitempty"`
	Stage3   json.RawMessage `json:"stage3,omitempty"`
	Metadata json.RawMessage `json:"metadata,omitempty"`

	Loading Loading `json:"-"`
	Pending bool    `json:"-"`
}

// IsPlaceholder reports whether m is the optimistic assistant entry of the
// turn currently being streamed.
func (m Message) IsPlaceholder() bool {
	return m.Role == RoleAssistant && m.Pending
}

// Conversation mirrors the backend's conversation detail.
type Conversation struct {
	ID           string    `json:"id"`
	CreatedAt    Timestamp `json:"created_at"`
	Title        string    `json:"title,omitempty"`
	SystemPrompt string    `json:"system_prompt,omitempty"`
	TemplateID   string    `json:"template_id,omitempty"`
	Messages     []Message `json:"messages"`
}

// Summary is the list view of a conversation.
type Summary struct {
	ID           string    `json:"id"`
	CreatedAt    Timestamp `json:"created_at"`
	MessageCount int       `json:"message_count"`
	Title        string    `json:"title,omitempty"`
}

// Transcript is an immutable snapshot of one conversation. Every operation
// returns a new value; the input's message slice is never written.
type Transcript struct {
	Conversation Conversation
}

func New(conv Conversation) Transcript {
	conv.Messages = cloneMessages(conv.Messages, 0)
	return Transcript{Conversation: conv}
}

func (t Transcript) ID() string {
	return t.Conversation.ID
}

func (t Transcript) Len() int {
	return len(t.Conversation.Messages)
}

// Messages returns a copy of the message list.
func (t Transcript) Messages() []Message {
	return cloneMessages(t.Conversation.Messages, 0)
}

// Last returns the trailing message, if any.
func (t Transcript) Last() (Message, bool) {
	msgs := t.Conversation.Messages
	if len(msgs) == 0 {
		return Message{}, false
	}
	return msgs[len(msgs)-1], true
}

// AppendPair adds the user message and its assistant placeholder as one unit.
// Earlier assistant messages lose any in-flight flags so that only the new
// placeholder can show loading state.
func (t Transcript) AppendPair(user, assistant Message) Transcript {
	msgs := cloneMessages(t.Conversation.Messages, 2)
	for i := range msgs {
		if msgs[i].Role == RoleAssistant {
			msgs[i].Loading = Loading{}
			msgs[i].Pending = false
		}
	}
	user.Role = RoleUser
	assistant.Role = RoleAssistant
	assistant.Pending = true
	msgs = append(msgs, user, assistant)
	return t.withMessages(msgs)
}

// MutateLastAssistant applies patch to a copy of the trailing placeholder. It
// returns t unchanged when there is no placeholder to patch, which is the case
// after the transcript was replaced by a conversation switch.
func (t Transcript) MutateLastAssistant(patch func(*Message)) Transcript {
	last, ok := t.Last()
	if !ok || !last.IsPlaceholder() || patch == nil {
		return t
	}
	msgs := cloneMessages(t.Conversation.Messages, 0)
	patch(&last)
	last.Role = RoleAssistant
	last.Pending = true
	msgs[len(msgs)-1] = last
	return t.withMessages(msgs)
}

// DropLastPair removes the trailing {user, placeholder} pair. Anything else at
// the tail leaves t unchanged: the pair goes as a unit or not at all.
func (t Transcript) DropLastPair() Transcript {
	msgs := t.Conversation.Messages
	n := len(msgs)
	if n < 2 || msgs[n-2].Role != RoleUser || !msgs[n-1].IsPlaceholder() {
		return t
	}
	return t.withMessages(cloneMessages(msgs[:n-2], 0))
}

func (t Transcript) withMessages(msgs []Message) Transcript {
	conv := t.Conversation
	conv.Messages = msgs
	return Transcript{Conversation: conv}
}

func cloneMessages(in []Message, extra int) []Message {
	out := make([]Message, len(in), len(in)+extra)
	copy(out, in)
	return out
}
