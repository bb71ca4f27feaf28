package export

import (
	"fmt"
	"io"
	"time"

	"councilchat/internal/transcript"
)

// Exporter writes a conversation in one output format.
type Exporter interface {
	Export(doc Document, w io.Writer) error
	Extension() string
}

// NewExporter creates a new exporter based on format
func NewExporter(format string) (Exporter, error) {
	switch format {
	case "md", "markdown":
		return &MarkdownExporter{}, nil
	case "yaml", "yml":
		return &YAMLExporter{}, nil
	case "json":
		return &JSONExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: json, yaml, md)", format)
	}
}

// Document is the decoded, export-friendly view of a conversation. Stage
// payloads that do not match the council shapes are kept as raw text.
type Document struct {
	ID           string `json:"id" yaml:"id"`
	Title        string `json:"title,omitempty" yaml:"title,omitempty"`
	CreatedAt    string `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	SystemPrompt string `json:"system_prompt,omitempty" yaml:"system_prompt,omitempty"`
	TemplateID   string `json:"template_id,omitempty" yaml:"template_id,omitempty"`
	Turns        []Turn `json:"turns" yaml:"turns"`
}

// Turn is one user question and the council's answer to it.
type Turn struct {
	Question string                     `json:"question" yaml:"question"`
	Stage1   []transcript.ModelResponse `json:"stage1,omitempty" yaml:"stage1,omitempty"`
	Stage2   []transcript.Ranking       `json:"stage2,omitempty" yaml:"stage2,omitempty"`
	Rankings []transcript.AggregateRank `json:"aggregate_rankings,omitempty" yaml:"aggregate_rankings,omitempty"`
	Final    *transcript.ModelResponse  `json:"final,omitempty" yaml:"final,omitempty"`
	Raw      map[string]string          `json:"raw,omitempty" yaml:"raw,omitempty"`
}

// NewDocument pairs each user message with the assistant message that follows
// it. An assistant message without a preceding question gets an empty one.
func NewDocument(conv transcript.Conversation) Document {
	doc := Document{
		ID:           conv.ID,
		Title:        conv.Title,
		SystemPrompt: conv.SystemPrompt,
		TemplateID:   conv.TemplateID,
		Turns:        []Turn{},
	}
	if !conv.CreatedAt.IsZero() {
		doc.CreatedAt = conv.CreatedAt.UTC().Format(time.RFC3339)
	}

	open := -1
	for _, msg := range conv.Messages {
		switch msg.Role {
		case transcript.RoleUser:
			doc.Turns = append(doc.Turns, Turn{Question: msg.Content})
			open = len(doc.Turns) - 1
		case transcript.RoleAssistant:
			if open < 0 {
				doc.Turns = append(doc.Turns, Turn{})
				open = len(doc.Turns) - 1
			}
			fillTurn(&doc.Turns[open], msg)
			open = -1
		}
	}
	return doc
}

func fillTurn(turn *Turn, msg transcript.Message) {
	raw := func(key string, payload []byte) {
		if turn.Raw == nil {
			turn.Raw = map[string]string{}
		}
		turn.Raw[key] = string(payload)
	}
	if msg.Stage1 != nil {
		if v, err := transcript.DecodeStage1(msg.Stage1); err == nil {
			turn.Stage1 = v
		} else {
			raw("stage1", msg.Stage1)
		}
	}
	if msg.Stage2 != nil {
		if v, err := transcript.DecodeStage2(msg.Stage2); err == nil {
			turn.Stage2 = v
		} else {
			raw("stage2", msg.Stage2)
		}
	}
	if msg.Metadata != nil {
		if v, err := transcript.DecodeMetadata(msg.Metadata); err == nil {
			turn.Rankings = v.AggregateRankings
		} else {
			raw("metadata", msg.Metadata)
		}
	}
	if msg.Stage3 != nil {
		if v, err := transcript.DecodeStage3(msg.Stage3); err == nil {
			turn.Final = &v
		} else {
			raw("stage3", msg.Stage3)
		}
	}
}
