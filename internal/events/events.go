package events

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/tidwall/gjson"
)

type Type string

const (
	Stage1Start    Type = "stage1_start"
	Stage1Complete Type = "stage1_complete"
	Stage2Start    Type = "stage2_start"
	Stage2Complete Type = "stage2_complete"
	Stage3Start    Type = "stage3_start"
	Stage3Complete Type = "stage3_complete"
	TitleComplete  Type = "title_complete"
	Complete       Type = "complete"
	Error          Type = "error"
)

// Event is one server-pushed frame of a council stream.
type Event struct {
	Type     Type            `json:"type"`
	Data     json.RawMessage `json:"data,omitempty"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
	Message  string          `json:"message,omitempty"`
}

// Terminal reports whether the event ends the stream from the client's view.
func (e Event) Terminal() bool {
	return e.Type == Complete || e.Type == Error
}

var ErrMissingType = errors.New("event frame has no type")

// Decode parses the JSON payload of one SSE data line.
func Decode(payload []byte) (Event, error) {
	if !gjson.ValidBytes(payload) {
		return Event{}, errors.New("event frame is not valid json")
	}
	parsed := gjson.ParseBytes(payload)
	kind := strings.TrimSpace(parsed.Get("type").String())
	if kind == "" {
		return Event{}, ErrMissingType
	}
	ev := Event{Type: Type(kind)}
	if data := parsed.Get("data"); data.Exists() && data.Type != gjson.Null {
		ev.Data = json.RawMessage(data.Raw)
	}
	if meta := parsed.Get("metadata"); meta.Exists() && meta.Type != gjson.Null {
		ev.Metadata = json.RawMessage(meta.Raw)
	}
	if msg := parsed.Get("message"); msg.Exists() {
		ev.Message = msg.String()
	}
	return ev, nil
}
