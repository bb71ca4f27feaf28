// Package session runs one council stream at a time against a conversation id
// that is fixed when the stream starts.
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"councilchat/internal/events"
	"councilchat/internal/transcript"
)

const updateBuffer = 64

// Streamer opens the server-push stream for one send. onEvent is invoked in
// delivery order; the call returns when the stream ends and fails on
// transport errors.
type Streamer interface {
	SendMessageStream(ctx context.Context, conversationID, content string, onEvent func(events.Event)) error
}

// Update is one item published by a running stream. Exactly one of Event, Err
// or Done is meaningful; Err and Done are always the last update.
type Update struct {
	StreamID       string
	ConversationID string
	Event          events.Event
	Err            error
	Done           bool
}

func (u Update) Final() bool {
	return u.Done || u.Err != nil
}

// Stream is the handle of one running send.
type Stream struct {
	ID             string
	ConversationID string

	updates chan Update
	cancel  context.CancelFunc
}

// Updates yields the stream's updates in order and is closed after the final one.
func (s *Stream) Updates() <-chan Update {
	return s.updates
}

// Next blocks for the next update. ok is false once the stream is drained.
func (s *Stream) Next() (Update, bool) {
	upd, ok := <-s.updates
	return upd, ok
}

// Cancel aborts the underlying request. Switching conversations does not call
// this; in-flight streams run to their own end.
func (s *Stream) Cancel() {
	if s.cancel != nil {
		s.cancel()
	}
}

// Effects is what the owner of the view state must do after folding an update.
type Effects struct {
	RefreshList bool
	ClearBusy   bool
	RolledBack  bool
	Applied     bool
	Err         error
}

type Controller struct {
	streamer Streamer
	logger   *logrus.Entry
}

func NewController(streamer Streamer, logger *logrus.Entry) *Controller {
	if logger == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		logger = logrus.NewEntry(l)
	}
	return &Controller{
		streamer: streamer,
		logger:   logger.WithField("component", "session"),
	}
}

// Start appends the optimistic {user, placeholder} pair to tr and opens the
// stream in the background. The returned transcript is ready to render before
// any network activity completes. conversationID is captured by value, so
// later changes to the caller's active conversation cannot redirect events.
func (c *Controller) Start(ctx context.Context, tr transcript.Transcript, conversationID, content string) (transcript.Transcript, *Stream) {
	seeded := tr.AppendPair(
		transcript.Message{Role: transcript.RoleUser, Content: content},
		transcript.Message{Role: transcript.RoleAssistant},
	)

	streamCtx, cancel := context.WithCancel(ctx)
	stream := &Stream{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		updates:        make(chan Update, updateBuffer),
		cancel:         cancel,
	}
	log := c.logger.WithFields(logrus.Fields{
		"stream_id":       stream.ID,
		"conversation_id": conversationID,
	})
	log.Info("stream opened")

	go func() {
		defer cancel()
		defer close(stream.updates)
		publish := func(upd Update) bool {
			upd.StreamID = stream.ID
			upd.ConversationID = conversationID
			select {
			case stream.updates <- upd:
				return true
			case <-streamCtx.Done():
				return false
			}
		}

		err := c.streamer.SendMessageStream(streamCtx, conversationID, content, func(ev events.Event) {
			log.WithField("event", ev.Type).Debug("stream event")
			publish(Update{Event: ev})
		})
		if err != nil {
			if errors.Is(err, context.Canceled) {
				log.Info("stream canceled")
			} else {
				log.WithError(err).Error("stream failed")
			}
			publish(Update{Err: fmt.Errorf("send message to %s: %w", conversationID, err)})
			return
		}
		log.Info("stream closed")
		publish(Update{Done: true})
	}()

	return seeded, stream
}

// Fold applies upd to tr. Updates that belong to a different conversation
// leave tr untouched but keep their side effects, so the busy flag still
// clears when a stream finishes off screen.
func (c *Controller) Fold(tr transcript.Transcript, upd Update) (transcript.Transcript, Effects) {
	visible := upd.ConversationID == tr.ID()
	switch {
	case upd.Err != nil:
		eff := Effects{ClearBusy: true, Err: upd.Err}
		if visible {
			rolled := tr.DropLastPair()
			eff.RolledBack = rolled.Len() != tr.Len()
			tr = rolled
		}
		return tr, eff
	case upd.Done:
		return tr, Effects{ClearBusy: true}
	}

	next := tr
	var sig events.Signal
	if visible {
		next, sig = events.Apply(tr, upd.Event)
	} else {
		_, sig = events.Apply(transcript.Transcript{}, upd.Event)
		c.logger.WithFields(logrus.Fields{
			"stream_id":       upd.StreamID,
			"conversation_id": upd.ConversationID,
			"event":           upd.Event.Type,
		}).Debug("event for inactive conversation")
	}
	if sig.OutOfOrder {
		c.logger.WithFields(logrus.Fields{
			"stream_id":       upd.StreamID,
			"conversation_id": upd.ConversationID,
			"event":           upd.Event.Type,
		}).Debug("stage result dropped; previous stage has no result")
	}
	eff := Effects{
		RefreshList: sig.RefreshList,
		ClearBusy:   sig.ClearBusy,
		Applied:     visible,
	}
	if sig.Err != "" {
		eff.Err = fmt.Errorf("council stream error: %s", sig.Err)
	}
	return next, eff
}
