package events

import (
	"councilchat/internal/transcript"
)

// Signal is the side effect an event asks of whoever owns the view state.
type Signal struct {
	RefreshList bool
	ClearBusy   bool
	Err         string
	// OutOfOrder is set when a stage result was dropped because the stage
	// before it has no result yet.
	OutOfOrder bool
}

// Apply folds ev into tr. It never fails: unknown event types and events that
// arrive when tr has no pending placeholder return tr unchanged.
func Apply(tr transcript.Transcript, ev Event) (transcript.Transcript, Signal) {
	switch ev.Type {
	case Stage1Start:
		return tr.MutateLastAssistant(func(m *transcript.Message) { m.Loading.Stage1 = true }), Signal{}
	case Stage1Complete:
		return tr.MutateLastAssistant(func(m *transcript.Message) {
			if ev.Data != nil {
				m.Stage1 = ev.Data
			}
			m.Loading.Stage1 = false
		}), Signal{}
	case Stage2Start:
		return tr.MutateLastAssistant(func(m *transcript.Message) { m.Loading.Stage2 = true }), Signal{}
	case Stage2Complete:
		var sig Signal
		next := tr.MutateLastAssistant(func(m *transcript.Message) {
			switch {
			case ev.Data == nil:
			case m.Stage1 == nil:
				sig.OutOfOrder = true
			default:
				m.Stage2 = ev.Data
				if ev.Metadata != nil {
					m.Metadata = ev.Metadata
				}
			}
			m.Loading.Stage2 = false
		})
		return next, sig
	case Stage3Start:
		return tr.MutateLastAssistant(func(m *transcript.Message) { m.Loading.Stage3 = true }), Signal{}
	case Stage3Complete:
		var sig Signal
		next := tr.MutateLastAssistant(func(m *transcript.Message) {
			switch {
			case ev.Data == nil:
			case m.Stage2 == nil:
				sig.OutOfOrder = true
			default:
				m.Stage3 = ev.Data
			}
			m.Loading.Stage3 = false
		})
		return next, sig
	case TitleComplete:
		return tr, Signal{RefreshList: true}
	case Complete:
		return tr, Signal{RefreshList: true, ClearBusy: true}
	case Error:
		msg := ev.Message
		if msg == "" {
			msg = "stream reported an error"
		}
		return tr, Signal{ClearBusy: true, Err: msg}
	default:
		return tr, Signal{}
	}
}
