// Package guard holds the one-shot gate that stops a conversation-detail fetch
// from overwriting a transcript the client has just seeded locally.
package guard

// SwitchGuard is a one-shot gate. The zero value is lowered.
type SwitchGuard struct {
	suppressNextFetch bool
}

// Raise arms the gate for exactly one subsequent Consume.
func (g *SwitchGuard) Raise() {
	g.suppressNextFetch = true
}

// Consume reads and resets the gate. It returns true when the caller must
// skip the fetch it is about to make.
func (g *SwitchGuard) Consume() bool {
	skip := g.suppressNextFetch
	g.suppressNextFetch = false
	return skip
}

// Raised reports the gate state without consuming it.
func (g SwitchGuard) Raised() bool {
	return g.suppressNextFetch
}
