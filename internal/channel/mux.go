package channel

import "edobot/internal/domain"

// Mux picks the messenger for a delivery's transport. Unregistered transports
// fall back to the default messenger, so adapters that relay someone else's
// traffic (Twilio) still get their replies sent somewhere sensible.
type Mux struct {
	byName map[string]domain.Messenger
	def    domain.Messenger
}

func NewMux(def domain.Messenger) *Mux {
	return &Mux{
		byName: make(map[string]domain.Messenger),
		def:    def,
	}
}

// Register binds a transport name to a messenger. Not safe for concurrent use
// with For; wiring happens once at startup.
func (m *Mux) Register(transport string, ms domain.Messenger) {
	m.byName[transport] = ms
}

func (m *Mux) For(transport string) domain.Messenger {
	if ms, ok := m.byName[transport]; ok {
		return ms
	}
	return m.def
}
