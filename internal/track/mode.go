package track

import "github.com/dstreuter/zeitlog/internal/api"

// Mode selects which backend the adapter drives. The zero value is local
// operation, matching the preference default when nothing is persisted.
type Mode int

const (
	// ModeLocalOnly runs the state machine against the local store.
	ModeLocalOnly Mode = iota
	// ModeNetworked talks to the authoritative server.
	ModeNetworked
)

func (m Mode) String() string {
	if m == ModeNetworked {
		return "networked"
	}
	return "local"
}

// nextMode is the pure fallback transition: a transport failure while
// networked flips to local, permanently. Nothing else changes the mode
// automatically; returning to the network takes an explicit user action.
func nextMode(m Mode, err error) Mode {
	if m == ModeNetworked && api.IsTransport(err) {
		return ModeLocalOnly
	}
	return m
}
