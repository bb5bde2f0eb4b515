package reconcile

import (
	"github.com/muurk/deckplane/internal/page"
)

// DesiredState is the target configuration the controlling client wants.
// Every field is last-write-wins; there is never a queue of intents.
type DesiredState struct {
	// Active reports whether a client session owns the plugin.
	Active bool

	// Profile is the hardware profile the device should be on.
	Profile string

	// Page is the resolved page whose grid should be shown, or nil when
	// no page is active.
	Page *page.Resolved
}

// ObservedState is what the hardware has actually confirmed. It is built
// exclusively from asynchronous gateway notifications, never from client
// commands.
type ObservedState struct {
	// Connected reports whether the gateway link is up.
	Connected bool

	// DeviceID is the attached device's identifier, empty until a
	// device-attached notification arrives.
	DeviceID string

	// Profile is the profile the device last reported being on.
	Profile string

	// readyKeys tracks which virtual keys of the managed profile have
	// appeared. The grid is ready when all of them have.
	readyKeys map[page.Position]bool
}

// KeysReady reports whether every virtual key of the grid has appeared.
func (o *ObservedState) KeysReady() bool {
	return len(o.readyKeys) == page.Rows*page.Cols
}

// reset drops all observations. Used when the device detaches.
func (o *ObservedState) reset() {
	o.Connected = false
	o.DeviceID = ""
	o.Profile = ""
	o.readyKeys = make(map[page.Position]bool)
}

// Phase is the derived position in the reconciliation state machine. It
// is computed from ObservedState and DesiredState, never stored.
type Phase int

const (
	// PhaseDisconnected: no gateway link.
	PhaseDisconnected Phase = iota
	// PhaseNoDevice: gateway link up, no device attached.
	PhaseNoDevice
	// PhaseWrongProfile: device attached but not on the managed profile.
	PhaseWrongProfile
	// PhaseKeysNotReady: managed profile current, virtual keys still
	// appearing.
	PhaseKeysNotReady
	// PhaseReady: managed profile current and all keys present.
	PhaseReady
)

// String returns a human-readable name for the phase
func (p Phase) String() string {
	switch p {
	case PhaseDisconnected:
		return "disconnected"
	case PhaseNoDevice:
		return "connected/no-device"
	case PhaseWrongProfile:
		return "connected/wrong-profile"
	case PhaseKeysNotReady:
		return "connected/keys-not-ready"
	case PhaseReady:
		return "connected/ready"
	default:
		return "unknown"
	}
}
