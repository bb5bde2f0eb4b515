package gateway

import "context"

// EventKind identifies a notification pushed by the key-grid gateway.
type EventKind int

const (
	// EventDeviceAttached reports that a physical device is available.
	EventDeviceAttached EventKind = iota
	// EventDeviceDetached reports that the device went away.
	EventDeviceDetached
	// EventProfileChanged reports the profile the device is currently on.
	EventProfileChanged
	// EventKeyAppeared reports that one virtual key of the managed
	// profile became available on the device.
	EventKeyAppeared
	// EventKeyDisappeared reports that a virtual key went away.
	EventKeyDisappeared
	// EventKeyDown reports a physical key press.
	EventKeyDown
	// EventKeyUp reports a physical key release.
	EventKeyUp
)

// String returns a human-readable name for the event kind
func (k EventKind) String() string {
	switch k {
	case EventDeviceAttached:
		return "device_attached"
	case EventDeviceDetached:
		return "device_detached"
	case EventProfileChanged:
		return "profile_changed"
	case EventKeyAppeared:
		return "key_appeared"
	case EventKeyDisappeared:
		return "key_disappeared"
	case EventKeyDown:
		return "key_down"
	case EventKeyUp:
		return "key_up"
	default:
		return "unknown"
	}
}

// Event is one asynchronous gateway notification. Which fields are
// meaningful depends on Kind. Events arrive unordered relative to
// commands sent the other way.
type Event struct {
	Kind     EventKind
	DeviceID string
	Profile  string
	Row      int
	Col      int
}

// Gateway is the hardware-facing collaborator: it relays commands to the
// vendor key-grid service and surfaces the service's notifications. The
// reconciliation controller is its only caller.
type Gateway interface {
	// Connect establishes the connection to the gateway service.
	Connect(ctx context.Context) error

	// Close tears the connection down. Safe to call more than once.
	Close() error

	// Events returns the notification stream. The channel is closed
	// after the connection is lost and the final detach event has been
	// delivered.
	Events() <-chan Event

	// SwitchProfile asks the device to change to the named profile.
	SwitchProfile(name string) error

	// SetKey sets the title and image of one key of the managed profile.
	SetKey(row, col int, title string, image []byte) error

	// ClearKey blanks one key of the managed profile.
	ClearKey(row, col int) error
}
