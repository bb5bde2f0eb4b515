// Package reconcile implements the reconciliation state machine at the
// core of the Deckplane plugin.
//
// The controller tracks two views of the world: DesiredState (what the
// controlling client asked for: active flag, target profile, target
// page) and ObservedState (what gateway notifications have confirmed:
// link up, device id, current profile, virtual key availability). The
// derived phase walks
//
//	disconnected -> connected/no-device -> connected/wrong-profile ->
//	connected/keys-not-ready -> connected/ready
//
// and is never stored, only computed.
//
// # Action Queue
//
// All device-facing work goes through a queue of idempotent, replayable
// actions. A periodic tick drains a bounded batch once a device is
// attached; a failed action is re-enqueued verbatim, so delivery is
// at-least-once. Page materializations read the desired page when they
// finally execute, which makes stale queue entries harmless under the
// last-write-wins contract.
//
// # Self-Healing
//
// When the device sits off the managed profile while the client wants it
// there, the tick re-issues the profile switch, with a cooldown between
// attempts and a bounded recovery window after which it gives up (logged
// once) and leaves the plugin otherwise functional.
//
// # Concurrency
//
// The tick and every notification handler share one exclusive mutex. The
// lock is never held across gateway writes or press-sink calls; those are
// blocking I/O and run on snapshots.
//
// # Fatal Conditions
//
// Device detach is fatal: observed state is reset and the process exits,
// relying on the hosting environment to restart the plugin.
package reconcile
