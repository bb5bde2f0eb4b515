// Package gateway is the hardware-facing boundary of the Deckplane plugin.
//
// The plugin never speaks to the key-grid device directly. The vendor
// software exposes a local websocket service; this package provides the
// Gateway interface the reconciliation controller programs against and a
// gorilla/websocket client implementation of it.
//
// # Commands and Notifications
//
// Commands flow one way (plugin to gateway): switch profile, set key,
// clear key. Notifications flow the other way on a single buffered
// channel: device attach/detach, profile changes, virtual key
// appearance, and physical key up/down. Notification order is not
// guaranteed relative to command completion; the controller treats the
// stream as observations, never as acknowledgments.
//
// # Wire Format
//
// Messages are JSON objects with a "type" discriminator:
//
//	{"type":"switchProfile","profile":"deckplane"}
//	{"type":"setKey","row":0,"col":2,"title":"Next","image":"<base64 png>"}
//	{"type":"keyDown","row":0,"col":2}
//
// # Error Handling
//
// Write failures are connectivity errors and retryable: callers re-enqueue
// the failed command. Undecodable inbound messages are protocol errors,
// logged and skipped. Loss of the connection emits a final device-detached
// event and closes the event channel.
//
// # Thread Safety
//
// Command methods are safe for concurrent use; writes are serialized on
// the connection. The read loop is the only sender on the events channel.
package gateway
