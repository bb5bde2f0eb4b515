// Package server exposes the control channel: a TCP listener serving
// line-delimited protocol sessions to one controlling client at a time.
//
// A session owns all key and page state it creates. On disconnect the
// server clears the key store and page registry, deactivates the
// reconciliation controller, waits briefly, and listens again for the
// next client.
package server
