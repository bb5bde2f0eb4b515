// Package discovery locates key-grid gateways on the local network via
// mDNS/DNS-SD. Gateways advertise a _deckgw._tcp service; the daemon uses
// FindFirst when no gateway address is configured.
package discovery
