package discovery

import (
	"fmt"
	"time"
)

// Endpoint represents a discovered key-grid gateway on the network
type Endpoint struct {
	// Instance is the advertised service instance name
	Instance string

	// Hostname is the mDNS hostname (e.g., "deckgw-a1b2.local")
	Hostname string

	// IP is the IPv4 address (e.g., "192.168.4.16")
	IP string

	// Port is the websocket port
	Port int

	// Metadata contains additional mDNS TXT record data
	Metadata map[string]string

	// DiscoveredAt is when the endpoint was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the endpoint
func (e *Endpoint) String() string {
	return fmt.Sprintf("Key-grid gateway %s (%s) at %s:%d", e.Instance, e.Hostname, e.IP, e.Port)
}

// Addr returns the host:port dial address for the gateway
func (e *Endpoint) Addr() string {
	return fmt.Sprintf("%s:%d", e.IP, e.Port)
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (e *Endpoint) GetMetadata(key string) string {
	if e.Metadata == nil {
		return ""
	}
	return e.Metadata[key]
}
