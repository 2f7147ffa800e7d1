package types

import "net"

// ContainerNetwork is one container's network identity as reported by the
// runtime: its names and the addresses it holds across all attached networks.
// Records are immutable once built.
type ContainerNetwork struct {
	Names []string
	IPv4  []net.IP
	IPv6  []net.IP
}

// HasAddresses reports whether the container holds at least one address.
// Records without addresses are excluded from the inventory.
func (c ContainerNetwork) HasAddresses() bool {
	return len(c.IPv4) > 0 || len(c.IPv6) > 0
}

// Response holds the resolvable addresses for one container. Every name of
// the container references the same Response, so memory scales with
// containers rather than names.
type Response struct {
	IPv4 []net.IP
	IPv6 []net.IP
}
