/*
Package docker provides the container inventory for dockerdns.

The Provider interface is the seam between the resolver cache and the
container runtime: the live Client speaks the Docker Engine API over the
daemon's unix socket, while Static serves a fixed record set for tests and
static deployments.

Extraction rules for the live client:

  - container names lose the Engine's leading "/" and are otherwise untouched
  - each attached network contributes its IPAddress (IPv4) and
    GlobalIPv6Address (IPv6); empty or unparseable strings are skipped
  - containers with no address in any network are excluded from the inventory
*/
package docker
