package docker

import (
	"context"
	"fmt"
	"net"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"

	"github.com/cuemby/dockerdns/pkg/types"
)

const (
	// DefaultSocketPath is the default Docker Engine socket
	DefaultSocketPath = "/var/run/docker.sock"
)

// Provider returns the runtime's current container inventory. Implementations
// may block on I/O and must honor context cancellation where they can.
type Provider interface {
	ListInventory(ctx context.Context) ([]types.ContainerNetwork, error)
}

// Client implements Provider against the Docker Engine API over a unix socket.
type Client struct {
	cli *client.Client
}

// New creates a new Docker Engine client. The connection is lazy; call Ping
// to verify the daemon is reachable.
func New(socketPath string) (*Client, error) {
	if socketPath == "" {
		socketPath = DefaultSocketPath
	}

	host := socketPath
	if !strings.Contains(host, "://") {
		host = "unix://" + host
	}

	cli, err := client.NewClientWithOpts(
		client.WithHost(host),
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client for %s: %w", socketPath, err)
	}

	return &Client{cli: cli}, nil
}

// Ping verifies connectivity with the Docker daemon.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.cli.Ping(ctx); err != nil {
		return fmt.Errorf("failed to reach docker daemon: %w", err)
	}
	return nil
}

// Close closes the underlying client connection.
func (c *Client) Close() error {
	if c.cli != nil {
		return c.cli.Close()
	}
	return nil
}

// ListInventory lists running containers and extracts their names and
// addresses. Containers without any address are filtered out.
func (c *Client) ListInventory(ctx context.Context) ([]types.ContainerNetwork, error) {
	summaries, err := c.cli.ContainerList(ctx, container.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}

	var records []types.ContainerNetwork
	for _, summary := range summaries {
		record := types.ContainerNetwork{
			Names: containerNames(summary.Names),
		}
		record.IPv4, record.IPv6 = containerAddresses(summary)

		if record.HasAddresses() {
			records = append(records, record)
		}
	}

	return records, nil
}

// containerNames strips the Engine's leading path separator from each name.
// No other rewriting happens here; the resolver owns case folding.
func containerNames(names []string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, strings.TrimPrefix(name, "/"))
	}
	return out
}

// containerAddresses collects the per-network IPv4 and IPv6 addresses of a
// container, skipping empty and unparseable entries.
func containerAddresses(summary container.Summary) (ipv4 []net.IP, ipv6 []net.IP) {
	if summary.NetworkSettings == nil {
		return nil, nil
	}

	for _, endpoint := range summary.NetworkSettings.Networks {
		if endpoint == nil {
			continue
		}
		if ip := parseIPv4(endpoint.IPAddress); ip != nil {
			ipv4 = append(ipv4, ip)
		}
		if ip := parseIPv6(endpoint.GlobalIPv6Address); ip != nil {
			ipv6 = append(ipv6, ip)
		}
	}

	return ipv4, ipv6
}

func parseIPv4(s string) net.IP {
	if s == "" {
		return nil
	}
	ip := net.ParseIP(s)
	if ip == nil {
		return nil
	}
	return ip.To4()
}

func parseIPv6(s string) net.IP {
	if s == "" {
		return nil
	}
	ip := net.ParseIP(s)
	if ip == nil || ip.To4() != nil {
		return nil
	}
	return ip
}
