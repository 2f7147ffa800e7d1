package dns

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/dockerdns/pkg/docker"
	"github.com/cuemby/dockerdns/pkg/resolver"
	"github.com/cuemby/dockerdns/pkg/types"
)

// startTestServer serves the handler over a real UDP socket on an ephemeral
// loopback port and returns its address.
func startTestServer(t *testing.T, h *Handler) string {
	t.Helper()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := &dns.Server{PacketConn: pc, Handler: h}
	go srv.ActivateAndServe() //nolint:errcheck

	t.Cleanup(func() {
		srv.Shutdown() //nolint:errcheck
	})

	return pc.LocalAddr().String()
}

func TestServerRoundTrip(t *testing.T) {
	provider := &docker.Static{Records: []types.ContainerNetwork{
		{
			Names: []string{"web"},
			IPv4:  []net.IP{net.IPv4(10, 0, 0, 1).To4()},
		},
	}}
	cache := resolver.NewCache(provider, resolver.Config{
		HitTimeout:     time.Minute,
		MissTimeout:    time.Second,
		RefreshTimeout: time.Second,
	})
	addr := startTestServer(t, NewHandler(cache, ".docker", 60))

	client := &dns.Client{Net: "udp", Timeout: 2 * time.Second}

	// Positive answer inside the suffix.
	req := new(dns.Msg)
	req.SetQuestion("web.docker.", dns.TypeA)
	resp, _, err := client.Exchange(req, addr)
	require.NoError(t, err)
	assert.Equal(t, dns.RcodeSuccess, resp.Rcode)
	assert.True(t, resp.Authoritative)
	require.Len(t, resp.Answer, 1)
	a, ok := resp.Answer[0].(*dns.A)
	require.True(t, ok)
	assert.True(t, a.A.Equal(net.IPv4(10, 0, 0, 1)))
	assert.EqualValues(t, 60, a.Hdr.Ttl)

	// Outside the suffix.
	req = new(dns.Msg)
	req.SetQuestion("web.", dns.TypeA)
	resp, _, err = client.Exchange(req, addr)
	require.NoError(t, err)
	assert.Equal(t, dns.RcodeRefused, resp.Rcode)
	assert.Empty(t, resp.Answer)

	// Unknown name inside the suffix.
	req = new(dns.Msg)
	req.SetQuestion("nope.docker.", dns.TypeA)
	resp, _, err = client.Exchange(req, addr)
	require.NoError(t, err)
	assert.Equal(t, dns.RcodeNameError, resp.Rcode)
	assert.Empty(t, resp.Answer)
}

func TestServerStartStop(t *testing.T) {
	provider := &docker.Static{}
	cache := resolver.NewCache(provider, resolver.Config{
		HitTimeout:     time.Minute,
		MissTimeout:    time.Second,
		RefreshTimeout: time.Second,
	})
	server := NewServer(NewHandler(cache, "", 0), "127.0.0.1:0")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, server.Start(ctx))
	assert.True(t, server.IsRunning())

	require.NoError(t, server.Stop())
	assert.False(t, server.IsRunning())

	// Stopping twice is a no-op.
	require.NoError(t, server.Stop())
}

func TestNewServerDefaults(t *testing.T) {
	server := NewServer(nil, "")
	assert.Equal(t, DefaultListenAddr, server.listenAddr)
}
