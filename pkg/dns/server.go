package dns

import (
	"context"
	"fmt"
	"sync"

	"github.com/miekg/dns"

	"github.com/cuemby/dockerdns/pkg/log"
	"github.com/cuemby/dockerdns/pkg/metrics"
)

const (
	// DefaultListenAddr answers on the classic DNS port on all interfaces.
	DefaultListenAddr = "0.0.0.0:53"
)

// Server binds a UDP socket and dispatches incoming datagrams into the
// handler. Handler invocations run concurrently, one per datagram.
type Server struct {
	handler    *Handler
	dnsServer  *dns.Server
	listenAddr string
	mu         sync.RWMutex
	running    bool
}

// NewServer creates a DNS server for the given handler.
func NewServer(handler *Handler, listenAddr string) *Server {
	if listenAddr == "" {
		listenAddr = DefaultListenAddr
	}

	return &Server{
		handler:    handler,
		listenAddr: listenAddr,
	}
}

// Start binds the UDP socket and starts serving. It returns once the server
// is accepting queries, or with the bind error.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("DNS server already running")
	}
	s.running = true
	s.mu.Unlock()

	log.Logger.Info().
		Str("component", "dns").
		Str("address", s.listenAddr).
		Msg("starting DNS server")

	mux := dns.NewServeMux()
	mux.Handle(".", s.handler)

	started := make(chan struct{})
	s.dnsServer = &dns.Server{
		Addr:              s.listenAddr,
		Net:               "udp",
		Handler:           mux,
		NotifyStartedFunc: func() { close(started) },
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.dnsServer.ListenAndServe(); err != nil {
			log.Logger.Error().
				Err(err).
				Str("component", "dns").
				Msg("DNS server error")
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		return err
	case <-ctx.Done():
		return s.Stop()
	case <-started:
		metrics.UpdateComponent("dns", true, "")
		log.Logger.Info().
			Str("component", "dns").
			Str("address", s.listenAddr).
			Msg("DNS server started successfully")
		return nil
	}
}

// Stop shuts the server down, letting in-flight handlers finish.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	log.Logger.Info().
		Str("component", "dns").
		Msg("stopping DNS server")

	if s.dnsServer != nil {
		if err := s.dnsServer.Shutdown(); err != nil {
			log.Logger.Error().
				Err(err).
				Str("component", "dns").
				Msg("error stopping DNS server")
			return err
		}
	}

	s.running = false
	metrics.UpdateComponent("dns", false, "stopped")

	log.Logger.Info().
		Str("component", "dns").
		Msg("DNS server stopped")

	return nil
}

// IsRunning returns true if the DNS server is running
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}
