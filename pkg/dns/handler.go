package dns

import (
	"context"
	"strings"

	"github.com/miekg/dns"
	"github.com/rs/zerolog"

	"github.com/cuemby/dockerdns/pkg/config"
	"github.com/cuemby/dockerdns/pkg/log"
	"github.com/cuemby/dockerdns/pkg/metrics"
	"github.com/cuemby/dockerdns/pkg/resolver"
	"github.com/cuemby/dockerdns/pkg/types"
)

const (
	// maxUDPSize is the classic DNS UDP payload limit.
	maxUDPSize = 512

	// fixedOverhead approximates the 12-byte header plus the question's
	// fixed fields; the question name length is added per query.
	fixedOverhead = 50

	// Per-record wire size estimates, assuming a compressed name pointer.
	recordSizeA    = 16
	recordSizeAAAA = 28
)

// Handler turns one parsed DNS query into one response, consulting the
// resolver. It implements dns.Handler.
type Handler struct {
	resolver resolver.Resolver
	suffix   string // empty, or lower-case with a leading dot
	ttl      uint32
	logger   zerolog.Logger
}

// NewHandler creates a query handler. A non-empty suffix limits the server's
// authority to names below it; it is normalized to begin with a dot.
func NewHandler(res resolver.Resolver, suffix string, ttl uint32) *Handler {
	return &Handler{
		resolver: res,
		suffix:   config.NormalizeSuffix(suffix),
		ttl:      ttl,
		logger:   log.WithComponent("dns.handler"),
	}
}

// ServeDNS implements dns.Handler. Messages that are themselves responses
// are dropped without a reply; every query gets a well-formed response, and
// resolver failures never surface as SERVFAIL.
func (h *Handler) ServeDNS(w dns.ResponseWriter, req *dns.Msg) {
	if req.Response {
		metrics.DroppedDatagrams.Inc()
		h.logger.Debug().
			Str("remote", w.RemoteAddr().String()).
			Msg("dropping response-type message")
		return
	}

	timer := metrics.NewTimer()

	msg := new(dns.Msg)
	msg.SetReply(req)
	// The size estimates below assume compressed name pointers.
	msg.Compress = true

	if len(req.Question) == 0 {
		msg.Rcode = dns.RcodeFormatError
		h.send(w, msg, "", dns.TypeNone)
		return
	}

	q := req.Question[0]
	name := resolver.Normalize(q.Name)

	key, ok := h.matchSuffix(name)
	if !ok {
		msg.Rcode = dns.RcodeRefused
		h.send(w, msg, q.Name, q.Qtype)
		return
	}

	resp, found := h.resolver.Resolve(context.Background(), key)

	switch {
	case q.Qtype != dns.TypeA && q.Qtype != dns.TypeAAAA:
		// Unsupported query types get an empty NoError answer, never
		// NXDomain, even when the name would not resolve.
		msg.Authoritative = found
	case !found:
		msg.Rcode = dns.RcodeNameError
	default:
		msg.Authoritative = true
		msg.Answer = h.answers(q, resp)
	}

	h.send(w, msg, q.Name, q.Qtype)

	timer.ObserveDuration(metrics.QueryDuration)
}

// matchSuffix applies the suffix authority rule to a normalized name. With
// no suffix configured every name is accepted as-is. Otherwise the name must
// end with the suffix and keep a non-empty remainder once it is stripped.
func (h *Handler) matchSuffix(name string) (string, bool) {
	if h.suffix == "" {
		return name, true
	}
	if !strings.HasSuffix(name, h.suffix) || len(name) == len(h.suffix) {
		return "", false
	}
	return strings.TrimSuffix(name, h.suffix), true
}

// answers builds the answer section for a resolved A or AAAA query: one A
// record per IPv4 address, one AAAA record per IPv6 address. Records reuse
// the question name verbatim and carry the configured TTL.
//
// The section is capped so the encoded response stays within the classic
// 512-byte UDP limit; once the next record would overflow, the rest are
// dropped and a warning is logged. The TC bit is deliberately not set.
func (h *Handler) answers(q dns.Question, resp *types.Response) []dns.RR {
	budget := maxUDPSize - fixedOverhead - len(q.Name)

	var answers []dns.RR
	dropped := 0

	switch q.Qtype {
	case dns.TypeA:
		for i, ip := range resp.IPv4 {
			if budget < recordSizeA {
				dropped = len(resp.IPv4) - i
				break
			}
			budget -= recordSizeA
			answers = append(answers, &dns.A{
				Hdr: dns.RR_Header{
					Name:   q.Name,
					Rrtype: dns.TypeA,
					Class:  dns.ClassINET,
					Ttl:    h.ttl,
				},
				A: ip,
			})
		}
	case dns.TypeAAAA:
		for i, ip := range resp.IPv6 {
			if budget < recordSizeAAAA {
				dropped = len(resp.IPv6) - i
				break
			}
			budget -= recordSizeAAAA
			answers = append(answers, &dns.AAAA{
				Hdr: dns.RR_Header{
					Name:   q.Name,
					Rrtype: dns.TypeAAAA,
					Class:  dns.ClassINET,
					Ttl:    h.ttl,
				},
				AAAA: ip,
			})
		}
	}

	if dropped > 0 {
		metrics.AnswersTruncated.Inc()
		h.logger.Warn().
			Str("domain", q.Name).
			Int("included", len(answers)).
			Int("dropped", dropped).
			Msg("answer section truncated to fit UDP size limit")
	}

	return answers
}

// send writes the response and records the query metric. Write failures are
// logged and otherwise ignored; DNS clients retry.
func (h *Handler) send(w dns.ResponseWriter, msg *dns.Msg, domain string, qtype uint16) {
	metrics.QueriesTotal.WithLabelValues(typeString(qtype), dns.RcodeToString[msg.Rcode]).Inc()

	if err := w.WriteMsg(msg); err != nil {
		h.logger.Error().
			Err(err).
			Str("domain", domain).
			Msg("failed to write DNS response")
	}
}

func typeString(qtype uint16) string {
	if s, ok := dns.TypeToString[qtype]; ok {
		return s
	}
	return dns.Type(qtype).String()
}
