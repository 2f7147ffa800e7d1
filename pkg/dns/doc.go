/*
Package dns implements the authoritative DNS front end of dockerdns.

The Server binds a UDP socket through miekg/dns and dispatches each datagram
into the Handler. One query flows through four steps:

 1. Normalize the question name (lower-case, trailing dot stripped).
 2. Apply the suffix authority rule: with a suffix configured (".docker"),
    names outside it are refused; the suffix is stripped before lookup.
 3. Resolve the remaining name against the container inventory cache.
 4. Synthesize the response: A records for the container's IPv4 addresses,
    AAAA records for its IPv6 addresses, capped to the classic 512-byte UDP
    budget.

Response codes:

	name outside the configured suffix        REFUSED
	A/AAAA query, name not in the inventory   NXDOMAIN
	A/AAAA query, name resolved               NOERROR, AA set
	any other query type, name resolved       NOERROR, AA set, empty answers
	any other query type, name unknown        NOERROR, empty answers (no NXDOMAIN)

Messages that are themselves responses are dropped without a reply. Resolver
failures never produce SERVFAIL; the handler answers from whatever cache
generation survives.
*/
package dns
