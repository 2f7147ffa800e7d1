/*
Package resolver implements the caching name resolver at the heart of
dockerdns.

The Cache keeps one snapshot of the runtime's container inventory as a map
from normalized name (lower-case, no trailing dot) to a response record
shared by all names of the same container. Lookups classify the snapshot
along two axes:

	hit stale:  older than HitTimeout  (a present entry may not be served)
	miss stale: older than MissTimeout (a negative answer may not be served)

A fresh hit returns immediately. A fresh miss returns immediately as a
negative answer, so repeated queries for non-existent names do not hammer
the runtime. Anything staler forces a refresh first, which means a newly
created container becomes resolvable within MissTimeout.

Refreshes serialize on a dedicated refresh lock and re-check the snapshot
age after acquiring it, so a burst of concurrent queries against a stale
cache performs exactly one inventory fetch. The replacement mapping is built
outside the snapshot lock and swapped in under a brief write lock, so fresh
hits stay fast while a refresh is in flight. The fetch itself is bounded by
RefreshTimeout; on failure or timeout the previous snapshot survives and
callers are answered from it.
*/
package resolver
