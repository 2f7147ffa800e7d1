/*
Package log provides structured logging for dockerdns.

All packages log through the global zerolog Logger, initialized once at
startup from CLI flags (and the DOCKERDNS_LOG_LEVEL environment variable).
Components attach a "component" field so related lines can be filtered:

	log.Logger.Warn().
		Str("component", "resolver").
		Err(err).
		Msg("inventory refresh failed")

Console output is the default; --log-json switches to raw JSON for log
shippers.
*/
package log
