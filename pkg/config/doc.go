// Package config loads and validates the dockerdns configuration. Values come
// from a YAML file (--config) layered over defaults; CLI flags override both
// in cmd/dockerdns. Validation runs once at startup and is fatal on error.
package config
