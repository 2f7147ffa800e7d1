// Package types defines the shared data model for dockerdns: the inventory
// record handed over by the runtime provider and the response record served
// from the resolver cache.
package types
