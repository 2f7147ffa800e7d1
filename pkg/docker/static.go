package docker

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/cuemby/dockerdns/pkg/types"
)

// Static is a fixed in-memory Provider. It backs tests and static
// deployments where the name set is known up front.
type Static struct {
	Records []types.ContainerNetwork
	Err     error         // returned from every call when set
	Delay   time.Duration // simulated per-call latency

	calls atomic.Int64
}

// ListInventory returns the configured records.
func (s *Static) ListInventory(ctx context.Context) ([]types.ContainerNetwork, error) {
	s.calls.Add(1)

	if s.Delay > 0 {
		select {
		case <-time.After(s.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if s.Err != nil {
		return nil, s.Err
	}
	return s.Records, nil
}

// Calls reports how many times ListInventory has been invoked.
func (s *Static) Calls() int64 {
	return s.calls.Load()
}
