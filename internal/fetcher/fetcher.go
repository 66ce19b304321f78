package fetcher

import (
	"context"
	"errors"
	"fmt"

	"gaswatch/internal/config"
	"gaswatch/internal/model"
)

// ErrAllEndpointsFailed indicates every candidate endpoint of a network was
// exhausted for this tick. The caller treats the network as unavailable; this
// is never fatal to the process.
var ErrAllEndpointsFailed = errors.New("all rpc endpoints failed")

// ParseError reports a malformed fee-history response. It is treated like an
// endpoint failure for failover purposes.
type ParseError struct {
	Network string
	Reason  string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse fee history (%s): %s: %v", e.Network, e.Reason, e.Err)
	}
	return fmt.Sprintf("parse fee history (%s): %s", e.Network, e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

// FeeSource retrieves one gas-fee sample per network per tick.
type FeeSource interface {
	Fetch(ctx context.Context, network string, cfg config.NetworkConfig) (model.GasSample, error)
	Close()
}
