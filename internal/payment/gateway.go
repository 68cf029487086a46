package payment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrDeclined is returned when the gateway refuses the charge.
var ErrDeclined = errors.New("payment: declined")

// Gateway collects a payment and returns an opaque transaction reference.
// Implementations must respect ctx cancellation; a timed-out call is treated
// the same as a decline by callers.
type Gateway interface {
	Charge(ctx context.Context, amount float64) (txRef string, err error)
}

// StubGateway simulates a payment processor. Latency delays each call and
// DeclineAmounts lists amounts that are refused, which keeps failure paths
// reachable in development setups.
type StubGateway struct {
	Latency        time.Duration
	DeclineAmounts map[float64]bool
}

// Charge returns a fresh transaction reference after the configured latency.
func (g *StubGateway) Charge(ctx context.Context, amount float64) (string, error) {
	if amount < 0 {
		return "", ErrDeclined
	}
	if g.DeclineAmounts[amount] {
		return "", ErrDeclined
	}
	if g.Latency > 0 {
		select {
		case <-time.After(g.Latency):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return "tx-" + uuid.NewString(), nil
}
