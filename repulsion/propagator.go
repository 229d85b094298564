package repulsion

import (
	"context"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/viam-labs/evasion/collision"
	"github.com/viam-labs/evasion/logging"
)

// Propagator runs a policy over a cycle's records and publishes the result when it is nonzero.
type Propagator struct {
	policy    Policy
	publisher Publisher
	logger    logging.Logger
}

// NewPropagator returns a propagator.
func NewPropagator(policy Policy, publisher Publisher, logger logging.Logger) *Propagator {
	return &Propagator{policy: policy, publisher: publisher, logger: logger}
}

// Propagate computes the force message for records and publishes it unless it is all zero.
// It reports whether a message was published.
func (p *Propagator) Propagate(ctx context.Context, records []collision.Record, positions []r3.Vector) (ForceMessage, bool, error) {
	wrenches, err := p.policy.Forces(records, positions)
	if err != nil {
		return ForceMessage{}, false, errors.Wrap(err, "computing repulsion forces")
	}
	msg := NewForceMessage(wrenches)
	if msg.IsZero() {
		return msg, false, nil
	}
	if err := p.publisher.Publish(ctx, msg); err != nil {
		return msg, false, errors.Wrap(err, "publishing repulsion forces")
	}
	p.logger.Debugw("published repulsion forces", "records", len(records))
	return msg, true, nil
}
