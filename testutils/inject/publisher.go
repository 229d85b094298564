// Package inject provides function-injectable fakes of the evasion interfaces.
package inject

import (
	"context"
	"sync"

	"github.com/golang/geo/r3"

	"github.com/viam-labs/evasion/collision"
	"github.com/viam-labs/evasion/repulsion"
)

// Publisher is an injected force publisher. Without a PublishFunc it records every message.
type Publisher struct {
	repulsion.Publisher
	PublishFunc func(ctx context.Context, msg repulsion.ForceMessage) error

	mu        sync.Mutex
	published []repulsion.ForceMessage
}

// Publish calls the injected Publish, the embedded publisher, or records the message.
func (p *Publisher) Publish(ctx context.Context, msg repulsion.ForceMessage) error {
	if p.PublishFunc != nil {
		return p.PublishFunc(ctx, msg)
	}
	if p.Publisher != nil {
		return p.Publisher.Publish(ctx, msg)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, msg)
	return nil
}

// Published returns the recorded messages.
func (p *Publisher) Published() []repulsion.ForceMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]repulsion.ForceMessage(nil), p.published...)
}

// Policy is an injected force policy.
type Policy struct {
	repulsion.Policy
	ForcesFunc func(records []collision.Record, positions []r3.Vector) ([]repulsion.Wrench, error)
}

// Forces calls the injected Forces or the real version.
func (p *Policy) Forces(records []collision.Record, positions []r3.Vector) ([]repulsion.Wrench, error) {
	if p.ForcesFunc == nil {
		return p.Policy.Forces(records, positions)
	}
	return p.ForcesFunc(records, positions)
}
