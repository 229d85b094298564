package ros

import (
	"context"
	"encoding/json"
	"io"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"

	"github.com/viam-labs/evasion/repulsion"
)

// JSONPublisher writes each force message as one Array2dMessage JSON document per line.
type JSONPublisher struct {
	mu    sync.Mutex
	enc   *json.Encoder
	clock clock.Clock
}

// NewJSONPublisher returns a publisher writing to w, stamping messages with clk.
func NewJSONPublisher(w io.Writer, clk clock.Clock) *JSONPublisher {
	if clk == nil {
		clk = clock.New()
	}
	return &JSONPublisher{enc: json.NewEncoder(w), clock: clk}
}

// Publish implements repulsion.Publisher.
func (p *JSONPublisher) Publish(ctx context.Context, msg repulsion.ForceMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	out := Array2dMessage{Meta: MetaFromTime(p.clock.Now()), Data: ForceArray2d(msg)}
	p.mu.Lock()
	defer p.mu.Unlock()
	return errors.Wrap(p.enc.Encode(out), "writing force message")
}
