package repulsion

import (
	"context"

	"github.com/pkg/errors"
)

// ForceMessage is the outbound force array: one row per actuated joint, WrenchSize columns,
// flattened row-major.
type ForceMessage struct {
	Data []float64
	Rows int
	Cols int
}

// NewForceMessage flattens wrenches into a message.
func NewForceMessage(wrenches []Wrench) ForceMessage {
	msg := ForceMessage{
		Data: make([]float64, 0, len(wrenches)*WrenchSize),
		Rows: len(wrenches),
		Cols: WrenchSize,
	}
	for _, w := range wrenches {
		msg.Data = append(msg.Data, w[:]...)
	}
	return msg
}

// Wrenches returns the rows of the message.
func (m ForceMessage) Wrenches() ([]Wrench, error) {
	if m.Cols != WrenchSize || len(m.Data) != m.Rows*m.Cols {
		return nil, errors.Errorf("force message is %dx%d with %d values", m.Rows, m.Cols, len(m.Data))
	}
	out := make([]Wrench, m.Rows)
	for i := range out {
		copy(out[i][:], m.Data[i*WrenchSize:])
	}
	return out, nil
}

// IsZero returns whether every value of the message is zero.
func (m ForceMessage) IsZero() bool {
	for _, v := range m.Data {
		if v != 0 {
			return false
		}
	}
	return true
}

// Publisher sends force messages to the controller.
type Publisher interface {
	Publish(ctx context.Context, msg ForceMessage) error
}
