package ros

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/viam-labs/evasion/repulsion"
)

func TestJSONPublisher(t *testing.T) {
	var buf bytes.Buffer
	mock := clock.NewMock()
	mock.Set(time.Unix(100, 250))
	pub := NewJSONPublisher(&buf, mock)

	wrenches := make([]repulsion.Wrench, 7)
	wrenches[0] = repulsion.NewWrench(r3.Vector{X: -0.5}, r3.Vector{})
	test.That(t, pub.Publish(context.Background(), repulsion.NewForceMessage(wrenches)), test.ShouldBeNil)
	mock.Add(time.Second)
	test.That(t, pub.Publish(context.Background(), repulsion.NewForceMessage(wrenches)), test.ShouldBeNil)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	test.That(t, lines, test.ShouldHaveLength, 2)
	var msg Array2dMessage
	test.That(t, json.Unmarshal(lines[1], &msg), test.ShouldBeNil)
	test.That(t, msg.Meta, test.ShouldResemble, Meta{Secs: 101, Nsecs: 250})
	test.That(t, msg.Data.Height, test.ShouldEqual, 6)
	test.That(t, msg.Data.Width, test.ShouldEqual, 7)
	test.That(t, msg.Data.Array[0], test.ShouldEqual, -0.5)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	test.That(t, pub.Publish(ctx, repulsion.NewForceMessage(wrenches)), test.ShouldBeError, context.Canceled)
}
