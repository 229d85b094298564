package ros

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"github.com/viam-labs/evasion/config"
	"github.com/viam-labs/evasion/kinematics"
	"github.com/viam-labs/evasion/logging"
)

type recordedStep struct {
	kind string
	at   time.Time
}

type fakePipeline struct {
	clock       *clock.Mock
	steps       []recordedStep
	cycleErr    error
	description string
}

func (f *fakePipeline) LoadTree(description []byte) error {
	f.description = string(description)
	f.steps = append(f.steps, recordedStep{"tree", f.clock.Now()})
	return nil
}

func (f *fakePipeline) HandleKeypoints([][]float64) error {
	f.steps = append(f.steps, recordedStep{"keypoints", f.clock.Now()})
	return nil
}

func (f *fakePipeline) HandleTransforms([]kinematics.TransformSample) error {
	f.steps = append(f.steps, recordedStep{"transforms", f.clock.Now()})
	return nil
}

func (f *fakePipeline) RunCycle(context.Context) error {
	f.steps = append(f.steps, recordedStep{"cycle", f.clock.Now()})
	return f.cycleErr
}

func (f *fakePipeline) kinds() []string {
	out := make([]string, 0, len(f.steps))
	for _, s := range f.steps {
		out = append(out, s.kind)
	}
	return out
}

func TestDecodeEvents(t *testing.T) {
	logger := logging.NewTestLogger(t)
	keypoints := [][]byte{
		[]byte(`{"meta":{"secs":1,"nsecs":0},"data":{"height":1,"width":5,"array":[0,0,1,2,3]}}`),
		[]byte(`{"meta":{"secs":1,"nsecs":0},"data":{"height":1,"width":3,"array":[0,0,1]}}`),
		[]byte(`not json`),
	}
	transforms := [][]byte{
		[]byte(`{"meta":{"secs":0,"nsecs":5},"data":{"transforms":[]}}`),
	}
	events, skipped := decodeEvents(keypoints, transforms, logger)
	test.That(t, skipped, test.ShouldEqual, 2)
	test.That(t, events, test.ShouldHaveLength, 2)
	test.That(t, events[0].keypoints, test.ShouldResemble, [][]float64{{0, 0, 1, 2, 3}})
	test.That(t, events[1].batch, test.ShouldNotBeNil)
	test.That(t, events[1].at, test.ShouldEqual, time.Unix(0, 5))
}

func TestReplayEvents(t *testing.T) {
	logger := logging.NewTestLogger(t)
	mock := clock.NewMock()
	p := &fakePipeline{clock: mock}
	start := time.Unix(1000, 0)
	events := []replayEvent{
		{at: start.Add(12 * time.Millisecond), keypoints: [][]float64{}},
		{at: start, batch: []kinematics.TransformSample{}},
		{at: start.Add(3 * time.Millisecond), keypoints: [][]float64{}},
	}

	res, err := replayEvents(context.Background(), p, events, mock, 5*time.Millisecond, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res, test.ShouldResemble, ReplayResult{Keypoints: 2, Transforms: 1, Cycles: 3})
	test.That(t, p.kinds(), test.ShouldResemble, []string{
		"transforms", "keypoints", "cycle", "cycle", "keypoints", "cycle",
	})
	test.That(t, p.steps[2].at, test.ShouldEqual, start.Add(5*time.Millisecond))
	test.That(t, p.steps[3].at, test.ShouldEqual, start.Add(10*time.Millisecond))
	test.That(t, p.steps[4].at, test.ShouldEqual, start.Add(12*time.Millisecond))
	test.That(t, p.steps[5].at, test.ShouldEqual, start.Add(15*time.Millisecond))
}

func TestReplayEventsErrors(t *testing.T) {
	logger := logging.NewTestLogger(t)
	mock := clock.NewMock()
	events := []replayEvent{{at: time.Unix(1, 0), keypoints: [][]float64{}}}

	res, err := replayEvents(context.Background(), &fakePipeline{clock: mock}, nil, mock, time.Millisecond, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res, test.ShouldResemble, ReplayResult{})

	_, err = replayEvents(context.Background(), &fakePipeline{clock: mock}, events, mock, 0, logger)
	test.That(t, err, test.ShouldNotBeNil)

	cycleErr := errors.New("publish failed")
	_, err = replayEvents(context.Background(), &fakePipeline{clock: mock, cycleErr: cycleErr}, events, mock, time.Millisecond, logger)
	test.That(t, err, test.ShouldBeError, cycleErr)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = replayEvents(ctx, &fakePipeline{clock: mock}, events, mock, time.Millisecond, logger)
	test.That(t, err, test.ShouldBeError, context.Canceled)
}

func TestReplay(t *testing.T) {
	recorded := func(withDescription bool) map[string][]string {
		topics := map[string][]string{
			"kpt_data": {`{"meta":{"secs":1000,"nsecs":3000000},"data":{"height":1,"width":5,"array":[0,0,1,2,3]}}`},
			"tf":       {`{"meta":{"secs":1000,"nsecs":0},"data":{"transforms":[]}}`},
		}
		if withDescription {
			topics["robot_description"] = []string{`{"meta":{"secs":999,"nsecs":0},"data":{"data":"<robot name=\"recorded\"/>"}}`}
		}
		return topics
	}
	slashed := config.Topics{
		Keypoints:   "/kpt_data",
		Transforms:  "/tf",
		Description: "/robot_description",
		Forces:      "/repulsion_forces",
	}

	for _, tc := range []struct {
		name            string
		topics          config.Topics
		withDescription bool
		given           []byte
		expected        string
		errorMsg        string
	}{
		{"description from bag", config.Default().Topics, true, nil, `<robot name="recorded"/>`, ""},
		{"given description wins", config.Default().Topics, true, []byte("<robot/>"), "<robot/>", ""},
		{"slashed topic names", slashed, true, nil, `<robot name="recorded"/>`, ""},
		{"no description", config.Default().Topics, false, nil, "", "no robot description given"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			logger := logging.NewTestLogger(t)
			mock := clock.NewMock()
			p := &fakePipeline{clock: mock}

			res, err := Replay(context.Background(), memoryBag(recorded(tc.withDescription)), p,
				tc.topics, tc.given, mock, 5*time.Millisecond, logger)
			if tc.errorMsg != "" {
				test.That(t, err, test.ShouldNotBeNil)
				test.That(t, err.Error(), test.ShouldContainSubstring, tc.errorMsg)
				test.That(t, p.steps, test.ShouldBeEmpty)
				return
			}
			test.That(t, err, test.ShouldBeNil)
			test.That(t, p.description, test.ShouldEqual, tc.expected)
			test.That(t, res, test.ShouldResemble, ReplayResult{Keypoints: 1, Transforms: 1, Cycles: 1})
			test.That(t, p.kinds(), test.ShouldResemble, []string{"tree", "transforms", "keypoints", "cycle"})
			test.That(t, p.steps[3].at, test.ShouldEqual, time.Unix(1000, int64(5*time.Millisecond)))
		})
	}
}
