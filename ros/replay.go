package ros

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/gobag/rosbag"
	"github.com/pkg/errors"

	"github.com/viam-labs/evasion/config"
	"github.com/viam-labs/evasion/kinematics"
	"github.com/viam-labs/evasion/logging"
)

// Pipeline is what a replay drives: the evasion application state.
type Pipeline interface {
	LoadTree(description []byte) error
	HandleKeypoints(rows [][]float64) error
	HandleTransforms(batch []kinematics.TransformSample) error
	RunCycle(ctx context.Context) error
}

// ReplayResult counts what a replay fed through the pipeline.
type ReplayResult struct {
	Keypoints  int
	Transforms int
	Cycles     int
	Skipped    int
}

type replayEvent struct {
	at        time.Time
	keypoints [][]float64
	batch     []kinematics.TransformSample
}

// Replay feeds a recorded bag through p in timestamp order, running a cycle every period of bag
// time on clk. The robot description is loaded first: from description when given, otherwise from
// the first message on the description topic.
func Replay(
	ctx context.Context,
	rb *rosbag.RosBag,
	p Pipeline,
	topics config.Topics,
	description []byte,
	clk *clock.Mock,
	period time.Duration,
	logger logging.Logger,
) (ReplayResult, error) {
	if description == nil {
		msgs, err := AllMessagesForTopic(rb, topics.Description)
		if err != nil {
			return ReplayResult{}, errors.Wrap(err, "no robot description given")
		}
		var msg StringMessage
		if err := json.Unmarshal(msgs[0], &msg); err != nil {
			return ReplayResult{}, errors.Wrap(err, "decoding robot description")
		}
		description = []byte(msg.Data.Data)
	}
	if err := p.LoadTree(description); err != nil {
		return ReplayResult{}, err
	}

	raw, err := TopicMessages(rb, topics.Keypoints, topics.Transforms)
	if err != nil {
		return ReplayResult{}, err
	}
	events, skipped := decodeEvents(raw[topics.Keypoints], raw[topics.Transforms], logger)
	res, err := replayEvents(ctx, p, events, clk, period, logger)
	res.Skipped += skipped
	return res, err
}

func decodeEvents(keypoints, transforms [][]byte, logger logging.Logger) ([]replayEvent, int) {
	var events []replayEvent
	skipped := 0
	for _, data := range keypoints {
		var msg Array2dMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.Warnw("skipping undecodable keypoint message", "error", err)
			skipped++
			continue
		}
		rows, err := KeypointRows(msg.Data)
		if err != nil {
			logger.Warnw("skipping malformed keypoint message", "error", err)
			skipped++
			continue
		}
		events = append(events, replayEvent{at: msg.Meta.Time(), keypoints: rows})
	}
	for _, data := range transforms {
		var msg TFMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.Warnw("skipping undecodable transform message", "error", err)
			skipped++
			continue
		}
		events = append(events, replayEvent{at: msg.Meta.Time(), batch: TransformSamples(msg)})
	}
	return events, skipped
}

func replayEvents(
	ctx context.Context,
	p Pipeline,
	events []replayEvent,
	clk *clock.Mock,
	period time.Duration,
	logger logging.Logger,
) (ReplayResult, error) {
	var res ReplayResult
	if len(events) == 0 {
		return res, nil
	}
	if period <= 0 {
		return res, errors.Errorf("replay period must be positive, got %v", period)
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].at.Before(events[j].at) })

	clk.Set(events[0].at)
	next := events[0].at.Add(period)
	cycle := func(at time.Time) error {
		clk.Set(at)
		if err := p.RunCycle(ctx); err != nil {
			return err
		}
		res.Cycles++
		return nil
	}

	for _, ev := range events {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		for !next.After(ev.at) {
			if err := cycle(next); err != nil {
				return res, err
			}
			next = next.Add(period)
		}
		clk.Set(ev.at)

		var err error
		if ev.batch != nil {
			err = p.HandleTransforms(ev.batch)
			res.Transforms++
		} else {
			err = p.HandleKeypoints(ev.keypoints)
			res.Keypoints++
		}
		if err != nil {
			logger.Debugw("message partly rejected", "at", ev.at, "error", err)
		}
	}
	if err := cycle(next); err != nil {
		return res, err
	}
	logger.Infow("replay finished", "keypoints", res.Keypoints, "transforms", res.Transforms, "cycles", res.Cycles)
	return res, nil
}
