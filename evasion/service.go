package evasion

import (
	"context"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"

	"github.com/viam-labs/evasion/kinematics"
	"github.com/viam-labs/evasion/logging"
	"github.com/viam-labs/evasion/referenceframe"
	"github.com/viam-labs/evasion/utils"
)

// eventQueueSize matches the subscription depth of the message bus.
const eventQueueSize = 10

// ErrServiceStopped is returned when submitting to a service that has been stopped.
var ErrServiceStopped = errors.New("evasion service stopped")

// Service owns a State and runs it on a single dispatcher goroutine: keypoint batches, transform
// batches and the cycle ticker are handled one at a time, in arrival order.
type Service struct {
	state  *State
	clock  clock.Clock
	logger logging.Logger
	topic  string

	tree       *OneShot[*referenceframe.KinematicTree]
	keypoints  chan [][]float64
	transforms chan []kinematics.TransformSample

	mu      sync.Mutex
	workers *utils.StoppableWorkers
	stopped chan struct{}
}

// NewService returns a service around state. Nothing runs until Start.
func NewService(state *State, logger logging.Logger) *Service {
	return &Service{
		state:      state,
		clock:      state.clock,
		logger:     logger,
		topic:      state.cfg.Topics.Description,
		tree:       NewOneShot[*referenceframe.KinematicTree](),
		keypoints:  make(chan [][]float64, eventQueueSize),
		transforms: make(chan []kinematics.TransformSample, eventQueueSize),
		stopped:    make(chan struct{}),
	}
}

// SubmitDescription hands over the robot description. Only the first description is used.
func (s *Service) SubmitDescription(description []byte) error {
	tree, err := referenceframe.ParseURDF(description)
	if err != nil {
		return errors.Wrap(err, "loading robot description")
	}
	if !s.tree.Set(tree) {
		s.logger.Debug("ignoring repeated robot description")
	}
	return nil
}

// SubmitKeypoints queues a keypoint batch for the dispatcher.
func (s *Service) SubmitKeypoints(ctx context.Context, rows [][]float64) error {
	if s.isStopped() {
		return ErrServiceStopped
	}
	select {
	case s.keypoints <- rows:
		return nil
	case <-s.stopped:
		return ErrServiceStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SubmitTransforms queues a transform batch for the dispatcher.
func (s *Service) SubmitTransforms(ctx context.Context, batch []kinematics.TransformSample) error {
	if s.isStopped() {
		return ErrServiceStopped
	}
	select {
	case s.transforms <- batch:
		return nil
	case <-s.stopped:
		return ErrServiceStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Start blocks until the robot description has been submitted, warning periodically while it
// waits, then starts the dispatcher.
func (s *Service) Start(ctx context.Context) error {
	if s.started() {
		return errors.New("evasion service already started")
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-s.stopped:
			cancel()
		case <-ctx.Done():
		}
	}()

	s.logger.Infow("waiting for robot description", "topic", s.topic)
	stopSlowLogger := utils.SlowLogger(ctx, s.clock, "still waiting for robot description", "topic", s.topic, s.logger)
	tree, err := s.tree.Wait(ctx)
	stopSlowLogger()
	if err != nil {
		return err
	}
	if err := s.state.SetTree(tree); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isStopped() {
		return ErrServiceStopped
	}
	s.workers = utils.NewStoppableWorkers(context.Background(), s.dispatch)
	return nil
}

func (s *Service) started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.workers != nil
}

func (s *Service) isStopped() bool {
	select {
	case <-s.stopped:
		return true
	default:
		return false
	}
}

func (s *Service) dispatch(ctx context.Context) {
	ticker := s.clock.Ticker(s.state.cfg.CyclePeriod())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case rows := <-s.keypoints:
			if err := s.state.HandleKeypoints(rows); err != nil {
				s.logger.Debugw("keypoint batch partly rejected", "error", err)
			}
		case batch := <-s.transforms:
			if err := s.state.HandleTransforms(batch); err != nil {
				s.logger.Warnw("transform batch rejected", "error", err)
			}
		case <-ticker.C:
			if _, err := s.state.Cycle(ctx); err != nil {
				s.logger.Warnw("cycle failed", "error", err)
			}
		}
	}
}

// Stop stops the dispatcher and waits for it to return. Queued events are dropped.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isStopped() {
		return
	}
	close(s.stopped)
	if s.workers != nil {
		s.workers.Stop()
	}
}
