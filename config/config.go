// Package config defines the evasion service configuration and how it is read from disk.
package config

import (
	"fmt"
	"time"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/utils"

	"github.com/viam-labs/evasion/bodytrack"
	"github.com/viam-labs/evasion/collision"
	"github.com/viam-labs/evasion/kinematics"
	"github.com/viam-labs/evasion/logging"
	"github.com/viam-labs/evasion/repulsion"
)

// Default topic names of the message bus.
const (
	DefaultKeypointTopic    = "kpt_data"
	DefaultTransformTopic   = "tf"
	DefaultDescriptionTopic = "robot_description"
	DefaultForceTopic       = "repulsion_forces"
)

// Defaults of the timing fields.
const (
	DefaultFreshnessWindowMs = 20
	DefaultCyclePeriodMs     = 5
	DefaultStatsIntervalS    = 10.0
)

// Config is the full evasion service configuration.
type Config struct {
	ConfigFilePath string `json:"-"`

	MaxDist           float64 `json:"max_dist"`
	MinDist           float64 `json:"min_dist"`
	FreshnessWindowMs int     `json:"freshness_window_ms"`
	CyclePeriodMs     int     `json:"cycle_period_ms"`
	Damping           float64 `json:"damping"`

	ForcePolicy   string `json:"force_policy"`
	Selection     string `json:"selection"`
	SubjectPolicy string `json:"subject_policy"`

	ActuatedJoints  int       `json:"actuated_joints"`
	TorqueLimits    []float64 `json:"torque_limits"`
	LeverArm        float64   `json:"lever_arm"`
	ScaledGain      float64   `json:"scaled_gain"`
	AxisMultipliers []float64 `json:"axis_multipliers"`

	KeypointOffset       []float64   `json:"keypoint_offset,omitempty"`
	Chain                ChainConfig `json:"chain"`
	ComposeStaticOffsets bool        `json:"compose_static_offsets"`
	StatsIntervalS       float64     `json:"stats_interval_s"`
	Topics               Topics      `json:"topics"`

	Log []logging.LoggerPatternConfig `json:"log,omitempty"`
}

// ChainConfig describes how broadcast joint names map onto the robot chain.
type ChainConfig struct {
	JointPrefix      string `json:"joint_prefix"`
	Joints           int    `json:"joints"`
	ContinuingFinger string `json:"continuing_finger"`
	BranchFinger     string `json:"branch_finger"`
}

// Topics names the message bus topics the service reads and writes.
type Topics struct {
	Keypoints   string `json:"keypoints"`
	Transforms  string `json:"transforms"`
	Description string `json:"description"`
	Forces      string `json:"forces"`
}

// Default returns a configuration for a Franka Panda with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.ForcePolicy == "" {
		c.ForcePolicy = string(repulsion.SpringPolicyName)
	}
	if c.Selection == "" {
		c.Selection = string(collision.SelectAll)
	}
	if c.SubjectPolicy == "" {
		c.SubjectPolicy = string(bodytrack.LowestID)
	}
	if c.MaxDist == 0 {
		c.MaxDist = repulsion.DefaultMaxDist
	}
	if c.MinDist == 0 {
		c.MinDist = repulsion.DefaultMinDist
	}
	if c.FreshnessWindowMs == 0 {
		c.FreshnessWindowMs = DefaultFreshnessWindowMs
	}
	if c.CyclePeriodMs == 0 {
		c.CyclePeriodMs = DefaultCyclePeriodMs
	}
	if c.Damping == 0 {
		c.Damping = repulsion.DefaultDamping
	}
	if c.ActuatedJoints == 0 {
		c.ActuatedJoints = repulsion.DefaultActuatedJoints
	}
	if c.TorqueLimits == nil {
		c.TorqueLimits = repulsion.DefaultTorqueLimits()
	}
	if c.LeverArm == 0 {
		c.LeverArm = repulsion.DefaultLeverArm
	}
	if c.ScaledGain == 0 {
		c.ScaledGain = repulsion.DefaultScaledGain
	}
	if c.AxisMultipliers == nil {
		m := repulsion.DefaultAxisMultipliers()
		c.AxisMultipliers = m[:]
	}
	if c.StatsIntervalS == 0 {
		c.StatsIntervalS = DefaultStatsIntervalS
	}
	if c.Chain == (ChainConfig{}) {
		c.Chain = ChainConfig{
			JointPrefix:      kinematics.PandaLayout.JointPrefix,
			ContinuingFinger: kinematics.PandaLayout.ContinuingFinger,
			BranchFinger:     kinematics.PandaLayout.BranchFinger,
		}
	}
	if c.Chain.Joints == 0 {
		c.Chain.Joints = c.ActuatedJoints
	}
	if c.Topics.Keypoints == "" {
		c.Topics.Keypoints = DefaultKeypointTopic
	}
	if c.Topics.Transforms == "" {
		c.Topics.Transforms = DefaultTransformTopic
	}
	if c.Topics.Description == "" {
		c.Topics.Description = DefaultDescriptionTopic
	}
	if c.Topics.Forces == "" {
		c.Topics.Forces = DefaultForceTopic
	}
}

// Validate ensures all parts of the config are valid.
func (c *Config) Validate(path string) error {
	switch {
	case c.MinDist < 0:
		return utils.NewConfigValidationError(path, errors.Errorf("min_dist must be non-negative, got %v", c.MinDist))
	case c.MaxDist <= c.MinDist:
		return utils.NewConfigValidationError(path, errors.Errorf("max_dist (%v) must exceed min_dist (%v)", c.MaxDist, c.MinDist))
	case c.Damping <= 0:
		return utils.NewConfigValidationError(path, errors.New("damping must be positive"))
	case c.FreshnessWindowMs < 0:
		return utils.NewConfigValidationError(path, errors.New("freshness_window_ms must be positive"))
	case c.CyclePeriodMs < 0:
		return utils.NewConfigValidationError(path, errors.New("cycle_period_ms must be positive"))
	case c.StatsIntervalS < 0:
		return utils.NewConfigValidationError(path, errors.New("stats_interval_s must be positive"))
	case c.ActuatedJoints < 1:
		return utils.NewConfigValidationError(path, errors.New("actuated_joints must be at least 1"))
	case len(c.TorqueLimits) != c.ActuatedJoints:
		return utils.NewConfigValidationError(path,
			errors.Errorf("torque_limits has %d entries for %d actuated joints", len(c.TorqueLimits), c.ActuatedJoints))
	case len(c.AxisMultipliers) != repulsion.WrenchSize:
		return utils.NewConfigValidationError(path,
			errors.Errorf("axis_multipliers must have %d entries, got %d", repulsion.WrenchSize, len(c.AxisMultipliers)))
	case c.LeverArm <= 0:
		return utils.NewConfigValidationError(path, errors.New("lever_arm must be positive"))
	case len(c.KeypointOffset) != 0 && len(c.KeypointOffset) != 3:
		return utils.NewConfigValidationError(path, errors.New("keypoint_offset must have 3 entries"))
	}
	for i, limit := range c.TorqueLimits {
		if limit <= 0 {
			return utils.NewConfigValidationError(fmt.Sprintf("%s.torque_limits.%d", path, i), errors.New("must be positive"))
		}
	}
	if _, err := repulsion.ParsePolicyName(c.ForcePolicy); err != nil {
		return utils.NewConfigValidationError(path, err)
	}
	if _, err := collision.ParseSelection(c.Selection); err != nil {
		return utils.NewConfigValidationError(path, err)
	}
	if _, err := bodytrack.ParseSelectionPolicy(c.SubjectPolicy); err != nil {
		return utils.NewConfigValidationError(path, err)
	}
	for i, lpc := range c.Log {
		if err := lpc.Validate(); err != nil {
			return utils.NewConfigValidationError(fmt.Sprintf("%s.log.%d", path, i), err)
		}
	}
	if c.Chain.Joints < 1 {
		return utils.NewConfigValidationError(path, errors.New("chain.joints must be at least 1"))
	}
	for name, topic := range map[string]string{
		"keypoints":   c.Topics.Keypoints,
		"transforms":  c.Topics.Transforms,
		"description": c.Topics.Description,
		"forces":      c.Topics.Forces,
	} {
		if topic == "" {
			return utils.NewConfigValidationFieldRequiredError(fmt.Sprintf("%s.topics", path), name)
		}
	}
	return nil
}

// FreshnessWindow returns how long a body stays selectable without updates.
func (c *Config) FreshnessWindow() time.Duration {
	return time.Duration(c.FreshnessWindowMs) * time.Millisecond
}

// CyclePeriod returns the period of the distance/force cycle.
func (c *Config) CyclePeriod() time.Duration {
	return time.Duration(c.CyclePeriodMs) * time.Millisecond
}

// StatsInterval returns how often publishing statistics are logged.
func (c *Config) StatsInterval() time.Duration {
	return time.Duration(c.StatsIntervalS * float64(time.Second))
}

// Offset returns the offset added to every keypoint.
func (c *Config) Offset() r3.Vector {
	if len(c.KeypointOffset) != 3 {
		return r3.Vector{}
	}
	return r3.Vector{X: c.KeypointOffset[0], Y: c.KeypointOffset[1], Z: c.KeypointOffset[2]}
}

// Layout returns the chain layout of the robot's transform broadcast.
func (c *Config) Layout() kinematics.ChainLayout {
	return kinematics.ChainLayout{
		JointPrefix:      c.Chain.JointPrefix,
		Joints:           c.Chain.Joints,
		ContinuingFinger: c.Chain.ContinuingFinger,
		BranchFinger:     c.Chain.BranchFinger,
	}
}

// Tracker returns the body tracker settings. The clock is left for the caller.
func (c *Config) Tracker() bodytrack.Config {
	//nolint:errcheck
	policy, _ := bodytrack.ParseSelectionPolicy(c.SubjectPolicy)
	return bodytrack.Config{
		FreshnessWindow: c.FreshnessWindow(),
		Offset:          c.Offset(),
		Policy:          policy,
	}
}

// RecordSelection returns which distance records produce force.
func (c *Config) RecordSelection() collision.Selection {
	//nolint:errcheck
	sel, _ := collision.ParseSelection(c.Selection)
	return sel
}

// Policy builds the configured force policy.
func (c *Config) Policy() (repulsion.Policy, error) {
	name, err := repulsion.ParsePolicyName(c.ForcePolicy)
	if err != nil {
		return nil, err
	}
	if name == repulsion.ScaledPolicyName {
		var axes [repulsion.WrenchSize]float64
		copy(axes[:], c.AxisMultipliers)
		return &repulsion.ScaledPolicy{
			MinDist:         c.MinDist,
			MaxDist:         c.MaxDist,
			ActuatedJoints:  c.ActuatedJoints,
			TorqueLimits:    append([]float64(nil), c.TorqueLimits...),
			LeverArm:        c.LeverArm,
			Gain:            c.ScaledGain,
			AxisMultipliers: axes,
		}, nil
	}
	return &repulsion.SpringPolicy{
		MinDist:        c.MinDist,
		MaxDist:        c.MaxDist,
		Damping:        c.Damping,
		ActuatedJoints: c.ActuatedJoints,
	}, nil
}
