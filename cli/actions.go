package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	"go.viam.com/utils"

	"github.com/viam-labs/evasion/config"
	"github.com/viam-labs/evasion/evasion"
	"github.com/viam-labs/evasion/logging"
	"github.com/viam-labs/evasion/ros"
)

// readConfig reads path, or returns the defaults when path is empty, and applies its log patterns.
func readConfig(path string, registry *logging.Registry, logger logging.Logger) (*config.Config, error) {
	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Read(path, logger); err != nil {
			return nil, err
		}
	}
	registry.Update(cfg.Log, logger)
	return cfg, nil
}

// ReplayAction replays a bag through the force pipeline on bag time, writing every published force
// message as one JSON line.
func ReplayAction(c *cli.Context) (err error) {
	registry := logging.NewRegistry()
	logger := newLogger(c, registry)
	bagPath := c.Args().First()
	if bagPath == "" {
		return errors.New("replay needs a bag file")
	}
	cfg, err := readConfig(c.String(generalFlagConfig), registry, logger)
	if err != nil {
		return err
	}

	var description []byte
	if urdfPath := c.String(replayFlagURDF); urdfPath != "" {
		//nolint:gosec
		description, err = os.ReadFile(urdfPath)
		if err != nil {
			return errors.Wrap(err, "reading robot description")
		}
	}

	rb, err := ros.ReadBag(bagPath)
	if err != nil {
		return err
	}

	var out io.Writer = c.App.Writer
	if outPath := c.String(replayFlagOut); outPath != "" {
		//nolint:gosec
		f, err := os.Create(outPath)
		if err != nil {
			return errors.Wrap(err, "creating output file")
		}
		defer func() {
			err = multierr.Combine(err, f.Close())
		}()
		out = f
	}

	mock := clock.NewMock()
	state, err := evasion.NewState(cfg, ros.NewJSONPublisher(out, mock), mock, logger)
	if err != nil {
		return err
	}
	res, err := ros.Replay(c.Context, rb, state, cfg.Topics, description, mock, cfg.CyclePeriod(), logger)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.ErrWriter, "replayed %d keypoint and %d transform messages in %d cycles, published %d force messages",
		res.Keypoints, res.Transforms, res.Cycles, state.Stats().Published())
	if res.Skipped > 0 {
		fmt.Fprintf(c.App.ErrWriter, ", skipped %d messages", res.Skipped)
	}
	fmt.Fprintln(c.App.ErrWriter)
	return nil
}

// CheckConfigAction validates a config file and prints it with every default applied.
func CheckConfigAction(c *cli.Context) error {
	registry := logging.NewRegistry()
	logger := newLogger(c, registry)
	path := c.Args().First()
	if path == "" {
		path = c.String(generalFlagConfig)
	}
	cfg, err := readConfig(path, registry, logger)
	if err != nil {
		return err
	}
	if _, err := cfg.Policy(); err != nil {
		return utils.NewConfigValidationError("force_policy", err)
	}
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(cfg)
}
