// Package cli contains the evasion command line tool: offline replay of recorded bags and config
// checking.
package cli

import (
	"io"

	"github.com/urfave/cli/v2"

	"github.com/viam-labs/evasion/logging"
)

const (
	generalFlagConfig = "config"
	generalFlagDebug  = "debug"

	replayFlagURDF = "urdf"
	replayFlagOut  = "out"
)

var app = &cli.App{
	Name:            "evasion",
	Usage:           "compute repulsion forces that steer a robot arm away from people",
	HideHelpCommand: true,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    generalFlagConfig,
			Aliases: []string{"c"},
			Usage:   "load configuration from `FILE`",
		},
		&cli.BoolFlag{
			Name:    generalFlagDebug,
			Aliases: []string{"vvv"},
			Usage:   "enable debug logging",
		},
	},
	Commands: []*cli.Command{
		{
			Name:      "replay",
			Usage:     "replay a recorded bag through the force pipeline",
			ArgsUsage: "BAG",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  replayFlagURDF,
					Usage: "read the robot description from `FILE` instead of the bag",
				},
				&cli.StringFlag{
					Name:  replayFlagOut,
					Usage: "write force messages to `FILE` instead of stdout",
				},
			},
			Action: ReplayAction,
		},
		{
			Name:      "check-config",
			Usage:     "validate a config file and print it with defaults applied",
			ArgsUsage: "[FILE]",
			Action:    CheckConfigAction,
		},
	},
}

// NewApp returns the evasion app writing output to out and logs and diagnostics to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	app.Writer = out
	app.ErrWriter = errOut
	return app
}

// newLogger returns a logger writing to the app's error output and installs it as the global
// logger. Its subloggers are tracked by registry so the config's log patterns can set their levels.
func newLogger(c *cli.Context, registry *logging.Registry) logging.Logger {
	logger := logging.NewBlankLogger("evasion")
	logger.AddAppender(logging.NewWriterAppender(c.App.ErrWriter))
	if c.Bool(generalFlagDebug) {
		logger.SetLevel(logging.DEBUG)
	} else {
		logger.SetLevel(logging.INFO)
	}
	logger = registry.Register(logger)
	logging.ReplaceGlobal(logger)
	return logger
}
