package base

import (
	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"
)

// Command is embedded by every command and carries the shared logger and UI.
type Command struct {
	Log hclog.Logger
	UI  cli.Ui
}

// NewCommand returns a new instance of a base.Command type.
func NewCommand(log hclog.Logger, ui cli.Ui) *Command {
	return &Command{
		Log: log,
		UI:  ui,
	}
}
