package version

import (
	"github.com/hashicorp-forge/icflows/internal/cmd/base"
	"github.com/hashicorp-forge/icflows/internal/version"
)

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "Print the version"
}

func (c *Command) Help() string {
	return `Usage: icflows version

  Print the version of icflows.`
}

func (c *Command) Run(args []string) int {
	c.UI.Output("icflows " + version.Version)
	return 0
}
