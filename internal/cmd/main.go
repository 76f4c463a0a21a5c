package cmd

import (
	"bufio"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/hashicorp-forge/icflows/internal/cmd/commands/run"
	"github.com/hashicorp-forge/icflows/internal/version"
)

// defaultCommand runs when the first argument does not name a command.
const defaultCommand = "run"

// Main runs the CLI with the given arguments and returns the exit code.
func Main(args []string) int {
	cliName := args[0]

	log := hclog.New(&hclog.LoggerOptions{
		Name: cliName,
	})

	ui := &cli.BasicUi{
		Reader:      bufio.NewReader(os.Stdin),
		Writer:      os.Stdout,
		ErrorWriter: os.Stderr,
	}

	initCommands(log, ui)

	c := &cli.CLI{
		Name:     cliName,
		Args:     commandArgs(args),
		Version:  version.Version,
		Commands: Commands,
	}

	// Run the CLI
	exitCode, err := c.Run()
	if err != nil {
		ui.Error(err.Error())
		return 1
	}

	return exitCode
}

// commandArgs returns the arguments after the program name, with the default
// command inserted. The regex may come first, so "version" is only a command
// when it is the sole argument and "run" only when a regex still follows it.
func commandArgs(args []string) []string {
	rest := args[1:]

	if len(rest) == 1 &&
		(rest[0] == "version" ||
			rest[0] == "-version" ||
			rest[0] == "--version" ||
			rest[0] == "-v") {
		return []string{"version"}
	}

	if len(rest) > 1 && rest[0] == defaultCommand && hasRegex(rest[1:]) {
		return rest
	}

	return append([]string{defaultCommand}, rest...)
}

// hasRegex reports whether args leave a positional argument once the run
// flags are parsed. Unparseable args count as having one so that the run
// command reports the error.
func hasRegex(args []string) bool {
	positional, err := (&run.Command{}).Flags().ParseInterspersed(args)
	return err != nil || len(positional) > 0
}
