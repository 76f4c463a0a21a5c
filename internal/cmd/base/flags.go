package base

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"strings"
)

// FlagSet wraps flag.FlagSet with help rendering and argparse style
// positional handling.
type FlagSet struct {
	*flag.FlagSet
}

// NewFlagSet wraps f. Parse errors are returned, not printed.
func NewFlagSet(f *flag.FlagSet) *FlagSet {
	f.SetOutput(io.Discard)
	return &FlagSet{FlagSet: f}
}

// Help returns the rendered options of the flag set.
func (f *FlagSet) Help() string {
	var buf bytes.Buffer
	buf.WriteString("\n\nOptions:\n")

	f.VisitAll(func(fl *flag.Flag) {
		name, usage := flag.UnquoteUsage(fl)
		line := "  -" + fl.Name
		if name != "" {
			line += "=<" + name + ">"
		}
		fmt.Fprintf(&buf, "%s\n      %s", line, usage)
		if fl.DefValue != "" && fl.DefValue != "false" && fl.DefValue != "0" && fl.DefValue != "0s" {
			fmt.Fprintf(&buf, " (default: %s)", fl.DefValue)
		}
		buf.WriteString("\n\n")
	})

	return strings.TrimRight(buf.String(), "\n")
}

// ParseInterspersed parses args allowing positional arguments before,
// between and after flags. Everything after "--" is positional.
func (f *FlagSet) ParseInterspersed(args []string) ([]string, error) {
	var positional []string

	for {
		if err := f.Parse(args); err != nil {
			return nil, err
		}

		consumed := len(args) - f.NArg()
		rest := f.Args()
		if consumed > 0 && args[consumed-1] == "--" {
			return append(positional, rest...), nil
		}
		if len(rest) == 0 {
			return positional, nil
		}

		positional = append(positional, rest[0])
		args = rest[1:]
	}
}

// Visited reports whether the named flag was given on the command line.
func (f *FlagSet) Visited(name string) bool {
	found := false
	f.Visit(func(fl *flag.Flag) {
		if fl.Name == name {
			found = true
		}
	})
	return found
}
