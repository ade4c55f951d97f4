package main

import (
	"fmt"
	"strings"

	"github.com/creachadair/command"
	"github.com/fatih/color"
	"github.com/robert-malhotra/h5dict/valuefmt"
)

var diffArgs struct {
	Quiet bool `flag:"q,Only report whether the files differ"`
}

func runDiff(env *command.Env) error {
	if len(env.Args) < 2 || len(env.Args) > 3 {
		return env.Usagef("diff takes two files and an optional group")
	}
	group := "/"
	if len(env.Args) == 3 {
		group = env.Args[2]
	}
	a, err := decodeGroup(env.Args[0], group)
	if err != nil {
		return err
	}
	b, err := decodeGroup(env.Args[1], group)
	if err != nil {
		return err
	}

	diff := valuefmt.Diff(valuefmt.Text(a), valuefmt.Text(b))
	if diff == "" {
		return nil
	}
	added, removed := valuefmt.Changes(diff)
	logger().Info("files differ", "added", added, "removed", removed)
	if diffArgs.Quiet {
		fmt.Fprintf(stdout, "%s and %s differ\n", env.Args[0], env.Args[1])
		return nil
	}

	enabled := useColor(stdout)
	plus, minus := color.New(color.FgGreen), color.New(color.FgRed)
	for _, c := range []*color.Color{plus, minus} {
		if !enabled {
			c.DisableColor()
		} else {
			c.EnableColor()
		}
	}
	for line := range strings.Lines(diff) {
		switch {
		case strings.HasPrefix(line, "+ "):
			fmt.Fprint(stdout, plus.Sprint(line))
		case strings.HasPrefix(line, "- "):
			fmt.Fprint(stdout, minus.Sprint(line))
		default:
			fmt.Fprint(stdout, line)
		}
	}
	return nil
}
