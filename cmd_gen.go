package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/lgtm-hq/lgtm-release/internal/rules"
)

type genCmd struct {
	Emoji bool `cli:"emoji" help:"give the default types changelog emojis"`
}

func (c genCmd) Run(g globalCmd, args []string) error {
	filename := rules.DefaultFileName + ".yaml"
	if len(args) > 0 {
		filename = args[0]
	}

	filename, err := filepath.Abs(filename)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "output: %v\n", filename)

	return rules.Write(filename, rules.Default(c.Emoji))
}
