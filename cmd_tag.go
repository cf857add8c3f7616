package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/lgtm-hq/lgtm-release/internal/ghaction"
	"github.com/lgtm-hq/lgtm-release/internal/semver"
)

type tagCmd struct {
	Version   string `cli:"version" help:"version to tag, with or without prefix (required; env VERSION)"`
	TagPrefix string `cli:"tag-prefix" help:"version tag prefix (default from rule; env TAG_PREFIX)"`
	Message   string `cli:"message,m" help:"tag message (default: Release <tag>; env MESSAGE)"`
	Push      bool   `cli:"push" help:"push the tag after creating it (env PUSH)"`
	Remote    string `cli:"remote" help:"remote to push to (default: origin; env REMOTE)"`
}

func (c tagCmd) Run(g globalCmd) error {
	ctx, err := g.setup()
	if err != nil {
		return err
	}

	version := envOr(c.Version, "VERSION")
	if version == "" {
		return fmt.Errorf("version is required (--version or VERSION)")
	}
	v, err := semver.Parse(version)
	if err != nil {
		return err
	}

	prefix := firstNonEmpty(envOr(c.TagPrefix, "TAG_PREFIX"), ctx.rule.TagPrefix)
	tag := v.TagName(prefix)

	message := envOr(c.Message, "MESSAGE")
	if message == "" {
		message = "Release " + tag
	}

	if err := ctx.repo.CreateAnnotatedTag(tag, message); err != nil {
		return err
	}

	pushed := false
	if envBool(c.Push, "PUSH") {
		if err := ctx.repo.PushTag(tag, envOr(c.Remote, "REMOTE")); err != nil {
			return err
		}
		pushed = true
	}

	out := ghaction.New(os.Stdout)
	if err := out.SetOutput("tag", tag); err != nil {
		return err
	}
	return out.SetOutput("pushed", strconv.FormatBool(pushed))
}
