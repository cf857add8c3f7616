package main

import (
	"os"

	"github.com/lgtm-hq/lgtm-release/internal/ghaction"
)

type versionCmd struct {
	From      string `cli:"from" help:"range start ref (default: latest version tag; env FROM_REF)"`
	To        string `cli:"to" help:"range end ref (default: HEAD; env TO_REF)"`
	MaxBump   string `cli:"max-bump" help:"cap the bump level at patch, minor or major (env MAX_BUMP)"`
	TagPrefix string `cli:"tag-prefix" help:"version tag prefix (default from rule; env TAG_PREFIX)"`
}

func (c versionCmd) Run(g globalCmd) error {
	ctx, err := g.setup()
	if err != nil {
		return err
	}

	maxBump, err := parseMaxBump(envOr(c.MaxBump, "MAX_BUMP"))
	if err != nil {
		return err
	}
	prefix := firstNonEmpty(envOr(c.TagPrefix, "TAG_PREFIX"), ctx.rule.TagPrefix)

	orch := g.newOrchestrator(ctx, prefix, maxBump, "")
	res, err := orch.Analyze(envOr(c.From, "FROM_REF"), envOr(c.To, "TO_REF"))
	if err != nil {
		return err
	}

	out := ghaction.New(os.Stdout)
	if err := writeAnalysisOutputs(out, res); err != nil {
		return err
	}
	return out.AddSummary(buildSummary(res))
}
