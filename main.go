package main

import (
	"fmt"
	"os"

	git "github.com/go-git/go-git/v5"
	"github.com/rs/zerolog"
	"github.com/shu-go/gli"

	"github.com/lgtm-hq/lgtm-release/internal/ghaction"
	"github.com/lgtm-hq/lgtm-release/internal/gitrepo"
	"github.com/lgtm-hq/lgtm-release/internal/rules"
)

type globalCmd struct {
	Dir     string `cli:"dir,C" default:"." help:"run as if started in this directory"`
	Rule    string `cli:"rule" help:"rule file path (overrides discovery and gitconfig)"`
	Verbose bool   `cli:"verbose,v" help:"debug logging"`
	Quiet   bool   `cli:"quiet,q" help:"errors only"`

	CalcVersion versionCmd   `cli:"calculate-version,version" help:"compute the next semantic version from conventional commits"`
	Changelog   changelogCmd `cli:"generate-changelog,changelog" help:"render the changelog for a commit range"`
	Tag         tagCmd       `cli:"create-git-tag,tag" help:"create (and optionally push) an annotated release tag"`
	Publish     publishCmd   `cli:"create-github-release,publish" help:"create a GitHub release for an existing tag"`
	Release     releaseCmd   `cli:"release,run" help:"analyze, version, changelog, tag and publish in one go"`
	Gen         genCmd       `cli:"generate,gen" help:"write a default rule file"`
}

func (g globalCmd) logger() zerolog.Logger {
	level := zerolog.InfoLevel
	switch {
	case g.Quiet:
		level = zerolog.ErrorLevel
	case g.Verbose:
		level = zerolog.DebugLevel
	}

	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	if ghaction.InActions() {
		out.NoColor = true
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// cmdContext is what every repository-bound subcommand starts from.
type cmdContext struct {
	log      zerolog.Logger
	repo     *gitrepo.Repository
	rule     rules.Rule
	rulePath string
}

func (g globalCmd) setup() (cmdContext, error) {
	log := g.logger()

	repo, err := gitrepo.Open(g.Dir, log)
	if err != nil {
		return cmdContext{}, err
	}

	var rule rules.Rule
	var rulePath string
	if g.Rule != "" {
		rule, err = rules.Load(g.Rule)
		if err != nil {
			return cmdContext{}, err
		}
		rulePath = g.Rule
	} else {
		rule, rulePath = rules.Discover(repo.Raw())
	}
	log.Debug().Str("rule", rulePath).Msg("using rule")

	return cmdContext{log: log, repo: repo, rule: rule, rulePath: rulePath}, nil
}

// Version is the app version, injected at build time.
var Version string

func main() {
	rulePath := rulePathToHelp()
	if rulePath != "" {
		rulePath = "\nrule: " + rulePath + "\n"
	}

	app := gli.NewWith(&globalCmd{})
	app.Name = "lgtm-release"
	app.Desc = "Conventional-commit release automation: versions, changelogs, tags, GitHub releases"
	app.Version = Version
	app.Usage = `
# in CI (writes to $GITHUB_OUTPUT / $GITHUB_STEP_SUMMARY)
lgtm-release calculate-version
lgtm-release generate-changelog --version "$next_version" -o CHANGELOG.md
lgtm-release create-git-tag --version "$next_version" --push
lgtm-release create-github-release --tag "$tag"

# one-shot, locally
lgtm-release release --dry-run
lgtm-release release --changelog CHANGELOG.md --push --publish

# customize
lgtm-release gen
(edit .lgtm-release.yaml)
` + rulePath + `
(gitconfig: [lgtm-release] rule=.release-rule.yaml)`
	app.Copyright = "(C) 2026 lgtm-hq"
	app.SuppressErrorOutput = true
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "[ERROR]", err)
		os.Exit(1)
	}
}

func rulePathToHelp() string {
	repo, err := git.PlainOpenWithOptions(".", &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return ""
	}
	_, path := rules.Discover(repo)
	return path
}
