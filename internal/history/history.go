// Package history analyzes a range of commits: it classifies every message,
// derives the version bump the range asks for and groups the commits into
// changelog sections.
package history

import (
	"github.com/rs/zerolog"

	"github.com/lgtm-hq/lgtm-release/internal/conventional"
	"github.com/lgtm-hq/lgtm-release/internal/gitrepo"
	"github.com/lgtm-hq/lgtm-release/internal/rules"
	"github.com/lgtm-hq/lgtm-release/internal/semver"
)

// Source yields the commits of a ref range, newest first.
type Source interface {
	CommitsBetween(fromRef, toRef string) ([]gitrepo.Commit, error)
}

// Entry is one classified commit.
type Entry struct {
	conventional.ParsedCommit
	Hash string
}

// Section is a titled group of entries in changelog order.
type Section struct {
	Title   string
	Entries []Entry
}

// Analysis is the outcome of analyzing a commit range.
// Bump is the raw level the commits ask for; clamping against an operator
// ceiling happens further up.
type Analysis struct {
	FromRef string
	ToRef   string

	Bump     semver.BumpLevel
	Sections []Section
	Counts   map[string]int
	Breaking int
	Total    int
}

// Analyzer turns commit ranges into Analyses using one rule table.
type Analyzer struct {
	src  Source
	rule rules.Rule
	cls  *conventional.Classifier
	log  zerolog.Logger
}

func NewAnalyzer(src Source, rule rules.Rule, logger zerolog.Logger) *Analyzer {
	return &Analyzer{
		src:  src,
		rule: rule,
		cls:  conventional.NewClassifier(),
		log:  logger,
	}
}

// Analyze walks fromRef..toRef. An empty fromRef means the whole history,
// an empty toRef means HEAD. A range with no bump-worthy commits comes back
// with Bump == semver.BumpNone; that is a result, not an error.
func (a *Analyzer) Analyze(fromRef, toRef string) (Analysis, error) {
	if toRef == "" {
		toRef = "HEAD"
	}

	commits, err := a.src.CommitsBetween(fromRef, toRef)
	if err != nil {
		return Analysis{}, err
	}

	an := Analysis{
		FromRef: fromRef,
		ToRef:   toRef,
		Counts:  map[string]int{},
		Total:   len(commits),
	}

	grouped := map[string][]Entry{}
	for _, c := range commits {
		p := a.cls.Classify(c.Message)
		e := Entry{ParsedCommit: p, Hash: c.Hash}

		level := a.rule.BumpFor(p.Type)
		if p.Breaking {
			level = semver.BumpMajor
			an.Breaking++
		}
		an.Bump = semver.Max(an.Bump, level)
		an.Counts[p.Type]++

		title := a.sectionTitle(p)
		grouped[title] = append(grouped[title], e)

		a.log.Debug().
			Str("commit", gitrepo.ShortHash(c.Hash)).
			Str("type", p.Type).
			Bool("breaking", p.Breaking).
			Str("bump", level.String()).
			Msg("classified")
	}

	for _, title := range a.sectionOrder() {
		if entries := grouped[title]; len(entries) > 0 {
			an.Sections = append(an.Sections, Section{Title: title, Entries: entries})
		}
	}

	a.log.Info().
		Str("from", fromRef).
		Str("to", toRef).
		Int("commits", an.Total).
		Int("breaking", an.Breaking).
		Str("bump", an.Bump.String()).
		Msg("analyzed range")
	return an, nil
}

// sectionTitle places a commit: breaking commits go to the breaking section
// regardless of type, the rest follow the rule table, and commits without a
// mapped section fall through to the other section.
func (a *Analyzer) sectionTitle(p conventional.ParsedCommit) string {
	if p.Breaking {
		return a.rule.BreakingSection
	}
	if title, ok := a.rule.SectionFor(p.Type); ok {
		return title
	}
	return a.rule.OtherSection
}

func (a *Analyzer) sectionOrder() []string {
	order := []string{a.rule.BreakingSection}
	order = append(order, a.rule.SectionTitles()...)
	return append(order, a.rule.OtherSection)
}
