// Package rules holds the release rule table: which commit types exist,
// which changelog section and bump level each one maps to, and how a
// changelog entry is formatted.
//
// A rule file is YAML or JSON and lives next to the repository
// (.lgtm-release.yaml by default), in the user config dir, or wherever
// gitconfig [lgtm-release] rule= points. Keys of the types table starting
// with "#" are comments and are skipped everywhere.
package rules

import (
	"fmt"
	"strings"

	"github.com/kyokomi/emoji/v2"
	"github.com/shu-go/orderedmap"

	"github.com/lgtm-hq/lgtm-release/internal/semver"
)

// CommitType describes one entry of the rule table.
type CommitType struct {
	Desc    string `json:"description,omitempty"`
	Section string `json:"section,omitempty"`
	Bump    string `json:"bump,omitempty"`
	Emoji   string `json:"emoji,omitempty"`
}

// Rule drives version calculation and changelog rendering.
type Rule struct {
	Types *orderedmap.OrderedMap[string, CommitType] `json:"types"`

	EntryFormat     string `json:"entryFormat"`
	EntryFormatHint string `json:"entryFormatHint,omitempty"`

	TagPrefix    string `json:"tagPrefix"`
	IncludeOther bool   `json:"includeOther"`

	BreakingSection string `json:"breakingSection,omitempty"`
	OtherSection    string `json:"otherSection,omitempty"`
}

const (
	defaultEntryFormat     = "- {{.emoji_unicode}}{{.scope_prefix}}{{.description}} ({{.sha}})"
	defaultEntryFormatHint = ".type, .scope, .scope_prefix, .emoji, .emoji_unicode, .description, .sha"

	defaultBreakingSection = "Breaking Changes"
	defaultOtherSection    = "Other"
)

// Default returns the built-in rule table. With emoji, each type carries an
// emoji short code that ends up in rendered changelog entries.
func Default(emoji bool) Rule {
	r := Rule{
		Types:        defaultCommitTypes(emoji),
		EntryFormat:  defaultEntryFormat,
		TagPrefix:    "v",
		IncludeOther: false,
	}
	r.Normalize()
	return r
}

func defaultCommitTypes(emoji bool) *orderedmap.OrderedMap[string, CommitType] {
	iif := func(cond bool, t, f string) string {
		if cond {
			return t
		}
		return f
	}

	ct := orderedmap.New[string, CommitType]()
	ct.Set("# comment1", CommitType{
		Desc: "comment starts with #",
	})
	ct.Set("# comment2", CommitType{
		Desc: "types without a bump still show up in the changelog; types without a section land in " + defaultOtherSection,
	})

	ct.Set("feat", CommitType{
		Desc:    "A new feature",
		Section: "Features",
		Bump:    "minor",
		Emoji:   iif(emoji, ":sparkles:", ""),
	})
	ct.Set("feature", CommitType{
		Desc:    "Alias of feat",
		Section: "Features",
		Bump:    "minor",
		Emoji:   iif(emoji, ":sparkles:", ""),
	})
	ct.Set("fix", CommitType{
		Desc:    "A bug fix",
		Section: "Bug Fixes",
		Bump:    "patch",
		Emoji:   iif(emoji, ":bug:", ""),
	})
	ct.Set("bugfix", CommitType{
		Desc:    "Alias of fix",
		Section: "Bug Fixes",
		Bump:    "patch",
		Emoji:   iif(emoji, ":bug:", ""),
	})
	ct.Set("hotfix", CommitType{
		Desc:    "Alias of fix",
		Section: "Bug Fixes",
		Bump:    "patch",
		Emoji:   iif(emoji, ":fire:", ""),
	})
	ct.Set("docs", CommitType{
		Desc:    "Documentation only changes",
		Section: "Documentation",
		Emoji:   iif(emoji, ":memo:", ""),
	})
	ct.Set("refactor", CommitType{
		Desc:  "A code change that neither fixes a bug nor adds a feature",
		Emoji: iif(emoji, ":recycle:", ""),
	})
	ct.Set("perf", CommitType{
		Desc:  "A code change that improves performance",
		Emoji: iif(emoji, ":zap:", ""),
	})
	ct.Set("test", CommitType{
		Desc:  "Adding missing tests or correcting existing tests",
		Emoji: iif(emoji, ":test_tube:", ""),
	})
	ct.Set("build", CommitType{
		Desc:  "Changes that affect the build system or external dependencies",
		Emoji: iif(emoji, ":package:", ""),
	})
	ct.Set("ci", CommitType{
		Desc:  "Changes to our CI configuration files and scripts",
		Emoji: iif(emoji, ":hammer:", ""),
	})
	ct.Set("chore", CommitType{
		Desc:  "Routine maintenance",
		Emoji: iif(emoji, ":broom:", ""),
	})
	ct.Set("revert", CommitType{
		Desc:  "Reverts a previous commit",
		Emoji: iif(emoji, ":rewind:", ""),
	})
	return ct
}

// Normalize fills the gaps a hand-written rule file may leave.
func (r *Rule) Normalize() {
	if r.Types == nil || len(r.Types.Keys()) == 0 {
		r.Types = defaultCommitTypes(false)
	}
	if r.EntryFormat == "" {
		r.EntryFormat = defaultEntryFormat
	}
	r.EntryFormatHint = defaultEntryFormatHint
	if r.TagPrefix == "" {
		r.TagPrefix = "v"
	}
	if r.BreakingSection == "" {
		r.BreakingSection = defaultBreakingSection
	}
	if r.OtherSection == "" {
		r.OtherSection = defaultOtherSection
	}
}

// Validate rejects rule tables with bump levels outside
// none/patch/minor/major.
func (r Rule) Validate() error {
	if r.Types == nil {
		return nil
	}
	for _, k := range r.Types.Keys() {
		if strings.HasPrefix(k, "#") {
			continue
		}
		ct, ok := r.Types.Get(k)
		if !ok || ct.Bump == "" {
			continue
		}
		if _, err := semver.ParseBumpLevel(ct.Bump); err != nil {
			return fmt.Errorf("type %q: %w", k, err)
		}
	}
	return nil
}

// TypeFor looks up a commit type. Comment keys never match.
func (r Rule) TypeFor(name string) (CommitType, bool) {
	if r.Types == nil || strings.HasPrefix(name, "#") {
		return CommitType{}, false
	}
	return r.Types.Get(name)
}

// BumpFor returns the bump level a commit type asks for.
// Unknown types and types without a bump entry count as none.
func (r Rule) BumpFor(name string) semver.BumpLevel {
	ct, ok := r.TypeFor(name)
	if !ok || ct.Bump == "" {
		return semver.BumpNone
	}
	l, err := semver.ParseBumpLevel(ct.Bump)
	if err != nil {
		return semver.BumpNone
	}
	return l
}

// SectionFor returns the changelog section of a commit type.
// ok is false when the type is unknown or has no section of its own.
func (r Rule) SectionFor(name string) (string, bool) {
	ct, found := r.TypeFor(name)
	if !found || ct.Section == "" {
		return "", false
	}
	return ct.Section, true
}

// SectionTitles returns the distinct type sections in table order,
// without the breaking and other sections.
func (r Rule) SectionTitles() []string {
	if r.Types == nil {
		return nil
	}
	var titles []string
	seen := map[string]bool{}
	for _, k := range r.Types.Keys() {
		if strings.HasPrefix(k, "#") {
			continue
		}
		ct, ok := r.Types.Get(k)
		if !ok || ct.Section == "" || seen[ct.Section] {
			continue
		}
		seen[ct.Section] = true
		titles = append(titles, ct.Section)
	}
	return titles
}

// EmojiFor returns the emoji of a commit type, either as the raw short code
// or emojized to the unicode character.
func (r Rule) EmojiFor(name string, emojize bool) string {
	ct, found := r.TypeFor(name)
	if !found {
		return ""
	}
	e := ct.Emoji
	if emojize {
		e = strings.TrimSpace(emoji.Emojize(e))
	}
	return e
}
