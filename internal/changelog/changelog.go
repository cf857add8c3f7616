// Package changelog renders an analyzed commit range as a Markdown release
// section or as JSON, and splices rendered sections into a CHANGELOG file.
package changelog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/rs/zerolog"

	"github.com/lgtm-hq/lgtm-release/internal/gitrepo"
	"github.com/lgtm-hq/lgtm-release/internal/history"
	"github.com/lgtm-hq/lgtm-release/internal/rules"
)

// Format selects the changelog output format.
type Format int

const (
	FormatMarkdown Format = iota
	FormatJSON
)

// ParseFormat parses a format name. The empty string means Markdown.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "markdown", "md":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	}
	return FormatMarkdown, fmt.Errorf("unknown changelog format %q (want markdown or json)", s)
}

func (f Format) String() string {
	if f == FormatJSON {
		return "json"
	}
	return "markdown"
}

// Renderer renders analyses using one rule table. The entry line comes from
// the rule's entryFormat template; entries fall back to a plain line when
// the template is broken.
type Renderer struct {
	rule rules.Rule
	tmpl *template.Template
	log  zerolog.Logger
}

func NewRenderer(rule rules.Rule, logger zerolog.Logger) *Renderer {
	tmpl, err := template.New("entry").Parse(rule.EntryFormat)
	if err != nil {
		logger.Warn().Err(err).Str("format", rule.EntryFormat).Msg("bad entry format, using plain entries")
		tmpl = nil
	}
	return &Renderer{rule: rule, tmpl: tmpl, log: logger}
}

// Render produces the Markdown section for one release. An empty version
// renders an "Unreleased" heading without a date. Sections with no entries
// are dropped, and the other section only shows up when the rule asks for
// it. Rendering is pure: the same analysis renders to the same bytes.
func (r *Renderer) Render(version string, date time.Time, an history.Analysis) string {
	var b strings.Builder
	if version == "" {
		b.WriteString("## Unreleased\n")
	} else {
		fmt.Fprintf(&b, "## [%s] - %s\n", version, date.Format("2006-01-02"))
	}

	for _, sec := range an.Sections {
		if len(sec.Entries) == 0 {
			continue
		}
		if sec.Title == r.rule.OtherSection && !r.rule.IncludeOther {
			continue
		}
		b.WriteString("\n### ")
		b.WriteString(sec.Title)
		b.WriteString("\n\n")
		for _, e := range sec.Entries {
			b.WriteString(r.entryLine(e))
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func (r *Renderer) entryLine(e history.Entry) string {
	var scopePrefix string
	if e.Scope != "" {
		scopePrefix = "**" + e.Scope + "**: "
	}
	emojiUnicode := r.rule.EmojiFor(e.Type, true)
	if emojiUnicode != "" {
		emojiUnicode += " "
	}

	if r.tmpl != nil {
		buf := bytes.Buffer{}
		err := r.tmpl.Execute(&buf, map[string]string{
			"type":          e.Type,
			"scope":         e.Scope,
			"scope_prefix":  scopePrefix,
			"emoji":         r.rule.EmojiFor(e.Type, false),
			"emoji_unicode": emojiUnicode,
			"description":   e.Description,
			"sha":           gitrepo.ShortHash(e.Hash),
		})
		if err == nil {
			return buf.String()
		}
		r.log.Warn().Err(err).Str("format", r.rule.EntryFormat).Msg("entry format failed, using plain entry")
	}

	return "- " + scopePrefix + e.Description + " (" + gitrepo.ShortHash(e.Hash) + ")"
}

type jsonEntry struct {
	Type        string `json:"type"`
	Scope       string `json:"scope,omitempty"`
	Breaking    bool   `json:"breaking"`
	Description string `json:"description"`
	Sha         string `json:"sha"`
}

type jsonSection struct {
	Title   string      `json:"title"`
	Entries []jsonEntry `json:"entries"`
}

type jsonDocument struct {
	Version   string         `json:"version,omitempty"`
	Date      string         `json:"date,omitempty"`
	BumpLevel string         `json:"bump_level"`
	Total     int            `json:"total_commits"`
	Breaking  int            `json:"breaking_commits"`
	Counts    map[string]int `json:"counts"`
	Sections  []jsonSection  `json:"sections"`
}

// RenderJSON is the structured view of an analysis. Unlike the Markdown
// rendering it always carries the other section; filtering is a display
// concern.
func (r *Renderer) RenderJSON(version string, date time.Time, an history.Analysis) (string, error) {
	doc := jsonDocument{
		Version:   version,
		BumpLevel: an.Bump.String(),
		Total:     an.Total,
		Breaking:  an.Breaking,
		Counts:    an.Counts,
		Sections:  []jsonSection{},
	}
	if version != "" {
		doc.Date = date.Format("2006-01-02")
	}
	for _, sec := range an.Sections {
		js := jsonSection{Title: sec.Title, Entries: []jsonEntry{}}
		for _, e := range sec.Entries {
			js.Entries = append(js.Entries, jsonEntry{
				Type:        e.Type,
				Scope:       e.Scope,
				Breaking:    e.Breaking,
				Description: e.Description,
				Sha:         gitrepo.ShortHash(e.Hash),
			})
		}
		doc.Sections = append(doc.Sections, js)
	}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out) + "\n", nil
}
