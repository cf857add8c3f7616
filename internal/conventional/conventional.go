// Package conventional classifies git commit messages against the
// Conventional Commits grammar: type(scope)!: description.
package conventional

import (
	"strings"

	cc "github.com/leodido/go-conventionalcommits"
	"github.com/leodido/go-conventionalcommits/parser"
)

// OtherType is the bucket for commits whose subject does not match the
// grammar. They still appear in changelogs but never drive a version bump.
const OtherType = "other"

// breakingMarker flags a breaking change anywhere in the message body,
// footer or not. Matching is on the literal substring, not a footer token.
const breakingMarker = "BREAKING CHANGE"

// ParsedCommit is the classification of a single commit message.
type ParsedCommit struct {
	Type        string
	Scope       string
	Breaking    bool
	Description string
}

// Classifier parses commit subjects. It is not safe for concurrent use;
// the underlying machine keeps per-parse state.
type Classifier struct {
	machine cc.Machine
}

// NewClassifier returns a Classifier accepting free-form types.
// Type policy (which types count, and for how much) is the rule table's
// business, not the parser's.
func NewClassifier() *Classifier {
	return &Classifier{
		machine: parser.NewMachine(cc.WithTypes(cc.TypesFreeForm)),
	}
}

// Classify parses the subject line of message. A commit that does not match
// the grammar comes back with Type=OtherType and the whole subject as its
// description. Breaking is set for a "!" before the colon or for the literal
// "BREAKING CHANGE" anywhere in the message.
func (c *Classifier) Classify(message string) ParsedCommit {
	subject, _, _ := strings.Cut(message, "\n")
	subject = strings.TrimSpace(subject)
	breaking := strings.Contains(message, breakingMarker)

	other := ParsedCommit{
		Type:        OtherType,
		Breaking:    breaking,
		Description: subject,
	}

	res, err := c.machine.Parse([]byte(subject))
	if err != nil || res == nil {
		return other
	}
	m, ok := res.(*cc.ConventionalCommit)
	if !ok || !isLowerAlpha(m.Type) {
		return other
	}

	p := ParsedCommit{
		Type:        m.Type,
		Breaking:    breaking || m.IsBreakingChange(),
		Description: strings.TrimSpace(m.Description),
	}
	if m.Scope != nil {
		p.Scope = *m.Scope
	}
	return p
}

func isLowerAlpha(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < 'a' || s[i] > 'z' {
			return false
		}
	}
	return true
}
