// Package release drives a whole release: analyze the commit range, pick
// the next version, render notes, tag, push and publish. It owns the phase
// ordering; the git and GitHub legwork comes in through small interfaces.
package release

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/lgtm-hq/lgtm-release/internal/changelog"
	"github.com/lgtm-hq/lgtm-release/internal/history"
	"github.com/lgtm-hq/lgtm-release/internal/semver"
)

// Phase is the orchestrator's position in the release lifecycle.
type Phase int

const (
	// Analyzing means no analysis has run yet.
	Analyzing Phase = iota
	// NoReleaseNeeded is terminal: the range holds nothing releasable.
	NoReleaseNeeded
	// ReleaseReady means version and notes are computed but nothing is
	// written yet.
	ReleaseReady
	// Tagged means the annotated tag exists locally.
	Tagged
	// Published is terminal: the tag is pushed and/or the hosted release
	// entry exists.
	Published
)

var phaseNames = [...]string{"analyzing", "no-release-needed", "release-ready", "tagged", "published"}

func (p Phase) String() string {
	if p < Analyzing || p > Published {
		return fmt.Sprintf("Phase(%d)", int(p))
	}
	return phaseNames[p]
}

// ErrPhase reports an operation called out of order.
var ErrPhase = errors.New("operation not valid in this phase")

// Tagger creates and pushes annotated tags.
type Tagger interface {
	CreateAnnotatedTag(name, message string) error
	PushTag(name, remote string) error
}

// VersionSource reports the latest released version tag.
type VersionSource interface {
	LatestVersionTag(prefix string) (semver.Version, string, bool, error)
}

// Publisher creates hosted release entries.
type Publisher interface {
	ReleaseExists(tag string) (bool, error)
	CreateRelease(tag, title, body string, draft, prerelease bool) (url string, err error)
}

// Config carries the knobs shared by all phases.
type Config struct {
	TagPrefix string
	// MaxBump caps the computed bump level. BumpMajor means no cap.
	MaxBump semver.BumpLevel
	Remote  string
	// Now defaults to time.Now; tests pin it.
	Now func() time.Time
}

// Result is everything a release run learned or did.
type Result struct {
	FromRef string
	ToRef   string

	Current    semver.Version
	CurrentTag string

	// RawBump is what the commits asked for, Bump is after the MaxBump cap.
	RawBump semver.BumpLevel
	Bump    semver.BumpLevel

	Next  semver.Version
	Tag   string
	Notes string

	Analysis history.Analysis

	Pushed     bool
	ReleaseURL string
}

// ReleaseNeeded reports whether the analysis found anything to release.
func (r Result) ReleaseNeeded() bool {
	return r.Bump != semver.BumpNone
}

// Orchestrator walks one release through its phases. Not safe for
// concurrent use; one instance handles one release run.
type Orchestrator struct {
	cfg      Config
	analyzer *history.Analyzer
	versions VersionSource
	tagger   Tagger
	pub      Publisher
	renderer *changelog.Renderer
	log      zerolog.Logger

	phase  Phase
	result Result
}

func New(cfg Config, analyzer *history.Analyzer, versions VersionSource, tagger Tagger, pub Publisher, renderer *changelog.Renderer, logger zerolog.Logger) *Orchestrator {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Remote == "" {
		cfg.Remote = "origin"
	}
	return &Orchestrator{
		cfg:      cfg,
		analyzer: analyzer,
		versions: versions,
		tagger:   tagger,
		pub:      pub,
		renderer: renderer,
		log:      logger,
		phase:    Analyzing,
	}
}

// Phase returns the current lifecycle position.
func (o *Orchestrator) Phase() Phase {
	return o.phase
}

// Result returns what the run computed so far.
func (o *Orchestrator) Result() Result {
	return o.result
}

// Analyze computes the current version, the commit range analysis and,
// when the range is releasable, the next version and release notes.
// An empty fromRef starts at the latest version tag, or at the beginning of
// history when the repository has none.
func (o *Orchestrator) Analyze(fromRef, toRef string) (Result, error) {
	if o.phase != Analyzing {
		return o.result, fmt.Errorf("%w: analyze in %s", ErrPhase, o.phase)
	}

	current, currentTag, found, err := o.versions.LatestVersionTag(o.cfg.TagPrefix)
	if err != nil {
		return o.result, err
	}
	if !found {
		current = semver.Version{}
		o.log.Debug().Msg("no version tag yet, starting from 0.0.0")
	}
	if fromRef == "" {
		fromRef = currentTag
	}

	an, err := o.analyzer.Analyze(fromRef, toRef)
	if err != nil {
		return o.result, err
	}

	o.result = Result{
		FromRef:    an.FromRef,
		ToRef:      an.ToRef,
		Current:    current,
		CurrentTag: currentTag,
		RawBump:    an.Bump,
		Bump:       an.Bump.Clamp(o.cfg.MaxBump),
		Analysis:   an,
	}
	if o.result.RawBump != o.result.Bump {
		o.log.Info().
			Str("computed", o.result.RawBump.String()).
			Str("capped", o.result.Bump.String()).
			Msg("bump level capped")
	}

	if !o.result.ReleaseNeeded() {
		o.phase = NoReleaseNeeded
		o.log.Info().Str("current", current.String()).Msg("no releasable commits")
		return o.result, nil
	}

	next, err := current.Bump(o.result.Bump)
	if err != nil {
		return o.result, err
	}
	o.setNext(next)

	o.phase = ReleaseReady
	o.log.Info().
		Str("current", current.String()).
		Str("next", next.String()).
		Str("bump", o.result.Bump.String()).
		Msg("release ready")
	return o.result, nil
}

// OverrideNext replaces the computed next version, for interactive runs.
// The override must still move the version forward.
func (o *Orchestrator) OverrideNext(v semver.Version) error {
	if o.phase != ReleaseReady {
		return fmt.Errorf("%w: override in %s", ErrPhase, o.phase)
	}
	if semver.Compare(v, o.result.Current) <= 0 {
		return fmt.Errorf("version %s does not move forward from %s", v, o.result.Current)
	}
	o.setNext(v)
	o.log.Info().Str("next", v.String()).Msg("next version overridden")
	return nil
}

func (o *Orchestrator) setNext(v semver.Version) {
	o.result.Next = v
	o.result.Tag = v.TagName(o.cfg.TagPrefix)
	o.result.Notes = o.renderer.Render(v.String(), o.cfg.Now(), o.result.Analysis)
}

// Tag creates the annotated release tag. An empty message gets the default
// "Release <tag>" subject. The tag must not exist; the Tagger fails before
// touching the repository when it does.
func (o *Orchestrator) Tag(message string) error {
	if o.phase != ReleaseReady {
		return fmt.Errorf("%w: tag in %s", ErrPhase, o.phase)
	}
	if message == "" {
		message = "Release " + o.result.Tag
	}
	if err := o.tagger.CreateAnnotatedTag(o.result.Tag, message); err != nil {
		return err
	}
	o.phase = Tagged
	return nil
}

// PublishOptions selects what Publish does.
type PublishOptions struct {
	Push bool

	CreateRelease bool
	Title         string // defaults to the tag name
	Body          string // defaults to the rendered notes
	Draft         bool
	Prerelease    bool
	// SkipExisting turns "release already exists" into a no-op instead of
	// an error from gh.
	SkipExisting bool
}

// Publish pushes the tag and/or creates the hosted release entry.
func (o *Orchestrator) Publish(opts PublishOptions) error {
	if o.phase != Tagged {
		return fmt.Errorf("%w: publish in %s", ErrPhase, o.phase)
	}

	if opts.Push {
		if err := o.tagger.PushTag(o.result.Tag, o.cfg.Remote); err != nil {
			return err
		}
		o.result.Pushed = true
	}

	if opts.CreateRelease {
		if opts.SkipExisting {
			exists, err := o.pub.ReleaseExists(o.result.Tag)
			if err != nil {
				return err
			}
			if exists {
				o.log.Info().Str("tag", o.result.Tag).Msg("release already exists, skipping")
				o.phase = Published
				return nil
			}
		}

		title := opts.Title
		if title == "" {
			title = o.result.Tag
		}
		body := opts.Body
		if body == "" {
			body = o.result.Notes
		}
		url, err := o.pub.CreateRelease(o.result.Tag, title, body, opts.Draft, opts.Prerelease)
		if err != nil {
			return err
		}
		o.result.ReleaseURL = url
	}

	o.phase = Published
	return nil
}
