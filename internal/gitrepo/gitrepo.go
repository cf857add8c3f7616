// Package gitrepo wraps the repository operations the release tooling
// needs: resolving refs, walking commit ranges, finding the latest version
// tag and creating or pushing release tags.
//
// Everything except pushing goes through go-git. Pushing shells out to the
// git binary so the usual credential helpers and remote config apply.
package gitrepo

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/rs/zerolog"

	"github.com/lgtm-hq/lgtm-release/internal/semver"
)

var (
	// ErrRefNotFound reports a revision that does not resolve.
	ErrRefNotFound = errors.New("ref not found")

	// ErrTagExists reports a tag name that is already taken.
	ErrTagExists = errors.New("tag already exists")
)

// Commit is one commit of a walked range.
type Commit struct {
	Hash    string
	Subject string
	Message string
}

// ShortHash abbreviates a full object hash for display.
func ShortHash(hash string) string {
	if len(hash) <= 7 {
		return hash
	}
	return hash[:7]
}

// Repository is an opened git repository.
type Repository struct {
	repo *git.Repository
	root string
	log  zerolog.Logger
}

// Open opens the repository containing path, searching upward for .git the
// way the git binary does.
func Open(path string, logger zerolog.Logger) (*Repository, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repository at %s: %w", path, err)
	}

	root := path
	if wt, err := repo.Worktree(); err == nil {
		root = wt.Filesystem.Root()
	}

	return &Repository{repo: repo, root: root, log: logger}, nil
}

// Root returns the worktree root directory.
func (r *Repository) Root() string {
	return r.root
}

// Raw exposes the underlying go-git repository, for config and rule file
// discovery.
func (r *Repository) Raw() *git.Repository {
	return r.repo
}

// ResolveRef resolves a revision (tag, branch, HEAD~2, sha, ...) to the full
// hash of the commit it points at. Annotated tags are peeled.
func (r *Repository) ResolveRef(rev string) (string, error) {
	h, err := r.resolveCommit(rev)
	if err != nil {
		return "", err
	}
	return h.String(), nil
}

func (r *Repository) resolveCommit(rev string) (plumbing.Hash, error) {
	h, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("%w: %q: %v", ErrRefNotFound, rev, err)
	}

	// annotated tags resolve to the tag object; peel to the commit
	if tag, err := r.repo.TagObject(*h); err == nil {
		c, err := tag.Commit()
		if err != nil {
			return plumbing.ZeroHash, fmt.Errorf("peel tag %q: %w", rev, err)
		}
		return c.Hash, nil
	}
	return *h, nil
}

// CommitsBetween returns the commits reachable from toRef but not from
// fromRef, newest first. An empty fromRef walks the whole history below
// toRef; an empty toRef means HEAD.
func (r *Repository) CommitsBetween(fromRef, toRef string) ([]Commit, error) {
	if toRef == "" {
		toRef = "HEAD"
	}
	toHash, err := r.resolveCommit(toRef)
	if err != nil {
		return nil, err
	}

	exclude := map[plumbing.Hash]bool{}
	if fromRef != "" {
		fromHash, err := r.resolveCommit(fromRef)
		if err != nil {
			return nil, err
		}
		iter, err := r.repo.Log(&git.LogOptions{From: fromHash})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", fromRef, err)
		}
		err = iter.ForEach(func(c *object.Commit) error {
			exclude[c.Hash] = true
			return nil
		})
		iter.Close()
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", fromRef, err)
		}
	}

	iter, err := r.repo.Log(&git.LogOptions{From: toHash, Order: git.LogOrderCommitterTime})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", toRef, err)
	}
	defer iter.Close()

	var commits []Commit
	err = iter.ForEach(func(c *object.Commit) error {
		if exclude[c.Hash] {
			return nil
		}
		subject, _, _ := strings.Cut(c.Message, "\n")
		commits = append(commits, Commit{
			Hash:    c.Hash.String(),
			Subject: strings.TrimSpace(subject),
			Message: c.Message,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", toRef, err)
	}

	r.log.Debug().Str("from", fromRef).Str("to", toRef).Int("commits", len(commits)).Msg("walked range")
	return commits, nil
}

// LatestVersionTag scans all tags carrying prefix for the highest semantic
// version. found is false when no tag parses.
func (r *Repository) LatestVersionTag(prefix string) (v semver.Version, tag string, found bool, err error) {
	iter, err := r.repo.Tags()
	if err != nil {
		return semver.Version{}, "", false, fmt.Errorf("list tags: %w", err)
	}
	defer iter.Close()

	err = iter.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name().Short()
		if !strings.HasPrefix(name, prefix) {
			return nil
		}
		candidate, perr := semver.Parse(strings.TrimPrefix(name, prefix))
		if perr != nil {
			return nil
		}
		if !found || semver.Compare(candidate, v) > 0 {
			v, tag, found = candidate, name, true
		}
		return nil
	})
	if err != nil {
		return semver.Version{}, "", false, fmt.Errorf("list tags: %w", err)
	}

	if found {
		r.log.Debug().Str("tag", tag).Msg("latest version tag")
	}
	return v, tag, found, nil
}

// TagExists reports whether a tag of that name exists, annotated or not.
func (r *Repository) TagExists(name string) (bool, error) {
	_, err := r.repo.Tag(name)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, git.ErrTagNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("look up tag %s: %w", name, err)
	}
}

// CreateAnnotatedTag creates an annotated tag on HEAD. It fails with
// ErrTagExists before touching the repository when the name is taken.
func (r *Repository) CreateAnnotatedTag(name, message string) error {
	exists, err := r.TagExists(name)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrTagExists, name)
	}

	head, err := r.repo.Head()
	if err != nil {
		return fmt.Errorf("resolve HEAD: %w", err)
	}

	_, err = r.repo.CreateTag(name, head.Hash(), &git.CreateTagOptions{
		Tagger:  r.tagger(),
		Message: message,
	})
	if err != nil {
		if errors.Is(err, git.ErrTagExists) {
			return fmt.Errorf("%w: %s", ErrTagExists, name)
		}
		return fmt.Errorf("create tag %s: %w", name, err)
	}

	r.log.Info().Str("tag", name).Str("target", ShortHash(head.Hash().String())).Msg("created tag")
	return nil
}

// tagger builds the tag author from gitconfig, with a service identity as
// fallback for bare CI runners.
func (r *Repository) tagger() *object.Signature {
	name, email := "lgtm-release", "lgtm-release@users.noreply.github.com"
	if cfg, err := r.repo.ConfigScoped(config.SystemScope); err == nil {
		if cfg.User.Name != "" {
			name = cfg.User.Name
		}
		if cfg.User.Email != "" {
			email = cfg.User.Email
		}
	}
	return &object.Signature{Name: name, Email: email, When: time.Now()}
}

// PushTag pushes one tag to a remote via the git binary, so credential
// helpers and instead-of rewrites behave as they do on the command line.
func (r *Repository) PushTag(name, remote string) error {
	if remote == "" {
		remote = "origin"
	}

	cmd := exec.Command("git", "-C", r.root, "push", remote, "refs/tags/"+name)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	r.log.Debug().Str("remote", remote).Str("tag", name).Msg("pushing tag")
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return fmt.Errorf("push tag %s to %s: %v: %s", name, remote, err, detail)
		}
		return fmt.Errorf("push tag %s to %s: %w", name, remote, err)
	}

	r.log.Info().Str("remote", remote).Str("tag", name).Msg("pushed tag")
	return nil
}
