// Package ghcli drives the GitHub CLI (gh) for release operations. Going
// through gh instead of the REST API keeps authentication where operators
// already have it: gh auth, GH_TOKEN, or the Actions-provided token.
package ghcli

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"
)

// Client runs gh commands in a repository directory.
type Client struct {
	dir string
	log zerolog.Logger
}

func New(dir string, logger zerolog.Logger) Client {
	return Client{dir: dir, log: logger}
}

// Available checks that the gh binary is on PATH.
func (c Client) Available() error {
	if _, err := exec.LookPath("gh"); err != nil {
		return fmt.Errorf("gh not found in PATH (install the GitHub CLI or skip publishing): %w", err)
	}
	return nil
}

// ReleaseExists reports whether a release for tag is already published.
// A failing view counts as absent; creating is the authoritative check.
func (c Client) ReleaseExists(tag string) (bool, error) {
	cmd := exec.Command("gh", "release", "view", tag, "--json", "name")
	cmd.Dir = c.dir
	if err := cmd.Run(); err != nil {
		c.log.Debug().Str("tag", tag).Err(err).Msg("gh release view failed, treating as absent")
		return false, nil
	}
	return true, nil
}

// createArgs assembles the gh argument list for one release creation.
// The notes always arrive on stdin.
func createArgs(tag, title string, draft, prerelease bool) []string {
	args := []string{"release", "create", tag, "--title", title, "--notes-file", "-"}
	if draft {
		args = append(args, "--draft")
	}
	if prerelease {
		args = append(args, "--prerelease")
	}
	return args
}

// CreateRelease publishes a release for an existing tag and returns its URL.
// The body goes through stdin so Markdown of any size survives unmangled.
func (c Client) CreateRelease(tag, title, body string, draft, prerelease bool) (string, error) {
	if err := c.Available(); err != nil {
		return "", err
	}

	cmd := exec.Command("gh", createArgs(tag, title, draft, prerelease)...)
	cmd.Dir = c.dir
	cmd.Stdin = strings.NewReader(body)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	c.log.Debug().Str("tag", tag).Bool("draft", draft).Bool("prerelease", prerelease).Msg("creating release")
	out, err := cmd.Output()
	if err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return "", fmt.Errorf("gh release create %s: %v: %s", tag, err, detail)
		}
		return "", fmt.Errorf("gh release create %s: %w", tag, err)
	}

	url := strings.TrimSpace(string(out))
	c.log.Info().Str("tag", tag).Str("url", url).Msg("created release")
	return url, nil
}
