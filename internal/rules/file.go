package rules

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	git "github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/plumbing/format/config"
	"github.com/shu-go/findcfg"
	"github.com/shu-go/orderedmap"
	"gopkg.in/yaml.v3"
)

const (
	userConfigFolder = "lgtm-release"

	// DefaultFileName is the rule file basename, extension excluded.
	DefaultFileName = ".lgtm-release"

	configSection = "lgtm-release"
	configRule    = "rule"
)

// Discover locates and loads the rule file for a repository, searching the
// worktree root, the gitconfig override, the user config dir and the
// executable dir. It falls back to Default(false) when nothing is found or
// the found file does not load. The second return is the path used, or the
// fallback path when the default rule is returned.
func Discover(repo *git.Repository) (Rule, string) {
	var rootDir string
	if repo != nil {
		if wt, err := repo.Worktree(); err == nil {
			rootDir = wt.Filesystem.Root()
		}
	}

	var exactPath string
	if rootDir != "" {
		if cfg := getGitConfig(repo, configRule); cfg != nil {
			exactPath = filepath.Join(rootDir, *cfg)
		}
	}

	finder := findcfg.New(
		findcfg.Name(DefaultFileName),
		findcfg.ExactPath(exactPath),
		findcfg.YAML(),
		findcfg.JSON(),
		findcfg.Dir(rootDir),
		findcfg.UserConfigDir(userConfigFolder),
		findcfg.ExecutableDir(),
	)
	found := finder.Find()
	if found != nil {
		if r, err := Load(found.Path); err == nil {
			return r, found.Path
		}
	}

	return Default(false), finder.FallbackPath()
}

// Load reads and validates a rule file. YAML and JSON are told apart by
// extension; anything else is tried as YAML first, then JSON.
func Load(filename string) (Rule, error) {
	if s, err := os.Stat(filename); err != nil {
		return Rule{}, err
	} else if s.IsDir() {
		return Rule{}, fmt.Errorf("%s is a directory", filename)
	}

	file, err := os.Open(filename)
	if err != nil {
		return Rule{}, err
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return Rule{}, err
	}

	r := Rule{
		Types: orderedmap.New[string, CommitType](),
	}

	switch {
	case in(filepath.Ext(filename), ".yaml", ".yml"):
		err = yaml.Unmarshal(content, &r)
	case in(filepath.Ext(filename), ".json"):
		err = json.Unmarshal(content, &r)
	default:
		err = yaml.Unmarshal(content, &r)
		if err != nil {
			err = json.Unmarshal(content, &r)
		}
	}
	if err != nil {
		return Rule{}, fmt.Errorf("rule file %s: %w", filename, err)
	}

	if err := r.Validate(); err != nil {
		return Rule{}, fmt.Errorf("rule file %s: %w", filename, err)
	}
	r.Normalize()
	return r, nil
}

// Write marshals a rule to filename, as JSON for a .json extension and as
// YAML otherwise.
func Write(filename string, r Rule) error {
	var content []byte
	var err error
	if in(filepath.Ext(filename), ".json") {
		content, err = json.MarshalIndent(r, "", "  ")
	} else {
		content, err = yaml.Marshal(r)
	}
	if err != nil {
		return err
	}

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = file.Write(content)
	return err
}

func getGitConfig(repo *git.Repository, key string) *string {
	config, err := repo.Config()
	if err != nil {
		return nil
	}

	var ss *gitconfig.Section
	var found bool
	for _, s := range config.Raw.Sections {
		if s.Name == configSection {
			found = true
			ss = s
		}
	}
	if !found {
		return nil
	}

	if v := ss.Options.Get(key); v != "" {
		return &v
	}
	return nil
}

func in(s string, choices ...string) bool {
	for i := 0; i < len(choices); i++ {
		if strings.EqualFold(s, choices[i]) {
			return true
		}
	}
	return false
}
