// Package semver parses, compares and bumps semantic versions
// (https://semver.org, spec 2.0.0).
//
// Versions are handled without a "v" prefix internally. Parse accepts an
// optional leading "v" so git tag names can be fed in directly, and TagName
// puts a configurable prefix back on for tag creation.
package semver

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	xsemver "golang.org/x/mod/semver"
)

// ErrInvalidFormat reports a string that is not a semantic version.
var ErrInvalidFormat = errors.New("invalid semantic version")

// Version is a parsed semantic version.
// The zero value is 0.0.0, the baseline of an unreleased repository.
type Version struct {
	Major      uint64
	Minor      uint64
	Patch      uint64
	Prerelease string
	Build      string
}

// Parse parses s into a Version. A single leading "v" is tolerated.
func Parse(s string) (Version, error) {
	orig := s
	s = strings.TrimPrefix(s, "v")
	if s == "" {
		return Version{}, fmt.Errorf("%w: %q", ErrInvalidFormat, orig)
	}

	var v Version
	if i := strings.IndexByte(s, '+'); i >= 0 {
		v.Build = s[i+1:]
		s = s[:i]
		if err := validateIdents(v.Build, false); err != nil {
			return Version{}, fmt.Errorf("%w: %q: build metadata: %v", ErrInvalidFormat, orig, err)
		}
	}
	if i := strings.IndexByte(s, '-'); i >= 0 {
		v.Prerelease = s[i+1:]
		s = s[:i]
		if err := validateIdents(v.Prerelease, true); err != nil {
			return Version{}, fmt.Errorf("%w: %q: prerelease: %v", ErrInvalidFormat, orig, err)
		}
	}

	nums := strings.Split(s, ".")
	if len(nums) != 3 {
		return Version{}, fmt.Errorf("%w: %q: want major.minor.patch", ErrInvalidFormat, orig)
	}
	for i, dst := range []*uint64{&v.Major, &v.Minor, &v.Patch} {
		n, err := parseNumber(nums[i])
		if err != nil {
			return Version{}, fmt.Errorf("%w: %q: %v", ErrInvalidFormat, orig, err)
		}
		*dst = n
	}
	return v, nil
}

// MustParse is Parse for literals in tests and defaults. It panics on error.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

func parseNumber(s string) (uint64, error) {
	if s == "" {
		return 0, errors.New("empty number")
	}
	if len(s) > 1 && s[0] == '0' {
		return 0, fmt.Errorf("leading zero in %q", s)
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	return n, nil
}

// validateIdents checks a dot-separated identifier sequence.
// Numeric prerelease identifiers must not have leading zeros.
func validateIdents(s string, prerelease bool) error {
	for _, id := range strings.Split(s, ".") {
		if id == "" {
			return errors.New("empty identifier")
		}
		numeric := true
		for i := 0; i < len(id); i++ {
			c := id[i]
			switch {
			case c >= '0' && c <= '9':
			case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '-':
				numeric = false
			default:
				return fmt.Errorf("bad character %q in %q", c, id)
			}
		}
		if prerelease && numeric && len(id) > 1 && id[0] == '0' {
			return fmt.Errorf("leading zero in %q", id)
		}
	}
	return nil
}

// String renders the version without a "v" prefix, e.g. "1.2.3-rc.1+build.5".
func (v Version) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.Prerelease != "" {
		b.WriteByte('-')
		b.WriteString(v.Prerelease)
	}
	if v.Build != "" {
		b.WriteByte('+')
		b.WriteString(v.Build)
	}
	return b.String()
}

// TagName renders the version as a tag name with the given prefix.
func (v Version) TagName(prefix string) string {
	return prefix + v.String()
}

// comparable renders the form golang.org/x/mod/semver expects.
// Build metadata is dropped; it never participates in precedence.
func (v Version) comparable() string {
	s := fmt.Sprintf("v%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.Prerelease != "" {
		s += "-" + v.Prerelease
	}
	return s
}

// Compare returns -1, 0 or +1 by semantic version precedence.
// A prerelease sorts before its release; build metadata is ignored.
func Compare(a, b Version) int {
	return xsemver.Compare(a.comparable(), b.comparable())
}

// ErrBumpNone reports an attempt to apply the "none" bump level.
var ErrBumpNone = errors.New(`bump level "none" cannot be applied`)

// Bump returns the next version for the given level. Lower components reset
// to zero and any prerelease or build metadata is dropped.
func (v Version) Bump(level BumpLevel) (Version, error) {
	switch level {
	case BumpMajor:
		return Version{Major: v.Major + 1}, nil
	case BumpMinor:
		return Version{Major: v.Major, Minor: v.Minor + 1}, nil
	case BumpPatch:
		return Version{Major: v.Major, Minor: v.Minor, Patch: v.Patch + 1}, nil
	}
	return Version{}, ErrBumpNone
}

// BumpLevel is the magnitude of a version bump, ordered
// none < patch < minor < major.
type BumpLevel int

const (
	BumpNone BumpLevel = iota
	BumpPatch
	BumpMinor
	BumpMajor
)

var bumpNames = [...]string{"none", "patch", "minor", "major"}

func (l BumpLevel) String() string {
	if l < BumpNone || l > BumpMajor {
		return fmt.Sprintf("BumpLevel(%d)", int(l))
	}
	return bumpNames[l]
}

// ParseBumpLevel parses one of "none", "patch", "minor", "major".
func ParseBumpLevel(s string) (BumpLevel, error) {
	for i, n := range bumpNames {
		if s == n {
			return BumpLevel(i), nil
		}
	}
	return BumpNone, fmt.Errorf("unknown bump level %q (want none, patch, minor or major)", s)
}

// Clamp caps l at max. It never raises a level.
func (l BumpLevel) Clamp(max BumpLevel) BumpLevel {
	if l > max {
		return max
	}
	return l
}

// Max returns the larger of the two levels.
func Max(a, b BumpLevel) BumpLevel {
	if a > b {
		return a
	}
	return b
}
