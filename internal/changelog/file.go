package changelog

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Insert splices a rendered release section into existing CHANGELOG
// content. The new section goes right above the first version heading
// ("## ["), at the top when the file starts with one, and at the end when
// the file has none yet.
func Insert(existing, section string) string {
	section = strings.TrimRight(section, "\n") + "\n"
	if strings.TrimSpace(existing) == "" {
		return section
	}

	idx := headingIndex(existing)
	switch {
	case idx < 0:
		return strings.TrimRight(existing, "\n") + "\n\n" + section
	case idx == 0:
		return section + "\n" + existing
	default:
		return existing[:idx] + section + "\n" + existing[idx:]
	}
}

// headingIndex returns the byte offset of the first line starting a version
// section, or -1.
func headingIndex(content string) int {
	offset := 0
	for {
		line := content[offset:]
		if i := strings.IndexByte(line, '\n'); i >= 0 {
			line = line[:i]
		}
		if strings.HasPrefix(line, "## [") {
			return offset
		}
		i := strings.IndexByte(content[offset:], '\n')
		if i < 0 {
			return -1
		}
		offset += i + 1
	}
}

// UpdateFile splices section into the file at path, creating it when
// missing, and returns the content written.
func UpdateFile(path, section string) (string, error) {
	existing, err := readIfExists(path)
	if err != nil {
		return "", err
	}
	updated := Insert(existing, section)
	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		return "", err
	}
	return updated, nil
}

// PreviewFile returns the unified diff UpdateFile would cause, without
// writing anything.
func PreviewFile(path, section string) (string, error) {
	existing, err := readIfExists(path)
	if err != nil {
		return "", err
	}
	updated := Insert(existing, section)

	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(existing),
		B:        difflib.SplitLines(updated),
		FromFile: "a/" + path,
		ToFile:   "b/" + path,
		Context:  3,
	})
}

func readIfExists(path string) (string, error) {
	content, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(content), nil
}
