// Package ghaction writes step outputs, exported env vars and job summaries
// the way the GitHub Actions runner consumes them: appended to the files
// named by GITHUB_OUTPUT, GITHUB_ENV and GITHUB_STEP_SUMMARY.
//
// Outside a runner those variables are unset; the Writer then only mirrors
// key=value pairs to its mirror stream, so local runs show exactly what CI
// would record.
package ghaction

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// InActions reports whether the process runs inside a GitHub Actions job.
func InActions() bool {
	return os.Getenv("GITHUB_ACTIONS") == "true"
}

// Writer appends to the runner's command files.
type Writer struct {
	outputPath  string
	envPath     string
	summaryPath string
	mirror      io.Writer
}

// New returns a Writer bound to the current environment. mirror may be nil
// when the caller prints results some other way.
func New(mirror io.Writer) *Writer {
	return &Writer{
		outputPath:  os.Getenv("GITHUB_OUTPUT"),
		envPath:     os.Getenv("GITHUB_ENV"),
		summaryPath: os.Getenv("GITHUB_STEP_SUMMARY"),
		mirror:      mirror,
	}
}

// SetOutput records a step output.
func (w *Writer) SetOutput(key, value string) error {
	return w.appendKV(w.outputPath, key, value)
}

// ExportEnv exports an environment variable to the following job steps.
func (w *Writer) ExportEnv(key, value string) error {
	return w.appendKV(w.envPath, key, value)
}

// AddSummary appends Markdown to the job summary. Outside a runner the
// summary goes to the mirror.
func (w *Writer) AddSummary(markdown string) error {
	if !strings.HasSuffix(markdown, "\n") {
		markdown += "\n"
	}
	if w.summaryPath == "" {
		if w.mirror != nil {
			_, err := io.WriteString(w.mirror, markdown)
			return err
		}
		return nil
	}
	return appendFile(w.summaryPath, markdown)
}

func (w *Writer) appendKV(path, key, value string) error {
	line := encodeKV(key, value)
	if w.mirror != nil {
		if _, err := io.WriteString(w.mirror, line); err != nil {
			return err
		}
	}
	if path == "" {
		return nil
	}
	return appendFile(path, line)
}

// encodeKV renders one assignment in the runner's file format. Multiline
// values use the heredoc form with a delimiter not occurring in the value.
func encodeKV(key, value string) string {
	if !strings.Contains(value, "\n") {
		return key + "=" + value + "\n"
	}
	delim := "lgtm_EOF"
	for strings.Contains(value, delim) {
		delim += "_"
	}
	if !strings.HasSuffix(value, "\n") {
		value += "\n"
	}
	return key + "<<" + delim + "\n" + value + delim + "\n"
}

func appendFile(path, content string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("append %s: %w", path, err)
	}
	defer f.Close()
	if _, err := f.WriteString(content); err != nil {
		return fmt.Errorf("append %s: %w", path, err)
	}
	return nil
}
