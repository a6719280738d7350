// Package gitscan collects candidate translation units from revision
// history. It shells out to git, scans the added lines of each commit's
// patch for Qt translation calls (tr, QObject::tr,
// QCoreApplication::translate) and returns deduplicated units with
// empty translations.
//
// The line extractor is a pure function over single source lines, so the
// heuristics are testable without a repository.
package gitscan

import (
	"bufio"
	"fmt"
	"io"
	"os/exec"
	"path"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/linguakit/tskit/tsfile"
)

// DefaultMaxCommits bounds how much history one collection may scan.
const DefaultMaxCommits = 200

// maxScanLine bounds per-line regex cost; longer lines (minified or
// generated code) are skipped rather than matched.
const maxScanLine = 2000

// RangeError reports a revision range exceeding the configured bound.
// The scan is rejected before git log is invoked.
type RangeError struct {
	Range   string
	Commits int
	Max     int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("revision range %s spans %d commits, limit %d", e.Range, e.Commits, e.Max)
}

// Qt translation call patterns. translate() carries an explicit context;
// plain tr() calls take the enclosing file's stem as context, which is
// how Qt resolves them for classes named after their file.
var (
	reTranslate = regexp.MustCompile(`QCoreApplication::translate\s*\(\s*["']([^"']+)["']\s*,\s*["']([^"']+)["']`)
	reTr        = regexp.MustCompile(`\btr\s*\(\s*["']([^"']+)["']\s*[,)]`)
)

// ExtractLine scans one source line for translation calls and returns
// the candidate units, in match order. filePath supplies the fallback
// context for plain tr() calls.
func ExtractLine(line, filePath string) []tsfile.Unit {
	if len(line) > maxScanLine {
		return nil
	}

	var units []tsfile.Unit
	for _, m := range reTranslate.FindAllStringSubmatch(line, -1) {
		units = append(units, tsfile.Unit{Context: m[1], Source: m[2]})
	}

	stem := strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))
	for _, m := range reTr.FindAllStringSubmatch(line, -1) {
		units = append(units, tsfile.Unit{Context: stem, Source: m[1]})
	}
	return units
}

// MatchesGlobs reports whether a file path matches any of the glob
// patterns. Patterns are tried against both the full slash path and the
// base name, so "*.cpp" and "src/*.cpp" both behave as expected.
func MatchesGlobs(filePath string, globs []string) bool {
	if filePath == "" {
		return false
	}
	slashed := filepath.ToSlash(filePath)
	for _, g := range globs {
		if ok, err := path.Match(g, slashed); err == nil && ok {
			return true
		}
		if ok, err := path.Match(g, path.Base(slashed)); err == nil && ok {
			return true
		}
	}
	return false
}

// Collect scans the added lines of the given revision range for
// translation calls in files matching the globs. The range is rejected
// with a RangeError before any patch is read when it spans more commits
// than maxCommits (0 means DefaultMaxCommits).
func Collect(repoDir, commitRange string, globs []string, maxCommits int) ([]tsfile.Unit, error) {
	if maxCommits <= 0 {
		maxCommits = DefaultMaxCommits
	}

	gitPath, err := exec.LookPath("git")
	if err != nil {
		return nil, fmt.Errorf("git not found in PATH: %w", err)
	}

	n, err := countCommits(gitPath, repoDir, commitRange)
	if err != nil {
		return nil, err
	}
	if n > maxCommits {
		return nil, &RangeError{Range: commitRange, Commits: n, Max: maxCommits}
	}

	cmd := exec.Command(gitPath, "-C", repoDir, "log", "--no-color", "--unified=0", "-p", commitRange)
	out, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("running git log: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("running git log: %w", err)
	}

	units := ParsePatch(out, globs)

	if err := cmd.Wait(); err != nil {
		return nil, fmt.Errorf("git log %s: %w", commitRange, err)
	}
	return units, nil
}

// countCommits asks git how many commits the range spans.
func countCommits(gitPath, repoDir, commitRange string) (int, error) {
	cmd := exec.Command(gitPath, "-C", repoDir, "rev-list", "--count", commitRange)
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("git rev-list %s: %w", commitRange, err)
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(out)))
	if err != nil {
		return 0, fmt.Errorf("git rev-list %s: unexpected output %q", commitRange, out)
	}
	return n, nil
}

// ParsePatch reads unified diff output and extracts translation units
// from added lines of files matching the globs. Units are deduplicated
// by (context, source); the first occurrence wins.
func ParsePatch(r io.Reader, globs []string) []tsfile.Unit {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var units []tsfile.Unit
	seen := make(map[string]bool)
	currentFile := ""

	for scanner.Scan() {
		line := scanner.Text()

		if strings.HasPrefix(line, "+++ ") {
			currentFile = strings.TrimPrefix(line, "+++ ")
			currentFile = strings.TrimPrefix(currentFile, "b/")
			if currentFile == "/dev/null" {
				currentFile = ""
			}
			continue
		}
		if !strings.HasPrefix(line, "+") {
			continue
		}
		if currentFile == "" || !MatchesGlobs(currentFile, globs) {
			continue
		}

		for _, u := range ExtractLine(line[1:], currentFile) {
			key := u.Context + "\x04" + u.Source
			if seen[key] {
				continue
			}
			seen[key] = true
			units = append(units, u)
		}
	}
	return units
}
