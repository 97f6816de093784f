package utils

import (
	"io/fs"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// PatternMatcher matches slash-separated relative paths against glob
// patterns. "**" spans directories; "*" and "?" stay within one segment.
type PatternMatcher struct {
	patterns []string
	regexps  []*regexp.Regexp
}

// NewPatternMatcher compiles patterns
func NewPatternMatcher(patterns []string) (*PatternMatcher, error) {
	pm := &PatternMatcher{regexps: make([]*regexp.Regexp, 0, len(patterns))}
	for _, p := range patterns {
		p = NormalizePattern(p)
		re, err := globToRegex(p)
		if err != nil {
			return nil, err
		}
		pm.patterns = append(pm.patterns, p)
		pm.regexps = append(pm.regexps, re)
	}
	return pm, nil
}

// Patterns returns the normalized patterns
func (pm *PatternMatcher) Patterns() []string {
	return append([]string(nil), pm.patterns...)
}

// Match checks if path matches any pattern
func (pm *PatternMatcher) Match(path string) bool {
	path = strings.TrimPrefix(filepath.ToSlash(path), "./")
	for _, re := range pm.regexps {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}

func globToRegex(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("^")

	for i := 0; i < len(pattern); {
		c := pattern[i]
		switch {
		case c == '*' && i+1 < len(pattern) && pattern[i+1] == '*':
			if i+2 < len(pattern) && pattern[i+2] == '/' {
				b.WriteString("(?:.*/)?")
				i += 3
			} else {
				b.WriteString(".*")
				i += 2
			}
		case c == '*':
			b.WriteString("[^/]*")
			i++
		case c == '?':
			b.WriteString("[^/]")
			i++
		case c == '[':
			end := strings.IndexByte(pattern[i+1:], ']')
			if end < 0 {
				b.WriteString(`\[`)
				i++
				continue
			}
			class := pattern[i+1 : i+1+end]
			if strings.HasPrefix(class, "!") {
				class = "^" + class[1:]
			}
			b.WriteString("[" + class + "]")
			i += end + 2
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
			i++
		}
	}

	b.WriteString("$")
	return regexp.Compile(b.String())
}

// IsGlobPattern checks if a string contains glob wildcards
func IsGlobPattern(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[")
}

// NormalizePattern converts separators to slashes and drops a leading "./"
func NormalizePattern(pattern string) string {
	pattern = strings.ReplaceAll(pattern, `\`, "/")
	pattern = strings.TrimPrefix(pattern, "./")
	return strings.TrimSuffix(pattern, "/")
}

// Glob returns the sorted files under root matching pattern. A pattern
// without wildcards names a single file, returned only if it exists.
// Absolute patterns are matched against their own static prefix.
func Glob(root, pattern string) ([]string, error) {
	pattern = NormalizePattern(pattern)
	if filepath.IsAbs(filepath.FromSlash(pattern)) || strings.HasPrefix(pattern, "/") {
		root, pattern = splitStatic(pattern)
	}
	if !IsGlobPattern(pattern) {
		path := filepath.Join(root, filepath.FromSlash(pattern))
		if FileExists(path) {
			return []string{path}, nil
		}
		return nil, nil
	}

	if !strings.Contains(pattern, "**") {
		matches, err := filepath.Glob(filepath.Join(root, filepath.FromSlash(pattern)))
		if err != nil {
			return nil, err
		}
		files := matches[:0]
		for _, m := range matches {
			if FileExists(m) {
				files = append(files, m)
			}
		}
		sort.Strings(files)
		return files, nil
	}

	pm, err := NewPatternMatcher([]string{pattern})
	if err != nil {
		return nil, err
	}
	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if pm.Match(rel) {
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)
	return files, err
}

// splitStatic splits an absolute pattern into the directory before the
// first wildcard segment and the remaining pattern
func splitStatic(pattern string) (string, string) {
	segments := strings.Split(pattern, "/")
	for i, seg := range segments {
		if IsGlobPattern(seg) {
			dir := strings.Join(segments[:i], "/")
			if dir == "" {
				dir = "/"
			}
			return filepath.FromSlash(dir), strings.Join(segments[i:], "/")
		}
	}
	dir, file := filepath.Split(filepath.FromSlash(pattern))
	return dir, file
}
