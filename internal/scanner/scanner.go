// Package scanner discovers C/C++ source files under a directory tree,
// honoring .gcpgignore files with gitignore-style patterns.
package scanner

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// languageMap maps C/C++ file extensions to the grammar to use.
var languageMap = map[string]string{
	".c":   "c",
	".cpp": "cpp",
	".cxx": "cpp",
	".cc":  "cpp",
	".c++": "cpp",
	".hpp": "cpp",
	".hxx": "cpp",
	".hh":  "cpp",
	".h++": "cpp",
	// headers without a dialect marker default to C++
	".h": "cpp",
}

// FileInfo represents one discovered source file.
type FileInfo struct {
	Path     string // Relative path from root
	FullPath string // Absolute path
	Language string // "c" or "cpp"
	Size     int64  // File size in bytes
}

// Options configures the scanner behavior.
type Options struct {
	SkipHidden      bool     // Skip hidden files and directories
	DefaultExcludes []string // Directory names to exclude
	IgnoreFileName  string   // Name of the ignore file
}

// DefaultOptions returns scanner options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		SkipHidden:     true,
		IgnoreFileName: ".gcpgignore",
		DefaultExcludes: []string{
			".git",
			"build",
			"cmake-build-debug",
			"cmake-build-release",
			"out",
			"dist",
			"vendor",
			"third_party",
			"node_modules",
			".idea",
			".vscode",
		},
	}
}

// Scanner walks a directory tree for C/C++ sources.
type Scanner struct {
	opts Options
	root string
}

// New creates a new Scanner with the given options.
func New(opts Options) *Scanner {
	return &Scanner{opts: opts}
}

// Scan recursively scans the directory at root and returns the C/C++ files
// found, respecting ignore patterns and default exclusions.
func (s *Scanner) Scan(root string) ([]FileInfo, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("getting absolute path: %w", err)
	}
	s.root = absRoot

	patterns, err := s.loadIgnorePatterns(absRoot)
	if err != nil {
		return nil, fmt.Errorf("loading ignore patterns: %w", err)
	}

	var files []FileInfo

	err = filepath.Walk(absRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}

		relPath, err := filepath.Rel(absRoot, path)
		if err != nil || relPath == "." {
			return nil
		}
		relPathSlash := filepath.ToSlash(relPath)

		if s.opts.SkipHidden && strings.HasPrefix(info.Name(), ".") {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if info.IsDir() {
			if s.isDefaultExcluded(info.Name()) {
				return filepath.SkipDir
			}
			nested, err := s.loadIgnorePatterns(path)
			if err == nil {
				patterns = append(patterns, nested...)
			}
			return nil
		}

		if matchesAny(relPathSlash, patterns) {
			return nil
		}

		language, ok := languageMap[strings.ToLower(filepath.Ext(path))]
		if !ok {
			return nil
		}

		files = append(files, FileInfo{
			Path:     relPathSlash,
			FullPath: path,
			Language: language,
			Size:     info.Size(),
		})
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	return files, nil
}

func (s *Scanner) isDefaultExcluded(name string) bool {
	for _, exclude := range s.opts.DefaultExcludes {
		if strings.EqualFold(name, exclude) {
			return true
		}
	}
	return false
}

// loadIgnorePatterns reads the ignore file of a directory, skipping blank
// lines and comments.
func (s *Scanner) loadIgnorePatterns(dir string) ([]string, error) {
	file, err := os.Open(filepath.Join(dir, s.opts.IgnoreFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	var patterns []string
	sc := bufio.NewScanner(file)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	return patterns, sc.Err()
}

// matchesAny matches a relative slash path against ignore patterns:
// directory prefixes ("gen/"), glob patterns on the base name or full path,
// and exact relative paths.
func matchesAny(relPath string, patterns []string) bool {
	base := filepath.Base(relPath)
	for _, p := range patterns {
		if strings.HasSuffix(p, "/") {
			dir := strings.TrimSuffix(p, "/")
			if relPath == dir || strings.HasPrefix(relPath, dir+"/") || strings.Contains(relPath, "/"+dir+"/") {
				return true
			}
			continue
		}
		if ok, _ := filepath.Match(p, base); ok {
			return true
		}
		if ok, _ := filepath.Match(p, relPath); ok {
			return true
		}
		if relPath == p {
			return true
		}
	}
	return false
}

// Scan is a convenience function that scans a directory with default options.
func Scan(root string) ([]FileInfo, error) {
	return New(DefaultOptions()).Scan(root)
}
