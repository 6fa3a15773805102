package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// ReportExtensions are the extensions the report parsers understand.
var ReportExtensions = []string{".md", ".markdown", ".yaml", ".yml"}

// ScanOptions configures which files ScanDirectory returns.
type ScanOptions struct {
	// Pattern is matched against the file name without its extension
	Pattern string
	// Extensions limits results to these extensions (case-insensitive)
	Extensions []string
	// Recursive descends into subdirectories
	Recursive bool
	// ExcludeDirs names directories that are never entered
	ExcludeDirs []string
	// MaxDepth limits recursion (0 = unlimited, 1 = top level only)
	MaxDepth int
}

// ScanResult holds the matched files and any non-fatal errors.
type ScanResult struct {
	Files  []string
	Errors []error
}

// ScanDirectory walks dir and collects the files matching opts.
func ScanDirectory(dir string, opts ScanOptions) (*ScanResult, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to access directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", dir)
	}

	var pattern *regexp.Regexp
	if opts.Pattern != "" {
		if pattern, err = regexp.Compile(opts.Pattern); err != nil {
			return nil, fmt.Errorf("invalid pattern: %w", err)
		}
	}

	extensions := make(map[string]bool, len(opts.Extensions))
	for _, ext := range opts.Extensions {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		extensions[strings.ToLower(ext)] = true
	}
	excluded := make(map[string]bool, len(opts.ExcludeDirs))
	for _, name := range opts.ExcludeDirs {
		excluded[name] = true
	}

	result := &ScanResult{Files: []string{}, Errors: []error{}}

	walkErr := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("error accessing %s: %w", path, err))
			return nil
		}
		if path == dir {
			return nil
		}

		if d.IsDir() {
			if !opts.Recursive || excluded[d.Name()] || strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			if opts.MaxDepth > 0 {
				rel, _ := filepath.Rel(dir, path)
				if strings.Count(rel, string(filepath.Separator))+1 >= opts.MaxDepth {
					return filepath.SkipDir
				}
			}
			return nil
		}

		name := d.Name()
		ext := filepath.Ext(name)
		if len(extensions) > 0 && !extensions[strings.ToLower(ext)] {
			return nil
		}
		if pattern != nil && !pattern.MatchString(strings.TrimSuffix(name, ext)) {
			return nil
		}

		abs, err := filepath.Abs(path)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("failed to resolve path %s: %w", path, err))
			return nil
		}
		result.Files = append(result.Files, abs)
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", walkErr)
	}

	sort.Strings(result.Files)
	return result, nil
}

// ScanReports returns the report files in dir selected by opts.
// Extensions is always ReportExtensions.
func ScanReports(dir string, opts ScanOptions) (*ScanResult, error) {
	opts.Extensions = ReportExtensions
	return ScanDirectory(dir, opts)
}
