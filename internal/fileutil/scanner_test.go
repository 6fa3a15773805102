package fileutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, f := range files {
		path := filepath.Join(root, f)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	}
}

func baseNames(files []string) []string {
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = filepath.Base(f)
	}
	return names
}

func TestScanDirectory(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root,
		"2026-01-roof.md",
		"2026-02-survey.yaml",
		"notes.txt",
		"Walkthrough.MD",
		"archive/2025-11-old.md",
		"archive/deeper/2025-01-older.yml",
		".drafts/draft.md",
		"photos/front.md",
	)

	tests := []struct {
		name string
		opts ScanOptions
		want []string
	}{
		{
			name: "top level reports only",
			opts: ScanOptions{Extensions: ReportExtensions},
			want: []string{"2026-01-roof.md", "2026-02-survey.yaml", "Walkthrough.MD"},
		},
		{
			name: "extensions without dot",
			opts: ScanOptions{Extensions: []string{"txt"}},
			want: []string{"notes.txt"},
		},
		{
			name: "recursive skips hidden and excluded",
			opts: ScanOptions{Extensions: ReportExtensions, Recursive: true, ExcludeDirs: []string{"photos"}},
			want: []string{"2026-01-roof.md", "2026-02-survey.yaml", "Walkthrough.MD", "2025-11-old.md", "2025-01-older.yml"},
		},
		{
			name: "max depth two",
			opts: ScanOptions{Extensions: []string{".md"}, Recursive: true, MaxDepth: 2, ExcludeDirs: []string{"photos"}},
			want: []string{"2026-01-roof.md", "Walkthrough.MD", "2025-11-old.md"},
		},
		{
			name: "pattern on name without extension",
			opts: ScanOptions{Pattern: `^\d{4}-\d{2}-`, Recursive: true},
			want: []string{"2026-01-roof.md", "2026-02-survey.yaml", "2025-11-old.md", "2025-01-older.yml"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ScanDirectory(root, tt.opts)
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, baseNames(result.Files))
			assert.Empty(t, result.Errors)
			assert.IsNonDecreasing(t, result.Files)
			for _, f := range result.Files {
				assert.True(t, filepath.IsAbs(f))
			}
		})
	}
}

func TestScanDirectory_Errors(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "report.md")

	_, err := ScanDirectory(filepath.Join(root, "missing"), ScanOptions{})
	assert.Error(t, err)

	_, err = ScanDirectory(filepath.Join(root, "report.md"), ScanOptions{})
	assert.ErrorContains(t, err, "not a directory")

	_, err = ScanDirectory(root, ScanOptions{Pattern: "[unclosed"})
	assert.ErrorContains(t, err, "invalid pattern")
}

func TestScanReports(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "b.yaml", "a.md", "c.markdown", "d.json", "sub/e.md")

	result, err := ScanReports(root, ScanOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.md", "b.yaml", "c.markdown"}, baseNames(result.Files))

	result, err = ScanReports(root, ScanOptions{Recursive: true, Extensions: []string{".json"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.md", "b.yaml", "c.markdown", "e.md"}, baseNames(result.Files))
}
