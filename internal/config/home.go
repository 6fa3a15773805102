package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const modulePath = "github.com/harrison/sitecheck"

// GetSitecheckHome returns the sitecheck home directory
// Priority order:
//  1. SITECHECK_HOME environment variable (if set)
//  2. Project root (a .sitecheck-root marker or the sitecheck go.mod)
//  3. Current working directory (fallback)
//
// The directory is created if it doesn't exist.
func GetSitecheckHome() (string, error) {
	if home := os.Getenv("SITECHECK_HOME"); home != "" {
		return home, nil
	}

	base, err := findProjectRoot()
	if err != nil || base == "" {
		base, err = os.Getwd()
		if err != nil {
			return "", fmt.Errorf("get working directory: %w", err)
		}
	}

	home := filepath.Join(base, ".sitecheck")
	if err := os.MkdirAll(home, 0755); err != nil {
		return "", fmt.Errorf("create sitecheck home directory: %w", err)
	}
	return home, nil
}

// findProjectRoot walks up from the working directory looking for a
// .sitecheck-root marker or a go.mod declaring the sitecheck module.
func findProjectRoot() (string, error) {
	current, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(current, ".sitecheck-root")); err == nil {
			return current, nil
		}
		if data, err := os.ReadFile(filepath.Join(current, "go.mod")); err == nil {
			if strings.Contains(string(data), "module "+modulePath) {
				return current, nil
			}
		}

		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		current = parent
	}

	return "", fmt.Errorf("sitecheck project root not found (looking for .sitecheck-root or go.mod with %s)", modulePath)
}

// GetDBPath returns the default database location: $SITECHECK_HOME/sitecheck.db.
func GetDBPath() (string, error) {
	home, err := GetSitecheckHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "sitecheck.db"), nil
}
