package utils

import (
	"os"
	"path/filepath"
	"strings"
)

// Slugify converts a name to a directory-safe slug
// Example: "Critical Bug Fixes" -> "critical-bug-fixes"
func Slugify(name string) string {
	slug := strings.ToLower(name)
	slug = strings.ReplaceAll(slug, " ", "-")
	result := ""
	for _, c := range slug {
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '-' {
			result += string(c)
		}
	}
	return result
}

// ExpandUser expands a leading "~" to the current user's home directory.
func ExpandUser(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}

// OrganizerDir returns $HOME/.organizer, the root of all organizer state.
func OrganizerDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".organizer"), nil
}
