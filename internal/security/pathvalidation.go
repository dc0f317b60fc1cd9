// Package security provides filesystem path validation helpers.
package security

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ValidatePathWithinDirectory rejects file paths that resolve outside
// dir, including escapes through ".." components and symlinked parents.
func ValidatePathWithinDirectory(filePath, dir string) error {
	absPath, err := filepath.Abs(filepath.Clean(filePath))
	if err != nil {
		return fmt.Errorf("resolving path: %w", err)
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolving directory: %w", err)
	}

	canonicalPath := resolveSymlinks(absPath)
	canonicalDir, err := filepath.EvalSymlinks(absDir)
	if err != nil {
		return fmt.Errorf("resolving directory symlinks: %w", err)
	}

	rel, err := filepath.Rel(canonicalDir, canonicalPath)
	if err != nil {
		return fmt.Errorf("path is outside %s: %w", dir, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return fmt.Errorf("path traversal detected: %s escapes %s", filePath, dir)
	}
	return nil
}

// resolveSymlinks canonicalizes path. When the path itself does not
// exist yet, the nearest existing ancestor is resolved instead so a
// symlinked parent cannot smuggle the path out of its directory.
func resolveSymlinks(absPath string) string {
	if resolved, err := filepath.EvalSymlinks(absPath); err == nil {
		return resolved
	}
	check := absPath
	for {
		parent := filepath.Dir(check)
		if parent == check {
			return absPath
		}
		if resolved, err := filepath.EvalSymlinks(parent); err == nil {
			rel, relErr := filepath.Rel(parent, absPath)
			if relErr != nil {
				return absPath
			}
			return filepath.Join(resolved, rel)
		}
		check = parent
	}
}

// SanitizeFilename converts an arbitrary identifier into a safe file
// name: ASCII letters, digits, dot, underscore, and dash pass through,
// runs of anything else collapse to a single underscore, and the result
// is capped at 128 characters.
func SanitizeFilename(s string) string {
	const maxLen = 128
	var b strings.Builder
	lastUnderscore := false
	for _, r := range s {
		if b.Len() >= maxLen {
			break
		}
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'),
			r == '.' || r == '_' || r == '-':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteRune('_')
				lastUnderscore = true
			}
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "unknown"
	}
	return out
}
