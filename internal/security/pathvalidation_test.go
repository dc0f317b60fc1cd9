package security

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidatePathWithinDirectory(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name  string
		path  string
		valid bool
	}{
		{"direct child", filepath.Join(dir, "model.json"), true},
		{"nested child", filepath.Join(dir, "sub", "model.json"), true},
		{"dotdot escape", filepath.Join(dir, "..", "model.json"), false},
		{"deep dotdot escape", filepath.Join(dir, "sub", "..", "..", "model.json"), false},
		{"sibling directory", dir + "-sibling/model.json", false},
		{"absolute outside", "/etc/passwd", false},
		{"the directory itself", dir, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePathWithinDirectory(tt.path, dir)
			if tt.valid && err != nil {
				t.Errorf("ValidatePathWithinDirectory(%q) = %v, expected nil", tt.path, err)
			}
			if !tt.valid && err == nil {
				t.Errorf("ValidatePathWithinDirectory(%q) = nil, expected error", tt.path)
			}
		})
	}
}

func TestValidatePathWithinDirectorySymlinkEscape(t *testing.T) {
	base := t.TempDir()
	outside := t.TempDir()

	link := filepath.Join(base, "link")
	if err := os.Symlink(outside, link); err != nil {
		t.Skipf("cannot create symlink: %v", err)
	}

	// A path under a symlink that points outside the directory must be
	// rejected even though it lexically sits inside.
	err := ValidatePathWithinDirectory(filepath.Join(link, "model.json"), base)
	if err == nil {
		t.Error("symlinked escape accepted")
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"clean name", "run-42_report.html", "run-42_report.html"},
		{"spaces collapse", "my run report", "my_run_report"},
		{"path separators", "../../etc/passwd", "etc_passwd"},
		{"run of specials", "a///***b", "a_b"},
		{"unicode", "runé世", "run"},
		{"empty", "", "unknown"},
		{"only specials", "///", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeFilename(tt.input); got != tt.expected {
				t.Errorf("SanitizeFilename(%q) = %q, expected %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSanitizeFilenameLength(t *testing.T) {
	long := ""
	for i := 0; i < 300; i++ {
		long += "a"
	}
	if got := SanitizeFilename(long); len(got) > 128 {
		t.Errorf("sanitized name is %d chars, expected at most 128", len(got))
	}
}
