package vfs

import (
	"strings"
	"testing"
)

func TestClean(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", "~"},
		{"~", "~"},
		{"~/", "~"},
		{"~/Documents", "~/Documents"},
		{"~/Documents/", "~/Documents"},
		{"~//Documents///Work", "~/Documents/Work"},
		{"~/Documents/./Work", "~/Documents/Work"},
		{"~/Documents/../Pictures", "~/Pictures"},
		{"~/../..", "~"},
		{"Documents", "~/Documents"},
		{"~\\Documents\\Work", "~/Documents/Work"},
		{"~Documents", "~/~Documents"},
		{"~notes/x", "~/~notes/x"},
	}

	for _, tt := range tests {
		result := Clean(tt.input)
		if result != tt.expected {
			t.Errorf("Clean(%q) = %q, expected %q", tt.input, result, tt.expected)
		}
	}
}

func TestSegmentsTildeName(t *testing.T) {
	if got := Segments("~"); len(got) != 0 {
		t.Errorf("Segments(~) = %q", got)
	}
	if got := Segments("~/Documents"); len(got) != 1 || got[0] != "Documents" {
		t.Errorf("Segments(~/Documents) = %q", got)
	}
	// Only "~" or "~/" names home; "~Documents" is an ordinary name.
	if got := Segments("~Documents"); len(got) != 1 || got[0] != "~Documents" {
		t.Errorf("Segments(~Documents) = %q", got)
	}
	if got := Join("~", "~draft"); got != "~/~draft" {
		t.Errorf("Join = %q", got)
	}
}

func TestBaseDirJoin(t *testing.T) {
	if got := Base("~/Documents/notes.txt"); got != "notes.txt" {
		t.Errorf("Base = %q", got)
	}
	if got := Base("~"); got != "~" {
		t.Errorf("Base(~) = %q", got)
	}
	if got := Dir("~/Documents/notes.txt"); got != "~/Documents" {
		t.Errorf("Dir = %q", got)
	}
	if got := Dir("~/Documents"); got != "~" {
		t.Errorf("Dir = %q", got)
	}
	if got := Join("~/Documents", "Work", "Q3_Report.txt"); got != "~/Documents/Work/Q3_Report.txt" {
		t.Errorf("Join = %q", got)
	}
}

func TestExt(t *testing.T) {
	tests := []struct {
		name, base, ext string
	}{
		{"file.txt", "file", ".txt"},
		{"archive.tar.gz", "archive.tar", ".gz"},
		{"noext", "noext", ""},
		{".hidden", "", ".hidden"},
		{"trailing.", "trailing", "."},
	}

	for _, tt := range tests {
		base, ext := SplitName(tt.name)
		if base != tt.base || ext != tt.ext {
			t.Errorf("SplitName(%q) = (%q, %q), expected (%q, %q)", tt.name, base, ext, tt.base, tt.ext)
		}
	}
}

func TestValidatePath(t *testing.T) {
	if err := ValidatePath(""); err != ErrEmptyPath {
		t.Errorf("expected ErrEmptyPath, got %v", err)
	}
	if err := ValidatePath(strings.Repeat("a", MaxPathLength+1)); err != ErrPathTooLong {
		t.Errorf("expected ErrPathTooLong, got %v", err)
	}
	if err := ValidatePath("~/a\x00b"); err != ErrInvalidPath {
		t.Errorf("expected ErrInvalidPath, got %v", err)
	}
	if err := ValidatePath("~/Documents"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateName(t *testing.T) {
	for _, bad := range []string{"", "   ", "a/b", ".", ".."} {
		if err := ValidateName(bad); err == nil {
			t.Errorf("ValidateName(%q) expected error", bad)
		}
	}
	if err := ValidateName("Report (final).txt"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestArchivePathSegments(t *testing.T) {
	got := strings.Join(archivePathSegments("/../a/./b\\c/"), "|")
	if got != "a|b|c" {
		t.Errorf("archivePathSegments = %q", got)
	}
}
