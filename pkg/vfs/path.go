package vfs

import (
	"errors"
	"strings"
)

// Common path-related errors.
var (
	ErrEmptyPath   = errors.New("vfs: empty path")
	ErrInvalidPath = errors.New("vfs: invalid path")
	ErrPathTooLong = errors.New("vfs: path too long")
	ErrInvalidTree = errors.New("vfs: invalid tree")
)

// MaxPathLength is the maximum allowed path length.
const MaxPathLength = 4096

// HomePrefix is the display name of the root folder and the first element of
// every absolute shell path.
const HomePrefix = "~"

// Clean normalizes a shell path such as "~/Documents/../Pictures/" to
// "~/Pictures". Relative paths are taken to start at the home folder.
func Clean(p string) string {
	segs := Segments(p)
	if len(segs) == 0 {
		return HomePrefix
	}
	return HomePrefix + "/" + strings.Join(segs, "/")
}

// Segments splits a shell path into the folder names below the home folder.
// "." and empty elements are dropped and ".." never climbs above home.
// A leading "~" means home only on its own or before a slash.
func Segments(p string) []string {
	p = strings.ReplaceAll(p, "\\", "/")
	if p == HomePrefix {
		return nil
	}
	p = strings.TrimPrefix(p, HomePrefix+"/")

	var result []string
	for _, comp := range strings.Split(p, "/") {
		switch comp {
		case "", ".":
			continue
		case "..":
			if len(result) > 0 {
				result = result[:len(result)-1]
			}
		default:
			result = append(result, comp)
		}
	}
	return result
}

// Join joins path elements onto a base path and cleans the result.
func Join(base string, elem ...string) string {
	return Clean(base + "/" + strings.Join(elem, "/"))
}

// Base returns the last element of the path.
func Base(p string) string {
	segs := Segments(p)
	if len(segs) == 0 {
		return HomePrefix
	}
	return segs[len(segs)-1]
}

// Dir returns all but the last element of the path.
func Dir(p string) string {
	segs := Segments(p)
	if len(segs) <= 1 {
		return HomePrefix
	}
	return HomePrefix + "/" + strings.Join(segs[:len(segs)-1], "/")
}

// Ext returns the text from the final dot of a file name, dot included, or
// "" when there is none. ".bashrc" is all extension.
func Ext(name string) string {
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return ""
	}
	return name[i:]
}

// SplitName splits a file name at its final dot into base and extension.
func SplitName(name string) (base, ext string) {
	ext = Ext(name)
	return strings.TrimSuffix(name, ext), ext
}

// ValidatePath checks if the path is usable for lookups.
func ValidatePath(p string) error {
	if p == "" {
		return ErrEmptyPath
	}
	if len(p) > MaxPathLength {
		return ErrPathTooLong
	}
	if strings.Contains(p, "\x00") {
		return ErrInvalidPath
	}
	return nil
}

// ValidateName checks if name is usable as a node name.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyPath
	}
	if strings.ContainsAny(name, "/\x00") || name == "." || name == ".." {
		return ErrInvalidPath
	}
	return nil
}

// archivePathSegments cleans a path read from an archive. Absolute prefixes
// and parent references are dropped so entries never escape the extraction
// folder.
func archivePathSegments(p string) []string {
	p = strings.ReplaceAll(p, "\\", "/")
	var out []string
	for _, comp := range strings.Split(p, "/") {
		switch comp {
		case "", ".", "..":
			continue
		default:
			out = append(out, comp)
		}
	}
	return out
}
