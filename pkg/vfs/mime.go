package vfs

import (
	"strings"
)

// Mime types the shell knows how to display.
const (
	MimeText     = "text/plain"
	MimeMarkdown = "text/markdown"
	MimeJSON     = "application/json"
	MimeHTML     = "text/html"
	MimeCSS      = "text/css"
	MimeJS       = "text/javascript"
	MimeZip      = "application/zip"
	MimeBinary   = "application/octet-stream"
)

var textMimes = map[string]string{
	".txt":  MimeText,
	".md":   MimeMarkdown,
	".json": MimeJSON,
	".html": MimeHTML,
	".css":  MimeCSS,
	".js":   MimeJS,
}

var imageExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
}

func lowerExt(name string) string {
	return strings.ToLower(Ext(name))
}

// IsTextName reports whether a file name has a text extension.
func IsTextName(name string) bool {
	_, ok := textMimes[lowerExt(name)]
	return ok
}

// IsImageName reports whether a file name has an image extension.
func IsImageName(name string) bool {
	return imageExts[lowerExt(name)]
}

// IsZipName reports whether a file name is a zip archive.
func IsZipName(name string) bool {
	return lowerExt(name) == ".zip"
}

// ImageMime returns the image mime type for a file name, e.g. "image/png".
// "jpg" maps to "image/jpeg".
func ImageMime(name string) string {
	ext := strings.TrimPrefix(lowerExt(name), ".")
	if ext == "jpg" {
		ext = "jpeg"
	}
	return "image/" + ext
}

// MimeTypeFor infers the mime type of a file from its name.
func MimeTypeFor(name string) string {
	ext := lowerExt(name)
	if m, ok := textMimes[ext]; ok {
		return m
	}
	if imageExts[ext] {
		return ImageMime(name)
	}
	if ext == ".zip" {
		return MimeZip
	}
	return MimeBinary
}

// IsSearchableText reports whether content of this mime type is matched by
// search. Only plain text and markdown are.
func IsSearchableText(mime string) bool {
	return mime == MimeText || mime == MimeMarkdown
}

// IsImageMime reports whether mime is an image type.
func IsImageMime(mime string) bool {
	return strings.HasPrefix(mime, "image/")
}
