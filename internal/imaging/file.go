// Package imaging normalizes user-supplied product photos before they are
// attached to generation requests: decoding, bounded resizing, and turning
// remote URLs into uploadable in-memory files.
package imaging

import (
	"path"
	"strings"
)

// File is an in-memory uploadable asset. The pipeline never touches disk for
// source images; generated assets are persisted separately.
type File struct {
	Name string
	MIME string
	Data []byte
}

// IsZero reports whether the file carries no payload.
func (f *File) IsZero() bool {
	return f == nil || len(f.Data) == 0
}

// filenameFromURL derives a usable filename from the URL path, falling back
// to a generic name when the path carries none.
func filenameFromURL(rawPath, fallback string) string {
	name := path.Base(rawPath)
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == "/" || !strings.Contains(name, ".") {
		return fallback
	}
	return name
}
