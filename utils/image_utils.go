package utils

import (
	"fmt"
	"net/url"
	"strings"
)

// ExtractObjectPath returns the object path inside the bucket for a public
// storage URL. Both the storage.googleapis.com form and the Firebase
// download form (/v0/b/<bucket>/o/<escaped path>) are understood.
func ExtractObjectPath(rawURL string) (string, error) {
	const (
		gcsPrefix      = "https://storage.googleapis.com/"
		firebasePrefix = "https://firebasestorage.googleapis.com/v0/b/"
	)

	switch {
	case strings.HasPrefix(rawURL, gcsPrefix):
		path := strings.TrimPrefix(rawURL, gcsPrefix)
		if i := strings.IndexAny(path, "?#"); i >= 0 {
			path = path[:i]
		}
		parts := strings.SplitN(path, "/", 2)
		if len(parts) != 2 || parts[1] == "" {
			return "", fmt.Errorf("invalid URL format")
		}
		return parts[1], nil

	case strings.HasPrefix(rawURL, firebasePrefix):
		u, err := url.Parse(rawURL)
		if err != nil {
			return "", fmt.Errorf("invalid URL: %w", err)
		}
		_, object, ok := strings.Cut(strings.TrimPrefix(u.EscapedPath(), "/v0/b/"), "/o/")
		if !ok || object == "" {
			return "", fmt.Errorf("invalid URL format")
		}
		return url.PathUnescape(object)
	}

	return "", fmt.Errorf("invalid URL")
}
