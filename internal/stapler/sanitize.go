package stapler

import (
	"path"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var (
	// Everything outside the storage-key-safe whitelist.
	unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

	// A wider whitelist for the extension kept by the fallback name.
	unsafeExtChars = regexp.MustCompile(`[^A-Za-z0-9.]`)
)

// SanitizeFileName converts a client-supplied file name into a storage-safe
// key segment. Characters outside [A-Za-z0-9._-] are replaced with "_" (or
// dropped, under the strip policy) and leading dots are removed so the result
// can never look like a hidden file or a path traversal. If nothing survives,
// a generated unique name is returned, keeping the sanitized extension of the
// original. The result is always non-empty and contains no path separators.
func SanitizeFileName(name string, policy string) string {
	replacement := "_"
	if policy == SanitizeStrip {
		replacement = ""
	}

	safe := unsafeChars.ReplaceAllString(name, replacement)
	safe = strings.TrimLeft(safe, ".")

	if safe == "" {
		ext := path.Ext(name)
		if ext == "." {
			// A bare dot is not an extension.
			ext = ""
		}
		return uuid.NewString() + unsafeExtChars.ReplaceAllString(ext, replacement)
	}

	return safe
}
