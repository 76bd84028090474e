package documents

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sync"
	"time"
)

var (
	unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9.-]`)
	categoryPattern     = regexp.MustCompile(`^[a-z0-9_]+$`)
)

// SanitizeFilename replaces every character outside [a-zA-Z0-9.-] with '_'.
func SanitizeFilename(name string) string {
	name = filepath.Base(name)
	if name == "." || name == "/" || name == "" {
		name = "document"
	}
	return unsafeFilenameChars.ReplaceAllString(name, "_")
}

// ValidCategory reports whether category is usable as a storage path segment.
func ValidCategory(category string) bool {
	return categoryPattern.MatchString(category)
}

// keyClock issues strictly increasing millisecond timestamps so that two
// uploads of the same file name in one millisecond receive distinct keys.
type keyClock struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func (c *keyClock) next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	ms := c.now().UnixMilli()
	if ms <= c.last {
		ms = c.last + 1
	}
	c.last = ms
	return ms
}

// StorageKey builds the blob path {category}/{unix-millis}_{sanitized filename}.
func StorageKey(category string, millis int64, filename string) string {
	return fmt.Sprintf("%s/%d_%s", category, millis, SanitizeFilename(filename))
}
