package shared

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var illegalFilenameChars = strings.NewReplacer(
	`\`, "-",
	`/`, "-",
	`*`, "-",
	`<`, "-",
	`>`, "-",
	`?`, "-",
	`|`, "-",
	`:`, "-",
	`"`, "-",
)

// SanitizeFilename replaces filesystem-illegal characters in name with "-".
func SanitizeFilename(name string) string {
	return illegalFilenameChars.Replace(name)
}

// UniquePath returns path if nothing exists there, otherwise the first variant
// with an incrementing " (N)" disambiguator that is free. When keepExt is true
// the disambiguator is inserted before the extension.
//
// Uniqueness is best-effort: it reflects the filesystem at call time and can
// race with concurrent probes for the same base name.
func UniquePath(path string, keepExt bool) string {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path
	}

	template := path + " (%d)"
	if keepExt {
		if ext := filepath.Ext(path); ext != "" {
			template = strings.TrimSuffix(path, ext) + " (%d)" + ext
		}
	}

	for i := 1; ; i++ {
		candidate := fmt.Sprintf(template, i)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}

// TempPath returns a free path under dir (the OS temp directory when empty)
// with a random middle component, suitable for scratch downloads.
func TempPath(dir, prefix, suffix string) string {
	if dir == "" {
		dir = os.TempDir()
	}
	for {
		name := prefix + uuid.New().String() + suffix
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path
		}
	}
}

// MoveFile renames src to dst, falling back to copy-and-remove when the two
// paths live on different filesystems.
func MoveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("failed to copy to %s: %w", dst, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return fmt.Errorf("failed to close %s: %w", dst, err)
	}

	return os.Remove(src)
}
