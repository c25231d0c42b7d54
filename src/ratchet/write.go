package ratchet

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sofmeright/loq/src/check"
)

// WriteDocument saves the document atomically: encode to a temp file in
// the same directory, then rename over the target. A crash mid-write
// leaves the old config intact.
func WriteDocument(path string, doc *Document) error {
	data, err := doc.Encode()
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return writeAtomic(path, data)
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// InitTemplate is the starter loq.toml written by init.
const InitTemplate = `# Maximum line counts per file.
# Rules are matched top to bottom; the last match wins.

default_max_lines = 500

# [[rules]]
# path = "**/*_test.go"
# max_lines = 1000

# [[rules]]
# path = "docs/**"
# max_lines = 2000
# severity = "warning"
`

// WriteInit creates a new loq.toml from the template. It refuses to
// overwrite an existing file.
func WriteInit(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	return writeAtomic(path, []byte(InitTemplate))
}

// EnsureGitignore makes sure the count cache file is ignored in the
// config root, creating or appending to .gitignore as needed.
func EnsureGitignore(root string) error {
	path := filepath.Join(root, ".gitignore")
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == check.CacheFileName {
			return nil
		}
	}

	var b strings.Builder
	b.Write(data)
	if len(data) > 0 && !strings.HasSuffix(string(data), "\n") {
		b.WriteByte('\n')
	}
	b.WriteString(check.CacheFileName + "\n")
	return os.WriteFile(path, []byte(b.String()), 0o644)
}
