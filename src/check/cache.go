package check

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sofmeright/loq/src/config"
)

const (
	cacheVersion = 1
	// CacheFileName is the per-config-root count cache file.
	CacheFileName = ".loq_cache"
)

// cacheFile is the on-disk format.
type cacheFile struct {
	Version    int                   `json:"version"`
	ConfigHash string                `json:"config_hash"`
	Entries    map[string]cacheEntry `json:"entries"`
}

type cacheEntry struct {
	Size       int64 `json:"size"`
	MTimeNanos int64 `json:"mtime_unix_nanos"`
	Lines      int   `json:"lines"`
}

// CountCache memoizes line counts keyed by relative path and the file's
// (size, mtime) signature. It is purely an optimization: any signature
// mismatch falls back to a real count. Safe for concurrent use.
type CountCache struct {
	mu         sync.Mutex
	entries    map[string]cacheEntry
	configHash string
	dirty      bool
	enabled    bool
}

// EmptyCountCache returns a disabled cache (used with --no-cache).
func EmptyCountCache() *CountCache {
	return &CountCache{entries: map[string]cacheEntry{}}
}

// LoadCountCache reads the cache at root. Any read, decode, version, or
// config-hash mismatch yields a fresh cache rather than an error.
func LoadCountCache(root, configHash string) *CountCache {
	fresh := &CountCache{
		entries:    map[string]cacheEntry{},
		configHash: configHash,
		enabled:    true,
	}

	data, err := os.ReadFile(filepath.Join(root, CacheFileName))
	if err != nil {
		return fresh
	}
	var file cacheFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fresh
	}
	if file.Version != cacheVersion || file.ConfigHash != configHash || file.Entries == nil {
		return fresh
	}
	fresh.entries = file.Entries
	return fresh
}

// Get returns the cached line count when the stored signature matches.
func (c *CountCache) Get(key string, size int64, mtime time.Time) (int, bool) {
	if !c.enabled {
		return 0, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok || entry.Size != size || entry.MTimeNanos != mtime.UnixNano() {
		return 0, false
	}
	return entry.Lines, true
}

// Put stores a line count under the file's current signature.
func (c *CountCache) Put(key string, size int64, mtime time.Time, lines int) {
	if !c.enabled {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{Size: size, MTimeNanos: mtime.UnixNano(), Lines: lines}
	c.dirty = true
}

// Save writes the cache back to root. Best effort: a failed save only costs
// a recount next run.
func (c *CountCache) Save(root string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.enabled || !c.dirty {
		return
	}
	file := cacheFile{Version: cacheVersion, ConfigHash: c.configHash, Entries: c.entries}
	data, err := json.Marshal(file)
	if err != nil {
		return
	}
	if os.WriteFile(filepath.Join(root, CacheFileName), data, 0o644) == nil {
		ignoreCacheFile(root)
	}
}

// ignoreCacheFile appends the cache file to an existing .gitignore at root.
// A missing .gitignore is left alone; init owns creating one.
func ignoreCacheFile(root string) {
	path := filepath.Join(root, ".gitignore")
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == CacheFileName {
			return
		}
	}
	if len(data) > 0 && data[len(data)-1] != '\n' {
		data = append(data, '\n')
	}
	data = append(data, CacheFileName+"\n"...)
	_ = os.WriteFile(path, data, 0o644)
}

// Clear removes the on-disk cache at root.
func Clear(root string) error {
	err := os.Remove(filepath.Join(root, CacheFileName))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// ConfigHash fingerprints the parts of a config that affect counting
// decisions, so a config edit invalidates stale counts.
func ConfigHash(cfg *config.Compiled) string {
	h := sha256.New()
	fmt.Fprintf(h, "v%d|default=%d|", cacheVersion, cfg.DefaultMaxLines)
	for _, rule := range cfg.Rules {
		fmt.Fprintf(h, "rule:%d:%s|", rule.MaxLines, rule.Severity)
		for _, p := range rule.Patterns {
			fmt.Fprintf(h, "%s|", p.Source())
		}
	}
	for _, p := range cfg.Exclude.Patterns() {
		fmt.Fprintf(h, "x:%s|", p.Source())
	}
	for _, p := range cfg.Exempt.Patterns() {
		fmt.Fprintf(h, "e:%s|", p.Source())
	}
	return hex.EncodeToString(h.Sum(nil))
}
