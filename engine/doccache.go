package engine

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/BurntSushi/toml"
	"github.com/jellydator/ttlcache/v3"
)

// WorkspaceFile is the name of the optional per-directory settings file.
const WorkspaceFile = ".ghostline.toml"

const gatherTimeout = 5 * time.Second

// Document is a workspace file considered for cross-file context.
type Document struct {
	Path     string
	Text     string
	Language string
	ModTime  time.Time
}

// DirDocs holds the gathered documents for one directory, newest first.
type DirDocs struct {
	Dir  string
	Docs []Document
}

// workspaceSettings is the content of a .ghostline.toml file.
type workspaceSettings struct {
	// Include lists extra glob patterns, relative to the directory.
	Include []string `toml:"include"`
	// Exclude lists glob patterns matched against the path relative to the
	// directory and against the base name.
	Exclude []string `toml:"exclude"`
}

// DocCache is a TTL cache of DirDocs entries keyed by absolute directory path.
type DocCache struct {
	cache        *ttlcache.Cache[string, *DirDocs]
	maxFiles     int
	maxFileBytes int64
}

// NewDocCache creates a DocCache. Files larger than maxFileBytes are skipped
// and at most maxFiles documents are kept per directory.
func NewDocCache(ttl time.Duration, maxFiles, maxFileBytes int) *DocCache {
	c := ttlcache.New[string, *DirDocs](
		ttlcache.WithTTL[string, *DirDocs](ttl),
		ttlcache.WithDisableTouchOnHit[string, *DirDocs](),
	)
	go c.Start()
	return &DocCache{cache: c, maxFiles: maxFiles, maxFileBytes: int64(maxFileBytes)}
}

// Close stops the cache expiration loop.
func (dc *DocCache) Close() {
	dc.cache.Stop()
}

// Get returns the cached DirDocs for dir, or nil if not cached/expired.
func (dc *DocCache) Get(dir string) *DirDocs {
	item := dc.cache.Get(dir)
	if item == nil {
		return nil
	}
	return item.Value()
}

// Documents returns the documents for dir, gathering them on a cache miss.
func (dc *DocCache) Documents(ctx context.Context, dir string) []Document {
	if entry := dc.Get(dir); entry != nil {
		return entry.Docs
	}
	return dc.Gather(ctx, dir).Docs
}

// Gather reads the candidate documents of dir and caches them.
func (dc *DocCache) Gather(ctx context.Context, dir string) *DirDocs {
	ctx, cancel := context.WithTimeout(ctx, gatherTimeout)
	defer cancel()

	settings := loadWorkspaceSettings(dir)
	entry := &DirDocs{Dir: dir}

	for _, path := range candidatePaths(dir, settings) {
		if ctx.Err() != nil {
			slog.Debug("document gathering interrupted", "dir", dir, "error", ctx.Err())
			break
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil || excluded(rel, settings.Exclude) {
			continue
		}
		doc, ok := dc.readDocument(path)
		if !ok {
			continue
		}
		entry.Docs = append(entry.Docs, doc)
	}

	sort.SliceStable(entry.Docs, func(i, j int) bool {
		return entry.Docs[i].ModTime.After(entry.Docs[j].ModTime)
	})
	if dc.maxFiles > 0 && len(entry.Docs) > dc.maxFiles {
		entry.Docs = entry.Docs[:dc.maxFiles]
	}

	dc.cache.Set(dir, entry, ttlcache.DefaultTTL)

	slog.Debug("gathered context documents", "dir", dir, "count", len(entry.Docs))
	return entry
}

func (dc *DocCache) readDocument(path string) (Document, bool) {
	lang := languageForPath(path)
	if lang == "" {
		return Document{}, false
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return Document{}, false
	}
	if dc.maxFileBytes > 0 && info.Size() > dc.maxFileBytes {
		return Document{}, false
	}
	data, err := os.ReadFile(path)
	if err != nil || !utf8.Valid(data) {
		return Document{}, false
	}
	return Document{
		Path:     path,
		Text:     string(data),
		Language: lang,
		ModTime:  info.ModTime(),
	}, true
}

// loadWorkspaceSettings reads .ghostline.toml from dir. A missing or invalid
// file yields empty settings.
func loadWorkspaceSettings(dir string) workspaceSettings {
	var s workspaceSettings
	path := filepath.Join(dir, WorkspaceFile)
	if _, err := toml.DecodeFile(path, &s); err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("ignoring invalid workspace file", "path", path, "error", err)
		}
		return workspaceSettings{}
	}
	return s
}

// candidatePaths lists the regular, non-hidden files of dir followed by the
// matches of the include patterns, without duplicates.
func candidatePaths(dir string, s workspaceSettings) []string {
	seen := make(map[string]bool)
	var paths []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		slog.Debug("cannot list directory", "dir", dir, "error", err)
	}
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		add(filepath.Join(dir, e.Name()))
	}

	for _, pattern := range s.Include {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			slog.Warn("invalid include pattern", "pattern", pattern, "error", err)
			continue
		}
		for _, m := range matches {
			add(m)
		}
	}
	return paths
}

func excluded(rel string, patterns []string) bool {
	base := filepath.Base(rel)
	for _, p := range patterns {
		if ok, _ := filepath.Match(p, rel); ok {
			return true
		}
		if ok, _ := filepath.Match(p, base); ok {
			return true
		}
	}
	return false
}

// extLanguages maps file extensions to editor language identifiers.
var extLanguages = map[string]string{
	".c":     "c",
	".h":     "c",
	".cc":    "cpp",
	".cpp":   "cpp",
	".hpp":   "cpp",
	".cs":    "csharp",
	".css":   "css",
	".go":    "go",
	".html":  "html",
	".java":  "java",
	".js":    "javascript",
	".mjs":   "javascript",
	".jsx":   "javascriptreact",
	".json":  "json",
	".kt":    "kotlin",
	".md":    "markdown",
	".php":   "php",
	".py":    "python",
	".rb":    "ruby",
	".rs":    "rust",
	".sql":   "sql",
	".swift": "swift",
	".ts":    "typescript",
	".tsx":   "typescriptreact",
	".yaml":  "yaml",
	".yml":   "yaml",
	".toml":  "toml",
	".sh":    "shellscript",
	".bash":  "shellscript",
	".zsh":   "shellscript",
}

// languageForPath returns the editor language id for path, or "" when the
// file type is not used as context.
func languageForPath(path string) string {
	return extLanguages[strings.ToLower(filepath.Ext(path))]
}
