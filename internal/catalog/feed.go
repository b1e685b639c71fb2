package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// ErrEmptyFeed is returned when a feed parses but lists no projects.
var ErrEmptyFeed = errors.New("catalog: feed has no projects")

type feedFile struct {
	Projects []feedEntry `yaml:"projects"`
}

type feedEntry struct {
	Slug        string   `yaml:"slug"`
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Categories  []string `yaml:"categories"`
	Tags        []string `yaml:"tags"`
	Date        string   `yaml:"date"`
	Image       string   `yaml:"image"`
	URL         string   `yaml:"url"`
	Repo        string   `yaml:"repo"`
}

// ParseFeed decodes a YAML project feed.
func ParseFeed(data []byte) ([]Entry, error) {
	var f feedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	if len(f.Projects) == 0 {
		return nil, ErrEmptyFeed
	}

	entries := make([]Entry, 0, len(f.Projects))
	for i, p := range f.Projects {
		if strings.TrimSpace(p.Title) == "" {
			return nil, fmt.Errorf("parse feed: project %d has no title", i)
		}
		e := Entry{
			Slug:        p.Slug,
			Title:       p.Title,
			Description: strings.TrimSpace(p.Description),
			Categories:  p.Categories,
			Tags:        p.Tags,
			Image:       p.Image,
			URL:         p.URL,
			Repo:        p.Repo,
		}
		if e.Slug == "" {
			e.Slug = slugify(p.Title)
		}
		if p.Date != "" {
			d, err := time.Parse(time.DateOnly, p.Date)
			if err != nil {
				return nil, fmt.Errorf("parse feed: project %q date: %w", p.Title, err)
			}
			e.Date = d
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// LoadFeed reads and parses a feed file.
func LoadFeed(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read feed: %w", err)
	}
	return ParseFeed(data)
}

func slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// Library holds the current entries shared across requests.
type Library struct {
	mu      sync.RWMutex
	entries []Entry
	logger  *zap.Logger
}

// NewLibrary returns a library seeded with entries.
func NewLibrary(entries []Entry, logger *zap.Logger) *Library {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Library{entries: withPlainText(entries), logger: logger}
}

// Entries returns a copy of the current entries.
func (l *Library) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]Entry(nil), l.entries...)
}

// Replace swaps in a new entry set.
func (l *Library) Replace(entries []Entry) {
	entries = withPlainText(entries)
	l.mu.Lock()
	l.entries = entries
	l.mu.Unlock()
}

// Watch reloads path whenever it changes until ctx is done. A feed that
// fails to parse is logged and the previous entries are kept.
func (l *Library) Watch(ctx context.Context, path string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch feed: %w", err)
	}
	defer w.Close()

	// editors replace files on save, so watch the directory
	if err := w.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch feed: %w", err)
	}
	target := filepath.Clean(path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			entries, err := LoadFeed(path)
			if err != nil {
				l.logger.Warn("project feed reload failed", zap.String("path", path), zap.Error(err))
				continue
			}
			l.Replace(entries)
			l.logger.Info("project feed reloaded", zap.String("path", path), zap.Int("projects", len(entries)))
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			l.logger.Warn("project feed watcher error", zap.Error(err))
		}
	}
}

var (
	markdown  = goldmark.New()
	sanitizer = bluemonday.UGCPolicy()
	stripper  = bluemonday.StrictPolicy()
)

// RenderDescription converts a markdown description to sanitized HTML.
func RenderDescription(md string) template.HTML {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(sanitizer.SanitizeBytes(buf.Bytes()))
}

// PlainText returns the visible text of a markdown description with all
// markup, link targets and extra whitespace removed.
func PlainText(md string) string {
	var buf bytes.Buffer
	text := md
	if err := markdown.Convert([]byte(md), &buf); err == nil {
		text = html.UnescapeString(stripper.Sanitize(buf.String()))
	}
	return strings.Join(strings.Fields(text), " ")
}

func withPlainText(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	for i, e := range entries {
		e.plain = Fold(PlainText(e.Description))
		e.hasPlain = true
		out[i] = e
	}
	return out
}
