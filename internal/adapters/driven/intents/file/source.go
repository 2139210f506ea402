// Package file loads authored intent collections from a directory of YAML
// and JSON files and watches it for edits.
package file

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/siteassist/internal/core/domain"
	"github.com/custodia-labs/siteassist/internal/core/ports/driven"
	"github.com/custodia-labs/siteassist/internal/logger"
)

// Ensure Source implements the interface.
var _ driven.IntentSource = (*Source)(nil)

// Defaults.
const (
	DefaultPattern  = "**/*.{yaml,yml,json}"
	DefaultDebounce = 300 * time.Millisecond
)

// Source reads every intent file under a directory. Files hold either a
// list of intents, a mapping with an "intents" list, or a single intent.
type Source struct {
	dir      string
	pattern  string
	debounce time.Duration
}

// Option configures a Source.
type Option func(*Source)

// WithPattern overrides the glob used to discover files, relative to the
// directory.
func WithPattern(pattern string) Option {
	return func(s *Source) { s.pattern = pattern }
}

// WithDebounce sets how long Watch waits for edits to settle.
func WithDebounce(d time.Duration) Option {
	return func(s *Source) { s.debounce = d }
}

// NewSource creates a source rooted at dir.
func NewSource(dir string, opts ...Option) *Source {
	s := &Source{
		dir:      dir,
		pattern:  DefaultPattern,
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the watched directory.
func (s *Source) Dir() string {
	return s.dir
}

// Load reads every matching file in lexical path order. A missing
// directory yields no intents. Any unreadable or malformed file fails the
// whole load so a bad edit never replaces a good intent set.
func (s *Source) Load(ctx context.Context) ([]domain.RawIntent, error) {
	if _, err := os.Stat(s.dir); errors.Is(err, fs.ErrNotExist) {
		logger.Debug("Intent directory %s does not exist", s.dir)
		return nil, nil
	}

	paths, err := s.files()
	if err != nil {
		return nil, err
	}

	var intents []domain.RawIntent
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		raws, err := decode(path, data)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, path, err)
		}
		logger.Debug("Read %d intents from %s", len(raws), path)
		intents = append(intents, raws...)
	}
	return intents, nil
}

func (s *Source) files() ([]string, error) {
	matches, err := doublestar.FilepathGlob(filepath.Join(s.dir, s.pattern), doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", s.pattern, err)
	}
	sort.Strings(matches)
	return matches, nil
}

// collection is the mapping form of an intent file.
type collection struct {
	Intents []domain.RawIntent `json:"intents" yaml:"intents"`
}

func decode(path string, data []byte) ([]domain.RawIntent, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return decodeJSON(data)
	}
	return decodeYAML(data)
}

func decodeJSON(data []byte) ([]domain.RawIntent, error) {
	trimmed := bytes.TrimSpace(data)
	if trimmed[0] == '[' {
		var list []domain.RawIntent
		err := json.Unmarshal(trimmed, &list)
		return list, err
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &probe); err != nil {
		return nil, err
	}
	if _, ok := probe["intents"]; ok {
		var c collection
		err := json.Unmarshal(trimmed, &c)
		return c.Intents, err
	}
	var single domain.RawIntent
	if err := json.Unmarshal(trimmed, &single); err != nil {
		return nil, err
	}
	return []domain.RawIntent{single}, nil
}

func decodeYAML(data []byte) ([]domain.RawIntent, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, nil
	}

	root := doc.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		var list []domain.RawIntent
		err := root.Decode(&list)
		return list, err
	case yaml.MappingNode:
		if hasKey(root, "intents") {
			var c collection
			err := root.Decode(&c)
			return c.Intents, err
		}
		var single domain.RawIntent
		if err := root.Decode(&single); err != nil {
			return nil, err
		}
		return []domain.RawIntent{single}, nil
	default:
		return nil, fmt.Errorf("line %d: expected a list or mapping of intents", root.Line)
	}
}

func hasKey(mapping *yaml.Node, key string) bool {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return true
		}
	}
	return false
}

// Watch calls onChange once edits under the directory settle, until ctx
// is done. New subdirectories are watched as they appear.
func (s *Source) Watch(ctx context.Context, onChange func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer w.Close()

	if err := addRecursive(w, s.dir); err != nil {
		return err
	}
	logger.Debug("Watching %s for intent changes", s.dir)

	timer := time.NewTimer(s.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := addRecursive(w, event.Name); err != nil {
						logger.Warn("Watching %s: %v", event.Name, err)
					}
					// A directory moved in arrives with its files and no
					// events of their own.
					logger.Debug("Intent directory %s: %s", event.Op, event.Name)
					timer.Reset(s.debounce)
					continue
				}
			}
			if !s.relevant(event) {
				continue
			}
			logger.Debug("Intent file %s: %s", event.Op, event.Name)
			timer.Reset(s.debounce)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Intent watcher: %v", err)

		case <-timer.C:
			onChange()
		}
	}
}

// relevant reports whether the event touches a file the pattern matches.
func (s *Source) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	rel, err := filepath.Rel(s.dir, event.Name)
	if err != nil {
		return false
	}
	ok, err := doublestar.PathMatch(s.pattern, rel)
	return err == nil && ok
}

func addRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if name := d.Name(); path != root && strings.HasPrefix(name, ".") {
			return filepath.SkipDir
		}
		if err := w.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}
