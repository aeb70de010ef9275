// Package store loads living-document sources from a directory and watches
// them for edits, the trigger for a fresh resolution pass.
package store

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

var sourceExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
}

// DirSource reads document sources from files under a root directory. The key
// for a file is its root-relative path without the extension.
type DirSource struct {
	root string
	log  *slog.Logger
}

func NewDirSource(root string, log *slog.Logger) *DirSource {
	return &DirSource{root: root, log: log}
}

// Key converts a path under the root into a document key, or "" when the file
// is not a document source.
func (d *DirSource) Key(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if !sourceExtensions[ext] {
		return ""
	}
	rel, err := filepath.Rel(d.root, path)
	if err != nil {
		return ""
	}
	return filepath.ToSlash(strings.TrimSuffix(rel, filepath.Ext(rel)))
}

// Load reads every document source under the root.
func (d *DirSource) Load() (map[string]string, error) {
	sources := make(map[string]string)
	err := filepath.WalkDir(d.root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		key := d.Key(path)
		if key == "" {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		sources[key] = string(data)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sources, nil
}

// Read returns one document source by key.
func (d *DirSource) Read(key string) (string, error) {
	data, err := os.ReadFile(filepath.Join(d.root, key+".md"))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Watch reports edited document sources until ctx is done. Each write or
// create event re-reads the file and calls onChange with the key and the new
// source text.
func (d *DirSource) Watch(ctx context.Context, onChange func(key, source string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	err = filepath.WalkDir(d.root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
	if err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", d.root, err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				key := d.Key(event.Name)
				if key == "" {
					continue
				}
				data, err := os.ReadFile(event.Name)
				if err != nil {
					d.log.Warn("reread source", "path", event.Name, "error", err)
					continue
				}
				onChange(key, string(data))
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				d.log.Warn("watch error", "error", err)
			}
		}
	}()
	return nil
}
