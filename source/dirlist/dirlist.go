/*
DESCRIPTION
  dirlist.go provides a cached, case-insensitively sorted directory
  listing of recognised video files, invalidated by filesystem events
  rather than re-read on every call.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package dirlist lists recognised video files in a directory,
// non-recursively and sorted case-insensitively, caching the result per
// directory until an fsnotify event invalidates it.
package dirlist

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

// recognisedExts are the video file extensions LIST reports, matched
// case-insensitively.
var recognisedExts = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".avi":  true,
	".mkv":  true,
	".m4v":  true,
	".webm": true,
}

// Lister caches a directory's recognised-video-file listing, watching
// each directory it has listed so that a create/remove/rename
// invalidates the cache rather than requiring a fresh ReadDir on every
// call.
type Lister struct {
	mu      sync.Mutex
	cache   map[string][]string
	watcher *fsnotify.Watcher
	watched map[string]bool
}

// New returns a new Lister. If the underlying fsnotify watcher cannot be
// created, List still works correctly, simply without caching.
func New() *Lister {
	w, _ := fsnotify.NewWatcher()
	l := &Lister{
		cache:   make(map[string][]string),
		watcher: w,
		watched: make(map[string]bool),
	}
	if w != nil {
		go l.run()
	}
	return l
}

// Close stops the underlying watcher, if any.
func (l *Lister) Close() error {
	if l.watcher == nil {
		return nil
	}
	return l.watcher.Close()
}

// run drains filesystem events, invalidating the cache entry for the
// directory that changed.
func (l *Lister) run() {
	for {
		select {
		case ev, ok := <-l.watcher.Events:
			if !ok {
				return
			}
			dir := filepath.Dir(ev.Name)
			l.mu.Lock()
			delete(l.cache, dir)
			l.mu.Unlock()
		case _, ok := <-l.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

// List returns the recognised video file names in dir, non-recursive,
// sorted case-insensitively. The result is cached until the directory's
// contents change.
func (l *Lister) List(dir string) ([]string, error) {
	clean := filepath.Clean(dir)

	l.mu.Lock()
	if cached, ok := l.cache[clean]; ok {
		l.mu.Unlock()
		return cached, nil
	}
	l.mu.Unlock()

	entries, err := os.ReadDir(clean)
	if err != nil {
		return nil, errors.Wrapf(err, "could not list directory %s", clean)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if recognisedExts[strings.ToLower(filepath.Ext(e.Name()))] {
			names = append(names, e.Name())
		}
	}
	sort.Slice(names, func(i, j int) bool {
		return strings.ToLower(names[i]) < strings.ToLower(names[j])
	})

	l.mu.Lock()
	if l.watcher != nil && !l.watched[clean] {
		if err := l.watcher.Add(clean); err == nil {
			l.watched[clean] = true
		}
	}
	// Only a watched directory is cached, since only its changes can
	// invalidate the cached listing.
	if l.watched[clean] {
		l.cache[clean] = names
	}
	l.mu.Unlock()

	return names, nil
}
