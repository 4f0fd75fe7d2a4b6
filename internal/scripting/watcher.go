// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenPark Contributors

package scripting

import (
	"io/fs"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// FileWatcher observes the plugin directory tree on its own goroutine
// and reports modified files through the callback given at
// construction. It never touches the runtime or any plugin state: the
// callback's only job is to push paths into a mutex-guarded set the
// engine drains on its own cadence.
type FileWatcher struct {
	watcher *fsnotify.Watcher
	done    chan struct{}
	wg      sync.WaitGroup

	// onFileChanged is invoked from the watcher goroutine for every
	// file written or created under the watched tree. Fixed at
	// construction, before the goroutine starts.
	onFileChanged func(path string)
}

// NewFileWatcher watches dir recursively, reporting each changed file
// to onFileChanged from the watcher goroutine. Directories created
// later under dir are added to the watch as they appear.
func NewFileWatcher(dir string, onFileChanged func(path string)) (*FileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	fw := &FileWatcher{
		watcher:       w,
		done:          make(chan struct{}),
		onFileChanged: onFileChanged,
	}

	if err := fw.addRecursive(dir); err != nil {
		//nolint:errcheck // already failing, close is best effort
		w.Close()
		return nil, err
	}

	fw.wg.Add(1)
	go fw.run()
	return fw, nil
}

func (fw *FileWatcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fw.watcher.Add(path)
		}
		return nil
	})
}

func (fw *FileWatcher) run() {
	defer fw.wg.Done()
	for {
		select {
		case <-fw.done:
			return
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if event.Op.Has(fsnotify.Create) {
				// New subdirectories join the watch so plugins added
				// in nested folders still hot reload.
				if err := fw.addRecursive(event.Name); err != nil {
					slog.Debug("failed to watch new path", "path", event.Name, "error", err)
				}
			}
			if event.Op.Has(fsnotify.Write) || event.Op.Has(fsnotify.Create) {
				if fw.onFileChanged != nil {
					fw.onFileChanged(event.Name)
				}
			}
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			slog.Debug("file watcher error", "error", err)
		}
	}
}

// Close stops the watcher goroutine and releases the watch.
func (fw *FileWatcher) Close() {
	close(fw.done)
	//nolint:errcheck // shutdown path, error not actionable
	fw.watcher.Close()
	fw.wg.Wait()
}
