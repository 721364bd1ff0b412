package prompt

import (
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a template file into a compiler whenever it changes on
// disk, so prompt tuning does not require a restart.
type Watcher struct {
	compiler *Compiler
	path     string
	watcher  *fsnotify.Watcher
	done     chan struct{}
	// onError receives reload failures; nil means they are dropped.
	onError func(error)
}

// Watch loads the template file once and starts watching it for changes.
// The file's directory is watched so editors that replace the file (rename
// over) are still seen.
func Watch(c *Compiler, path string, onError func(error)) (*Watcher, error) {
	if err := c.LoadFile(path); err != nil {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	w := &Watcher{
		compiler: c,
		path:     path,
		watcher:  fw,
		done:     make(chan struct{}),
		onError:  onError,
	}
	go w.loop()
	return w, nil
}

// loop processes filesystem events until Close is called.
func (w *Watcher) loop() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if err := w.compiler.LoadFile(w.path); err != nil && w.onError != nil {
				w.onError(fmt.Errorf("reload templates: %w", err))
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			if w.onError != nil {
				w.onError(err)
			}
		}
	}
}

// Close stops watching. Safe to call once.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}
