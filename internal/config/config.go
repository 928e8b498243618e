// Package config loads the optional structured session profile
// (editing-mode default, history file paths, inputrc path) from a
// YAML file, and can watch it for changes so a long-lived host process
// picks up edits without restarting. This is separate from inputrc.Config:
// inputrc parses the classic `set var value` grammar, while Profile is a
// small Go-native document for settings that don't map onto inputrc
// variables (which history sources to open, which editing mode to start
// in).
package config

import (
	"fmt"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// Profile is the root of a session configuration file.
type Profile struct {
	// EditingMode is "emacs" or "vi", the keymap.Engine's initial main mode.
	EditingMode string `yaml:"editing_mode"`

	// HistoryFiles maps a history source name to the file it persists to.
	HistoryFiles map[string]string `yaml:"history_files"`

	// InputrcPath names an inputrc file. This package only records the
	// path; it does not open or parse the file.
	InputrcPath string `yaml:"inputrc_path"`

	// PromptTransient enables the transient-prompt redraw on accept.
	PromptTransient bool `yaml:"prompt_transient"`
}

// Load reads and parses a YAML profile from path.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	profile := &Profile{EditingMode: "emacs"}

	if err := yaml.Unmarshal(data, profile); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	return profile, nil
}

// Watcher reloads a Profile from disk whenever the file changes, handing
// the new value to onChange, for long-lived hosts that want config edits
// to take effect without a restart. cmd/linedemo does not use it: it calls
// Load once.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	onChange func(*Profile, error)

	mu      sync.Mutex
	closed  bool
	stopped chan struct{}
}

// WatchProfile starts watching path, calling onChange once immediately with
// the initial load result, then again on every subsequent write/create
// event. Call Close to stop watching.
func WatchProfile(path string, onChange func(*Profile, error)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: starting watcher: %w", err)
	}

	if err := fsw.Add(path); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("config: watching %s: %w", path, err)
	}

	w := &Watcher{path: path, watcher: fsw, onChange: onChange, stopped: make(chan struct{})}

	profile, loadErr := Load(path)
	onChange(profile, loadErr)

	go w.run()

	return w, nil
}

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			profile, err := Load(w.path)
			w.onChange(profile, err)

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
		case <-w.stopped:
			return
		}
	}
}

// Close stops the watcher goroutine and releases its file descriptor.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}

	w.closed = true
	close(w.stopped)

	return w.watcher.Close()
}
