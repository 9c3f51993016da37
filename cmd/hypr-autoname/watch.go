package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/hyprland-community/hyprland-autoname-workspaces/internal/util"
)

const (
	debounceWindow = 250 * time.Millisecond
	reasonFileEdit = "config file updated"
)

// startConfigWatcher watches the config file through its directory, so
// editors that replace the file are seen, and sends one reload reason on the
// returned channel per burst of writes.
func startConfigWatcher(logger *util.Logger, path string) (*fsnotify.Watcher, <-chan string, error) {
	target, err := filepath.Abs(path)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve config path: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, fmt.Errorf("watch config: %w", err)
	}
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		watcher.Close()
		return nil, nil, fmt.Errorf("watch config dir: %w", err)
	}
	requests := make(chan string, 1)
	go watchConfig(logger, watcher, filepath.Clean(target), requests)
	return watcher, requests, nil
}

func touchesConfig(ev fsnotify.Event, target string) bool {
	return filepath.Clean(ev.Name) == target &&
		ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename)
}

// watchConfig runs until the watcher is closed. A request that finds the
// channel full is dropped; the pending one already covers it.
func watchConfig(logger *util.Logger, watcher *fsnotify.Watcher, target string, requests chan<- string) {
	var pending *time.Timer
	defer func() {
		if pending != nil {
			pending.Stop()
		}
	}()
	fire := func() {
		select {
		case requests <- reasonFileEdit:
		default:
		}
	}

	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !touchesConfig(ev, target) {
				continue
			}
			logger.Tracef("config event %s", ev)
			if pending == nil {
				pending = time.AfterFunc(debounceWindow, fire)
			} else {
				pending.Reset(debounceWindow)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warnf("config watcher: %v", err)
		}
	}
}
