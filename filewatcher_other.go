//go:build !linux && !darwin && !dragonfly && !freebsd && !netbsd && !openbsd

package main

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const pollInterval = 250 * time.Millisecond

// FileWatcher polls modification times where no kernel notification
// API is wired up
type FileWatcher struct {
	mu       sync.Mutex
	watchMap map[string]time.Time
	changes  *debouncer
}

func NewFileWatcher(delay time.Duration, onChange func(string)) (*FileWatcher, error) {
	return &FileWatcher{
		watchMap: make(map[string]time.Time),
		changes:  newDebouncer(delay, onChange),
	}, nil
}

func (fw *FileWatcher) AddFile(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return err
	}

	fw.mu.Lock()
	fw.watchMap[absPath] = info.ModTime()
	fw.mu.Unlock()
	return nil
}

// Watch delivers change events until ctx is done
func (fw *FileWatcher) Watch(ctx context.Context) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			fw.checkFiles()
		case <-ctx.Done():
			return nil
		}
	}
}

func (fw *FileWatcher) checkFiles() {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	for path, lastMod := range fw.watchMap {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if info.ModTime().After(lastMod) {
			fw.watchMap[path] = info.ModTime()
			fw.changes.trigger(path)
		}
	}
}

func (fw *FileWatcher) Close() error {
	fw.changes.stop()
	return nil
}
