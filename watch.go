package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"time"
)

// watch.go - lower a source file again every time it is written

const watchDebounce = 300 * time.Millisecond

// debouncer collapses bursts of change events per path into one call
type debouncer struct {
	mu     sync.Mutex
	delay  time.Duration
	timers map[string]*time.Timer
	fire   func(string)
}

func newDebouncer(delay time.Duration, fire func(string)) *debouncer {
	return &debouncer{
		delay:  delay,
		timers: make(map[string]*time.Timer),
		fire:   fire,
	}
}

// trigger schedules fire(path), restarting the timer if one is pending
func (d *debouncer) trigger(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if timer, exists := d.timers[path]; exists {
		timer.Stop()
	}
	var timer *time.Timer
	timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		current := d.timers[path] == timer
		if current {
			delete(d.timers, path)
		}
		d.mu.Unlock()
		if current {
			d.fire(path)
		}
	})
	d.timers[path] = timer
}

// stop drops every pending call
func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for path, timer := range d.timers {
		timer.Stop()
		delete(d.timers, path)
	}
}

// lostFiles holds watched paths whose file went away, until a file by the
// same name can be watched again
type lostFiles struct {
	mu    sync.Mutex
	paths map[string]bool
}

func (l *lostFiles) add(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.paths == nil {
		l.paths = make(map[string]bool)
	}
	l.paths[path] = true
}

// retry calls watch for every lost path and returns the ones that are
// watched again
func (l *lostFiles) retry(watch func(string) error) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var back []string
	for path := range l.paths {
		if watch(path) == nil {
			delete(l.paths, path)
			back = append(back, path)
		}
	}
	return back
}

// cmdWatch lowers path, then lowers it again after each change until
// interrupted
func cmdWatch(ctx *CommandContext, path string) int {
	absPath, err := filepath.Abs(path)
	if err != nil {
		fmt.Fprintf(ctx.Stderr, "Error: %v\n", err)
		return 2
	}
	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Fprintf(ctx.Stderr, "Watching %s (Ctrl+C to stop, SIGUSR1 to reload)\n", absPath)
	return watchFile(runCtx, ctx, absPath, watchDebounce)
}

func watchFile(runCtx context.Context, ctx *CommandContext, path string, delay time.Duration) int {
	var mu sync.Mutex
	relower := func(trigger string) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(ctx.Stderr, "[%s] %s\n", time.Now().Format("15:04:05"), trigger)
		cmdCompileFile(ctx, path)
	}

	relower("lowering " + filepath.Base(path))

	watcher, err := NewFileWatcher(delay, func(changed string) {
		relower("changed: " + filepath.Base(changed))
	})
	if err != nil {
		fmt.Fprintf(ctx.Stderr, "Error: %v\n", err)
		return 2
	}
	defer watcher.Close()

	if err := watcher.AddFile(path); err != nil {
		fmt.Fprintf(ctx.Stderr, "Error: %v\n", err)
		return 2
	}

	stopReload := setupReloadSignal(func() { relower("reload requested") })
	defer stopReload()

	if err := watcher.Watch(runCtx); err != nil {
		fmt.Fprintf(ctx.Stderr, "Error: %v\n", err)
		return 2
	}
	return 0
}
