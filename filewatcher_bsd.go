//go:build darwin || dragonfly || freebsd || netbsd || openbsd

package main

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// FileWatcher reports writes to watched files through kqueue
type FileWatcher struct {
	kq       int
	mu       sync.Mutex
	watchMap map[int]string
	lost     lostFiles
	changes  *debouncer
}

func NewFileWatcher(delay time.Duration, onChange func(string)) (*FileWatcher, error) {
	kq, err := unix.Kqueue()
	if err != nil {
		return nil, errors.Wrap(err, "kqueue failed")
	}
	return &FileWatcher{
		kq:       kq,
		watchMap: make(map[int]string),
		changes:  newDebouncer(delay, onChange),
	}, nil
}

func (fw *FileWatcher) AddFile(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	fd, err := unix.Open(absPath, unix.O_RDONLY, 0)
	if err != nil {
		return errors.Wrapf(err, "failed to open %s", absPath)
	}

	var event unix.Kevent_t
	unix.SetKevent(&event, fd, unix.EVFILT_VNODE, unix.EV_ADD|unix.EV_CLEAR)
	event.Fflags = unix.NOTE_WRITE | unix.NOTE_ATTRIB | unix.NOTE_DELETE | unix.NOTE_RENAME

	if _, err := unix.Kevent(fw.kq, []unix.Kevent_t{event}, nil, nil); err != nil {
		unix.Close(fd)
		return errors.Wrapf(err, "failed to add kevent for %s", absPath)
	}

	fw.mu.Lock()
	fw.watchMap[fd] = absPath
	fw.mu.Unlock()
	return nil
}

// Watch delivers change events until ctx is done
func (fw *FileWatcher) Watch(ctx context.Context) error {
	events := make([]unix.Kevent_t, 10)
	timeout := unix.NsecToTimespec(int64(100 * time.Millisecond))

	for ctx.Err() == nil {
		for _, path := range fw.lost.retry(fw.AddFile) {
			fw.changes.trigger(path)
		}

		n, err := unix.Kevent(fw.kq, nil, events, &timeout)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return errors.Wrap(err, "reading kevent")
		}

		for _, event := range events[:n] {
			fd := int(event.Ident)

			fw.mu.Lock()
			path := fw.watchMap[fd]
			fw.mu.Unlock()
			if path == "" {
				continue
			}

			// the file was replaced; watch whatever now has its name
			if event.Fflags&(unix.NOTE_DELETE|unix.NOTE_RENAME) != 0 {
				fw.mu.Lock()
				delete(fw.watchMap, fd)
				fw.mu.Unlock()
				unix.Close(fd)
				if err := fw.AddFile(path); err != nil {
					fw.lost.add(path)
				}
			}
			fw.changes.trigger(path)
		}
	}
	return nil
}

func (fw *FileWatcher) Close() error {
	fw.changes.stop()

	fw.mu.Lock()
	defer fw.mu.Unlock()
	for fd := range fw.watchMap {
		unix.Close(fd)
	}
	return unix.Close(fw.kq)
}
