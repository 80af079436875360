// Completion: 100% - Platform-specific module complete
//go:build linux

package main

import (
	"context"
	"path/filepath"
	"sync"
	"time"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

const inotifyMask = unix.IN_MODIFY | unix.IN_CLOSE_WRITE | unix.IN_ATTRIB | unix.IN_DELETE_SELF | unix.IN_MOVE_SELF

// FileWatcher reports writes to watched files through inotify
type FileWatcher struct {
	fd       int
	mu       sync.Mutex
	watchMap map[int]string
	lost     lostFiles
	changes  *debouncer
}

func NewFileWatcher(delay time.Duration, onChange func(string)) (*FileWatcher, error) {
	fd, err := unix.InotifyInit1(unix.IN_NONBLOCK | unix.IN_CLOEXEC)
	if err != nil {
		return nil, errors.Wrap(err, "inotify_init failed")
	}
	return &FileWatcher{
		fd:       fd,
		watchMap: make(map[int]string),
		changes:  newDebouncer(delay, onChange),
	}, nil
}

func (fw *FileWatcher) AddFile(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	wd, err := unix.InotifyAddWatch(fw.fd, absPath, inotifyMask)
	if err != nil {
		return errors.Wrapf(err, "failed to watch %s", absPath)
	}

	fw.mu.Lock()
	fw.watchMap[wd] = absPath
	fw.mu.Unlock()
	return nil
}

// Watch delivers change events until ctx is done
func (fw *FileWatcher) Watch(ctx context.Context) error {
	buf := make([]byte, (unix.SizeofInotifyEvent+unix.NAME_MAX+1)*16)
	fds := []unix.PollFd{{Fd: int32(fw.fd), Events: unix.POLLIN}}

	for ctx.Err() == nil {
		for _, path := range fw.lost.retry(fw.AddFile) {
			fw.changes.trigger(path)
		}

		ready, err := unix.Poll(fds, 100)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return errors.Wrap(err, "polling inotify")
		}
		if ready == 0 {
			continue
		}

		n, err := unix.Read(fw.fd, buf)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EINTR {
				continue
			}
			return errors.Wrap(err, "reading inotify events")
		}

		for offset := 0; offset+unix.SizeofInotifyEvent <= n; {
			event := (*unix.InotifyEvent)(unsafe.Pointer(&buf[offset]))
			offset += unix.SizeofInotifyEvent + int(event.Len)

			fw.mu.Lock()
			path := fw.watchMap[int(event.Wd)]
			fw.mu.Unlock()
			if path == "" {
				continue
			}

			// editors that save by rename replace the inode; follow the
			// path, and keep retrying while nothing has that name
			if event.Mask&(unix.IN_DELETE_SELF|unix.IN_MOVE_SELF) != 0 {
				fw.mu.Lock()
				delete(fw.watchMap, int(event.Wd))
				fw.mu.Unlock()
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
	return unix.Close(fw.fd)
}
