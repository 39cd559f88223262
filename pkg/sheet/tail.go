package sheet

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/ukaji3/sheetcore-go/pkg/sheet/models"
)

// fileSync is the live state of a tailed backing file. size is guarded by
// the owning sheet's lock; timer by mu.
type fileSync struct {
	watcher *fsnotify.Watcher
	size    int64
	done    chan struct{}

	mu    sync.Mutex
	timer *time.Timer
}

// schedule runs fn once the file has been quiet for d.
func (fw *fileSync) schedule(d time.Duration, fn func()) {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	if fw.timer != nil {
		fw.timer.Stop()
	}
	fw.timer = time.AfterFunc(d, fn)
}

func (fw *fileSync) stop() {
	close(fw.done)
	fw.mu.Lock()
	if fw.timer != nil {
		fw.timer.Stop()
		fw.timer = nil
	}
	fw.mu.Unlock()
	fw.watcher.Close()
}

// Tail starts merging external appends to the backing file into the sheet.
// Calling it while sync is already running only marks it as user-started.
func (s *Sheet) Tail() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return newOperationError("tail", s.path, err)
	}
	if s.sync == nil {
		if err := s.startSync(); err != nil {
			return newOperationError("tail", s.path, err)
		}
	}
	s.userTail = true
	return nil
}

// Untail stops file sync regardless of who started it. It is a no-op when
// sync is not running.
func (s *Sheet) Untail() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopSync()
	s.userTail, s.autoTail = false, false
}

// Tailing reports whether file sync is running.
func (s *Sheet) Tailing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sync != nil
}

// startSync watches the parent directory so the file may be created or
// replaced after sync starts. Called with s.mu held.
func (s *Sheet) startSync() error {
	size, err := fileSize(s.path)
	if err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(s.path), err)
	}
	fw := &fileSync{watcher: watcher, size: size, done: make(chan struct{})}
	s.sync = fw
	go s.watchLoop(fw)
	s.log.Info("Started file sync", "size", size)
	return nil
}

// stopSync is called with s.mu held.
func (s *Sheet) stopSync() {
	if s.sync == nil {
		return
	}
	s.sync.stop()
	s.sync = nil
	s.log.Info("Stopped file sync")
}

func (s *Sheet) watchLoop(fw *fileSync) {
	for {
		select {
		case <-fw.done:
			return
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != s.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				fw.schedule(s.opts.Debounce, func() { s.syncFromDisk(fw) })
			}
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			s.log.Error("File watcher error", "error", err)
		}
	}
}

// syncFromDisk handles one coalesced change notification.
func (s *Sheet) syncFromDisk(fw *fileSync) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sync != fw || s.closed {
		return
	}
	size, err := fileSize(s.path)
	if err != nil {
		s.log.Error("Could not stat backing file", "error", err)
		return
	}
	switch {
	case size < fw.size:
		if err := s.load(); err != nil {
			s.log.Error("Could not reload backing file", "error", err)
			return
		}
		fw.size = size
		s.log.Info("Reloaded sheet after truncation", "size", size)
		s.emit(models.Event{Type: models.EventReloaded, Operation: "reload"})
		s.changed("reload")
	case size > fw.size:
		n, consumed, err := s.appendFrom(fw.size, size)
		if err != nil {
			s.log.Error("Could not read appended bytes", "error", err)
			return
		}
		fw.size += consumed
		if n == 0 {
			return
		}
		s.log.Info("Merged appended rows", "rows", n)
		s.emit(models.Event{
			Type:      models.EventAppended,
			Operation: "append",
			Rows:      []map[string]any{{"count": n}},
		})
		s.changed("append")
	}
}

// appendFrom reads the byte range [from, to) and appends every complete
// line as a row. A trailing partial line is left for the next pass.
func (s *Sheet) appendFrom(from, to int64) (rows int, consumed int64, err error) {
	f, err := os.Open(s.path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	buf := make([]byte, to-from)
	n, err := f.ReadAt(buf, from)
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, 0, err
	}
	buf = buf[:n]
	end := bytes.LastIndexByte(buf, '\n')
	if end < 0 {
		return 0, 0, nil
	}
	records, err := s.codec.ParseRecords(string(buf[:end+1]))
	if err != nil {
		return 0, 0, err
	}
	return s.grid.AppendRecords(records), int64(end + 1), nil
}

func fileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
