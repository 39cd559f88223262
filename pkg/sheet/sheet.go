package sheet

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/ukaji3/sheetcore-go/pkg/sheet/codec"
	"github.com/ukaji3/sheetcore-go/pkg/sheet/formula"
	"github.com/ukaji3/sheetcore-go/pkg/sheet/grid"
	"github.com/ukaji3/sheetcore-go/pkg/sheet/models"
)

// Sheet is one spreadsheet backed by a delimited text file. All methods are
// safe for concurrent use; operations are serialized by an internal lock.
type Sheet struct {
	path  string
	opts  Options
	codec codec.Codec
	log   *slog.Logger

	mu       sync.Mutex
	grid     *grid.Grid
	loaded   bool
	closed   bool
	watches  []*models.WatchDef
	sync     *fileSync
	userTail bool
	autoTail bool

	inflight sync.WaitGroup
}

// ResolvePath returns the absolute, symlink-free form of path. Paths that do
// not exist yet are only made absolute.
func ResolvePath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	return abs, nil
}

// Open returns a sheet for path. The file is read lazily on first use; a
// missing file yields an empty sheet that is created on the first write.
func Open(path string, opts Options) (*Sheet, error) {
	resolved, err := ResolvePath(path)
	if err != nil {
		return nil, newOperationError("open", path, err)
	}
	opts = opts.withDefaults()
	return &Sheet{
		path:  resolved,
		opts:  opts,
		codec: opts.codec(),
		log:   opts.Logger.With("sheet", resolved),
	}, nil
}

// Path returns the resolved path of the backing file.
func (s *Sheet) Path() string { return s.path }

// Load discards the in-memory grid and reads the backing file again.
// Unlike the implicit first load, a missing file is an error.
func (s *Sheet) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return newOperationError("load", s.path, ErrClosed)
	}
	if _, err := os.Stat(s.path); err != nil {
		return newOperationError("load", s.path, err)
	}
	if err := s.load(); err != nil {
		return newOperationError("load", s.path, err)
	}
	return nil
}

func (s *Sheet) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	doc, err := s.codec.Parse(string(data))
	if err != nil {
		return err
	}
	s.grid = grid.FromDocument(doc)
	s.loaded = true
	s.log.Info("Loaded sheet", "rows", s.grid.Rows(), "cols", s.grid.Cols())
	return nil
}

// ready is called with s.mu held before every operation.
func (s *Sheet) ready() error {
	if s.closed {
		return ErrClosed
	}
	if s.loaded {
		return nil
	}
	return s.load()
}

func (s *Sheet) persist() error {
	text := s.codec.Serialize(s.grid.Document(), s.opts.FormatMode)
	if err := os.WriteFile(s.path, []byte(text), 0o644); err != nil {
		return err
	}
	if s.sync != nil {
		s.sync.size = int64(len(text))
	}
	s.log.Debug("Persisted sheet", "bytes", len(text))
	return nil
}

// mutate applies fn to the grid, persists it, re-runs watches and emits a
// change event. Nothing is persisted when fn fails.
func (s *Sheet) mutate(op string, fn func(g *grid.Grid) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return newOperationError(op, s.path, err)
	}
	if err := fn(s.grid); err != nil {
		return newOperationError(op, s.path, err)
	}
	if err := s.persist(); err != nil {
		return newOperationError(op, s.path, err)
	}
	s.changed(op)
	return nil
}

// read runs fn against the loaded grid without persisting.
func (s *Sheet) read(op string, fn func(g *grid.Grid) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return newOperationError(op, s.path, err)
	}
	if err := fn(s.grid); err != nil {
		return newOperationError(op, s.path, err)
	}
	return nil
}

func (s *Sheet) changed(op string) {
	s.runWatches(op)
	s.emit(models.Event{Type: models.EventChanged, Operation: op})
}

func (s *Sheet) emit(e models.Event) {
	if s.opts.Events == nil {
		return
	}
	e.ID = uuid.NewString()
	e.Sheet = s.path
	e.Time = s.opts.Now()
	s.opts.Events.Emit(e)
}

// evaluate returns every cell of g as its evaluated text.
func evaluate(g *grid.Grid) [][]string {
	ev := formula.New(g)
	rows := make([][]string, g.Rows())
	for r := range rows {
		row := make([]string, g.Cols())
		for c := range row {
			row[c] = ev.Display(r, c)
		}
		rows[r] = row
	}
	return rows
}

// Close stops file sync and waits for in-flight watch actions. Further
// operations fail with ErrClosed.
func (s *Sheet) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.stopSync()
	s.userTail, s.autoTail = false, false
	s.closed = true
	s.mu.Unlock()

	s.inflight.Wait()
	return nil
}
