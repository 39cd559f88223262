package sheet

import (
	"context"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/ukaji3/sheetcore-go/internal/ctxlog"
	"github.com/ukaji3/sheetcore-go/pkg/sheet/models"
	"github.com/ukaji3/sheetcore-go/pkg/sheet/query"
)

// Watch registers a named SQL query that is re-run after every mutation.
// The query is validated by running it once; registration itself never
// triggers. The first watch starts file sync when it is not running.
func (s *Sheet) Watch(def models.WatchDef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return newOperationError("watch", s.path, err)
	}
	if strings.TrimSpace(def.Name) == "" || strings.TrimSpace(def.Query) == "" {
		return newOperationError("watch", s.path, fmt.Errorf("%w: watch needs a name and a query", ErrInvalidArgument))
	}
	if s.findWatch(def.Name) >= 0 {
		return newOperationError("watch", s.path, fmt.Errorf("%w: %q", ErrWatchExists, def.Name))
	}
	if _, err := query.RunSQL(context.Background(), s.grid.Headers(), evaluate(s.grid), def.Query); err != nil {
		return newOperationError("watch", s.path, fmt.Errorf("%w: %v", ErrInvalidArgument, err))
	}

	w := def
	w.Params = maps.Clone(def.Params)
	w.TriggerCount = 0
	w.LastTriggered = time.Time{}
	s.watches = append(s.watches, &w)
	s.log.Info("Registered watch", "watch", w.Name, "action", w.Action, "once", w.Once)

	if s.sync == nil {
		if err := s.startSync(); err != nil {
			s.log.Warn("Could not start file sync for watch", "watch", w.Name, "error", err)
			return nil
		}
		s.autoTail = true
	}
	return nil
}

// Unwatch removes a watch. Removing the last watch stops file sync unless
// it was started explicitly with Tail.
func (s *Sheet) Unwatch(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return newOperationError("unwatch", s.path, ErrClosed)
	}
	i := s.findWatch(name)
	if i < 0 {
		return newOperationError("unwatch", s.path, fmt.Errorf("%w: %q", ErrWatchNotFound, name))
	}
	s.removeWatch(i)
	s.log.Info("Removed watch", "watch", name)
	return nil
}

// Watches returns copies of the active watches in registration order.
func (s *Sheet) Watches() []models.WatchDef {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.WatchDef, 0, len(s.watches))
	for _, w := range s.watches {
		c := *w
		c.Params = maps.Clone(w.Params)
		out = append(out, c)
	}
	return out
}

func (s *Sheet) findWatch(name string) int {
	for i, w := range s.watches {
		if w.Name == name {
			return i
		}
	}
	return -1
}

func (s *Sheet) removeWatch(i int) {
	s.watches = append(s.watches[:i], s.watches[i+1:]...)
	if len(s.watches) == 0 && s.autoTail {
		s.autoTail = false
		if !s.userTail {
			s.stopSync()
		}
	}
}

// runWatches re-runs every watch against the current data in registration
// order. Called with s.mu held after a mutation.
func (s *Sheet) runWatches(op string) {
	if len(s.watches) == 0 {
		return
	}
	headers, rows := s.grid.Headers(), evaluate(s.grid)

	var fired []string
	for _, w := range append([]*models.WatchDef(nil), s.watches...) {
		res, err := query.RunSQL(context.Background(), headers, rows, w.Query)
		if err != nil {
			s.log.Error("Watch query failed", "watch", w.Name, "error", err)
			continue
		}
		if len(res.Rows) == 0 {
			continue
		}
		w.TriggerCount++
		w.LastTriggered = s.opts.Now()
		s.log.Info("Watch triggered", "watch", w.Name, "rows", len(res.Rows), "operation", op)
		s.emit(models.Event{
			Type:      models.EventAlert,
			Operation: op,
			Watch:     w.Name,
			Rows:      res.Rows,
		})
		if w.Action != "" {
			s.invoke(w, res.Rows)
		}
		if w.Once {
			fired = append(fired, w.Name)
		}
	}
	for _, name := range fired {
		if i := s.findWatch(name); i >= 0 {
			s.removeWatch(i)
			s.log.Info("Removed one-shot watch", "watch", name)
		}
	}
}

// invoke runs the watch action in its own goroutine. Failures are logged.
func (s *Sheet) invoke(w *models.WatchDef, rows []map[string]any) {
	ctx := ctxlog.ForAction(context.Background(), s.log, w.Name, w.Action)
	logger := ctxlog.FromContext(ctx)
	if s.opts.Actions == nil {
		logger.Warn("No action invoker configured, skipping action")
		return
	}
	params := maps.Clone(w.Params)
	if params == nil {
		params = make(map[string]any, 2)
	}
	params["rows"] = rows
	params["watch"] = w.Name

	invoker, action := s.opts.Actions, w.Action
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		defer func() {
			if r := recover(); r != nil {
				logger.Error("Watch action panicked", "panic", r)
			}
		}()
		if err := invoker.Invoke(ctx, action, params); err != nil {
			logger.Error("Watch action failed", "error", err)
		}
	}()
}
