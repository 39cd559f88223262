package sheet

import (
	"context"
	"fmt"
	"sync"

	"github.com/ukaji3/sheetcore-go/pkg/sheet/models"
)

// EventSink receives notifications produced by a sheet. Emit is called with
// the sheet lock held and must not call back into the sheet.
type EventSink interface {
	Emit(models.Event)
}

// EventFunc adapts a function to EventSink.
type EventFunc func(models.Event)

// Emit calls f(e).
func (f EventFunc) Emit(e models.Event) { f(e) }

// ChannelSink forwards events to a buffered channel. Events are dropped when
// the channel is full.
type ChannelSink chan models.Event

// Emit sends e without blocking.
func (c ChannelSink) Emit(e models.Event) {
	select {
	case c <- e:
	default:
	}
}

// Invoker runs a named external action.
type Invoker interface {
	Invoke(ctx context.Context, action string, params map[string]any) error
}

// ActionFunc handles one action invocation.
type ActionFunc func(ctx context.Context, params map[string]any) error

// ActionRegistry is an Invoker dispatching by action name.
type ActionRegistry struct {
	mu      sync.RWMutex
	actions map[string]ActionFunc
}

// NewActionRegistry returns an empty registry.
func NewActionRegistry() *ActionRegistry {
	return &ActionRegistry{actions: make(map[string]ActionFunc)}
}

// Register binds name to fn, replacing any previous handler.
func (r *ActionRegistry) Register(name string, fn ActionFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions[name] = fn
}

// Invoke runs the handler registered under action.
func (r *ActionRegistry) Invoke(ctx context.Context, action string, params map[string]any) error {
	r.mu.RLock()
	fn, ok := r.actions[action]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
	return fn(ctx, params)
}
