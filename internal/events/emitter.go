package events

import (
	"context"
	"sync"

	"github.com/wailsapp/wails/v2/pkg/runtime"
	"go.uber.org/zap"
)

type EmitFunc func(ctx context.Context, evt StoreEvent)

var (
	emitMu sync.RWMutex
	emit   EmitFunc = func(context.Context, StoreEvent) {}
)

// Emit forwards evt to the installed emitter. It is a no-op until one is installed.
func Emit(ctx context.Context, evt StoreEvent) {
	emitMu.RLock()
	f := emit
	emitMu.RUnlock()
	f(ctx, evt)
}

// EnableRuntimeEmitter sends events to the Wails frontend. ctx must be the
// context Wails passed to OnStartup.
func EnableRuntimeEmitter(logger *zap.Logger) {
	SetCustomEmitter(func(ctx context.Context, evt StoreEvent) {
		runtime.EventsEmit(ctx, evt.Name, evt)
		logRuntimeEvent(logger, evt)
	})
}

func SetCustomEmitter(f EmitFunc) {
	emitMu.Lock()
	defer emitMu.Unlock()
	if f == nil {
		emit = func(context.Context, StoreEvent) {}
		return
	}
	emit = f
}
