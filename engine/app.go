package engine

import (
	"slices"
	"sync"
)

// App pairs an Engine with a list of scene objects.
type App struct {
	Engine *Engine

	mu      sync.Mutex
	objects []any
}

// NewApp creates an App whose Engine is configured by opts.
func NewApp(opts ...Option) *App {
	return &App{Engine: New(opts...)}
}

// Add appends obj to the App. Objects are stored as given.
func (a *App) Add(obj any) {
	a.mu.Lock()
	a.objects = append(a.objects, obj)
	a.mu.Unlock()
}

// Objects returns a copy of the added objects in insertion order.
func (a *App) Objects() []any {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.objects)
}

// Start starts the Engine.
func (a *App) Start() { a.Engine.Start() }

// Stop stops the Engine.
func (a *App) Stop() { a.Engine.Stop() }
