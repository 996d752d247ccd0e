package library

import (
	"sync"
)

// Module is an opened artifact able to bind exported symbols.
//
// Bind resolves name and stores a callable into fnPtr, which is a pointer
// to a func variable of one of the catalogue signatures. Implementations
// return an error when the symbol is absent.
type Module interface {
	Bind(fnPtr any, name string) error
	Close() error
}

// Opener opens an artifact file as a Module.
type Opener interface {
	Open(path string) (Module, error)
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(path string) (Module, error)

func (f OpenerFunc) Open(path string) (Module, error) { return f(path) }

// SharedObjectOpener opens artifacts with the host platform's dynamic
// loader.
func SharedObjectOpener() Opener {
	return OpenerFunc(openSharedObject)
}

// registry tracks paths held by live libraries so a path is never loaded
// twice in one process.
type registry struct {
	mu    sync.Mutex
	paths map[string]struct{}
}

var loaded = &registry{paths: make(map[string]struct{})}

func (r *registry) claim(path string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.paths[path]; ok {
		return false
	}
	r.paths[path] = struct{}{}
	return true
}

func (r *registry) release(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.paths, path)
}

// IsLoaded reports whether path is held by a live Library.
func IsLoaded(path string) bool {
	loaded.mu.Lock()
	defer loaded.mu.Unlock()
	_, ok := loaded.paths[path]
	return ok
}
