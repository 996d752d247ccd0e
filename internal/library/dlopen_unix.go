//go:build darwin || freebsd || linux

package library

import (
	"fmt"

	"github.com/ebitengine/purego"

	pmerrors "github.com/danmuck/pandamodel/internal/errors"
)

type sharedObject struct {
	path   string
	handle uintptr
}

func openSharedObject(path string) (Module, error) {
	handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_LOCAL)
	if err != nil {
		return nil, err
	}
	return &sharedObject{path: path, handle: handle}, nil
}

func (o *sharedObject) Bind(fnPtr any, name string) error {
	sym, err := purego.Dlsym(o.handle, name)
	if err != nil {
		return &pmerrors.SymbolNotFoundError{Name: name, Err: err}
	}
	if sym == 0 {
		return &pmerrors.SymbolNotFoundError{Name: name}
	}
	purego.RegisterFunc(fnPtr, sym)
	return nil
}

func (o *sharedObject) Close() error {
	if o.handle == 0 {
		return nil
	}
	h := o.handle
	o.handle = 0
	if err := purego.Dlclose(h); err != nil {
		return fmt.Errorf("dlclose %s: %w", o.path, err)
	}
	return nil
}
