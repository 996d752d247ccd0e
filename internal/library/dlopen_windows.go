//go:build windows

package library

import (
	"github.com/ebitengine/purego"
	"golang.org/x/sys/windows"

	pmerrors "github.com/danmuck/pandamodel/internal/errors"
)

type sharedObject struct {
	path   string
	handle windows.Handle
}

func openSharedObject(path string) (Module, error) {
	handle, err := windows.LoadLibrary(path)
	if err != nil {
		return nil, err
	}
	return &sharedObject{path: path, handle: handle}, nil
}

func (o *sharedObject) Bind(fnPtr any, name string) error {
	sym, err := windows.GetProcAddress(o.handle, name)
	if err != nil {
		return &pmerrors.SymbolNotFoundError{Name: name, Err: err}
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
	return windows.FreeLibrary(h)
}
