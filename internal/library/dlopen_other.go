//go:build !(darwin || freebsd || linux || windows)

package library

import (
	"fmt"
	"runtime"
)

func openSharedObject(path string) (Module, error) {
	return nil, fmt.Errorf("dynamic modules are not supported on %s/%s", runtime.GOOS, runtime.GOARCH)
}
