// Package artifact persists downloaded model libraries to disk.
//
// File names follow the controller's naming convention,
// libfrankamodel.<linux|win>_<arch><suffix>, where suffix is the host
// loader's module suffix. Nothing here deletes an artifact on its own; the
// caller owns the file once Write returns.
package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	pmerrors "github.com/danmuck/pandamodel/internal/errors"
	"github.com/danmuck/pandamodel/internal/protocol"
)

const fileMode os.FileMode = 0o755

const baseName = "libfrankamodel."

// File is a persisted artifact.
type File struct {
	Path string
}

// Exists reports whether the file is present and regular.
func (f File) Exists() bool {
	info, err := os.Stat(f.Path)
	return err == nil && info.Mode().IsRegular()
}

// Remove deletes the file. Removing a missing file is not an error.
func (f File) Remove() error {
	if err := os.Remove(f.Path); err != nil && !os.IsNotExist(err) {
		return &pmerrors.IOError{Op: "remove", Path: f.Path, Err: err}
	}
	return nil
}

// ModuleSuffix returns the dynamic module suffix of the host platform.
func ModuleSuffix() string {
	return moduleSuffixFor(runtime.GOOS)
}

func moduleSuffixFor(goos string) string {
	switch goos {
	case "windows":
		return ".dll"
	case "darwin", "ios":
		return ".dylib"
	default:
		return ".so"
	}
}

// FileName returns the artifact file name for a target.
func FileName(osys protocol.OperatingSystem, arch protocol.Architecture) string {
	prefix := "linux_"
	if osys == protocol.OperatingSystemWindows {
		prefix = "win_"
	}
	return baseName + prefix + arch.String() + ModuleSuffix()
}

// PathFor joins dir and the target's file name. An empty dir means the
// current working directory.
func PathFor(dir string, osys protocol.OperatingSystem, arch protocol.Architecture) string {
	return filepath.Join(dir, FileName(osys, arch))
}

// Write stores payload as the artifact for the given target inside dir,
// replacing any previous file. dir must already exist.
func Write(dir string, osys protocol.OperatingSystem, arch protocol.Architecture, payload []byte) (File, error) {
	if !osys.Valid() {
		return File{}, &pmerrors.InvalidArgumentError{Name: "operating_system", Value: osys}
	}
	if !arch.Valid() {
		return File{}, &pmerrors.InvalidArgumentError{Name: "architecture", Value: arch}
	}
	if dir == "" {
		dir = "."
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return File{}, &pmerrors.IOError{Op: "stat", Path: dir, Err: err}
	}
	info, err := os.Stat(abs)
	if err != nil {
		return File{}, &pmerrors.IOError{Op: "stat", Path: abs, Err: err}
	}
	if !info.IsDir() {
		return File{}, &pmerrors.IOError{Op: "stat", Path: abs, Err: fmt.Errorf("not a directory")}
	}

	f := File{Path: PathFor(abs, osys, arch)}
	if err := os.WriteFile(f.Path, payload, fileMode); err != nil {
		return File{}, &pmerrors.IOError{Op: "write", Path: f.Path, Err: err}
	}
	if !f.Exists() {
		return File{}, &pmerrors.IOError{Op: "verify", Path: f.Path, Err: os.ErrNotExist}
	}
	return f, nil
}
