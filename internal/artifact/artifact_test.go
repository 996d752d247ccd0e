package artifact

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	pmerrors "github.com/danmuck/pandamodel/internal/errors"
	"github.com/danmuck/pandamodel/internal/protocol"
	"github.com/danmuck/pandamodel/internal/testutil/testlog"
)

func TestFileNameConvention(t *testing.T) {
	testlog.Start(t)
	suffix := ModuleSuffix()
	cases := []struct {
		osys protocol.OperatingSystem
		arch protocol.Architecture
		want string
	}{
		{protocol.OperatingSystemWindows, protocol.ArchitectureX64, "libfrankamodel.win_x64"},
		{protocol.OperatingSystemWindows, protocol.ArchitectureX86, "libfrankamodel.win_x86"},
		{protocol.OperatingSystemLinux, protocol.ArchitectureX64, "libfrankamodel.linux_x64"},
		{protocol.OperatingSystemLinux, protocol.ArchitectureX86, "libfrankamodel.linux_x86"},
		{protocol.OperatingSystemLinux, protocol.ArchitectureARM64, "libfrankamodel.linux_arm64"},
		{protocol.OperatingSystemLinux, protocol.ArchitectureARM, "libfrankamodel.linux_arm"},
	}
	for _, tc := range cases {
		if got := FileName(tc.osys, tc.arch); got != tc.want+suffix {
			t.Fatalf("FileName(%s,%s)=%q want %q", tc.osys, tc.arch, got, tc.want+suffix)
		}
	}
}

func TestModuleSuffixPerPlatform(t *testing.T) {
	testlog.Start(t)
	for goos, want := range map[string]string{"linux": ".so", "freebsd": ".so", "darwin": ".dylib", "windows": ".dll"} {
		if got := moduleSuffixFor(goos); got != want {
			t.Fatalf("suffix(%s)=%q want %q", goos, got, want)
		}
	}
}

func TestWriteCreatesAndOverwrites(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()

	f, err := Write(dir, protocol.OperatingSystemLinux, protocol.ArchitectureX64, []byte("first"))
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if !f.Exists() {
		t.Fatalf("expected file to exist at %s", f.Path)
	}
	if !filepath.IsAbs(f.Path) || filepath.Dir(f.Path) != dir {
		t.Fatalf("unexpected path: %s", f.Path)
	}

	if _, err := Write(dir, protocol.OperatingSystemLinux, protocol.ArchitectureX64, []byte("second")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err := os.ReadFile(f.Path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !bytes.Equal(got, []byte("second")) {
		t.Fatalf("content=%q", got)
	}
}

func TestWriteMissingDirectoryIsIOError(t *testing.T) {
	testlog.Start(t)
	dir := filepath.Join(t.TempDir(), "does-not-exist")
	_, err := Write(dir, protocol.OperatingSystemLinux, protocol.ArchitectureX64, []byte("x"))
	var ioErr *pmerrors.IOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("expected IOError, got %v", err)
	}
	if _, statErr := os.Stat(PathFor(dir, protocol.OperatingSystemLinux, protocol.ArchitectureX64)); statErr == nil {
		t.Fatalf("no file should be written")
	}
}

func TestWriteIntoFileIsIOError(t *testing.T) {
	testlog.Start(t)
	notDir := filepath.Join(t.TempDir(), "plain")
	if err := os.WriteFile(notDir, nil, 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}
	_, err := Write(notDir, protocol.OperatingSystemWindows, protocol.ArchitectureX86, []byte("x"))
	var ioErr *pmerrors.IOError
	if !errors.As(err, &ioErr) || ioErr.Op != "stat" {
		t.Fatalf("expected stat IOError, got %v", err)
	}
}

func TestWriteRejectsUnknownTarget(t *testing.T) {
	testlog.Start(t)
	_, err := Write(t.TempDir(), protocol.OperatingSystem(7), protocol.ArchitectureX64, nil)
	var argErr *pmerrors.InvalidArgumentError
	if !errors.As(err, &argErr) {
		t.Fatalf("expected InvalidArgumentError, got %v", err)
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	testlog.Start(t)
	f, err := Write(t.TempDir(), protocol.OperatingSystemLinux, protocol.ArchitectureARM, []byte{1})
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := f.Remove(); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if f.Exists() {
		t.Fatalf("file should be gone")
	}
	if err := f.Remove(); err != nil {
		t.Fatalf("second remove: %v", err)
	}
}
