package library_test

import (
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	pmerrors "github.com/danmuck/pandamodel/internal/errors"
	"github.com/danmuck/pandamodel/internal/library"
	"github.com/danmuck/pandamodel/internal/observability"
	"github.com/danmuck/pandamodel/internal/testutil/stubartifact"
	"github.com/danmuck/pandamodel/internal/testutil/testlog"
)

func writeStub(t *testing.T, m stubartifact.Manifest) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "libfrankamodel.linux_x64.so")
	if err := stubartifact.Write(path, m); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func TestSymbolsCatalogue(t *testing.T) {
	testlog.Start(t)

	syms := library.Symbols()
	if len(syms) != library.CatalogueCount {
		t.Fatalf("catalogue size=%d", len(syms))
	}
	seen := map[string]bool{}
	for _, s := range syms {
		if seen[s.Export] {
			t.Fatalf("duplicate export %s", s.Export)
		}
		seen[s.Export] = true
	}
	want := map[string]string{
		"joint1":               "O_T_J1",
		"flange":               "O_T_J8",
		"ee":                   "O_T_J9",
		"body_jacobian_joint4": "Ji_J_J4",
		"zero_jacobian_ee":     "O_J_J9",
		"mass":                 "M_NE",
		"coriolis":             "c_NE",
		"gravity":              "g_NE",
	}
	for _, s := range syms {
		if exp, ok := want[s.Logical]; ok && exp != s.Export {
			t.Fatalf("%s maps to %s, want %s", s.Logical, s.Export, exp)
		}
	}
}

func TestLoadResolvesCatalogue(t *testing.T) {
	testlog.Start(t)

	m := stubartifact.Full()
	m.Outputs = map[string][]float64{"g_NE": {1, 2, 3, 4, 5, 6, 7}}
	path := writeStub(t, m)
	opener := stubartifact.NewOpener()

	lib, err := library.Load(path, library.WithOpener(opener))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	defer lib.Close()
	if lib.Path() != path {
		t.Fatalf("path=%q want %q", lib.Path(), path)
	}
	if !library.IsLoaded(path) {
		t.Fatalf("path should be registered while loaded")
	}

	q := [7]float64{0, -0.785, 0, -2.356, 0, 1.571, 0.785}
	g := [3]float64{0, 0, -9.81}
	com := [3]float64{-0.01, 0, 0.03}
	var out [7]float64
	lib.Gravity(&q, &g, 0.73, &com, &out)

	if out != [7]float64{1, 2, 3, 4, 5, 6, 7} {
		t.Fatalf("gravity out=%v", out)
	}
	calls := opener.Recorder.CallsTo("g_NE")
	if len(calls) != 1 {
		t.Fatalf("g_NE calls=%d", len(calls))
	}
	args := calls[0].Args
	if len(args) != 5 {
		t.Fatalf("g_NE args=%d", len(args))
	}
	if got := args[1].([]float64); got[2] != -9.81 {
		t.Fatalf("gravity vector=%v", got)
	}
	if got := args[2].(float64); got != 0.73 {
		t.Fatalf("mass=%v", got)
	}
}

func TestConstantJacobiansTakeOnlyOutput(t *testing.T) {
	testlog.Start(t)

	path := writeStub(t, stubartifact.Full())
	opener := stubartifact.NewOpener()
	lib, err := library.Load(path, library.WithOpener(opener))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	defer lib.Close()

	var out [42]float64
	lib.BodyJacobianJoint1(&out)
	lib.ZeroJacobianJoint1(&out)
	for _, name := range []string{"Ji_J_J1", "O_J_J1"} {
		calls := opener.Recorder.CallsTo(name)
		if len(calls) != 1 || len(calls[0].Args) != 1 {
			t.Fatalf("%s calls=%+v", name, calls)
		}
	}
	if out[41] != 1 {
		t.Fatalf("output not written")
	}
}

func TestLoadMissingSymbol(t *testing.T) {
	testlog.Start(t)

	path := writeStub(t, stubartifact.Full().Without("c_NE"))
	opener := stubartifact.NewOpener()
	before := testutil.ToFloat64(observability.LibraryLoads().WithLabelValues("symbol"))

	lib, err := library.Load(path, library.WithOpener(opener))
	if err == nil {
		lib.Close()
		t.Fatalf("expected missing symbol error")
	}
	var symErr *pmerrors.SymbolNotFoundError
	if !pmerrors.As(err, &symErr) || symErr.Name != "c_NE" {
		t.Fatalf("err=%v", err)
	}
	if library.IsLoaded(path) {
		t.Fatalf("failed load must release the path")
	}
	if opener.Recorder.Closed() != 1 {
		t.Fatalf("module closed %d times", opener.Recorder.Closed())
	}
	after := testutil.ToFloat64(observability.LibraryLoads().WithLabelValues("symbol"))
	if after != before+1 {
		t.Fatalf("symbol failures %v -> %v", before, after)
	}
}

func TestLoadMissingFile(t *testing.T) {
	testlog.Start(t)

	_, err := library.Load(filepath.Join(t.TempDir(), "absent.so"), library.WithOpener(stubartifact.NewOpener()))
	var loadErr *pmerrors.LoadError
	if !pmerrors.As(err, &loadErr) {
		t.Fatalf("err=%v", err)
	}
	if !pmerrors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected not-exist cause, got %v", err)
	}
}

func TestLoadRejectsUnparseableArtifact(t *testing.T) {
	testlog.Start(t)

	path := filepath.Join(t.TempDir(), "garbage.so")
	if err := stubartifact.Write(path, stubartifact.Manifest{}); err != nil {
		t.Fatal(err)
	}
	_, err := library.Load(path, library.WithOpener(library.OpenerFunc(func(string) (library.Module, error) {
		return nil, pmerrors.New("invalid ELF header")
	})))
	var loadErr *pmerrors.LoadError
	if !pmerrors.As(err, &loadErr) {
		t.Fatalf("err=%v", err)
	}
	if library.IsLoaded(path) {
		t.Fatalf("failed open must release the path")
	}
}

func TestLoadTwiceRejected(t *testing.T) {
	testlog.Start(t)

	path := writeStub(t, stubartifact.Full())
	opener := stubartifact.NewOpener()
	first, err := library.Load(path, library.WithOpener(opener))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if _, err := library.Load(path, library.WithOpener(opener)); !pmerrors.Is(err, pmerrors.ErrAlreadyLoaded) {
		t.Fatalf("second load err=%v", err)
	}

	first.Close()
	second, err := library.Load(path, library.WithOpener(opener))
	if err != nil {
		t.Fatalf("reload after close: %v", err)
	}
	second.Close()
}

func TestCloseIsIdempotent(t *testing.T) {
	testlog.Start(t)

	path := writeStub(t, stubartifact.Full())
	opener := stubartifact.NewOpener()
	lib, err := library.Load(path, library.WithOpener(opener))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	lib.Close()
	lib.Close()
	if opener.Recorder.Closed() != 1 {
		t.Fatalf("module closed %d times", opener.Recorder.Closed())
	}
	if library.IsLoaded(path) {
		t.Fatalf("close must release the path")
	}
}

func TestCallAfterClosePanics(t *testing.T) {
	testlog.Start(t)

	path := writeStub(t, stubartifact.Full())
	opener := stubartifact.NewOpener()
	lib, err := library.Load(path, library.WithOpener(opener))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if lib.Closed() {
		t.Fatalf("fresh library reports closed")
	}
	lib.Close()
	if !lib.Closed() {
		t.Fatalf("library should report closed")
	}

	q := [7]float64{}
	g := [3]float64{0, 0, -9.81}
	com := [3]float64{}
	var (
		tOut [16]float64
		jOut [42]float64
		vOut [7]float64
	)
	calls := map[string]func(){
		"O_T_J1":  func() { lib.Joint1(&q, &tOut) },
		"O_T_J9":  func() { lib.EE(&q, &tOut, &tOut) },
		"Ji_J_J1": func() { lib.BodyJacobianJoint1(&jOut) },
		"O_J_J8":  func() { lib.ZeroJacobianFlange(&q, &jOut) },
		"g_NE":    func() { lib.Gravity(&q, &g, 1, &com, &vOut) },
	}
	for name, call := range calls {
		func() {
			defer func() {
				r := recover()
				err, ok := r.(error)
				if !ok || !pmerrors.Is(err, pmerrors.ErrLibraryClosed) {
					t.Fatalf("%s: recovered %v, want ErrLibraryClosed", name, r)
				}
			}()
			call()
		}()
	}
	if n := len(opener.Recorder.Calls()); n != 0 {
		t.Fatalf("closed library reached the module %d times", n)
	}
}
