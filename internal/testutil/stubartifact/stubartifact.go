// Package stubartifact provides a stand-in for a compiled model library.
//
// A stub artifact is a TOML manifest naming the symbols it exports and the
// values each one writes into its output buffer. Opener turns such a file
// into a library.Module whose bound functions record every call.
package stubartifact

import (
	"fmt"
	"os"
	"reflect"
	"sync"

	"github.com/pelletier/go-toml/v2"

	pmerrors "github.com/danmuck/pandamodel/internal/errors"
	"github.com/danmuck/pandamodel/internal/library"
)

// Manifest describes the exports of a stub artifact.
type Manifest struct {
	Symbols []string             `toml:"symbols"`
	Fill    float64              `toml:"fill"`
	Outputs map[string][]float64 `toml:"outputs,omitempty"`
}

// Full returns a manifest exporting the whole catalogue.
func Full() Manifest {
	return Manifest{Symbols: library.ExportNames(), Fill: 1}
}

// Without returns a copy of m that does not export name.
func (m Manifest) Without(name string) Manifest {
	out := Manifest{Fill: m.Fill, Outputs: m.Outputs}
	for _, s := range m.Symbols {
		if s != name {
			out.Symbols = append(out.Symbols, s)
		}
	}
	return out
}

// Encode renders m as the artifact payload.
func Encode(m Manifest) ([]byte, error) {
	return toml.Marshal(m)
}

// MustEncode is Encode for test fixtures.
func MustEncode(m Manifest) []byte {
	b, err := Encode(m)
	if err != nil {
		panic(err)
	}
	return b
}

// Write stores m at path.
func Write(path string, m Manifest) error {
	b, err := Encode(m)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o755)
}

// Call is one recorded invocation. Array arguments are copied into
// []float64 at call time; scalars are float64.
type Call struct {
	Symbol string
	Args   []any
}

// Recorder collects calls across every module an Opener produced.
type Recorder struct {
	mu     sync.Mutex
	calls  []Call
	closed int
}

func (r *Recorder) record(c Call) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, c)
}

// Calls returns a snapshot of recorded calls in order.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// CallsTo returns the recorded calls for one export.
func (r *Recorder) CallsTo(symbol string) []Call {
	var out []Call
	for _, c := range r.Calls() {
		if c.Symbol == symbol {
			out = append(out, c)
		}
	}
	return out
}

func (r *Recorder) Closed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// Opener opens stub artifacts, recording into Recorder.
type Opener struct {
	Recorder *Recorder
}

// NewOpener returns an Opener with a fresh Recorder.
func NewOpener() *Opener {
	return &Opener{Recorder: &Recorder{}}
}

func (o *Opener) Open(path string) (library.Module, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := toml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("not a stub artifact: %w", err)
	}
	exports := make(map[string]struct{}, len(m.Symbols))
	for _, s := range m.Symbols {
		exports[s] = struct{}{}
	}
	return &module{manifest: m, exports: exports, rec: o.Recorder}, nil
}

type module struct {
	manifest Manifest
	exports  map[string]struct{}
	rec      *Recorder
}

func (m *module) Bind(fnPtr any, name string) error {
	if _, ok := m.exports[name]; !ok {
		return &pmerrors.SymbolNotFoundError{Name: name}
	}
	target := reflect.ValueOf(fnPtr)
	if target.Kind() != reflect.Pointer || target.Elem().Kind() != reflect.Func {
		return fmt.Errorf("bind %s: want pointer to func, got %T", name, fnPtr)
	}
	fnType := target.Elem().Type()
	fill := m.manifest.Fill
	values := m.manifest.Outputs[name]
	fn := reflect.MakeFunc(fnType, func(args []reflect.Value) []reflect.Value {
		call := Call{Symbol: name, Args: make([]any, 0, len(args))}
		for _, a := range args {
			switch a.Kind() {
			case reflect.Float64:
				call.Args = append(call.Args, a.Float())
			case reflect.Pointer:
				arr := a.Elem()
				copied := make([]float64, arr.Len())
				for i := range copied {
					copied[i] = arr.Index(i).Float()
				}
				call.Args = append(call.Args, copied)
			}
		}
		m.rec.record(call)

		out := args[len(args)-1].Elem()
		for i := 0; i < out.Len(); i++ {
			v := fill
			if i < len(values) {
				v = values[i]
			}
			out.Index(i).SetFloat(v)
		}
		return nil
	})
	target.Elem().Set(fn)
	return nil
}

func (m *module) Close() error {
	m.rec.mu.Lock()
	defer m.rec.mu.Unlock()
	m.rec.closed++
	return nil
}
