// Package library loads a downloaded model artifact and resolves its
// computation entry points.
//
// A Library is all-or-nothing: Load either resolves every catalogue symbol
// or returns an error and releases the module. Invocation methods forward
// caller-owned buffers straight to the artifact and never allocate.
//
// Whether concurrent calls are safe depends on the artifact itself, which
// cannot be verified from here. Construct once and serialize calls unless
// the artifact is known to be reentrant. Close must not race with calls;
// once it returns, every entry point panics with ErrLibraryClosed.
package library

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	pmerrors "github.com/danmuck/pandamodel/internal/errors"
	"github.com/danmuck/pandamodel/internal/observability"
)

// Library owns one loaded artifact and its resolved catalogue.
type Library struct {
	path      string
	module    Module
	logger    zerolog.Logger
	closeOnce sync.Once
	closed    atomic.Bool

	joint1, joint2, joint3, joint4, joint5, joint6, joint7, flange poseFunc
	ee                                                             poseTransformFunc

	bodyJacobianJoint1                                                                                                    jacobianConstFunc
	bodyJacobianJoint2, bodyJacobianJoint3, bodyJacobianJoint4, bodyJacobianJoint5, bodyJacobianJoint6, bodyJacobianJoint7 jacobianFunc
	bodyJacobianFlange                                                                                                    jacobianFunc
	bodyJacobianEE                                                                                                        jacobianTransformFunc

	zeroJacobianJoint1                                                                                                    jacobianConstFunc
	zeroJacobianJoint2, zeroJacobianJoint3, zeroJacobianJoint4, zeroJacobianJoint5, zeroJacobianJoint6, zeroJacobianJoint7 jacobianFunc
	zeroJacobianFlange                                                                                                    jacobianFunc
	zeroJacobianEE                                                                                                        jacobianTransformFunc

	mass     massFunc
	coriolis coriolisFunc
	gravity  gravityFunc
}

type options struct {
	opener Opener
	logger *zerolog.Logger
}

// Option customises Load.
type Option func(*options)

// WithOpener replaces the platform dynamic loader, e.g. with a stub.
func WithOpener(o Opener) Option {
	return func(opts *options) { opts.opener = o }
}

func WithLogger(l zerolog.Logger) Option {
	return func(opts *options) { opts.logger = &l }
}

// Load opens the artifact at path and resolves the full catalogue.
func Load(path string, opts ...Option) (*Library, error) {
	o := options{opener: SharedObjectOpener()}
	for _, opt := range opts {
		opt(&o)
	}
	logger := log.Logger
	if o.logger != nil {
		logger = *o.logger
	}

	lib, err := load(path, o.opener, logger)
	observability.RecordLibraryLoad(pmerrors.Classify(err))
	if err != nil {
		logger.Error().Str("component", "library").Str("path", path).Err(err).Msg("load failed")
		return nil, err
	}
	lib.logger.Info().Int("symbols", CatalogueCount).Msg("model library loaded")
	return lib, nil
}

func load(path string, opener Opener, logger zerolog.Logger) (*Library, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, &pmerrors.LoadError{Path: path, Err: err}
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, &pmerrors.LoadError{Path: abs, Err: err}
	}
	if info.IsDir() {
		return nil, &pmerrors.LoadError{Path: abs, Err: pmerrors.New("path is a directory")}
	}
	if !loaded.claim(abs) {
		return nil, &pmerrors.LoadError{Path: abs, Err: pmerrors.ErrAlreadyLoaded}
	}

	module, err := opener.Open(abs)
	if err != nil {
		loaded.release(abs)
		return nil, &pmerrors.LoadError{Path: abs, Err: err}
	}

	lib := &Library{
		path:   abs,
		module: module,
		logger: logger.With().Str("component", "library").Str("path", abs).Logger(),
	}
	for _, b := range lib.bindings() {
		if err := module.Bind(b.target, b.Export); err != nil {
			_ = module.Close()
			loaded.release(abs)
			var symErr *pmerrors.SymbolNotFoundError
			if pmerrors.As(err, &symErr) {
				return nil, symErr
			}
			return nil, &pmerrors.SymbolNotFoundError{Name: b.Export, Err: err}
		}
	}
	return lib, nil
}

// Path returns the absolute path of the loaded artifact.
func (l *Library) Path() string { return l.path }

// Closed reports whether Close has been called.
func (l *Library) Closed() bool { return l.closed.Load() }

// mustBeOpen guards an entry point. The bound functions point into the
// unloaded module after Close, so calling one would fault outside Go.
func (l *Library) mustBeOpen(export string) {
	if l.closed.Load() {
		panic(fmt.Errorf("library %s: %s called after Close: %w", l.path, export, pmerrors.ErrLibraryClosed))
	}
}

// Close unloads the artifact. Only the first call has an effect; unload
// failures are logged and dropped.
func (l *Library) Close() {
	l.closeOnce.Do(func() {
		l.closed.Store(true)
		if err := l.module.Close(); err != nil {
			l.logger.Warn().Err(err).Msg("unload failed")
		}
		loaded.release(l.path)
		l.logger.Debug().Msg("model library unloaded")
	})
}
