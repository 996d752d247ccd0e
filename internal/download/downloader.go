package download

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/danmuck/pandamodel/internal/artifact"
	pmerrors "github.com/danmuck/pandamodel/internal/errors"
	"github.com/danmuck/pandamodel/internal/observability"
	"github.com/danmuck/pandamodel/internal/protocol"
	"github.com/danmuck/pandamodel/internal/protocol/session"
)

// Request names one artifact to fetch and where to put it.
type Request struct {
	Host string
	// Port defaults to protocol.DefaultCommandPort.
	Port int
	// Dir must exist. Empty means the working directory.
	Dir             string
	Architecture    protocol.Architecture
	OperatingSystem protocol.OperatingSystem
	// Version defaults to protocol.DefaultVersion.
	Version uint16
}

func (r Request) withDefaults() Request {
	if r.Port == 0 {
		r.Port = protocol.DefaultCommandPort
	}
	if r.Version == 0 {
		r.Version = protocol.DefaultVersion
	}
	return r
}

// Target is one artifact flavour the controller publishes.
type Target struct {
	OperatingSystem protocol.OperatingSystem
	Architecture    protocol.Architecture
}

func (t Target) String() string {
	return t.OperatingSystem.String() + "/" + t.Architecture.String()
}

// AllTargets lists every published flavour.
func AllTargets() []Target {
	return []Target{
		{protocol.OperatingSystemWindows, protocol.ArchitectureX64},
		{protocol.OperatingSystemWindows, protocol.ArchitectureX86},
		{protocol.OperatingSystemLinux, protocol.ArchitectureX64},
		{protocol.OperatingSystemLinux, protocol.ArchitectureX86},
		{protocol.OperatingSystemLinux, protocol.ArchitectureARM64},
		{protocol.OperatingSystemLinux, protocol.ArchitectureARM},
	}
}

// For returns a copy of r aimed at t.
func (r Request) For(t Target) Request {
	r.OperatingSystem = t.OperatingSystem
	r.Architecture = t.Architecture
	return r
}

// Conn is a Transport owned by a single download.
type Conn interface {
	Transport
	Close() error
}

// DialFunc opens a Conn to host:port.
type DialFunc func(ctx context.Context, host string, port int, cfg session.Config) (Conn, error)

func dialSession(ctx context.Context, host string, port int, cfg session.Config) (Conn, error) {
	s, err := session.Open(ctx, host, port, cfg)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Downloader fetches and persists artifacts. It holds no connection state
// and may be shared by goroutines.
type Downloader struct {
	cfg    session.Config
	dial   DialFunc
	logger zerolog.Logger
}

type Option func(*Downloader)

func WithSessionConfig(cfg session.Config) Option {
	return func(d *Downloader) { d.cfg = cfg }
}

func WithDialer(dial DialFunc) Option {
	return func(d *Downloader) { d.dial = dial }
}

func WithLogger(l zerolog.Logger) Option {
	return func(d *Downloader) { d.logger = l }
}

func NewDownloader(opts ...Option) *Downloader {
	d := &Downloader{
		cfg:    session.DefaultConfig(),
		dial:   dialSession,
		logger: log.Logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.With().Str("component", "download").Logger()
	return d
}

// Download fetches one artifact over a fresh session and writes it to
// req.Dir. Cancelling ctx aborts the exchange.
func (d *Downloader) Download(ctx context.Context, req Request) (artifact.File, error) {
	req = req.withDefaults()
	ctx, span := observability.Tracer().Start(ctx, "download")
	defer span.End()
	span.SetAttributes(
		attribute.String("controller.host", req.Host),
		attribute.Int("controller.port", req.Port),
		attribute.String("artifact.os", req.OperatingSystem.String()),
		attribute.String("artifact.arch", req.Architecture.String()),
		attribute.Int("protocol.version", int(req.Version)),
	)

	logger := d.logger.With().
		Str("host", req.Host).
		Int("port", req.Port).
		Stringer("os", req.OperatingSystem).
		Stringer("arch", req.Architecture).
		Logger()

	start := time.Now()
	file, size, err := d.download(ctx, req)
	elapsed := time.Since(start)
	result := pmerrors.Classify(err)
	observability.RecordDownload(req.Architecture.String(), req.OperatingSystem.String(), result, size, elapsed)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, result)
		logger.Error().Err(err).Str("result", result).Dur("elapsed", elapsed).Msg("download failed")
		return artifact.File{}, err
	}
	span.SetAttributes(attribute.Int("artifact.bytes", size), attribute.String("artifact.path", file.Path))
	logger.Info().Str("path", file.Path).Int("bytes", size).Dur("elapsed", elapsed).Msg("model library downloaded")
	return file, nil
}

func (d *Downloader) download(ctx context.Context, req Request) (artifact.File, int, error) {
	if req.Host == "" {
		return artifact.File{}, 0, &pmerrors.InvalidArgumentError{Name: "host", Value: req.Host}
	}
	if !req.Architecture.Valid() {
		return artifact.File{}, 0, &pmerrors.InvalidArgumentError{Name: "architecture", Value: req.Architecture, Err: protocol.ErrInvalidEnum}
	}
	if !req.OperatingSystem.Valid() {
		return artifact.File{}, 0, &pmerrors.InvalidArgumentError{Name: "operating_system", Value: req.OperatingSystem, Err: protocol.ErrInvalidEnum}
	}

	conn, err := d.dial(ctx, req.Host, req.Port, d.cfg)
	if err != nil {
		return artifact.File{}, 0, err
	}
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	payload, err := fetch(conn, req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("%w (%w)", err, ctxErr)
		}
		return artifact.File{}, 0, err
	}

	file, err := artifact.Write(req.Dir, req.OperatingSystem, req.Architecture, payload.Library)
	if err != nil {
		return artifact.File{}, 0, err
	}
	return file, len(payload.Library), nil
}

func fetch(t Transport, req Request) (Payload, error) {
	client := NewClient(t)
	if _, err := client.Connect(req.Version); err != nil {
		return Payload{}, err
	}
	return client.LoadModelLibrary(req.Architecture, req.OperatingSystem)
}

// DownloadAll fetches every request concurrently, one session each. The
// first failure cancels the rest and no files are returned; artifacts
// already written stay on disk.
func (d *Downloader) DownloadAll(ctx context.Context, reqs []Request) ([]artifact.File, error) {
	files := make([]artifact.File, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	for i, req := range reqs {
		g.Go(func() error {
			f, err := d.Download(gctx, req)
			if err != nil {
				return fmt.Errorf("%s/%s: %w", req.OperatingSystem, req.Architecture, err)
			}
			files[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}
