package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	flag "github.com/spf13/pflag"

	"github.com/danmuck/pandamodel/internal/artifact"
	"github.com/danmuck/pandamodel/internal/download"
	pmerrors "github.com/danmuck/pandamodel/internal/errors"
	"github.com/danmuck/pandamodel/internal/library"
	"github.com/danmuck/pandamodel/internal/model"
	"github.com/danmuck/pandamodel/internal/observability"
	"github.com/danmuck/pandamodel/internal/protocol"
	"github.com/danmuck/pandamodel/internal/protocol/session"
)

var (
	errUsage = errors.New("usage")
	errHelp  = errors.New("help requested")
)

// startQ is the usual ready pose.
var startQ = model.JointVector{0, -0.785398, 0, -2.356194, 0, 1.570796, 0.785398}

type app struct {
	out         io.Writer
	libraryOpts []library.Option
	sleep       func(ctx context.Context, d time.Duration) error
	rng         *rand.Rand
}

func newApp(out io.Writer) *app {
	return &app{
		out:   out,
		sleep: sleepContext,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// parseFlags treats --help as success; the flag set has printed usage.
func parseFlags(fs *flag.FlagSet, args []string) error {
	err := fs.Parse(args)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, flag.ErrHelp):
		return errHelp
	default:
		return fmt.Errorf("%w: %v", errUsage, err)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (a *app) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		a.usage()
		return errUsage
	}
	var err error
	switch args[0] {
	case "download":
		err = a.runDownload(ctx, args[1:])
	case "eval":
		err = a.runEval(args[1:])
	case "version":
		fmt.Fprintf(a.out, "pandamodel %s (protocol version %d)\n", version, protocol.DefaultVersion)
		return nil
	case "help", "-h", "--help":
		a.usage()
		return nil
	default:
		a.usage()
		return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}
	if errors.Is(err, errHelp) {
		return nil
	}
	return err
}

func (a *app) usage() {
	fmt.Fprint(a.out, `Usage:
  pandamodel download [flags] <host>   fetch a model library from a controller
  pandamodel eval [flags] <library>    evaluate a downloaded model library
  pandamodel version

Run "pandamodel <command> --help" for flags.
`)
}

// ── download ─────────────────────────────────────────────────────────

func (a *app) runDownload(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("download", flag.ContinueOnError)
	fs.SetOutput(a.out)
	configPath := fs.StringP("config", "c", "", "TOML config file")
	dir := fs.StringP("path", "p", "", "Directory to write the library into (default \".\")")
	arch := fs.StringP("arch", "a", "", "Target architecture: x64, x86, arm64, arm")
	osys := fs.StringP("os", "o", "", "Target operating system: linux, windows")
	ver := fs.Uint16P("version", "v", 0, "Controller protocol version")
	port := fs.Int("port", 0, "Controller command port")
	all := fs.Bool("all", false, "Download every published architecture/OS pair")
	attempts := fs.Int("attempts", 0, "Attempts per library on connection failures")
	metricsFile := fs.String("metrics-file", "", "Write Prometheus metrics to this file on exit")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *metricsFile != "" {
		defer func() {
			if err := observability.WriteMetrics(*metricsFile); err != nil {
				log.Warn().Err(err).Str("path", *metricsFile).Msg("metrics not written")
			}
		}()
	}

	cfg, err := resolveConfig(*configPath)
	if err != nil {
		return err
	}
	if fs.Changed("path") {
		cfg.Dir = *dir
	}
	if fs.Changed("arch") {
		if cfg.Architecture, err = protocol.ParseArchitecture(*arch); err != nil {
			return &pmerrors.InvalidArgumentError{Name: "arch", Value: *arch, Err: err}
		}
	}
	if fs.Changed("os") {
		if cfg.OperatingSystem, err = protocol.ParseOperatingSystem(*osys); err != nil {
			return &pmerrors.InvalidArgumentError{Name: "os", Value: *osys, Err: err}
		}
	}
	if fs.Changed("version") {
		cfg.Version = *ver
	}
	if fs.Changed("port") {
		cfg.Port = *port
	}
	if fs.Changed("attempts") {
		cfg.Attempts = *attempts
	}
	if fs.NArg() > 1 {
		return fmt.Errorf("%w: download takes one host, got %d", errUsage, fs.NArg())
	}
	if fs.NArg() == 1 {
		cfg.Host = fs.Arg(0)
	}
	if cfg.Host == "" {
		return fmt.Errorf("%w: no controller host (argument, PANDA_MODEL_HOST or config)", errUsage)
	}
	if err := cfg.validate(); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	d := download.NewDownloader(download.WithSessionConfig(cfg.Session))
	base := download.Request{
		Host:            cfg.Host,
		Port:            cfg.Port,
		Dir:             cfg.Dir,
		Architecture:    cfg.Architecture,
		OperatingSystem: cfg.OperatingSystem,
		Version:         cfg.Version,
	}

	if !*all {
		file, err := a.downloadWithRetry(ctx, d, base, cfg)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, file.Path)
		return nil
	}

	var reqs []download.Request
	for _, target := range download.AllTargets() {
		reqs = append(reqs, base.For(target))
	}
	var files []artifact.File
	for attempt := 1; ; attempt++ {
		files, err = d.DownloadAll(ctx, reqs)
		if err == nil || !a.retry(ctx, cfg, attempt, err) {
			break
		}
	}
	if err != nil {
		return err
	}
	for _, f := range files {
		fmt.Fprintln(a.out, f.Path)
	}
	return nil
}

func (a *app) downloadWithRetry(ctx context.Context, d *download.Downloader, req download.Request, cfg Config) (artifact.File, error) {
	for attempt := 1; ; attempt++ {
		file, err := d.Download(ctx, req)
		if err == nil || !a.retry(ctx, cfg, attempt, err) {
			return file, err
		}
	}
}

// retry reports whether another attempt should follow a failed one. Only
// connection failures are retried, each on a fresh session.
func (a *app) retry(ctx context.Context, cfg Config, attempt int, err error) bool {
	if attempt >= cfg.Attempts || !pmerrors.IsConnection(err) || ctx.Err() != nil {
		return false
	}
	delay := session.NextBackoffDelay(cfg.Session.Backoff, attempt, a.rng)
	log.Warn().Err(err).Int("attempt", attempt).Dur("delay", delay).Msg("download failed, retrying")
	return a.sleep(ctx, delay) == nil
}

// ── eval ─────────────────────────────────────────────────────────────

var evalQueries = []string{"pose", "body-jacobian", "zero-jacobian", "mass", "coriolis", "gravity"}

func (a *app) runEval(args []string) error {
	fs := flag.NewFlagSet("eval", flag.ContinueOnError)
	fs.SetOutput(a.out)
	configPath := fs.StringP("config", "c", "", "TOML config file")
	frameName := fs.StringP("frame", "f", model.EndEffector.String(), "Frame for pose and Jacobians")
	qRaw := fs.String("q", "", "Joint positions, 7 comma-separated values (default ready pose)")
	dqRaw := fs.String("dq", "", "Joint velocities, 7 comma-separated values (default zero)")
	what := fs.StringP("what", "w", "all", "Query: "+strings.Join(evalQueries, ", ")+" or all")
	noGripper := fs.Bool("no-gripper", false, "Use identity F_T_EE and EE_T_K")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	cfg, err := resolveConfig(*configPath)
	if err != nil {
		return err
	}
	if fs.NArg() > 1 {
		return fmt.Errorf("%w: eval takes one library, got %d", errUsage, fs.NArg())
	}
	if fs.NArg() == 1 {
		cfg.LibraryPath = fs.Arg(0)
	}
	if cfg.LibraryPath == "" {
		return fmt.Errorf("%w: no model library (argument, PANDA_MODEL_PATH or config)", errUsage)
	}

	frame, err := model.ParseFrame(*frameName)
	if err != nil {
		return &pmerrors.InvalidArgumentError{Name: "frame", Value: *frameName, Err: pmerrors.ErrInvalidFrame}
	}
	q := startQ
	if *qRaw != "" {
		if q, err = parseJointVector(*qRaw); err != nil {
			return &pmerrors.InvalidArgumentError{Name: "q", Value: *qRaw, Err: err}
		}
	}
	var dq model.JointVector
	if *dqRaw != "" {
		if dq, err = parseJointVector(*dqRaw); err != nil {
			return &pmerrors.InvalidArgumentError{Name: "dq", Value: *dqRaw, Err: err}
		}
	}
	queries := evalQueries
	if *what != "all" {
		if !contains(evalQueries, *what) {
			return &pmerrors.InvalidArgumentError{Name: "what", Value: *what}
		}
		queries = []string{*what}
	}
	var opts []model.Option
	if *noGripper {
		opts = append(opts, model.WithEndEffector(model.Identity4), model.WithStiffness(model.Identity4))
	}

	m, err := model.Open(cfg.LibraryPath, a.libraryOpts...)
	if err != nil {
		return err
	}
	defer m.Close()

	for _, query := range queries {
		if err := a.evalOne(m, query, frame, q, dq, opts); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) evalOne(m *model.Model, query string, frame model.Frame, q, dq model.JointVector, opts []model.Option) error {
	switch query {
	case "pose":
		v, err := m.Pose(frame, q, opts...)
		if err != nil {
			return err
		}
		printMatrix(a.out, query+" "+frame.String(), 4, 4, v.At)
	case "body-jacobian":
		v, err := m.BodyJacobian(frame, q, opts...)
		if err != nil {
			return err
		}
		printMatrix(a.out, query+" "+frame.String(), 6, 7, v.At)
	case "zero-jacobian":
		v, err := m.ZeroJacobian(frame, q, opts...)
		if err != nil {
			return err
		}
		printMatrix(a.out, query+" "+frame.String(), 6, 7, v.At)
	case "mass":
		v := m.Mass(q, opts...)
		printMatrix(a.out, query, 7, 7, v.At)
	case "coriolis":
		v := m.Coriolis(q, dq, opts...)
		printMatrix(a.out, query, 7, 1, v.At)
	case "gravity":
		v := m.Gravity(q, opts...)
		printMatrix(a.out, query, 7, 1, v.At)
	}
	return nil
}

func printMatrix(w io.Writer, title string, rows, cols int, at func(row, col int) float64) {
	fmt.Fprintf(w, "%s:\n", title)
	for r := 0; r < rows; r++ {
		cells := make([]string, cols)
		for c := 0; c < cols; c++ {
			cells[c] = strconv.FormatFloat(at(r, c), 'f', 6, 64)
		}
		fmt.Fprintf(w, "  [%s]\n", strings.Join(cells, " "))
	}
}

func parseJointVector(raw string) (model.JointVector, error) {
	var out model.JointVector
	parts := strings.Split(raw, ",")
	if len(parts) != len(out) {
		return out, fmt.Errorf("want %d values, got %d", len(out), len(parts))
	}
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return out, err
		}
		out[i] = v
	}
	return out, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
