// Command pandamodel downloads model libraries from a robot controller and
// evaluates them.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	pmerrors "github.com/danmuck/pandamodel/internal/errors"
	"github.com/danmuck/pandamodel/internal/logging"
	"github.com/danmuck/pandamodel/internal/observability"
)

// version is overridable at link time:
//
//	go build -ldflags "-X main.version=1.2.0"
var version = "0.1.0"

func main() {
	logging.ConfigureRuntime()
	observability.RegisterMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := observability.SetupTracing(ctx, "pandamodel")
	if err != nil {
		fmt.Fprintf(os.Stderr, "pandamodel: tracing disabled: %v\n", err)
	}

	err = newApp(os.Stdout).run(ctx, os.Args[1:])

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	_ = shutdown(flushCtx)
	cancel()

	switch {
	case err == nil:
	case errors.Is(err, errUsage):
		fmt.Fprintf(os.Stderr, "pandamodel: %v\n", err)
		os.Exit(2)
	default:
		fmt.Fprintf(os.Stderr, "pandamodel: %s: %v\n", pmerrors.Classify(err), err)
		os.Exit(1)
	}
}
