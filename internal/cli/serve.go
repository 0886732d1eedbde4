package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/cascade/internal/engine"
	"github.com/roach88/cascade/internal/server"
	"github.com/roach88/cascade/internal/store"
)

// shutdownTimeout bounds how long in-flight requests may finish after a
// stop signal.
const shutdownTimeout = 5 * time.Second

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	RuleOptions
	Addr     string
	Database string

	// IDGenerator overrides evaluation IDs (for testing).
	// If nil, defaults to UUIDv7Generator.
	IDGenerator engine.IDGenerator

	// OnListen is called with the bound address once the listener is open
	// (for testing with --addr 127.0.0.1:0).
	OnListen func(addr net.Addr)
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve resolve requests over HTTP",
		Long: `Start the HTTP adapter.

Routes:
  GET  /{a}/{b}/{c}/{d}/{e}/{f}   resolve against the current rules
  POST /{a}/{b}/{c}/{d}/{e}/{f}   resolve with {"exprs": [...]} added for
                                  this request only
  GET  /rules                     list the current rules
  POST /rules                     add {"exprs": [...]} for all requests

Every resolution is journaled. The journal is in memory unless --db names
a file; rules added over HTTP are never persisted.

Examples:
  cascade serve --addr :8000
  cascade serve --rules ./rules --db ./journal.db --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	addRuleFlags(cmd, &opts.RuleOptions)
	cmd.Flags().StringVar(&opts.Addr, "addr", ":8000", "listen address")
	cmd.Flags().StringVar(&opts.Database, "db", ":memory:", "path to SQLite journal")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	setupLogging(opts.RootOptions, cmd.ErrOrStderr())

	slog.Info("loading rules", "files", len(opts.Files), "exprs", len(opts.Exprs))
	loadResult, loadErrors := LoadRules(opts.Files, opts.Exprs, LoadModeFailFast)
	if len(loadErrors) > 0 {
		return WrapExitError(ExitCommandError, "failed to load rules", loadErrors[0])
	}
	rs := loadResult.RuleSet(opts.NoDefaults)
	slog.Info("rules loaded", "rules", rs.Len(), "snapshot", rs.ID())

	slog.Info("opening journal", "path", opts.Database)
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Continue seq numbering after whatever the journal already holds.
	lastSeq, err := st.LastSeq(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read journal", err)
	}

	evaluator := engine.NewEvaluator(st, opts.IDGenerator).WithClock(engine.NewClockAt(lastSeq))
	srv := server.New(engine.NewRegistry(rs), evaluator, slog.Default())

	ln, err := net.Listen("tcp", opts.Addr)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to listen", err)
	}

	httpServer := &http.Server{
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("server starting", "addr", ln.Addr().String(), "journal", opts.Database)
	fmt.Fprintf(cmd.OutOrStdout(), "Listening on %s\n", ln.Addr())
	if opts.OnListen != nil {
		opts.OnListen(ln.Addr())
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return WrapExitError(ExitFailure, "server error", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}
