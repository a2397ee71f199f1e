package cli

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/backlog/internal/away"
	"github.com/roach88/backlog/internal/engine"
	"github.com/roach88/backlog/internal/httpapi"
	"github.com/roach88/backlog/internal/ingest"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	storeFlags
	Listen  string
	APIAddr string
	API     bool
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the logging service",
		Long: "Run the logging service: accept bouncer events on the ingest\n" +
			"listener, log them and answer module commands. With --api the\n" +
			"read-only HTTP API is served as well.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, rootOpts, opts)
		},
	}

	opts.storeFlags.register(cmd)
	cmd.Flags().StringVar(&opts.Listen, "listen", "", "ingest listen address (overrides listen-addr)")
	cmd.Flags().StringVar(&opts.APIAddr, "api-addr", "", "HTTP API listen address (overrides api-addr)")
	cmd.Flags().BoolVar(&opts.API, "api", false, "serve the HTTP API (overrides api-enabled)")

	return cmd
}

func runServe(cmd *cobra.Command, rootOpts *RootOptions, opts *ServeOptions) error {
	formatter := newFormatter(cmd, rootOpts)

	cfg, err := loadConfig(rootOpts, opts.storeFlags)
	if err != nil {
		return formatter.Fail(ExitCommandError, CodeConfig, err.Error(), nil)
	}
	if opts.Listen != "" {
		cfg.ListenAddr = opts.Listen
	}
	if opts.APIAddr != "" {
		cfg.APIAddr = opts.APIAddr
	}
	if cmd.Flags().Changed("api") {
		cfg.APIEnabled = opts.API
	}

	setupLogging(cmd.ErrOrStderr(), rootOpts.Verbose, cfg.Level())

	st, err := openStore(formatter, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	slog.Info("database ready", "path", cfg.DBPath, "collation", cfg.Collation)

	eng := engine.New(st,
		engine.WithAway(away.New(away.Config{DefaultReason: cfg.AwayReason}, st)),
	)

	ingestSrv := ingest.NewServer(cfg.ListenAddr, eng, ingest.ServerConfig{MaxLineSize: cfg.MaxLineSize})
	if err := ingestSrv.Start(); err != nil {
		return formatter.Fail(ExitCommandError, CodeConfig, "start ingest listener: "+err.Error(), nil)
	}

	var apiSrv *httpapi.Server
	if cfg.APIEnabled {
		apiSrv = httpapi.NewServer(cfg.APIAddr, st, httpapi.ServerConfig{
			Self:         cfg.SelfNick,
			DefaultLimit: cfg.DefaultLimit,
		})
		if err := apiSrv.Start(); err != nil {
			_ = ingestSrv.Stop()
			return formatter.Fail(ExitCommandError, CodeConfig, "start HTTP API: "+err.Error(), nil)
		}
		slog.Info("http api listening", "addr", apiSrv.Addr())
	}

	// Setup signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan) // Prevent signal handler leak

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-gctx.Done():
		}
		return nil
	})

	g.Go(func() error {
		return eng.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		// Stop accepting events before the loop drains.
		var errs []error
		if err := ingestSrv.Stop(); err != nil {
			errs = append(errs, err)
		}
		if apiSrv != nil {
			if err := apiSrv.Stop(); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})

	err = g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return WrapExitError(ExitFailure, "service failed", err)
	}

	slog.Info("service stopped gracefully")
	return nil
}
