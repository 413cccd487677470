package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ikkahin/hra/internal/domain"
	"github.com/ikkahin/hra/internal/logging"
	"github.com/ikkahin/hra/internal/mockserver"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := mockserver.DefaultOptions()
	var addr, timezone, logLevel, logFormat string

	cmd := &cobra.Command{
		Use:   "hra-mock",
		Short: "In-memory attendance backend for local use",
		Long: `Serve the attendance REST API under /api and the realtime channel under
/socket.io/ from memory. Seeded accounts: ADMIN001/admin123, EMP001/emp123
and EMP002/emp456. Nothing is kept between runs.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logging.New(os.Stderr, logLevel, logFormat)
			if err != nil {
				return err
			}
			loc, err := domain.LoadZone(timezone)
			if err != nil {
				return err
			}
			opts.Clock = domain.NewClock(loc)
			opts.Logger = logger

			srv := mockserver.New(opts)
			httpSrv := &http.Server{
				Addr:              addr,
				Handler:           srv.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errc := make(chan error, 1)
			go func() {
				logger.Info("mock_listening", "addr", addr, "zone", loc.String())
				errc <- httpSrv.ListenAndServe()
			}()

			select {
			case err := <-errc:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			logger.Info("mock_stopping")
			srv.Hub().DisconnectAll()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			defer srv.Hub().Close()
			return httpSrv.Shutdown(shutdownCtx)
		},
	}

	f := cmd.Flags()
	f.StringVar(&addr, "addr", ":5000", "listen address")
	f.StringVar(&opts.Secret, "secret", opts.Secret, "token signing secret")
	f.DurationVar(&opts.TokenTTL, "token-ttl", opts.TokenTTL, "lifetime of issued tokens")
	f.DurationVar(&opts.PingInterval, "ping-interval", opts.PingInterval, "realtime heartbeat interval")
	f.DurationVar(&opts.PingTimeout, "ping-timeout", opts.PingTimeout, "realtime heartbeat timeout")
	f.StringVar(&timezone, "timezone", domain.DefaultZone, "IANA zone used for \"today\"")
	f.StringVar(&logLevel, "log-level", "info", "debug, info, warn or error")
	f.StringVar(&logFormat, "log-format", "auto", "auto, text or json")
	return cmd
}
