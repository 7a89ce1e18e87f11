package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/briangreenhill/trendscope/internal/http/routes"
	"github.com/briangreenhill/trendscope/web"
)

const shutdownTimeout = 10 * time.Second

func serveCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(flags, os.Stdout)
			if err != nil {
				return err
			}

			tmpl, err := web.Templates()
			if err != nil {
				return err
			}

			s := routes.New(routes.ServerOptions{
				Logger:     a.logger,
				Trends:     a.trends,
				Summarizer: a.llm,
				Tmpl:       tmpl,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := &http.Server{
				Addr:              ":" + a.cfg.Port,
				Handler:           s,
				ReadHeaderTimeout: 10 * time.Second,
				IdleTimeout:       2 * time.Minute,
				BaseContext:       func(net.Listener) context.Context { return a.logger.WithContext(ctx) },
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				a.logger.Info().
					Str("addr", srv.Addr).
					Dur("cache_ttl", a.trends.TTL()).
					Str("llm_model", a.llm.Model()).
					Bool("github_token", a.cfg.HasGitHubToken()).
					Msg("starting server")
				if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			// SIGHUP drops the cached trends so the next request refetches
			hup := make(chan os.Signal, 1)
			signal.Notify(hup, syscall.SIGHUP)
			defer signal.Stop(hup)
			g.Go(func() error {
				for {
					select {
					case <-gctx.Done():
						return nil
					case <-hup:
						a.trends.Invalidate()
						a.logger.Info().Msg("trends cache invalidated")
					}
				}
			})
			g.Go(func() error {
				<-gctx.Done()
				a.logger.Info().Msg("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})
			return g.Wait()
		},
	}
}
