package cmd

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/brogergvhs/flamed/internal/server"

	"github.com/spf13/cobra"
)

var flagBind string

func init() {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the scraper over HTTP/JSON with a websocket update stream",
		RunE:  runServe,
	}
	serveCmd.Flags().StringVar(&flagBind, "bind", "", "listen address, e.g. :8080")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	opts := loadOptions()
	opts.BindAddr = flagBind

	s, err := newSession(cmd.Context(), opts)
	if err != nil {
		return err
	}
	defer s.Close()

	rr := &server.Responder{Log: s.log.With("http"), DebugMode: s.cfg.Debug}
	srv := &http.Server{
		Addr:              s.cfg.BindAddr,
		Handler:           server.NewRouter(s.src, rr),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return s.ctx
		},
	}

	go func() {
		<-s.ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.log.Infof("listening on %s\n", s.cfg.BindAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	s.log.Infof("server stopped\n")
	return nil
}
