package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/initializ/envpipe/config"
	"github.com/initializ/envpipe/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the compile API over HTTP",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default $ENVPIPE_ADDR or :8080)")
}

func runServe(cmd *cobra.Command, args []string) error {
	addr := serveAddr
	if addr == "" {
		addr = config.String(config.EnvAddr, server.DefaultAddr)
	}
	timeout, err := config.Duration(config.EnvShutdownTimeout, 10*time.Second)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := server.New(server.Config{
		Addr:            addr,
		ShutdownTimeout: timeout,
		Logger:          newLogger("serve"),
	})
	return s.Start(ctx)
}
