// Command ferrite runs a standalone Java-edition-compatible server core,
// reading its configuration from server.toml in the current directory.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dm-vev/ferrite/server"
)

func main() {
	configPath := flag.String("config", "server.toml", "path to the server's TOML configuration file")
	flag.Parse()

	log := slog.Default()

	uc, err := server.LoadConfig(*configPath)
	if err != nil {
		log.Error("load config", "err", err)
		os.Exit(1)
	}

	srv := server.New(uc.ToConfig(log))
	if err := srv.Listen(); err != nil {
		log.Error("listen", "err", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.Info("server listening", "address", uc.Network.Address)
	if err := srv.Serve(ctx); err != nil {
		log.Error("serve", "err", err)
		os.Exit(1)
	}
}
