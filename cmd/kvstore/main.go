// Command kvstore starts one replica of the cluster. Usage:
//
//	kvstore <port> <id> <other-id>+
//
// where <port> is the cluster's shared well-known UDP port, <id> is
// this replica's own id, and the remaining arguments are every other
// replica's id.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"kvraft/internal/clock"
	"kvraft/internal/codec"
	"kvraft/internal/config"
	"kvraft/internal/replica"
	"kvraft/internal/rlog"
	"kvraft/internal/transport"
)

func main() {
	cfg, err := config.ParseArgs(os.Args[1:])
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	log := rlog.New(cfg.ID)
	log.Info("starting replica", "config", cfg.YAML())

	udp, err := transport.Dial(cfg.Port, log)
	if err != nil {
		log.Error("failed to bind udp socket", "err", err)
		os.Exit(1)
	}
	defer udp.Close()

	udp.Send(codec.Message{Src: cfg.ID, Dst: codec.Broadcast, Type: codec.Hello})

	r := replica.New(cfg.ID, cfg.Peers, udp, clock.NewReal(), log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("replica running", "role", r.Role())
	r.Run(ctx)

	log.Info("shutting down")
}
