package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Guizzs26/voting_registry/internal/log"
	"github.com/coder/websocket"
)

func main() {
	url := "ws://localhost:8081/ws/tally"
	if len(os.Args) > 1 {
		url = os.Args[1]
	}

	logger, err := log.NewZapLogger(log.INFO, true)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		logger.Errorw("Failed to connect", "url", url, "err", err)
		os.Exit(1)
	}
	defer conn.Close(websocket.StatusNormalClosure, "client exit")

	logger.Infow("Listening for tally updates", "url", url)
	for {
		_, msg, err := conn.Read(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				logger.Infow("Connection closed")
				return
			}
			logger.Warnw("Read error", "err", err)
			return
		}
		logger.Infow("Updated tally", "update", string(msg))
	}
}
