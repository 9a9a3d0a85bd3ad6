package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		cancel()
		fmt.Fprintf(os.Stderr, "\n[!] Received interrupt signal, stopping scan...\n")
		os.Exit(130) // Standard exit code for SIGINT
	}()

	err := newRootCmd().ExecuteContext(ctx)
	cancel()
	if err == nil {
		return
	}
	if !errors.Is(err, errAborted) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(1)
}
