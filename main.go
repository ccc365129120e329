// Minesweeper - a multiplayer Minesweeper server for telnet and SSH
// clients, with a small play-mode client.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"minesweeper/cmd"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cmd.Execute(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "minesweeper: %v\n", err)
		os.Exit(1)
	}
}
