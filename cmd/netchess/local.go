package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/park285/netchess/internal/console"
	"github.com/park285/netchess/internal/domain"
	"github.com/park285/netchess/internal/netplay"
)

func localCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "local",
		Short: "Play both sides in this terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			s := netplay.NewLocal(nil)
			defer s.Close()
			intro := func(c *console.Console) {
				c.Say("session.local", nil)
				_ = c.Exec("board")
			}
			return play(ctx, s, console.Options{Perspective: domain.White}, intro)
		},
	}
}
