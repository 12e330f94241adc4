package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/park285/netchess/internal/console"
	"github.com/park285/netchess/internal/domain"
	"github.com/park285/netchess/internal/framing"
	"github.com/park285/netchess/internal/lobby"
	"github.com/park285/netchess/internal/netplay"
	"github.com/park285/netchess/internal/obslog"
)

func joinCmd() *cobra.Command {
	var (
		code      string
		transport string
		color     string
	)

	cmd := &cobra.Command{
		Use:   "join [addr]",
		Short: "Join a hosted game by address or lobby code",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := appConfig
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var (
				addr string
				want *domain.Color
			)
			if len(args) == 1 {
				addr = args[0]
			}
			if code != "" {
				l, err := resolveCode(ctx, code)
				if err != nil {
					return err
				}
				addr = l.Addr
				if transport == "" {
					transport = l.Transport
				}
				if hc, err := domain.ParseColor(l.HostColor); err == nil {
					want = netplay.PreferHostColor(hc)
				}
			}
			if addr == "" {
				return errors.New("join needs an address or --code")
			}
			if transport == "" {
				transport = cfg.Transport
			}
			tr, err := netplay.ParseTransport(transport)
			if err != nil {
				return err
			}
			// The client names the color it wants the host to take. Without
			// a flag or a listing the host keeps its own.
			if color != "" {
				mine, err := domain.ParseColor(color)
				if err != nil {
					return err
				}
				want = netplay.PreferHostColor(mine.Opposite())
			}
			perspective := domain.White
			if want != nil {
				perspective = want.Opposite()
			}

			conn, err := netplay.Dial(ctx, tr, addr, cfg.DialTimeout)
			if err != nil {
				return err
			}
			obslog.L().Info("join_dial", zap.String("addr", addr), zap.String("transport", string(tr)))
			client := netplay.NewClient(conn, netplay.ClientOptions{
				RequestedHostColor: want,
				Stream:             framing.Options{MaxFrame: cfg.MaxFrame, WriteTimeout: cfg.WriteTimeout},
			})
			defer client.Close()

			intro := func(c *console.Console) {
				c.Say("session.joined", map[string]any{"Addr": addr})
			}
			return play(ctx, client, console.Options{Perspective: perspective}, intro)
		},
	}

	cmd.Flags().StringVar(&code, "code", "", "Lobby code such as CH-4K2Q9Z (needs REDIS_URL)")
	cmd.Flags().StringVarP(&transport, "transport", "t", "", "tcp or ws")
	cmd.Flags().StringVarP(&color, "color", "c", "", "Color you want to play (white or black)")

	return cmd
}

func resolveCode(ctx context.Context, code string) (*lobby.Listing, error) {
	if appConfig.RedisURL == "" {
		return nil, errors.New("--code needs REDIS_URL")
	}
	store, err := lobby.Open(ctx, appConfig.RedisURL, appConfig.LobbyTTL)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.Resolve(ctx, code)
}
