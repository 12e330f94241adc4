package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/park285/netchess/internal/console"
	"github.com/park285/netchess/internal/domain"
	"github.com/park285/netchess/internal/framing"
	"github.com/park285/netchess/internal/lobby"
	"github.com/park285/netchess/internal/netplay"
	"github.com/park285/netchess/internal/obslog"
)

func hostCmd() *cobra.Command {
	var (
		listen    string
		advertise string
		transport string
		color     string
		noMoveGen bool
	)

	cmd := &cobra.Command{
		Use:   "host",
		Short: "Host a game and wait for an opponent",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := appConfig
			if listen == "" {
				listen = cfg.ListenAddr
			}
			if transport == "" {
				transport = cfg.Transport
			}
			if color == "" {
				color = cfg.HostColor
			}
			tr, err := netplay.ParseTransport(transport)
			if err != nil {
				return err
			}
			hc, err := domain.ParseColor(color)
			if err != nil {
				return err
			}

			ln, err := netplay.Listen(tr, listen)
			if err != nil {
				return err
			}
			host := netplay.NewHost(ln, nil, netplay.HostOptions{
				Color:            hc,
				AdvertiseMoveGen: cfg.AdvertiseGen && !noMoveGen,
				Stream:           framing.Options{MaxFrame: cfg.MaxFrame, WriteTimeout: cfg.WriteTimeout},
			})
			defer host.Close()
			obslog.L().Info("host_listen", zap.String("addr", ln.Addr()), zap.String("transport", string(tr)), zap.String("game_id", host.GameID()))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if advertise == "" {
				advertise = ln.Addr()
			}
			pub := publishGame(ctx, lobby.Listing{
				Addr:      advertise,
				Transport: string(tr),
				HostColor: hc.String(),
				GameID:    host.GameID(),
			})
			defer pub.withdraw()

			intro := func(c *console.Console) {
				c.Say("session.hosting", map[string]any{"Addr": ln.Addr(), "Transport": string(tr), "Color": hc.String()})
				if pub.code != "" {
					c.Say("session.lobby_code", map[string]any{"Code": pub.code})
				}
			}
			opts := console.Options{Perspective: hc, OnEvent: pub.track}
			return play(ctx, host, opts, intro, pub.keepAlive)
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "", "Listen address (default NETCHESS_LISTEN or :7878)")
	cmd.Flags().StringVar(&advertise, "advertise", "", "Address published to the lobby (default: listen address)")
	cmd.Flags().StringVarP(&transport, "transport", "t", "", "tcp or ws")
	cmd.Flags().StringVarP(&color, "color", "c", "", "Color the host plays until a client asks otherwise")
	cmd.Flags().BoolVar(&noMoveGen, "no-movegen", false, "Do not send legal move lists to the client")

	return cmd
}

// published tracks a lobby listing. The zero value is a no-op.
type published struct {
	store *lobby.Store
	code  string
}

func publishGame(ctx context.Context, l lobby.Listing) *published {
	if appConfig.RedisURL == "" {
		return &published{}
	}
	store, err := lobby.Open(ctx, appConfig.RedisURL, appConfig.LobbyTTL)
	if err != nil {
		obslog.L().Warn("lobby_unavailable", zap.Error(err))
		return &published{}
	}
	code, err := store.Publish(ctx, l)
	if err != nil {
		obslog.L().Warn("lobby_publish_failed", zap.Error(err))
		_ = store.Close()
		return &published{}
	}
	return &published{store: store, code: code}
}

func (p *published) track(ev netplay.Event) {
	if p.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	var err error
	switch ev.Kind {
	case netplay.EventHandshakeComplete:
		err = p.store.MarkActive(ctx, p.code)
	case netplay.EventDisconnected:
		err = p.store.MarkWaiting(ctx, p.code)
	}
	if err != nil {
		obslog.L().Warn("lobby_update_failed", zap.String("code", p.code), zap.Error(err))
	}
}

func (p *published) keepAlive(ctx context.Context) error {
	if p.store == nil {
		return nil
	}
	t := time.NewTicker(p.store.TTL() / 2)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if err := p.store.Refresh(ctx, p.code); err != nil {
				obslog.L().Warn("lobby_refresh_failed", zap.String("code", p.code), zap.Error(err))
			}
		}
	}
}

func (p *published) withdraw() {
	if p.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := p.store.Withdraw(ctx, p.code); err != nil {
		obslog.L().Warn("lobby_withdraw_failed", zap.String("code", p.code), zap.Error(err))
	}
	_ = p.store.Close()
}
