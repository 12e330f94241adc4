package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/park285/netchess/internal/domain"
	"github.com/park285/netchess/internal/metrics"
	"github.com/park285/netchess/internal/msgcat"
	"github.com/park285/netchess/internal/netplay"
	"github.com/park285/netchess/internal/obslog"
	"github.com/park285/netchess/pkg/chessdto"
)

// ErrQuit ends Run when the user quits, input closes, or a joined session
// loses its host.
var ErrQuit = errors.New("console: quit")

const maxEventsPerTick = 8

type Options struct {
	Tick time.Duration
	// Perspective is the side drawn at the bottom of the board for sessions
	// that do not report their own color.
	Perspective domain.Color
	// OnEvent sees every event after it has been printed.
	OnEvent func(netplay.Event)
	Metrics *metrics.Metrics
}

type Console struct {
	session netplay.GameSession
	cat     *msgcat.Catalog
	out     io.Writer
	opts    Options
}

func New(session netplay.GameSession, cat *msgcat.Catalog, out io.Writer, opts Options) *Console {
	if opts.Tick <= 0 {
		opts.Tick = 50 * time.Millisecond
	}
	return &Console{session: session, cat: cat, out: out, opts: opts}
}

// Run drives the session on a ticker and executes lines as they arrive.
// It returns ErrQuit on a clean exit and nil when ctx is cancelled.
func (c *Console) Run(ctx context.Context, lines <-chan string) error {
	t := time.NewTicker(c.opts.Tick)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return ErrQuit
			}
			if err := c.Exec(line); err != nil {
				return err
			}
			if err := c.poll(); err != nil {
				return err
			}
		case <-t.C:
			if err := c.poll(); err != nil {
				return err
			}
		}
	}
}

func (c *Console) poll() error {
	for i := 0; i < maxEventsPerTick; i++ {
		ev, err := c.session.Update()
		if err != nil {
			obslog.L().Warn("session_error", zap.String("variant", c.session.Variant().String()), zap.Error(err))
		}
		if ev.Kind == netplay.EventNone {
			return nil
		}
		c.report(ev, err)
		c.opts.Metrics.ObserveEvent(c.session.Variant(), ev)
		if c.opts.OnEvent != nil {
			c.opts.OnEvent(ev)
		}
		if ev.Kind == netplay.EventDisconnected && c.session.Variant() == netplay.VariantJoined {
			return ErrQuit
		}
	}
	return nil
}

func (c *Console) report(ev netplay.Event, err error) {
	obslog.L().Info("session_event",
		zap.String("variant", c.session.Variant().String()),
		zap.String("event", ev.Kind.String()),
		zap.String("reason", ev.Reason),
	)
	switch ev.Kind {
	case netplay.EventConnected:
		c.say("event.connected", nil)
	case netplay.EventHandshakeComplete:
		id := ""
		if g, ok := c.session.(interface{ GameID() string }); ok {
			id = g.GameID()
		}
		c.say("event.handshake", map[string]any{"GameID": id, "Color": c.perspective().String()})
		c.showBoard()
	case netplay.EventStateChanged:
		c.showBoard()
	case netplay.EventPromotionRequired:
		c.showBoard()
		if sq, ok := c.session.PendingPromotion(); ok {
			c.say("event.promotion", map[string]any{"Square": sq.String()})
		}
	case netplay.EventMoveRejected:
		de := chessdto.Rejected(ev.Reason)
		obslog.L().Debug("move_rejected", zap.String("code", de.Code), zap.Bool("retryable", de.Retryable))
		c.say("event.rejected", map[string]any{"Reason": de.Error()})
	case netplay.EventDrawOffered:
		c.say("event.draw_offered", nil)
	case netplay.EventResigned:
		c.say("event.resigned", map[string]any{"Winner": ev.Winner.String()})
	case netplay.EventDraw:
		c.say("event.draw", nil)
	case netplay.EventDisconnected:
		if err != nil {
			c.say("event.disconnected_err", map[string]any{"Err": err.Error()})
		} else {
			c.say("event.disconnected", nil)
		}
	}
}

// Exec runs one command line against the session.
func (c *Console) Exec(line string) error {
	if strings.TrimSpace(line) == "" {
		return nil
	}
	cmd, err := Parse(line)
	if err != nil {
		c.say("cmd.unknown", map[string]any{"Input": line})
		return nil
	}

	switch cmd.Kind {
	case CmdQuit:
		return ErrQuit
	case CmdHelp:
		c.say("cmd.help", nil)
	case CmdBoard:
		c.showBoard()
	case CmdMoves:
		list, err := c.session.PossibleMoves(cmd.Square)
		if err != nil {
			c.fail("moves", err)
			return nil
		}
		if len(list) == 0 {
			c.say("board.no_moves", map[string]any{"Square": cmd.Square.String()})
			return nil
		}
		c.say("board.moves", map[string]any{"Square": cmd.Square.String(), "Moves": formatMoves(list)})
	case CmdMove:
		c.check("move", c.session.PerformMove(cmd.Move))
	case CmdPromote:
		c.check("promote", c.session.Promote(cmd.Square, cmd.Piece))
	case CmdResign:
		c.check("resign", c.session.Resign())
	case CmdDraw:
		c.check("draw", c.session.OfferDraw())
	case CmdAccept, CmdDecline:
		r, ok := c.session.(netplay.DrawResponder)
		if !ok {
			c.fail("draw", netplay.ErrUnsupported)
			return nil
		}
		if cmd.Kind == CmdAccept {
			c.check("accept", r.AcceptDraw())
		} else {
			c.check("decline", r.DeclineDraw())
		}
	}
	return nil
}

func (c *Console) check(name string, err error) {
	c.opts.Metrics.ObserveCommand(name, err)
	if err != nil {
		c.fail(name, err)
	}
}

func (c *Console) fail(name string, err error) {
	obslog.L().Debug("command_failed", zap.String("cmd", name), zap.Error(err))
	c.say("cmd.failed", map[string]any{"Cmd": name, "Err": err.Error()})
}

func (c *Console) showBoard() {
	fmt.Fprintln(c.out, RenderBoard(c.session.Board(), c.perspective()))
	if o := c.session.Outcome(); o.Over() {
		c.say("board.outcome", map[string]any{"Outcome": outcomeText(o)})
		return
	}
	if c.session.IsCheck() {
		c.say("board.check", nil)
	}
	c.say("event.state", map[string]any{"Turn": c.session.CurrentTurn().String()})
}

func (c *Console) perspective() domain.Color {
	if s, ok := c.session.(interface{ Color() domain.Color }); ok {
		return s.Color()
	}
	return c.opts.Perspective
}

func (c *Console) Say(key string, data any) { c.say(key, data) }

func (c *Console) say(key string, data any) {
	fmt.Fprintln(c.out, c.cat.Text(key, data))
}
