package netplay

import (
	"fmt"
	"io"

	"github.com/park285/netchess/internal/domain"
	"github.com/park285/netchess/internal/framing"
	"github.com/park285/netchess/internal/wire"
)

type ClientOptions struct {
	// RequestedHostColor asks the host to play that color. Nil leaves the
	// choice to the host.
	RequestedHostColor *domain.Color
	Stream             framing.Options
}

// PreferHostColor is a convenience for ClientOptions.RequestedHostColor.
func PreferHostColor(c domain.Color) *domain.Color { return &c }

// Client mirrors the host's game. It never applies moves locally: the board
// changes only when an authoritative snapshot arrives.
type Client struct {
	stream *framing.Stream[wire.Message]
	opts   ClientOptions

	state     domain.ProtocolState
	hostColor domain.Color
	gameID    string
	features  []domain.Feature

	snap     wire.Snapshot
	lastMove *domain.Move

	// awaiting is the optimistic turn flag: set once a move or promotion is
	// sent and cleared by the host's answer.
	awaiting    bool
	drawPending bool
	lost        bool
}

// NewClient wraps an established connection. The handshake is sent on the
// first Update.
func NewClient(conn io.ReadWriteCloser, opts ClientOptions) *Client {
	return &Client{
		stream: framing.NewStream[wire.Message](conn, wire.Codec{}, opts.Stream),
		opts:   opts,
		state:  domain.NotConnected,
		snap:   wire.Snapshot{Board: domain.StartingBoard(), LegalMoves: []domain.Move{}},
	}
}

func (c *Client) Variant() Variant                        { return VariantJoined }
func (c *Client) State() domain.ProtocolState             { return c.state }
func (c *Client) Color() domain.Color                     { return c.hostColor.Opposite() }
func (c *Client) HostColor() domain.Color                 { return c.hostColor }
func (c *Client) GameID() string                          { return c.gameID }
func (c *Client) Features() []domain.Feature              { return c.features }
func (c *Client) Awaiting() bool                          { return c.awaiting }
func (c *Client) Board() domain.Board                     { return c.snap.Board }
func (c *Client) IsCheck() bool                           { return c.snap.InCheck }
func (c *Client) Outcome() domain.Outcome                 { return c.snap.Outcome }
func (c *Client) LastMove() *domain.Move                  { return c.lastMove }
func (c *Client) LegalMoves() []domain.Move               { return c.snap.LegalMoves }
func (c *Client) HasFeature(f domain.Feature) bool        { return domain.HasFeature(c.features, f) }
func (c *Client) PendingPromotion() (domain.Square, bool) { return optSquare(c.snap.PendingPromotion) }

// CurrentTurn is the host's explicit turn, except that while a request is in
// flight the client assumes the opponent is to move.
func (c *Client) CurrentTurn() domain.Color {
	if c.awaiting {
		return c.Color().Opposite()
	}
	return c.snap.Turn
}

// IsMyTurn reports whether PerformMove would be expected to succeed.
func (c *Client) IsMyTurn() bool {
	return c.state == domain.Play && !c.awaiting && !c.snap.Outcome.Over() && c.snap.Turn == c.Color()
}

func (c *Client) Update() (Event, error) {
	switch c.state {
	case domain.NotConnected:
		if err := c.stream.Write(wire.ClientHandshake{RequestedHostColor: c.opts.RequestedHostColor}); err != nil {
			c.teardown()
			return Event{Kind: EventDisconnected}, nil
		}
		c.state = domain.Handshake
		return Event{Kind: EventConnected}, nil
	case domain.Closed:
		if c.lost {
			c.lost = false
			return Event{Kind: EventDisconnected}, nil
		}
		return Event{}, nil
	}

	msg, status, err := c.stream.TryRead()
	if err != nil {
		c.teardown()
		return Event{Kind: EventDisconnected}, err
	}
	switch status {
	case framing.Pending:
		return Event{}, nil
	case framing.Closed:
		c.teardown()
		return Event{Kind: EventDisconnected}, nil
	}
	ev, err := c.handle(msg)
	if err != nil {
		c.teardown()
		return Event{Kind: EventDisconnected}, err
	}
	return ev, nil
}

func (c *Client) handle(msg wire.Message) (Event, error) {
	if c.state == domain.Handshake {
		hs, ok := msg.(wire.HostHandshake)
		if !ok {
			return Event{}, &ProtocolError{State: c.state, Got: msg.Type()}
		}
		c.gameID = hs.GameID
		c.hostColor = hs.HostColor
		c.features = hs.Features
		c.snap = hs.Snapshot
		c.state = domain.Play
		return Event{Kind: EventHandshakeComplete}, nil
	}

	switch m := msg.(type) {
	case wire.HostState:
		c.resync(m.Snapshot)
		c.lastMove = m.LastMove
		if sq, ok := c.PendingPromotion(); ok && c.snap.Turn == c.Color() && c.Board().At(sq).Color == c.Color() {
			return Event{Kind: EventPromotionRequired}, nil
		}
		return Event{Kind: EventStateChanged}, nil
	case wire.HostPromoted:
		c.resync(m.Snapshot)
		c.lastMove = m.LastMove
		return Event{Kind: EventStateChanged}, nil
	case wire.HostReject:
		c.resync(m.Snapshot)
		return Event{Kind: EventMoveRejected, Reason: m.Reason}, nil
	case wire.HostResigned:
		c.finish(domain.WinFor(m.Winner))
		return Event{Kind: EventResigned, Winner: m.Winner}, nil
	case wire.HostDraw:
		c.snap.Board = m.Board
		c.finish(domain.Draw)
		return Event{Kind: EventDraw}, nil
	}
	return Event{}, &ProtocolError{State: c.state, Got: msg.Type()}
}

// resync adopts the host's snapshot wholesale and releases the turn flag.
func (c *Client) resync(s wire.Snapshot) {
	c.snap = s
	c.awaiting = false
	c.drawPending = false
}

func (c *Client) finish(o domain.Outcome) {
	c.snap.Outcome = o
	c.snap.LegalMoves = []domain.Move{}
	c.snap.InCheck = false
	c.snap.PendingPromotion = nil
	c.awaiting = false
	c.drawPending = false
}

func (c *Client) teardown() {
	_ = c.stream.Close()
	c.state = domain.Closed
	c.awaiting = false
}

// PossibleMoves filters the host's legal-move list by origin. Without the
// move-generation feature it offers every other square and leaves legality to
// the host.
func (c *Client) PossibleMoves(at domain.Square) ([]domain.Move, error) {
	if c.state != domain.Play {
		return nil, ErrNotConnected
	}
	out := []domain.Move{}
	if c.HasFeature(domain.FeatureMoveGeneration) {
		for _, mv := range c.snap.LegalMoves {
			if mv.Origin(c.snap.Turn) == at {
				out = append(out, mv)
			}
		}
		return out, nil
	}
	if c.snap.Board.At(at).IsEmpty() {
		return out, nil
	}
	for _, to := range domain.AllSquares() {
		if to != at {
			out = append(out, domain.Normal(at, to))
		}
	}
	return out, nil
}

// PerformMove sends the move and leaves the board untouched until the host
// answers. Turn legality is the host's call.
func (c *Client) PerformMove(mv domain.Move) error {
	if err := c.ready(); err != nil {
		return err
	}
	if err := c.write(wire.ClientMove{Move: mv}); err != nil {
		return err
	}
	c.awaiting = true
	return nil
}

func (c *Client) Promote(sq domain.Square, pt domain.PieceType) error {
	if err := c.ready(); err != nil {
		return err
	}
	if pending, ok := c.PendingPromotion(); !ok || pending != sq {
		return ErrNoPendingPromotion
	}
	if err := c.write(wire.ClientPromote{Square: sq, PieceType: pt}); err != nil {
		return err
	}
	c.awaiting = true
	return nil
}

func (c *Client) Resign() error {
	if err := c.ready(); err != nil {
		return err
	}
	return c.write(wire.ClientResign{})
}

func (c *Client) OfferDraw() error {
	if err := c.ready(); err != nil {
		return err
	}
	if c.drawPending {
		return ErrBusy
	}
	if err := c.write(wire.ClientOfferDraw{}); err != nil {
		return err
	}
	c.drawPending = true
	return nil
}

func (c *Client) ready() error {
	switch {
	case c.state != domain.Play:
		return ErrNotConnected
	case c.awaiting:
		return ErrBusy
	case c.snap.Outcome.Over():
		return ErrGameOver
	}
	return nil
}

func (c *Client) write(m wire.Message) error {
	if err := c.stream.Write(m); err != nil {
		c.teardown()
		c.lost = true
		return fmt.Errorf("%w: %v", ErrNotConnected, err)
	}
	return nil
}

func (c *Client) Close() error {
	c.state = domain.Closed
	return c.stream.Close()
}

func optSquare(sq *domain.Square) (domain.Square, bool) {
	if sq == nil {
		return domain.Square{}, false
	}
	return *sq, true
}
