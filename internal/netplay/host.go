package netplay

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/park285/netchess/internal/domain"
	"github.com/park285/netchess/internal/framing"
	"github.com/park285/netchess/internal/rules"
	"github.com/park285/netchess/internal/wire"
)

const (
	reasonGameOver     = "game is over"
	reasonNotYourTurn  = "not your turn"
	reasonDrawDeclined = "draw offer declined"
)

type HostOptions struct {
	// Color is the host's side until a client requests otherwise before the
	// first move.
	Color domain.Color
	// AdvertiseMoveGen announces that legal-move lists can be trusted.
	AdvertiseMoveGen bool
	GameID           string
	Stream           framing.Options
}

// Host owns the authoritative game and serves one client at a time. After a
// disconnect it goes back to NotConnected and keeps the game for the next
// client.
type Host struct {
	acceptor Acceptor
	engine   rules.Engine
	opts     HostOptions

	state  domain.ProtocolState
	stream *framing.Stream[wire.Message]

	color       domain.Color
	gameID      string
	started     bool
	lastMove    *domain.Move
	drawOffered bool
	lost        bool
}

func NewHost(acceptor Acceptor, engine rules.Engine, opts HostOptions) *Host {
	if engine == nil {
		engine = rules.NewChessEngine()
	}
	id := opts.GameID
	if id == "" {
		id = uuid.NewString()
	}
	return &Host{
		acceptor: acceptor,
		engine:   engine,
		opts:     opts,
		state:    domain.NotConnected,
		color:    opts.Color,
		gameID:   id,
	}
}

func (h *Host) Variant() Variant            { return VariantHosting }
func (h *Host) State() domain.ProtocolState { return h.state }
func (h *Host) Color() domain.Color         { return h.color }
func (h *Host) GameID() string              { return h.gameID }
func (h *Host) Addr() string                { return h.acceptor.Addr() }
func (h *Host) DrawOffered() bool           { return h.drawOffered }
func (h *Host) Board() domain.Board         { return h.engine.Board() }
func (h *Host) CurrentTurn() domain.Color   { return h.engine.CurrentTurn() }
func (h *Host) IsCheck() bool               { return h.engine.InCheck() }
func (h *Host) Outcome() domain.Outcome     { return h.engine.Outcome() }
func (h *Host) LastMove() *domain.Move      { return h.lastMove }
func (h *Host) clientColor() domain.Color   { return h.color.Opposite() }
func (h *Host) connected() bool             { return h.stream != nil && h.state == domain.Play }

func (h *Host) PendingPromotion() (domain.Square, bool) { return h.engine.PendingPromotion() }

// Update polls for a connection or reads at most one message. A non-nil error
// means the connection was torn down; the game itself is kept.
func (h *Host) Update() (Event, error) {
	switch h.state {
	case domain.NotConnected:
		if h.lost {
			h.lost = false
			return Event{Kind: EventDisconnected}, nil
		}
		conn, ok := h.acceptor.Poll()
		if !ok {
			return Event{}, nil
		}
		h.stream = framing.NewStream[wire.Message](conn, wire.Codec{}, h.opts.Stream)
		h.state = domain.Handshake
		return Event{Kind: EventConnected}, nil
	case domain.Handshake, domain.Play:
		h.refuseExtra()
		msg, status, err := h.stream.TryRead()
		if err != nil {
			h.drop()
			return Event{Kind: EventDisconnected}, err
		}
		switch status {
		case framing.Pending:
			return Event{}, nil
		case framing.Closed:
			h.drop()
			return Event{Kind: EventDisconnected}, nil
		}
		ev, err := h.handle(msg)
		if err != nil {
			h.drop()
			var perr *ProtocolError
			if errors.As(err, &perr) {
				return Event{Kind: EventDisconnected}, err
			}
			return Event{Kind: EventDisconnected}, nil
		}
		return ev, nil
	}
	return Event{}, nil
}

// refuseExtra closes connections that arrive while a client is attached.
func (h *Host) refuseExtra() {
	for {
		c, ok := h.acceptor.Poll()
		if !ok {
			return
		}
		_ = c.Close()
	}
}

func (h *Host) drop() {
	if h.stream != nil {
		_ = h.stream.Close()
		h.stream = nil
	}
	h.drawOffered = false
	if h.state != domain.Closed {
		h.state = domain.NotConnected
	}
}

func (h *Host) handle(msg wire.Message) (Event, error) {
	if h.state == domain.Handshake {
		hs, ok := msg.(wire.ClientHandshake)
		if !ok {
			return Event{}, &ProtocolError{State: h.state, Got: msg.Type()}
		}
		if !h.started && hs.RequestedHostColor != nil {
			h.color = *hs.RequestedHostColor
		}
		h.started = true
		if err := h.send(wire.HostHandshake{
			GameID:    h.gameID,
			HostColor: h.color,
			Features:  h.features(),
			Snapshot:  h.snapshot(),
		}); err != nil {
			return Event{}, err
		}
		h.state = domain.Play
		return Event{Kind: EventHandshakeComplete}, nil
	}

	switch m := msg.(type) {
	case wire.ClientMove:
		return h.clientMove(m.Move)
	case wire.ClientPromote:
		return h.clientPromote(m.Square, m.PieceType)
	case wire.ClientResign:
		if h.engine.Outcome().Over() {
			return Event{}, h.reject(reasonGameOver)
		}
		h.engine.Resign(h.clientColor())
		h.drawOffered = false
		if err := h.send(wire.HostResigned{Winner: h.color}); err != nil {
			return Event{}, err
		}
		return Event{Kind: EventResigned, Winner: h.color}, nil
	case wire.ClientOfferDraw:
		if h.engine.Outcome().Over() {
			return Event{}, h.reject(reasonGameOver)
		}
		h.drawOffered = true
		return Event{Kind: EventDrawOffered}, nil
	}
	return Event{}, &ProtocolError{State: h.state, Got: msg.Type()}
}

func (h *Host) clientMove(mv domain.Move) (Event, error) {
	if h.engine.Outcome().Over() {
		return Event{}, h.reject(reasonGameOver)
	}
	if h.engine.CurrentTurn() != h.clientColor() {
		return Event{}, h.reject(reasonNotYourTurn)
	}
	applied, err := h.engine.Apply(mv)
	if err != nil {
		return Event{}, h.reject(err.Error())
	}
	h.drawOffered = false
	return Event{Kind: EventStateChanged}, h.commit(applied)
}

func (h *Host) clientPromote(sq domain.Square, pt domain.PieceType) (Event, error) {
	if h.engine.CurrentTurn() != h.clientColor() {
		return Event{}, h.reject(reasonNotYourTurn)
	}
	applied, err := h.engine.Promote(sq, pt)
	if err != nil {
		return Event{}, h.reject(err.Error())
	}
	h.lastMove = &applied.Move
	return Event{Kind: EventStateChanged}, h.send(wire.HostPromoted{Snapshot: h.snapshot(), LastMove: h.lastMove})
}

func (h *Host) commit(applied rules.Applied) error {
	mv := applied.Move
	h.lastMove = &mv
	return h.send(wire.HostState{Snapshot: h.snapshot(), LastMove: h.lastMove})
}

func (h *Host) reject(reason string) error {
	return h.send(wire.HostReject{Snapshot: h.snapshot(), Reason: reason})
}

func (h *Host) send(m wire.Message) error {
	if h.stream == nil {
		return nil
	}
	if err := h.stream.Write(m); err != nil {
		return fmt.Errorf("send %s: %w", m.Type(), err)
	}
	return nil
}

// broadcast pushes to the client if one is attached. A failed write drops the
// connection and the next Update reports EventDisconnected.
func (h *Host) broadcast(m wire.Message) {
	if !h.connected() {
		return
	}
	if err := h.send(m); err != nil {
		h.drop()
		h.lost = true
	}
}

func (h *Host) features() []domain.Feature {
	if !h.opts.AdvertiseMoveGen {
		return []domain.Feature{}
	}
	return []domain.Feature{domain.FeatureMoveGeneration}
}

func (h *Host) snapshot() wire.Snapshot {
	s := wire.Snapshot{
		Board:      h.engine.Board(),
		LegalMoves: h.engine.AllLegalMoves(),
		Outcome:    h.engine.Outcome(),
		Turn:       h.engine.CurrentTurn(),
		InCheck:    h.engine.InCheck(),
	}
	if sq, ok := h.engine.PendingPromotion(); ok {
		s.PendingPromotion = &sq
	}
	return s
}

func (h *Host) PossibleMoves(at domain.Square) ([]domain.Move, error) {
	if h.engine.CurrentTurn() != h.color {
		return []domain.Move{}, nil
	}
	return h.engine.LegalMoves(at), nil
}

// PerformMove plays the host's own move. It works without a client attached;
// a client that joins later receives the resulting position.
func (h *Host) PerformMove(mv domain.Move) error {
	if h.state == domain.Closed {
		return ErrNotConnected
	}
	if h.engine.Outcome().Over() {
		return ErrGameOver
	}
	if h.engine.CurrentTurn() != h.color {
		return ErrNotYourTurn
	}
	applied, err := h.engine.Apply(mv)
	if err != nil {
		return err
	}
	h.started = true
	h.drawOffered = false
	m := applied.Move
	h.lastMove = &m
	h.broadcast(wire.HostState{Snapshot: h.snapshot(), LastMove: h.lastMove})
	return nil
}

func (h *Host) Promote(sq domain.Square, pt domain.PieceType) error {
	if h.engine.CurrentTurn() != h.color {
		return ErrNotYourTurn
	}
	applied, err := h.engine.Promote(sq, pt)
	if err != nil {
		return err
	}
	h.lastMove = &applied.Move
	h.broadcast(wire.HostPromoted{Snapshot: h.snapshot(), LastMove: h.lastMove})
	return nil
}

func (h *Host) Resign() error {
	if h.engine.Outcome().Over() {
		return ErrGameOver
	}
	h.engine.Resign(h.color)
	h.drawOffered = false
	h.broadcast(wire.HostResigned{Winner: h.clientColor()})
	return nil
}

// OfferDraw accepts a pending offer from the client. The host cannot propose
// a draw on its own.
func (h *Host) OfferDraw() error {
	if h.drawOffered {
		return h.AcceptDraw()
	}
	return ErrUnsupported
}

func (h *Host) AcceptDraw() error {
	if !h.drawOffered {
		return ErrNoDrawOffer
	}
	if err := h.engine.AgreeDraw(); err != nil {
		return err
	}
	h.drawOffered = false
	h.broadcast(wire.HostDraw{Board: h.engine.Board()})
	return nil
}

func (h *Host) DeclineDraw() error {
	if !h.drawOffered {
		return ErrNoDrawOffer
	}
	h.drawOffered = false
	h.broadcast(wire.HostReject{Snapshot: h.snapshot(), Reason: reasonDrawDeclined})
	return nil
}

// Close ends the connection and stops accepting new ones.
func (h *Host) Close() error {
	h.state = domain.Closed
	if h.stream != nil {
		_ = h.stream.Close()
		h.stream = nil
	}
	return h.acceptor.Close()
}
