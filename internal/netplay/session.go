// Package netplay implements the host and client state machines that keep two
// boards in sync over a framed connection, plus a purely local session. All
// three satisfy GameSession and are driven by calling Update once per tick.
package netplay

import (
	"github.com/park285/netchess/internal/domain"
)

// EventKind tags what an Update call observed.
type EventKind uint8

const (
	EventNone EventKind = iota
	EventConnected
	EventHandshakeComplete
	EventStateChanged
	EventPromotionRequired
	EventMoveRejected
	EventDrawOffered
	EventResigned
	EventDraw
	EventDisconnected
)

var eventNames = [...]string{
	"none", "connected", "handshake_complete", "state_changed", "promotion_required",
	"move_rejected", "draw_offered", "resigned", "draw", "disconnected",
}

func (k EventKind) String() string {
	if int(k) < len(eventNames) {
		return eventNames[k]
	}
	return "unknown"
}

// Event is the result of one Update. Reason is set for EventMoveRejected and
// Winner for EventResigned.
type Event struct {
	Kind   EventKind
	Reason string
	Winner domain.Color
}

// Variant names the GameSession implementation.
type Variant uint8

const (
	VariantLocal Variant = iota
	VariantHosting
	VariantJoined
)

func (v Variant) String() string {
	switch v {
	case VariantHosting:
		return "hosting"
	case VariantJoined:
		return "joined"
	default:
		return "local"
	}
}

// GameSession is what a frontend drives. Update never blocks and performs at
// most one read and one state transition.
type GameSession interface {
	Update() (Event, error)
	Board() domain.Board
	CurrentTurn() domain.Color
	IsCheck() bool
	Outcome() domain.Outcome
	PendingPromotion() (domain.Square, bool)
	PossibleMoves(at domain.Square) ([]domain.Move, error)
	PerformMove(mv domain.Move) error
	Promote(sq domain.Square, pt domain.PieceType) error
	Resign() error
	OfferDraw() error
	Close() error
	Variant() Variant
}

// DrawResponder is implemented by sessions that receive draw offers.
type DrawResponder interface {
	AcceptDraw() error
	DeclineDraw() error
}

var (
	_ GameSession   = (*Local)(nil)
	_ GameSession   = (*Host)(nil)
	_ GameSession   = (*Client)(nil)
	_ DrawResponder = (*Host)(nil)
)
