package netplay

import (
	"github.com/park285/netchess/internal/domain"
	"github.com/park285/netchess/internal/rules"
)

// Local plays both sides on one engine with no connection.
type Local struct {
	engine rules.Engine
	queue  []Event
	closed bool
}

func NewLocal(engine rules.Engine) *Local {
	if engine == nil {
		engine = rules.NewChessEngine()
	}
	return &Local{engine: engine}
}

func (l *Local) Variant() Variant          { return VariantLocal }
func (l *Local) Board() domain.Board       { return l.engine.Board() }
func (l *Local) CurrentTurn() domain.Color { return l.engine.CurrentTurn() }
func (l *Local) IsCheck() bool             { return l.engine.InCheck() }
func (l *Local) Outcome() domain.Outcome   { return l.engine.Outcome() }

func (l *Local) PendingPromotion() (domain.Square, bool) { return l.engine.PendingPromotion() }

// Update hands back events produced by earlier calls, one at a time.
func (l *Local) Update() (Event, error) {
	if len(l.queue) == 0 {
		return Event{}, nil
	}
	ev := l.queue[0]
	l.queue = l.queue[1:]
	return ev, nil
}

func (l *Local) push(ev Event) { l.queue = append(l.queue, ev) }

func (l *Local) PossibleMoves(at domain.Square) ([]domain.Move, error) {
	return l.engine.LegalMoves(at), nil
}

func (l *Local) PerformMove(mv domain.Move) error {
	if l.closed {
		return ErrNotConnected
	}
	applied, err := l.engine.Apply(mv)
	if err != nil {
		return err
	}
	if applied.PromotionPending {
		l.push(Event{Kind: EventPromotionRequired})
		return nil
	}
	l.push(Event{Kind: EventStateChanged})
	return nil
}

func (l *Local) Promote(sq domain.Square, pt domain.PieceType) error {
	if l.closed {
		return ErrNotConnected
	}
	if _, err := l.engine.Promote(sq, pt); err != nil {
		return err
	}
	l.push(Event{Kind: EventStateChanged})
	return nil
}

// Resign concedes for the side to move.
func (l *Local) Resign() error {
	if l.engine.Outcome().Over() {
		return ErrGameOver
	}
	loser := l.engine.CurrentTurn()
	l.engine.Resign(loser)
	l.push(Event{Kind: EventResigned, Winner: loser.Opposite()})
	return nil
}

// OfferDraw is agreed immediately since both sides sit at the same board.
func (l *Local) OfferDraw() error {
	if err := l.engine.AgreeDraw(); err != nil {
		return err
	}
	l.push(Event{Kind: EventDraw})
	return nil
}

func (l *Local) Close() error {
	l.closed = true
	return nil
}
