package rules

import (
	"fmt"

	nchess "github.com/corentings/chess/v2"

	"github.com/park285/netchess/internal/domain"
)

// ChessEngine implements Engine on top of corentings/chess.
type ChessEngine struct {
	game    *nchess.Game
	inCheck bool
	pending *pendingPromotion
}

type pendingPromotion struct {
	from, to domain.Square
	mover    domain.Color
}

var _ Engine = (*ChessEngine)(nil)

func NewChessEngine() *ChessEngine {
	return &ChessEngine{game: nchess.NewGame()}
}

type candidate struct {
	from, to domain.Square
	promo    domain.PieceType
	castle   *domain.CastleSide
	check    bool
	uci      string
}

func (e *ChessEngine) candidates() []candidate {
	valid := e.game.ValidMoves()
	out := make([]candidate, 0, len(valid))
	for _, mv := range valid {
		c := candidate{
			from:  fromSquare(mv.S1()),
			to:    fromSquare(mv.S2()),
			promo: fromPieceType(mv.Promo()),
			check: mv.HasTag(nchess.Check),
			uci:   mv.String(),
		}
		switch {
		case mv.HasTag(nchess.KingSideCastle):
			side := domain.KingSide
			c.castle = &side
		case mv.HasTag(nchess.QueenSideCastle):
			side := domain.QueenSide
			c.castle = &side
		}
		out = append(out, c)
	}
	return out
}

func (c candidate) move() domain.Move {
	if c.castle != nil {
		return domain.Castle(*c.castle)
	}
	mv := domain.Normal(c.from, c.to)
	mv.Promotion = c.promo
	return mv
}

func (e *ChessEngine) Apply(mv domain.Move) (Applied, error) {
	if e.Outcome().Over() {
		return Applied{}, illegal(mv, ErrGameOver, "game is over")
	}
	if e.pending != nil {
		return Applied{}, illegal(mv, ErrPromotionPending, "promotion pending on %s", e.pending.to)
	}
	turn := e.CurrentTurn()

	switch mv.Kind {
	case domain.CastleMove:
		for _, c := range e.candidates() {
			if c.castle != nil && *c.castle == mv.Side {
				return e.commit(c)
			}
		}
		return Applied{}, illegal(mv, nil, "%s is not allowed now", mv)
	case domain.NormalMove:
	default:
		return Applied{}, illegal(mv, ErrUnsupportedMove, "unsupported move kind")
	}

	if mv.Promotion != domain.NoPieceType && !mv.Promotion.PromotionTarget() {
		return Applied{}, illegal(mv, ErrUnsupportedMove, "cannot promote to %s", mv.Promotion)
	}
	if p := e.Board().At(mv.From); p.IsEmpty() {
		return Applied{}, illegal(mv, nil, "no piece on %s", mv.From)
	} else if p.Color != turn {
		return Applied{}, illegal(mv, nil, "not your turn")
	}

	var matches []candidate
	for _, c := range e.candidates() {
		if c.from == mv.From && c.to == mv.To {
			matches = append(matches, c)
		}
	}
	if len(matches) == 0 {
		return Applied{}, illegal(mv, nil, "illegal move %s", mv)
	}
	if matches[0].promo == domain.NoPieceType {
		if mv.Promotion != domain.NoPieceType {
			return Applied{}, illegal(mv, nil, "%s is not a promotion", domain.Normal(mv.From, mv.To))
		}
		return e.commit(matches[0])
	}
	if mv.Promotion == domain.NoPieceType {
		e.pending = &pendingPromotion{from: mv.From, to: mv.To, mover: turn}
		return Applied{Move: mv, PromotionPending: true}, nil
	}
	for _, c := range matches {
		if c.promo == mv.Promotion {
			return e.commit(c)
		}
	}
	return Applied{}, illegal(mv, nil, "illegal move %s", mv)
}

func (e *ChessEngine) Promote(sq domain.Square, pt domain.PieceType) (Applied, error) {
	if e.pending == nil {
		return Applied{}, ErrNoPendingPromotion
	}
	mv := domain.Normal(e.pending.from, e.pending.to)
	mv.Promotion = pt
	if sq != e.pending.to {
		return Applied{}, illegal(mv, ErrNoPendingPromotion, "no pending promotion on %s", sq)
	}
	if !pt.PromotionTarget() {
		return Applied{}, illegal(mv, ErrUnsupportedMove, "cannot promote to %s", pt)
	}
	for _, c := range e.candidates() {
		if c.from == mv.From && c.to == mv.To && c.promo == pt {
			e.pending = nil
			return e.commit(c)
		}
	}
	return Applied{}, illegal(mv, nil, "illegal promotion %s", mv)
}

func (e *ChessEngine) commit(c candidate) (Applied, error) {
	pos := e.game.Position()
	mv, err := nchess.UCINotation{}.Decode(pos, c.uci)
	if err != nil {
		return Applied{}, fmt.Errorf("decode %s: %w", c.uci, err)
	}
	if err := e.game.Move(mv, nil); err != nil {
		return Applied{}, fmt.Errorf("apply %s: %w", c.uci, err)
	}
	e.inCheck = c.check
	return Applied{Move: c.move()}, nil
}

func (e *ChessEngine) LegalMoves(at domain.Square) []domain.Move {
	var out []domain.Move
	for _, mv := range e.AllLegalMoves() {
		if mv.Origin(e.CurrentTurn()) == at {
			out = append(out, mv)
		}
	}
	return out
}

// AllLegalMoves is empty while a promotion is pending or after the game ended.
func (e *ChessEngine) AllLegalMoves() []domain.Move {
	if e.pending != nil || e.Outcome().Over() {
		return []domain.Move{}
	}
	cands := e.candidates()
	out := make([]domain.Move, 0, len(cands))
	for _, c := range cands {
		out = append(out, c.move())
	}
	return out
}

func (e *ChessEngine) InCheck() bool { return e.inCheck && !e.Outcome().Over() }

func (e *ChessEngine) CurrentTurn() domain.Color {
	return fromColor(e.game.Position().Turn())
}

// Board shows a pending promotion as the pawn standing on its target square.
func (e *ChessEngine) Board() domain.Board {
	var out domain.Board
	board := e.game.Position().Board()
	for _, sq := range domain.AllSquares() {
		p := board.Piece(toSquare(sq))
		if p == nchess.NoPiece {
			continue
		}
		out = out.With(sq, domain.Piece{Type: fromPieceType(p.Type()), Color: fromColor(p.Color())})
	}
	if e.pending != nil {
		out = out.With(e.pending.from, domain.Piece{})
		out = out.With(e.pending.to, domain.Piece{Type: domain.Pawn, Color: e.pending.mover})
	}
	return out
}

func (e *ChessEngine) Outcome() domain.Outcome {
	switch e.game.Outcome() {
	case nchess.WhiteWon:
		return domain.WhiteWins
	case nchess.BlackWon:
		return domain.BlackWins
	case nchess.Draw:
		return domain.Draw
	}
	return domain.Ongoing
}

func (e *ChessEngine) PendingPromotion() (domain.Square, bool) {
	if e.pending == nil {
		return domain.Square{}, false
	}
	return e.pending.to, true
}

func (e *ChessEngine) Resign(loser domain.Color) {
	if e.Outcome().Over() {
		return
	}
	e.pending = nil
	e.game.Resign(toColor(loser))
}

func (e *ChessEngine) AgreeDraw() error {
	if e.Outcome().Over() {
		return ErrGameOver
	}
	if err := e.game.Draw(nchess.DrawOffer); err != nil {
		return fmt.Errorf("draw: %w", err)
	}
	e.pending = nil
	return nil
}

func toSquare(sq domain.Square) nchess.Square {
	return nchess.NewSquare(nchess.File(sq.File()), nchess.Rank(sq.Rank()))
}

func fromSquare(sq nchess.Square) domain.Square {
	return domain.MustSquare(int(sq.File()), int(sq.Rank()))
}

func toColor(c domain.Color) nchess.Color {
	if c == domain.Black {
		return nchess.Black
	}
	return nchess.White
}

func fromColor(c nchess.Color) domain.Color {
	if c == nchess.Black {
		return domain.Black
	}
	return domain.White
}

func fromPieceType(pt nchess.PieceType) domain.PieceType {
	switch pt {
	case nchess.Pawn:
		return domain.Pawn
	case nchess.Knight:
		return domain.Knight
	case nchess.Bishop:
		return domain.Bishop
	case nchess.Rook:
		return domain.Rook
	case nchess.Queen:
		return domain.Queen
	case nchess.King:
		return domain.King
	}
	return domain.NoPieceType
}
