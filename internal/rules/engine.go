// Package rules is the boundary to the chess rules engine. The session layer
// asks it to validate and apply moves and never tracks turn or legality itself.
package rules

import (
	"errors"
	"fmt"

	"github.com/park285/netchess/internal/domain"
)

var (
	ErrUnsupportedMove    = errors.New("unsupported move")
	ErrPromotionPending   = errors.New("promotion pending")
	ErrNoPendingPromotion = errors.New("no pending promotion")
	ErrGameOver           = errors.New("game is over")
)

// IllegalMoveError is a recoverable refusal. Reason is meant for display.
type IllegalMoveError struct {
	Move   domain.Move
	Reason string
	Err    error
}

func (e *IllegalMoveError) Error() string {
	if e.Reason != "" {
		return e.Reason
	}
	return fmt.Sprintf("illegal move %s", e.Move)
}

func (e *IllegalMoveError) Unwrap() error { return e.Err }

func illegal(mv domain.Move, err error, format string, args ...any) *IllegalMoveError {
	return &IllegalMoveError{Move: mv, Reason: fmt.Sprintf(format, args...), Err: err}
}

// Applied describes an accepted move. When PromotionPending is set the pawn
// stands on its last rank and the same side must call Promote next.
type Applied struct {
	Move             domain.Move
	PromotionPending bool
}

// Engine is the authoritative game. Implementations are not safe for
// concurrent use; a session owns exactly one.
type Engine interface {
	Apply(mv domain.Move) (Applied, error)
	Promote(sq domain.Square, pt domain.PieceType) (Applied, error)
	LegalMoves(at domain.Square) []domain.Move
	AllLegalMoves() []domain.Move
	InCheck() bool
	CurrentTurn() domain.Color
	Board() domain.Board
	Outcome() domain.Outcome
	PendingPromotion() (domain.Square, bool)
	Resign(loser domain.Color)
	AgreeDraw() error
}
