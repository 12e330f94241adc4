// Package console is a line-oriented terminal frontend for a GameSession.
package console

import (
	"strings"

	"github.com/park285/netchess/internal/domain"
)

var pieceLetters = map[domain.PieceType]byte{
	domain.Pawn:   'p',
	domain.Knight: 'n',
	domain.Bishop: 'b',
	domain.Rook:   'r',
	domain.Queen:  'q',
	domain.King:   'k',
}

func pieceGlyph(p domain.Piece) byte {
	if p.IsEmpty() {
		return '.'
	}
	c := pieceLetters[p.Type]
	if p.Color == domain.White {
		c -= 'a' - 'A'
	}
	return c
}

// RenderBoard draws b as text from the given side's point of view.
func RenderBoard(b domain.Board, from domain.Color) string {
	var sb strings.Builder
	for i := 0; i < 8; i++ {
		rank := 7 - i
		if from == domain.Black {
			rank = i
		}
		sb.WriteByte(byte('1' + rank))
		for j := 0; j < 8; j++ {
			file := j
			if from == domain.Black {
				file = 7 - j
			}
			sb.WriteByte(' ')
			sb.WriteByte(pieceGlyph(b[rank][file]))
		}
		sb.WriteByte('\n')
	}
	if from == domain.Black {
		sb.WriteString("  h g f e d c b a")
	} else {
		sb.WriteString("  a b c d e f g h")
	}
	return sb.String()
}

func formatMoves(list []domain.Move) string {
	parts := make([]string, 0, len(list))
	for _, m := range list {
		parts = append(parts, m.String())
	}
	return strings.Join(parts, " ")
}

func outcomeText(o domain.Outcome) string {
	switch o {
	case domain.WhiteWins:
		return "white wins"
	case domain.BlackWins:
		return "black wins"
	case domain.Draw:
		return "draw"
	default:
		return "ongoing"
	}
}
