package wire

import (
	"fmt"

	"github.com/park285/netchess/internal/domain"
	"github.com/park285/netchess/pkg/chessdto"
)

type pieceKey struct {
	t domain.PieceType
	c domain.Color
}

var (
	pieceToTag = map[pieceKey]string{
		{domain.Pawn, domain.White}:   chessdto.TagWhitePawn,
		{domain.Knight, domain.White}: chessdto.TagWhiteKnight,
		{domain.Bishop, domain.White}: chessdto.TagWhiteBishop,
		{domain.Rook, domain.White}:   chessdto.TagWhiteRook,
		{domain.Queen, domain.White}:  chessdto.TagWhiteQueen,
		{domain.King, domain.White}:   chessdto.TagWhiteKing,
		{domain.Pawn, domain.Black}:   chessdto.TagBlackPawn,
		{domain.Knight, domain.Black}: chessdto.TagBlackKnight,
		{domain.Bishop, domain.Black}: chessdto.TagBlackBishop,
		{domain.Rook, domain.Black}:   chessdto.TagBlackRook,
		{domain.Queen, domain.Black}:  chessdto.TagBlackQueen,
		{domain.King, domain.Black}:   chessdto.TagBlackKing,
	}
	tagToPiece = func() map[string]domain.Piece {
		m := make(map[string]domain.Piece, len(pieceToTag))
		for k, tag := range pieceToTag {
			m[tag] = domain.Piece{Type: k.t, Color: k.c}
		}
		return m
	}()
	pieceTypeTags = map[domain.PieceType]string{
		domain.Pawn:   "pawn",
		domain.Knight: "knight",
		domain.Bishop: "bishop",
		domain.Rook:   "rook",
		domain.Queen:  "queen",
		domain.King:   "king",
	}
)

// EncodePiece maps a piece to its wire tag. The empty piece maps to "None".
func EncodePiece(p domain.Piece) string {
	if p.IsEmpty() {
		return chessdto.TagNone
	}
	return pieceToTag[pieceKey{p.Type, p.Color}]
}

func DecodePiece(tag string) (domain.Piece, error) {
	if tag == chessdto.TagNone {
		return domain.Piece{}, nil
	}
	p, ok := tagToPiece[tag]
	if !ok {
		return domain.Piece{}, fmt.Errorf("unknown piece tag %q", tag)
	}
	return p, nil
}

func EncodePieceType(t domain.PieceType) string { return pieceTypeTags[t] }

func DecodePieceType(tag string) (domain.PieceType, error) {
	for t, s := range pieceTypeTags {
		if s == tag {
			return t, nil
		}
	}
	return domain.NoPieceType, fmt.Errorf("%w: %q", domain.ErrInvalidPieceType, tag)
}

func EncodeColor(c domain.Color) string { return c.String() }

func DecodeColor(s string) (domain.Color, error) {
	switch s {
	case "white":
		return domain.White, nil
	case "black":
		return domain.Black, nil
	}
	return domain.White, fmt.Errorf("unknown color %q", s)
}

func EncodeOutcome(o domain.Outcome) string { return o.String() }

func DecodeOutcome(s string) (domain.Outcome, error) {
	switch s {
	case "ongoing":
		return domain.Ongoing, nil
	case "white_wins":
		return domain.WhiteWins, nil
	case "black_wins":
		return domain.BlackWins, nil
	case "draw":
		return domain.Draw, nil
	}
	return domain.Ongoing, fmt.Errorf("unknown outcome %q", s)
}

func EncodeSquare(sq domain.Square) chessdto.Square {
	return chessdto.Square{File: sq.File(), Rank: sq.Rank()}
}

func DecodeSquare(s chessdto.Square) (domain.Square, error) {
	return domain.NewSquare(s.File, s.Rank)
}

func EncodeBoard(b domain.Board) chessdto.Board {
	var out chessdto.Board
	for r := 0; r < 8; r++ {
		for f := 0; f < 8; f++ {
			out[r][f] = EncodePiece(b[r][f])
		}
	}
	return out
}

func DecodeBoard(b chessdto.Board) (domain.Board, error) {
	var out domain.Board
	for r := 0; r < 8; r++ {
		for f := 0; f < 8; f++ {
			p, err := DecodePiece(b[r][f])
			if err != nil {
				return domain.Board{}, fmt.Errorf("board[%d][%d]: %w", r, f, err)
			}
			out[r][f] = p
		}
	}
	return out, nil
}

// EncodeMove rejects a Promotion that a pawn cannot become, so every encoded
// move decodes back to the same value.
func EncodeMove(m domain.Move) (chessdto.Move, error) {
	if m.IsCastle() {
		side := chessdto.SideKing
		if m.Side == domain.QueenSide {
			side = chessdto.SideQueen
		}
		return chessdto.Move{Kind: chessdto.MoveKindCastle, Side: side}, nil
	}
	from, to := EncodeSquare(m.From), EncodeSquare(m.To)
	out := chessdto.Move{Kind: chessdto.MoveKindNormal, From: &from, To: &to}
	if m.Promotion != domain.NoPieceType {
		if !m.Promotion.PromotionTarget() {
			return chessdto.Move{}, fmt.Errorf("%w: cannot promote to %s", domain.ErrInvalidPieceType, m.Promotion)
		}
		out.Promotion = EncodePieceType(m.Promotion)
	}
	return out, nil
}

func DecodeMove(m chessdto.Move) (domain.Move, error) {
	switch m.Kind {
	case chessdto.MoveKindCastle:
		switch m.Side {
		case chessdto.SideKing:
			return domain.Castle(domain.KingSide), nil
		case chessdto.SideQueen:
			return domain.Castle(domain.QueenSide), nil
		}
		return domain.Move{}, fmt.Errorf("unknown castle side %q", m.Side)
	case chessdto.MoveKindNormal:
		if m.From == nil || m.To == nil {
			return domain.Move{}, fmt.Errorf("normal move without from/to")
		}
		from, err := DecodeSquare(*m.From)
		if err != nil {
			return domain.Move{}, err
		}
		to, err := DecodeSquare(*m.To)
		if err != nil {
			return domain.Move{}, err
		}
		mv := domain.Normal(from, to)
		if m.Promotion != "" {
			pt, err := DecodePieceType(m.Promotion)
			if err != nil {
				return domain.Move{}, err
			}
			if !pt.PromotionTarget() {
				return domain.Move{}, fmt.Errorf("%w: cannot promote to %s", domain.ErrInvalidPieceType, pt)
			}
			mv.Promotion = pt
		}
		return mv, nil
	}
	return domain.Move{}, fmt.Errorf("unknown move kind %q", m.Kind)
}

func encodeMoves(list []domain.Move) ([]chessdto.Move, error) {
	out := make([]chessdto.Move, 0, len(list))
	for _, m := range list {
		mv, err := EncodeMove(m)
		if err != nil {
			return nil, err
		}
		out = append(out, mv)
	}
	return out, nil
}

func decodeMoves(list []chessdto.Move) ([]domain.Move, error) {
	out := make([]domain.Move, 0, len(list))
	for i, m := range list {
		mv, err := DecodeMove(m)
		if err != nil {
			return nil, fmt.Errorf("legal_moves[%d]: %w", i, err)
		}
		out = append(out, mv)
	}
	return out, nil
}

func encodeOptSquare(sq *domain.Square) *chessdto.Square {
	if sq == nil {
		return nil
	}
	s := EncodeSquare(*sq)
	return &s
}

func decodeOptSquare(s *chessdto.Square) (*domain.Square, error) {
	if s == nil {
		return nil, nil
	}
	sq, err := DecodeSquare(*s)
	if err != nil {
		return nil, err
	}
	return &sq, nil
}

func encodeOptMove(m *domain.Move) (*chessdto.Move, error) {
	if m == nil {
		return nil, nil
	}
	mv, err := EncodeMove(*m)
	if err != nil {
		return nil, err
	}
	return &mv, nil
}

func decodeOptMove(m *chessdto.Move) (*domain.Move, error) {
	if m == nil {
		return nil, nil
	}
	mv, err := DecodeMove(*m)
	if err != nil {
		return nil, err
	}
	return &mv, nil
}
