package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidSquare    = errors.New("invalid square")
	ErrInvalidPieceType = errors.New("invalid piece type")
)

// Color identifies a chess side.
type Color uint8

const (
	White Color = iota
	Black
)

func (c Color) Opposite() Color {
	if c == White {
		return Black
	}
	return White
}

func (c Color) String() string {
	if c == Black {
		return "black"
	}
	return "white"
}

// ParseColor accepts "white"/"w" and "black"/"b".
func ParseColor(s string) (Color, error) {
	switch s {
	case "white", "w", "White":
		return White, nil
	case "black", "b", "Black":
		return Black, nil
	}
	return White, fmt.Errorf("unknown color %q", s)
}

// PieceType is the kind of a piece. NoPieceType marks an empty square.
type PieceType uint8

const (
	NoPieceType PieceType = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
)

var pieceTypeNames = [...]string{"none", "pawn", "knight", "bishop", "rook", "queen", "king"}

func (t PieceType) String() string {
	if int(t) < len(pieceTypeNames) {
		return pieceTypeNames[t]
	}
	return fmt.Sprintf("PieceType(%d)", uint8(t))
}

// Valid reports whether t names a real piece.
func (t PieceType) Valid() bool { return t >= Pawn && t <= King }

// PromotionTarget reports whether a pawn may become t.
func (t PieceType) PromotionTarget() bool {
	return t == Knight || t == Bishop || t == Rook || t == Queen
}

// Piece is a typed, colored piece. The zero value is "no piece".
type Piece struct {
	Type  PieceType
	Color Color
}

func (p Piece) IsEmpty() bool { return p.Type == NoPieceType }

func (p Piece) String() string {
	if p.IsEmpty() {
		return "empty"
	}
	return p.Color.String() + " " + p.Type.String()
}

// Square addresses a board cell. Build it with NewSquare so that
// out-of-range coordinates are rejected rather than clamped.
type Square struct {
	file uint8
	rank uint8
}

func NewSquare(file, rank int) (Square, error) {
	if file < 0 || file > 7 || rank < 0 || rank > 7 {
		return Square{}, fmt.Errorf("%w: file=%d rank=%d", ErrInvalidSquare, file, rank)
	}
	return Square{file: uint8(file), rank: uint8(rank)}, nil
}

// MustSquare is NewSquare for constant coordinates.
func MustSquare(file, rank int) Square {
	sq, err := NewSquare(file, rank)
	if err != nil {
		panic(err)
	}
	return sq
}

// ParseSquare reads algebraic coordinates such as "e4".
func ParseSquare(s string) (Square, error) {
	if len(s) != 2 {
		return Square{}, fmt.Errorf("%w: %q", ErrInvalidSquare, s)
	}
	return NewSquare(int(s[0])-'a', int(s[1])-'1')
}

func (s Square) File() int { return int(s.file) }
func (s Square) Rank() int { return int(s.rank) }

func (s Square) String() string {
	return string([]byte{'a' + s.file, '1' + s.rank})
}

// AllSquares lists the 64 squares rank by rank starting at a1.
func AllSquares() []Square {
	out := make([]Square, 0, 64)
	for r := 0; r < 8; r++ {
		for f := 0; f < 8; f++ {
			out = append(out, Square{file: uint8(f), rank: uint8(r)})
		}
	}
	return out
}

// Board is an immutable-by-convention snapshot indexed [rank][file].
type Board [8][8]Piece

func (b Board) At(sq Square) Piece { return b[sq.rank][sq.file] }

// With returns a copy of b with p placed at sq.
func (b Board) With(sq Square, p Piece) Board {
	b[sq.rank][sq.file] = p
	return b
}

// StartingBoard returns the standard initial position.
func StartingBoard() Board {
	var b Board
	back := [8]PieceType{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}
	for f := 0; f < 8; f++ {
		b[0][f] = Piece{Type: back[f], Color: White}
		b[1][f] = Piece{Type: Pawn, Color: White}
		b[6][f] = Piece{Type: Pawn, Color: Black}
		b[7][f] = Piece{Type: back[f], Color: Black}
	}
	return b
}

// CastleSide selects king- or queen-side castling.
type CastleSide uint8

const (
	KingSide CastleSide = iota
	QueenSide
)

func (s CastleSide) String() string {
	if s == QueenSide {
		return "queen"
	}
	return "king"
}

// MoveKind distinguishes ordinary moves from castling.
type MoveKind uint8

const (
	NormalMove MoveKind = iota
	CastleMove
)

// Move is either Normal{From, To, Promotion} or Castle{Side}.
// Promotion is NoPieceType unless the mover chose a piece inline.
type Move struct {
	Kind      MoveKind
	From      Square
	To        Square
	Promotion PieceType
	Side      CastleSide
}

func Normal(from, to Square) Move { return Move{Kind: NormalMove, From: from, To: to} }

func Castle(side CastleSide) Move { return Move{Kind: CastleMove, Side: side} }

func (m Move) IsCastle() bool { return m.Kind == CastleMove }

// KingSquares returns the king's source and destination for a castle by c.
func (m Move) KingSquares(c Color) (Square, Square) {
	rank := 0
	if c == Black {
		rank = 7
	}
	to := 6
	if m.Side == QueenSide {
		to = 2
	}
	return MustSquare(4, rank), MustSquare(to, rank)
}

// Origin is the square a move starts from when played by c.
func (m Move) Origin(c Color) Square {
	if m.IsCastle() {
		from, _ := m.KingSquares(c)
		return from
	}
	return m.From
}

func (m Move) String() string {
	if m.IsCastle() {
		if m.Side == QueenSide {
			return "O-O-O"
		}
		return "O-O"
	}
	s := m.From.String() + m.To.String()
	switch m.Promotion {
	case Queen:
		s += "q"
	case Rook:
		s += "r"
	case Bishop:
		s += "b"
	case Knight:
		s += "n"
	}
	return s
}

// Outcome is the terminal status of a game.
type Outcome uint8

const (
	Ongoing Outcome = iota
	WhiteWins
	BlackWins
	Draw
)

func (o Outcome) String() string {
	switch o {
	case WhiteWins:
		return "white_wins"
	case BlackWins:
		return "black_wins"
	case Draw:
		return "draw"
	default:
		return "ongoing"
	}
}

func (o Outcome) Over() bool { return o != Ongoing }

// WinFor returns the outcome in which c wins.
func WinFor(c Color) Outcome {
	if c == Black {
		return BlackWins
	}
	return WhiteWins
}

// ProtocolState is the connection lifecycle shared by host and client.
type ProtocolState uint8

const (
	NotConnected ProtocolState = iota
	Handshake
	Play
	Closed
)

func (s ProtocolState) String() string {
	switch s {
	case Handshake:
		return "handshake"
	case Play:
		return "play"
	case Closed:
		return "closed"
	default:
		return "not_connected"
	}
}

// Feature is a capability advertised by the host during handshake.
type Feature string

const FeatureMoveGeneration Feature = "possible_move_generation"

func HasFeature(list []Feature, f Feature) bool {
	for _, v := range list {
		if v == f {
			return true
		}
	}
	return false
}
