package chessdto

// Piece tags. TagNone is the explicit empty-square tag.
const (
	TagNone        = "None"
	TagWhitePawn   = "WhitePawn"
	TagWhiteKnight = "WhiteKnight"
	TagWhiteBishop = "WhiteBishop"
	TagWhiteRook   = "WhiteRook"
	TagWhiteQueen  = "WhiteQueen"
	TagWhiteKing   = "WhiteKing"
	TagBlackPawn   = "BlackPawn"
	TagBlackKnight = "BlackKnight"
	TagBlackBishop = "BlackBishop"
	TagBlackRook   = "BlackRook"
	TagBlackQueen  = "BlackQueen"
	TagBlackKing   = "BlackKing"
)

// Move kinds and castle sides.
const (
	MoveKindNormal = "normal"
	MoveKindCastle = "castle"

	SideKing  = "king"
	SideQueen = "queen"
)

// Board is indexed [rank][file] and always sent in full.
type Board [8][8]string

type Square struct {
	File int `json:"file"`
	Rank int `json:"rank"`
}

// Move is {"kind":"normal","from":…,"to":…} or {"kind":"castle","side":…}.
type Move struct {
	Kind      string  `json:"kind"`
	From      *Square `json:"from,omitempty"`
	To        *Square `json:"to,omitempty"`
	Promotion string  `json:"promotion,omitempty"`
	Side      string  `json:"side,omitempty"`
}
