package console

import (
	"fmt"
	"strings"

	"github.com/park285/netchess/internal/domain"
)

type CommandKind uint8

const (
	CmdMove CommandKind = iota
	CmdMoves
	CmdPromote
	CmdResign
	CmdDraw
	CmdAccept
	CmdDecline
	CmdBoard
	CmdHelp
	CmdQuit
)

type Command struct {
	Kind   CommandKind
	Move   domain.Move
	Square domain.Square
	Piece  domain.PieceType
}

var keywords = map[string]CommandKind{
	"resign":  CmdResign,
	"draw":    CmdDraw,
	"accept":  CmdAccept,
	"decline": CmdDecline,
	"board":   CmdBoard,
	"help":    CmdHelp,
	"?":       CmdHelp,
	"quit":    CmdQuit,
	"exit":    CmdQuit,
}

var promoLetters = map[string]domain.PieceType{
	"q": domain.Queen,
	"r": domain.Rook,
	"b": domain.Bishop,
	"n": domain.Knight,
}

// Parse reads one input line. Moves use UCI notation; castling may also be
// written O-O / O-O-O (or with zeros).
func Parse(line string) (Command, error) {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(line)))
	if len(fields) == 0 {
		return Command{}, fmt.Errorf("empty command")
	}
	head := fields[0]
	if k, ok := keywords[head]; ok && len(fields) == 1 {
		return Command{Kind: k}, nil
	}

	switch head {
	case "o-o", "0-0":
		return Command{Kind: CmdMove, Move: domain.Castle(domain.KingSide)}, nil
	case "o-o-o", "0-0-0":
		return Command{Kind: CmdMove, Move: domain.Castle(domain.QueenSide)}, nil
	case "moves":
		if len(fields) != 2 {
			return Command{}, fmt.Errorf("usage: moves <square>")
		}
		sq, err := domain.ParseSquare(fields[1])
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: CmdMoves, Square: sq}, nil
	case "promote":
		if len(fields) != 3 {
			return Command{}, fmt.Errorf("usage: promote <square> <q|r|b|n>")
		}
		sq, err := domain.ParseSquare(fields[1])
		if err != nil {
			return Command{}, err
		}
		pt, ok := promoLetters[fields[2]]
		if !ok {
			return Command{}, fmt.Errorf("unknown promotion piece %q", fields[2])
		}
		return Command{Kind: CmdPromote, Square: sq, Piece: pt}, nil
	}

	if len(fields) == 1 {
		if mv, err := parseUCI(head); err == nil {
			return Command{Kind: CmdMove, Move: mv}, nil
		}
	}
	return Command{}, fmt.Errorf("unknown command %q", line)
}

func parseUCI(s string) (domain.Move, error) {
	if len(s) != 4 && len(s) != 5 {
		return domain.Move{}, fmt.Errorf("bad move %q", s)
	}
	from, err := domain.ParseSquare(s[0:2])
	if err != nil {
		return domain.Move{}, err
	}
	to, err := domain.ParseSquare(s[2:4])
	if err != nil {
		return domain.Move{}, err
	}
	mv := domain.Normal(from, to)
	if len(s) == 5 {
		pt, ok := promoLetters[s[4:]]
		if !ok {
			return domain.Move{}, fmt.Errorf("bad promotion in %q", s)
		}
		mv.Promotion = pt
	}
	return mv, nil
}
