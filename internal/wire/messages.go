// Package wire defines the application messages exchanged between host and
// client and converts them to and from their JSON records in pkg/chessdto.
package wire

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/park285/netchess/internal/domain"
	"github.com/park285/netchess/pkg/chessdto"
)

// ErrMalformed marks a frame whose payload is not a valid message.
var ErrMalformed = errors.New("malformed message")

// Message is any record of the catalogue.
type Message interface {
	Type() string
}

// Snapshot is the authoritative view the host attaches to state-bearing messages.
type Snapshot struct {
	Board            domain.Board
	LegalMoves       []domain.Move
	Outcome          domain.Outcome
	Turn             domain.Color
	InCheck          bool
	PendingPromotion *domain.Square
}

// ClientHandshake may leave RequestedHostColor nil to let the host keep its
// own color.
type ClientHandshake struct {
	RequestedHostColor *domain.Color
}

type HostHandshake struct {
	GameID    string
	HostColor domain.Color
	Features  []domain.Feature
	Snapshot
}

type ClientMove struct {
	Move domain.Move
}

type ClientPromote struct {
	Square    domain.Square
	PieceType domain.PieceType
}

type ClientResign struct{}

type ClientOfferDraw struct{}

type HostState struct {
	Snapshot
	LastMove *domain.Move
}

// HostPromoted acknowledges a ClientPromote (or a host-side promotion).
type HostPromoted struct {
	Snapshot
	LastMove *domain.Move
}

type HostReject struct {
	Snapshot
	Reason string
}

type HostResigned struct {
	Winner domain.Color
}

type HostDraw struct {
	Board domain.Board
}

func (ClientHandshake) Type() string { return chessdto.TypeClientHandshake }
func (HostHandshake) Type() string   { return chessdto.TypeHostHandshake }
func (ClientMove) Type() string      { return chessdto.TypeClientMove }
func (ClientPromote) Type() string   { return chessdto.TypeClientPromote }
func (ClientResign) Type() string    { return chessdto.TypeClientResign }
func (ClientOfferDraw) Type() string { return chessdto.TypeClientOfferDraw }
func (HostState) Type() string       { return chessdto.TypeHostState }
func (HostPromoted) Type() string    { return chessdto.TypeHostPromoted }
func (HostReject) Type() string      { return chessdto.TypeHostReject }
func (HostResigned) Type() string    { return chessdto.TypeHostResigned }
func (HostDraw) Type() string        { return chessdto.TypeHostDraw }

// Encode renders m as a single JSON object without a trailing delimiter.
func Encode(m Message) ([]byte, error) {
	var rec any
	switch v := m.(type) {
	case ClientHandshake:
		hs := chessdto.ClientHandshake{Type: v.Type()}
		if v.RequestedHostColor != nil {
			hs.RequestedHostColor = EncodeColor(*v.RequestedHostColor)
		}
		rec = hs
	case HostHandshake:
		moves, err := encodeMoves(v.LegalMoves)
		if err != nil {
			return nil, err
		}
		features := make([]string, 0, len(v.Features))
		for _, f := range v.Features {
			features = append(features, string(f))
		}
		rec = chessdto.HostHandshake{
			Type:             v.Type(),
			GameID:           v.GameID,
			HostColor:        EncodeColor(v.HostColor),
			Board:            EncodeBoard(v.Board),
			LegalMoves:       moves,
			Outcome:          EncodeOutcome(v.Outcome),
			Turn:             EncodeColor(v.Turn),
			InCheck:          v.InCheck,
			PendingPromotion: encodeOptSquare(v.PendingPromotion),
			Features:         features,
		}
	case ClientMove:
		mv, err := EncodeMove(v.Move)
		if err != nil {
			return nil, err
		}
		rec = chessdto.ClientMove{Type: v.Type(), Move: mv}
	case ClientPromote:
		rec = chessdto.ClientPromote{Type: v.Type(), Square: EncodeSquare(v.Square), PieceType: EncodePieceType(v.PieceType)}
	case ClientResign:
		rec = chessdto.ClientResign{Type: v.Type()}
	case ClientOfferDraw:
		rec = chessdto.ClientOfferDraw{Type: v.Type()}
	case HostState:
		st, err := encodeState(v.Type(), v.Snapshot, v.LastMove)
		if err != nil {
			return nil, err
		}
		rec = st
	case HostPromoted:
		st, err := encodeState(v.Type(), v.Snapshot, v.LastMove)
		if err != nil {
			return nil, err
		}
		rec = st
	case HostReject:
		moves, err := encodeMoves(v.LegalMoves)
		if err != nil {
			return nil, err
		}
		rec = chessdto.HostReject{
			Type:             v.Type(),
			Board:            EncodeBoard(v.Board),
			LegalMoves:       moves,
			Outcome:          EncodeOutcome(v.Outcome),
			Turn:             EncodeColor(v.Turn),
			InCheck:          v.InCheck,
			PendingPromotion: encodeOptSquare(v.PendingPromotion),
			Reason:           v.Reason,
		}
	case HostResigned:
		rec = chessdto.HostResigned{Type: v.Type(), Winner: EncodeColor(v.Winner)}
	case HostDraw:
		rec = chessdto.HostDraw{Type: v.Type(), Board: EncodeBoard(v.Board)}
	default:
		return nil, fmt.Errorf("encode: unsupported message %T", m)
	}
	return json.Marshal(rec)
}

func encodeState(typ string, s Snapshot, last *domain.Move) (chessdto.HostState, error) {
	moves, err := encodeMoves(s.LegalMoves)
	if err != nil {
		return chessdto.HostState{}, err
	}
	lastMove, err := encodeOptMove(last)
	if err != nil {
		return chessdto.HostState{}, err
	}
	return chessdto.HostState{
		Type:             typ,
		Board:            EncodeBoard(s.Board),
		LegalMoves:       moves,
		LastMove:         lastMove,
		Outcome:          EncodeOutcome(s.Outcome),
		Turn:             EncodeColor(s.Turn),
		InCheck:          s.InCheck,
		PendingPromotion: encodeOptSquare(s.PendingPromotion),
	}, nil
}

// Decode parses one frame. Any failure wraps ErrMalformed: a complete frame
// that does not decode will never decode.
func Decode(frame []byte) (Message, error) {
	m, err := decode(frame)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return m, nil
}

func decode(frame []byte) (Message, error) {
	var env chessdto.Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, err
	}
	switch env.Type {
	case chessdto.TypeClientHandshake:
		var rec chessdto.ClientHandshake
		if err := json.Unmarshal(frame, &rec); err != nil {
			return nil, err
		}
		if rec.RequestedHostColor == "" {
			return ClientHandshake{}, nil
		}
		c, err := DecodeColor(rec.RequestedHostColor)
		if err != nil {
			return nil, err
		}
		return ClientHandshake{RequestedHostColor: &c}, nil
	case chessdto.TypeHostHandshake:
		var rec chessdto.HostHandshake
		if err := json.Unmarshal(frame, &rec); err != nil {
			return nil, err
		}
		hostColor, err := DecodeColor(rec.HostColor)
		if err != nil {
			return nil, err
		}
		snap, err := decodeSnapshot(rec.Board, rec.LegalMoves, rec.Outcome, rec.Turn, rec.InCheck, rec.PendingPromotion)
		if err != nil {
			return nil, err
		}
		features := make([]domain.Feature, 0, len(rec.Features))
		for _, f := range rec.Features {
			features = append(features, domain.Feature(f))
		}
		return HostHandshake{GameID: rec.GameID, HostColor: hostColor, Features: features, Snapshot: snap}, nil
	case chessdto.TypeClientMove:
		var rec chessdto.ClientMove
		if err := json.Unmarshal(frame, &rec); err != nil {
			return nil, err
		}
		mv, err := DecodeMove(rec.Move)
		if err != nil {
			return nil, err
		}
		return ClientMove{Move: mv}, nil
	case chessdto.TypeClientPromote:
		var rec chessdto.ClientPromote
		if err := json.Unmarshal(frame, &rec); err != nil {
			return nil, err
		}
		sq, err := DecodeSquare(rec.Square)
		if err != nil {
			return nil, err
		}
		pt, err := DecodePieceType(rec.PieceType)
		if err != nil {
			return nil, err
		}
		return ClientPromote{Square: sq, PieceType: pt}, nil
	case chessdto.TypeClientResign:
		return ClientResign{}, nil
	case chessdto.TypeClientOfferDraw:
		return ClientOfferDraw{}, nil
	case chessdto.TypeHostState, chessdto.TypeHostPromoted:
		var rec chessdto.HostState
		if err := json.Unmarshal(frame, &rec); err != nil {
			return nil, err
		}
		snap, err := decodeSnapshot(rec.Board, rec.LegalMoves, rec.Outcome, rec.Turn, rec.InCheck, rec.PendingPromotion)
		if err != nil {
			return nil, err
		}
		last, err := decodeOptMove(rec.LastMove)
		if err != nil {
			return nil, err
		}
		if env.Type == chessdto.TypeHostPromoted {
			return HostPromoted{Snapshot: snap, LastMove: last}, nil
		}
		return HostState{Snapshot: snap, LastMove: last}, nil
	case chessdto.TypeHostReject:
		var rec chessdto.HostReject
		if err := json.Unmarshal(frame, &rec); err != nil {
			return nil, err
		}
		snap, err := decodeSnapshot(rec.Board, rec.LegalMoves, rec.Outcome, rec.Turn, rec.InCheck, rec.PendingPromotion)
		if err != nil {
			return nil, err
		}
		return HostReject{Snapshot: snap, Reason: rec.Reason}, nil
	case chessdto.TypeHostResigned:
		var rec chessdto.HostResigned
		if err := json.Unmarshal(frame, &rec); err != nil {
			return nil, err
		}
		w, err := DecodeColor(rec.Winner)
		if err != nil {
			return nil, err
		}
		return HostResigned{Winner: w}, nil
	case chessdto.TypeHostDraw:
		var rec chessdto.HostDraw
		if err := json.Unmarshal(frame, &rec); err != nil {
			return nil, err
		}
		b, err := DecodeBoard(rec.Board)
		if err != nil {
			return nil, err
		}
		return HostDraw{Board: b}, nil
	case "":
		return nil, errors.New("missing type")
	}
	return nil, fmt.Errorf("unknown type %q", env.Type)
}

func decodeSnapshot(board chessdto.Board, moves []chessdto.Move, outcome, turn string, inCheck bool, pending *chessdto.Square) (Snapshot, error) {
	b, err := DecodeBoard(board)
	if err != nil {
		return Snapshot{}, err
	}
	mv, err := decodeMoves(moves)
	if err != nil {
		return Snapshot{}, err
	}
	o, err := DecodeOutcome(outcome)
	if err != nil {
		return Snapshot{}, err
	}
	t, err := DecodeColor(turn)
	if err != nil {
		return Snapshot{}, err
	}
	p, err := decodeOptSquare(pending)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Board: b, LegalMoves: mv, Outcome: o, Turn: t, InCheck: inCheck, PendingPromotion: p}, nil
}

// Codec adapts Encode and Decode to framing.Codec.
type Codec struct{}

func (Codec) Encode(m Message) ([]byte, error) { return Encode(m) }

func (Codec) Decode(frame []byte) (Message, error) { return Decode(frame) }
