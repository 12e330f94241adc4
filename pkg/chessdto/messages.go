package chessdto

// Message type discriminators. Each record travels as one JSON object per line.
const (
	TypeClientHandshake = "client_handshake"
	TypeHostHandshake   = "host_handshake"
	TypeClientMove      = "client_move"
	TypeClientPromote   = "client_promote"
	TypeClientResign    = "client_resign"
	TypeClientOfferDraw = "client_offer_draw"
	TypeHostState       = "host_state"
	TypeHostPromoted    = "host_promoted"
	TypeHostReject      = "host_reject"
	TypeHostResigned    = "host_resigned"
	TypeHostDraw        = "host_draw"
)

// Envelope is decoded first to learn which record follows.
type Envelope struct {
	Type string `json:"type"`
}

type ClientHandshake struct {
	Type               string `json:"type"`
	RequestedHostColor string `json:"requested_host_color,omitempty"`
}

type HostHandshake struct {
	Type             string   `json:"type"`
	GameID           string   `json:"game_id"`
	HostColor        string   `json:"host_color"`
	Board            Board    `json:"board"`
	LegalMoves       []Move   `json:"legal_moves"`
	Outcome          string   `json:"outcome"`
	Turn             string   `json:"turn"`
	InCheck          bool     `json:"in_check"`
	PendingPromotion *Square  `json:"pending_promotion,omitempty"`
	Features         []string `json:"features"`
}

type ClientMove struct {
	Type string `json:"type"`
	Move Move   `json:"move"`
}

type ClientPromote struct {
	Type      string `json:"type"`
	Square    Square `json:"square"`
	PieceType string `json:"piece_type"`
}

type ClientResign struct {
	Type string `json:"type"`
}

type ClientOfferDraw struct {
	Type string `json:"type"`
}

// HostState is also the body of host_promoted; only Type differs.
type HostState struct {
	Type             string  `json:"type"`
	Board            Board   `json:"board"`
	LegalMoves       []Move  `json:"legal_moves"`
	LastMove         *Move   `json:"last_move,omitempty"`
	Outcome          string  `json:"outcome"`
	Turn             string  `json:"turn"`
	InCheck          bool    `json:"in_check"`
	PendingPromotion *Square `json:"pending_promotion,omitempty"`
}

type HostReject struct {
	Type             string  `json:"type"`
	Board            Board   `json:"board"`
	LegalMoves       []Move  `json:"legal_moves"`
	Outcome          string  `json:"outcome"`
	Turn             string  `json:"turn"`
	InCheck          bool    `json:"in_check"`
	PendingPromotion *Square `json:"pending_promotion,omitempty"`
	Reason           string  `json:"reason"`
}

type HostResigned struct {
	Type   string `json:"type"`
	Winner string `json:"winner"`
}

type HostDraw struct {
	Type  string `json:"type"`
	Board Board  `json:"board"`
}
