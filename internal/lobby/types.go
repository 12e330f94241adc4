package lobby

import "time"

// State is the lifecycle of a published game.
type State string

const (
	StateWaiting State = "WAITING"
	StateActive  State = "ACTIVE"
)

// Listing is stored as JSON in Redis under netchess:game:<code>.
type Listing struct {
	Code      string    `json:"code"`
	Addr      string    `json:"addr"`
	Transport string    `json:"transport"`
	HostColor string    `json:"host_color"`
	GameID    string    `json:"game_id"`
	State     State     `json:"state"`
	CreatedAt time.Time `json:"created_at"`
}

var (
	ErrInvalidArgs = errf("invalid arguments")
	ErrGameGone    = errf("game not found or expired")
)

type staticErr string

func (e staticErr) Error() string { return string(e) }
func errf(s string) error         { return staticErr(s) }
