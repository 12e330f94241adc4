package netplay

import (
	"errors"
	"fmt"

	"github.com/park285/netchess/internal/domain"
	"github.com/park285/netchess/internal/rules"
)

var (
	// ErrBusy is returned while a previous request still awaits the host's answer.
	ErrBusy         = errors.New("previous request still awaiting acknowledgment")
	ErrNotConnected = errors.New("not connected")
	ErrNotYourTurn  = errors.New("not your turn")
	ErrNoDrawOffer  = errors.New("no draw offer to answer")
	ErrUnsupported  = errors.New("not supported by this session")

	ErrGameOver           = rules.ErrGameOver
	ErrNoPendingPromotion = rules.ErrNoPendingPromotion
)

// ProtocolError is a message that decoded fine but is not allowed in the
// current state. It ends the connection.
type ProtocolError struct {
	State domain.ProtocolState
	Got   string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol violation: unexpected %s during %s", e.Got, e.State)
}
