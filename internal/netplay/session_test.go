package netplay

import (
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/park285/netchess/internal/domain"
)

func TestHandshakeAdoptsRequestedColor(t *testing.T) {
	h := newHarness(t, PreferHostColor(domain.Black), true)

	assert.Equal(t, domain.Play, h.host.State())
	assert.Equal(t, domain.Play, h.client.State())
	assert.Equal(t, domain.Black, h.host.Color())
	assert.Equal(t, domain.White, h.client.Color())
	assert.Equal(t, h.host.GameID(), h.client.GameID())
	assert.NotEmpty(t, h.client.GameID())
	assert.True(t, h.client.HasFeature(domain.FeatureMoveGeneration))
	assert.Equal(t, domain.StartingBoard(), h.client.Board())
	assert.Equal(t, domain.White, h.client.CurrentTurn())
	assert.True(t, h.client.IsMyTurn())
}

func TestHandshakeWithoutColorPreferenceKeepsHostColor(t *testing.T) {
	acc := newChanAcceptor()
	h := &harness{t: t, acc: acc, host: NewHost(acc, nil, HostOptions{Color: domain.Black, Stream: streamOpts()})}
	h.attach(nil)
	t.Cleanup(func() {
		_ = h.client.Close()
		_ = h.host.Close()
	})

	assert.Equal(t, domain.Black, h.host.Color())
	assert.Equal(t, domain.Black, h.client.HostColor())
	assert.Equal(t, domain.White, h.client.Color())
	assert.True(t, h.client.IsMyTurn())
}

func TestClientPossibleMovesFromHostList(t *testing.T) {
	h := newHarness(t, PreferHostColor(domain.Black), true)

	moves, err := h.client.PossibleMoves(sq(t, "e2"))
	require.NoError(t, err)

	targets := map[string]bool{}
	board := h.client.Board()
	for _, m := range moves {
		targets[m.To.String()] = true
		dest := board.At(m.To)
		assert.False(t, !dest.IsEmpty() && dest.Color == domain.White, "move to friendly-occupied %s", m.To)
	}
	assert.True(t, targets["e3"])
	assert.True(t, targets["e4"])
}

func TestClientPossibleMovesFallbackWithoutFeature(t *testing.T) {
	h := newHarness(t, PreferHostColor(domain.Black), false)
	require.False(t, h.client.HasFeature(domain.FeatureMoveGeneration))

	moves, err := h.client.PossibleMoves(sq(t, "e2"))
	require.NoError(t, err)
	assert.Len(t, moves, 63)
	for _, m := range moves {
		assert.NotEqual(t, m.From, m.To)
	}

	empty, err := h.client.PossibleMoves(sq(t, "e4"))
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestClientMoveAcceptedAndBusy(t *testing.T) {
	h := newHarness(t, PreferHostColor(domain.Black), true)

	require.NoError(t, h.client.PerformMove(mv(t, "e2e4")))
	assert.Equal(t, domain.Black, h.client.CurrentTurn(), "optimistic flag hands the turn over")
	assert.Equal(t, domain.StartingBoard(), h.client.Board(), "board must not change before the host answers")
	assert.True(t, errors.Is(h.client.PerformMove(mv(t, "d2d4")), ErrBusy))
	assert.True(t, errors.Is(h.client.Promote(sq(t, "e8"), domain.Queen), ErrBusy))

	h.waitClient(EventStateChanged)
	h.waitHost(EventStateChanged)

	want := domain.Piece{Type: domain.Pawn, Color: domain.White}
	assert.Equal(t, want, h.client.Board().At(sq(t, "e4")))
	assert.Equal(t, h.host.Board(), h.client.Board())
	assert.Equal(t, domain.Black, h.client.CurrentTurn())
	assert.Equal(t, domain.Black, h.host.CurrentTurn())
	require.NotNil(t, h.client.LastMove())
	assert.Equal(t, "e2e4", h.client.LastMove().String())
	assert.False(t, h.client.Awaiting())
}

func TestMoveOutOfTurnIsRejected(t *testing.T) {
	// host plays white, so the client must wait
	h := newHarness(t, PreferHostColor(domain.White), true)
	require.Equal(t, domain.Black, h.client.Color())
	before := h.client.Board()

	require.NoError(t, h.client.PerformMove(mv(t, "e7e5")))
	ev := h.waitClient(EventMoveRejected)

	assert.Equal(t, "not your turn", ev.Reason)
	assert.False(t, h.client.Awaiting(), "turn flag must be restored")
	assert.Equal(t, before, h.client.Board())
	assert.Equal(t, domain.White, h.client.CurrentTurn())
	assert.Equal(t, domain.White, h.host.CurrentTurn())
	assert.Equal(t, domain.Play, h.client.State(), "an illegal move does not close the connection")
}

func TestRejectionLeavesAuthorityUnchanged(t *testing.T) {
	h := newHarness(t, PreferHostColor(domain.Black), true)

	for _, bad := range []string{"e2e5", "e1e2", "a1a5", "e4e5", "g1g2"} {
		board, turn, outcome := h.host.Board(), h.host.CurrentTurn(), h.host.Outcome()

		require.NoError(t, h.client.PerformMove(mv(t, bad)))
		ev := h.waitClient(EventMoveRejected)
		assert.NotEmpty(t, ev.Reason, bad)

		assert.Equal(t, board, h.host.Board(), bad)
		assert.Equal(t, turn, h.host.CurrentTurn(), bad)
		assert.Equal(t, outcome, h.host.Outcome(), bad)
		assert.Equal(t, board, h.client.Board(), bad)
	}
}

func TestTurnAlternation(t *testing.T) {
	h := newHarness(t, PreferHostColor(domain.Black), true)
	seq := []string{"e2e4", "e7e5", "g1f3", "b8c6", "f1b5", "a7a6", "b5a4"}

	for i, m := range seq {
		if i%2 == 0 {
			h.clientMove(m)
		} else {
			h.hostMove(m)
		}
		n := i + 1
		want := domain.White
		if n%2 == 1 {
			want = domain.Black
		}
		assert.Equal(t, want, h.host.CurrentTurn(), "host after %d moves", n)
		assert.Equal(t, want, h.client.CurrentTurn(), "client after %d moves", n)
	}
	assert.Equal(t, h.host.Board(), h.client.Board())
}

func TestHostMoveOutOfTurn(t *testing.T) {
	h := newHarness(t, PreferHostColor(domain.Black), true)
	assert.True(t, errors.Is(h.host.PerformMove(mv(t, "e7e5")), ErrNotYourTurn))
}

func TestCastlingOverTheWire(t *testing.T) {
	h := newHarness(t, PreferHostColor(domain.Black), true)
	h.clientMove("e2e4")
	h.hostMove("e7e5")
	h.clientMove("g1f3")
	h.hostMove("b8c6")
	h.clientMove("f1c4")
	h.hostMove("g8f6")

	moves, err := h.client.PossibleMoves(sq(t, "e1"))
	require.NoError(t, err)
	assert.Contains(t, moves, domain.Castle(domain.KingSide))

	require.NoError(t, h.client.PerformMove(domain.Castle(domain.KingSide)))
	h.waitClient(EventStateChanged)

	b := h.client.Board()
	assert.Equal(t, domain.Piece{Type: domain.King, Color: domain.White}, b.At(sq(t, "g1")))
	assert.Equal(t, domain.Piece{Type: domain.Rook, Color: domain.White}, b.At(sq(t, "f1")))

	h.hostMove("d7d6")
	before := h.host.Board()
	require.NoError(t, h.client.PerformMove(domain.Castle(domain.QueenSide)))
	ev := h.waitClient(EventMoveRejected)
	assert.NotEmpty(t, ev.Reason)
	assert.Equal(t, before, h.host.Board())
	assert.Equal(t, before, h.client.Board())
}

func TestPromotionOverTheWire(t *testing.T) {
	h := newHarness(t, PreferHostColor(domain.Black), true)
	h.clientMove("e2e4")
	h.hostMove("d7d5")
	h.clientMove("e4d5")
	h.hostMove("c7c6")
	h.clientMove("d5c6")
	h.hostMove("g8f6")
	h.clientMove("c6b7")
	h.hostMove("b8d7")

	require.NoError(t, h.client.PerformMove(mv(t, "b7a8")))
	h.waitClient(EventPromotionRequired)

	a8 := sq(t, "a8")
	pending, ok := h.client.PendingPromotion()
	require.True(t, ok)
	assert.Equal(t, a8, pending)
	assert.Equal(t, domain.White, h.client.CurrentTurn())

	assert.True(t, errors.Is(h.client.Promote(sq(t, "b8"), domain.Queen), ErrNoPendingPromotion))
	require.NoError(t, h.client.Promote(a8, domain.Queen))
	h.waitClient(EventStateChanged)

	assert.Equal(t, domain.Piece{Type: domain.Queen, Color: domain.White}, h.client.Board().At(a8))
	assert.Equal(t, domain.Black, h.client.CurrentTurn())
	_, ok = h.client.PendingPromotion()
	assert.False(t, ok)
}

func TestClientResigns(t *testing.T) {
	h := newHarness(t, PreferHostColor(domain.Black), true)

	require.NoError(t, h.client.Resign())
	hev := h.waitHost(EventResigned)
	cev := h.waitClient(EventResigned)

	assert.Equal(t, domain.Black, hev.Winner)
	assert.Equal(t, domain.Black, cev.Winner)
	assert.Equal(t, domain.BlackWins, h.host.Outcome())
	assert.Equal(t, domain.BlackWins, h.client.Outcome())
	assert.True(t, errors.Is(h.client.PerformMove(mv(t, "e2e4")), ErrGameOver))
}

func TestHostResigns(t *testing.T) {
	h := newHarness(t, PreferHostColor(domain.Black), true)

	require.NoError(t, h.host.Resign())
	ev := h.waitClient(EventResigned)
	assert.Equal(t, domain.White, ev.Winner)
	assert.Equal(t, domain.WhiteWins, h.client.Outcome())
}

func TestDrawOfferAccepted(t *testing.T) {
	h := newHarness(t, PreferHostColor(domain.Black), true)

	require.NoError(t, h.client.OfferDraw())
	assert.True(t, errors.Is(h.client.OfferDraw(), ErrBusy))
	h.waitHost(EventDrawOffered)
	require.True(t, h.host.DrawOffered())

	require.NoError(t, h.host.AcceptDraw())
	h.waitClient(EventDraw)
	assert.Equal(t, domain.Draw, h.client.Outcome())
	assert.Equal(t, domain.Draw, h.host.Outcome())
}

func TestDrawOfferDeclined(t *testing.T) {
	h := newHarness(t, PreferHostColor(domain.Black), true)

	assert.True(t, errors.Is(h.host.DeclineDraw(), ErrNoDrawOffer))
	require.NoError(t, h.client.OfferDraw())
	h.waitHost(EventDrawOffered)

	require.NoError(t, h.host.DeclineDraw())
	ev := h.waitClient(EventMoveRejected)
	assert.Equal(t, "draw offer declined", ev.Reason)
	assert.Equal(t, domain.Ongoing, h.client.Outcome())
	require.NoError(t, h.client.OfferDraw(), "a declined offer can be repeated")
}

func TestMoveAfterGameOverIsRejected(t *testing.T) {
	h := newHarness(t, PreferHostColor(domain.White), true)
	require.NoError(t, h.host.PerformMove(mv(t, "f2f3")))
	h.waitClient(EventStateChanged)
	h.clientMove("e7e5")
	h.hostMove("g2g4")
	h.clientMove("d8h4")

	assert.Equal(t, domain.BlackWins, h.host.Outcome())
	assert.Equal(t, domain.BlackWins, h.client.Outcome())
	assert.True(t, errors.Is(h.host.PerformMove(mv(t, "a2a3")), ErrGameOver))
}

func TestClientDisconnectReturnsHostToNotConnected(t *testing.T) {
	h := newHarness(t, PreferHostColor(domain.Black), true)
	h.clientMove("e2e4")

	require.NoError(t, h.client.Close())
	h.waitHost(EventDisconnected)
	assert.Equal(t, domain.NotConnected, h.host.State())
	assert.Empty(t, h.hostErrs)

	// a new client resumes the same game
	h.attach(PreferHostColor(domain.White))
	assert.Equal(t, domain.Black, h.host.Color(), "color is fixed once the game started")
	assert.Equal(t, domain.White, h.client.Color())
	assert.Equal(t, h.host.Board(), h.client.Board())
	assert.Equal(t, domain.Black, h.client.CurrentTurn())
}

func TestHostCloseDisconnectsClient(t *testing.T) {
	h := newHarness(t, PreferHostColor(domain.Black), true)

	require.NoError(t, h.host.Close())
	h.waitClient(EventDisconnected)
	assert.Equal(t, domain.Closed, h.client.State())
	assert.True(t, h.acc.closed)
	assert.True(t, errors.Is(h.client.PerformMove(mv(t, "e2e4")), ErrNotConnected))

	ev, err := h.client.Update()
	require.NoError(t, err)
	assert.Equal(t, EventNone, ev.Kind)
}

func TestProtocolViolationTearsDownConnection(t *testing.T) {
	acc := newChanAcceptor()
	host := NewHost(acc, nil, HostOptions{AdvertiseMoveGen: true, Stream: streamOpts()})
	defer host.Close()

	hostSide, peer := net.Pipe()
	defer peer.Close()
	acc.conns <- hostSide

	ev, err := host.Update()
	require.NoError(t, err)
	require.Equal(t, EventConnected, ev.Kind)

	go func() {
		_, _ = peer.Write([]byte(`{"type":"client_resign"}` + "\n"))
	}()

	var got error
	require.Eventually(t, func() bool {
		_, err := host.Update()
		got = err
		return err != nil
	}, waitFor, tick)

	var perr *ProtocolError
	require.True(t, errors.As(got, &perr), "got %v", got)
	assert.Equal(t, domain.Handshake, perr.State)
	assert.Equal(t, domain.NotConnected, host.State())
	assert.Equal(t, domain.Ongoing, host.Outcome())
}

func TestMalformedFrameTearsDownConnection(t *testing.T) {
	acc := newChanAcceptor()
	host := NewHost(acc, nil, HostOptions{Stream: streamOpts()})
	defer host.Close()

	hostSide, peer := net.Pipe()
	defer peer.Close()
	acc.conns <- hostSide
	_, err := host.Update()
	require.NoError(t, err)

	go func() { _, _ = peer.Write([]byte("{\"type\":\"client_handshake\"\n")) }()

	var got error
	require.Eventually(t, func() bool {
		_, err := host.Update()
		got = err
		return err != nil
	}, waitFor, tick)
	assert.Error(t, got)
	assert.Equal(t, domain.NotConnected, host.State())
}
