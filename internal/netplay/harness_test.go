package netplay

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/park285/netchess/internal/domain"
	"github.com/park285/netchess/internal/framing"
)

const (
	waitFor = 3 * time.Second
	tick    = 2 * time.Millisecond
)

type chanAcceptor struct {
	conns  chan net.Conn
	closed bool
}

func newChanAcceptor() *chanAcceptor { return &chanAcceptor{conns: make(chan net.Conn, 4)} }

func (a *chanAcceptor) Poll() (net.Conn, bool) {
	select {
	case c := <-a.conns:
		return c, true
	default:
		return nil, false
	}
}

func (a *chanAcceptor) Addr() string { return "pipe" }

func (a *chanAcceptor) Close() error {
	a.closed = true
	return nil
}

type harness struct {
	t      *testing.T
	acc    *chanAcceptor
	host   *Host
	client *Client

	hostEvents   []Event
	clientEvents []Event
	hostErrs     []error
	clientErrs   []error
}

func streamOpts() framing.Options { return framing.Options{WriteTimeout: time.Second} }

// newHarness wires a host and a client over net.Pipe and completes the
// handshake. The client asks the host to play requested; nil leaves the
// host's White in place.
func newHarness(t *testing.T, requested *domain.Color, moveGen bool) *harness {
	t.Helper()
	acc := newChanAcceptor()
	h := &harness{
		t:    t,
		acc:  acc,
		host: NewHost(acc, nil, HostOptions{Color: domain.White, AdvertiseMoveGen: moveGen, Stream: streamOpts()}),
	}
	h.attach(requested)
	t.Cleanup(func() {
		_ = h.client.Close()
		_ = h.host.Close()
	})
	return h
}

func (h *harness) attach(requested *domain.Color) {
	h.t.Helper()
	hostSide, clientSide := net.Pipe()
	h.acc.conns <- hostSide
	h.hostEvents, h.clientEvents = nil, nil

	ev, err := h.host.Update()
	require.NoError(h.t, err)
	require.Equal(h.t, EventConnected, ev.Kind)

	h.client = NewClient(clientSide, ClientOptions{RequestedHostColor: requested, Stream: streamOpts()})
	h.waitClient(EventHandshakeComplete)
	h.waitHost(EventHandshakeComplete)
}

// step drives one Update on each side. It runs inside require.Eventually's
// goroutine, so it records rather than asserts.
func (h *harness) step() {
	if ev, err := h.host.Update(); err != nil {
		h.hostErrs = append(h.hostErrs, err)
	} else if ev.Kind != EventNone {
		h.hostEvents = append(h.hostEvents, ev)
	}
	if ev, err := h.client.Update(); err != nil {
		h.clientErrs = append(h.clientErrs, err)
	} else if ev.Kind != EventNone {
		h.clientEvents = append(h.clientEvents, ev)
	}
}

func (h *harness) wait(events *[]Event, kind EventKind) Event {
	h.t.Helper()
	var got Event
	require.Eventually(h.t, func() bool {
		h.step()
		for i, ev := range *events {
			if ev.Kind == kind {
				got = ev
				*events = (*events)[i+1:]
				return true
			}
		}
		return false
	}, waitFor, tick, "waiting for %s", kind)
	return got
}

func (h *harness) waitHost(kind EventKind) Event   { return h.wait(&h.hostEvents, kind) }
func (h *harness) waitClient(kind EventKind) Event { return h.wait(&h.clientEvents, kind) }

func (h *harness) clientMove(s string) Event {
	h.t.Helper()
	require.NoError(h.t, h.client.PerformMove(mv(h.t, s)))
	return h.waitClient(EventStateChanged)
}

func (h *harness) hostMove(s string) {
	h.t.Helper()
	require.NoError(h.t, h.host.PerformMove(mv(h.t, s)))
	h.waitClient(EventStateChanged)
}

func mv(t *testing.T, s string) domain.Move {
	t.Helper()
	from, err := domain.ParseSquare(s[0:2])
	require.NoError(t, err)
	to, err := domain.ParseSquare(s[2:4])
	require.NoError(t, err)
	m := domain.Normal(from, to)
	if len(s) == 5 && s[4] == 'q' {
		m.Promotion = domain.Queen
	}
	return m
}

func sq(t *testing.T, s string) domain.Square {
	t.Helper()
	v, err := domain.ParseSquare(s)
	require.NoError(t, err)
	return v
}
