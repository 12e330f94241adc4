package netplay

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/park285/netchess/internal/domain"
)

func playOverTransport(t *testing.T, transport Transport) {
	t.Helper()
	ln, err := Listen(transport, "127.0.0.1:0")
	require.NoError(t, err)
	host := NewHost(ln, nil, HostOptions{AdvertiseMoveGen: true, Stream: streamOpts()})
	defer host.Close()

	conn, err := Dial(context.Background(), transport, ln.Addr(), waitFor)
	require.NoError(t, err)
	client := NewClient(conn, ClientOptions{RequestedHostColor: PreferHostColor(domain.Black), Stream: streamOpts()})
	defer client.Close()

	h := &harness{t: t, host: host, client: client}
	h.waitHost(EventConnected)
	h.waitClient(EventHandshakeComplete)

	h.clientMove("d2d4")
	h.hostMove("d7d5")
	assert.Equal(t, host.Board(), client.Board())
	assert.Equal(t, domain.White, client.CurrentTurn())

	require.NoError(t, client.Close())
	h.waitHost(EventDisconnected)
	assert.Equal(t, domain.NotConnected, host.State())
}

func TestTCPTransport(t *testing.T) {
	playOverTransport(t, TransportTCP)
}

func TestWebSocketTransport(t *testing.T) {
	playOverTransport(t, TransportWS)
}

func TestParseTransport(t *testing.T) {
	for in, want := range map[string]Transport{"": TransportTCP, "TCP": TransportTCP, "ws": TransportWS, "websocket": TransportWS} {
		got, err := ParseTransport(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseTransport("carrier-pigeon")
	assert.Error(t, err)
}

func TestHostRefusesSecondClient(t *testing.T) {
	ln, err := ListenTCP("127.0.0.1:0")
	require.NoError(t, err)
	host := NewHost(ln, nil, HostOptions{Stream: streamOpts()})
	defer host.Close()

	conn, err := Dial(context.Background(), TransportTCP, ln.Addr(), waitFor)
	require.NoError(t, err)
	client := NewClient(conn, ClientOptions{RequestedHostColor: PreferHostColor(domain.Black), Stream: streamOpts()})
	defer client.Close()
	h := &harness{t: t, host: host, client: client}
	h.waitClient(EventHandshakeComplete)

	extra, err := Dial(context.Background(), TransportTCP, ln.Addr(), waitFor)
	require.NoError(t, err)
	intruder := NewClient(extra, ClientOptions{Stream: streamOpts()})
	defer intruder.Close()

	require.Eventually(t, func() bool {
		h.step()
		ev, _ := intruder.Update()
		return ev.Kind == EventDisconnected
	}, waitFor, tick)
	assert.Equal(t, domain.Play, client.State())
}
