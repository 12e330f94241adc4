package netplay

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"nhooyr.io/websocket"
)

// Transport selects how bytes travel between host and client.
type Transport string

const (
	TransportTCP Transport = "tcp"
	TransportWS  Transport = "ws"

	wsPath = "/play"
)

func ParseTransport(s string) (Transport, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "tcp":
		return TransportTCP, nil
	case "ws", "websocket":
		return TransportWS, nil
	}
	return "", fmt.Errorf("unknown transport %q", s)
}

// Acceptor hands out incoming connections without blocking.
type Acceptor interface {
	Poll() (net.Conn, bool)
	Addr() string
	Close() error
}

// Listener accepts connections on a background goroutine and queues them for
// Poll. It serves both raw TCP and WebSocket upgrades.
type Listener struct {
	ln    net.Listener
	srv   *http.Server
	conns chan net.Conn
	done  chan struct{}
	once  sync.Once
}

var _ Acceptor = (*Listener)(nil)

func Listen(transport Transport, addr string) (*Listener, error) {
	switch transport {
	case TransportWS:
		return ListenWS(addr)
	default:
		return ListenTCP(addr)
	}
}

func ListenTCP(addr string) (*Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	l := newListener(ln)
	go l.acceptLoop()
	return l, nil
}

// ListenWS serves WebSocket upgrades on wsPath. Each accepted socket is
// exposed as a byte stream of text messages.
func ListenWS(addr string) (*Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	l := newListener(ln)
	mux := http.NewServeMux()
	mux.HandleFunc(wsPath, l.serveWS)
	l.srv = &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() { _ = l.srv.Serve(ln) }()
	return l, nil
}

func newListener(ln net.Listener) *Listener {
	return &Listener{ln: ln, conns: make(chan net.Conn, 4), done: make(chan struct{})}
}

func (l *Listener) acceptLoop() {
	for {
		c, err := l.ln.Accept()
		if err != nil {
			return
		}
		l.enqueue(c)
	}
}

func (l *Listener) serveWS(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
	})
	if err != nil {
		return
	}
	l.enqueue(websocket.NetConn(context.Background(), c, websocket.MessageText))
}

func (l *Listener) enqueue(c net.Conn) {
	select {
	case l.conns <- c:
	case <-l.done:
		_ = c.Close()
	}
}

func (l *Listener) Poll() (net.Conn, bool) {
	select {
	case c := <-l.conns:
		return c, true
	default:
		return nil, false
	}
}

func (l *Listener) Addr() string { return l.ln.Addr().String() }

func (l *Listener) Close() error {
	var err error
	l.once.Do(func() {
		close(l.done)
		if l.srv != nil {
			err = l.srv.Close()
		} else {
			err = l.ln.Close()
		}
		for {
			select {
			case c := <-l.conns:
				_ = c.Close()
			default:
				return
			}
		}
	})
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

// Dial connects to a host. For TransportWS, addr may be a full ws:// URL or a
// host:port.
func Dial(ctx context.Context, transport Transport, addr string, timeout time.Duration) (net.Conn, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if transport == TransportWS {
		url := addr
		if !strings.HasPrefix(url, "ws://") && !strings.HasPrefix(url, "wss://") {
			url = "ws://" + addr + wsPath
		}
		c, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{
			CompressionMode: websocket.CompressionNoContextTakeover,
		})
		if err != nil {
			return nil, fmt.Errorf("dial %s: %w", url, err)
		}
		return websocket.NetConn(context.Background(), c, websocket.MessageText), nil
	}
	var d net.Dialer
	c, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return c, nil
}
