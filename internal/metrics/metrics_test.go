package metrics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/park285/netchess/internal/netplay"
)

func TestObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveEvent(netplay.VariantHosting, netplay.Event{Kind: netplay.EventHandshakeComplete})
	m.ObserveEvent(netplay.VariantHosting, netplay.Event{Kind: netplay.EventStateChanged})
	m.ObserveEvent(netplay.VariantHosting, netplay.Event{Kind: netplay.EventStateChanged})
	assert.Equal(t, 2.0, testutil.ToFloat64(m.events.WithLabelValues("hosting", "state_changed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.connected))

	m.ObserveEvent(netplay.VariantHosting, netplay.Event{Kind: netplay.EventDisconnected})
	assert.Equal(t, 0.0, testutil.ToFloat64(m.connected))

	m.ObserveCommand("move", nil)
	m.ObserveCommand("move", errors.New("illegal"))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.commands.WithLabelValues("move", "error")))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.ObserveEvent(netplay.VariantLocal, netplay.Event{Kind: netplay.EventDraw})
	m.ObserveCommand("draw", nil)
}

func TestServe(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.ObserveCommand("resign", nil)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, addr, reg) }()

	var body string
	require.Eventually(t, func() bool {
		resp, err := http.Get(fmt.Sprintf("http://%s/metrics", addr))
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		b, _ := io.ReadAll(resp.Body)
		body = string(b)
		return resp.StatusCode == http.StatusOK
	}, 3*time.Second, 10*time.Millisecond)
	assert.True(t, strings.Contains(body, `netchess_commands_total{command="resign",result="ok"} 1`))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Serve did not stop")
	}
}
