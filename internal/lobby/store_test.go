package lobby

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewStore(rdb, time.Minute), mr
}

func TestPublishResolve(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	code, err := s.Publish(ctx, Listing{Addr: "10.0.0.5:7878", Transport: "tcp", HostColor: "white", GameID: "g1"})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if !strings.HasPrefix(code, "CH-") || len(code) != 9 {
		t.Fatalf("unexpected code %q", code)
	}

	l, err := s.Resolve(ctx, strings.ToLower(code))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if l.Addr != "10.0.0.5:7878" || l.GameID != "g1" || l.State != StateWaiting || l.Code != code {
		t.Fatalf("unexpected listing %+v", l)
	}
}

func TestPublishRequiresAddr(t *testing.T) {
	s, _ := newTestStore(t)
	if _, err := s.Publish(context.Background(), Listing{}); !errors.Is(err, ErrInvalidArgs) {
		t.Fatalf("expected ErrInvalidArgs, got %v", err)
	}
}

func TestResolveUnknown(t *testing.T) {
	s, _ := newTestStore(t)
	if _, err := s.Resolve(context.Background(), "CH-NOPE00"); !errors.Is(err, ErrGameGone) {
		t.Fatalf("expected ErrGameGone, got %v", err)
	}
}

func TestListTracksState(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	a, _ := s.Publish(ctx, Listing{Addr: "a:1"})
	b, _ := s.Publish(ctx, Listing{Addr: "b:1"})

	list, err := s.List(ctx)
	if err != nil || len(list) != 2 {
		t.Fatalf("List: %v (%d)", err, len(list))
	}

	if err := s.MarkActive(ctx, a); err != nil {
		t.Fatalf("MarkActive: %v", err)
	}
	list, _ = s.List(ctx)
	if len(list) != 1 || list[0].Code != b {
		t.Fatalf("expected only %s waiting, got %+v", b, list)
	}

	if err := s.MarkWaiting(ctx, a); err != nil {
		t.Fatalf("MarkWaiting: %v", err)
	}
	list, _ = s.List(ctx)
	if len(list) != 2 {
		t.Fatalf("expected 2 waiting after reopen, got %d", len(list))
	}

	if err := s.Withdraw(ctx, b); err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if _, err := s.Resolve(ctx, b); !errors.Is(err, ErrGameGone) {
		t.Fatalf("withdrawn code still resolves: %v", err)
	}
}

func TestListingExpires(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	code, err := s.Publish(ctx, Listing{Addr: "a:1"})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	mr.FastForward(2 * time.Minute)

	if _, err := s.Resolve(ctx, code); !errors.Is(err, ErrGameGone) {
		t.Fatalf("expected expiry, got %v", err)
	}
	list, err := s.List(ctx)
	if err != nil || len(list) != 0 {
		t.Fatalf("expired listing still listed: %v %+v", err, list)
	}
}

func TestOpenPings(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer mr.Close()

	s, err := Open(context.Background(), "redis://"+mr.Addr()+"/0", 0)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()
	if s.ttl != DefaultTTL {
		t.Fatalf("expected default ttl, got %v", s.ttl)
	}
}

func TestRefreshExtendsTTL(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	code, _ := s.Publish(ctx, Listing{Addr: "a:1"})
	mr.FastForward(45 * time.Second)
	if err := s.Refresh(ctx, code); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	mr.FastForward(45 * time.Second)
	if _, err := s.Resolve(ctx, code); err != nil {
		t.Fatalf("refreshed listing expired: %v", err)
	}
	if err := s.Refresh(ctx, "CH-GONE00"); !errors.Is(err, ErrGameGone) {
		t.Fatalf("expected ErrGameGone, got %v", err)
	}
}
