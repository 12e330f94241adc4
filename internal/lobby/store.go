// Package lobby publishes hosted games in Redis under short join codes so a
// client can connect without knowing the host's address.
package lobby

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/park285/netchess/internal/obslog"
)

const (
	DefaultTTL   = time.Hour
	codeAttempts = 5
)

type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{rdb: rdb, ttl: ttl}
}

// Open parses a redis:// URL and pings the server.
func Open(ctx context.Context, url string, ttl time.Duration) (*Store, error) {
	opts, err := redis.ParseURL(strings.TrimSpace(url))
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewStore(rdb, ttl), nil
}

func (s *Store) Close() error { return s.rdb.Close() }

func (s *Store) keyGame(code string) string { return "netchess:game:" + strings.TrimSpace(code) }
func (s *Store) keyLobby() string           { return "netchess:lobby" }

// Publish allocates a fresh code and stores l under it. l.Code is overwritten.
func (s *Store) Publish(ctx context.Context, l Listing) (string, error) {
	if strings.TrimSpace(l.Addr) == "" {
		return "", ErrInvalidArgs
	}
	l.State = StateWaiting
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now()
	}
	for i := 0; i < codeAttempts; i++ {
		code, err := codeGen()
		if err != nil {
			return "", err
		}
		l.Code = code
		raw, err := json.Marshal(&l)
		if err != nil {
			return "", err
		}
		ok, err := s.rdb.SetNX(ctx, s.keyGame(code), raw, s.ttl).Result()
		if err != nil {
			return "", err
		}
		if !ok {
			continue
		}
		if err := s.rdb.SAdd(ctx, s.keyLobby(), code).Err(); err != nil {
			return "", err
		}
		_ = s.rdb.Expire(ctx, s.keyLobby(), s.ttl).Err()
		obslog.L().Info("lobby_publish", zap.String("code", code), zap.String("addr", l.Addr), zap.String("game_id", l.GameID))
		return code, nil
	}
	return "", fmt.Errorf("failed to allocate game code")
}

func (s *Store) Resolve(ctx context.Context, code string) (*Listing, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, ErrInvalidArgs
	}
	raw, err := s.rdb.Get(ctx, s.keyGame(code)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrGameGone
	}
	if err != nil {
		return nil, err
	}
	var l Listing
	if err := json.Unmarshal(raw, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// MarkActive records that a client joined and drops the code from the open list.
func (s *Store) MarkActive(ctx context.Context, code string) error {
	l, err := s.Resolve(ctx, code)
	if err != nil {
		return err
	}
	l.State = StateActive
	raw, err := json.Marshal(l)
	if err != nil {
		return err
	}
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, s.keyGame(l.Code), raw, s.ttl)
	pipe.SRem(ctx, s.keyLobby(), l.Code)
	_, err = pipe.Exec(ctx)
	return err
}

// MarkWaiting reopens a game after its client left.
func (s *Store) MarkWaiting(ctx context.Context, code string) error {
	l, err := s.Resolve(ctx, code)
	if err != nil {
		return err
	}
	l.State = StateWaiting
	raw, err := json.Marshal(l)
	if err != nil {
		return err
	}
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, s.keyGame(l.Code), raw, s.ttl)
	pipe.SAdd(ctx, s.keyLobby(), l.Code)
	pipe.Expire(ctx, s.keyLobby(), s.ttl)
	_, err = pipe.Exec(ctx)
	return err
}

// Refresh extends the TTL of a published game.
func (s *Store) Refresh(ctx context.Context, code string) error {
	ok, err := s.rdb.Expire(ctx, s.keyGame(code), s.ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrGameGone
	}
	_ = s.rdb.Expire(ctx, s.keyLobby(), s.ttl).Err()
	return nil
}

// TTL is how long a listing survives without Refresh.
func (s *Store) TTL() time.Duration { return s.ttl }

func (s *Store) Withdraw(ctx context.Context, code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil
	}
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, s.keyGame(code))
	pipe.SRem(ctx, s.keyLobby(), code)
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}
	obslog.L().Info("lobby_withdraw", zap.String("code", code))
	return nil
}

// List returns games still waiting for a client. Expired codes are pruned.
func (s *Store) List(ctx context.Context) ([]*Listing, error) {
	codes, err := s.rdb.SMembers(ctx, s.keyLobby()).Result()
	if err != nil {
		return nil, err
	}
	var out []*Listing
	for _, c := range codes {
		l, err := s.Resolve(ctx, c)
		if errors.Is(err, ErrGameGone) {
			_ = s.rdb.SRem(ctx, s.keyLobby(), c).Err()
			continue
		}
		if err != nil {
			return nil, err
		}
		if l.State != StateWaiting {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

// codeGen returns `CH-` + 6 upper alnum.
func codeGen() (string, error) {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	for i := range b {
		b[i] = letters[int(b[i])%len(letters)]
	}
	return fmt.Sprintf("CH-%s", string(b)), nil
}
