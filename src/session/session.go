// Package session threads an explicit session value through request
// contexts. Issuing credentials (the upstream OAuth dance) is the auth
// collaborator's job; the gateway only resolves the cookie and carries the
// value.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const CookieName = "session_id"

type Session struct {
	ID       string `json:"id"`
	UserNSID string `json:"user_nsid"`
	Username string `json:"username"`
}

// LoggedIn reports whether the session is bound to an upstream user.
func (s Session) LoggedIn() bool {
	return s.UserNSID != ""
}

type ctxKey struct{}

func WithContext(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(Session)
	return s, ok
}

// Store resolves session IDs to session values.
type Store interface {
	Get(ctx context.Context, id string) (Session, bool, error)
	Set(ctx context.Context, s Session) error
}

// RedisStore keeps sessions as JSON under "session:<id>" with a sliding TTL.
type RedisStore struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{Client: client, TTL: ttl}
}

func sessionKey(id string) string { return "session:" + id }

func (s *RedisStore) Get(ctx context.Context, id string) (Session, bool, error) {
	raw, err := s.Client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Session{}, false, nil
	}
	if err != nil {
		return Session{}, false, err
	}
	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return Session{}, false, err
	}
	return sess, true, nil
}

func (s *RedisStore) Set(ctx context.Context, sess Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.Client.Set(ctx, sessionKey(sess.ID), raw, s.TTL).Err()
}

// Middleware resolves the session cookie against the store and injects the
// session into the request context. Requests without a cookie get a fresh
// anonymous session ID so the cookie stays stable across the page view.
func Middleware(store Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := Session{}
			if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
				sess.ID = cookie.Value
				if stored, ok, err := store.Get(r.Context(), cookie.Value); err != nil {
					log.Printf("session: lookup failed: %v", err)
				} else if ok {
					sess = stored
				}
			}
			if sess.ID == "" {
				sess.ID = uuid.NewString()
			}
			http.SetCookie(w, &http.Cookie{
				Name:     CookieName,
				Value:    sess.ID,
				Path:     "/",
				HttpOnly: true,
			})
			next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), sess)))
		})
	}
}
