// Package session holds the authenticated identity for the running client
// and keeps it in sync with the credential bundle in the local store.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/store"
	"github.com/golang-jwt/jwt/v5"
)

const DefaultStorageKey = "user"

var ErrInvalidCredentials = errors.New("login response carries no access token")

// AuthService is the remote auth endpoint as the holder needs it.
type AuthService interface {
	Login(ctx context.Context, username, password string) (domain.Credentials, error)
	Register(ctx context.Context, username, email, password string) (string, error)
}

type Holder struct {
	mu       sync.RWMutex
	creds    *domain.Credentials
	resolved bool

	auth   AuthService
	store  *store.Adapter
	key    string
	logger *slog.Logger
	now    func() time.Time

	subsMu  sync.Mutex
	subs    map[uint64]func(*domain.Identity)
	nextSub uint64
}

func NewHolder(auth AuthService, st *store.Adapter, key string, logger *slog.Logger) *Holder {
	return &Holder{
		auth:   auth,
		store:  st,
		key:    key,
		logger: logger,
		now:    time.Now,
		subs:   make(map[uint64]func(*domain.Identity)),
	}
}

// Restore rehydrates the identity from the persisted bundle. A missing,
// malformed or expired bundle leaves nobody logged in. Until Restore
// returns, Resolved reports false.
func (h *Holder) Restore(ctx context.Context) {
	creds, ok := store.Load[domain.Credentials](ctx, h.store, h.key)
	if ok {
		if err := h.validate(creds); err != nil {
			h.logger.Warn("discarding persisted session",
				slog.String("key", h.key),
				slog.String("error", err.Error()),
			)
			h.store.Remove(ctx, h.key)
			ok = false
		}
	}

	h.mu.Lock()
	if ok {
		h.creds = &creds
	} else {
		h.creds = nil
	}
	h.resolved = true
	identity := h.identityLocked()
	h.mu.Unlock()

	h.broadcast(identity)
}

// validate accepts opaque tokens as they are; a token that parses as a JWT
// must not be past its expiry.
func (h *Holder) validate(creds domain.Credentials) error {
	if creds.AccessToken == "" {
		return ErrInvalidCredentials
	}
	if creds.ID.IsZero() {
		return errors.New("credential bundle has no user id")
	}

	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(creds.AccessToken, &claims); err != nil {
		return nil
	}
	if claims.ExpiresAt != nil && !claims.ExpiresAt.After(h.now()) {
		return fmt.Errorf("access token expired at %s", claims.ExpiresAt.Format(time.RFC3339))
	}
	return nil
}

// Login authenticates against the auth service. On success the bundle is
// persisted and replaces the current identity; on failure the identity is
// unchanged and the service error is returned for display.
func (h *Holder) Login(ctx context.Context, username, password string) (domain.Identity, error) {
	creds, err := h.auth.Login(ctx, username, password)
	if err != nil {
		return domain.Identity{}, err
	}
	if creds.AccessToken == "" {
		return domain.Identity{}, ErrInvalidCredentials
	}

	h.mu.Lock()
	h.store.Save(ctx, h.key, creds)
	h.creds = &creds
	h.resolved = true
	identity := h.identityLocked()
	h.mu.Unlock()

	h.logger.Info("user logged in", slog.String("user_id", creds.ID.String()))
	h.broadcast(identity)
	return *identity, nil
}

// Logout forgets the identity locally. It needs no network call.
func (h *Holder) Logout(ctx context.Context) {
	h.mu.Lock()
	h.store.Remove(ctx, h.key)
	h.creds = nil
	h.resolved = true
	h.mu.Unlock()

	h.broadcast(nil)
}

// Register creates an account. The user still has to log in afterwards.
func (h *Holder) Register(ctx context.Context, username, email, password string) (string, error) {
	return h.auth.Register(ctx, username, email, password)
}

// Current returns a copy of the identity, or nil when nobody is logged in.
func (h *Holder) Current() *domain.Identity {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.identityLocked()
}

func (h *Holder) Resolved() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.resolved
}

// Token returns the bearer token for outgoing requests, or "".
func (h *Holder) Token() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.creds == nil {
		return ""
	}
	return h.creds.AccessToken
}

func (h *Holder) identityLocked() *domain.Identity {
	if h.creds == nil {
		return nil
	}
	identity := h.creds.Identity()
	return &identity
}

// Subscribe registers fn to receive the identity after every change; nil
// means logged out. The returned func unsubscribes.
func (h *Holder) Subscribe(fn func(*domain.Identity)) func() {
	h.subsMu.Lock()
	defer h.subsMu.Unlock()

	id := h.nextSub
	h.nextSub++
	h.subs[id] = fn

	return func() {
		h.subsMu.Lock()
		defer h.subsMu.Unlock()
		delete(h.subs, id)
	}
}

func (h *Holder) broadcast(identity *domain.Identity) {
	h.subsMu.Lock()
	fns := make([]func(*domain.Identity), 0, len(h.subs))
	for _, fn := range h.subs {
		fns = append(fns, fn)
	}
	h.subsMu.Unlock()

	for _, fn := range fns {
		if identity == nil {
			fn(nil)
			continue
		}
		cp := *identity
		fn(&cp)
	}
}
