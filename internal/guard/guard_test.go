package guard

import (
	"context"
	"sync"
	"testing"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockNotifier struct {
	m    sync.Mutex
	sent []notify.Notification
}

func (n *mockNotifier) Notify(_ context.Context, msg notify.Notification) {
	n.m.Lock()
	defer n.m.Unlock()
	n.sent = append(n.sent, msg)
}

func (n *mockNotifier) messages() []string {
	n.m.Lock()
	defer n.m.Unlock()
	out := make([]string, 0, len(n.sent))
	for _, s := range n.sent {
		out = append(out, s.Message)
	}
	return out
}

type mockRecorder struct {
	outcomes []string
}

func (r *mockRecorder) RecordGuardDecision(outcome string) {
	r.outcomes = append(r.outcomes, outcome)
}

func user(roles ...string) *domain.Identity {
	return &domain.Identity{ID: "1", DisplayName: "alice", Roles: roles}
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name     string
		identity *domain.Identity
		required []string
		resolved bool
		want     Decision
	}{
		{"pending", nil, nil, false, Decision{Outcome: Await}},
		{"pending ignores identity", user("ADMIN"), []string{"ADMIN"}, false, Decision{Outcome: Await}},
		{"anonymous no roles", nil, nil, true, Decision{Outcome: RedirectLogin, Target: "/login", Reason: MsgNotLoggedIn}},
		{"anonymous admin route", nil, []string{"ADMIN"}, true, Decision{Outcome: RedirectLogin, Target: "/login", Reason: MsgNotLoggedIn}},
		{"user on admin route", user("USER"), []string{"ADMIN"}, true, Decision{Outcome: RedirectHome, Target: "/", Reason: MsgForbidden}},
		{"admin on admin route", user("ADMIN", "USER"), []string{"ADMIN"}, true, Decision{Outcome: Proceed}},
		{"any role suffices", user("USER"), []string{"ADMIN", "USER"}, true, Decision{Outcome: Proceed}},
		{"no roles required", user(), nil, true, Decision{Outcome: Proceed}},
		{"backend role names", user("ROLE_ADMIN"), []string{"ADMIN"}, true, Decision{Outcome: Proceed}},
		{"case insensitive", user("admin"), []string{"ROLE_ADMIN"}, true, Decision{Outcome: Proceed}},
		{"identity without roles", user(), []string{"ADMIN"}, true, Decision{Outcome: RedirectHome, Target: "/", Reason: MsgForbidden}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.identity, tt.required, tt.resolved))
		})
	}
}

func TestDecide_AnonymousAlwaysRedirectsToLogin(t *testing.T) {
	for _, required := range [][]string{nil, {}, {"USER"}, {"ADMIN"}, {"ADMIN", "MODERATOR"}} {
		d := Decide(nil, required, true)
		assert.Equal(t, RedirectLogin, d.Outcome, "required %v", required)
	}
}

func TestGuard_NotifiesOncePerTransition(t *testing.T) {
	n := &mockNotifier{}
	sut := New(DefaultPolicy(), n)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		d := sut.Check(ctx, "/checkout", nil, true)
		require.Equal(t, RedirectLogin, d.Outcome)
	}
	assert.Equal(t, []string{MsgNotLoggedIn}, n.messages())
}

func TestGuard_NoNotificationWhileLoading(t *testing.T) {
	n := &mockNotifier{}
	sut := New(DefaultPolicy(), n)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		assert.Equal(t, Await, sut.Check(ctx, "/orders", nil, false).Outcome)
	}
	assert.Equal(t, Proceed, sut.Check(ctx, "/orders", user("USER"), true).Outcome)

	assert.Empty(t, n.messages())
}

func TestGuard_NotifiesAgainAfterStateChange(t *testing.T) {
	n := &mockNotifier{}
	sut := New(DefaultPolicy(), n)
	ctx := context.Background()

	sut.Check(ctx, "/admin", nil, true)
	sut.Check(ctx, "/admin", user("USER"), true)
	sut.Check(ctx, "/admin", user("USER"), true)
	sut.Check(ctx, "/admin", user("ADMIN"), true)
	sut.Check(ctx, "/admin", nil, true)

	assert.Equal(t, []string{MsgNotLoggedIn, MsgForbidden, MsgNotLoggedIn}, n.messages())
}

func TestGuard_ViewsAreTrackedSeparately(t *testing.T) {
	n := &mockNotifier{}
	sut := New(DefaultPolicy(), n)
	ctx := context.Background()

	sut.Check(ctx, "/orders", nil, true)
	sut.Check(ctx, "/profile", nil, true)

	assert.Len(t, n.messages(), 2)
}

func TestGuard_Forget(t *testing.T) {
	n := &mockNotifier{}
	sut := New(DefaultPolicy(), n)
	ctx := context.Background()

	sut.Check(ctx, "/orders", nil, true)
	sut.Forget("/orders")
	sut.Check(ctx, "/orders", nil, true)

	assert.Len(t, n.messages(), 2)
}

func TestGuard_PublicPathsProceed(t *testing.T) {
	n := &mockNotifier{}
	sut := New(DefaultPolicy(), n)
	ctx := context.Background()

	for _, path := range []string{"/", "/products", "/products/12", "/cart", "/login", "/register"} {
		assert.Equal(t, Proceed, sut.Check(ctx, path, nil, true).Outcome, path)
	}
	assert.Empty(t, n.messages())
}

func TestGuard_RecordsEveryDecision(t *testing.T) {
	rec := &mockRecorder{}
	sut := New(DefaultPolicy(), nil, WithRecorder(rec))
	ctx := context.Background()

	sut.Check(ctx, "/admin", nil, false)
	sut.Check(ctx, "/admin", nil, true)
	sut.Check(ctx, "/admin", nil, true)
	sut.Check(ctx, "/admin", user("ADMIN"), true)

	assert.Equal(t, []string{"await", "redirect_login", "redirect_login", "proceed"}, rec.outcomes)
}

func TestOutcome_MarshalText(t *testing.T) {
	b, err := RedirectHome.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "redirect_home", string(b))
	assert.Equal(t, "unknown", Outcome(42).String())
}
