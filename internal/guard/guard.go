// Package guard decides whether a view may be shown to the current
// identity. Decide is a pure function; Guard adds the one-time user
// notification on denial.
package guard

import (
	"context"
	"sync"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/notify"
)

type Outcome int

const (
	// Await means identity loading has not finished; render nothing conclusive.
	Await Outcome = iota
	Proceed
	RedirectLogin
	RedirectHome
)

func (o Outcome) String() string {
	switch o {
	case Await:
		return "await"
	case Proceed:
		return "proceed"
	case RedirectLogin:
		return "redirect_login"
	case RedirectHome:
		return "redirect_home"
	default:
		return "unknown"
	}
}

func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

const (
	LoginPath = "/login"
	HomePath  = "/"

	MsgNotLoggedIn = "You must be logged in to view this page."
	MsgForbidden   = "Access denied. You do not have the required permissions."
)

type Decision struct {
	Outcome Outcome `json:"outcome"`
	Target  string  `json:"target,omitempty"`
	Reason  string  `json:"reason,omitempty"`
}

func (d Decision) Allowed() bool {
	return d.Outcome == Proceed
}

// Decide maps (identity, required roles, resolution state) to an outcome.
// A nil identity means nobody is logged in. Roles are compared after
// normalization, so "ROLE_ADMIN" satisfies "ADMIN".
func Decide(identity *domain.Identity, required []string, resolved bool) Decision {
	if !resolved {
		return Decision{Outcome: Await}
	}
	if identity == nil {
		return Decision{Outcome: RedirectLogin, Target: LoginPath, Reason: MsgNotLoggedIn}
	}
	if !identity.HasAnyRole(required) {
		return Decision{Outcome: RedirectHome, Target: HomePath, Reason: MsgForbidden}
	}
	return Decision{Outcome: Proceed}
}

type Recorder interface {
	RecordGuardDecision(outcome string)
}

type Option func(*Guard)

func WithRecorder(r Recorder) Option {
	return func(g *Guard) {
		g.recorder = r
	}
}

// Guard evaluates views against a Policy. It remembers the last outcome per
// view and notifies the user only when a view enters a redirect outcome,
// not on every re-evaluation with the same inputs.
type Guard struct {
	mu   sync.Mutex
	last map[string]Outcome

	policy   Policy
	notifier notify.Notifier
	recorder Recorder
}

func New(policy Policy, notifier notify.Notifier, opts ...Option) *Guard {
	g := &Guard{
		last:     make(map[string]Outcome),
		policy:   policy,
		notifier: notifier,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Check evaluates the view at path. Paths without a rule always proceed.
func (g *Guard) Check(ctx context.Context, path string, identity *domain.Identity, resolved bool) Decision {
	rule, protected := g.policy.Lookup(path)
	if !protected {
		return Decision{Outcome: Proceed}
	}
	return g.Evaluate(ctx, path, identity, rule.Roles, resolved)
}

// Evaluate decides for view with explicit required roles.
func (g *Guard) Evaluate(ctx context.Context, view string, identity *domain.Identity, required []string, resolved bool) Decision {
	d := Decide(identity, required, resolved)

	g.mu.Lock()
	prev, seen := g.last[view]
	g.last[view] = d.Outcome
	g.mu.Unlock()

	if g.recorder != nil {
		g.recorder.RecordGuardDecision(d.Outcome.String())
	}

	transitioned := !seen || prev != d.Outcome
	if transitioned && d.Reason != "" && g.notifier != nil {
		g.notifier.Notify(ctx, notify.Notification{
			Level:   notify.LevelError,
			Message: d.Reason,
		})
	}
	return d
}

// Forget drops the remembered outcome for view, so the next denial is
// announced again. Call it when the view is left.
func (g *Guard) Forget(view string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.last, view)
}
