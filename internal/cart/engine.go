// Package cart owns the shopping cart: the ordered list of line items, the
// totals derived from it, and its persistence in the local store.
package cart

import (
	"context"
	"log/slog"
	"math"
	"sync"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/store"
	"github.com/shopspring/decimal"
)

const DefaultStorageKey = "ecomm_cart"

// Recorder receives one call per committed mutation.
type Recorder interface {
	RecordCartMutation(op string)
}

type Option func(*Engine)

func WithRecorder(r Recorder) Option {
	return func(e *Engine) {
		e.recorder = r
	}
}

// Engine is the single authority over cart contents. Every mutation is
// applied and persisted under one lock, so writes reach the store in the
// order the mutations were made and the last write is the latest snapshot.
// In-memory state stays authoritative when a write fails.
type Engine struct {
	mu      sync.Mutex
	items   []domain.LineItem
	version uint64

	store    *store.Adapter
	key      string
	logger   *slog.Logger
	recorder Recorder

	subsMu  sync.Mutex
	subs    map[uint64]func(domain.Snapshot)
	nextSub uint64
}

// NewEngine restores the cart persisted under key. Absent or unreadable
// data yields an empty cart.
func NewEngine(ctx context.Context, st *store.Adapter, key string, logger *slog.Logger, opts ...Option) *Engine {
	e := &Engine{
		store:  st,
		key:    key,
		logger: logger,
		subs:   make(map[uint64]func(domain.Snapshot)),
	}
	for _, opt := range opts {
		opt(e)
	}

	stored, ok := store.Load[[]domain.LineItem](ctx, st, key)
	if ok {
		e.items = sanitize(stored)
		if dropped := len(stored) - len(e.items); dropped > 0 {
			logger.Warn("dropped invalid cart lines on load",
				slog.String("key", key),
				slog.Int("dropped", dropped),
			)
		}
	}
	return e
}

// sanitize enforces the line item invariants on data read from storage:
// no empty ids, no quantities below one, one line per product, and a total
// quantity that fits in an int.
func sanitize(items []domain.LineItem) []domain.LineItem {
	out := make([]domain.LineItem, 0, len(items))
	total := 0
	for _, item := range items {
		if item.ProductID.IsZero() || item.Quantity < 1 || !fits(total, item.Quantity) {
			continue
		}
		total += item.Quantity
		if i := indexOf(out, item.ProductID); i >= 0 {
			out[i].Quantity += item.Quantity
			continue
		}
		out = append(out, item)
	}
	return out
}

// fits reports whether adding n units to a cart holding total units keeps
// every quantity and the cart total representable.
func fits(total, n int) bool {
	return total <= math.MaxInt-n
}

func totalQuantity(items []domain.LineItem) int {
	total := 0
	for _, item := range items {
		total += item.Quantity
	}
	return total
}

func indexOf(items []domain.LineItem, id domain.ID) int {
	for i := range items {
		if items[i].ProductID == id {
			return i
		}
	}
	return -1
}

// AddItem adds quantity units of p. An existing line is incremented in
// place; a new product is appended. A quantity below one, a product
// without an id, or an add that would overflow the cart total leaves the
// cart unchanged.
func (e *Engine) AddItem(ctx context.Context, p domain.Product, quantity int) domain.Snapshot {
	if quantity < 1 || p.ID.IsZero() {
		e.logger.Debug("ignoring invalid add to cart",
			slog.String("product_id", p.ID.String()),
			slog.Int("quantity", quantity),
		)
		return e.Snapshot()
	}

	return e.commit(ctx, "add", func(items []domain.LineItem) ([]domain.LineItem, bool) {
		if !fits(totalQuantity(items), quantity) {
			e.logger.Debug("ignoring add that overflows the cart",
				slog.String("product_id", p.ID.String()),
				slog.Int("quantity", quantity),
			)
			return items, false
		}
		if i := indexOf(items, p.ID); i >= 0 {
			items[i].Quantity += quantity
			return items, true
		}
		return append(items, domain.NewLineItem(p, quantity)), true
	})
}

// RemoveItem drops the line for id. Removing an absent product is a no-op.
func (e *Engine) RemoveItem(ctx context.Context, id domain.ID) domain.Snapshot {
	return e.commit(ctx, "remove", func(items []domain.LineItem) ([]domain.LineItem, bool) {
		return remove(items, id)
	})
}

// UpdateQuantity sets the quantity for id. Zero or less removes the line; a
// quantity the cart total cannot hold is ignored.
func (e *Engine) UpdateQuantity(ctx context.Context, id domain.ID, quantity int) domain.Snapshot {
	if quantity <= 0 {
		return e.commit(ctx, "remove", func(items []domain.LineItem) ([]domain.LineItem, bool) {
			return remove(items, id)
		})
	}

	return e.commit(ctx, "update", func(items []domain.LineItem) ([]domain.LineItem, bool) {
		i := indexOf(items, id)
		if i < 0 || items[i].Quantity == quantity {
			return items, false
		}
		if !fits(totalQuantity(items)-items[i].Quantity, quantity) {
			return items, false
		}
		items[i].Quantity = quantity
		return items, true
	})
}

// Clear empties the cart. It always writes, so stale data left in the
// store from an earlier failure is overwritten too.
func (e *Engine) Clear(ctx context.Context) domain.Snapshot {
	return e.commit(ctx, "clear", func([]domain.LineItem) ([]domain.LineItem, bool) {
		return nil, true
	})
}

// Deduct subtracts ordered quantities from the matching lines and drops
// lines that reach zero. Lines and units added after the order was taken
// stay in the cart.
func (e *Engine) Deduct(ctx context.Context, ordered []domain.LineItem) domain.Snapshot {
	return e.commit(ctx, "deduct", func(items []domain.LineItem) ([]domain.LineItem, bool) {
		changed := false
		for _, o := range ordered {
			i := indexOf(items, o.ProductID)
			if i < 0 || o.Quantity < 1 {
				continue
			}
			changed = true
			if items[i].Quantity <= o.Quantity {
				items = append(items[:i], items[i+1:]...)
				continue
			}
			items[i].Quantity -= o.Quantity
		}
		return items, changed
	})
}

func remove(items []domain.LineItem, id domain.ID) ([]domain.LineItem, bool) {
	i := indexOf(items, id)
	if i < 0 {
		return items, false
	}
	return append(items[:i], items[i+1:]...), true
}

func (e *Engine) commit(ctx context.Context, op string, fn func([]domain.LineItem) ([]domain.LineItem, bool)) domain.Snapshot {
	e.mu.Lock()
	next, changed := fn(e.items)
	if !changed {
		snap := domain.NewSnapshot(e.items, e.version)
		e.mu.Unlock()
		return snap
	}

	e.items = next
	e.version++
	snap := domain.NewSnapshot(e.items, e.version)
	// A caller giving up must not leave the store behind memory.
	if !e.store.Save(context.WithoutCancel(ctx), e.key, snap.Items) {
		e.logger.Warn("cart kept in memory only",
			slog.String("op", op),
			slog.Uint64("version", snap.Version),
		)
	}
	e.mu.Unlock()

	if e.recorder != nil {
		e.recorder.RecordCartMutation(op)
	}
	e.broadcast(snap)
	return snap
}

// Snapshot returns a copy of the current cart with freshly derived totals.
func (e *Engine) Snapshot() domain.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return domain.NewSnapshot(e.items, e.version)
}

func (e *Engine) TotalItems() int {
	return e.Snapshot().TotalItems
}

func (e *Engine) TotalPrice() decimal.Decimal {
	return e.Snapshot().TotalPrice
}

// Subscribe registers fn to receive every committed snapshot. Deliveries
// happen on the mutating goroutine after the cart lock is released; callers
// mutating from several goroutines should drop snapshots whose Version is
// not newer than the last one seen. The returned func unsubscribes.
func (e *Engine) Subscribe(fn func(domain.Snapshot)) func() {
	e.subsMu.Lock()
	defer e.subsMu.Unlock()

	id := e.nextSub
	e.nextSub++
	e.subs[id] = fn

	return func() {
		e.subsMu.Lock()
		defer e.subsMu.Unlock()
		delete(e.subs, id)
	}
}

func (e *Engine) broadcast(snap domain.Snapshot) {
	e.subsMu.Lock()
	fns := make([]func(domain.Snapshot), 0, len(e.subs))
	for _, fn := range e.subs {
		fns = append(fns, fn)
	}
	e.subsMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}
