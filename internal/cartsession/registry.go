// Package cartsession keeps one cart per browser session in process memory.
package cartsession

import (
	"sync"
	"time"

	"github.com/example/eri-mobile-shop/internal/domain/cart"
	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	log "github.com/sirupsen/logrus"
)

// CookieName is the cookie carrying the cart session id
const CookieName = "cart_session"

type entry struct {
	mu   sync.Mutex
	cart *cart.Cart
}

// Registry maps session ids to carts. Idle carts expire after the TTL and
// the least recently used cart is evicted once the size bound is hit.
type Registry struct {
	mu    sync.Mutex
	carts *expirable.LRU[string, *entry]
}

func NewRegistry(size int, ttl time.Duration) *Registry {
	onEvict := func(sessionID string, _ *entry) {
		log.WithField("component", "cartsession").Debugf("cart for session %s evicted", sessionID)
	}
	return &Registry{carts: expirable.NewLRU[string, *entry](size, onEvict, ttl)}
}

// NewSessionID issues a fresh session id
func NewSessionID() string {
	return uuid.NewString()
}

// acquire returns the session entry, creating it if needed, and
// re-adds it so the idle TTL restarts.
func (r *Registry) acquire(sessionID string) *entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.carts.Get(sessionID)
	if !ok {
		e = &entry{cart: cart.New()}
	}
	r.carts.Add(sessionID, e)
	return e
}

// Update runs fn with the session's cart while holding the session lock.
// Requests for one session never interleave; different sessions run in parallel.
func (r *Registry) Update(sessionID string, fn func(c *cart.Cart) error) error {
	e := r.lock(sessionID)
	defer e.mu.Unlock()
	return fn(e.cart)
}

// lock returns the session's live entry with its lock held. An entry
// evicted between acquire and locking is dropped and acquired again.
func (r *Registry) lock(sessionID string) *entry {
	for {
		e := r.acquire(sessionID)
		e.mu.Lock()
		if r.isCurrent(sessionID, e) {
			return e
		}
		e.mu.Unlock()
	}
}

func (r *Registry) isCurrent(sessionID string, e *entry) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	live, ok := r.carts.Peek(sessionID)
	return ok && live == e
}

// Snapshot returns a copy of the session's line items
func (r *Registry) Snapshot(sessionID string) []cart.LineItem {
	var items []cart.LineItem
	_ = r.Update(sessionID, func(c *cart.Cart) error {
		items = c.Items()
		return nil
	})
	return items
}

// Forget drops the session's cart
func (r *Registry) Forget(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.carts.Remove(sessionID)
}

// Len is the number of live carts
func (r *Registry) Len() int {
	return r.carts.Len()
}
